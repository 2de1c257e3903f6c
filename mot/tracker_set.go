package mot

import (
	"fmt"
	"image/color"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Prediction is tracker's current region exposed to renderers and metrics
type Prediction struct {
	TrackerID int
	Region    Region
	Color     color.RGBA
}

// TrackerSet is multi-object tracker (MOT) driven by overlapping of measured and predicted regions.
// For every frame it matches measured regions with trackers' predictions, resolving six
// association cases, and creates or removes trackers.
// It is not safe for concurrent use: frames must be passed one by one.
type TrackerSet struct {
	config     TrackerSetConfig
	log        logrus.FieldLogger
	sessionID  uuid.UUID
	ids        *IDAllocator
	colors     *rand.Rand
	frame      int
	statistics CaseStatistics
	// Active trackers in order of creation
	trackers []*Tracker
	// Predictions exposed after the last frame
	predictions []Prediction
}

// NewTrackerSetDefault creates TrackerSet with default settings (see DefaultTrackerSetConfig)
func NewTrackerSetDefault() *TrackerSet {
	ts, err := NewTrackerSet(DefaultTrackerSetConfig())
	if err != nil {
		panic("default configuration must be valid: " + err.Error())
	}
	return ts
}

// NewTrackerSet creates TrackerSet with given settings
func NewTrackerSet(config TrackerSetConfig) (*TrackerSet, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	sessionID := uuid.New()
	return &TrackerSet{
		config:      config,
		log:         logger.WithField("session", sessionID.String()),
		sessionID:   sessionID,
		ids:         NewIDAllocator(1),
		colors:      rand.New(rand.NewPCG(config.ColorSeed, config.ColorSeed^0x9e3779b97f4a7c15)),
		statistics:  newCaseStatistics(),
		trackers:    make([]*Tracker, 0),
		predictions: make([]Prediction, 0),
	}, nil
}

// Update processes measured regions of the next frame.
// On error the frame is abandoned and the error is returned to the caller.
func (ts *TrackerSet) Update(measured []Region) error {
	ts.frame++
	logger := ts.log.WithField("frame", ts.frame)

	if len(measured) == 0 {
		ts.updateNothingDetected(logger)
		return nil
	}

	// Bootstrap: every region gets its own tracker
	if len(ts.trackers) == 0 {
		for _, region := range measured {
			tracker, err := ts.spawn(region)
			if err != nil {
				return errors.Wrapf(err, "Can't bootstrap tracker for region %s", region)
			}
			ts.trackers = append(ts.trackers, tracker)
			logger.WithField("tracker_id", tracker.ID()).Debugf("Tracker created from %s", region)
		}
	}

	// Predict and drop trackers with degenerate predictions
	alive := make([]*Tracker, 0, len(ts.trackers))
	predicted := make([]Region, 0, len(ts.trackers))
	for _, tracker := range ts.trackers {
		prediction := tracker.Predict()
		if ts.isDegenerate(prediction) {
			logger.WithField("tracker_id", tracker.ID()).Debugf("Tracker removed: degenerate prediction %s", prediction)
			continue
		}
		alive = append(alive, tracker)
		predicted = append(predicted, prediction)
	}
	ts.trackers = alive

	// rows = measured regions, columns = trackers
	overlapping := OverlapMatrix(measured, predicted)
	trackersPerRegion, regionsPerTracker := overlapCounts(overlapping, len(predicted))

	// Tracker overlaps nothing
	for t, tracker := range ts.trackers {
		if regionsPerTracker[t] == 0 {
			tracker.MarkNotUpdated()
			ts.statistics.inc(CaseTrackerNoRegions)
		}
	}

	// Region overlaps nothing: new tracker joins the set after this frame
	pending := make([]*Tracker, 0)
	for r, region := range measured {
		if trackersPerRegion[r] != 0 {
			continue
		}
		tracker, err := ts.spawn(region)
		if err != nil {
			return errors.Wrapf(err, "Can't create tracker for region %s", region)
		}
		pending = append(pending, tracker)
		ts.statistics.inc(CaseRegionNoTrackers)
		logger.WithField("tracker_id", tracker.ID()).Debugf("Tracker created from %s", region)
	}

	for t, tracker := range ts.trackers {
		if regionsPerTracker[t] == 0 {
			continue
		}
		measure, associationCase, err := ts.resolveMeasure(t, measured, predicted[t], overlapping, trackersPerRegion, regionsPerTracker[t])
		if err != nil {
			return errors.Wrapf(err, "Can't associate tracker %d", tracker.ID())
		}
		if _, err := tracker.Correct(measure); err != nil {
			return err
		}
		tracker.MarkUpdated()
		ts.statistics.inc(associationCase)
	}

	// Drop lost trackers
	survivors := make([]*Tracker, 0, len(ts.trackers)+len(pending))
	for _, tracker := range ts.trackers {
		if tracker.FramesWithoutUpdate() > ts.config.LostTrackPatience {
			logger.WithField("tracker_id", tracker.ID()).Debugf("Tracker removed: lost for %d frames", tracker.FramesWithoutUpdate())
			continue
		}
		survivors = append(survivors, tracker)
	}
	ts.trackers = append(survivors, pending...)

	ts.predictions = ts.predictions[:0]
	for _, tracker := range ts.trackers {
		if tracker.FramesWithoutUpdate() == 0 {
			ts.predictions = append(ts.predictions, newPrediction(tracker))
		}
	}
	logger.WithField("trackers", len(ts.trackers)).Debugf("Cases: %s", ts.statistics)
	return nil
}

// resolveMeasure returns region tracker t has to be corrected with and the association case.
// Tracker t must overlap at least one region.
func (ts *TrackerSet) resolveMeasure(t int, measured []Region, prediction Region, overlapping [][]bool, trackersPerRegion []int, regionsCount int) (Region, AssociationCase, error) {
	if regionsCount == 1 {
		for r := range measured {
			if !overlapping[r][t] {
				continue
			}
			if trackersPerRegion[r] == 1 {
				return measured[r], CaseOneToOne, nil
			}
			// Several trackers share the region: take own part of it only
			return measured[r].OwnSubregion(prediction), CaseManyTrackersOneRegion, nil
		}
	}

	regions := make([]Region, 0, regionsCount)
	shared := false
	for r := range measured {
		if !overlapping[r][t] {
			continue
		}
		regions = append(regions, measured[r])
		if trackersPerRegion[r] > 1 {
			shared = true
		}
	}
	merged, err := MergeRegions(regions)
	if err != nil {
		return Region{}, 0, err
	}
	if !shared {
		return merged, CaseOneTrackerManyRegions, nil
	}
	return merged.OwnSubregion(prediction), CaseManyToMany, nil
}

// updateNothingDetected handles frame without measured regions: trackers are moved blindly
func (ts *TrackerSet) updateNothingDetected(logger logrus.FieldLogger) {
	survivors := make([]*Tracker, 0, len(ts.trackers))
	for _, tracker := range ts.trackers {
		tracker.MarkNotUpdated()
		if tracker.FramesWithoutUpdate() > ts.config.LostTrackPatience {
			logger.WithField("tracker_id", tracker.ID()).Debugf("Tracker removed: lost for %d frames", tracker.FramesWithoutUpdate())
			continue
		}
		survivors = append(survivors, tracker)
	}
	ts.trackers = survivors
	ts.predictions = ts.predictions[:0]
	for _, tracker := range ts.trackers {
		tracker.Predict()
		ts.predictions = append(ts.predictions, newPrediction(tracker))
	}
}

// spawn creates tracker from the region and corrects it with the same region
func (ts *TrackerSet) spawn(region Region) (*Tracker, error) {
	tracker, err := NewTrackerWithOptions(ts.ids.Peek(), region, ts.config.Estimator, ts.config.NoiseFactor)
	if err != nil {
		return nil, err
	}
	ts.ids.Next()
	tracker.SetColor(ts.nextColor())
	if _, err := tracker.Correct(region); err != nil {
		return nil, err
	}
	return tracker, nil
}

func (ts *TrackerSet) isDegenerate(prediction Region) bool {
	return prediction.WasReversed() || prediction.Area() < ts.config.MinPredictionArea
}

func (ts *TrackerSet) nextColor() color.RGBA {
	return color.RGBA{
		R: uint8(ts.colors.IntN(256)),
		G: uint8(ts.colors.IntN(256)),
		B: uint8(ts.colors.IntN(256)),
		A: 255,
	}
}

func newPrediction(tracker *Tracker) Prediction {
	return Prediction{
		TrackerID: tracker.ID(),
		Region:    tracker.Prediction(),
		Color:     tracker.Color(),
	}
}

// Predictions returns copy of predictions exposed after the last frame
func (ts *TrackerSet) Predictions() []Prediction {
	result := make([]Prediction, len(ts.predictions))
	copy(result, ts.predictions)
	return result
}

// PredictedRegions returns regions of Predictions()
func (ts *TrackerSet) PredictedRegions() []Region {
	result := make([]Region, len(ts.predictions))
	for i := range ts.predictions {
		result[i] = ts.predictions[i].Region
	}
	return result
}

// Trackers returns active trackers. Slice is a copy, but trackers are not.
func (ts *TrackerSet) Trackers() []*Tracker {
	result := make([]*Tracker, len(ts.trackers))
	copy(result, ts.trackers)
	return result
}

// Len returns number of active trackers
func (ts *TrackerSet) Len() int {
	return len(ts.trackers)
}

// Frame returns number of processed frames
func (ts *TrackerSet) Frame() int {
	return ts.frame
}

// SessionID returns identifier of the tracking session
func (ts *TrackerSet) SessionID() uuid.UUID {
	return ts.sessionID
}

// Config returns settings of the set
func (ts *TrackerSet) Config() TrackerSetConfig {
	return ts.config
}

// CaseStatistics returns counters of association cases
func (ts *TrackerSet) CaseStatistics() CaseStatistics {
	return ts.statistics
}

// Statistics returns human readable summary: number of trackers and case counters
func (ts *TrackerSet) Statistics() string {
	return fmt.Sprintf("%d Trackers, cases = %s", len(ts.trackers), ts.statistics)
}
