package mot

import (
	"image/color"

	"github.com/pkg/errors"
)

// Tracker is a tracked object: recursive state estimator plus identity and lifecycle counters.
type Tracker struct {
	id                  int
	color               color.RGBA
	startMeasure        Region
	prediction          Region
	lifeTime            int
	framesWithoutUpdate int
	history             *PredictionHistory
	estimator           Estimator
}

// NewTrackerWithOptions creates tracker whose state is initialized from the measured region.
func NewTrackerWithOptions(id int, measure Region, kind EstimatorKind, noiseFactor float64) (*Tracker, error) {
	estimator, err := NewEstimator(kind, measure.Rectangle(), noiseFactor)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't create tracker %d", id)
	}
	return &Tracker{
		id:           id,
		color:        color.RGBA{R: 255, G: 255, B: 255, A: 255},
		startMeasure: measure,
		prediction:   measure,
		history:      NewPredictionHistory(DefaultHistoryCapacity),
		estimator:    estimator,
	}, nil
}

// NewTracker creates tracker with constant velocity estimator and default noise factor
func NewTracker(id int, measure Region) (*Tracker, error) {
	return NewTrackerWithOptions(id, measure, EstimatorConstantVelocity, DefaultNoiseFactor)
}

// ID returns tracker's identifier
func (tracker *Tracker) ID() int {
	return tracker.id
}

// Color returns display color of the tracker
func (tracker *Tracker) Color() color.RGBA {
	return tracker.color
}

// SetColor sets display color of the tracker
func (tracker *Tracker) SetColor(c color.RGBA) {
	tracker.color = c
}

// StartMeasure returns region tracker has been created from
func (tracker *Tracker) StartMeasure() Region {
	return tracker.startMeasure
}

// Prediction returns current (predicted or corrected) region
func (tracker *Tracker) Prediction() Region {
	return tracker.prediction
}

// LifeTime returns number of frames since creation
func (tracker *Tracker) LifeTime() int {
	return tracker.lifeTime
}

// FramesWithoutUpdate returns number of consecutive frames without successful correction
func (tracker *Tracker) FramesWithoutUpdate() int {
	return tracker.framesWithoutUpdate
}

// History returns recent predictions, the oldest first
func (tracker *Tracker) History() []Region {
	return tracker.history.Items()
}

// Velocity returns current velocity estimates (vx, vy, vw, vh)
func (tracker *Tracker) Velocity() (float64, float64, float64, float64) {
	return tracker.estimator.Velocity()
}

// Predict moves state one frame forward and returns predicted region.
// Prediction is stored in the history.
func (tracker *Tracker) Predict() Region {
	predicted := tracker.estimator.Predict()
	region, err := predicted.Region()
	if err != nil {
		// Diverged filter: zero area region is evicted by the tracker set
		region = Region{X: tracker.prediction.X, Y: tracker.prediction.Y, wasReversed: true}
	}
	tracker.prediction = region
	tracker.history.Push(region)
	return region
}

// Correct updates state with the measured region and returns corrected region
func (tracker *Tracker) Correct(measure Region) (Region, error) {
	corrected, err := tracker.estimator.Correct(measure.Rectangle())
	if err != nil {
		return Region{}, errors.Wrapf(err, "Can't correct tracker %d", tracker.id)
	}
	region, err := corrected.Region()
	if err != nil {
		return Region{}, errors.Wrapf(err, "Can't correct tracker %d", tracker.id)
	}
	tracker.prediction = region
	return region, nil
}

// MarkUpdated registers frame in which tracker has been corrected
func (tracker *Tracker) MarkUpdated() {
	tracker.lifeTime++
	tracker.framesWithoutUpdate = 0
}

// MarkNotUpdated registers frame in which tracker has not been matched with any region
func (tracker *Tracker) MarkNotUpdated() {
	tracker.lifeTime++
	tracker.framesWithoutUpdate++
}
