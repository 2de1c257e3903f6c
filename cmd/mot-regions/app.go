package main

import (
	"github.com/LdDl/mot-regions/mot"
	"github.com/LdDl/mot-regions/trackstore"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type trackJSON struct {
	ID    int    `json:"id"`
	BBox  [4]int `json:"bbox"`
	Color string `json:"color"`
}

type metricsJSON struct {
	Fragmentation *float64 `json:"fragmentation"`
	Recall        *float64 `json:"recall"`
	Precision     *float64 `json:"precision"`
	AssignmentIoU *float64 `json:"assignment_iou"`
}

// application replays JSON lines through a single tracker set
type application struct {
	tracker    *mot.TrackerSet
	metrics    *mot.MetricsWrapper
	store      *trackstore.Store
	log        logrus.FieldLogger
	minSize    int
	warmup     int
	maxObjects int
	lines      int
}

// newApplication creates replay state. Frames with more than maxObjects regions are
// treated as noise and passed through; non-positive maxObjects disables the check.
func newApplication(cfg mot.TrackerSetConfig, minSize, warmup, maxObjects int) (*application, error) {
	tracker, err := mot.NewTrackerSet(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &application{
		tracker:    tracker,
		metrics:    mot.NewMetricsWrapper(),
		log:        logger,
		minSize:    minSize,
		warmup:     warmup,
		maxObjects: maxObjects,
	}, nil
}

func (app *application) attachStore(store *trackstore.Store) error {
	summary, err := configSummary(app.tracker.Config())
	if err != nil {
		return errors.Wrap(err, "Can't encode configuration")
	}
	if err := store.BeginRun(app.tracker.SessionID(), summary); err != nil {
		return err
	}
	app.store = store
	return nil
}

// processLine runs one frame through the tracker and returns the line enriched with
// "tracks", "stats" and (when ground truth is given) "metrics".
// Tracker state is not touched when the line is rejected by parsing or by the frame check of the store.
func (app *application) processLine(reqdata []byte) ([]byte, error) {
	app.lines++
	if !gjson.ValidBytes(reqdata) {
		return nil, errors.New("invalid JSON")
	}
	if app.lines <= app.warmup {
		return reqdata, nil
	}
	parsed := gjson.ParseBytes(reqdata)

	measured, err := parseRegions(parsed.Get("regions"))
	if err != nil {
		return nil, errors.Wrap(err, "bad 'regions'")
	}
	if app.maxObjects > 0 && len(measured) > app.maxObjects {
		app.log.WithFields(logrus.Fields{
			"line":    app.lines,
			"regions": len(measured),
		}).Warnf("Too many objects (max %d), probably noise. Frame is skipped", app.maxObjects)
		return reqdata, nil
	}
	measured = filterSmall(measured, app.minSize)

	var groundTruth []mot.Region
	groundTruthJSON := parsed.Get("ground_truth")
	if groundTruthJSON.Exists() {
		groundTruth, err = parseRegions(groundTruthJSON)
		if err != nil {
			return nil, errors.Wrap(err, "bad 'ground_truth'")
		}
	}

	frame := app.tracker.Frame() + 1
	if parsed.Get("frame").Exists() {
		frame = int(parsed.Get("frame").Int())
	}
	if app.store != nil {
		stored, err := app.store.HasFrame(app.tracker.SessionID(), frame)
		if err != nil {
			return nil, err
		}
		if stored {
			return nil, errors.Errorf("frame %d has been processed already", frame)
		}
	}

	if err := app.tracker.Update(measured); err != nil {
		return nil, errors.Wrap(err, "Can't update tracker set")
	}
	predictions := app.tracker.Predictions()

	tracks := make([]trackJSON, 0, len(predictions))
	for _, p := range predictions {
		tracks = append(tracks, trackJSON{
			ID:    p.TrackerID,
			BBox:  p.Region.Matrix(),
			Color: trackstore.HexColor(p.Color),
		})
	}
	response, err := sjson.SetBytes(reqdata, "tracks", tracks)
	if err != nil {
		return nil, errors.Wrap(err, "Can't set 'tracks'")
	}
	response, err = sjson.SetBytes(response, "stats", app.tracker.Statistics())
	if err != nil {
		return nil, errors.Wrap(err, "Can't set 'stats'")
	}

	if groundTruthJSON.Exists() {
		app.metrics.UpdateForFrame(groundTruth, app.tracker.PredictedRegions())
		result := app.metrics.Result()
		response, err = sjson.SetBytes(response, "metrics", metricsJSON{
			Fragmentation: valuePtr(result.Fragmentation),
			Recall:        valuePtr(result.Recall),
			Precision:     valuePtr(result.Precision),
			AssignmentIoU: valuePtr(result.AssignmentIoU),
		})
		if err != nil {
			return nil, errors.Wrap(err, "Can't set 'metrics'")
		}
		if app.store != nil {
			if err := app.store.SaveMetrics(app.tracker.SessionID(), frame, result); err != nil {
				return nil, err
			}
		}
	}

	if app.store != nil {
		if err := app.store.SaveFrame(app.tracker.SessionID(), frame, predictions); err != nil {
			return nil, err
		}
	}
	return response, nil
}

// parseRegions reads array of [x, y, w, h] arrays. Missing field gives empty set
func parseRegions(value gjson.Result) ([]mot.Region, error) {
	regions := make([]mot.Region, 0)
	if !value.Exists() || value.Type == gjson.Null {
		return regions, nil
	}
	if !value.IsArray() {
		return nil, errors.New("array expected")
	}
	for i, item := range value.Array() {
		coords := item.Array()
		if !item.IsArray() || len(coords) != 4 {
			return nil, errors.Errorf("region #%d: [x, y, w, h] expected, got %s", i, item.Raw)
		}
		for _, coord := range coords {
			if coord.Type != gjson.Number {
				return nil, errors.Wrapf(mot.ErrInvalidRegion, "region #%d: number expected, got %s", i, coord.Raw)
			}
		}
		region, err := mot.NewRegionFromFloats(coords[0].Float(), coords[1].Float(), coords[2].Float(), coords[3].Float())
		if err != nil {
			return nil, errors.Wrapf(err, "region #%d", i)
		}
		regions = append(regions, region)
	}
	return regions, nil
}

func filterSmall(regions []mot.Region, minSize int) []mot.Region {
	result := make([]mot.Region, 0, len(regions))
	for _, region := range regions {
		if region.W < minSize || region.H < minSize {
			continue
		}
		result = append(result, region)
	}
	return result
}

func valuePtr(v mot.MetricValue) *float64 {
	if !v.Valid {
		return nil
	}
	value := v.Value
	return &value
}
