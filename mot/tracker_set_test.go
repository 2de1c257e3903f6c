package mot

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrackerSet(t *testing.T, patience int) (*TrackerSet, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := DefaultTrackerSetConfig()
	cfg.LostTrackPatience = patience
	cfg.Logger = logger
	ts, err := NewTrackerSet(cfg)
	require.NoError(t, err)
	return ts, hook
}

func predictionIDs(ts *TrackerSet) []int {
	ids := make([]int, 0)
	for _, p := range ts.Predictions() {
		ids = append(ids, p.TrackerID)
	}
	return ids
}

func TestNewTrackerSetDefault(t *testing.T) {
	ts := NewTrackerSetDefault()
	assert.Equal(t, 0, ts.Len())
	assert.Equal(t, 0, ts.Frame())
	assert.NotEqual(t, uuid.Nil, ts.SessionID())
	assert.Equal(t, DefaultTrackerSetConfig().LostTrackPatience, ts.Config().LostTrackPatience)
	assert.Equal(t, "0 Trackers, cases = [(T:1-0:R -> 0), (T:0-1:R -> 0), (T:1-1:R -> 0), (T:2+-1:R -> 0), (T:1-2+:R -> 0), (T:2+-2+:R -> 0)]", ts.Statistics())
}

func TestNewTrackerSetInvalidConfig(t *testing.T) {
	cfg := DefaultTrackerSetConfig()
	cfg.NoiseFactor = 0
	_, err := NewTrackerSet(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTrackerSetEmptyFrameOnEmptySet(t *testing.T) {
	ts, _ := newTestTrackerSet(t, 5)
	require.NoError(t, ts.Update(nil))
	assert.Equal(t, 0, ts.Len())
	assert.Empty(t, ts.Predictions())
	assert.Equal(t, 1, ts.Frame())
}

func TestTrackerSetBootstrap(t *testing.T) {
	ts, hook := newTestTrackerSet(t, 5)
	measures := []Region{
		NewRegion(0, 0, 20, 20),
		NewRegion(100, 0, 20, 20),
		NewRegion(0, 100, 20, 20),
	}
	require.NoError(t, ts.Update(measures))

	require.Equal(t, len(measures), ts.Len())
	for i, tracker := range ts.Trackers() {
		assert.Equal(t, i+1, tracker.ID())
		assert.Equal(t, measures[i], tracker.StartMeasure())
		assert.Equal(t, measures[i], tracker.Prediction())
		assert.Equal(t, 0, tracker.FramesWithoutUpdate())
		assert.Equal(t, uint8(255), tracker.Color().A)
	}
	assert.Equal(t, []int{1, 2, 3}, predictionIDs(ts))
	assert.Equal(t, 3, ts.CaseStatistics().Count(CaseOneToOne))

	created := 0
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Tracker created from "+measures[0].String() {
			created++
			assert.Equal(t, 1, entry.Data["tracker_id"])
			assert.Equal(t, 1, entry.Data["frame"])
			assert.Equal(t, ts.SessionID().String(), entry.Data["session"])
		}
	}
	assert.Equal(t, 1, created)
}

func TestTrackerSetPatience(t *testing.T) {
	patience := 3
	region := NewRegion(50, 50, 20, 20)

	// Unmatched for patience+1 frames: removed
	ts, _ := newTestTrackerSet(t, patience)
	require.NoError(t, ts.Update([]Region{region}))
	for i := 0; i < patience; i++ {
		require.NoError(t, ts.Update(nil))
		require.Equal(t, 1, ts.Len(), "tracker should survive frame %d without update", i+1)
		assert.Equal(t, i+1, ts.Trackers()[0].FramesWithoutUpdate())
	}
	require.NoError(t, ts.Update(nil))
	assert.Equal(t, 0, ts.Len())
	assert.Empty(t, ts.Predictions())

	// Matched after patience unmatched frames: survives
	ts, _ = newTestTrackerSet(t, patience)
	require.NoError(t, ts.Update([]Region{region}))
	for i := 0; i < patience; i++ {
		require.NoError(t, ts.Update(nil))
	}
	require.NoError(t, ts.Update([]Region{region}))
	require.Equal(t, 1, ts.Len())
	tracker := ts.Trackers()[0]
	assert.Equal(t, 1, tracker.ID())
	assert.Equal(t, 0, tracker.FramesWithoutUpdate())
	assert.Equal(t, patience+2, tracker.LifeTime())
	assert.Equal(t, []int{1}, predictionIDs(ts))
}

func TestTrackerSetEmptyFramePredictions(t *testing.T) {
	ts, _ := newTestTrackerSet(t, 5)
	require.NoError(t, ts.Update([]Region{NewRegion(0, 0, 20, 20), NewRegion(100, 100, 20, 20)}))
	require.NoError(t, ts.Update(nil))

	// Every coasting tracker is exposed on empty frame
	assert.Equal(t, []int{1, 2}, predictionIDs(ts))
	assert.Len(t, ts.Trackers()[0].History(), 2)
}

func TestTrackerSetLostAndSpawned(t *testing.T) {
	ts, _ := newTestTrackerSet(t, 1)
	require.NoError(t, ts.Update([]Region{NewRegion(0, 0, 10, 10)}))

	far := NewRegion(200, 200, 20, 20)
	require.NoError(t, ts.Update([]Region{far}))

	// Tracker 1 is not updated, tracker 2 is pending until the frame ends
	stats := ts.CaseStatistics()
	assert.Equal(t, 1, stats.Count(CaseTrackerNoRegions))
	assert.Equal(t, 1, stats.Count(CaseRegionNoTrackers))
	require.Equal(t, 2, ts.Len())
	assert.Equal(t, []int{2}, predictionIDs(ts))
	assert.Equal(t, far, ts.Predictions()[0].Region)

	require.NoError(t, ts.Update([]Region{far}))
	require.Equal(t, 1, ts.Len())
	assert.Equal(t, 2, ts.Trackers()[0].ID())
	assert.Equal(t, []int{2}, predictionIDs(ts))
}

func TestTrackerSetDegeneratePrediction(t *testing.T) {
	cfg := DefaultTrackerSetConfig()
	cfg.MinPredictionArea = 100
	cfg.Logger, _ = test.NewNullLogger()
	ts, err := NewTrackerSet(cfg)
	require.NoError(t, err)

	small := NewRegion(0, 0, 5, 5)
	require.NoError(t, ts.Update([]Region{small}))

	// Bootstrapped tracker is evicted in the prediction pass, the region spawns a new one
	require.Equal(t, 1, ts.Len())
	assert.Equal(t, 2, ts.Trackers()[0].ID())
	assert.Equal(t, 1, ts.CaseStatistics().Count(CaseRegionNoTrackers))
	assert.Equal(t, 0, ts.CaseStatistics().Count(CaseOneToOne))

	require.NoError(t, ts.Update([]Region{small}))
	require.Equal(t, 1, ts.Len())
	assert.Equal(t, 3, ts.Trackers()[0].ID())
}

func TestTrackerSetReversedPrediction(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	cfg := DefaultTrackerSetConfig()
	cfg.MinPredictionArea = 0
	cfg.Logger = logger
	ts, err := NewTrackerSet(cfg)
	require.NoError(t, err)

	// Shrinking width gives negative width velocity
	for _, w := range []int{100, 70, 40, 15} {
		require.NoError(t, ts.Update([]Region{NewRegion(0, 0, w, 100)}))
		require.Equal(t, 1, ts.Len(), "tracker should follow width %d", w)
		assert.Equal(t, 1, ts.Trackers()[0].ID())
	}
	assert.Equal(t, 4, ts.CaseStatistics().Count(CaseOneToOne))

	// Next prediction has negative width: tracker is removed even though its area is not below the limit
	require.NoError(t, ts.Update([]Region{NewRegion(500, 500, 20, 20)}))
	require.Equal(t, 1, ts.Len())
	assert.Equal(t, 2, ts.Trackers()[0].ID())
	assert.Equal(t, 0, ts.CaseStatistics().Count(CaseTrackerNoRegions))

	removed := 0
	for _, entry := range hook.AllEntries() {
		if entry.Data["tracker_id"] == 1 && strings.HasPrefix(entry.Message, "Tracker removed: degenerate prediction") {
			removed++
		}
	}
	assert.Equal(t, 1, removed)
}

func TestTrackerSetOneTrackerManyRegions(t *testing.T) {
	ts, _ := newTestTrackerSet(t, 5)
	require.NoError(t, ts.Update([]Region{NewRegion(0, 0, 10, 10)}))

	require.NoError(t, ts.Update([]Region{NewRegion(0, 0, 5, 10), NewRegion(5, 0, 5, 10)}))
	assert.Equal(t, 1, ts.CaseStatistics().Count(CaseOneTrackerManyRegions))
	require.Equal(t, 1, ts.Len())
	predictions := ts.Predictions()
	require.Len(t, predictions, 1)
	assert.Equal(t, NewRegion(0, 0, 10, 10), predictions[0].Region)
}

func TestTrackerSetManyTrackersOneRegion(t *testing.T) {
	ts, _ := newTestTrackerSet(t, 5)
	left := NewRegion(0, 0, 4, 10)
	right := NewRegion(6, 0, 4, 10)
	require.NoError(t, ts.Update([]Region{left, right}))
	require.Equal(t, 2, ts.Len())

	require.NoError(t, ts.Update([]Region{NewRegion(0, 0, 10, 10)}))
	assert.Equal(t, 2, ts.CaseStatistics().Count(CaseManyTrackersOneRegion))
	require.Equal(t, 2, ts.Len())

	// Each tracker keeps its own part of the shared region
	predictions := ts.Predictions()
	require.Len(t, predictions, 2)
	assert.Equal(t, left, predictions[0].Region)
	assert.Equal(t, right, predictions[1].Region)
}

func TestTrackerSetManyToMany(t *testing.T) {
	ts, _ := newTestTrackerSet(t, 5)
	require.NoError(t, ts.Update([]Region{NewRegion(0, 0, 10, 10), NewRegion(30, 0, 10, 10)}))

	// Tracker 1 overlaps both regions, the second one is shared with tracker 2
	require.NoError(t, ts.Update([]Region{NewRegion(0, 0, 5, 10), NewRegion(8, 0, 25, 10)}))
	stats := ts.CaseStatistics()
	assert.Equal(t, 1, stats.Count(CaseManyToMany))
	assert.Equal(t, 1, stats.Count(CaseManyTrackersOneRegion))
	assert.Equal(t, 2, ts.Len())
	assert.Equal(t, []int{1, 2}, predictionIDs(ts))
}

func TestResolveMeasure(t *testing.T) {
	ts, _ := newTestTrackerSet(t, 5)

	// One tracker, two exclusive regions: merged region
	measured := []Region{NewRegion(0, 0, 5, 10), NewRegion(5, 0, 5, 10)}
	prediction := NewRegion(0, 0, 10, 10)
	overlapping := OverlapMatrix(measured, []Region{prediction})
	trackersPerRegion, regionsPerTracker := overlapCounts(overlapping, 1)
	measure, associationCase, err := ts.resolveMeasure(0, measured, prediction, overlapping, trackersPerRegion, regionsPerTracker[0])
	require.NoError(t, err)
	assert.Equal(t, CaseOneTrackerManyRegions, associationCase)
	assert.Equal(t, NewRegion(0, 0, 10, 10), measure)

	// Two trackers, one region: intersection with own prediction
	measured = []Region{NewRegion(0, 0, 10, 10)}
	predicted := []Region{NewRegion(-5, 2, 8, 4), NewRegion(6, 6, 10, 10)}
	overlapping = OverlapMatrix(measured, predicted)
	trackersPerRegion, regionsPerTracker = overlapCounts(overlapping, len(predicted))
	for t2, expected := range []Region{NewRegion(0, 2, 3, 4), NewRegion(6, 6, 4, 4)} {
		measure, associationCase, err := ts.resolveMeasure(t2, measured, predicted[t2], overlapping, trackersPerRegion, regionsPerTracker[t2])
		require.NoError(t, err)
		assert.Equal(t, CaseManyTrackersOneRegion, associationCase)
		assert.Equal(t, expected, measure)
	}

	// Tracker overlaps two regions, one of them shared: own part of the merged region
	measured = []Region{NewRegion(0, 0, 5, 10), NewRegion(8, 0, 25, 10)}
	predicted = []Region{NewRegion(0, 0, 10, 10), NewRegion(30, 0, 10, 10)}
	overlapping = OverlapMatrix(measured, predicted)
	trackersPerRegion, regionsPerTracker = overlapCounts(overlapping, len(predicted))
	measure, associationCase, err = ts.resolveMeasure(0, measured, predicted[0], overlapping, trackersPerRegion, regionsPerTracker[0])
	require.NoError(t, err)
	assert.Equal(t, CaseManyToMany, associationCase)
	assert.Equal(t, NewRegion(0, 0, 10, 10), measure)
}

func TestTrackerSetColorsAreSeeded(t *testing.T) {
	cfg := DefaultTrackerSetConfig()
	cfg.ColorSeed = 42
	cfg.Logger, _ = test.NewNullLogger()
	a, err := NewTrackerSet(cfg)
	require.NoError(t, err)
	b, err := NewTrackerSet(cfg)
	require.NoError(t, err)

	regions := []Region{NewRegion(0, 0, 20, 20), NewRegion(100, 0, 20, 20)}
	require.NoError(t, a.Update(regions))
	require.NoError(t, b.Update(regions))
	for i := range regions {
		assert.Equal(t, a.Predictions()[i].Color, b.Predictions()[i].Color)
	}
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestTrackerSetStatistics(t *testing.T) {
	ts, _ := newTestTrackerSet(t, 5)
	require.NoError(t, ts.Update([]Region{NewRegion(0, 0, 20, 20)}))
	require.NoError(t, ts.Update([]Region{NewRegion(0, 0, 20, 20), NewRegion(300, 300, 20, 20)}))
	assert.Equal(t, "2 Trackers, cases = [(T:1-0:R -> 0), (T:0-1:R -> 1), (T:1-1:R -> 2), (T:2+-1:R -> 0), (T:1-2+:R -> 0), (T:2+-2+:R -> 0)]", ts.Statistics())
	assert.Equal(t, "T:1-1:R", CaseOneToOne.String())
	assert.Equal(t, "Trackers 1  <=> 1  Region", ts.CaseStatistics()[CaseOneToOne].Name)
}
