package mot

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// FrameMetric compares ground truth regions with predicted regions frame by frame
type FrameMetric interface {
	UpdateForFrame(groundTruth, predicted []Region)
	Result() MetricValue
}

// MetricValue is mean of collected scores. Valid is false when there is no data.
type MetricValue struct {
	Value float64
	Valid bool
}

func (mv MetricValue) String() string {
	if !mv.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", mv.Value)
}

// accumulator collects per-region scores across frames
type accumulator struct {
	scores []float64
}

func (acc *accumulator) add(score float64) {
	acc.scores = append(acc.scores, score)
}

// Result returns arithmetic mean of collected scores
func (acc *accumulator) Result() MetricValue {
	if len(acc.scores) == 0 {
		return MetricValue{}
	}
	return MetricValue{Value: stat.Mean(acc.scores, nil), Valid: true}
}

// Len returns number of collected scores
func (acc *accumulator) Len() int {
	return len(acc.scores)
}

// FragmentationMetric scores how many predictions cover a single ground truth region.
// Region covered by k predictions scores 1/(1+ln(k)); uncovered regions are skipped.
type FragmentationMetric struct {
	accumulator
}

// NewFragmentationMetric creates empty metric
func NewFragmentationMetric() *FragmentationMetric {
	return &FragmentationMetric{}
}

func (m *FragmentationMetric) UpdateForFrame(groundTruth, predicted []Region) {
	overlapping := OverlapMatrix(groundTruth, predicted)
	predictionsPerRegion, _ := overlapCounts(overlapping, len(predicted))
	for _, k := range predictionsPerRegion {
		if k > 0 {
			m.add(1.0 / (1.0 + math.Log(float64(k))))
		}
	}
}

// RecallMetric is average object area recall (AOR): part of every ground truth region
// covered by predictions.
type RecallMetric struct {
	accumulator
}

// NewRecallMetric creates empty metric
func NewRecallMetric() *RecallMetric {
	return &RecallMetric{}
}

func (m *RecallMetric) UpdateForFrame(groundTruth, predicted []Region) {
	overlapping := OverlapMatrix(groundTruth, predicted)
	for g, region := range groundTruth {
		m.add(coveredFraction(region, predicted, overlapping[g]))
	}
}

// PrecisionMetric is average detected box area precision (ADBA): part of every predicted
// region covered by ground truth. Zero area prediction scores 0.
type PrecisionMetric struct {
	accumulator
}

// NewPrecisionMetric creates empty metric
func NewPrecisionMetric() *PrecisionMetric {
	return &PrecisionMetric{}
}

func (m *PrecisionMetric) UpdateForFrame(groundTruth, predicted []Region) {
	overlapping := OverlapMatrix(predicted, groundTruth)
	for p, region := range predicted {
		m.add(coveredFraction(region, groundTruth, overlapping[p]))
	}
}

// coveredFraction returns CoverArea(base, own subregions of overlapping others) / area(base)
func coveredFraction(base Region, others []Region, overlaps []bool) float64 {
	area := base.Area()
	if area <= 0 {
		return 0
	}
	subregions := make([]Region, 0, len(others))
	for i, other := range others {
		if overlaps[i] {
			subregions = append(subregions, base.OwnSubregion(other))
		}
	}
	return float64(CoverArea(base, subregions)) / float64(area)
}

// MetricsResult is snapshot of all metrics
type MetricsResult struct {
	Fragmentation MetricValue
	Recall        MetricValue
	Precision     MetricValue
	AssignmentIoU MetricValue
}

func (mr MetricsResult) String() string {
	return fmt.Sprintf("fragmentation=%s, recall=%s, precision=%s, assignment_iou=%s", mr.Fragmentation, mr.Recall, mr.Precision, mr.AssignmentIoU)
}

// MetricsWrapper updates all metrics at once
type MetricsWrapper struct {
	Fragmentation *FragmentationMetric
	Recall        *RecallMetric
	Precision     *PrecisionMetric
	AssignmentIoU *AssignmentIoUMetric
	frames        int
}

// NewMetricsWrapper creates wrapper with empty metrics
func NewMetricsWrapper() *MetricsWrapper {
	return &MetricsWrapper{
		Fragmentation: NewFragmentationMetric(),
		Recall:        NewRecallMetric(),
		Precision:     NewPrecisionMetric(),
		AssignmentIoU: NewAssignmentIoUMetric(),
	}
}

func (w *MetricsWrapper) all() []FrameMetric {
	return []FrameMetric{w.Fragmentation, w.Recall, w.Precision, w.AssignmentIoU}
}

// UpdateForFrame updates every metric with regions of a single frame
func (w *MetricsWrapper) UpdateForFrame(groundTruth, predicted []Region) {
	for _, metric := range w.all() {
		metric.UpdateForFrame(groundTruth, predicted)
	}
	w.frames++
}

// Frames returns number of scored frames
func (w *MetricsWrapper) Frames() int {
	return w.frames
}

// Result returns current values of all metrics
func (w *MetricsWrapper) Result() MetricsResult {
	return MetricsResult{
		Fragmentation: w.Fragmentation.Result(),
		Recall:        w.Recall.Result(),
		Precision:     w.Precision.Result(),
		AssignmentIoU: w.AssignmentIoU.Result(),
	}
}
