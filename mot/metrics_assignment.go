package mot

import (
	"github.com/arthurkushman/go-hungarian"
)

// AssignmentIoUMetric pairs ground truth regions with predictions one-to-one, maximizing
// total IoU (Hungarian algorithm), and scores every ground truth region with IoU of
// its pair. Unpaired ground truth regions score 0.
type AssignmentIoUMetric struct {
	accumulator
}

// NewAssignmentIoUMetric creates empty metric
func NewAssignmentIoUMetric() *AssignmentIoUMetric {
	return &AssignmentIoUMetric{}
}

func (m *AssignmentIoUMetric) UpdateForFrame(groundTruth, predicted []Region) {
	if len(groundTruth) == 0 {
		return
	}
	scores := make([]float64, len(groundTruth))
	for g, p := range assignMaxIoU(groundTruth, predicted) {
		scores[g] = IoU(groundTruth[g], predicted[p])
	}
	for _, score := range scores {
		m.add(score)
	}
}

// assignMaxIoU returns map from index of row region to index of paired column region.
// Pairs with zero IoU are skipped.
func assignMaxIoU(rows, cols []Region) map[int]int {
	matches := make(map[int]int)
	numRows := len(rows)
	numCols := len(cols)
	if numRows == 0 || numCols == 0 {
		return matches
	}

	// Rectangular matrix is padded with zeros (lowest IoU) to make it square
	size := maxInt(numRows, numCols)
	iouMatrix := make([][]float64, size)
	for i := 0; i < size; i++ {
		iouMatrix[i] = make([]float64, size)
	}
	nonZero := false
	for i := 0; i < numRows; i++ {
		for j := 0; j < numCols; j++ {
			iouMatrix[i][j] = IoU(rows[i], cols[j])
			if iouMatrix[i][j] > 0 {
				nonZero = true
			}
		}
	}
	if !nonZero {
		return matches
	}

	assignments := hungarian.SolveMax(iouMatrix)
	for rowIndex, rowMap := range assignments {
		for colIndex := range rowMap {
			// Skip dummy rows and columns
			if rowIndex < numRows && colIndex < numCols && iouMatrix[rowIndex][colIndex] > 0 {
				matches[rowIndex] = colIndex
			}
			break
		}
	}
	return matches
}
