package mot

import (
	"fmt"
	"image"
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidRegion is returned when region coordinates are not finite numbers
	ErrInvalidRegion = errors.New("invalid region")
	// ErrEmptyRegionSet is returned when merging an empty set of regions
	ErrEmptyRegionSet = errors.New("can't merge empty set of regions")
)

// Region is an axis-aligned rectangle with integer coordinates.
// Width and height are never negative: construction with negative extents
// shifts the origin and marks the region as reversed.
type Region struct {
	X int
	Y int
	W int
	H int

	wasReversed bool
}

// NewRegion creates region. Negative width and/or height are normalized.
func NewRegion(x, y, w, h int) Region {
	reversed := false
	if w < 0 {
		w = -w
		x -= w
		reversed = true
	}
	if h < 0 {
		h = -h
		y -= h
		reversed = true
	}
	return Region{X: x, Y: y, W: w, H: h, wasReversed: reversed}
}

// NewRegionFromFloats creates region from floating point values (e.g. estimator state).
// Values are normalized first and then truncated toward zero.
func NewRegionFromFloats(x, y, w, h float64) (Region, error) {
	for _, v := range [4]float64{x, y, w, h} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Region{}, errors.Wrapf(ErrInvalidRegion, "x=%v,y=%v,w=%v,h=%v", x, y, w, h)
		}
	}
	reversed := false
	if w < 0 {
		w = -w
		x -= w
		reversed = true
	}
	if h < 0 {
		h = -h
		y -= h
		reversed = true
	}
	return Region{X: int(x), Y: int(y), W: int(w), H: int(h), wasReversed: reversed}, nil
}

// NewRegionFromRect converts image.Rectangle to Region
func NewRegionFromRect(rect image.Rectangle) Region {
	return NewRegion(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
}

// X2 returns right border
func (r Region) X2() int {
	return r.X + r.W
}

// Y2 returns bottom border
func (r Region) Y2() int {
	return r.Y + r.H
}

// WasReversed reports whether region has been constructed with negative width or height
func (r Region) WasReversed() bool {
	return r.wasReversed
}

// Area returns w*h
func (r Region) Area() int {
	return r.W * r.H
}

// Matrix returns (x, y, w, h) tuple
func (r Region) Matrix() [4]int {
	return [4]int{r.X, r.Y, r.W, r.H}
}

// Rect returns image.Rectangle for renderers
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X2(), r.Y2())
}

// Rectangle returns floating point copy of the region
func (r Region) Rectangle() Rectangle {
	return NewRect(float64(r.X), float64(r.Y), float64(r.W), float64(r.H))
}

func (r Region) String() string {
	return fmt.Sprintf("x=%d,y=%d,w=%d,h=%d", r.X, r.Y, r.W, r.H)
}

// IsOverlapping returns true if regions intersect or touch each other.
func (r Region) IsOverlapping(other Region) bool {
	if r.X > other.X2() || other.X > r.X2() {
		return false
	}
	if r.Y > other.Y2() || other.Y > r.Y2() {
		return false
	}
	return true
}

// OwnSubregion returns intersection of the region with the other one.
// Result is not normalized: for disjoint regions width or height is not positive,
// so callers must check Area() before using it.
func (r Region) OwnSubregion(other Region) Region {
	nx := maxInt(r.X, other.X)
	ny := maxInt(r.Y, other.Y)
	nx2 := minInt(r.X2(), other.X2())
	ny2 := minInt(r.Y2(), other.Y2())
	return Region{X: nx, Y: ny, W: nx2 - nx, H: ny2 - ny}
}

// MergeRegions returns the smallest region enclosing all of given regions.
func MergeRegions(regions []Region) (Region, error) {
	if len(regions) == 0 {
		return Region{}, ErrEmptyRegionSet
	}
	nx, ny := regions[0].X, regions[0].Y
	nx2, ny2 := regions[0].X2(), regions[0].Y2()
	for _, region := range regions[1:] {
		nx = minInt(nx, region.X)
		ny = minInt(ny, region.Y)
		nx2 = maxInt(nx2, region.X2())
		ny2 = maxInt(ny2, region.Y2())
	}
	return NewRegion(nx, ny, nx2-nx, ny2-ny), nil
}

// OverlapMatrix builds boolean matrix where matrix[i][j] tells whether rows[i] overlaps cols[j].
func OverlapMatrix(rows, cols []Region) [][]bool {
	matrix := make([][]bool, len(rows))
	for i := range rows {
		matrix[i] = make([]bool, len(cols))
		for j := range cols {
			matrix[i][j] = rows[i].IsOverlapping(cols[j])
		}
	}
	return matrix
}

// overlapCounts returns number of overlaps per row and per column of the matrix
func overlapCounts(matrix [][]bool, numCols int) (perRow []int, perCol []int) {
	perRow = make([]int, len(matrix))
	perCol = make([]int, numCols)
	for i, row := range matrix {
		for j, v := range row {
			if v {
				perRow[i]++
				perCol[j]++
			}
		}
	}
	return perRow, perCol
}
