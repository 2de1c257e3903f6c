package mot

// Rectangle is floating point box used by estimators. X and Y are the top-left corner.
type Rectangle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

// Center returns center of the rectangle
func (rect Rectangle) Center() Point {
	return Point{
		X: rect.X + rect.Width/2.0,
		Y: rect.Y + rect.Height/2.0,
	}
}

// Region converts rectangle into integer region (see NewRegionFromFloats)
func (rect Rectangle) Region() (Region, error) {
	return NewRegionFromFloats(rect.X, rect.Y, rect.Width, rect.Height)
}

type Point struct {
	X float64
	Y float64
}

// rectFromCenter builds rectangle from its center and size
func rectFromCenter(cx, cy, w, h float64) Rectangle {
	return Rectangle{
		X:      cx - w/2.0,
		Y:      cy - h/2.0,
		Width:  w,
		Height: h,
	}
}
