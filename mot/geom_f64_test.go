package mot

import (
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestRectangleCenter(t *testing.T) {
	rect := NewRect(341, 264, 80, 163)
	correctAnswer := Point{X: 381, Y: 345.5}
	answer := rect.Center()
	if math.Abs(answer.X-correctAnswer.X) > eps || math.Abs(answer.Y-correctAnswer.Y) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correctAnswer)
	}
	back := rectFromCenter(answer.X, answer.Y, rect.Width, rect.Height)
	if back != rect {
		t.Errorf("Wrong answer: %v, correct answer: %v", back, rect)
	}
}

func TestRectangleRegion(t *testing.T) {
	region, err := NewRect(1.9, 2.1, 30.5, 40.99).Region()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if region.Matrix() != [4]int{1, 2, 30, 40} {
		t.Errorf("Wrong answer: %v, correct answer: x=1,y=2,w=30,h=40", region)
	}
	if _, err := NewRect(math.Inf(1), 0, 1, 1).Region(); err == nil {
		t.Error("Infinite coordinate should be rejected")
	}
}
