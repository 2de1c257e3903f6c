package mot

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
)

// CenterKalman is a wrapper around 8-D Kalman filter for bounding box dynamics.
// State vector: [cx, cy, w, h, vx, vy, vw, vh] - center position, size, and velocities.
// Boxes passed in and out are top-left based.
// It implements Estimator interface.
type CenterKalman struct {
	tracker *kalman_filter.KalmanBBox
}

// NewCenterKalman creates filter with state set to the given box.
// noiseFactor is used as standard deviation of acceleration.
func NewCenterKalman(initial Rectangle, noiseFactor float64) *CenterKalman {
	center := initial.Center()

	// Kalman filter props
	dt := 1.0
	uCx := 0.0
	uCy := 0.0
	uW := 0.0
	uH := 0.0
	stdDevA := noiseFactor
	stdDevM := math.Sqrt(initialCovariance)
	kf := kalman_filter.NewKalmanBBox(
		dt, uCx, uCy, uW, uH,
		stdDevA, stdDevM, stdDevM, stdDevM, stdDevM,
		kalman_filter.WithStateBBox(center.X, center.Y, initial.Width, initial.Height),
	)
	return &CenterKalman{
		tracker: kf,
	}
}

// Predict executes Kalman filter prediction step
func (ck *CenterKalman) Predict() Rectangle {
	ck.tracker.Predict()
	cx, cy, w, h := ck.tracker.GetState()
	return rectFromCenter(cx, cy, w, h)
}

// Correct executes Kalman filter update step with full bbox measurement
func (ck *CenterKalman) Correct(measured Rectangle) (Rectangle, error) {
	center := measured.Center()
	err := ck.tracker.Update(center.X, center.Y, measured.Width, measured.Height)
	if err != nil {
		return Rectangle{}, errors.Wrap(err, "Can't update object tracker")
	}
	cx, cy, w, h := ck.tracker.GetState()
	return rectFromCenter(cx, cy, w, h), nil
}

// Velocity returns current velocity estimates (vx, vy, vw, vh) from Kalman filter
func (ck *CenterKalman) Velocity() (float64, float64, float64, float64) {
	return ck.tracker.GetVelocity()
}
