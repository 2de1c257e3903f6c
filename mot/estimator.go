package mot

import (
	"math"

	"github.com/pkg/errors"
)

// Estimator is recursive state estimator of a single rectangular object.
type Estimator interface {
	// Predict advances state by one time step and returns predicted box
	Predict() Rectangle
	// Correct re-evaluates state using measured box and returns corrected box
	Correct(measured Rectangle) (Rectangle, error)
	// Velocity returns current estimation of (vx, vy, vw, vh)
	Velocity() (float64, float64, float64, float64)
}

// EstimatorKind selects implementation of Estimator used by trackers
type EstimatorKind uint16

const (
	// EstimatorConstantVelocity is 8-D constant velocity Kalman filter over (x, y, w, h) of top-left corner
	EstimatorConstantVelocity EstimatorKind = iota
	// EstimatorCenter is 8-D Kalman filter over (cx, cy, w, h) of the box center
	EstimatorCenter
)

func (kind EstimatorKind) String() string {
	switch kind {
	case EstimatorConstantVelocity:
		return "constant-velocity"
	case EstimatorCenter:
		return "center"
	default:
		return "unknown"
	}
}

// ParseEstimatorKind parses textual representation of EstimatorKind
func ParseEstimatorKind(s string) (EstimatorKind, error) {
	switch s {
	case "constant-velocity", "cv", "":
		return EstimatorConstantVelocity, nil
	case "center":
		return EstimatorCenter, nil
	default:
		return 0, errors.Wrapf(ErrInvalidConfig, "unknown estimator '%s'", s)
	}
}

const (
	// Dimension of the state vector (x, y, w, h, vx, vy, vw, vh)
	stateDim = 8
	// Dimension of the measurement vector (x, y, w, h)
	measureDim = 4
	// Diagonal value of both measurement noise covariance and initial error covariance
	initialCovariance = 0.1
)

// NewEstimator creates estimator of given kind initialized with the measured box
func NewEstimator(kind EstimatorKind, initial Rectangle, noiseFactor float64) (Estimator, error) {
	if err := checkRectangle(initial); err != nil {
		return nil, err
	}
	if math.IsNaN(noiseFactor) || math.IsInf(noiseFactor, 0) || noiseFactor <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "noise factor must be positive, got %v", noiseFactor)
	}
	switch kind {
	case EstimatorConstantVelocity:
		return NewConstantVelocityKalman(initial, noiseFactor), nil
	case EstimatorCenter:
		return NewCenterKalman(initial, noiseFactor), nil
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown estimator kind %d", kind)
	}
}

func checkRectangle(rect Rectangle) error {
	for _, v := range [4]float64{rect.X, rect.Y, rect.Width, rect.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidRegion, "not finite measurement %+v", rect)
		}
	}
	if rect.Width < 0 || rect.Height < 0 {
		return errors.Wrapf(ErrInvalidRegion, "negative size of measurement %+v", rect)
	}
	return nil
}
