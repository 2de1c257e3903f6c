package mot

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ConstantVelocityKalman is Kalman filter with state (x, y, w, h, vx, vy, vw, vh)
// and measurement (x, y, w, h). Time step is 1 frame.
// It implements Estimator interface.
type ConstantVelocityKalman struct {
	state            *mat.VecDense
	errorCov         *mat.Dense
	transition       *mat.Dense
	measurement      *mat.Dense
	processNoise     *mat.Dense
	measurementNoise *mat.Dense
}

// NewConstantVelocityKalman creates filter with state set to the given box and zero velocity.
// Process noise covariance is identity scaled by noiseFactor.
func NewConstantVelocityKalman(initial Rectangle, noiseFactor float64) *ConstantVelocityKalman {
	state := mat.NewVecDense(stateDim, []float64{
		initial.X, initial.Y, initial.Width, initial.Height,
		0, 0, 0, 0,
	})

	// Identity plus velocity block: each velocity component is added to its position pair
	transition := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		transition.Set(i, i, 1.0)
	}
	for i := 0; i < stateDim-measureDim; i++ {
		transition.Set(i, measureDim+i, 1.0)
	}

	measurement := mat.NewDense(measureDim, stateDim, nil)
	for i := 0; i < measureDim; i++ {
		measurement.Set(i, i, 1.0)
	}

	processNoise := mat.NewDense(stateDim, stateDim, nil)
	errorCov := mat.NewDense(stateDim, stateDim, nil)
	for i := 0; i < stateDim; i++ {
		processNoise.Set(i, i, noiseFactor)
		errorCov.Set(i, i, initialCovariance)
	}

	measurementNoise := mat.NewDense(measureDim, measureDim, nil)
	for i := 0; i < measureDim; i++ {
		measurementNoise.Set(i, i, initialCovariance)
	}

	return &ConstantVelocityKalman{
		state:            state,
		errorCov:         errorCov,
		transition:       transition,
		measurement:      measurement,
		processNoise:     processNoise,
		measurementNoise: measurementNoise,
	}
}

// Predict computes a-priori state and covariance and makes them the current (a-posteriori) ones.
// So several predictions in a row move the box linearly.
func (kf *ConstantVelocityKalman) Predict() Rectangle {
	// x = F * x
	predicted := mat.NewVecDense(stateDim, nil)
	predicted.MulVec(kf.transition, kf.state)
	kf.state = predicted

	// P = F * P * F' + Q
	tmp := mat.NewDense(stateDim, stateDim, nil)
	tmp.Mul(kf.transition, kf.errorCov)
	cov := mat.NewDense(stateDim, stateDim, nil)
	cov.Mul(tmp, kf.transition.T())
	cov.Add(cov, kf.processNoise)
	kf.errorCov = cov

	return kf.box()
}

// Correct executes correction step with the measured box
func (kf *ConstantVelocityKalman) Correct(measured Rectangle) (Rectangle, error) {
	z := mat.NewVecDense(measureDim, []float64{measured.X, measured.Y, measured.Width, measured.Height})

	// Innovation: y = z - H * x
	projected := mat.NewVecDense(measureDim, nil)
	projected.MulVec(kf.measurement, kf.state)
	innovation := mat.NewVecDense(measureDim, nil)
	innovation.SubVec(z, projected)

	// Innovation covariance: S = H * P * H' + R
	hp := mat.NewDense(measureDim, stateDim, nil)
	hp.Mul(kf.measurement, kf.errorCov)
	s := mat.NewDense(measureDim, measureDim, nil)
	s.Mul(hp, kf.measurement.T())
	s.Add(s, kf.measurementNoise)
	sSym := mat.NewSymDense(measureDim, nil)
	for i := 0; i < measureDim; i++ {
		for j := i; j < measureDim; j++ {
			sSym.SetSym(i, j, (s.At(i, j)+s.At(j, i))/2.0)
		}
	}

	chol := mat.Cholesky{}
	if ok := chol.Factorize(sSym); !ok {
		return Rectangle{}, errors.New("innovation covariance is not positive definite")
	}

	// K' = S^-1 * H * P (both S and P are symmetric)
	gainT := mat.NewDense(measureDim, stateDim, nil)
	if err := chol.SolveTo(gainT, hp); err != nil {
		return Rectangle{}, errors.Wrap(err, "can't compute Kalman gain")
	}

	// x = x + K * y
	dx := mat.NewVecDense(stateDim, nil)
	dx.MulVec(gainT.T(), innovation)
	kf.state.AddVec(kf.state, dx)

	// P = P - K * H * P
	khp := mat.NewDense(stateDim, stateDim, nil)
	khp.Mul(gainT.T(), hp)
	kf.errorCov.Sub(kf.errorCov, khp)

	return kf.box(), nil
}

// Velocity returns (vx, vy, vw, vh)
func (kf *ConstantVelocityKalman) Velocity() (float64, float64, float64, float64) {
	return kf.state.AtVec(4), kf.state.AtVec(5), kf.state.AtVec(6), kf.state.AtVec(7)
}

// ErrorCovariance returns copy of current error covariance matrix
func (kf *ConstantVelocityKalman) ErrorCovariance() *mat.Dense {
	return mat.DenseCopyOf(kf.errorCov)
}

func (kf *ConstantVelocityKalman) box() Rectangle {
	return Rectangle{
		X:      kf.state.AtVec(0),
		Y:      kf.state.AtVec(1),
		Width:  kf.state.AtVec(2),
		Height: kf.state.AtVec(3),
	}
}
