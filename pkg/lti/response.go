package lti

import (
	"fmt"
	"math"
)

// Response simulates the forced response on the uniform grid t.
// x0 may be nil (zero state), a single value broadcast to every state,
// or one value per state. y[0] = C x0 + D u[0].
func (s *StateSpace) Response(u, t, x0 []float64) ([]float64, error) {
	if len(u) != len(t) {
		return nil, fmt.Errorf("%w: len(u)=%d, len(t)=%d", ErrTimeGrid, len(u), len(t))
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrTimeGrid)
	}
	dt, err := gridStep(t)
	if err != nil {
		return nil, err
	}

	n := s.Order()
	x := make([]float64, n)
	switch len(x0) {
	case 0:
	case 1:
		for i := range x {
			x[i] = x0[0]
		}
	case n:
		copy(x, x0)
	default:
		return nil, fmt.Errorf("%w: len(x0)=%d for order %d", ErrDimension, len(x0), n)
	}

	c := make([]float64, n)
	for j := range c {
		c[j] = s.C.At(0, j)
	}
	d := s.D.At(0, 0)
	output := func(x []float64, u float64) float64 {
		acc := d * u
		for j, v := range c {
			acc += v * x[j]
		}
		return acc
	}

	y := make([]float64, len(u))
	y[0] = output(x, u[0])
	if len(u) == 1 {
		return y, nil
	}

	st, err := newStepper(s, dt)
	if err != nil {
		return nil, err
	}
	defer st.close()

	for k := 1; k < len(u); k++ {
		if err := st.step(x, u[k-1], u[k]); err != nil {
			return nil, fmt.Errorf("step %d: %w", k, err)
		}
		y[k] = output(x, u[k])
	}
	return y, nil
}

func gridStep(t []float64) (float64, error) {
	if len(t) < 2 {
		return 1, nil
	}
	dt := t[1] - t[0]
	if !(dt > 0) {
		return 0, fmt.Errorf("%w: non-increasing time", ErrTimeGrid)
	}
	tol := 1e-6 * dt
	for k := 2; k < len(t); k++ {
		if math.Abs(t[k]-t[k-1]-dt) > tol {
			return 0, fmt.Errorf("%w: non-uniform step at index %d", ErrTimeGrid, k)
		}
	}
	return dt, nil
}
