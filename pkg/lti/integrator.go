package lti

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/edp1096/toy-pwm/pkg/matrix"
)

type Method int

const (
	FirstOrderHold Method = iota // exact for piecewise linear inputs
	ZeroOrderHold
	Trapezoidal
	BackwardEuler
)

func (m Method) String() string {
	switch m {
	case FirstOrderHold:
		return "foh"
	case ZeroOrderHold:
		return "zoh"
	case Trapezoidal:
		return "trap"
	case BackwardEuler:
		return "be"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func ParseMethod(s string) (Method, error) {
	switch s {
	case "", "foh":
		return FirstOrderHold, nil
	case "zoh":
		return ZeroOrderHold, nil
	case "trap", "tr":
		return Trapezoidal, nil
	case "be", "gear":
		return BackwardEuler, nil
	}
	return FirstOrderHold, fmt.Errorf("unknown integration method %q", s)
}

// stepper advances the state by one grid step given the input at both ends.
type stepper interface {
	step(x []float64, u0, u1 float64) error
	close()
}

// holdStepper is x1 = Ad x0 + Bd0 u0 + Bd1 u1 with precomputed matrices.
type holdStepper struct {
	n        int
	ad       []float64 // row-major n x n
	bd0, bd1 []float64
	tmp      []float64
}

func (h *holdStepper) step(x []float64, u0, u1 float64) error {
	for i := 0; i < h.n; i++ {
		acc := h.bd0[i]*u0 + h.bd1[i]*u1
		row := h.ad[i*h.n : (i+1)*h.n]
		for j, v := range row {
			acc += v * x[j]
		}
		h.tmp[i] = acc
	}
	copy(x, h.tmp)
	return nil
}

func (h *holdStepper) close() {}

// newHoldStepper discretises with the matrix exponential of an augmented
// system. With foh the input is linearly interpolated between samples.
func newHoldStepper(s *StateSpace, dt float64, foh bool) *holdStepper {
	n := s.Order()
	size := n + 1
	if foh {
		size = n + 2
	}

	aug := mat.NewDense(size, size, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, s.A.At(i, j)*dt)
		}
		aug.Set(i, n, s.B.At(i, 0)*dt)
	}
	if foh {
		aug.Set(n, n+1, 1)
	}

	var phi mat.Dense
	phi.Exp(aug)

	h := &holdStepper{
		n:   n,
		ad:  make([]float64, n*n),
		bd0: make([]float64, n),
		bd1: make([]float64, n),
		tmp: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			h.ad[i*n+j] = phi.At(i, j)
		}
		if foh {
			h.bd1[i] = phi.At(i, n+1)
			h.bd0[i] = phi.At(i, n) - h.bd1[i]
		} else {
			h.bd0[i] = phi.At(i, n)
		}
	}
	return h
}

// implicitStepper solves (I - a h A) x1 = (I + (1-a) h A) x0 + h B ((1-a) u0 + a u1)
// with a = 1/2 (trapezoidal) or a = 1 (backward Euler).
type implicitStepper struct {
	s     *StateSpace
	dt    float64
	alpha float64
	sys   *matrix.SystemMatrix
	rhs   []float64
}

func newImplicitStepper(s *StateSpace, dt, alpha float64) (*implicitStepper, error) {
	n := s.Order()
	sys, err := matrix.NewMatrix(n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -alpha * dt * s.A.At(i, j)
			if i == j {
				v += 1
			}
			if v == 0 {
				continue
			}
			if err := sys.AddElement(i+1, j+1, v); err != nil {
				sys.Destroy()
				return nil, err
			}
		}
	}
	if err := sys.Factor(); err != nil {
		sys.Destroy()
		return nil, err
	}
	return &implicitStepper{s: s, dt: dt, alpha: alpha, sys: sys, rhs: make([]float64, n)}, nil
}

func (p *implicitStepper) step(x []float64, u0, u1 float64) error {
	n := len(x)
	beta := 1 - p.alpha
	uin := beta*u0 + p.alpha*u1
	for i := 0; i < n; i++ {
		acc := x[i] + p.dt*p.s.B.At(i, 0)*uin
		if beta != 0 {
			for j := 0; j < n; j++ {
				acc += beta * p.dt * p.s.A.At(i, j) * x[j]
			}
		}
		p.rhs[i] = acc
	}
	sol, err := p.sys.Solve(p.rhs)
	if err != nil {
		return err
	}
	copy(x, sol)
	return nil
}

func (p *implicitStepper) close() { p.sys.Destroy() }

func newStepper(s *StateSpace, dt float64) (stepper, error) {
	switch s.Method {
	case FirstOrderHold:
		return newHoldStepper(s, dt, true), nil
	case ZeroOrderHold:
		return newHoldStepper(s, dt, false), nil
	case Trapezoidal:
		return newImplicitStepper(s, dt, 0.5)
	case BackwardEuler:
		return newImplicitStepper(s, dt, 1)
	}
	return nil, fmt.Errorf("unsupported integration method %v", s.Method)
}
