package lti

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimension = errors.New("inconsistent state space dimensions")
	ErrTimeGrid  = errors.New("invalid time grid")
)

// StateSpace is a continuous single-input single-output LTI system
//
//	dx/dt = A x + B u
//	y     = C x + D u
type StateSpace struct {
	A, B, C, D *mat.Dense
	Method     Method
}

func New(a, b, c, d *mat.Dense) (*StateSpace, error) {
	if a == nil || b == nil || c == nil || d == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrDimension)
	}
	ar, ac := a.Dims()
	br, bc := b.Dims()
	cr, cc := c.Dims()
	dr, dc := d.Dims()
	switch {
	case ar != ac:
		return nil, fmt.Errorf("%w: A is %dx%d", ErrDimension, ar, ac)
	case br != ar || bc != 1:
		return nil, fmt.Errorf("%w: B is %dx%d, want %dx1", ErrDimension, br, bc, ar)
	case cr != 1 || cc != ar:
		return nil, fmt.Errorf("%w: C is %dx%d, want 1x%d", ErrDimension, cr, cc, ar)
	case dr != 1 || dc != 1:
		return nil, fmt.Errorf("%w: D is %dx%d, want 1x1", ErrDimension, dr, dc)
	}
	for _, m := range []*mat.Dense{a, b, c, d} {
		if !finite(m) {
			return nil, fmt.Errorf("%w: non-finite matrix entry", ErrDimension)
		}
	}

	return &StateSpace{A: a, B: b, C: c, D: d, Method: FirstOrderHold}, nil
}

// FromSlices builds a system from row-major data.
func FromSlices(a, b, c []float64, d float64) (*StateSpace, error) {
	n := len(b)
	if n == 0 || len(a) != n*n || len(c) != n {
		return nil, fmt.Errorf("%w: len(a)=%d len(b)=%d len(c)=%d", ErrDimension, len(a), len(b), len(c))
	}
	return New(
		mat.NewDense(n, n, append([]float64(nil), a...)),
		mat.NewDense(n, 1, append([]float64(nil), b...)),
		mat.NewDense(1, n, append([]float64(nil), c...)),
		mat.NewDense(1, 1, []float64{d}),
	)
}

func (s *StateSpace) Order() int {
	n, _ := s.A.Dims()
	return n
}

// WithMethod returns a copy of s integrated with m.
func (s *StateSpace) WithMethod(m Method) *StateSpace {
	c := *s
	c.Method = m
	return &c
}

func finite(m *mat.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
