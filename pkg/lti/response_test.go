package lti

import (
	"errors"
	"math"
	"testing"
)

const (
	testR  = 5.0
	testL  = 5e-3
	testDt = 1e-5
)

func rlSystem(t *testing.T) *StateSpace {
	t.Helper()
	s, err := FromSlices([]float64{-testR / testL}, []float64{1 / testL}, []float64{1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func grid(n int) []float64 {
	t := make([]float64, n)
	for k := range t {
		t[k] = float64(k) * testDt
	}
	return t
}

func TestStepResponse(t *testing.T) {
	tests := []struct {
		method Method
		tol    float64
	}{
		{FirstOrderHold, 1e-9},
		{ZeroOrderHold, 1e-9},
		{Trapezoidal, 5e-4},
		{BackwardEuler, 2e-3},
	}

	tau := testL / testR
	n := 500
	tt := grid(n)
	u := make([]float64, n)
	for k := range u {
		u[k] = 1
	}

	for _, tc := range tests {
		t.Run(tc.method.String(), func(t *testing.T) {
			y, err := rlSystem(t).WithMethod(tc.method).Response(u, tt, nil)
			if err != nil {
				t.Fatal(err)
			}
			for k, tk := range tt {
				want := (1 - math.Exp(-tk/tau)) / testR
				if math.Abs(y[k]-want) > tc.tol {
					t.Fatalf("y[%d] = %.9f, want %.9f", k, y[k], want)
				}
			}
		})
	}
}

func TestInitialState(t *testing.T) {
	tau := testL / testR
	n := 200
	tt := grid(n)
	u := make([]float64, n)

	y, err := rlSystem(t).Response(u, tt, []float64{2})
	if err != nil {
		t.Fatal(err)
	}
	if y[0] != 2 {
		t.Fatalf("y[0] = %v, want 2", y[0])
	}
	for k, tk := range tt {
		if want := 2 * math.Exp(-tk/tau); math.Abs(y[k]-want) > 1e-9 {
			t.Fatalf("y[%d] = %.9f, want %.9f", k, y[k], want)
		}
	}
}

func TestRampIsExactWithFOH(t *testing.T) {
	// integrator: y = integral of u
	s, err := FromSlices([]float64{0}, []float64{1}, []float64{1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	n := 100
	tt := grid(n)
	u := make([]float64, n)
	for k := range u {
		u[k] = tt[k]
	}
	y, err := s.Response(u, tt, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, tk := range tt {
		if want := tk * tk / 2; math.Abs(y[k]-want) > 1e-15 {
			t.Fatalf("y[%d] = %g, want %g", k, y[k], want)
		}
	}
}

func TestErrors(t *testing.T) {
	s := rlSystem(t)

	if _, err := s.Response([]float64{1, 2}, []float64{0}, nil); !errors.Is(err, ErrTimeGrid) {
		t.Fatalf("expected ErrTimeGrid, got %v", err)
	}
	if _, err := s.Response([]float64{1, 2, 3}, []float64{0, 1, 3}, nil); !errors.Is(err, ErrTimeGrid) {
		t.Fatalf("expected ErrTimeGrid for non-uniform grid, got %v", err)
	}
	if _, err := s.Response([]float64{1, 2}, []float64{0, 1}, []float64{1, 2}); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension for x0, got %v", err)
	}
	if _, err := FromSlices([]float64{1, 2}, []float64{1}, []float64{1}, 0); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension, got %v", err)
	}
	if _, err := FromSlices([]float64{math.NaN()}, []float64{1}, []float64{1}, 0); !errors.Is(err, ErrDimension) {
		t.Fatalf("expected ErrDimension for NaN, got %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{FirstOrderHold, ZeroOrderHold, Trapezoidal, BackwardEuler} {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMethod(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMethod("rk4"); err == nil {
		t.Fatal("expected error")
	}
}
