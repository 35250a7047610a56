package util

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-pwm/internal/consts"
)

// Wrap2Pi maps x into [0, 2pi).
func Wrap2Pi(x float64) float64 {
	m := math.Mod(x, consts.TwoPi)
	if m < 0 {
		m += consts.TwoPi
	}
	if m >= consts.TwoPi {
		m = 0
	}
	return m
}

// Sawtooth is a periodic ramp with period 2pi. It rises from -1 to 1 on
// [0, 2pi*width) and falls back to -1 on [2pi*width, 2pi).
// width = 0.5 yields a symmetric triangle.
func Sawtooth(x, width float64) float64 {
	m := Wrap2Pi(x)
	if m < consts.TwoPi*width {
		return m/(math.Pi*width) - 1
	}
	return (math.Pi*(width+1) - m) / (math.Pi * (1 - width))
}

// Square returns +1 for the first duty fraction of every 2pi period, -1 otherwise.
func Square(x, duty float64) float64 {
	if Wrap2Pi(x) < consts.TwoPi*duty {
		return 1
	}
	return -1
}

func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Roll shifts a circularly: out[i] = a[(i-n) mod len(a)].
func Roll(a []float64, n int) []float64 {
	out := make([]float64, len(a))
	l := len(a)
	if l == 0 {
		return out
	}
	n = ((n % l) + l) % l
	copy(out[n:], a[:l-n])
	copy(out[:n], a[l-n:])
	return out
}

// Linspace returns n evenly spaced values from a to b inclusive.
func Linspace(a, b float64, n int) []float64 {
	out := make([]float64, n)
	if n < 2 {
		if n == 1 {
			out[0] = a
		}
		return out
	}
	return floats.Span(out, a, b)
}

// TimeGrid returns t_k = k*dt for k in [0, n).
func TimeGrid(n int, dt float64) []float64 {
	t := make([]float64, n)
	for k := range t {
		t[k] = float64(k) * dt
	}
	return t
}

// SampleHold latches x every step samples starting at index 0.
func SampleHold(x []float64, step int) []float64 {
	out := make([]float64, len(x))
	if step < 1 {
		step = 1
	}
	held := 0.0
	for i, v := range x {
		if i%step == 0 {
			held = v
		}
		out[i] = held
	}
	return out
}

// Samples converts a duration to a whole number of grid samples.
func Samples(seconds, dt float64) int {
	if dt <= 0 || seconds <= 0 {
		return 0
	}
	return int(math.Floor(seconds/dt + 1e-9))
}
