package pwm

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/util"
)

// Carrier returns the triangular carrier at fs, normalised to [-1, 1].
func Carrier(align Alignment, t []float64, fs float64) []float64 {
	c := make([]float64, len(t))
	for k, tk := range t {
		switch align {
		case RisingEdge:
			c[k] = -util.Sawtooth(consts.TwoPi*fs*tk, 1)
		case FallingEdge:
			c[k] = -util.Sawtooth(consts.TwoPi*fs*(tk-0.5/fs), 0)
		case Asymmetric:
			c[k] = -util.Sawtooth(consts.TwoPi*fs*tk, 1.0/3)
		default:
			c[k] = util.Sawtooth(consts.TwoPi*fs*(tk-0.5/fs), 0.5)
		}
	}
	if len(c) < 2 {
		return c
	}

	lo, hi := floats.Min(c), floats.Max(c)
	if span := hi - lo; span > 0 {
		for k := range c {
			c[k] = 2*(c[k]-lo)/span - 1
		}
	}
	return c
}

// updateSamples is the number of grid samples between reference updates.
func updateSamples(u Update, fs, dt float64) int {
	ts := 1 / fs
	if u == DoubleEdge {
		ts /= 2
	}
	n := int(math.Round(ts / dt))
	if n < 1 {
		n = 1
	}
	return n
}

// resample returns the sampled and the shifted reference of one leg.
func resample(x []float64, p Params, dt float64) (xs, xsh []float64) {
	if p.Sampling == Natural {
		return append([]float64(nil), x...), append([]float64(nil), x...)
	}
	n := updateSamples(p.Update, p.Fs, dt)
	return util.SampleHold(x, n), util.Roll(x, n)
}

// compare is the comparator: +1 where the sampled reference reaches the carrier.
func compare(xs, c []float64) []float64 {
	s := make([]float64, len(xs))
	for k := range xs {
		if xs[k] >= c[k] {
			s[k] = 1
		} else {
			s[k] = -1
		}
	}
	return s
}
