package pwm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/timing"
	"github.com/edp1096/toy-pwm/pkg/topology"
)

// Result holds all traces of one modulation run, indexed [leg][sample].
type Result struct {
	Switching [][]float64 // after min pulse and dead time
	Raw       [][]float64 // comparator or table output
	Reference [][]float64 // normalised reference plus zero sequence
	Sampled   [][]float64
	Shifted   [][]float64
	Carrier   []float64 // sequence index for space vector
	Zero      []float64
}

// Modulator turns per-leg references into switching traces.
type Modulator interface {
	Modulate(ref [][]float64, t []float64) (*Result, error)
}

func New(p Params) (Modulator, error) {
	if !(p.Fel > 0) || !(p.Fs > 0) {
		return nil, fmt.Errorf("frequencies must be positive (fel=%g, fs=%g)", p.Fel, p.Fs)
	}
	switch p.Strategy {
	case CarrierBased:
		return &CarrierModulator{p: p}, nil
	case FundamentalFrequency:
		return &FundamentalModulator{p: p}, nil
	case SpaceVector:
		if p.Topology != topology.B6 {
			return nil, fmt.Errorf("%w: %v on %v", ErrUnsupportedTopology, p.Strategy, p.Topology)
		}
		return &SpaceVectorModulator{p: p}, nil
	}
	return nil, fmt.Errorf("unsupported PWM strategy %v", p.Strategy)
}

// Run modulates ref and applies the timing constraints of p.
func Run(p Params, ref [][]float64, t []float64) (*Result, error) {
	m, err := New(p)
	if err != nil {
		return nil, err
	}
	res, err := m.Modulate(ref, t)
	if err != nil {
		return nil, err
	}
	res.Switching = timing.EnforceAll(res.Raw, p.MinPulse, p.DeadTime)
	return res, nil
}

func checkInput(top topology.Topology, ref [][]float64, t []float64) (float64, error) {
	if len(ref) != top.Phases() {
		return 0, fmt.Errorf("%w: %d legs for %v", ErrPhaseLength, len(ref), top)
	}
	for i, r := range ref {
		if len(r) != len(t) {
			return 0, fmt.Errorf("%w: leg %d has %d samples, grid has %d", ErrPhaseLength, i, len(r), len(t))
		}
	}
	if len(t) < 2 {
		return 0, fmt.Errorf("%w: grid needs at least two samples", ErrPhaseLength)
	}
	return t[1] - t[0], nil
}

// normalise scales every leg to peak Mi independently.
func normalise(ref [][]float64, mi float64) ([][]float64, error) {
	out := make([][]float64, len(ref))
	for i, r := range ref {
		peak := floats.Max(r)
		if !(peak > 0) {
			return nil, fmt.Errorf("%w: leg %d has non-positive peak %g", ErrReference, i, peak)
		}
		x := make([]float64, len(r))
		for k, v := range r {
			x[k] = mi * v / peak
		}
		out[i] = x
	}
	return out, nil
}

// clarke maps three phase values onto the stationary alpha-beta frame.
func clarke(a, b, c float64) (alpha, beta float64) {
	return a - 0.5*b - 0.5*c, consts.Sqrt3 / 2 * (b - c)
}

// initialPhase is the angle phi of the first leg at t = 0 for references
// shaped sin(wt + phi), sin(wt + phi - 2pi/3), sin(wt + phi + 2pi/3).
// The space vector lags phase a by pi/2, so phi = atan2(alpha, -beta).
func initialPhase(ref [][]float64) float64 {
	alpha, beta := clarke(ref[0][0], ref[1][0], ref[2][0])
	return math.Atan2(alpha, -beta)
}

func samplesPerCycle(fel, dt float64) int {
	return int(math.Round(1 / (fel * dt)))
}

func addZero(x [][]float64, zero []float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, xi := range x {
		o := make([]float64, len(xi))
		for k := range xi {
			o[k] = xi[k] + zero[k]
		}
		out[i] = o
	}
	return out
}
