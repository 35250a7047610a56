package pwm

import (
	"github.com/edp1096/toy-pwm/pkg/topology"
)

// CarrierModulator compares the sampled references with a triangular carrier.
type CarrierModulator struct {
	p Params
}

func (m *CarrierModulator) Modulate(ref [][]float64, t []float64) (*Result, error) {
	p := m.p
	dt, err := checkInput(p.Topology, ref, t)
	if err != nil {
		return nil, err
	}
	x0, err := normalise(ref, p.Mi)
	if err != nil {
		return nil, err
	}

	zeroSeq := make([]float64, len(t))
	if p.Topology == topology.B6 {
		zeroSeq, err = p.Zero.compute(zeroInput{
			x:        x0,
			t:        t,
			mi:       p.Mi,
			fel:      p.Fel,
			phi:      initialPhase(ref),
			perCycle: samplesPerCycle(p.Fel, dt),
		})
		if err != nil {
			return nil, err
		}
	}
	x := addZero(x0, zeroSeq)
	c := Carrier(p.Alignment, t, p.Fs)

	res := &Result{
		Reference: x,
		Carrier:   c,
		Zero:      zeroSeq,
		Raw:       make([][]float64, len(x)),
		Sampled:   make([][]float64, len(x)),
		Shifted:   make([][]float64, len(x)),
	}
	for i := range x {
		res.Sampled[i], res.Shifted[i] = resample(x[i], p, dt)
		res.Raw[i] = compare(res.Sampled[i], c)
	}
	return res, nil
}
