package pwm

import (
	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/topology"
	"github.com/edp1096/toy-pwm/pkg/util"
)

// FundamentalModulator switches every leg once per fundamental cycle.
type FundamentalModulator struct {
	p Params
}

func (m *FundamentalModulator) Modulate(ref [][]float64, t []float64) (*Result, error) {
	p := m.p
	if _, err := checkInput(p.Topology, ref, t); err != nil {
		return nil, err
	}
	x0, err := normalise(ref, p.Mi)
	if err != nil {
		return nil, err
	}

	legs := len(ref)
	spacing := consts.TwoPi / 3
	if p.Topology == topology.B4 {
		spacing = consts.TwoPi / 2
	}

	raw := make([][]float64, legs)
	for i := range raw {
		s := make([]float64, len(t))
		for k, tk := range t {
			s[k] = util.Square(consts.TwoPi*p.Fel*tk-float64(i)*spacing, p.Mi/2)
		}
		raw[i] = s
	}

	zeroSeq := make([]float64, len(t))
	if p.Topology == topology.B6 {
		for k := range zeroSeq {
			zeroSeq[k] = (raw[0][k] + raw[1][k] + raw[2][k]) / 3
		}
	}
	x := addZero(x0, zeroSeq)

	return &Result{
		Raw:       raw,
		Reference: x,
		Sampled:   x,
		Shifted:   x,
		Carrier:   make([]float64, len(t)),
		Zero:      zeroSeq,
	}, nil
}
