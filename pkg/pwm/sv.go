package pwm

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/timing"
	"github.com/edp1096/toy-pwm/pkg/util"
)

// Sequence names the order in which the zero and active vectors are applied
// within one carrier period.
type Sequence string

const (
	Seq0127 Sequence = "0127" // zero time split between V0 and V7
	Seq012  Sequence = "012"  // zero time on V0 only
	Seq721  Sequence = "721"  // zero time on V7 only
)

func ParseSequence(s string) (Sequence, error) {
	switch Sequence(s) {
	case Seq0127, Seq012, Seq721:
		return Sequence(s), nil
	case "":
		return Seq0127, nil
	}
	return Seq0127, fmt.Errorf("unknown switching sequence %q", s)
}

// zeroShare is the fraction of the zero vector time spent on V0.
func (s Sequence) zeroShare() float64 {
	switch s {
	case Seq012:
		return 1
	case Seq721:
		return 0
	}
	return 0.5
}

// stateTable maps vector 0..7 to the leg states of a, b and c.
var stateTable = [3][8]float64{
	{-1, 1, 1, -1, -1, -1, 1, 1},
	{-1, -1, 1, 1, 1, -1, -1, 1},
	{-1, -1, -1, -1, 1, 1, 1, 1},
}

// sectorVectors lists the eight vectors applied per carrier period in each
// sector. Only one leg commutes between neighbouring entries. The sequence
// only changes how the zero time is shared, see zeroShare.
var sectorVectors = [6][8]int{
	{0, 1, 2, 7, 7, 2, 1, 0},
	{0, 3, 2, 7, 7, 2, 3, 0},
	{0, 3, 4, 7, 7, 4, 3, 0},
	{0, 5, 4, 7, 7, 4, 5, 0},
	{0, 5, 6, 7, 7, 6, 5, 0},
	{0, 1, 6, 7, 7, 6, 1, 0},
}

// DwellTimes are the fractions of a half carrier period spent on each vector.
// T1 and T2 follow the order of the sequence table, not the vector numbers.
type DwellTimes struct {
	Sector         int // 1..6
	T0, T1, T2, T7 float64
}

// Dwell resolves sector and dwell fractions for the reference angle theta.
func Dwell(theta, mi float64, seq Sequence) DwellTimes {
	th := util.Wrap2Pi(theta)
	sector := int(th/(math.Pi/3)) + 1
	if sector > 6 {
		sector = 6
	}
	th -= float64(sector-1) * math.Pi / 3

	ta := consts.Sqrt3 / 2 * mi * math.Sin(math.Pi/3-th)
	tb := consts.Sqrt3 / 2 * mi * math.Sin(th)
	d1, d2 := ta, tb
	if sector%2 == 0 {
		d1, d2 = tb, ta
	}
	if sum := d1 + d2; sum > 1 {
		d1 /= sum
		d2 /= sum
	}

	k := seq.zeroShare()
	rest := 1 - d1 - d2
	return DwellTimes{Sector: sector, T0: k * rest, T1: d1, T2: d2, T7: (1 - k) * rest}
}

// zero is the average leg state over the period.
func (d DwellTimes) zero() float64 {
	return -d.T0 - d.T1/3 + d.T2/3 + d.T7
}

// SpaceVectorModulator walks the vector sequence of the active sector.
type SpaceVectorModulator struct {
	p Params
}

func (m *SpaceVectorModulator) Modulate(ref [][]float64, t []float64) (*Result, error) {
	p := m.p
	dt, err := checkInput(p.Topology, ref, t)
	if err != nil {
		return nil, err
	}
	x0, err := normalise(ref, p.Mi)
	if err != nil {
		return nil, err
	}
	n := len(t)

	theta := make([]float64, n)
	for k := range theta {
		alpha, beta := clarke(ref[0][k], ref[1][k], ref[2][k])
		theta[k] = math.Atan2(beta, alpha)
	}

	zeroSeq := make([]float64, n)
	for k := range zeroSeq {
		zeroSeq[k] = Dwell(theta[k], p.Mi, p.Sequence).zero()
	}
	x := addZero(x0, zeroSeq)

	cycles := int(math.Round(float64(n) * dt * p.Fel))
	if cycles < 1 {
		cycles = 1
	}
	q := int(p.Fs / p.Fel)
	if q < 1 {
		q = 1
	}
	sub := q
	if p.Update == DoubleEdge {
		sub = 2 * q
	}
	subs := sub * cycles
	bound := func(i, parts int) int {
		b := int(math.Round(float64(i) * float64(n) / float64(parts)))
		if b > n {
			b = n
		}
		return b
	}

	dwell := make([]DwellTimes, subs)
	for i := range dwell {
		at := bound(i, subs)
		if at >= n {
			at = n - 1
		}
		dwell[i] = Dwell(theta[at], p.Mi, p.Sequence)
	}

	periods := q * cycles
	idx := make([]float64, n)
	prev := 0
	for per := 0; per < periods; per++ {
		first, second := dwell[per], dwell[per]
		if p.Update == DoubleEdge {
			first, second = dwell[2*per], dwell[2*per+1]
		}
		st := [8]float64{
			first.T0, first.T0 + first.T1, 1 - first.T7, 1,
			1 + second.T7, 1 + second.T7 + second.T2, 2 - second.T0, 2,
		}
		// each half period walks the vectors of its own sector; both halves
		// meet on V7 so the seam commutes no leg
		var row [8]int
		copy(row[:4], sectorVectors[first.Sector-1][:4])
		copy(row[4:], sectorVectors[second.Sector-1][4:])

		a, b := bound(per, periods), bound(per+1, periods)
		ts := util.Linspace(0, 2, b-a)
		j := 0
		for ii := range ts {
			if st[j] > ts[ii] {
				prev = row[j]
			} else if j < 7 {
				j++
			}
			idx[a+ii] = float64(prev)
		}
	}
	idx = timing.MinPulse(idx, p.MinPulse)

	raw := make([][]float64, 3)
	for leg := range raw {
		s := make([]float64, n)
		if p.Mi != 0 {
			for k, v := range idx {
				s[k] = stateTable[leg][int(v)]
			}
		}
		raw[leg] = s
	}

	shift := updateSamples(p.Update, p.Fs, dt)
	res := &Result{
		Raw:       raw,
		Reference: x,
		Carrier:   idx,
		Zero:      zeroSeq,
		Sampled:   make([][]float64, 3),
		Shifted:   make([][]float64, 3),
	}
	for leg := range x {
		xs := make([]float64, n)
		next := 0
		held := 0.0
		for k := range xs {
			if next < subs && k >= bound(next, subs) {
				held = x[leg][k]
				for next < subs && k >= bound(next, subs) {
					next++
				}
			}
			xs[k] = held
		}
		res.Sampled[leg] = xs
		res.Shifted[leg] = util.Roll(x0[leg], shift)
	}
	return res, nil
}
