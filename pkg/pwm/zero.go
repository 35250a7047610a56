package pwm

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/util"
)

// ZeroSequence selects the common mode signal added to every phase reference.
type ZeroSequence int

const (
	SPWM ZeroSequence = iota
	SVPWM
	THIPWM4
	THIPWM6
	DPWM0
	DPWM1
	DPWM2
	DPWM3
	DPWMMIN
	DPWMMAX
)

var zeroNames = [...]string{"SPWM", "SVPWM", "THIPWM4", "THIPWM6", "DPWM0", "DPWM1", "DPWM2", "DPWM3", "DPWMMIN", "DPWMMAX"}

func (z ZeroSequence) String() string {
	if z < 0 || int(z) >= len(zeroNames) {
		return fmt.Sprintf("ZeroSequence(%d)", int(z))
	}
	return zeroNames[z]
}

func ParseZeroSequence(s string) (ZeroSequence, error) {
	for i, n := range zeroNames {
		if strings.EqualFold(n, s) {
			return ZeroSequence(i), nil
		}
	}
	return SPWM, fmt.Errorf("unknown zero sequence %q", s)
}

// ZeroSequences lists every policy.
func ZeroSequences() []ZeroSequence {
	out := make([]ZeroSequence, len(zeroNames))
	for i := range out {
		out[i] = ZeroSequence(i)
	}
	return out
}

// zeroInput holds the normalised phase references x[phase][sample].
type zeroInput struct {
	x        [][]float64
	t        []float64
	mi       float64
	fel      float64
	phi      float64 // initial phase angle of the first leg
	perCycle int     // samples per fundamental cycle
}

type zeroPolicy interface {
	zero(in zeroInput) []float64
}

var zeroPolicies = map[ZeroSequence]zeroPolicy{
	SPWM:    noZero{},
	SVPWM:   triangleZero{},
	THIPWM4: thirdHarmonic{ratio: 1.0 / 4},
	THIPWM6: thirdHarmonic{ratio: 1.0 / 6},
	DPWM0:   discontinuous{rotate: -1, rank: 2},
	DPWM1:   discontinuous{rotate: 0, rank: 2},
	DPWM2:   discontinuous{rotate: 1, rank: 2},
	DPWM3:   discontinuous{rotate: 0, rank: 1},
	DPWMMIN: clampZero{top: false},
	DPWMMAX: clampZero{top: true},
}

// compute returns the zero sequence of policy z.
func (z ZeroSequence) compute(in zeroInput) ([]float64, error) {
	p, ok := zeroPolicies[z]
	if !ok {
		return nil, fmt.Errorf("unsupported zero sequence %v", z)
	}
	return p.zero(in), nil
}

type noZero struct{}

func (noZero) zero(in zeroInput) []float64 {
	return make([]float64, len(in.t))
}

// triangleZero is the min-max injection approximated by a phase locked
// third harmonic triangle of amplitude Mi/4.
type triangleZero struct{}

func (triangleZero) zero(in zeroInput) []float64 {
	out := make([]float64, len(in.t))
	delay := (0.25 - in.phi/consts.TwoPi) / in.fel
	for k, tk := range in.t {
		out[k] = 0.25 * in.mi * util.Sawtooth(3*consts.TwoPi*in.fel*(tk-delay), 0.5)
	}
	return out
}

type thirdHarmonic struct {
	ratio float64
}

func (h thirdHarmonic) zero(in zeroInput) []float64 {
	out := make([]float64, len(in.t))
	lead := in.phi / (consts.TwoPi * in.fel)
	for k, tk := range in.t {
		out[k] = h.ratio * in.mi * math.Sin(3*consts.TwoPi*in.fel*(tk+lead))
	}
	return out
}

// discontinuous clamps the phase of the given |x| rank (2 largest, 1 median)
// to its sign. The ranking window is rotated by rotate/12 of a cycle.
type discontinuous struct {
	rotate int
	rank   int
}

func (d discontinuous) zero(in zeroInput) []float64 {
	n := len(in.t)
	out := make([]float64, n)
	phases := len(in.x)
	if phases == 0 || n == 0 {
		return out
	}
	rank := d.rank
	if rank >= phases {
		rank = phases - 1
	}

	ranked := in.x
	if shift := d.rotate * in.perCycle / 12; shift != 0 {
		ranked = make([][]float64, phases)
		for i, x := range in.x {
			ranked[i] = util.Roll(x, shift)
		}
	}

	mag := make([]float64, phases)
	idx := make([]int, phases)
	for k := 0; k < n; k++ {
		for i := range mag {
			mag[i] = math.Abs(ranked[i][k])
		}
		floats.ArgsortStable(mag, idx)
		c := in.x[idx[rank]][k]
		out[k] = util.Sign(c) - c
	}
	return out
}

// clampZero pins the largest (top) or smallest phase to the rail.
type clampZero struct {
	top bool
}

func (c clampZero) zero(in zeroInput) []float64 {
	out := make([]float64, len(in.t))
	col := make([]float64, len(in.x))
	for k := range out {
		for i := range in.x {
			col[i] = in.x[i][k]
		}
		if c.top {
			out[k] = 1 - floats.Max(col)
		} else {
			out[k] = -1 - floats.Min(col)
		}
	}
	return out
}
