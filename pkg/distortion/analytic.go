package distortion

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/pwm"
	"github.com/edp1096/toy-pwm/pkg/topology"
)

// Ripple factors of square wave operation relative to Vdc/2 over the
// fundamental reactance.
const (
	sixStepRipple = 0.0417
	squareRipple  = 0.1091
)

// Operating describes one operating point for the closed form estimates.
type Operating struct {
	Topology topology.Topology
	Strategy pwm.Strategy
	Zero     pwm.ZeroSequence
	Sequence pwm.Sequence

	Mi  float64
	Vdc float64
	Fel float64
	Fs  float64
	R   float64
	L   float64
	Phi float64 // load angle, rad
}

func (op Operating) reactance() float64 { return consts.TwoPi * op.Fel * op.L }

func (op Operating) impedance() float64 { return math.Hypot(op.R, op.reactance()) }

// zero resolves the effective zero sequence. Space vector sequences clamp
// like their discontinuous carrier counterparts.
func (op Operating) zero() pwm.ZeroSequence {
	if op.Strategy != pwm.SpaceVector {
		return op.Zero
	}
	switch op.Sequence {
	case pwm.Seq012:
		return pwm.DPWMMIN
	case pwm.Seq721:
		return pwm.DPWMMAX
	}
	return pwm.SVPWM
}

// HDF is the harmonic distortion factor of a two-level three-phase
// inverter for the zero sequence z at modulation index mi.
func HDF(z pwm.ZeroSequence, mi float64) float64 {
	m2, m3, m4 := mi*mi, mi*mi*mi, mi*mi*mi*mi
	base := 1.5*m2 - 4*consts.Sqrt3/math.Pi*m3

	dpwmMax := 6*m2 - (8*consts.Sqrt3+45)/(2*math.Pi)*m3 + (27.0/8+27*consts.Sqrt3/(32*math.Pi))*m4
	dpwmMin := 6*m2 + (45-62*consts.Sqrt3)/(2*math.Pi)*m3 + (27.0/8+27*consts.Sqrt3/(16*math.Pi))*m4

	switch z {
	case pwm.SVPWM:
		return base + (27.0/16-81*consts.Sqrt3/(64*math.Pi))*m4
	case pwm.THIPWM4:
		return base + 63.0/64*m4
	case pwm.THIPWM6:
		return base + m4
	case pwm.DPWM1:
		return dpwmMax
	case pwm.DPWM3:
		return dpwmMin
	case pwm.DPWM0, pwm.DPWM2, pwm.DPWMMIN, pwm.DPWMMAX:
		return 0.5 * (dpwmMax + dpwmMin)
	}
	return base + 9.0/8*m4
}

// Analytic estimates the distortion of op in closed form. The dc-link is
// treated as stiff.
func Analytic(op Operating) (Report, error) {
	if !(op.Vdc > 0) || !(op.Fel > 0) || !(op.L > 0) || op.R < 0 || op.Mi < 0 {
		return Report{}, fmt.Errorf("invalid operating point: Vdc=%g fel=%g R=%g L=%g Mi=%g", op.Vdc, op.Fel, op.R, op.L, op.Mi)
	}
	if op.Strategy != pwm.FundamentalFrequency && !(op.Fs > 0) {
		return Report{}, fmt.Errorf("invalid operating point: fs=%g", op.Fs)
	}

	var r Report
	var ripple float64
	mi, vdc := op.Mi, op.Vdc
	ff := op.Strategy == pwm.FundamentalFrequency

	switch op.Topology {
	case topology.B6:
		r.V = newTriple(vdc*math.Sqrt(mi/(consts.Sqrt3*math.Pi)), vdc/2*mi/consts.Sqrt2)
		if ff {
			ripple = sixStepRipple * vdc / 2 / op.reactance() * mi
		} else {
			ripple = vdc / (24 * op.L * op.Fs) * math.Sqrt(math.Max(0, HDF(op.zero(), mi)))
		}
	case topology.B4:
		r.V = newTriple(vdc*math.Sqrt(2*math.Min(mi, 1)/math.Pi), vdc*mi/consts.Sqrt2)
		if ff {
			ripple = squareRipple * vdc / op.reactance() * mi
		} else {
			h := mi*mi/2 - 8/(3*math.Pi)*mi*mi*mi + 3.0/8*mi*mi*mi*mi
			ripple = vdc / (4 * consts.Sqrt3 * op.L * op.Fs) * math.Sqrt(math.Max(0, h))
		}
	default:
		r.V = newTriple(vdc/2, vdc/2*mi/consts.Sqrt2)
		if ff {
			ripple = squareRipple * vdc / 2 / op.reactance() * mi
		} else {
			h := 1 - mi*mi + 3.0/8*mi*mi*mi*mi
			ripple = vdc / (8 * consts.Sqrt3 * op.L * op.Fs) * math.Sqrt(math.Max(0, h))
		}
	}

	i1 := r.V.Fund / op.impedance()
	r.I = Triple{RMS: math.Hypot(i1, ripple), Fund: i1, THD: ripple}

	cos := math.Cos(op.Phi)
	switch op.Topology {
	case topology.B6:
		rms := i1 * math.Sqrt(2*consts.Sqrt3/math.Pi*mi*(0.25+cos*cos))
		r.Idc = newTriple(rms, math.Abs(0.75*consts.Sqrt2*mi*i1*cos))
	case topology.B4:
		rms := i1 * math.Sqrt(2*mi*(1+math.Cos(2*op.Phi)/3)/math.Pi)
		r.Idc = newTriple(rms, math.Abs(consts.Sqrt2/2*mi*i1*cos))
	default:
		r.Idc = newTriple(i1/2, math.Abs(consts.Sqrt2/4*mi*i1*cos))
	}

	r.Vdc = Triple{RMS: vdc, Fund: vdc}
	return r, nil
}
