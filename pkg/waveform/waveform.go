package waveform

import (
	"errors"
	"fmt"
	"math"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/topology"
	"github.com/edp1096/toy-pwm/pkg/util"
)

// ErrUnknownShape is returned together with a sinusoid when the shape is not recognised.
var ErrUnknownShape = errors.New("unknown waveform shape")

type Shape string

const (
	Sine      Shape = "sin"
	Constant  Shape = "con"
	Triangle  Shape = "tri"
	Rectangle Shape = "rec"
)

func (s Shape) Valid() bool {
	switch s {
	case Sine, Constant, Triangle, Rectangle:
		return true
	}
	return false
}

// Generate evaluates the shape at 2*pi*fel*t + phi + phi2 for every t.
// An unknown shape yields the sinusoid and an error wrapping ErrUnknownShape;
// the returned samples are valid in that case.
func Generate(shape Shape, t []float64, fel, phi, phi2 float64) ([]float64, error) {
	out := make([]float64, len(t))
	arg := func(k int) float64 { return consts.TwoPi*fel*t[k] + phi + phi2 }

	var err error
	switch shape {
	case Constant:
		for k := range out {
			out[k] = 1
		}
		return out, nil
	case Triangle:
		for k := range out {
			out[k] = util.Sawtooth(arg(k), 0.5)
		}
		return out, nil
	case Rectangle:
		for k := range out {
			out[k] = util.Square(arg(k), 0.5)
		}
		return out, nil
	case Sine:
	default:
		err = fmt.Errorf("%w: %q, using %q", ErrUnknownShape, string(shape), string(Sine))
	}

	for k := range out {
		out[k] = math.Sin(arg(k))
	}
	return out, err
}

// Phases generates one waveform per leg of top, shifted by the leg offsets.
// The amplitude scales every sample. The error is the one of Generate.
func Phases(top topology.Topology, shape Shape, t []float64, fel, phi, amplitude float64) ([][]float64, error) {
	offsets := top.PhaseOffsets()
	out := make([][]float64, len(offsets))
	var warn error
	for i, off := range offsets {
		w, err := Generate(shape, t, fel, phi, off)
		if err != nil {
			warn = err
		}
		if amplitude != 1 {
			for k := range w {
				w[k] *= amplitude
			}
		}
		out[i] = w
	}
	return out, warn
}
