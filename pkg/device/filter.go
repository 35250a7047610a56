package device

import (
	"fmt"

	"github.com/edp1096/toy-pwm/pkg/lti"
)

// LCFilter is a series R-L feeding a shunt C, driven by a voltage,
// output is the capacitor voltage. States are (iL, vC).
type LCFilter struct {
	BaseDevice
	R float64
	L float64
	C float64
}

var _ Device = (*LCFilter)(nil)

func NewLCFilter(name string, r, l, c float64) *LCFilter {
	return &LCFilter{BaseDevice: BaseDevice{Name: name}, R: r, L: l, C: c}
}

func (d *LCFilter) GetType() string { return "RLC" }

func (d *LCFilter) Model(method lti.Method) (Model, error) {
	if !(d.L > 0) || !(d.C > 0) {
		return nil, fmt.Errorf("%s: L=%g C=%g must be positive: %w", d.Name, d.L, d.C, lti.ErrDimension)
	}
	ss, err := lti.FromSlices(
		[]float64{-d.R / d.L, -1 / d.L, 1 / d.C, 0},
		[]float64{1 / d.L, 0},
		[]float64{0, 1},
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	return ss.WithMethod(method), nil
}
