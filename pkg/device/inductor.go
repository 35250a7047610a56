package device

import (
	"fmt"

	"github.com/edp1096/toy-pwm/pkg/lti"
)

// Load is a series R-L branch driven by a voltage, output is the branch current.
type Load struct {
	BaseDevice
	R float64
	L float64
}

var _ Device = (*Load)(nil)

func NewLoad(name string, r, l float64) *Load {
	return &Load{BaseDevice: BaseDevice{Name: name}, R: r, L: l}
}

func (d *Load) GetType() string { return "RL" }

func (d *Load) Model(method lti.Method) (Model, error) {
	if !(d.L > 0) {
		return nil, fmt.Errorf("%s: inductance must be positive, got %g: %w", d.Name, d.L, lti.ErrDimension)
	}
	if d.R < 0 {
		return nil, fmt.Errorf("%s: negative resistance %g: %w", d.Name, d.R, lti.ErrDimension)
	}
	ss, err := lti.FromSlices([]float64{-d.R / d.L}, []float64{1 / d.L}, []float64{1}, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	return ss.WithMethod(method), nil
}
