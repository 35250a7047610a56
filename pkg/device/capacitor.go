package device

import (
	"fmt"

	"github.com/edp1096/toy-pwm/pkg/lti"
)

// CapacitorBank is Series x Parallel identical capacitors.
type CapacitorBank struct {
	C        float64 // single capacitor
	ESR      float64 // single capacitor
	Series   int
	Parallel int
}

// Equivalent returns the capacitance and ESR of the whole bank.
func (b CapacitorBank) Equivalent() (c, esr float64) {
	ns, np := b.Series, b.Parallel
	if ns < 1 {
		ns = 1
	}
	if np < 1 {
		np = 1
	}
	c = b.C * float64(np) / float64(ns)
	esr = b.ESR * float64(ns) / float64(np)
	return c, esr
}

// DCLink is a capacitor with series resistance driven by a current,
// output is the terminal voltage.
type DCLink struct {
	BaseDevice
	C   float64
	ESR float64
}

var _ Device = (*DCLink)(nil)

func NewDCLink(name string, bank CapacitorBank) *DCLink {
	c, esr := bank.Equivalent()
	return &DCLink{BaseDevice: BaseDevice{Name: name}, C: c, ESR: esr}
}

func (d *DCLink) GetType() string { return "C" }

func (d *DCLink) Model(method lti.Method) (Model, error) {
	if !(d.C > 0) {
		return nil, fmt.Errorf("%s: capacitance must be positive, got %g: %w", d.Name, d.C, lti.ErrDimension)
	}
	ss, err := lti.FromSlices([]float64{0}, []float64{1 / d.C}, []float64{1}, d.ESR)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	return ss.WithMethod(method), nil
}

// Loss returns the instantaneous ESR dissipation of the link for the
// capacitor current ic.
func (d *DCLink) Loss(ic []float64) []float64 {
	p := make([]float64, len(ic))
	for k, i := range ic {
		p[k] = d.ESR * i * i
	}
	return p
}
