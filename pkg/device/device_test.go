package device

import (
	"errors"
	"math"
	"testing"

	"github.com/edp1096/toy-pwm/pkg/lti"
)

func grid(n int, dt float64) []float64 {
	t := make([]float64, n)
	for k := range t {
		t[k] = float64(k) * dt
	}
	return t
}

func TestCapacitorBank(t *testing.T) {
	c, esr := CapacitorBank{C: 1e-3, ESR: 0.1, Series: 2, Parallel: 4}.Equivalent()
	if math.Abs(c-2e-3) > 1e-15 || math.Abs(esr-0.05) > 1e-15 {
		t.Fatalf("got C=%g ESR=%g, want 2e-3 0.05", c, esr)
	}
	c, esr = CapacitorBank{C: 1e-3, ESR: 0.1}.Equivalent()
	if c != 1e-3 || esr != 0.1 {
		t.Fatalf("zero counts must default to one, got C=%g ESR=%g", c, esr)
	}
}

func TestDCLinkChargesLinearly(t *testing.T) {
	d := NewDCLink("dc", CapacitorBank{C: 1e-3, ESR: 0.01, Series: 1, Parallel: 1})
	m, err := d.Model(lti.FirstOrderHold)
	if err != nil {
		t.Fatal(err)
	}
	tt := grid(100, 1e-5)
	u := make([]float64, len(tt))
	for k := range u {
		u[k] = 2
	}
	y, err := m.Response(u, tt, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, tk := range tt {
		want := 2*tk/1e-3 + 2*0.01
		if math.Abs(y[k]-want) > 1e-9 {
			t.Fatalf("v[%d] = %.9f, want %.9f", k, y[k], want)
		}
	}
}

func TestLCFilterSettles(t *testing.T) {
	f := NewLCFilter("out", 1, 1e-3, 1e-4)
	m, err := f.Model(lti.FirstOrderHold)
	if err != nil {
		t.Fatal(err)
	}
	if m.Order() != 2 {
		t.Fatalf("order = %d, want 2", m.Order())
	}
	tt := grid(20000, 1e-5)
	u := make([]float64, len(tt))
	for k := range u {
		u[k] = 10
	}
	y, err := m.Response(u, tt, nil)
	if err != nil {
		t.Fatal(err)
	}
	if last := y[len(y)-1]; math.Abs(last-10) > 1e-3 {
		t.Fatalf("final capacitor voltage %.6f, want 10", last)
	}
	if y[0] != 0 {
		t.Fatalf("y[0] = %v, want 0", y[0])
	}
}

func TestInvalidValues(t *testing.T) {
	devices := []Device{
		NewLoad("load", 1, 0),
		NewLoad("load", -1, 1e-3),
		NewLCFilter("flt", 1, 1e-3, 0),
		NewDCLink("dc", CapacitorBank{}),
	}
	for _, d := range devices {
		if _, err := d.Model(lti.FirstOrderHold); !errors.Is(err, lti.ErrDimension) {
			t.Fatalf("%s (%s): expected ErrDimension, got %v", d.GetName(), d.GetType(), err)
		}
	}
}

func TestDCLinkLoss(t *testing.T) {
	d := NewDCLink("dc", CapacitorBank{C: 1e-3, ESR: 0.1, Series: 1, Parallel: 2})
	p := d.Loss([]float64{0, 2, -4})
	want := []float64{0, 0.2, 0.8}
	for k := range want {
		if math.Abs(p[k]-want[k]) > 1e-12 {
			t.Fatalf("p[%d] = %g, want %g", k, p[k], want[k])
		}
	}
}
