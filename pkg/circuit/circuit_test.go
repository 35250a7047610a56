package circuit

import (
	"errors"
	"math"
	"testing"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/device"
	"github.com/edp1096/toy-pwm/pkg/lti"
	"github.com/edp1096/toy-pwm/pkg/topology"
	"github.com/edp1096/toy-pwm/pkg/util"
	"github.com/edp1096/toy-pwm/pkg/waveform"
)

const (
	fel      = 50.0
	fsim     = 120e3
	perCycle = 2400
	vdc      = 400.0
	rLoad    = 5.0
	lLoad    = 5e-3
)

func models(t *testing.T, withFilters bool) Models {
	t.Helper()
	load, err := device.NewLoad("load", rLoad, lLoad).Model(lti.FirstOrderHold)
	if err != nil {
		t.Fatal(err)
	}
	dc, err := device.NewDCLink("dc", device.CapacitorBank{C: 1e-3, ESR: 1e-3, Series: 1, Parallel: 1}).Model(lti.FirstOrderHold)
	if err != nil {
		t.Fatal(err)
	}
	m := Models{Load: load, DCLink: dc}
	if withFilters {
		if m.Output, err = device.NewLCFilter("out", 0.1, 1e-3, 1e-4).Model(lti.FirstOrderHold); err != nil {
			t.Fatal(err)
		}
		if m.Input, err = device.NewLCFilter("inp", 1e-3, 2e-3, 1e-3).Model(lti.FirstOrderHold); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

// averaged returns continuous leg commands Mi*sin for top over cycles.
func averaged(t *testing.T, top topology.Topology, mi float64, cycles int) ([]float64, [][]float64, [][]float64, Window) {
	t.Helper()
	tt := util.TimeGrid(cycles*perCycle, 1/fsim)
	s, err := waveform.Phases(top, waveform.Sine, tt, fel, 0, mi)
	if err != nil {
		t.Fatal(err)
	}
	e := make([][]float64, len(s))
	for i := range e {
		e[i] = make([]float64, len(tt))
	}
	return tt, s, e, Window{Start: perCycle, End: len(tt), Periods: cycles - 1}
}

func TestB6PhaseCurrentReconstruction(t *testing.T) {
	mi := 0.8
	tt, s, e, w := averaged(t, topology.B6, mi, 3)
	c, err := New("b6", Params{Topology: topology.B6, Vdc: vdc, Mi: mi}, models(t, false))
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Simulate(tt, s, e, w)
	if err != nil {
		t.Fatal(err)
	}

	omega := consts.TwoPi * fel
	z := math.Hypot(rLoad, omega*lLoad)
	phi := math.Atan2(omega*lLoad, rLoad)
	amp := vdc / 2 * mi / z

	ia := res.AC["i_a"]
	if len(ia) != w.Len() {
		t.Fatalf("len(i_a) = %d, want %d", len(ia), w.Len())
	}
	for k, tk := range res.Time {
		want := amp * math.Sin(omega*tk-phi)
		if math.Abs(ia[k]-want) > 0.01*amp {
			t.Fatalf("i_a[%d] = %.4f, want %.4f", k, ia[k], want)
		}
	}
	for k := range ia {
		sum := res.AC["i_a"][k] + res.AC["i_b"][k] + res.AC["i_c"][k]
		if math.Abs(sum) > 1e-9*amp {
			t.Fatalf("phase currents do not sum to zero at %d: %g", k, sum)
		}
	}
}

func TestB6DCSide(t *testing.T) {
	mi := 0.9
	tt, s, e, w := averaged(t, topology.B6, mi, 3)
	for _, filters := range []bool{false, true} {
		c, err := New("b6", Params{Topology: topology.B6, Vdc: vdc, Mi: mi}, models(t, filters))
		if err != nil {
			t.Fatal(err)
		}
		res, err := c.Simulate(tt, s, e, w)
		if err != nil {
			t.Fatal(err)
		}
		if m := mean(res.DC["v_dc"]); math.Abs(m-vdc) > 1e-9 {
			t.Fatalf("mean v_dc = %.6f, want %v", m, vdc)
		}
		if m := mean(res.DC["i_cap"]); math.Abs(m) > 1e-9 {
			t.Fatalf("mean i_cap = %g, want 0", m)
		}
		for _, name := range []string{"v_in", "v_dc", "i_dc", "i_cap"} {
			if len(res.DC[name]) != w.Len() {
				t.Fatalf("%s has %d samples", name, len(res.DC[name]))
			}
		}
		for _, name := range []string{"v_a0", "v_a", "v_L_a", "v_a_out", "v_n0", "i_a", "i_b", "i_c"} {
			if len(res.AC[name]) != w.Len() {
				t.Fatalf("%s has %d samples", name, len(res.AC[name]))
			}
		}
		if filters {
			continue
		}
		// balanced averaged commands draw a constant dc current
		idc := res.DC["i_dc"]
		if spread := maxAbsDev(idc); spread > 0.05*math.Abs(mean(idc)) {
			t.Fatalf("i_dc ripple %.4f around %.4f", spread, mean(idc))
		}
	}
}

func TestB4AndB2Voltages(t *testing.T) {
	mi := 0.7
	for _, top := range []topology.Topology{topology.B2, topology.B4} {
		tt, s, e, w := averaged(t, top, mi, 3)
		c, err := New(top.String(), Params{Topology: top, Vdc: vdc, Mi: mi}, models(t, false))
		if err != nil {
			t.Fatal(err)
		}
		res, err := c.Simulate(tt, s, e, w)
		if err != nil {
			t.Fatal(err)
		}
		va0 := res.AC["v_a0"]
		for k := range va0 {
			if want := s[0][w.Start+k] * vdc / 2; math.Abs(va0[k]-want) > 1e-12 {
				t.Fatalf("%v: v_a0[%d] = %v, want %v", top, k, va0[k], want)
			}
		}
		if top == topology.B4 {
			vab := res.AC["v_ab"]
			for k := range vab {
				if d := res.AC["v_a0"][k] - res.AC["v_b0"][k]; math.Abs(vab[k]-d) > 1e-12 {
					t.Fatalf("v_ab[%d] = %v, want %v", k, vab[k], d)
				}
			}
			ia := res.AC["i_a"]
			for k := range ia {
				want := ia[k] / 2 * (s[0][w.Start+k] - s[1][w.Start+k])
				if math.Abs(res.DC["i_dc"][k]-want) > 1e-12 {
					t.Fatalf("i_dc[%d] = %v, want %v", k, res.DC["i_dc"][k], want)
				}
			}
		}
		if m := mean(res.AC["i_a"]); math.Abs(m) > 1e-9 {
			t.Fatalf("%v: mean i_a = %g", top, m)
		}
	}
}

func TestConstantExcitationKeepsMean(t *testing.T) {
	tt := util.TimeGrid(3*perCycle, 1/fsim)
	s := [][]float64{make([]float64, len(tt))}
	e := [][]float64{make([]float64, len(tt))}
	for k := range tt {
		s[0][k] = 1
	}
	w := Window{Start: perCycle, End: len(tt), Periods: 2}
	c, err := New("b2", Params{Topology: topology.B2, Vdc: vdc, Mi: 1, DC: true}, models(t, false))
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Simulate(tt, s, e, w)
	if err != nil {
		t.Fatal(err)
	}
	want := vdc / 2 / rLoad
	if got := res.AC["i_a"][w.Len()-1]; math.Abs(got-want) > 1e-6*want {
		t.Fatalf("steady current %.6f, want %.6f", got, want)
	}
}

func TestSimulateErrors(t *testing.T) {
	tt, s, e, w := averaged(t, topology.B6, 0.5, 3)
	c, err := New("b6", Params{Topology: topology.B6, Vdc: vdc, Mi: 0.5}, models(t, false))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Simulate(tt, s[:2], e, w); !errors.Is(err, ErrPhaseLength) {
		t.Fatalf("expected ErrPhaseLength, got %v", err)
	}
	short := [][]float64{s[0], s[1], s[2][:100]}
	if _, err := c.Simulate(tt, short, e, w); !errors.Is(err, ErrPhaseLength) {
		t.Fatalf("expected ErrPhaseLength, got %v", err)
	}
	bad := append([]float64(nil), tt...)
	bad[10] += 1e-3
	if _, err := c.Simulate(bad, s, e, w); !errors.Is(err, lti.ErrTimeGrid) {
		t.Fatalf("expected lti.ErrTimeGrid, got %v", err)
	}
	if _, err := New("x", Params{}, Models{}); err == nil {
		t.Fatal("expected missing model error")
	}
}

func TestScaleAndRemoveMean(t *testing.T) {
	x := []float64{1, 2, 3, 6}
	got := scale(x, -0.5)
	for k, want := range []float64{-0.5, -1, -1.5, -3} {
		if got[k] != want {
			t.Fatalf("scale[%d] = %g, want %g", k, got[k], want)
		}
	}
	z := removeMean(x)
	for k, want := range []float64{-2, -1, 0, 3} {
		if math.Abs(z[k]-want) > 1e-12 {
			t.Fatalf("removeMean[%d] = %g, want %g", k, z[k], want)
		}
	}
	if x[0] != 1 || x[3] != 6 {
		t.Fatalf("input modified: %v", x)
	}
}

func mean(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

func maxAbsDev(x []float64) float64 {
	m := mean(x)
	d := 0.0
	for _, v := range x {
		d = math.Max(d, math.Abs(v-m))
	}
	return d
}
