package circuit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/device"
	"github.com/edp1096/toy-pwm/pkg/topology"
	"github.com/edp1096/toy-pwm/pkg/util"
)

var ErrPhaseLength = errors.New("mismatched phase array lengths")

// Models are the forced response simulators of the passive network.
// Output and Input are nil when the respective filter is absent.
type Models struct {
	Load   device.Model
	DCLink device.Model
	Output device.Model
	Input  device.Model
}

type Params struct {
	Topology topology.Topology
	Vdc      float64
	Mi       float64
	DC       bool // constant excitation, no mean removal
}

// Window selects the analysed part of the grid. It spans Periods whole
// fundamental cycles.
type Window struct {
	Start, End int
	Periods    int
}

func (w Window) Len() int { return w.End - w.Start }

type Result struct {
	Time []float64 // window grid
	AC   map[string][]float64
	DC   map[string][]float64
}

type Circuit struct {
	name   string
	params Params
	models Models
}

func New(name string, p Params, m Models) (*Circuit, error) {
	if m.Load == nil || m.DCLink == nil {
		return nil, fmt.Errorf("circuit %s: load and dc-link models are required", name)
	}
	if m.Load.Order() < 1 || m.DCLink.Order() < 1 {
		return nil, fmt.Errorf("circuit %s: empty model", name)
	}
	return &Circuit{name: name, params: p, models: m}, nil
}

func (c *Circuit) Name() string { return c.name }

// Simulate computes the AC and DC quantities for the switching traces s and
// the back-EMF e, both indexed [leg][sample] on the grid t.
func (c *Circuit) Simulate(t []float64, s, e [][]float64, w Window) (*Result, error) {
	legs := c.params.Topology.Phases()
	if len(s) != legs || len(e) != legs {
		return nil, fmt.Errorf("%w: %d switching and %d back-emf traces for %v", ErrPhaseLength, len(s), len(e), c.params.Topology)
	}
	for i := 0; i < legs; i++ {
		if len(s[i]) != len(t) || len(e[i]) != len(t) {
			return nil, fmt.Errorf("%w: leg %d", ErrPhaseLength, i)
		}
	}
	if w.Start < 0 || w.End > len(t) || w.Len() < 2 || w.Periods < 1 {
		return nil, fmt.Errorf("invalid analysis window [%d, %d) of %d samples", w.Start, w.End, len(t))
	}

	res := &Result{
		Time: t[w.Start:w.End],
		AC:   make(map[string][]float64),
		DC:   make(map[string][]float64),
	}

	var idc []float64
	var err error
	switch c.params.Topology {
	case topology.B6:
		idc, err = c.simulateB6(t, s, e, w, res)
	case topology.B4:
		idc, err = c.simulateB4(t, s, e, w, res)
	default:
		idc, err = c.simulateB2(t, s, e, w, res)
	}
	if err != nil {
		return nil, fmt.Errorf("circuit %s: %w", c.name, err)
	}

	if err := c.simulateDC(res.Time, idc, res); err != nil {
		return nil, fmt.Errorf("circuit %s: %w", c.name, err)
	}
	return res, nil
}

func (c *Circuit) simulateB6(t []float64, s, e [][]float64, w Window, res *Result) ([]float64, error) {
	n := len(t)
	half := c.params.Vdc / 2

	v0 := make([][]float64, 3)
	for i := range v0 {
		v0[i] = scale(s[i], half)
	}
	vn0 := make([]float64, n)
	for k := range vn0 {
		vn0[k] = (v0[0][k] + v0[1][k] + v0[2][k]) / 3
	}

	v := make([][]float64, 3)
	vout := make([][]float64, 3)
	vL := make([][]float64, 3)
	for i := range v {
		v[i] = make([]float64, n)
		for k := range v[i] {
			v[i][k] = v0[i][k] - vn0[k]
		}
		out, err := c.filterOutput(v[i], t)
		if err != nil {
			return nil, err
		}
		vout[i] = out
		vL[i] = make([]float64, n)
		for k := range vL[i] {
			vL[i][k] = vout[i][k] - c.params.Mi*e[i][k]
		}
	}

	shift := int(math.Floor(float64(w.Len()) / float64(w.Periods) * 30.0 / 360.0))
	cur := make([][]float64, 3)
	for i := range cur {
		j := (i + 1) % 3
		drive := make([]float64, n)
		for k := range drive {
			drive[k] = (vL[i][k] - vL[j][k]) / consts.Sqrt3
		}
		line, err := c.loadCurrent(drive, t, w)
		if err != nil {
			return nil, err
		}
		cur[i] = util.Roll(line, shift)
		if !c.params.DC {
			cur[i] = removeMean(cur[i])
		}
	}

	names := []string{"a", "b", "c"}
	for i, name := range names {
		res.AC["i_"+name] = cur[i]
	}
	res.AC["v_a0"] = cut(v0[0], w)
	res.AC["v_a"] = cut(v[0], w)
	res.AC["v_a_out"] = cut(vout[0], w)
	res.AC["v_L_a"] = cut(vL[0], w)
	res.AC["v_n0"] = cut(vn0, w)

	idc := make([]float64, w.Len())
	for k := range idc {
		for i := 0; i < 3; i++ {
			idc[k] += s[i][w.Start+k] * cur[i][k]
		}
		idc[k] /= 2
	}
	return idc, nil
}

func (c *Circuit) simulateB4(t []float64, s, e [][]float64, w Window, res *Result) ([]float64, error) {
	half := c.params.Vdc / 2
	va0 := scale(s[0], half)
	vb0 := scale(s[1], half)
	vab := make([]float64, len(t))
	for k := range vab {
		vab[k] = va0[k] - vb0[k]
	}
	vout, err := c.filterOutput(vab, t)
	if err != nil {
		return nil, err
	}
	vL := make([]float64, len(t))
	for k := range vL {
		vL[k] = vout[k] - c.params.Mi*e[0][k]
	}
	ia, err := c.loadCurrent(vL, t, w)
	if err != nil {
		return nil, err
	}
	if !c.params.DC {
		ia = removeMean(ia)
	}

	res.AC["v_a0"] = cut(va0, w)
	res.AC["v_b0"] = cut(vb0, w)
	res.AC["v_ab"] = cut(vab, w)
	res.AC["v_out"] = cut(vout, w)
	res.AC["v_L"] = cut(vL, w)
	res.AC["i_a"] = ia

	idc := make([]float64, w.Len())
	for k := range idc {
		idc[k] = ia[k] / 2 * (s[0][w.Start+k] - s[1][w.Start+k])
	}
	return idc, nil
}

func (c *Circuit) simulateB2(t []float64, s, e [][]float64, w Window, res *Result) ([]float64, error) {
	va0 := scale(s[0], c.params.Vdc/2)
	vout, err := c.filterOutput(va0, t)
	if err != nil {
		return nil, err
	}
	vL := make([]float64, len(t))
	for k := range vL {
		vL[k] = vout[k] - c.params.Mi*e[0][k]
	}
	ia, err := c.loadCurrent(vL, t, w)
	if err != nil {
		return nil, err
	}
	if !c.params.DC {
		ia = removeMean(ia)
	}

	res.AC["v_a0"] = cut(va0, w)
	res.AC["v_out"] = cut(vout, w)
	res.AC["v_L"] = cut(vL, w)
	res.AC["i_a"] = ia

	idc := make([]float64, w.Len())
	for k := range idc {
		idc[k] = s[0][w.Start+k] * ia[k] / 2
	}
	return idc, nil
}

// simulateDC derives capacitor current, dc-link and input voltage from idc.
func (c *Circuit) simulateDC(tw, idc []float64, res *Result) error {
	mean := stat.Mean(idc, nil)
	ic := make([]float64, len(idc))
	for k := range ic {
		ic[k] = mean - idc[k]
	}

	vdc, err := c.models.DCLink.Response(ic, tw, nil)
	if err != nil {
		return fmt.Errorf("dc-link: %w", err)
	}
	shift := c.params.Vdc - stat.Mean(vdc, nil)
	for k := range vdc {
		vdc[k] += shift
	}

	vin := vdc
	if c.models.Input != nil {
		dev := make([]float64, len(vdc))
		for k := range dev {
			dev[k] = vdc[k] - c.params.Vdc
		}
		vin, err = c.models.Input.Response(dev, tw, nil)
		if err != nil {
			return fmt.Errorf("input filter: %w", err)
		}
		for k := range vin {
			vin[k] += c.params.Vdc
		}
	}

	res.DC["i_dc"] = idc
	res.DC["i_cap"] = ic
	res.DC["v_dc"] = vdc
	res.DC["v_in"] = vin
	return nil
}

func (c *Circuit) filterOutput(v, t []float64) ([]float64, error) {
	if c.models.Output == nil {
		return v, nil
	}
	out, err := c.models.Output.Response(v, t, []float64{v[0]})
	if err != nil {
		return nil, fmt.Errorf("output filter: %w", err)
	}
	return out, nil
}

// loadCurrent simulates the load on the full grid and returns the window.
func (c *Circuit) loadCurrent(drive, t []float64, w Window) ([]float64, error) {
	if !c.params.DC {
		drive = removeMean(drive)
	}
	i, err := c.models.Load.Response(drive, t, nil)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return cut(i, w), nil
}

func scale(x []float64, f float64) []float64 {
	return floats.ScaleTo(make([]float64, len(x)), f, x)
}

func removeMean(x []float64) []float64 {
	out := append([]float64(nil), x...)
	floats.AddConst(-stat.Mean(x, nil), out)
	return out
}

func cut(x []float64, w Window) []float64 {
	return append([]float64(nil), x[w.Start:w.End]...)
}
