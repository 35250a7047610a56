package analysis

import (
	"errors"
	"fmt"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/pkg/circuit"
	"github.com/edp1096/toy-pwm/pkg/config"
	"github.com/edp1096/toy-pwm/pkg/device"
	"github.com/edp1096/toy-pwm/pkg/distortion"
	"github.com/edp1096/toy-pwm/pkg/pwm"
	"github.com/edp1096/toy-pwm/pkg/topology"
	"github.com/edp1096/toy-pwm/pkg/waveform"
)

// Run is the outcome of one operating point.
type Run struct {
	Mi        float64
	Time      []float64 // full grid
	Reference [][]float64
	EMF       [][]float64
	PWM       *pwm.Result
	Circuit   *circuit.Result
	Phi       float64 // measured load angle, rad
	Numeric   distortion.Report
	Analytic  distortion.Report
	Spectra   map[string]*distortion.Spectrum
}

// Pipeline runs waveform generation, modulation, timing, circuit simulation
// and distortion analysis for a validated setup. Models are built once and
// shared by all runs.
type Pipeline struct {
	setup    config.Setup
	top      topology.Topology
	shape    waveform.Shape
	window   circuit.Window
	dcLink   *device.DCLink
	models   circuit.Models
	analytic distortion.Operating
}

func NewPipeline(s config.Setup) (*Pipeline, error) {
	top, err := s.TopologyType()
	if err != nil {
		return nil, err
	}
	method, err := s.Method()
	if err != nil {
		return nil, err
	}
	mod, err := s.Modulation(s.Operating.Mi)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		setup:  s,
		top:    top,
		shape:  waveform.Shape(s.Topology.Source.Wave),
		window: s.Window(),
		dcLink: device.NewDCLink("Cdc", s.Bank()),
		analytic: distortion.Operating{
			Topology: top,
			Strategy: mod.Strategy,
			Zero:     mod.Zero,
			Sequence: mod.Sequence,
			Vdc:      s.Operating.Vdc,
			Fel:      s.Topology.Source.Fel,
			Fs:       s.PWM.Fs,
			R:        s.Topology.Load.R,
			L:        s.Topology.Load.L,
		},
	}

	load := s.Topology.Load
	if p.models.Load, err = device.NewLoad("RL", load.R, load.L).Model(method); err != nil {
		return nil, err
	}
	if p.models.DCLink, err = p.dcLink.Model(method); err != nil {
		return nil, err
	}
	if f := s.Topology.Output; f.Enabled {
		if p.models.Output, err = device.NewLCFilter("Fout", f.R, f.L, f.C).Model(method); err != nil {
			return nil, err
		}
	}
	if f := s.Topology.Input; f.Enabled {
		if p.models.Input, err = device.NewLCFilter("Finp", f.R, f.L, f.C).Model(method); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Pipeline) Window() circuit.Window { return p.window }

func (p *Pipeline) Topology() topology.Topology { return p.top }

// Run simulates the operating point at modulation index mi.
func (p *Pipeline) Run(mi float64) (*Run, error) {
	s := p.setup
	t := s.TimeGrid()
	fel := s.Topology.Source.Fel

	ref, err := waveform.Phases(p.top, p.shape, t, fel, s.Operating.Phi*consts.Deg2Rad, 1)
	if err != nil && !errors.Is(err, waveform.ErrUnknownShape) {
		return nil, err
	}
	emf, err := waveform.Phases(p.top, p.shape, t, fel, s.Topology.Load.PhiE*consts.Deg2Rad, s.Topology.Load.E)
	if err != nil && !errors.Is(err, waveform.ErrUnknownShape) {
		return nil, err
	}

	params, err := s.Modulation(mi)
	if err != nil {
		return nil, err
	}
	mod, err := pwm.Run(params, ref, t)
	if err != nil {
		return nil, fmt.Errorf("modulation: %w", err)
	}

	ckt, err := circuit.New(p.top.String(), circuit.Params{
		Topology: p.top,
		Vdc:      s.Operating.Vdc,
		Mi:       mi,
		DC:       p.shape == waveform.Constant,
	}, p.models)
	if err != nil {
		return nil, err
	}
	res, err := ckt.Simulate(t, mod.Switching, emf, p.window)
	if err != nil {
		return nil, err
	}
	res.DC["p_cap"] = p.dcLink.Loss(res.DC["i_cap"])

	run := &Run{
		Mi:        mi,
		Time:      t,
		Reference: ref,
		EMF:       emf,
		PWM:       mod,
		Circuit:   res,
		Spectra:   make(map[string]*distortion.Spectrum),
	}
	if err := p.analyse(run); err != nil {
		return nil, err
	}
	return run, nil
}

// ACVoltage is the converter output voltage analysed for the topology.
func ACVoltage(top topology.Topology) string {
	switch top {
	case topology.B6:
		return "v_a"
	case topology.B4:
		return "v_ab"
	}
	return "v_a0"
}

func (p *Pipeline) analyse(run *Run) error {
	res := run.Circuit
	periods := p.window.Periods
	w := distortion.Waveforms{
		V:   res.AC[ACVoltage(p.top)],
		I:   res.AC["i_a"],
		Vdc: res.DC["v_dc"],
		Idc: res.DC["i_dc"],
	}

	var err error
	if run.Numeric, err = distortion.Numeric(w, periods); err != nil {
		return fmt.Errorf("distortion: %w", err)
	}
	if run.Phi, err = distortion.LoadAngle(w.V, w.I, periods); err != nil {
		return fmt.Errorf("load angle: %w", err)
	}

	op := p.analytic
	op.Mi = run.Mi
	op.Phi = run.Phi
	if run.Analytic, err = distortion.Analytic(op); err != nil {
		return fmt.Errorf("analytic distortion: %w", err)
	}

	sa := run.PWM.Switching[0][p.window.Start:p.window.End]
	dt := p.setup.Dt()
	for name, x := range map[string][]float64{"s_a": sa, ACVoltage(p.top): w.V, "i_a": w.I, "v_dc": w.Vdc, "i_dc": w.Idc} {
		if run.Spectra[name], err = distortion.NewSpectrum(x, dt); err != nil {
			return fmt.Errorf("spectrum %s: %w", name, err)
		}
	}
	return nil
}
