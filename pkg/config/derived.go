package config

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-pwm/pkg/circuit"
	"github.com/edp1096/toy-pwm/pkg/device"
	"github.com/edp1096/toy-pwm/pkg/lti"
	"github.com/edp1096/toy-pwm/pkg/pwm"
	"github.com/edp1096/toy-pwm/pkg/topology"
	"github.com/edp1096/toy-pwm/pkg/util"
)

// Dt is the simulation step.
func (s Setup) Dt() float64 { return 1 / s.Experiment.Fsim }

// PulseNumber is fs/fel.
func (s Setup) PulseNumber() float64 { return s.PWM.Fs / s.Topology.Source.Fel }

func (s Setup) SamplesPerPeriod() int {
	return int(math.Round(s.Experiment.Fsim / s.Topology.Source.Fel))
}

func (s Setup) DeadTimeSamples() int { return util.Samples(s.PWM.Td, s.Dt()) }

func (s Setup) MinPulseSamples() int { return util.Samples(s.PWM.Tmin, s.Dt()) }

// TimeGrid spans Cycles whole fundamental periods.
func (s Setup) TimeGrid() []float64 {
	return util.TimeGrid(s.Experiment.Cycles*s.SamplesPerPeriod(), s.Dt())
}

// Window drops the first fundamental period.
func (s Setup) Window() circuit.Window {
	n := s.SamplesPerPeriod()
	return circuit.Window{Start: n, End: s.Experiment.Cycles * n, Periods: s.Experiment.Cycles - 1}
}

func (s Setup) TopologyType() (topology.Topology, error) {
	return topology.Parse(s.Topology.Type)
}

func (s Setup) Method() (lti.Method, error) {
	return lti.ParseMethod(s.Experiment.Method)
}

func (s Setup) Bank() device.CapacitorBank {
	c := s.Electrical.Capacitor
	return device.CapacitorBank{C: c.C, ESR: c.ESR, Series: c.Series, Parallel: c.Parallel}
}

// Modulation builds the modulator parameters for modulation index mi.
func (s Setup) Modulation(mi float64) (pwm.Params, error) {
	var p pwm.Params
	var err error
	if p.Topology, err = s.TopologyType(); err != nil {
		return p, err
	}
	if p.Strategy, err = pwm.ParseStrategy(s.PWM.Type); err != nil {
		return p, err
	}
	if p.Zero, err = pwm.ParseZeroSequence(s.PWM.Zero); err != nil {
		return p, err
	}
	if p.Update, err = pwm.ParseUpdate(s.PWM.Update); err != nil {
		return p, err
	}
	if p.Sampling, err = pwm.ParseSampling(s.PWM.Sampling); err != nil {
		return p, err
	}
	if p.Alignment, err = pwm.ParseAlignment(s.PWM.Alignment); err != nil {
		return p, err
	}
	if p.Sequence, err = pwm.ParseSequence(s.PWM.Seq); err != nil {
		return p, err
	}
	if mi < 0 {
		return p, fmt.Errorf("negative modulation index %g", mi)
	}
	p.Mi = mi
	p.Fel = s.Topology.Source.Fel
	p.Fs = s.PWM.Fs
	p.MinPulse = s.MinPulseSamples()
	p.DeadTime = s.DeadTimeSamples()
	return p, nil
}
