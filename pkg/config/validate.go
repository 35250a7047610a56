package config

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/pbnjay/memory"

	"github.com/edp1096/toy-pwm/internal/consts"
	"github.com/edp1096/toy-pwm/internal/logger"
	"github.com/edp1096/toy-pwm/pkg/lti"
	"github.com/edp1096/toy-pwm/pkg/pwm"
	"github.com/edp1096/toy-pwm/pkg/topology"
	"github.com/edp1096/toy-pwm/pkg/waveform"
)

// Machine memory over estimated use below which a warning is raised.
const memoryHeadroom = 5

// Warning is a recoverable configuration problem. The run proceeds with the
// corrected value.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string { return w.Field + ": " + w.Message }

// LogWarnings reports ws on l.
func LogWarnings(l *logger.Logger, ws []Warning) {
	for _, w := range ws {
		l.Warnw(w.Message, "field", w.Field)
	}
}

// totalMemory is replaced in tests.
var totalMemory = memory.TotalMemory

// Validate checks s and returns the corrected setup with the warnings that
// led to corrections. Errors wrap ErrInvalid.
func Validate(s Setup) (Setup, []Warning, error) {
	var ws []Warning
	warn := func(field, format string, args ...any) {
		ws = append(ws, Warning{Field: field, Message: fmt.Sprintf(format, args...)})
	}
	fail := func(field, format string, args ...any) (Setup, []Warning, error) {
		return s, ws, fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...))
	}

	e := &s.Experiment
	switch strings.ToLower(e.Mode) {
	case "steady", "sweep":
		e.Mode = strings.ToLower(e.Mode)
	default:
		return fail("experiment.mode", "unknown mode %q", e.Mode)
	}
	if !(e.Fsim > 0) {
		return fail("experiment.fsim", "must be positive, got %g", e.Fsim)
	}
	if e.Cycles < 2 {
		return fail("experiment.cycles", "at least 2 cycles are required, got %d", e.Cycles)
	}
	if e.Points < 1 {
		return fail("experiment.points", "at least 1 point is required, got %d", e.Points)
	}
	if e.Workers < 0 {
		return fail("experiment.workers", "must not be negative, got %d", e.Workers)
	}
	if _, err := lti.ParseMethod(e.Method); err != nil {
		return fail("experiment.method", "%v", err)
	}

	top, err := topology.Parse(s.Topology.Type)
	if err != nil {
		return fail("topology.type", "%v", err)
	}
	src := &s.Topology.Source
	if !(src.Fel > 0) {
		return fail("topology.source.fel", "must be positive, got %g", src.Fel)
	}
	if !waveform.Shape(src.Wave).Valid() {
		warn("topology.source.wave", "unknown waveform %q, using %q", src.Wave, waveform.Sine)
		src.Wave = string(waveform.Sine)
	}

	load := s.Topology.Load
	if !(load.L > 0) || load.R < 0 {
		return fail("topology.load", "need L > 0 and R >= 0, got R=%g L=%g", load.R, load.L)
	}
	for name, f := range map[string]Filter{"topology.output": s.Topology.Output, "topology.input": s.Topology.Input} {
		if f.Enabled && (!(f.L > 0) || !(f.C > 0) || f.R < 0) {
			return fail(name, "need L > 0, C > 0 and R >= 0, got R=%g L=%g C=%g", f.R, f.L, f.C)
		}
	}
	if c := s.Electrical.Capacitor; !(c.C > 0) || c.ESR < 0 {
		return fail("electrical.capacitor", "need C > 0 and ESR >= 0, got C=%g ESR=%g", c.C, c.ESR)
	}

	if !(s.Operating.Vdc > 0) {
		return fail("operating.vdc", "must be positive, got %g", s.Operating.Vdc)
	}
	if s.Operating.Mi < 0 {
		return fail("operating.mi", "must not be negative, got %g", s.Operating.Mi)
	}
	if limit := top.MaxMi(); s.Operating.Mi > limit {
		warn("operating.mi", "modulation index %.3f too high, limited to %.3f", s.Operating.Mi, limit)
		s.Operating.Mi = limit
	}

	p := &s.PWM
	strategy, err := pwm.ParseStrategy(p.Type)
	if err != nil {
		return fail("pwm.type", "%v", err)
	}
	if strategy == pwm.SpaceVector && top != topology.B6 {
		return s, ws, fmt.Errorf("%w: pwm.type: %v on %v: %w", ErrInvalid, strategy, top, pwm.ErrUnsupportedTopology)
	}
	if _, err := pwm.ParseUpdate(p.Update); err != nil {
		return fail("pwm.update", "%v", err)
	}
	if _, err := pwm.ParseSampling(p.Sampling); err != nil {
		return fail("pwm.sampling", "%v", err)
	}
	if _, err := pwm.ParseAlignment(p.Alignment); err != nil {
		return fail("pwm.alignment", "%v", err)
	}
	if _, err := pwm.ParseSequence(p.Seq); err != nil {
		return fail("pwm.seq", "%v", err)
	}
	if _, err := pwm.ParseZeroSequence(p.Zero); err != nil {
		return fail("pwm.zero", "%v", err)
	}
	if !(p.Fs > 0) {
		return fail("pwm.fs", "must be positive, got %g", p.Fs)
	}

	dt := 1 / e.Fsim
	if e.Eps*1e3 > dt {
		warn("experiment.eps", "numerical tolerance %g comparatively large", e.Eps)
	}
	if e.Cycles < 3 {
		warn("experiment.cycles", "use at least 3 cycles to reach steady state, got %d", e.Cycles)
	}
	p.Tmin = checkInterval(p.Tmin, dt, e.Eps, p.Fs, "pwm.tmin", "minimum pulse width", warn)
	p.Td = checkInterval(p.Td, dt, e.Eps, p.Fs, "pwm.td", "dead time", warn)

	if q := p.Fs / src.Fel; math.Abs(q-math.Round(q)) > 1e-9 {
		warn("pwm.fs", "pulse number %.3f is not integer, modulation is asynchronous", q)
	}

	if total := totalMemory(); total > 0 {
		need := s.memoryUse()
		if float64(total)/need < memoryHeadroom {
			warn("experiment.fsim", "machine might run out of memory (%.0f MB needed of %.0f MB), reduce fsim, cycles or points",
				need/1e6, float64(total)/1e6)
		}
	}

	return s, ws, nil
}

// checkInterval resets a timing interval shorter than one sample or longer
// than one switching period to zero.
func checkInterval(v, dt, eps, fs float64, field, name string, warn func(field, format string, args ...any)) float64 {
	switch {
	case v == 0:
		return 0
	case v < 0 || v+eps < dt:
		warn(field, "%s %g s smaller than the simulation step %g s, reset to 0", name, v, dt)
		return 0
	case v > 1/fs:
		warn(field, "%s %g s larger than the switching period %g s, reset to 0", name, v, 1/fs)
		return 0
	}
	return v
}

// memoryUse estimates the bytes held by the concurrently running points.
func (s Setup) memoryUse() float64 {
	perSample := float64(consts.BytesSwitching+consts.BytesCircuit+consts.BytesFloat+consts.BytesMisc) * 8
	samples := float64(s.Experiment.Cycles) * s.Experiment.Fsim / s.Topology.Source.Fel
	return samples * perSample * float64(s.Workers())
}

// Workers is the number of points simulated at the same time.
func (s Setup) Workers() int {
	if s.Experiment.Mode != "sweep" {
		return 1
	}
	w := s.Experiment.Workers
	if w == 0 {
		w = runtime.NumCPU()
	}
	if w > s.Experiment.Points {
		w = s.Experiment.Points
	}
	return max(w, 1)
}
