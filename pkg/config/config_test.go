package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/edp1096/toy-pwm/pkg/pwm"
	"github.com/edp1096/toy-pwm/pkg/topology"
)

func withMemory(t *testing.T, bytes uint64) {
	t.Helper()
	old := totalMemory
	totalMemory = func() uint64 { return bytes }
	t.Cleanup(func() { totalMemory = old })
}

func hasWarning(ws []Warning, field string) bool {
	for _, w := range ws {
		if w.Field == field {
			return true
		}
	}
	return false
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"5", 5},
		{"5m", 5e-3},
		{"1meg", 1e6},
		{"500k", 500e3},
		{"500kHz", 500e3},
		{"2.2uF", 2.2e-6},
		{"10n", 10e-9},
		{"-1.5e-3", -1.5e-3},
		{"0.005", 0.005},
		{" 3s ", 3},
	}
	for _, tt := range tests {
		got, err := ParseValue(tt.in)
		if err != nil {
			t.Fatalf("ParseValue(%q): %v", tt.in, err)
		}
		if math.Abs(got-tt.want) > 1e-12*math.Max(1, math.Abs(tt.want)) {
			t.Fatalf("ParseValue(%q) = %g, want %g", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"", "abc", "5x", "1..2"} {
		if _, err := ParseValue(bad); err == nil {
			t.Fatalf("ParseValue(%q) should fail", bad)
		}
	}
}

func TestDefaultIsValid(t *testing.T) {
	withMemory(t, 1<<40)
	s, ws, err := Validate(Default())
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 0 {
		t.Fatalf("unexpected warnings: %v", ws)
	}
	if s.SamplesPerPeriod() != 10000 {
		t.Fatalf("samples per period = %d", s.SamplesPerPeriod())
	}
	if s.PulseNumber() != 21 {
		t.Fatalf("pulse number = %v", s.PulseNumber())
	}
	if n := len(s.TimeGrid()); n != 30000 {
		t.Fatalf("grid length = %d", n)
	}
	w := s.Window()
	if w.Start != 10000 || w.End != 30000 || w.Periods != 2 {
		t.Fatalf("window = %+v", w)
	}
}

func TestValidateCorrections(t *testing.T) {
	withMemory(t, 1<<40)

	s := Default()
	s.Operating.Mi = 2
	s.PWM.Td = 1e-3     // longer than 1/fs
	s.PWM.Tmin = 1e-7   // shorter than dt
	s.PWM.Fs = 1000.5   // asynchronous
	s.Topology.Source.Wave = "saw"
	s.Experiment.Cycles = 2

	got, ws, err := Validate(s)
	if err != nil {
		t.Fatal(err)
	}
	if want := topology.B6.MaxMi(); got.Operating.Mi != want {
		t.Fatalf("Mi = %v, want %v", got.Operating.Mi, want)
	}
	if got.PWM.Td != 0 || got.PWM.Tmin != 0 {
		t.Fatalf("td = %g tmin = %g, want both reset", got.PWM.Td, got.PWM.Tmin)
	}
	if got.Topology.Source.Wave != "sin" {
		t.Fatalf("wave = %q", got.Topology.Source.Wave)
	}
	for _, field := range []string{"operating.mi", "pwm.td", "pwm.tmin", "pwm.fs", "topology.source.wave", "experiment.cycles"} {
		if !hasWarning(ws, field) {
			t.Errorf("missing warning for %s in %v", field, ws)
		}
	}

	s = Default()
	s.Topology.Type = "B2"
	s.PWM.Type = "CB"
	s.Operating.Mi = 1.1
	got, _, err = Validate(s)
	if err != nil {
		t.Fatal(err)
	}
	if got.Operating.Mi != 1 {
		t.Fatalf("B2 Mi = %v, want 1", got.Operating.Mi)
	}

	s = Default()
	s.PWM.Td = 4e-6
	got, ws, err = Validate(s)
	if err != nil {
		t.Fatal(err)
	}
	if got.PWM.Td != 4e-6 || len(ws) != 0 {
		t.Fatalf("valid dead time changed: %g %v", got.PWM.Td, ws)
	}
	if got.DeadTimeSamples() != 2 {
		t.Fatalf("dead time samples = %d", got.DeadTimeSamples())
	}
}

func TestValidateMemory(t *testing.T) {
	withMemory(t, 1)
	_, ws, err := Validate(Default())
	if err != nil {
		t.Fatal(err)
	}
	if !hasWarning(ws, "experiment.fsim") {
		t.Fatalf("expected memory warning, got %v", ws)
	}
}

func TestValidateErrors(t *testing.T) {
	withMemory(t, 1<<40)
	tests := map[string]func(*Setup){
		"sv on b4":      func(s *Setup) { s.Topology.Type = "B4" },
		"zero L":        func(s *Setup) { s.Topology.Load.L = 0 },
		"bad topology":  func(s *Setup) { s.Topology.Type = "B8" },
		"bad strategy":  func(s *Setup) { s.PWM.Type = "XX" },
		"bad zero":      func(s *Setup) { s.PWM.Zero = "DPWM9" },
		"bad sequence":  func(s *Setup) { s.PWM.Seq = "127" },
		"bad mode":      func(s *Setup) { s.Experiment.Mode = "transient" },
		"bad method":    func(s *Setup) { s.Experiment.Method = "rk4" },
		"one cycle":     func(s *Setup) { s.Experiment.Cycles = 1 },
		"negative mi":   func(s *Setup) { s.Operating.Mi = -0.1 },
		"zero fs":       func(s *Setup) { s.PWM.Fs = 0 },
		"bad filter":    func(s *Setup) { s.Topology.Output = Filter{Enabled: true, L: 1e-3} },
		"bad capacitor": func(s *Setup) { s.Electrical.Capacitor.C = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			s := Default()
			mutate(&s)
			if _, _, err := Validate(s); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}

	s := Default()
	s.Topology.Type = "B2"
	if _, _, err := Validate(s); !errors.Is(err, pwm.ErrUnsupportedTopology) {
		t.Fatalf("expected ErrUnsupportedTopology, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yml")
	data := `
experiment:
  mode: steady
  fsim: 1meg
  cycles: 4
topology:
  type: B4
  load:
    l: 2m
    e: 100
    phie: -30
  output:
    enabled: true
    c: 10u
pwm:
  type: CB
  td: 2u
  zero: SPWM
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWMSIM_PWM_FS", "2k")

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Experiment.Mode != "steady" || s.Experiment.Fsim != 1e6 || s.Experiment.Cycles != 4 {
		t.Fatalf("experiment = %+v", s.Experiment)
	}
	if s.Topology.Type != "B4" {
		t.Fatalf("topology = %+v", s.Topology)
	}
	if want := (RLLoad{R: 5, L: 2e-3, E: 100, PhiE: -30}); s.Topology.Load != want {
		t.Fatalf("load = %+v, want %+v", s.Topology.Load, want)
	}
	if !s.Topology.Output.Enabled || math.Abs(s.Topology.Output.C-10e-6) > 1e-18 || s.Topology.Output.L != 1e-3 {
		t.Fatalf("output filter = %+v", s.Topology.Output)
	}
	if s.PWM.Fs != 2000 || math.Abs(s.PWM.Td-2e-6) > 1e-18 || s.PWM.Type != "CB" {
		t.Fatalf("pwm = %+v", s.PWM)
	}

	p, err := s.Modulation(0.5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Topology != topology.B4 || p.Strategy != pwm.CarrierBased || p.DeadTime != 2 || p.Fs != 2000 {
		t.Fatalf("params = %+v", p)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(path, []byte("pwm:\n  fs: fast\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
