package analysis

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/edp1096/toy-pwm/internal/logger"
	"github.com/edp1096/toy-pwm/pkg/config"
	"github.com/edp1096/toy-pwm/pkg/distortion"
)

const (
	STEADY int = iota
	SWEEP
)

type Analysis interface {
	Setup(s config.Setup) error
	Execute() error
	GetResults() map[string][]float64
	ID() uuid.UUID
}

type BaseAnalysis struct {
	Config   config.Setup
	RunID    uuid.UUID
	Warnings []config.Warning
	pipeline *Pipeline
	log      *logger.Logger
	results  map[string][]float64 // key: quantity name, value: samples or sweep points
}

func NewBaseAnalysis(log *logger.Logger) *BaseAnalysis {
	return &BaseAnalysis{
		RunID:   uuid.New(),
		log:     logger.OrNop(log),
		results: make(map[string][]float64),
	}
}

// New returns the analysis for mode, "steady" or "sweep".
func New(mode string, log *logger.Logger) (Analysis, error) {
	switch mode {
	case "steady":
		return NewSteady(log), nil
	case "sweep":
		return NewSweep(log), nil
	}
	return nil, fmt.Errorf("unknown analysis mode %q", mode)
}

// setup validates s, reports the corrections and prepares the pipeline.
func (a *BaseAnalysis) setup(s config.Setup) error {
	a.log.Infow("START: sanity checks", "run", a.RunID.String())
	valid, ws, err := config.Validate(s)
	config.LogWarnings(a.log, ws)
	a.log.Infow("END: sanity checks", "warnings", len(ws))
	if err != nil {
		return err
	}

	p, err := NewPipeline(valid)
	if err != nil {
		return err
	}
	a.Config = valid
	a.Warnings = ws
	a.pipeline = p
	return nil
}

func (a *BaseAnalysis) Store(name string, values []float64) {
	a.results[name] = values
}

// StoreTriple stores tr under prefix_rms, prefix_fund and prefix_thd at
// index i of series of length n. Unset entries are NaN.
func (a *BaseAnalysis) StoreTriple(prefix string, i, n int, tr distortion.Triple) {
	for suffix, v := range map[string]float64{"_rms": tr.RMS, "_fund": tr.Fund, "_thd": tr.THD} {
		name := prefix + suffix
		if _, exists := a.results[name]; !exists {
			a.results[name] = nanSlice(n)
		}
		a.results[name][i] = v
	}
}

func (a *BaseAnalysis) ID() uuid.UUID { return a.RunID }

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
