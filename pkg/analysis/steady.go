package analysis

import (
	"fmt"

	"github.com/edp1096/toy-pwm/internal/logger"
	"github.com/edp1096/toy-pwm/pkg/config"
)

// Steady simulates the configured operating point and keeps every trace.
type Steady struct {
	BaseAnalysis
	run *Run
}

func NewSteady(log *logger.Logger) *Steady {
	return &Steady{BaseAnalysis: *NewBaseAnalysis(log)}
}

func (st *Steady) Setup(s config.Setup) error {
	return st.setup(s)
}

func (st *Steady) Execute() error {
	if st.pipeline == nil {
		return fmt.Errorf("setup not done")
	}

	mi := st.Config.Operating.Mi
	st.log.Infow("START: steady-state analysis", "run", st.RunID.String(), "mi", mi)
	run, err := st.pipeline.Run(mi)
	if err != nil {
		return fmt.Errorf("steady-state analysis: %w", err)
	}
	st.run = run

	w := st.pipeline.Window()
	st.Store("TIME", run.Circuit.Time)
	names := st.pipeline.Topology().PhaseNames()
	for i, name := range names {
		st.Store("s_"+name, run.PWM.Switching[i][w.Start:w.End])
		st.Store("ref_"+name, run.PWM.Reference[i][w.Start:w.End])
	}
	st.Store("carrier", run.PWM.Carrier[w.Start:w.End])
	for name, x := range run.Circuit.AC {
		st.Store(name, x)
	}
	for name, x := range run.Circuit.DC {
		st.Store(name, x)
	}

	if sp, ok := run.Spectra["i_a"]; ok {
		st.Store("FREQ", sp.Freq)
	}
	for name, sp := range run.Spectra {
		st.Store(name+"_AMP", sp.Amp)
	}

	st.Store("phi", []float64{run.Phi})
	st.StoreTriple("num_V", 0, 1, run.Numeric.V)
	st.StoreTriple("num_I", 0, 1, run.Numeric.I)
	st.StoreTriple("num_Vdc", 0, 1, run.Numeric.Vdc)
	st.StoreTriple("num_Idc", 0, 1, run.Numeric.Idc)
	st.StoreTriple("ana_V", 0, 1, run.Analytic.V)
	st.StoreTriple("ana_I", 0, 1, run.Analytic.I)
	st.StoreTriple("ana_Vdc", 0, 1, run.Analytic.Vdc)
	st.StoreTriple("ana_Idc", 0, 1, run.Analytic.Idc)

	st.log.Infow("END: steady-state analysis", "run", st.RunID.String(),
		"I_thd", run.Numeric.I.THD, "I_thd_ana", run.Analytic.I.THD)
	return nil
}

// Run returns the simulated operating point, nil before Execute.
func (st *Steady) Run() *Run { return st.run }
