package analysis

import (
	"fmt"
	"sync"

	"github.com/edp1096/toy-pwm/internal/logger"
	"github.com/edp1096/toy-pwm/pkg/config"
	"github.com/edp1096/toy-pwm/pkg/util"
)

// Sweep runs Points independent operating points with Mi spanning [0, Mi].
// A failing point is logged and left as NaN.
type Sweep struct {
	BaseAnalysis
	failed int
}

func NewSweep(log *logger.Logger) *Sweep {
	return &Sweep{BaseAnalysis: *NewBaseAnalysis(log)}
}

func (sw *Sweep) Setup(s config.Setup) error {
	return sw.setup(s)
}

type sweepPoint struct {
	index int
	mi    float64
	run   *Run
	err   error
}

func (sw *Sweep) Execute() error {
	if sw.pipeline == nil {
		return fmt.Errorf("setup not done")
	}

	n := sw.Config.Experiment.Points
	mis := util.Linspace(0, sw.Config.Operating.Mi, n)
	if n == 1 {
		mis = []float64{sw.Config.Operating.Mi}
	}
	workers := sw.Config.Workers()
	sw.log.Infow("START: sweep analysis", "run", sw.RunID.String(), "points", n, "workers", workers)

	jobs := make(chan int)
	out := make(chan sweepPoint)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				run, err := sw.pipeline.Run(mis[i])
				out <- sweepPoint{index: i, mi: mis[i], run: run, err: err}
			}
		}()
	}
	go func() {
		for i := range mis {
			jobs <- i
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(out)
	}()

	sw.Store("Mi", mis)
	sw.Store("phi", nanSlice(n))
	sw.failed = 0
	for pt := range out {
		if pt.err != nil {
			sw.failed++
			sw.log.Warnw("sweep point failed", "mi", pt.mi, "err", pt.err)
			continue
		}
		sw.store(pt.index, n, pt.run)
		sw.log.Debugw("sweep point done", "mi", pt.mi, "I_thd", pt.run.Numeric.I.THD)
	}

	sw.log.Infow("END: sweep analysis", "run", sw.RunID.String(), "failed", sw.failed)
	if sw.failed == n {
		return fmt.Errorf("sweep analysis: all %d points failed", n)
	}
	return nil
}

func (sw *Sweep) store(i, n int, run *Run) {
	sw.results["phi"][i] = run.Phi
	sw.StoreTriple("num_V", i, n, run.Numeric.V)
	sw.StoreTriple("num_I", i, n, run.Numeric.I)
	sw.StoreTriple("num_Vdc", i, n, run.Numeric.Vdc)
	sw.StoreTriple("num_Idc", i, n, run.Numeric.Idc)
	sw.StoreTriple("ana_V", i, n, run.Analytic.V)
	sw.StoreTriple("ana_I", i, n, run.Analytic.I)
	sw.StoreTriple("ana_Vdc", i, n, run.Analytic.Vdc)
	sw.StoreTriple("ana_Idc", i, n, run.Analytic.Idc)
}

// Failed is the number of points of the last Execute that did not finish.
func (sw *Sweep) Failed() int { return sw.failed }
