package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/edp1096/toy-pwm/internal/logger"
	"github.com/edp1096/toy-pwm/pkg/analysis"
	"github.com/edp1096/toy-pwm/pkg/config"
	"github.com/edp1096/toy-pwm/pkg/report"
	"github.com/edp1096/toy-pwm/pkg/util"
)

var quantities = []struct {
	key, unit string
}{
	{"V", "V"},
	{"I", "A"},
	{"Vdc", "V"},
	{"Idc", "A"},
}

func getKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printTriples(results map[string][]float64, i int) {
	for _, src := range []string{"num", "ana"} {
		for _, q := range quantities {
			prefix := src + "_" + q.key
			rms, ok := results[prefix+"_rms"]
			if !ok {
				continue
			}
			fmt.Println(util.FormatTriple(prefix, rms[i], results[prefix+"_fund"][i], results[prefix+"_thd"][i], q.unit))
		}
	}
}

func printResults(results map[string][]float64) {
	fmt.Println("\nAnalysis Results:")
	fmt.Println("================")

	// Sweep
	if mis, isSweep := results["Mi"]; isSweep {
		fmt.Printf("\nModulation Index Sweep (%d points):\n", len(mis))
		for i, mi := range mis {
			fmt.Printf("\nMi=%-6.3f phi=%srad\n", mi, util.FormatPhase(results["phi"][i]))
			printTriples(results, i)
		}
		return
	}

	// Steady state
	times := results["TIME"]
	fmt.Printf("\nSteady State Results (%d time points):\n", len(times))
	if len(times) > 1 {
		fmt.Printf("window %s .. %s\n", util.FormatValueFactor(times[0], "s"), util.FormatValueFactor(times[len(times)-1], "s"))
	}
	if phi, ok := results["phi"]; ok {
		fmt.Printf("load angle %s rad\n", util.FormatPhase(phi[0]))
	}
	fmt.Println("------------------------------------------------")
	printTriples(results, 0)

	var spectra []string
	for _, name := range getKeys(results) {
		if strings.HasSuffix(name, "_AMP") {
			spectra = append(spectra, strings.TrimSuffix(name, "_AMP"))
		}
	}
	if freqs, ok := results["FREQ"]; ok && len(spectra) > 0 {
		fmt.Println("\nDominant harmonics:")
		for _, name := range spectra {
			amp := results[name+"_AMP"]
			best := 1
			for k := 2; k < len(amp); k++ {
				if amp[k] > amp[best] {
					best = k
				}
			}
			if best < len(freqs) {
				fmt.Printf("%-8s %s at %s\n", name, util.FormatMagnitude(amp[best]), util.FormatFrequency(freqs[best]))
			}
		}
	}
}

func main() {
	configPath := flag.String("config", "", "configuration file (default configs/config.yml)")
	mode := flag.String("mode", "", "analysis mode override: steady or sweep")
	plotDir := flag.String("plot", "", "directory for png plots, empty disables plotting")
	fmax := flag.Float64("fmax", 0, "upper frequency of spectrum plots in Hz, 0 draws all bins")
	level := flag.String("log", logger.InfoLevel, "log level")
	flag.Parse()

	log := logger.Get(*level)
	defer log.Sync()

	setup, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("error reading config", "err", err)
	}
	if *mode != "" {
		setup.Experiment.Mode = *mode
	}

	analyzer, err := analysis.New(setup.Experiment.Mode, log)
	if err != nil {
		log.Fatalw("unsupported analysis", "err", err)
	}
	if err := analyzer.Setup(setup); err != nil {
		log.Fatalw("analysis setup failed", "err", err)
	}
	log.Infow("executing analysis", "mode", setup.Experiment.Mode, "run", analyzer.ID().String())
	if err := analyzer.Execute(); err != nil {
		log.Fatalw("analysis execution failed", "err", err)
	}

	results := analyzer.GetResults()
	printResults(results)

	if *plotDir == "" {
		return
	}
	var files []string
	if setup.Experiment.Mode == "sweep" {
		files, err = report.Sweep(*plotDir, setup.Experiment.Name, analyzer.ID(), results)
	} else {
		files, err = report.Steady(*plotDir, setup.Experiment.Name, analyzer.ID(), results, *fmax)
	}
	if err != nil {
		log.Fatalw("writing plots failed", "err", err)
	}
	log.Infow("plots written", "dir", *plotDir, "files", len(files))
}
