package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var ErrInvalid = errors.New("invalid configuration")

// Experiment controls the run itself.
type Experiment struct {
	Name    string
	Author  string
	Mode    string  // steady or sweep
	Fsim    float64 // simulation frequency, Hz
	Eps     float64
	Cycles  int    // fundamental cycles per run, the first one is discarded
	Points  int    // sweep points
	Workers int    // sweep workers, 0 selects one per CPU
	Method  string // integrator: foh, zoh, trap, be
}

// OperatingPoint is the commanded operating point.
type OperatingPoint struct {
	Mi  float64
	Vdc float64 // V
	Phi float64 // reference angle, deg
}

type RLLoad struct {
	R    float64 // Ohm
	L    float64 // H
	E    float64 // back-emf amplitude, V
	PhiE float64 // back-emf angle, deg
}

type Filter struct {
	Enabled bool
	R       float64
	L       float64
	C       float64
}

type Source struct {
	Wave string  // sin, con, tri, rec
	Fel  float64 // Hz
}

type Topology struct {
	Type   string // B2, B4, B6
	Source Source
	Load   RLLoad
	Output Filter
	Input  Filter
}

type PWM struct {
	Type      string // FF, CB, SV
	Update    string // SE, DE
	Sampling  string // NS, RS
	Alignment string // RE, FE, SM, AM
	Fs        float64
	Td        float64 // dead time, s
	Tmin      float64 // minimum pulse width, s
	Seq       string  // 0127, 012, 721
	Zero      string
}

// Capacitor is the dc-link bank.
type Capacitor struct {
	C        float64 // single capacitor, F
	ESR      float64 // single capacitor, Ohm
	Series   int
	Parallel int
}

type Electrical struct {
	Capacitor Capacitor
}

// Setup is the complete configuration of a run.
type Setup struct {
	Experiment Experiment
	Operating  OperatingPoint
	Topology   Topology
	PWM        PWM
	Electrical Electrical
}

func Default() Setup {
	return Setup{
		Experiment: Experiment{
			Name:   "test",
			Mode:   "sweep",
			Fsim:   500e3,
			Eps:    1e-12,
			Cycles: 3,
			Points: 25,
			Method: "foh",
		},
		Operating: OperatingPoint{Mi: 1.0, Vdc: 400},
		Topology: Topology{
			Type:   "B6",
			Source: Source{Wave: "sin", Fel: 50},
			Load:   RLLoad{R: 5, L: 5e-3},
			Output: Filter{R: 0, L: 1e-3, C: 1e-3},
			Input:  Filter{R: 1e-3, L: 2e-3, C: 1e-3},
		},
		PWM: PWM{
			Type:      "SV",
			Update:    "DE",
			Sampling:  "RS",
			Alignment: "SM",
			Fs:        1050,
			Seq:       "0127",
			Zero:      "SVPWM",
		},
		Electrical: Electrical{
			Capacitor: Capacitor{C: 1e-3, ESR: 10e-3, Series: 1, Parallel: 1},
		},
	}
}

// Load reads the configuration file at path on top of the defaults. An empty
// path looks for configs/config.* and falls back to the defaults when there
// is none. Every key can be overridden from the environment with the PWMSIM_
// prefix, e.g. PWMSIM_PWM_FS=2k.
func Load(path string) (Setup, error) {
	v := viper.New()
	v.SetEnvPrefix("PWMSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Setup{}, fmt.Errorf("read config: %w", err)
			}
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Setup{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return fromViper(v, Default())
}

type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) str(key string, dst *string) {
	if r.v.IsSet(key) {
		*dst = strings.TrimSpace(r.v.GetString(key))
	}
}

func (r *reader) value(key string, dst *float64) {
	if r.err != nil || !r.v.IsSet(key) {
		return
	}
	f, err := ParseValue(r.v.GetString(key))
	if err != nil {
		r.err = fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
		return
	}
	*dst = f
}

func (r *reader) integer(key string, dst *int) {
	if r.err != nil || !r.v.IsSet(key) {
		return
	}
	f, err := ParseValue(r.v.GetString(key))
	if err != nil || f != float64(int(f)) {
		r.err = fmt.Errorf("%w: %s: not an integer: %q", ErrInvalid, key, r.v.GetString(key))
		return
	}
	*dst = int(f)
}

func (r *reader) flag(key string, dst *bool) {
	if r.v.IsSet(key) {
		*dst = r.v.GetBool(key)
	}
}

func (r *reader) filter(prefix string, f *Filter) {
	r.flag(prefix+".enabled", &f.Enabled)
	r.value(prefix+".r", &f.R)
	r.value(prefix+".l", &f.L)
	r.value(prefix+".c", &f.C)
}

func fromViper(v *viper.Viper, s Setup) (Setup, error) {
	r := &reader{v: v}

	r.str("experiment.name", &s.Experiment.Name)
	r.str("experiment.author", &s.Experiment.Author)
	r.str("experiment.mode", &s.Experiment.Mode)
	r.value("experiment.fsim", &s.Experiment.Fsim)
	r.value("experiment.eps", &s.Experiment.Eps)
	r.integer("experiment.cycles", &s.Experiment.Cycles)
	r.integer("experiment.points", &s.Experiment.Points)
	r.integer("experiment.workers", &s.Experiment.Workers)
	r.str("experiment.method", &s.Experiment.Method)

	r.value("operating.mi", &s.Operating.Mi)
	r.value("operating.vdc", &s.Operating.Vdc)
	r.value("operating.phi", &s.Operating.Phi)

	r.str("topology.type", &s.Topology.Type)
	r.str("topology.source.wave", &s.Topology.Source.Wave)
	r.value("topology.source.fel", &s.Topology.Source.Fel)
	r.value("topology.load.r", &s.Topology.Load.R)
	r.value("topology.load.l", &s.Topology.Load.L)
	r.value("topology.load.e", &s.Topology.Load.E)
	r.value("topology.load.phie", &s.Topology.Load.PhiE)
	r.filter("topology.output", &s.Topology.Output)
	r.filter("topology.input", &s.Topology.Input)

	r.str("pwm.type", &s.PWM.Type)
	r.str("pwm.update", &s.PWM.Update)
	r.str("pwm.sampling", &s.PWM.Sampling)
	r.str("pwm.alignment", &s.PWM.Alignment)
	r.value("pwm.fs", &s.PWM.Fs)
	r.value("pwm.td", &s.PWM.Td)
	r.value("pwm.tmin", &s.PWM.Tmin)
	r.str("pwm.seq", &s.PWM.Seq)
	r.str("pwm.zero", &s.PWM.Zero)

	r.value("electrical.capacitor.c", &s.Electrical.Capacitor.C)
	r.value("electrical.capacitor.esr", &s.Electrical.Capacitor.ESR)
	r.integer("electrical.capacitor.series", &s.Electrical.Capacitor.Series)
	r.integer("electrical.capacitor.parallel", &s.Electrical.Capacitor.Parallel)

	return s, r.err
}
