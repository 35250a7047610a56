package distortion

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-pwm/internal/consts"
)

var ErrWindow = errors.New("invalid analysis window")

// Triple holds the effective value of a quantity, the effective value of its
// fundamental and the effective value of everything else.
type Triple struct {
	RMS  float64
	Fund float64
	THD  float64
}

func newTriple(rms, fund float64) Triple {
	return Triple{RMS: rms, Fund: fund, THD: math.Sqrt(math.Max(0, rms*rms-fund*fund))}
}

// Ratio is THD relative to the fundamental, NaN for a zero fundamental.
func (t Triple) Ratio() float64 {
	if t.Fund == 0 {
		return math.NaN()
	}
	return t.THD / t.Fund
}

// RMS is the root mean square of x. x is expected to span whole periods.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

// AC analyses an alternating quantity sampled over exactly periods
// fundamental cycles. The fundamental is read from DFT bin periods.
func AC(x []float64, periods int) (Triple, error) {
	n := len(x)
	if n < 2 || periods < 1 || 2*periods >= n {
		return Triple{}, fmt.Errorf("%w: %d periods in %d samples", ErrWindow, periods, n)
	}
	coeff := fourier.NewFFT(n).Coefficients(nil, x)
	fund := consts.Sqrt2 * cmplx.Abs(coeff[periods]) / float64(n)
	return newTriple(RMS(x), fund), nil
}

// DC analyses a quantity whose useful content is its mean.
func DC(x []float64) (Triple, error) {
	if len(x) == 0 {
		return Triple{}, fmt.Errorf("%w: empty signal", ErrWindow)
	}
	mean := math.Abs(floats.Sum(x)) / float64(len(x))
	return newTriple(RMS(x), mean), nil
}

// Spectrum is the one-sided amplitude and phase spectrum of a signal.
type Spectrum struct {
	Freq  []float64 // Hz
	Amp   []float64 // peak amplitude, mean for bin 0
	Phase []float64 // rad
}

func NewSpectrum(x []float64, dt float64) (*Spectrum, error) {
	n := len(x)
	if n < 2 || !(dt > 0) {
		return nil, fmt.Errorf("%w: %d samples, dt %g", ErrWindow, n, dt)
	}
	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, x)

	s := &Spectrum{
		Freq:  make([]float64, len(coeff)),
		Amp:   make([]float64, len(coeff)),
		Phase: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		s.Freq[i] = fft.Freq(i) / dt
		s.Amp[i] = 2 * cmplx.Abs(c) / float64(n)
		s.Phase[i] = cmplx.Phase(c)
	}
	s.Amp[0] /= 2
	if n%2 == 0 {
		s.Amp[len(s.Amp)-1] /= 2
	}
	return s, nil
}

// LoadAngle is the phase of v minus the phase of i at the fundamental,
// wrapped to (-pi, pi].
func LoadAngle(v, i []float64, periods int) (float64, error) {
	if len(v) != len(i) {
		return 0, fmt.Errorf("%w: %d voltage and %d current samples", ErrWindow, len(v), len(i))
	}
	n := len(v)
	if n < 2 || periods < 1 || 2*periods >= n {
		return 0, fmt.Errorf("%w: %d periods in %d samples", ErrWindow, periods, n)
	}
	fft := fourier.NewFFT(n)
	pv := cmplx.Phase(fft.Coefficients(nil, v)[periods])
	pc := cmplx.Phase(fft.Coefficients(nil, i)[periods])
	phi := math.Remainder(pv-pc, consts.TwoPi)
	if phi <= -math.Pi {
		phi += consts.TwoPi
	}
	return phi, nil
}

// Waveforms are the analysed signals of one run on the analysis window.
type Waveforms struct {
	V   []float64 // ac voltage
	I   []float64 // ac current
	Vdc []float64
	Idc []float64
}

// Report groups the triples of one operating point.
type Report struct {
	V   Triple
	I   Triple
	Vdc Triple
	Idc Triple
}

// Numeric analyses w sampled over periods fundamental cycles.
func Numeric(w Waveforms, periods int) (Report, error) {
	var r Report
	var err error
	if r.V, err = AC(w.V, periods); err != nil {
		return r, fmt.Errorf("voltage: %w", err)
	}
	if r.I, err = AC(w.I, periods); err != nil {
		return r, fmt.Errorf("current: %w", err)
	}
	if r.Vdc, err = DC(w.Vdc); err != nil {
		return r, fmt.Errorf("dc voltage: %w", err)
	}
	if r.Idc, err = DC(w.Idc); err != nil {
		return r, fmt.Errorf("dc current: %w", err)
	}
	return r, nil
}
