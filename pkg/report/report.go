package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Series is one named curve.
type Series struct {
	Name string
	Y    []float64
}

// FileName is <name>_<kind>_<runid>.png inside dir.
func FileName(dir, name, kind string, id uuid.UUID) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.png", name, kind, id.String()))
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

// xys drops samples that are not finite.
func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

func addLines(p *plot.Plot, xs []float64, series []Series, points bool) error {
	for i, s := range series {
		if len(s.Y) != len(xs) {
			return fmt.Errorf("series %s has %d values for %d abscissae", s.Name, len(s.Y), len(xs))
		}
		pts := xys(xs, s.Y)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Name, err)
		}
		line.LineStyle.Width = vg.Points(1)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)

		if points {
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return fmt.Errorf("series %s: %w", s.Name, err)
			}
			sc.GlyphStyle.Color = plotutil.Color(i)
			sc.GlyphStyle.Shape = plotutil.Shape(i)
			p.Add(sc)
		}
	}
	return nil
}

func savePNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	w := vg.Length(widthIn) * vg.Inch
	h := vg.Length(heightIn) * vg.Inch

	c := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseDPI(150),
	)
	dc := draw.New(c)
	p.Draw(dc)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

// TimePlot draws series over time t (s) in milliseconds.
func TimePlot(filename, title, ylabel string, t []float64, series ...Series) error {
	if len(t) == 0 {
		return fmt.Errorf("time plot %s: no samples", title)
	}
	ms := make([]float64, len(t))
	for i, v := range t {
		ms[i] = v * 1e3
	}
	p := newPlot(title, "time (ms)", ylabel)
	if err := addLines(p, ms, series, false); err != nil {
		return fmt.Errorf("time plot %s: %w", title, err)
	}
	return savePNG(p, 10, 4, filename)
}

// SpectrumPlot draws the amplitudes amp over freq (Hz) up to fmax as stems.
// A non-positive fmax draws every bin.
func SpectrumPlot(filename, title, ylabel string, freq, amp []float64, fmax float64) error {
	if len(freq) != len(amp) || len(freq) == 0 {
		return fmt.Errorf("spectrum plot %s: invalid data", title)
	}
	pts := make(plotter.XYs, 0, 3*len(freq))
	for i, f := range freq {
		if fmax > 0 && f > fmax {
			break
		}
		if math.IsNaN(amp[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: f, Y: 0}, plotter.XY{X: f, Y: amp[i]}, plotter.XY{X: f, Y: 0})
	}
	p := newPlot(title, "frequency (Hz)", ylabel)
	stems, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("spectrum plot %s: %w", title, err)
	}
	stems.LineStyle.Color = plotutil.Color(0)
	p.Add(stems)
	return savePNG(p, 10, 4, filename)
}

// SweepPlot draws series over the modulation index.
func SweepPlot(filename, title, ylabel string, mi []float64, series ...Series) error {
	if len(mi) == 0 {
		return fmt.Errorf("sweep plot %s: no points", title)
	}
	p := newPlot(title, "Mi", ylabel)
	if err := addLines(p, mi, series, true); err != nil {
		return fmt.Errorf("sweep plot %s: %w", title, err)
	}
	return savePNG(p, 8, 5, filename)
}

// pick returns the series of results named in names, skipping missing ones.
func pick(results map[string][]float64, names ...string) []Series {
	var out []Series
	for _, n := range names {
		if y, ok := results[n]; ok {
			out = append(out, Series{Name: n, Y: y})
		}
	}
	return out
}

// Steady writes the time and spectrum plots of a steady-state result map
// and returns the written files.
func Steady(dir, name string, id uuid.UUID, results map[string][]float64, fmax float64) ([]string, error) {
	t := results["TIME"]
	var files []string
	plots := []struct {
		kind, title, ylabel string
		names               []string
	}{
		{"switching", "Switching functions", "s", []string{"s_a", "s_b", "s_c"}},
		{"reference", "References", "x", []string{"ref_a", "ref_b", "ref_c", "carrier"}},
		{"current", "Phase currents", "i (A)", []string{"i_a", "i_b", "i_c"}},
		{"voltage", "AC voltages", "v (V)", []string{"v_a0", "v_b0", "v_ab", "v_a", "v_out", "v_a_out", "v_n0"}},
		{"dc", "DC-link", "v (V)", []string{"v_dc", "v_in"}},
		{"dccurrent", "DC-link currents", "i (A)", []string{"i_dc", "i_cap"}},
		{"caploss", "DC-link capacitor loss", "p (W)", []string{"p_cap"}},
	}
	for _, pl := range plots {
		series := pick(results, pl.names...)
		if len(series) == 0 {
			continue
		}
		f := FileName(dir, name, pl.kind, id)
		if err := TimePlot(f, pl.title, pl.ylabel, t, series...); err != nil {
			return files, err
		}
		files = append(files, f)
	}

	freq := results["FREQ"]
	var amps []string
	for k := range results {
		if len(k) > 4 && k[len(k)-4:] == "_AMP" {
			amps = append(amps, k)
		}
	}
	sort.Strings(amps)
	for _, k := range amps {
		q := k[:len(k)-4]
		f := FileName(dir, name, "spectrum_"+q, id)
		if err := SpectrumPlot(f, "Spectrum "+q, q, freq, results[k], fmax); err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Sweep writes the distortion over Mi plots of a sweep result map.
func Sweep(dir, name string, id uuid.UUID, results map[string][]float64) ([]string, error) {
	mi := results["Mi"]
	var files []string
	for _, q := range []struct{ key, title, ylabel string }{
		{"V", "AC voltage", "V"},
		{"I", "AC current", "A"},
		{"Vdc", "DC-link voltage", "V"},
		{"Idc", "DC-link current", "A"},
	} {
		series := pick(results, "num_"+q.key+"_thd", "ana_"+q.key+"_thd", "num_"+q.key+"_fund", "ana_"+q.key+"_fund")
		if len(series) == 0 {
			continue
		}
		f := FileName(dir, name, "sweep_"+q.key, id)
		if err := SweepPlot(f, q.title+" distortion", q.ylabel, mi, series...); err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}
