// Package render draws a forecast snapshot as a PNG chart.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/domain"
	"github.com/kuzmatsukanov/umbrella-alert-bot/internal/metrics"
)

const (
	smoothPoints = 100
	chartWidth   = 5 * vg.Inch
	chartHeight  = 3 * vg.Inch
)

var (
	realColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	feelsColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	nightColor = color.NRGBA{A: 77}
)

// Renderer writes charts to a fixed path, replacing the previous render.
type Renderer struct {
	icons IconSource
	path  string
	loc   *time.Location
	log   *zap.Logger
}

func New(icons IconSource, path string, loc *time.Location, log *zap.Logger) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{icons: icons, path: path, loc: loc, log: log}
}

// Render draws snap and returns the output path. On error nothing is
// written to the output path.
func (r *Renderer) Render(ctx context.Context, snap *domain.ForecastSnapshot) (string, error) {
	if err := r.render(ctx, snap); err != nil {
		metrics.IncRender("failed")
		r.log.Error("render failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	metrics.IncRender("ok")
	return r.path, nil
}

func (r *Renderer) render(ctx context.Context, snap *domain.ForecastSnapshot) error {
	if snap == nil || len(snap.Samples) < 3 {
		return fmt.Errorf("need at least 3 samples")
	}
	xs := unixSeconds(snap.Times())
	temps, feels := snap.Temps(), snap.FeelsLike()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s, %s, %s",
		snap.Place.City, snap.Place.Country, snap.Sunrise.In(r.loc).Format("02 January 2006"))
	p.X.Label.Text = "Time, h"
	p.Y.Label.Text = "Temperature, °C"
	p.X.Tick.Marker = r.hourTicks(snap.Times())
	p.Legend.Top = true

	lo, hi := minMax(temps)
	for _, run := range nightRuns(snap) {
		poly, err := plotter.NewPolygon(plotter.XYs{
			{X: xs[run[0]], Y: lo}, {X: xs[run[1]], Y: lo},
			{X: xs[run[1]], Y: hi}, {X: xs[run[0]], Y: hi},
		})
		if err != nil {
			return fmt.Errorf("night shade: %w", err)
		}
		poly.Color = nightColor
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	for _, series := range []struct {
		name string
		ys   []float64
		c    color.Color
	}{
		{"Real", temps, realColor},
		{"Feels like", feels, feelsColor},
	} {
		sx, sy, err := Smooth(xs, series.ys, smoothPoints)
		if err != nil {
			return err
		}
		line, err := plotter.NewLine(zipXY(sx, sy))
		if err != nil {
			return fmt.Errorf("%s line: %w", series.name, err)
		}
		line.LineStyle.Color = series.c
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(series.name, line)
	}

	icons, err := r.fetchIcons(ctx, snap.Icons())
	if err != nil {
		return err
	}
	yCenter := (p.Y.Min + p.Y.Max) / 2
	halfW := (xs[1] - xs[0]) / 4
	halfH := (p.Y.Max - p.Y.Min) / 10
	if halfH <= 0 {
		halfH = 0.5
	}
	for i, code := range snap.Icons() {
		img, ok := icons[code]
		if !ok {
			continue
		}
		p.Add(plotter.NewImage(img, xs[i]-halfW, yCenter-halfH, xs[i]+halfW, yCenter+halfH))
	}

	return r.save(p)
}

// fetchIcons downloads each distinct code once. Any failure aborts the render.
func (r *Renderer) fetchIcons(ctx context.Context, codes []string) (map[string]image.Image, error) {
	out := make(map[string]image.Image, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		if _, ok := out[code]; ok {
			continue
		}
		img, err := r.icons.Icon(ctx, code)
		if err != nil {
			return nil, err
		}
		out[code] = img
	}
	return out, nil
}

// save writes to a temp file next to the target and renames it into place.
func (r *Renderer) save(p *plot.Plot) error {
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".render-*.png")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := wt.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, r.path)
}

func (r *Renderer) hourTicks(ts []time.Time) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(ts))
	for i, t := range ts {
		ticks[i] = plot.Tick{Value: float64(t.Unix()), Label: t.In(r.loc).Format("15:00")}
	}
	return ticks
}

// nightRuns returns inclusive [from, to] index ranges of consecutive night samples.
func nightRuns(snap *domain.ForecastSnapshot) [][2]int {
	var runs [][2]int
	start := -1
	for i, smp := range snap.Samples {
		night := snap.IsNight(smp.Time)
		switch {
		case night && start < 0:
			start = i
		case !night && start >= 0:
			runs = append(runs, [2]int{start, i - 1})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, len(snap.Samples) - 1})
	}
	return runs
}

func unixSeconds(ts []time.Time) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = float64(t.Unix())
	}
	return out
}

func zipXY(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	return pts
}

func minMax(vs []float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
