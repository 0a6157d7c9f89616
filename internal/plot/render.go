// Package plot renders posterior snapshots as images and tabular exports.
package plot

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/nvandessel/bayesplot/internal/posterior"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format specifies the output format of a render.
type Format string

const (
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatSVG:
		return "image/svg+xml"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Title is the chart heading.
const Title = "Prior, posterior and sampling distributions"

// Default chart size in pixels.
const (
	Width  = 800
	Height = 400
)

var (
	priorColor     = drawing.ColorFromHex("1f77b4").WithAlpha(153)
	posteriorColor = drawing.ColorFromHex("1f77b4").WithAlpha(153)
	samplingColor  = drawing.ColorFromHex("b22222").WithAlpha(153)
)

// Render writes snap in the requested format.
func Render(w io.Writer, snap posterior.Snapshot, f Format) error {
	switch f {
	case FormatPNG:
		return renderChart(w, snap, chart.PNG)
	case FormatSVG:
		return renderChart(w, snap, chart.SVG)
	case FormatCSV:
		return WriteCSV(w, snap)
	case FormatJSON:
		return WriteJSON(w, snap)
	default:
		return fmt.Errorf("unsupported format %q (use 'png', 'svg', 'csv', or 'json')", f)
	}
}

// NewChart builds the three-curve chart with observation markers.
func NewChart(snap posterior.Snapshot) chart.Chart {
	graph := chart.Chart{
		Title:  Title,
		Width:  Width,
		Height: Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  "x",
			Range: &chart.ContinuousRange{Min: snap.XRange.Min, Max: snap.XRange.Max},
		},
		YAxis: chart.YAxis{
			Name:  "density",
			Range: &chart.ContinuousRange{Min: snap.YRange.Min, Max: snap.YRange.Max},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "prior",
				XValues: snap.Prior.X,
				YValues: clip(snap.Prior.Y, snap.YRange),
				Style:   chart.Style{StrokeColor: priorColor, StrokeWidth: 3},
			},
			chart.ContinuousSeries{
				Name:    "posterior",
				XValues: snap.Posterior.X,
				YValues: clip(snap.Posterior.Y, snap.YRange),
				Style:   chart.Style{StrokeColor: posteriorColor, StrokeWidth: 3, StrokeDashArray: []float64{8, 6}},
			},
			chart.ContinuousSeries{
				Name:    "sampling",
				XValues: snap.Sampling.X,
				YValues: clip(snap.Sampling.Y, snap.YRange),
				Style:   chart.Style{StrokeColor: samplingColor, StrokeWidth: 3},
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
		markers(snap),
	}
	return graph
}

func renderChart(w io.Writer, snap posterior.Snapshot, provider chart.RendererProvider) error {
	graph := NewChart(snap)
	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// markers draws each visible observation as a vertical segment from 0 to
// posterior.MarkerHeight in data coordinates.
func markers(snap posterior.Snapshot) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		xSpan := snap.XRange.Max - snap.XRange.Min
		ySpan := snap.YRange.Max - snap.YRange.Min
		if xSpan <= 0 || ySpan <= 0 {
			return
		}

		r.SetStrokeColor(samplingColor)
		r.SetStrokeWidth(3)
		for _, m := range snap.Observations {
			if !m.Visible || m.X < snap.XRange.Min || m.X > snap.XRange.Max {
				continue
			}
			px := box.Left + int(float64(box.Width())*(m.X-snap.XRange.Min)/xSpan)
			top := box.Bottom - int(float64(box.Height())*(posterior.MarkerHeight-snap.YRange.Min)/ySpan)
			r.MoveTo(px, box.Bottom)
			r.LineTo(px, top)
			r.Stroke()
		}
	}
}

// clip bounds ys to the display range so very narrow densities do not
// stretch the axis.
func clip(ys []float64, rng posterior.Range) []float64 {
	out := make([]float64, len(ys))
	for i, y := range ys {
		switch {
		case y > rng.Max:
			out[i] = rng.Max
		case y < rng.Min:
			out[i] = rng.Min
		default:
			out[i] = y
		}
	}
	return out
}

// WriteCSV writes one row per grid point: x, prior, posterior, sampling.
func WriteCSV(w io.Writer, snap posterior.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "prior", "posterior", "sampling"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, x := range snap.Prior.X {
		row := []string{
			formatFloat(x),
			formatFloat(snap.Prior.Y[i]),
			formatFloat(snap.Posterior.Y[i]),
			formatFloat(snap.Sampling.Y[i]),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteJSON writes the snapshot as indented JSON.
func WriteJSON(w io.Writer, snap posterior.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
