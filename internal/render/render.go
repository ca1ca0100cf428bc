// Package render draws chart specs as SVG or PNG images.
package render

import (
	"io"
	"math"
	"strings"

	"delivery-analytics-service/internal/services"

	"github.com/rotisserie/eris"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	width  = 1024
	height = 512
)

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat accepts "svg" and "png".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case SVG, PNG:
		return f, nil
	}
	return "", eris.Wrapf(services.ErrBadSelection, "unsupported image format %q", s)
}

func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == PNG {
		return chart.PNG
	}
	return chart.SVG
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func paletteColor(spec services.ChartSpec, i int) drawing.Color {
	palette := spec.Colors
	if len(palette) == 0 {
		palette = services.DefaultPalette
	}
	return color(palette[i%len(palette)])
}

// Render writes spec as an image. A spec without points yields services.ErrNoData.
func Render(w io.Writer, spec services.ChartSpec, format Format) error {
	if len(spec.Points()) == 0 {
		return eris.Wrapf(services.ErrNoData, "render %s", spec.ID)
	}

	var err error
	switch spec.ChartType {
	case services.ChartPie:
		err = pie(spec).Render(format.provider(), w)
	case services.ChartDonut:
		err = donut(spec).Render(format.provider(), w)
	case services.ChartScatter:
		err = scatter(spec).Render(format.provider(), w)
	case services.ChartBar, services.ChartHBar, services.ChartHistogram:
		err = bars(spec).Render(format.provider(), w)
	default:
		return eris.Errorf("render %s: unsupported chart type %q", spec.ID, spec.ChartType)
	}
	if err != nil {
		return eris.Wrapf(err, "render %s", spec.ID)
	}
	return nil
}

func values(spec services.ChartSpec) []chart.Value {
	pts := spec.Points()
	out := make([]chart.Value, len(pts))
	for i, p := range pts {
		out[i] = chart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: chart.Style{FillColor: paletteColor(spec, i), StrokeColor: drawing.ColorWhite},
		}
	}
	return out
}

func bars(spec services.ChartSpec) chart.BarChart {
	vals := values(spec)
	top := 0.0
	for _, v := range vals {
		top = math.Max(top, v.Value)
	}
	if top <= 0 {
		top = 1
	}

	// The single-colour histogram reads better than a palette cycle.
	if spec.ChartType == services.ChartHistogram {
		for i := range vals {
			vals[i].Style.FillColor = paletteColor(spec, 0)
		}
	}

	spacing := 4
	barWidth := max(2, (width-120)/len(vals)-spacing)
	return chart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: spacing,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis: chart.YAxis{
			Name:  spec.YAxis,
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: vals,
	}
}

func pie(spec services.ChartSpec) chart.PieChart {
	return chart.PieChart{Title: spec.Title, Width: height, Height: height, Values: values(spec)}
}

func donut(spec services.ChartSpec) chart.DonutChart {
	return chart.DonutChart{Title: spec.Title, Width: height, Height: height, Values: values(spec)}
}

// padded widens [lo, hi] so single points and flat series still get a drawable range.
func padded(lo, hi float64) *chart.ContinuousRange {
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func scatter(spec services.ChartSpec) chart.Chart {
	pts := spec.Points()
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Value
	}
	xlo, xhi := minMax(xs)
	ylo, yhi := minMax(ys)

	return chart.Chart{
		Title:  spec.Title,
		Width:  width,
		Height: height,
		XAxis:  chart.XAxis{Name: spec.XAxis, Range: padded(xlo, xhi)},
		YAxis:  chart.YAxis{Name: spec.YAxis, Range: padded(ylo, yhi)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    spec.Series[0].Name,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: drawing.ColorTransparent,
					DotWidth:    8,
					DotColor:    paletteColor(spec, 0),
				},
			},
		},
	}
}

func minMax(vals []float64) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}
