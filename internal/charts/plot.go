package charts

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/railwear/internal/profile"
	"github.com/banshee-data/railwear/internal/report"
)

// Image formats accepted by PlotRail and PlotDefects.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// Plot size in points.
var (
	plotWidth  = 10 * vg.Inch
	plotHeight = 4 * vg.Inch
)

var (
	rgbRail   = color.RGBA{R: 229, G: 57, B: 53, A: 255}
	rgbIdeal  = color.RGBA{R: 30, G: 136, B: 229, A: 255}
	rgbFill   = color.NRGBA{R: 255, A: 96}
	rgbMarker = color.RGBA{A: 255}
)

// ContentType returns the MIME type for an image format.
func ContentType(format string) string {
	if format == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ParseFormat normalises an image format name.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimPrefix(s, ".")); f {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (want png or svg)", s)
	}
}

func xys(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}
	return pts
}

func addLine(p *plot.Plot, name string, values []float64, c color.Color, dashed bool) (*plotter.Line, error) {
	line, err := plotter.NewLine(xys(values))
	if err != nil {
		return nil, err
	}
	line.Color = c
	line.Width = vg.Points(1)
	if dashed {
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	}
	p.Add(line)
	p.Legend.Add(name, line)
	return line, nil
}

func depressionMarkers(top []float64, deps []profile.Depression) (*plotter.Scatter, error) {
	pts := make(plotter.XYs, 0, len(deps))
	for _, d := range deps {
		if d.Position < 0 || d.Position >= len(top) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(d.Position), Y: top[d.Position]})
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = rgbMarker
	sc.GlyphStyle.Radius = vg.Points(3)
	return sc, nil
}

func newPlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Distance (cm)"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())
	return p
}

func writePlot(w io.Writer, p *plot.Plot, format string) error {
	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	return nil
}

// PlotRail draws rail n's top and bottom profiles against the ideal
// baseline, marking depression centres, and writes it as format.
func PlotRail(w io.Writer, sess *report.Session, n int, format string) error {
	rail := sess.Report.Rail(n)
	if rail == nil {
		return fmt.Errorf("no rail %d in report", n)
	}
	p := newPlot(fmt.Sprintf("Rail %d: %s (total %.2f mm²)", n, rail.Assessment.Label, rail.TotalIntegral), "Height (mm)")

	if _, err := addLine(p, "Ideal top", rail.IdealTop, rgbIdeal, true); err != nil {
		return err
	}
	if _, err := addLine(p, "Ideal bottom", rail.IdealBottom, rgbIdeal, true); err != nil {
		return err
	}
	if _, err := addLine(p, "Top", rail.Top, rgbRail, false); err != nil {
		return err
	}
	if _, err := addLine(p, "Bottom", rail.Bottom, rgbRail, false); err != nil {
		return err
	}
	if len(rail.Depressions) > 0 {
		markers, err := depressionMarkers(rail.Top, rail.Depressions)
		if err != nil {
			return err
		}
		p.Add(markers)
		p.Legend.Add("Depressions", markers)
	}
	return writePlot(w, p, format)
}

// PlotDefects draws rail n's absolute deviation from ideal for both
// surfaces, with the top deviation filled.
func PlotDefects(w io.Writer, sess *report.Session, n int, format string) error {
	rail := sess.Report.Rail(n)
	if rail == nil {
		return fmt.Errorf("no rail %d in report", n)
	}
	p := newPlot(fmt.Sprintf("Rail %d defects: top %.2f mm², bottom %.2f mm²", n, rail.IntegralTop, rail.IntegralBottom), "Defect (mm)")

	top, err := addLine(p, "Top", rail.DiffTop, rgbRail, false)
	if err != nil {
		return err
	}
	top.FillColor = rgbFill
	if _, err := addLine(p, "Bottom", rail.DiffBottom, rgbIdeal, false); err != nil {
		return err
	}
	p.Y.Min = 0
	return writePlot(w, p, format)
}
