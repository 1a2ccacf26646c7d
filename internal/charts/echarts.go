// Package charts renders rail reports as go-echarts HTML pages and as
// gonum/plot images.
package charts

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/railwear/internal/report"
)

// Series colours, matching the page legend.
const (
	colorRail1  = "#e53935"
	colorRail2  = "#43a047"
	colorIdeal  = "#1e88e5"
	colorDefect = "#e53935"

	fillRail1  = "rgba(255, 0, 0, 0.3)"
	fillRail2  = "rgba(0, 255, 0, 0.3)"
	fillDefect = "rgba(255, 0, 0, 0.4)"
)

func lineData(values []float64, offset float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v + offset}
	}
	return data
}

func newLine(sess *report.Session, title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Rail Wear", Theme: sess.Theme, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (cm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	line.SetXAxis(sess.Report.X)
	return line
}

func plainSeries(color string, width float32) []charts.SeriesOpts {
	return []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: width}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
	}
}

func filledSeries(color, fill string, width float32) []charts.SeriesOpts {
	return append(plainSeries(color, width), charts.WithAreaStyleOpts(opts.AreaStyle{Color: fill}))
}

// RailsOverview draws both rails, top and bottom surfaces, with rail 2
// lifted by the session's rail spacing.
func RailsOverview(sess *report.Session) *charts.Line {
	rep := sess.Report
	line := newLine(sess, "Railway Rail Profiles",
		fmt.Sprintf("length=%d amplitude=%g frequency=%g seed=%d", rep.Params.Length, rep.Params.Amplitude, rep.Params.Frequency, rep.Seed),
		"Height (mm)")

	line.AddSeries("Rail 1 (top)", lineData(rep.Rail1.Top, 0), plainSeries(colorRail1, 2)...).
		AddSeries("Rail 1 (bottom)", lineData(rep.Rail1.Bottom, 0), filledSeries(colorRail1, fillRail1, 2)...).
		AddSeries("Rail 2 (top)", lineData(rep.Rail2.Top, sess.RailSpacing), plainSeries(colorRail2, 2)...).
		AddSeries("Rail 2 (bottom)", lineData(rep.Rail2.Bottom, sess.RailSpacing), filledSeries(colorRail2, fillRail2, 2)...)
	return line
}

// RailAnalysis returns the profile-versus-ideal and defect charts for rail n
// (top surface first, then bottom).
func RailAnalysis(sess *report.Session, n int) ([]*charts.Line, error) {
	rail := sess.Report.Rail(n)
	if rail == nil {
		return nil, fmt.Errorf("no rail %d in report", n)
	}
	label := fmt.Sprintf("Rail %d: %s (%.2f mm²)", n, rail.Assessment.Label, rail.TotalIntegral)

	surfaces := []struct {
		name     string
		ideal    []float64
		real     []float64
		diff     []float64
		integral float64
	}{
		{"Top", rail.IdealTop, rail.Top, rail.DiffTop, rail.IntegralTop},
		{"Bottom", rail.IdealBottom, rail.Bottom, rail.DiffBottom, rail.IntegralBottom},
	}

	out := make([]*charts.Line, 0, 2*len(surfaces))
	for _, s := range surfaces {
		prof := newLine(sess, fmt.Sprintf("%s Rail Profile", s.name), label, "Height (mm)")
		prof.AddSeries("Ideal Profile", lineData(s.ideal, 0), plainSeries(colorIdeal, 1)...).
			AddSeries("Defect Profile", lineData(s.real, 0), plainSeries(colorDefect, 1)...)

		defects := newLine(sess, fmt.Sprintf("%s Profile Defects (Integral: %.2f mm²)", s.name, s.integral), label, "Defect (mm)")
		defects.AddSeries("Defects", lineData(s.diff, 0), filledSeries(colorDefect, fillDefect, 1)...)

		out = append(out, prof, defects)
	}
	return out, nil
}

// RenderPage writes an HTML page with the overview and both rail analyses.
func RenderPage(w io.Writer, sess *report.Session) error {
	page := components.NewPage()
	page.PageTitle = "Rail Wear Report"
	page.AddCharts(RailsOverview(sess))
	for n := 1; n <= 2; n++ {
		lines, err := RailAnalysis(sess, n)
		if err != nil {
			return err
		}
		for _, l := range lines {
			page.AddCharts(l)
		}
	}
	return page.Render(w)
}

// RenderPageBytes is RenderPage into a buffer.
func RenderPageBytes(sess *report.Session) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderPage(&buf, sess); err != nil {
		return nil, fmt.Errorf("failed to render chart page: %w", err)
	}
	return buf.Bytes(), nil
}
