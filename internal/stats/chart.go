package stats

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ChartSeries is one named line on a convergence chart, indexed by
// generation starting at 1.
type ChartSeries struct {
	Name   string
	Values []float64
}

var chartPalette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

// WriteConvergenceChart renders fitness per generation to path. The format
// follows the extension (png, svg, pdf). maxGenerations fixes the x axis so
// charts of runs stopped early stay comparable.
func WriteConvergenceChart(path, title string, maxGenerations int, series ...ChartSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("at least one series is required")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"
	p.Legend.Top = true
	p.Legend.Left = true

	longest := 0
	for i, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Values))
		for gen, v := range s.Values {
			pts[gen].X = float64(gen + 1)
			pts[gen].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Name, err)
		}
		line.Color = chartPalette[i%len(chartPalette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.Name, line)
		if len(s.Values) > longest {
			longest = len(s.Values)
		}
	}
	if longest == 0 {
		return fmt.Errorf("all series are empty")
	}

	p.X.Min = 1
	p.X.Max = float64(max(maxGenerations, longest, 2))
	p.Add(plotter.NewGrid())

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
