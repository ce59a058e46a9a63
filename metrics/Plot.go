package metrics

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Series is a named sequence of events
type Series struct {
	Name   string
	Points []Point
}

// Plot draws each series as a line and saves the figure to path. The
// image format is chosen from the file extension.
func Plot(path, title, xLabel, yLabel string, series ...Series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	for i, s := range series {
		if len(s.Points) == 0 {
			continue
		}

		points := make(plotter.XYs, len(s.Points))
		for j, pt := range s.Points {
			points[j] = plotter.XY{X: float64(pt.Step), Y: pt.Value}
		}

		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("plot: could not plot %v: %v", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: could not save figure: %w", err)
	}
	return nil
}

// MovingAverage returns the trailing moving average of points over a
// window of the given size
func MovingAverage(points []Point, window int) []Point {
	if window <= 1 {
		return append([]Point(nil), points...)
	}

	out := make([]Point, len(points))
	var sum float64
	for i, p := range points {
		sum += p.Value
		if i >= window {
			sum -= points[i-window].Value
		}
		n := min(i+1, window)
		out[i] = Point{Step: p.Step, Value: sum / float64(n)}
	}
	return out
}
