// Package analysis plots rollout traces and summaries.
package analysis

import (
	"fmt"

	"github.com/zeu5/dual-ac/rollout"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotValues draws V1, V2 and the classifier output of every step of the trace
func PlotValues(trace *rollout.Trace, file string) error {
	v1 := make(plotter.XYs, trace.Len())
	v2 := make(plotter.XYs, trace.Len())
	class := make(plotter.XYs, trace.Len())
	for i, step := range trace.Steps {
		v1[i] = plotter.XY{X: float64(i), Y: step.Output.V1}
		v2[i] = plotter.XY{X: float64(i), Y: step.Output.V2}
		class[i] = plotter.XY{X: float64(i), Y: step.Output.Class}
	}

	p := plot.New()
	p.Title.Text = trace.Episode
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Value"
	if err := addLines(p, []series{{"V1", v1}, {"V2", v2}, {"Class", class}}); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, file)
}

// PlotSummaries compares the mean values of several rollouts
func PlotSummaries(summaries []rollout.Summary, file string) error {
	v1 := make(plotter.XYs, len(summaries))
	v2 := make(plotter.XYs, len(summaries))
	class := make(plotter.XYs, len(summaries))
	for i, s := range summaries {
		v1[i] = plotter.XY{X: float64(i), Y: s.MeanV1}
		v2[i] = plotter.XY{X: float64(i), Y: s.MeanV2}
		class[i] = plotter.XY{X: float64(i), Y: s.MeanClass}
	}

	p := plot.New()
	p.Title.Text = "Comparison"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Mean value"
	if err := addLines(p, []series{{"Mean V1", v1}, {"Mean V2", v2}, {"Mean class", class}}); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 8*vg.Inch, file)
}

type series struct {
	name   string
	points plotter.XYs
}

func addLines(p *plot.Plot, lines []series) error {
	for i, l := range lines {
		line, err := plotter.NewLine(l.points)
		if err != nil {
			return fmt.Errorf("plotting %s: %w", l.name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(l.name, line)
	}
	return nil
}
