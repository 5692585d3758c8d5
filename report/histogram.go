// Package report summarizes predicted label maps.
package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ClassHistogram counts pixels per class. Labels outside [0, numClasses)
// are ignored.
func ClassHistogram(labels []int64, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, l := range labels {
		if l >= 0 && l < int64(numClasses) {
			counts[l]++
		}
	}
	return counts
}

// Fractions normalizes counts to sum to one.
func Fractions(counts []int) []float64 {
	var total int
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(total)
	}
	return out
}

// HistogramPlot builds a bar chart of per-class pixel fractions.
func HistogramPlot(counts []int, names []string) (*plot.Plot, error) {
	if len(names) < len(counts) {
		return nil, fmt.Errorf("histogram: %d class names for %d classes", len(names), len(counts))
	}

	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.Title.Text = "Class histogram"
	p.Y.Label.Text = "pixel fraction"

	bars, err := plotter.NewBarChart(plotter.Values(Fractions(counts)), vg.Points(12))
	if err != nil {
		return nil, err
	}
	p.Add(bars)
	p.NominalX(names[:len(counts)]...)

	return p, nil
}

// SaveHistogram renders the class histogram to file; the format follows the
// extension.
func SaveHistogram(counts []int, names []string, file string) error {
	p, err := HistogramPlot(counts, names)
	if err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, file)
}
