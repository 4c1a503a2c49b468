// Package chart renders per-student grade distribution charts.
package chart

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const gridPoints = 100

// Renderer draws the class grade distribution with a normal-curve
// overlay and a marker for one student's grade. Rendering is
// deterministic for identical numeric inputs.
type Renderer struct {
	outputDir string
	logger    *slog.Logger
}

// NewRenderer creates a chart renderer writing into outputDir
func NewRenderer(outputDir string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		outputDir: outputDir,
		logger:    logger.With(slog.String("component", "chart")),
	}
}

// FileName returns the stable chart file name for a student and
// subject. The name is unique per (student, subject) so concurrent
// subjects never collide.
func FileName(studentID, subject string) string {
	sanitize := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch r {
			case '/', '\\', ':':
				return '_'
			}
			return r
		}, s)
	}
	return fmt.Sprintf("%s_%s_chart.png", sanitize(studentID), sanitize(subject))
}

// Render draws the empirical density of grades, overlays the fitted
// normal curve, marks the target grade with a vertical line and a point
// on the fitted curve, and writes the chart as a PNG. It returns the
// written file path. On failure the caller should fall back to a
// text-only notification.
func (r *Renderer) Render(grades []float64, target float64, studentID, subject string) (string, error) {
	if len(grades) < 2 {
		return "", fmt.Errorf("need at least 2 grades to draw a distribution, got %d", len(grades))
	}

	mu, sigma := normalFit(grades)
	if sigma == 0 {
		return "", fmt.Errorf("zero variance grade series for subject %q", subject)
	}

	xs := grid(grades, sigma)

	density := make([]float64, len(xs))
	bandwidth := silvermanBandwidth(grades, sigma)
	for i, x := range xs {
		density[i] = kernelDensity(grades, x, bandwidth)
	}

	fitted := make([]float64, len(xs))
	for i, x := range xs {
		fitted[i] = normalPDF(x, mu, sigma)
	}

	peak := 0.0
	for i := range xs {
		peak = math.Max(peak, math.Max(density[i], fitted[i]))
	}

	classColor := drawing.ColorFromHex("87ceeb") // sky blue
	markColor := drawing.ColorRed

	graph := chart.Chart{
		Title:  fmt.Sprintf("Grade Distribution - %s", subject),
		Width:  1000,
		Height: 600,
		XAxis:  chart.XAxis{Name: "Grade"},
		YAxis:  chart.YAxis{Name: "Density"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Class density",
				XValues: xs,
				YValues: density,
				Style: chart.Style{
					StrokeColor: classColor,
					StrokeWidth: 2,
					FillColor:   classColor.WithAlpha(100),
				},
			},
			chart.ContinuousSeries{
				Name:    "Normal fit",
				XValues: xs,
				YValues: fitted,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlack,
					StrokeWidth: 2,
				},
			},
			chart.ContinuousSeries{
				Name:    fmt.Sprintf("Your Grade: %g", target),
				XValues: []float64{target, target},
				YValues: []float64{0, peak},
				Style: chart.Style{
					StrokeColor:     markColor,
					StrokeWidth:     2,
					StrokeDashArray: []float64{5, 5},
				},
			},
			chart.ContinuousSeries{
				XValues: []float64{target},
				YValues: []float64{normalPDF(target, mu, sigma)},
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotColor:    markColor,
					DotWidth:    6,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	path := filepath.Join(r.outputDir, FileName(studentID, subject))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	r.logger.Info("chart rendered",
		slog.String("student_id", studentID),
		slog.String("subject", subject),
		slog.String("path", path))

	return path, nil
}

// normalFit returns the maximum-likelihood normal parameters for the
// series (population standard deviation).
func normalFit(values []float64) (mu, sigma float64) {
	n := float64(len(values))
	for _, v := range values {
		mu += v
	}
	mu /= n

	for _, v := range values {
		d := v - mu
		sigma += d * d
	}
	sigma = math.Sqrt(sigma / n)
	return mu, sigma
}

// normalPDF evaluates the normal density at x
func normalPDF(x, mu, sigma float64) float64 {
	d := (x - mu) / sigma
	return math.Exp(-0.5*d*d) / (sigma * math.Sqrt(2*math.Pi))
}

// silvermanBandwidth is Silverman's rule-of-thumb KDE bandwidth
func silvermanBandwidth(values []float64, sigma float64) float64 {
	return 1.06 * sigma * math.Pow(float64(len(values)), -0.2)
}

// kernelDensity evaluates a Gaussian kernel density estimate at x
func kernelDensity(values []float64, x, bandwidth float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := (x - v) / bandwidth
		sum += math.Exp(-0.5 * d * d)
	}
	return sum / (float64(len(values)) * bandwidth * math.Sqrt(2*math.Pi))
}

// grid builds the evaluation grid, padded by one standard deviation on
// either side of the observed range.
func grid(values []float64, sigma float64) []float64 {
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	lo -= sigma
	hi += sigma

	xs := make([]float64, gridPoints)
	step := (hi - lo) / float64(gridPoints-1)
	for i := range xs {
		xs[i] = lo + float64(i)*step
	}
	return xs
}
