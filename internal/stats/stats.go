// Package stats contains statistics calculations and reporting over analysis history.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MinTrendEntries is the number of analyses needed before a trend is shown.
const MinTrendEntries = 2

// NotEnoughTrendData is shown instead of a trend for short histories.
const NotEnoughTrendData = "More data needed to show trends."

// Summary aggregates a history for display.
type Summary struct {
	Entries   int
	AvgLoad   float64
	PeakLoad  int
	LastLoad  int
	Patterns  map[model.Pattern]int
	Sentiment string
}

// LoadSeries extracts cognitive load values in chronological order.
func LoadSeries(history []model.AnalysisResult) []float64 {
	out := make([]float64, len(history))
	for i, r := range history {
		out[i] = float64(r.CognitiveLoad)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(min(i+1, window))
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline of values on a fixed [lo, hi] scale.
func Sparkline(values []float64, lo, hi float64) string {
	if len(values) == 0 {
		return ""
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (math.Max(lo, math.Min(hi, v)) - lo) / (hi - lo)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// LoadSparkline renders history load on the 0-100 scale.
func LoadSparkline(history []model.AnalysisResult) string {
	return Sparkline(LoadSeries(history), 0, 100)
}

// Summarize computes aggregate figures over a history.
func Summarize(history []model.AnalysisResult) Summary {
	s := Summary{Patterns: map[model.Pattern]int{}}
	if len(history) == 0 {
		return s
	}
	sentiments := map[string]int{}
	var order []string
	total := 0
	for _, r := range history {
		total += r.CognitiveLoad
		s.PeakLoad = max(s.PeakLoad, r.CognitiveLoad)
		s.Patterns[r.TypingPattern]++
		if sentiments[r.Sentiment] == 0 {
			order = append(order, r.Sentiment)
		}
		sentiments[r.Sentiment]++
	}
	s.Entries = len(history)
	s.AvgLoad = float64(total) / float64(len(history))
	s.LastLoad = history[len(history)-1].CognitiveLoad
	best := 0
	for _, name := range order {
		if sentiments[name] > best {
			best = sentiments[name]
			s.Sentiment = name
		}
	}
	return s
}

// RenderSummary prints a summary block for a history.
func RenderSummary(w io.Writer, history []model.AnalysisResult) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No analyses recorded.")
		return err
	}
	s := Summarize(history)
	lines := []string{
		"Summary",
		fmt.Sprintf("Entries: %d", s.Entries),
		fmt.Sprintf("Avg Load: %.1f/100", s.AvgLoad),
		fmt.Sprintf("Peak Load: %d/100", s.PeakLoad),
		fmt.Sprintf("Last Load: %d/100 (%s)", s.LastLoad, HeatLabel(s.LastLoad)),
		fmt.Sprintf("Patterns: stable %d, fatigue %d, emotion %d",
			s.Patterns[model.PatternStable], s.Patterns[model.PatternFatigue], s.Patterns[model.PatternEmotion]),
		fmt.Sprintf("Most Frequent Sentiment: %s", s.Sentiment),
		fmt.Sprintf("Trend: %s", LoadSparkline(history)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrend plots cognitive load and its moving average sized to totalWidth.
func RenderTrend(w io.Writer, history []model.AnalysisResult, window, totalWidth, height int, useColor bool) error {
	if len(history) < MinTrendEntries {
		_, err := fmt.Fprintln(w, NotEnoughTrendData)
		return err
	}
	loads := LoadSeries(history)
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Cognitive Load Trend", []Series{
		{Name: "Load", Values: loads},
		{Name: fmt.Sprintf("Avg(%d)", window), Values: MovingAverage(loads, window)},
	}, width, height, useColor)
}
