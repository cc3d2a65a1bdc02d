package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Test Plot", []Series{
		{Name: "Load", Values: []float64{10, 40, 70, 40, 10}},
		{Name: "Avg", Values: []float64{10, 25, 40, 50, 40}},
	}, 12, 4)
	if err != nil {
		t.Fatalf("PlotSeries failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Plot") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Load: last=10 avg=34.0") {
		t.Fatalf("expected series note in output:\n%s", out)
	}
	if !strings.Contains(out, "Legend:") {
		t.Fatalf("expected legend in output")
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	expectedMin := 1 + 2 + 4 + 1
	if len(lines) < expectedMin {
		t.Fatalf("expected at least %d lines of output, got %d", expectedMin, len(lines))
	}
	if !strings.HasPrefix(lines[3], "100"+axisSeparator) {
		t.Fatalf("expected top axis label, got %q", lines[3])
	}
}

func TestPlotWidthFor(t *testing.T) {
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	if got := PlotWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected width %d, got %d", 80-axisWidth, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}

func TestValueToRowClamps(t *testing.T) {
	if got := valueToRow(150, 8); got != 0 {
		t.Fatalf("expected top row, got %d", got)
	}
	if got := valueToRow(-20, 8); got != 7 {
		t.Fatalf("expected bottom row, got %d", got)
	}
}
