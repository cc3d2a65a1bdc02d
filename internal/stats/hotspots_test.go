package stats

import (
	"testing"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

func entry(theme string, load int) model.AnalysisResult {
	return model.AnalysisResult{Theme: theme, CognitiveLoad: load}
}

func TestHotspotsExcludesFallbackThemes(t *testing.T) {
	history := []model.AnalysisResult{
		entry("General", 99),
		entry("Unknown", 98),
		entry("Work", 80),
		entry("Work", 71),
	}
	got := TopHotspots(history)
	if len(got) != 1 {
		t.Fatalf("expected 1 hotspot, got %+v", got)
	}
	if got[0] != (model.Hotspot{Theme: "Work", AvgLoad: 76, Count: 2}) {
		t.Fatalf("unexpected hotspot: %+v", got[0])
	}
}

func TestHotspotsTopFiveWithStableTies(t *testing.T) {
	history := []model.AnalysisResult{
		entry("A", 50),
		entry("B", 90),
		entry("C", 50),
		entry("D", 70),
		entry("E", 50),
		entry("F", 10),
		entry("G", 50),
	}
	got := TopHotspots(history)
	want := []string{"B", "D", "A", "C", "E"}
	if len(got) != len(want) {
		t.Fatalf("expected %d hotspots, got %d", len(want), len(got))
	}
	for i, theme := range want {
		if got[i].Theme != theme {
			t.Fatalf("position %d: expected %s, got %s (%+v)", i, theme, got[i].Theme, got)
		}
	}

	all := Hotspots(history, 0)
	if len(all) != 7 {
		t.Fatalf("expected uncapped list of 7, got %d", len(all))
	}
}

func TestHotspotsRoundsHalfUp(t *testing.T) {
	got := TopHotspots([]model.AnalysisResult{entry("Money", 40), entry("Money", 41)})
	if got[0].AvgLoad != 41 {
		t.Fatalf("expected 41, got %d", got[0].AvgLoad)
	}
}

func TestHeatLabel(t *testing.T) {
	cases := map[int]string{81: "high", 80: "elevated", 66: "elevated", 65: "moderate", 51: "moderate", 50: "low"}
	for load, want := range cases {
		if got := HeatLabel(load); got != want {
			t.Fatalf("HeatLabel(%d) = %s, want %s", load, got, want)
		}
	}
}
