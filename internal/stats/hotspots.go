package stats

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// MaxHotspots is the number of hotspots shown in reports.
const MaxHotspots = 5

// Hotspots groups history by theme, skipping General and Unknown, and returns
// up to n themes by descending average load. Ties keep first-seen order.
// n <= 0 returns all themes.
func Hotspots(history []model.AnalysisResult, n int) []model.Hotspot {
	type acc struct {
		total int
		count int
	}
	sums := map[string]*acc{}
	var order []string
	for _, r := range history {
		if r.Theme == "" || r.Theme == model.ThemeGeneral || r.Theme == model.ThemeUnknown {
			continue
		}
		a, ok := sums[r.Theme]
		if !ok {
			a = &acc{}
			sums[r.Theme] = a
			order = append(order, r.Theme)
		}
		a.total += r.CognitiveLoad
		a.count++
	}
	out := make([]model.Hotspot, 0, len(order))
	for _, theme := range order {
		a := sums[theme]
		out = append(out, model.Hotspot{
			Theme:   theme,
			AvgLoad: int(math.Floor(float64(a.total)/float64(a.count) + 0.5)),
			Count:   a.count,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgLoad > out[j].AvgLoad
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TopHotspots returns at most MaxHotspots hotspots.
func TopHotspots(history []model.AnalysisResult) []model.Hotspot {
	return Hotspots(history, MaxHotspots)
}

// HeatLabel names the intensity band of an average load.
func HeatLabel(load int) string {
	switch {
	case load > 80:
		return "high"
	case load > 65:
		return "elevated"
	case load > 50:
		return "moderate"
	default:
		return "low"
	}
}

// RenderHotspots prints the hotspot table.
func RenderHotspots(w io.Writer, hotspots []model.Hotspot) error {
	if len(hotspots) == 0 {
		_, err := fmt.Fprintln(w, "No specific themes were detected.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Cognitive Hotspots"); err != nil {
		return err
	}
	cols := []column{{title: "Theme"}, {title: "Avg Load", right: true}, {title: "Mentions", right: true}, {title: "Level"}}
	rows := make([][]string, 0, len(hotspots))
	for _, h := range hotspots {
		rows = append(rows, []string{
			h.Theme,
			fmt.Sprintf("%d/100", h.AvgLoad),
			fmt.Sprintf("%d", h.Count),
			HeatLabel(h.AvgLoad),
		})
	}
	if err := writeTable(w, cols, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
