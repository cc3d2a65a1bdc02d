package stats

import (
	"fmt"
	"io"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// JournalHeaders are the columns of the journal table.
var JournalHeaders = []string{"Time", "Theme", "Typing", "Conf", "Sentiment", "Load", "Keys", "Err%"}

// JournalRows formats history entries as table cells, newest first.
func JournalRows(history []model.AnalysisResult) [][]string {
	rows := make([][]string, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		r := history[i]
		conf := "-"
		if r.TypingConfidence != nil {
			conf = fmt.Sprintf("%d%%", *r.TypingConfidence)
		}
		rows = append(rows, []string{
			r.Timestamp,
			r.Theme,
			string(r.TypingPattern),
			conf,
			r.Sentiment,
			fmt.Sprintf("%d", r.CognitiveLoad),
			fmt.Sprintf("%d", r.Stats.Keys),
			fmt.Sprintf("%.1f", r.Stats.ErrorRatio*100),
		})
	}
	return rows
}

// RenderJournal prints the journal table.
func RenderJournal(w io.Writer, history []model.AnalysisResult) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No analyses recorded.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Session Journal"); err != nil {
		return err
	}
	cols := make([]column, len(JournalHeaders))
	for i, h := range JournalHeaders {
		cols[i] = column{title: h, right: i == 3 || i >= 5}
	}
	if err := writeTable(w, cols, JournalRows(history)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// JournalLine formats one entry the way exports list it.
func JournalLine(r model.AnalysisResult) string {
	return fmt.Sprintf("- %s | Theme: %s | Typing: %s | Sentiment: %s | Cognitive Load: %d/100",
		r.Timestamp, r.Theme, r.TypingPattern, r.Sentiment, r.CognitiveLoad)
}

// HotspotLine formats one hotspot for the sleep plan request.
func HotspotLine(h model.Hotspot) string {
	return fmt.Sprintf("- Theme: '%s' (mentioned %d times) with an average cognitive load of %d/100.",
		h.Theme, h.Count, h.AvgLoad)
}
