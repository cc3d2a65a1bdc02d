package journalui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

type memHistory []model.AnalysisResult

func (h memHistory) ListAnalyses(_ context.Context, last int) ([]model.AnalysisResult, error) {
	if last > 0 && last < len(h) {
		return h[len(h)-last:], nil
	}
	return h, nil
}

type failingHistory struct{}

func (failingHistory) ListAnalyses(context.Context, int) ([]model.AnalysisResult, error) {
	return nil, errors.New("database locked")
}

func sampleHistory() memHistory {
	return memHistory{
		{Timestamp: "22:01", Theme: "Work", Sentiment: "Anxious", TypingPattern: model.PatternStable, CognitiveLoad: 75},
		{Timestamp: "22:05", Theme: "Family", Sentiment: "Calm", TypingPattern: model.PatternStable, CognitiveLoad: 10},
		{Timestamp: "22:09", Theme: "Work", Sentiment: "Sad", TypingPattern: model.PatternFatigue, CognitiveLoad: 88},
	}
}

func TestJournalTabsRender(t *testing.T) {
	m := NewModel(sampleHistory(), Config{Window: 2})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	if !strings.Contains(m.View(), "Avg Load") {
		t.Fatalf("expected overview cards")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "22:09") {
		t.Fatalf("expected journal rows")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view := m.View()
	if !strings.Contains(view, "Work") || !strings.Contains(view, "Cognitive Hotspots") {
		t.Fatalf("expected hotspots tab, got %s", view)
	}
}

func TestJournalLastLimitsEntries(t *testing.T) {
	m := NewModel(sampleHistory(), Config{Last: 1})
	if len(m.report.History) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m.report.History))
	}
	if got := len(m.journal.Rows()); got != 1 {
		t.Fatalf("expected 1 table row, got %d", got)
	}
}

func TestJournalWindowKeys(t *testing.T) {
	m := NewModel(sampleHistory(), Config{})
	if m.cfg.Window != 3 {
		t.Fatalf("expected default window 3, got %d", m.cfg.Window)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	if m.cfg.Window != 1 {
		t.Fatalf("expected window clamped to 1, got %d", m.cfg.Window)
	}
}

func TestJournalLoadError(t *testing.T) {
	m := NewModel(failingHistory{}, Config{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if !strings.Contains(m.View(), "database locked") {
		t.Fatalf("expected error in footer")
	}
}
