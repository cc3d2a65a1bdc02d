package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{10, 20, 30, 40}, 2)
	want := []float64{10, 15, 25, 35}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSparklineFixedScale(t *testing.T) {
	if got := Sparkline([]float64{0, 100, 150, -5}, 0, 100); got != " @@ " {
		t.Fatalf("unexpected sparkline: %q", got)
	}
}

func TestSummarize(t *testing.T) {
	history := []model.AnalysisResult{
		{Sentiment: "Calm", TypingPattern: model.PatternStable, CognitiveLoad: 10},
		{Sentiment: "Anxious", TypingPattern: model.PatternFatigue, CognitiveLoad: 83},
		{Sentiment: "Anxious", TypingPattern: model.PatternFatigue, CognitiveLoad: 60},
	}
	s := Summarize(history)
	if s.Entries != 3 || s.PeakLoad != 83 || s.LastLoad != 60 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Patterns[model.PatternFatigue] != 2 || s.Sentiment != "Anxious" {
		t.Fatalf("unexpected breakdown: %+v", s)
	}
}

func TestRenderTrendNeedsTwoEntries(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTrend(&buf, []model.AnalysisResult{{CognitiveLoad: 40}}, 3, 80, 6, false); err != nil {
		t.Fatalf("render trend: %v", err)
	}
	if strings.TrimSpace(buf.String()) != NotEnoughTrendData {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderJournalNewestFirst(t *testing.T) {
	conf := 23
	history := []model.AnalysisResult{
		{Timestamp: "22:01", Theme: "Sleep", TypingPattern: model.PatternStable, Sentiment: "Calm", CognitiveLoad: 10},
		{Timestamp: "22:03", Theme: "Work", TypingPattern: model.PatternFatigue, TypingConfidence: &conf, Sentiment: "Anxious", CognitiveLoad: 83,
			Stats: model.TypingStats{Keys: 25, Backspaces: 6, ErrorRatio: 0.24}},
	}
	var buf bytes.Buffer
	if err := RenderJournal(&buf, history); err != nil {
		t.Fatalf("render journal: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[2], "22:03") || !strings.Contains(lines[2], "23%") || !strings.Contains(lines[2], "24.0") {
		t.Fatalf("unexpected first row: %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "22:01") {
		t.Fatalf("unexpected second row: %q", lines[3])
	}
}

func TestWriteExport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteExport(&buf, Export{
		Date: time.Date(2024, 3, 1, 23, 15, 0, 0, time.UTC),
		Messages: []model.Message{
			{Author: model.AuthorBot, Text: "Hello"},
			{Author: model.AuthorUser, Text: "I slept badly"},
		},
		History: []model.AnalysisResult{
			{Timestamp: "23:10", Theme: "Sleep", TypingPattern: model.PatternStable, Sentiment: "Sad", CognitiveLoad: 80},
		},
	})
	if err != nil {
		t.Fatalf("write export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Sleep Safe Session Export",
		"## Date: 2024-03-01 23:15:00",
		"## AI-Generated Session Summary\nNot generated yet.",
		"[BOT] Hello\n[USER] I slept badly",
		"- 23:10 | Theme: Sleep | Typing: stable | Sentiment: Sad | Cognitive Load: 80/100",
		"## Final Analysis & Sleep Plan\nNot generated yet.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("export missing %q:\n%s", want, out)
		}
	}
	if ExportFileName(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) != "sleepsafe-session-2024-03-01.txt" {
		t.Fatalf("unexpected export file name")
	}
}
