package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC) }

func result(load int) model.AnalysisResult {
	return model.AnalysisResult{ID: fmt.Sprintf("id-%d", load), CognitiveLoad: load, TypingPattern: model.PatternStable}
}

func appendLoads(s *Session, loads ...int) (Trigger, bool) {
	var (
		tr Trigger
		ok bool
	)
	for _, l := range loads {
		if t, fired := s.Append(result(l)); fired {
			tr, ok = t, true
		}
	}
	return tr, ok
}

func TestIsShift(t *testing.T) {
	cases := []struct {
		a, b, c int
		want    bool
	}{
		{20, 40, 70, true},
		{1, 2, 66, true},
		{44, 45, 68, true},
		{45, 46, 70, false},
		{20, 40, 60, false},
		{20, 50, 75, false},
		{40, 40, 70, false},
		{30, 20, 70, false},
	}
	for _, tc := range cases {
		if got := IsShift(tc.a, tc.b, tc.c); got != tc.want {
			t.Fatalf("IsShift(%d,%d,%d) = %v, want %v", tc.a, tc.b, tc.c, got, tc.want)
		}
	}
}

func TestShiftFiresOnce(t *testing.T) {
	s := New(fixedNow)
	tr, ok := appendLoads(s, 20, 40, 70)
	if !ok {
		t.Fatalf("expected trigger")
	}
	if s.State() != ShiftPending {
		t.Fatalf("expected pending state, got %s", s.State())
	}
	if !s.CompleteInsight(tr.Generation, `"Try a slow breath."`) {
		t.Fatalf("expected insight to be published")
	}
	ins, ok := s.Insight()
	if !ok || ins.Suggestion != "Try a slow breath." || ins.Insight != InsightText {
		t.Fatalf("unexpected insight: %+v", ins)
	}

	s.Dismiss()
	if _, ok := appendLoads(s, 20, 40, 70); ok {
		t.Fatalf("detector fired twice in one session")
	}
	if s.State() != ShiftFired {
		t.Fatalf("expected fired state, got %s", s.State())
	}
}

func TestShiftPendingBlocksSecondTrigger(t *testing.T) {
	s := New(fixedNow)
	if _, ok := appendLoads(s, 20, 40, 70); !ok {
		t.Fatalf("expected trigger")
	}
	if _, ok := appendLoads(s, 20, 40, 70); ok {
		t.Fatalf("second trigger while pending")
	}
}

func TestResetReenablesDetector(t *testing.T) {
	s := New(fixedNow)
	tr, _ := appendLoads(s, 20, 40, 70)
	s.FailInsight(tr.Generation)

	s.Reset()
	if len(s.History()) != 0 {
		t.Fatalf("history not cleared")
	}
	if msgs := s.Messages(); len(msgs) != 1 || msgs[0].Text != Greeting {
		t.Fatalf("expected greeting only, got %+v", msgs)
	}
	if _, ok := s.Insight(); ok {
		t.Fatalf("insight survived reset")
	}
	if _, ok := appendLoads(s, 20, 40, 70); !ok {
		t.Fatalf("expected trigger after reset")
	}
}

func TestStaleSuggestionDiscarded(t *testing.T) {
	s := New(fixedNow)
	tr, _ := appendLoads(s, 20, 40, 70)
	s.Reset()
	if s.CompleteInsight(tr.Generation, "late answer") {
		t.Fatalf("stale suggestion accepted")
	}
	if _, ok := s.Insight(); ok {
		t.Fatalf("stale suggestion published")
	}
	if s.State() != ShiftIdle {
		t.Fatalf("expected idle after reset, got %s", s.State())
	}
}

func TestFailInsightUsesDefault(t *testing.T) {
	s := New(fixedNow)
	tr, _ := appendLoads(s, 10, 30, 80)
	s.FailInsight(tr.Generation)
	got, ok := s.Accept()
	if !ok || got != DefaultSuggestion {
		t.Fatalf("expected default suggestion, got %q", got)
	}
	if _, ok := s.Insight(); ok {
		t.Fatalf("accept should clear insight")
	}
}

func TestTriggerCarriesRecentMessages(t *testing.T) {
	s := New(fixedNow)
	s.AddMessage(model.AuthorUser, "one")
	s.AddMessage(model.AuthorBot, "two")
	s.AddMessage(model.AuthorUser, "three")
	tr, ok := appendLoads(s, 20, 40, 70)
	if !ok {
		t.Fatalf("expected trigger")
	}
	if got := FormatRecent(tr.Recent); got != "user: one\nbot: two\nuser: three" {
		t.Fatalf("unexpected recent text: %q", got)
	}
}

func TestCleanSuggestion(t *testing.T) {
	if got := CleanSuggestion(`  "What's on your mind?" `); got != "What's on your mind?" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}
