// Package session holds the analysis history, transcript and cognitive shift state of one chat.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// Fixed texts shown to the user.
const (
	Greeting          = "Hello! To begin our session, could you tell me a little about how you slept last night?"
	InsightText       = "It appears the intensity of our conversation has increased recently."
	DefaultSuggestion = "Is there something specific on your mind?"
)

// RecentWindow is the number of messages sent to the suggestion generator.
const RecentWindow = 3

// ShiftState guards the one-shot insight.
type ShiftState int

// Shift states.
const (
	ShiftIdle ShiftState = iota
	ShiftPending
	ShiftFired
)

func (s ShiftState) String() string {
	switch s {
	case ShiftPending:
		return "pending"
	case ShiftFired:
		return "fired"
	default:
		return "idle"
	}
}

// Trigger is returned by Append when a cognitive shift is detected. The caller
// requests a suggestion and reports back with the same generation.
type Trigger struct {
	Generation uint64
	Recent     []model.Message
}

// Session is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	now      func() time.Time
	history  []model.AnalysisResult
	messages []model.Message
	insight  *model.CognitiveInsight
	state    ShiftState
	gen      uint64
}

// New starts a session with the greeting message. A nil clock uses time.Now.
func New(now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	s := &Session{now: now}
	s.messages = []model.Message{s.greeting()}
	return s
}

// Restore rebuilds a session from persisted history and transcript. The shift
// detector starts idle.
func Restore(now func() time.Time, history []model.AnalysisResult, messages []model.Message) *Session {
	s := New(now)
	if len(messages) > 0 {
		s.messages = append([]model.Message(nil), messages...)
	}
	s.history = append([]model.AnalysisResult(nil), history...)
	return s
}

func (s *Session) greeting() model.Message {
	return model.Message{Author: model.AuthorBot, Text: Greeting, SentAt: s.now()}
}

// AddMessage appends a transcript entry and returns it.
func (s *Session) AddMessage(author model.Author, text string) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := model.Message{Author: author, Text: text, SentAt: s.now()}
	s.messages = append(s.messages, msg)
	return msg
}

// Append adds an analysis result and runs the shift detector. It reports a
// trigger at most once until Reset.
func (s *Session) Append(r model.AnalysisResult) (Trigger, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, r)
	if s.state != ShiftIdle || s.insight != nil || len(s.history) < 3 {
		return Trigger{}, false
	}
	n := len(s.history)
	a, b, c := s.history[n-3], s.history[n-2], s.history[n-1]
	if !IsShift(a.CognitiveLoad, b.CognitiveLoad, c.CognitiveLoad) {
		return Trigger{}, false
	}
	s.state = ShiftPending
	return Trigger{Generation: s.gen, Recent: lastMessages(s.messages, RecentWindow)}, true
}

// IsShift reports a sharp sustained increase: calm start, c > 1.5*b, b > a, high end.
func IsShift(a, b, c int) bool {
	return a < 45 && b > a && 2*c > 3*b && c > 65
}

// CompleteInsight publishes the insight for a pending trigger. Responses for an
// older generation, or when nothing is pending, are discarded and false is returned.
func (s *Session) CompleteInsight(gen uint64, suggestion string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.state != ShiftPending {
		return false
	}
	suggestion = CleanSuggestion(suggestion)
	if suggestion == "" {
		suggestion = DefaultSuggestion
	}
	s.insight = &model.CognitiveInsight{Insight: InsightText, Suggestion: suggestion}
	s.state = ShiftFired
	return true
}

// FailInsight publishes the default suggestion for a pending trigger.
func (s *Session) FailInsight(gen uint64) bool {
	return s.CompleteInsight(gen, DefaultSuggestion)
}

// Insight returns the live insight, if any.
func (s *Session) Insight() (model.CognitiveInsight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insight == nil {
		return model.CognitiveInsight{}, false
	}
	return *s.insight, true
}

// Dismiss clears the live insight. The latch stays fired.
func (s *Session) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insight = nil
}

// Accept clears the live insight and returns its suggestion.
func (s *Session) Accept() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insight == nil {
		return "", false
	}
	suggestion := s.insight.Suggestion
	s.insight = nil
	return suggestion, true
}

// Reset clears history, transcript, insight and latch. Pending suggestion
// responses from before the reset are discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.messages = []model.Message{s.greeting()}
	s.insight = nil
	s.state = ShiftIdle
	s.gen++
}

// State returns the shift detector state.
func (s *Session) State() ShiftState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the reset counter.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// History returns a copy of the analysis history in chronological order.
func (s *Session) History() []model.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AnalysisResult(nil), s.history...)
}

// Last returns the most recent analysis result.
func (s *Session) Last() (model.AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return model.AnalysisResult{}, false
	}
	return s.history[len(s.history)-1], true
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages...)
}

// Recent returns up to n trailing transcript messages.
func (s *Session) Recent(n int) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lastMessages(s.messages, n)
}

func lastMessages(msgs []model.Message, n int) []model.Message {
	if n <= 0 {
		return nil
	}
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]model.Message(nil), msgs...)
}

// FormatRecent renders messages as "author: text" lines.
func FormatRecent(msgs []model.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, string(m.Author)+": "+m.Text)
	}
	return strings.Join(lines, "\n")
}

// CleanSuggestion strips double quotes and surrounding whitespace.
func CleanSuggestion(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '"', '“', '”':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
