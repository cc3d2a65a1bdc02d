package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/verte-zerg/sleepsafe/internal/model"
	"github.com/verte-zerg/sleepsafe/internal/prompts"
	"github.com/verte-zerg/sleepsafe/internal/stats"
	"github.com/verte-zerg/sleepsafe/internal/store"
)

// SmartPrompts returns conversation starters for the current time of day,
// falling back to offline starters when the assistant fails. It returns nil
// while analysis is disabled.
func (e *Engine) SmartPrompts(ctx context.Context) []string {
	if !e.Settings().AnalysisEnabled() {
		return nil
	}
	tod := prompts.TimeOfDay(e.now())
	var last *model.AnalysisResult
	lastLoad := 0
	if r, ok := e.session.Last(); ok {
		last = &r
		lastLoad = r.CognitiveLoad
	}
	if e.assistant.Enabled() {
		out, err := e.assistant.SmartPrompts(ctx, tod, last)
		if err == nil && len(out) > 0 {
			return out
		}
		e.log.Warn("smart prompts failed", "err", err)
	}
	return e.picker.Pick(tod, prompts.Count, lastLoad)
}

// Summary generates a session summary over the transcript and stores it.
func (e *Engine) Summary(ctx context.Context) (string, error) {
	msgs := e.session.Messages()
	if countUser(msgs) < MinSummaryMessages {
		return "", ErrNotEnoughMessages
	}
	out, err := e.assistant.Summary(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}
	e.mu.Lock()
	e.summary = out
	e.mu.Unlock()
	e.saveNote(ctx, store.NoteSummary, out)
	return out, nil
}

// Plan generates the final analysis and sleep plan and stores it.
func (e *Engine) Plan(ctx context.Context) (string, error) {
	msgs := e.session.Messages()
	if countUser(msgs) == 0 {
		return "", ErrNotEnoughMessages
	}
	hotspots := stats.Hotspots(e.session.History(), 0)
	lines := make([]string, 0, len(hotspots))
	for _, h := range hotspots {
		lines = append(lines, stats.HotspotLine(h))
	}
	out, err := e.assistant.Plan(ctx, msgs, lines)
	if err != nil {
		return "", fmt.Errorf("plan: %w", err)
	}
	e.mu.Lock()
	e.plan = out
	e.mu.Unlock()
	e.saveNote(ctx, store.NotePlan, out)
	return out, nil
}

// Export collects everything a session export contains.
func (e *Engine) Export() stats.Export {
	e.mu.Lock()
	summary, plan := e.summary, e.plan
	e.mu.Unlock()
	return stats.Export{
		Date:     e.now(),
		Summary:  summary,
		Plan:     plan,
		Messages: e.session.Messages(),
		History:  e.session.History(),
	}
}

// Report aggregates the in-memory history for the journal views.
func (e *Engine) Report() stats.Report {
	return stats.NewReport(e.session.History())
}

func (e *Engine) loadNote(ctx context.Context, key string) string {
	v, err := e.store.Note(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			e.warn("load "+key, err)
		}
		return ""
	}
	return v
}

func (e *Engine) saveNote(ctx context.Context, key, value string) {
	if e.store == nil {
		return
	}
	if err := e.store.SetNote(ctx, key, value); err != nil {
		e.warn("save "+key, err)
	}
}

func countUser(msgs []model.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Author == model.AuthorUser {
			n++
		}
	}
	return n
}
