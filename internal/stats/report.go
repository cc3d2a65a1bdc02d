package stats

import (
	"context"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// HistorySource lists persisted analysis history.
type HistorySource interface {
	ListAnalyses(ctx context.Context, last int) ([]model.AnalysisResult, error)
}

// Report contains precomputed data for journal rendering.
type Report struct {
	History     []model.AnalysisResult
	Hotspots    []model.Hotspot
	AllHotspots []model.Hotspot
	Summary     Summary
}

// BuildReport loads the newest last entries (all when last <= 0) and aggregates them.
func BuildReport(ctx context.Context, src HistorySource, last int) (Report, error) {
	history, err := src.ListAnalyses(ctx, last)
	if err != nil {
		return Report{}, err
	}
	return NewReport(history), nil
}

// NewReport aggregates an in-memory history.
func NewReport(history []model.AnalysisResult) Report {
	return Report{
		History:     history,
		Hotspots:    TopHotspots(history),
		AllHotspots: Hotspots(history, 0),
		Summary:     Summarize(history),
	}
}
