package storage

import (
	"context"

	"neurochord/internal/model"
)

// Store persists completed analysis runs so downstream tooling can replay,
// export or compare them.
type Store interface {
	Init(ctx context.Context) error
	SaveAnalysis(ctx context.Context, record model.AnalysisRecord) error
	GetAnalysis(ctx context.Context, runID string) (model.AnalysisRecord, bool, error)
	ListAnalyses(ctx context.Context) ([]model.AnalysisRecord, error)
	DeleteAnalysis(ctx context.Context, runID string) error
}
