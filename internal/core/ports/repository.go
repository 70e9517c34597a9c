package ports

import (
	"context"

	"github.com/ewilliams-labs/encore/internal/core/domain"
)

// AnalysisRepository stores completed analyses.
type AnalysisRepository interface {
	Save(ctx context.Context, a domain.Analysis) error
	// GetByID returns domain.ErrNotFound when no analysis has the id.
	GetByID(ctx context.Context, id string) (domain.Analysis, error)
	// ListByPlaylist returns analyses newest first, without table rows.
	ListByPlaylist(ctx context.Context, playlistID string, limit int) ([]domain.Analysis, error)
}

// TableExporter persists the cleaned table for downstream consumers.
type TableExporter interface {
	Export(ctx context.Context, table domain.Table) (string, error)
}
