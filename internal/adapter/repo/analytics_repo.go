package repo

import (
	"context"
	"fmt"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/sqlinline"
)

// Counter names accepted by IncrementCounters.
const (
	CounterSubmitted         = "submitted"
	CounterSucceeded         = "succeeded"
	CounterFailed            = "failed"
	CounterSubmitFailed      = "submit_failed"
	CounterProcessingSeconds = "processing_seconds"
)

// AnalyticsRepositoryPG implements AnalyticsRepository using PostgreSQL.
type AnalyticsRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(sql infra.SQLExecutor) *AnalyticsRepositoryPG {
	return &AnalyticsRepositoryPG{sql: sql}
}

// IncrementCounters upserts try-on counters for the provided day (YYYY-MM-DD).
func (r *AnalyticsRepositoryPG) IncrementCounters(ctx context.Context, day string, counters map[string]int) error {
	_, err := r.sql.Exec(ctx, sqlinline.QTryOnIncrement,
		day,
		counters[CounterSubmitted],
		counters[CounterSucceeded],
		counters[CounterFailed],
		counters[CounterSubmitFailed],
		counters[CounterProcessingSeconds],
	)
	if err != nil {
		return fmt.Errorf("repo: increment tryon counters: %w", err)
	}
	return nil
}

// GetSummary returns the most recent day of counters.
func (r *AnalyticsRepositoryPG) GetSummary(ctx context.Context) (*domain.TryOnDaily, error) {
	var summary domain.TryOnDaily
	err := r.sql.QueryRow(ctx, sqlinline.QTryOnSummary).Scan(
		&summary.Day,
		&summary.Submitted,
		&summary.Succeeded,
		&summary.Failed,
		&summary.SubmitFailed,
		&summary.ProcessingSeconds,
		&summary.CreatedAt,
		&summary.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: tryon summary: %w", err)
	}
	return &summary, nil
}

var _ domain.AnalyticsRepository = (*AnalyticsRepositoryPG)(nil)
