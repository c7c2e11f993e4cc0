package domain

import "context"

// AnalyticsRepository updates try-on metrics counters.
type AnalyticsRepository interface {
	IncrementCounters(ctx context.Context, day string, counters map[string]int) error
	GetSummary(ctx context.Context) (*TryOnDaily, error)
}
