package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/adapter/repo"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
)

const analyticsWriteTimeout = 5 * time.Second

// Counters maps an event onto tryon_daily counter increments. Events that
// do not affect the counters yield nil.
func Counters(ev tryon.Event) map[string]int {
	switch ev.Kind {
	case domain.EventJobSubmitted:
		return map[string]int{repo.CounterSubmitted: 1}
	case domain.EventJobSucceeded:
		return map[string]int{repo.CounterSucceeded: 1, repo.CounterProcessingSeconds: ev.ElapsedSeconds}
	case domain.EventJobFailed:
		return map[string]int{repo.CounterFailed: 1, repo.CounterProcessingSeconds: ev.ElapsedSeconds}
	case domain.EventSubmitFailed:
		return map[string]int{repo.CounterSubmitFailed: 1}
	default:
		return nil
	}
}

// Day returns the counter bucket for ev.
func Day(ev tryon.Event) string {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	return at.UTC().Format(time.DateOnly)
}

// Record applies ev to repo.
func Record(ctx context.Context, analytics domain.AnalyticsRepository, ev tryon.Event) error {
	counters := Counters(ev)
	if counters == nil {
		return nil
	}
	return analytics.IncrementCounters(ctx, Day(ev), counters)
}

// AnalyticsNotifier writes counters in the background so lifecycle callbacks
// never wait on the database.
type AnalyticsNotifier struct {
	repo   domain.AnalyticsRepository
	logger infra.Logger
	wg     sync.WaitGroup
}

// NewAnalyticsNotifier wires the notifier to analytics.
func NewAnalyticsNotifier(analytics domain.AnalyticsRepository, logger infra.Logger) *AnalyticsNotifier {
	return &AnalyticsNotifier{repo: analytics, logger: logger}
}

func (n *AnalyticsNotifier) OnJobSubmitted(ev tryon.Event) { n.record(ev) }
func (n *AnalyticsNotifier) OnJobSucceeded(ev tryon.Event) { n.record(ev) }
func (n *AnalyticsNotifier) OnJobFailed(ev tryon.Event)    { n.record(ev) }

// Wait blocks until pending writes have finished.
func (n *AnalyticsNotifier) Wait() { n.wg.Wait() }

func (n *AnalyticsNotifier) record(ev tryon.Event) {
	if n.repo == nil || Counters(ev) == nil {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), analyticsWriteTimeout)
		defer cancel()
		if err := Record(ctx, n.repo, ev); err != nil {
			n.logger.Error().Err(err).Str("kind", string(ev.Kind)).Msg("telemetry: record analytics")
		}
	}()
}

var _ tryon.Notifier = (*AnalyticsNotifier)(nil)
