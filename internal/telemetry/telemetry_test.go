package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
)

func TestRingKeepsMostRecent(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Add(Entry{Level: "info", Message: fmt.Sprint(i)})
	}
	entries := r.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "2", entries[0].Message)
	assert.Equal(t, "4", entries[2].Message)
	assert.Equal(t, "INFO", entries[0].Level)

	r.Clear()
	assert.Empty(t, r.Entries())
}

func TestRingDefaultSize(t *testing.T) {
	r := NewRing(0)
	for i := 0; i < DefaultRingSize+10; i++ {
		r.Add(Entry{Message: "x"})
	}
	assert.Len(t, r.Entries(), DefaultRingSize)
}

func TestRingAsZerologWriter(t *testing.T) {
	r := NewRing(10)
	r.MinLevel = zerolog.WarnLevel
	logger := zerolog.New(r).With().Timestamp().Logger()

	logger.Info().Msg("ignored")
	logger.Warn().Str("job_id", "j1").Msg("slow poll")

	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "slow poll", entries[0].Message)
	assert.Equal(t, "j1", entries[0].Context["job_id"])
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestLogNotifierFields(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))
	n.OnJobSucceeded(tryon.Event{Kind: domain.EventJobSucceeded, JobID: "j1", ProductID: "p1", ElapsedSeconds: 42})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visualization_complete", line["action"])
	assert.Equal(t, "p1", line["product_id"])
	assert.Equal(t, "j1", line["job_id"])
	assert.Equal(t, float64(42), line["processing_time"])
}

type fakeAnalytics struct {
	mu    sync.Mutex
	calls []map[string]int
	days  []string
	err   error
}

func (f *fakeAnalytics) IncrementCounters(_ context.Context, day string, counters map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, counters)
	f.days = append(f.days, day)
	return f.err
}

func (f *fakeAnalytics) GetSummary(context.Context) (*domain.TryOnDaily, error) {
	return nil, domain.ErrNotFound
}

func TestAnalyticsNotifier(t *testing.T) {
	repo := &fakeAnalytics{}
	n := NewAnalyticsNotifier(repo, zerolog.New(io.Discard))
	at := time.Date(2025, 3, 4, 23, 30, 0, 0, time.UTC)

	n.OnJobSubmitted(tryon.Event{Kind: domain.EventJobSubmitted, At: at})
	n.OnJobSucceeded(tryon.Event{Kind: domain.EventJobSucceeded, ElapsedSeconds: 17, At: at})
	n.OnJobFailed(tryon.Event{Kind: domain.EventSubmitFailed, At: at})
	n.OnJobFailed(tryon.Event{Kind: domain.EventSessionTimedOut, At: at})
	n.Wait()

	require.Len(t, repo.calls, 3)
	assert.ElementsMatch(t, []string{"2025-03-04", "2025-03-04", "2025-03-04"}, repo.days)

	var processing int
	for _, c := range repo.calls {
		processing += c["processing_seconds"]
	}
	assert.Equal(t, 17, processing)
}

func TestAnalyticsNotifierLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	repo := &fakeAnalytics{err: errors.New("db down")}
	n := NewAnalyticsNotifier(repo, zerolog.New(&buf))
	n.OnJobSubmitted(tryon.Event{Kind: domain.EventJobSubmitted})
	n.Wait()
	assert.Contains(t, buf.String(), "db down")
}
