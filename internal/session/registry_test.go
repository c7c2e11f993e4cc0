package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
)

type stubJobs struct {
	job *domain.TryOnJob
	err error
}

func (s stubJobs) Submit(context.Context, domain.SubmitRequest) (*domain.TryOnJob, error) {
	return s.job, s.err
}

func (s stubJobs) JobStatus(_ context.Context, id string) (*domain.TryOnJob, error) {
	return &domain.TryOnJob{ID: id, State: domain.Running{}}, nil
}

type eventLog struct {
	mu    sync.Mutex
	kinds []domain.EventKind
}

func (l *eventLog) add(ev tryon.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.kinds = append(l.kinds, ev.Kind)
}

func request() domain.SubmitRequest {
	return domain.SubmitRequest{
		UserImage: &domain.ImageFile{Name: "u.jpg", MIME: "image/jpeg", Data: []byte{1}},
		Product:   domain.ProductSource{ProductID: "p1"},
	}
}

func TestRegistryLifecycle(t *testing.T) {
	var events eventLog
	reg := NewRegistry(stubJobs{}, zerolog.Nop(), Options{OnEvent: events.add})
	defer reg.Close()

	s, err := reg.Create("id-ID")
	require.NoError(t, err)
	assert.Equal(t, "id", s.Locale)
	assert.NotEmpty(t, s.ID)

	got, err := reg.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, reg.Delete(s.ID))
	_, err = reg.Get(s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, reg.Delete(s.ID), domain.ErrNotFound)

	_, err = s.Controller.Submit(context.Background(), request())
	assert.ErrorIs(t, err, domain.ErrClosed, "deleting a session closes its controller")
	assert.Equal(t, []domain.EventKind{domain.EventSessionStarted}, events.kinds)
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	var now atomic.Int64
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now.Store(start.UnixNano())
	var events eventLog
	reg := NewRegistry(stubJobs{}, zerolog.Nop(), Options{
		TTL:     10 * time.Minute,
		OnEvent: events.add,
		Now:     func() time.Time { return time.Unix(0, now.Load()).UTC() },
	})
	defer reg.Close()

	idle, err := reg.Create("")
	require.NoError(t, err)
	active, err := reg.Create("")
	require.NoError(t, err)

	now.Add(int64(8 * time.Minute))
	_, err = reg.Get(active.ID)
	require.NoError(t, err)

	now.Add(int64(5 * time.Minute))
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Get(idle.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = reg.Get(active.ID)
	assert.NoError(t, err)
	assert.Contains(t, events.kinds, domain.EventSessionTimedOut)
}

func TestCloseRejectsNewSessions(t *testing.T) {
	reg := NewRegistry(stubJobs{}, zerolog.Nop(), Options{})
	_, err := reg.Create("en")
	require.NoError(t, err)
	reg.Close()
	assert.Equal(t, 0, reg.Len())
	_, err = reg.Create("en")
	assert.ErrorIs(t, err, domain.ErrClosed)
}

func TestInboxToasts(t *testing.T) {
	jobs := stubJobs{job: &domain.TryOnJob{ID: "j1", State: domain.Succeeded{ResultURL: "/r.jpg"}}}
	reg := NewRegistry(jobs, zerolog.Nop(), Options{})
	defer reg.Close()

	s, err := reg.Create("en")
	require.NoError(t, err)
	_, err = s.Controller.Submit(context.Background(), request())
	require.NoError(t, err)

	toasts := s.Inbox.Drain()
	require.Len(t, toasts, 2)
	assert.Equal(t, "Visualization started!", toasts[0].Message)
	assert.Equal(t, "Virtual try-on completed!", toasts[1].Message)
	assert.Empty(t, s.Inbox.Drain())
}

func TestInboxSubmissionFailureUsesBackendMessage(t *testing.T) {
	in := NewInbox("en")
	in.OnJobFailed(tryon.Event{Kind: domain.EventSubmitFailed, Message: "Product not found"})
	in.OnJobFailed(tryon.Event{Kind: domain.EventSubmitFailed})
	in.OnJobFailed(tryon.Event{Kind: domain.EventJobFailed, Message: "model error"})

	toasts := in.Drain()
	require.Len(t, toasts, 3)
	assert.Equal(t, "Product not found", toasts[0].Message)
	assert.Equal(t, "Failed to start visualization", toasts[1].Message)
	assert.Equal(t, "Virtual try-on failed. Please try again.", toasts[2].Message)
	assert.Equal(t, "error", toasts[2].Level)
}
