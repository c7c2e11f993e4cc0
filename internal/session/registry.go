// Package session holds per-visitor storefront state: a try-on controller,
// wishlist selections and pending notifications.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/wishlist"
)

const (
	DefaultTTL             = 30 * time.Minute
	DefaultJanitorInterval = time.Minute
)

// Session is one visitor's state. The controller is torn down when the
// session is deleted or expires.
type Session struct {
	ID         string
	Locale     string
	CreatedAt  time.Time
	Controller *tryon.Controller
	Wishlist   *wishlist.Store
	Inbox      *Inbox

	mu       sync.Mutex
	lastSeen time.Time
	inputs   domain.SubmitRequest
}

// RememberInputs keeps the images of the latest submission for the result
// bundle.
func (s *Session) RememberInputs(req domain.SubmitRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = req
}

// Inputs returns the images of the latest submission.
func (s *Session) Inputs() domain.SubmitRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Options configures a Registry.
type Options struct {
	TTL             time.Duration
	JanitorInterval time.Duration
	Controller      tryon.Options
	// Notifier receives every session's lifecycle events in addition to the
	// session inbox.
	Notifier tryon.Notifier
	// OnEvent receives session_started and session_timed_out events.
	OnEvent func(tryon.Event)
	Now     func() time.Time
}

// Registry owns all live sessions.
type Registry struct {
	jobs   tryon.JobService
	logger infra.Logger
	opts   Options

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewRegistry returns an empty registry backed by jobs.
func NewRegistry(jobs tryon.JobService, logger infra.Logger, opts Options) *Registry {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.JanitorInterval <= 0 {
		opts.JanitorInterval = DefaultJanitorInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		jobs:     jobs,
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session.
func (r *Registry) Create(locale string) (*Session, error) {
	now := r.opts.Now()
	inbox := NewInbox(locale)
	notifiers := tryon.Notifiers{inbox}
	if r.opts.Notifier != nil {
		notifiers = append(notifiers, r.opts.Notifier)
	}
	s := &Session{
		ID:        uuid.NewString(),
		Locale:    tryon.MatchLocale(locale),
		CreatedAt: now,
		Wishlist:  wishlist.NewStore(),
		Inbox:     inbox,
		lastSeen:  now,
	}
	s.Controller = tryon.NewController(r.jobs, notifiers, r.logger.With().Str("session_id", s.ID).Logger(), r.opts.Controller)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		s.Controller.Close()
		return nil, domain.ErrClosed
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.event(domain.EventSessionStarted, now)
	return s, nil
}

// Get returns a live session and marks it as active.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.touch(r.opts.Now())
	return s, nil
}

// Delete tears a session down.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.Controller.Close()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	now := r.opts.Now()
	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > r.opts.TTL {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Controller.Close()
		r.logger.Info().Str("session_id", s.ID).Msg("session: expired")
		r.event(domain.EventSessionTimedOut, now)
	}
	return len(expired)
}

// Run sweeps expired sessions until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.JanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close tears down every session. Later Create calls fail.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Close()
	}
}

func (r *Registry) event(kind domain.EventKind, at time.Time) {
	if r.opts.OnEvent != nil {
		r.opts.OnEvent(tryon.Event{Kind: kind, At: at})
	}
}
