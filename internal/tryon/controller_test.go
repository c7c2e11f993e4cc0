package tryon

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

const (
	testPoll = 2 * time.Second
	testTick = time.Second
	waitFor  = 2 * time.Second
	waitStep = 5 * time.Millisecond
)

type fakeTicker struct {
	d       time.Duration
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeClock) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{d: d, ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeClock) latest(d time.Duration) *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.tickers) - 1; i >= 0; i-- {
		if f.tickers[i].d == d {
			return f.tickers[i]
		}
	}
	return nil
}

func (f *fakeClock) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *fakeClock) allStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickers {
		if !t.stopped.Load() {
			return false
		}
	}
	return true
}

// fire delivers one tick; it blocks until the task goroutine receives it.
func fire(t *testing.T, tk *fakeTicker) {
	t.Helper()
	select {
	case tk.ch <- time.Now():
	case <-time.After(waitFor):
		t.Fatalf("ticker %s was not drained", tk.d)
	}
}

type statusReply struct {
	job *domain.TryOnJob
	err error
}

type fakeJobs struct {
	mu          sync.Mutex
	submitJobs  []*domain.TryOnJob
	submitErr   error
	submitCalls int
	replies     map[string]chan statusReply
	statusCalls map[string]int
	served      map[string]int
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{
		replies:     map[string]chan statusReply{},
		statusCalls: map[string]int{},
		served:      map[string]int{},
	}
}

func (f *fakeJobs) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.TryOnJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	job := f.submitJobs[0]
	f.submitJobs = f.submitJobs[1:]
	return job, nil
}

func (f *fakeJobs) reply(jobID string) chan statusReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.replies[jobID]
	if !ok {
		ch = make(chan statusReply, 8)
		f.replies[jobID] = ch
	}
	return ch
}

// JobStatus waits for a scripted reply and deliberately ignores ctx so stale
// responses can be delivered after a job was superseded.
func (f *fakeJobs) JobStatus(ctx context.Context, jobID string) (*domain.TryOnJob, error) {
	f.mu.Lock()
	f.statusCalls[jobID]++
	f.mu.Unlock()
	r := <-f.reply(jobID)
	f.mu.Lock()
	f.served[jobID]++
	f.mu.Unlock()
	return r.job, r.err
}

func (f *fakeJobs) calls(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[jobID]
}

func (f *fakeJobs) answered(jobID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.served[jobID]
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) add(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) OnJobSubmitted(ev Event) { r.add(ev) }
func (r *recorder) OnJobSucceeded(ev Event) { r.add(ev) }
func (r *recorder) OnJobFailed(ev Event)    { r.add(ev) }

func (r *recorder) kinds() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func snapshot(id string, state domain.JobState) *domain.TryOnJob {
	return &domain.TryOnJob{ID: id, State: state, CreatedAt: time.Now()}
}

func pollFailures(c *Controller) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

func validRequest() domain.SubmitRequest {
	return domain.SubmitRequest{
		UserImage: &domain.ImageFile{Name: "me.jpg", MIME: "image/jpeg", Data: []byte{1, 2, 3}},
		Product:   domain.ProductSource{ProductID: "p1"},
	}
}

func newTestController(t *testing.T, jobs *fakeJobs, opts Options) (*Controller, *fakeClock, *recorder) {
	t.Helper()
	clock := &fakeClock{}
	rec := &recorder{}
	opts.PollInterval = testPoll
	opts.TickInterval = testTick
	opts.NewTicker = clock.NewTicker
	c := NewController(jobs, rec, zerolog.New(io.Discard), opts)
	t.Cleanup(func() {
		for _, ch := range jobs.replies {
			close(ch)
		}
	})
	return c, clock, rec
}

func TestSubmitValidationGateSkipsNetwork(t *testing.T) {
	jobs := newFakeJobs()
	c, clock, rec := newTestController(t, jobs, Options{})
	defer c.Close()

	img := &domain.ImageFile{Name: "x.jpg", MIME: "image/jpeg", Data: []byte{1}}
	cases := []domain.SubmitRequest{
		{Product: domain.ProductSource{ProductID: "p1"}},
		{UserImage: img},
		{UserImage: img, Product: domain.ProductSource{ProductID: "  "}},
	}
	for _, req := range cases {
		assert.False(t, c.CanSubmit(req))
		_, err := c.Submit(context.Background(), req)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	}
	assert.Equal(t, 0, jobs.submitCalls)
	assert.Equal(t, 0, clock.count())
	assert.Empty(t, rec.kinds())
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.False(t, c.Busy())
	assert.True(t, c.CanSubmit(validRequest()))
}

func TestSubmitFailureReturnsToIdle(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitErr = &domain.SubmissionError{Status: 500, Message: "backend exploded"}
	c, clock, rec := newTestController(t, jobs, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	var subErr *domain.SubmissionError
	require.ErrorAs(t, err, &subErr)

	view := c.View()
	assert.Equal(t, PhaseIdle, view.Phase)
	assert.Nil(t, view.Job)
	assert.Equal(t, 0, clock.count(), "no timers may start for a failed submission")
	require.Equal(t, []domain.EventKind{domain.EventSubmitFailed}, rec.kinds())
	assert.Equal(t, "backend exploded", rec.last().Message)
}

func TestSubmitWithoutJobFailsAndNotifies(t *testing.T) {
	for name, job := range map[string]*domain.TryOnJob{
		"nil job":  nil,
		"empty id": {},
	} {
		t.Run(name, func(t *testing.T) {
			jobs := newFakeJobs()
			jobs.submitJobs = []*domain.TryOnJob{job}
			c, clock, rec := newTestController(t, jobs, Options{})
			defer c.Close()

			got, err := c.Submit(context.Background(), validRequest())
			assert.Nil(t, got)
			var subErr *domain.SubmissionError
			require.ErrorAs(t, err, &subErr)

			assert.Equal(t, PhaseIdle, c.Phase())
			assert.Equal(t, 0, clock.count())
			require.Equal(t, []domain.EventKind{domain.EventSubmitFailed}, rec.kinds())
			assert.Equal(t, subErr.UserMessage(), rec.last().Message)
			assert.Equal(t, "p1", rec.last().ProductID)
		})
	}
}

func TestFailedJobWithoutMessageUsesDefault(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Queued{})}
	c, clock, rec := newTestController(t, jobs, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	jobs.reply("j1") <- statusReply{job: snapshot("j1", domain.Failed{Message: "  "})}
	fire(t, clock.latest(testPoll))
	require.Eventually(t, func() bool { return len(rec.kinds()) == 2 }, waitFor, waitStep)

	assert.Equal(t, domain.EventJobFailed, rec.last().Kind)
	assert.Equal(t, domain.DefaultFailureMessage, rec.last().Message)
	assert.Equal(t, domain.DefaultFailureMessage, StatusMessage("en", c.Job()))
}

func TestPollingLifecycleToSuccess(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Queued{})}
	c, clock, rec := newTestController(t, jobs, Options{})
	defer c.Close()

	job, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, "j1", job.ID)
	assert.Equal(t, PhasePolling, c.Phase())
	assert.Equal(t, 0, c.ElapsedSeconds())

	poll, tick := clock.latest(testPoll), clock.latest(testTick)
	require.NotNil(t, poll)
	require.NotNil(t, tick)

	for i := 1; i <= 3; i++ {
		fire(t, tick)
		want := i
		require.Eventually(t, func() bool { return c.ElapsedSeconds() == want }, waitFor, waitStep)
	}

	jobs.reply("j1") <- statusReply{job: snapshot("j1", domain.Running{EstimateSeconds: 60})}
	fire(t, poll)
	require.Eventually(t, func() bool {
		j := c.Job()
		return j != nil && j.Status() == domain.JobStatusRunning
	}, waitFor, waitStep)

	jobs.reply("j1") <- statusReply{job: snapshot("j1", domain.Succeeded{ResultURL: "https://cdn.example.com/out.jpg"})}
	fire(t, poll)
	require.Eventually(t, func() bool { return c.Phase() == PhaseSucceeded }, waitFor, waitStep)
	require.Eventually(t, clock.allStopped, waitFor, waitStep)

	view := c.View()
	assert.Equal(t, 3, view.ElapsedSeconds, "elapsed time freezes once polling stops")
	assert.Equal(t, float64(100), view.Progress)
	assert.Equal(t, []domain.EventKind{domain.EventJobSubmitted, domain.EventJobSucceeded}, rec.kinds())
	assert.Equal(t, 3, rec.last().ElapsedSeconds)
	assert.Equal(t, "p1", rec.last().ProductID)
	assert.Equal(t, 2, jobs.calls("j1"), "no polls after a terminal status")
}

func TestTerminalEventEmittedOnce(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Queued{})}
	c, clock, rec := newTestController(t, jobs, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	jobs.reply("j1") <- statusReply{job: snapshot("j1", domain.Failed{Message: "garment not detected"})}
	fire(t, clock.latest(testPoll))
	require.Eventually(t, func() bool { return c.Phase() == PhaseFailed }, waitFor, waitStep)

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.apply(gen, "j1", pollResult{job: snapshot("j1", domain.Failed{Message: "garment not detected"})})

	assert.Equal(t, []domain.EventKind{domain.EventJobSubmitted, domain.EventJobFailed}, rec.kinds())
	assert.Equal(t, "garment not detected", rec.last().Message)
}

func TestTransientPollErrorKeepsPolling(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Queued{})}
	c, clock, rec := newTestController(t, jobs, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	poll := clock.latest(testPoll)

	jobs.reply("j1") <- statusReply{err: errors.New("connection reset")}
	fire(t, poll)
	require.Eventually(t, func() bool { return pollFailures(c) == 1 }, waitFor, waitStep)

	jobs.reply("j1") <- statusReply{job: snapshot("j1", domain.Running{})}
	fire(t, poll)
	require.Eventually(t, func() bool {
		j := c.Job()
		return j != nil && j.Status() == domain.JobStatusRunning
	}, waitFor, waitStep)

	assert.Equal(t, PhasePolling, c.Phase())
	assert.Equal(t, []domain.EventKind{domain.EventJobSubmitted}, rec.kinds())
	assert.False(t, poll.stopped.Load())
}

func TestPollFailureLimitFailsLocally(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Running{})}
	c, clock, rec := newTestController(t, jobs, Options{PollFailureLimit: 2})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	poll := clock.latest(testPoll)

	for i := 1; i <= 2; i++ {
		jobs.reply("j1") <- statusReply{err: errors.New("timeout")}
		fire(t, poll)
		if i < 2 {
			require.Eventually(t, func() bool { return pollFailures(c) == 1 }, waitFor, waitStep)
		}
	}
	require.Eventually(t, func() bool { return c.Phase() == PhaseFailed }, waitFor, waitStep)
	require.Eventually(t, clock.allStopped, waitFor, waitStep)

	msg, ok := c.Job().ErrorMessage()
	require.True(t, ok)
	assert.Contains(t, msg, "2 attempts")
	assert.NotNil(t, c.Job().CompletedAt)
	assert.Equal(t, domain.EventJobFailed, rec.last().Kind)
}

func TestPollsAreSerializedPerJob(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Queued{})}
	c, clock, _ := newTestController(t, jobs, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	poll := clock.latest(testPoll)

	fire(t, poll)
	require.Eventually(t, func() bool { return jobs.calls("j1") == 1 }, waitFor, waitStep)
	fire(t, poll)
	fire(t, poll)

	jobs.reply("j1") <- statusReply{job: snapshot("j1", domain.Succeeded{ResultURL: "/r.jpg"})}
	require.Eventually(t, func() bool { return c.Phase() == PhaseSucceeded }, waitFor, waitStep)
	assert.Equal(t, 1, jobs.calls("j1"), "ticks must be skipped while a poll is in flight")
}

func TestResubmitReplacesJobAndDiscardsStaleResponse(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{
		snapshot("A", domain.Queued{}),
		snapshot("B", domain.Queued{}),
	}
	c, clock, rec := newTestController(t, jobs, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	pollA, tickA := clock.latest(testPoll), clock.latest(testTick)
	fire(t, tickA)
	fire(t, pollA)
	require.Eventually(t, func() bool { return jobs.calls("A") == 1 }, waitFor, waitStep)

	_, err = c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return pollA.stopped.Load() && tickA.stopped.Load() }, waitFor, waitStep)

	// A's status request resolves only after B replaced it.
	jobs.reply("A") <- statusReply{job: snapshot("A", domain.Succeeded{ResultURL: "/a.jpg"})}
	require.Eventually(t, func() bool { return jobs.answered("A") == 1 }, waitFor, waitStep)

	jobs.reply("B") <- statusReply{job: snapshot("B", domain.Running{})}
	fire(t, clock.latest(testPoll))
	require.Eventually(t, func() bool { return jobs.answered("B") == 1 }, waitFor, waitStep)
	require.Eventually(t, func() bool {
		job := c.Job()
		return job != nil && job.Status() == domain.JobStatusRunning
	}, waitFor, waitStep)

	view := c.View()
	require.NotNil(t, view.Job)
	assert.Equal(t, "B", view.Job.ID)
	assert.Equal(t, PhasePolling, view.Phase)
	assert.Equal(t, 0, view.ElapsedSeconds)
	_, ok := view.Job.ResultURL()
	assert.False(t, ok, "A's result must never be installed")
	assert.Equal(t, 1, jobs.calls("A"))
	assert.Equal(t, []domain.EventKind{domain.EventJobSubmitted, domain.EventJobSubmitted}, rec.kinds())
}

func TestResetClearsStateAndTimers(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Running{})}
	c, clock, _ := newTestController(t, jobs, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	fire(t, clock.latest(testTick))
	require.Eventually(t, func() bool { return c.ElapsedSeconds() == 1 }, waitFor, waitStep)

	jobs.reply("j1") <- statusReply{job: snapshot("j1", domain.Failed{})}
	fire(t, clock.latest(testPoll))
	require.Eventually(t, func() bool { return c.Phase() == PhaseFailed }, waitFor, waitStep)

	msg, _ := c.Job().ErrorMessage()
	assert.Equal(t, domain.DefaultFailureMessage, msg)

	c.Reset()
	view := c.View()
	assert.Equal(t, PhaseIdle, view.Phase)
	assert.Nil(t, view.Job)
	assert.Equal(t, 0, view.ElapsedSeconds)
	assert.Equal(t, float64(0), view.Progress)
	require.Eventually(t, clock.allStopped, waitFor, waitStep)
}

func TestResetWhilePollingCancelsTimers(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Queued{})}
	c, clock, rec := newTestController(t, jobs, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	c.Reset()
	require.Eventually(t, clock.allStopped, waitFor, waitStep)
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, []domain.EventKind{domain.EventJobSubmitted}, rec.kinds())
}

func TestSubmitReturningTerminalJobDoesNotPoll(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Succeeded{ResultURL: "/r.jpg"})}
	c, clock, rec := newTestController(t, jobs, Options{})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, c.Phase())
	assert.Equal(t, 0, clock.count())
	assert.Equal(t, []domain.EventKind{domain.EventJobSubmitted, domain.EventJobSucceeded}, rec.kinds())
}

func TestJobTimeoutFailsLocally(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Running{})}
	var now atomic.Int64
	now.Store(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano())
	c, clock, rec := newTestController(t, jobs, Options{
		JobTimeout: time.Minute,
		Now:        func() time.Time { return time.Unix(0, now.Load()) },
	})
	defer c.Close()

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	now.Add(int64(2 * time.Minute))
	fire(t, clock.latest(testPoll))

	require.Eventually(t, func() bool { return c.Phase() == PhaseFailed }, waitFor, waitStep)
	assert.Equal(t, 0, jobs.calls("j1"))
	assert.Equal(t, domain.EventJobFailed, rec.last().Kind)
}

func TestCloseStopsEverything(t *testing.T) {
	jobs := newFakeJobs()
	jobs.submitJobs = []*domain.TryOnJob{snapshot("j1", domain.Queued{})}
	c, clock, _ := newTestController(t, jobs, Options{})

	_, err := c.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	c.Close()
	assert.True(t, clock.allStopped())
	assert.True(t, c.Busy())
	assert.False(t, c.CanSubmit(validRequest()))

	_, err = c.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, domain.ErrClosed)
	c.Close()
}
