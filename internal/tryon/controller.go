package tryon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultTickInterval = time.Second
	DefaultPollTimeout  = 10 * time.Second
)

var errNoJob = errors.New("backend returned no job")

// JobService is the backend surface the controller depends on.
type JobService interface {
	Submit(ctx context.Context, req domain.SubmitRequest) (*domain.TryOnJob, error)
	JobStatus(ctx context.Context, jobID string) (*domain.TryOnJob, error)
}

// Phase is the controller state derived from the held snapshot.
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseSubmitting Phase = "SUBMITTING"
	PhasePolling    Phase = "POLLING"
	PhaseSucceeded  Phase = "SUCCEEDED"
	PhaseFailed     Phase = "FAILED"
)

// Options tunes polling. Zero values select the defaults; PollFailureLimit
// and JobTimeout of zero mean unbounded.
type Options struct {
	PollInterval time.Duration
	TickInterval time.Duration
	PollTimeout  time.Duration
	// PollFailureLimit fails the job locally after this many consecutive
	// transient poll errors.
	PollFailureLimit int
	// JobTimeout fails the job locally once it has been polled this long.
	JobTimeout time.Duration
	NewTicker  func(time.Duration) Ticker
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = DefaultPollTimeout
	}
	if o.NewTicker == nil {
		o.NewTicker = NewTimeTicker
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// View is a consistent read of the controller state.
type View struct {
	Phase          Phase
	Job            *domain.TryOnJob
	ElapsedSeconds int
	Progress       float64
}

// Controller owns the lifecycle of a single try-on request: submission,
// polling until a terminal status and reset. At most one job is held.
type Controller struct {
	jobs     JobService
	notifier Notifier
	logger   infra.Logger
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	current    *domain.TryOnJob
	productID  string
	elapsed    int
	generation uint64
	submitting bool
	task       *pollTask
	notified   string
	failures   int
	meter      ProgressMeter
	closed     bool
}

// NewController wires a controller. A nil notifier discards events.
func NewController(jobs JobService, notifier Notifier, logger infra.Logger, opts Options) *Controller {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		jobs:     jobs,
		notifier: notifier,
		logger:   logger,
		opts:     opts.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Busy reports whether a submission is waiting on the backend or the
// controller is closed. Either way Submit cannot be started now.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed || c.submitting
}

// CanSubmit reports whether Submit would accept req right now: req passes
// validation and the controller is not Busy.
func (c *Controller) CanSubmit(req domain.SubmitRequest) bool {
	return req.Validate() == nil && !c.Busy()
}

// Submit validates req, creates a job and starts polling it. Any job held
// before is dropped together with its timers. Validation failures never
// reach the network.
func (c *Controller) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.TryOnJob, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrClosed
	}
	c.stopTaskLocked()
	c.clearLocked()
	c.generation++
	gen := c.generation
	c.submitting = true
	c.mu.Unlock()

	job, err := c.jobs.Submit(ctx, req)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrClosed
	}
	if gen != c.generation {
		c.mu.Unlock()
		return nil, domain.ErrSuperseded
	}
	c.submitting = false
	productID := strings.TrimSpace(req.Product.ProductID)
	if err == nil && (job == nil || job.ID == "") {
		err = &domain.SubmissionError{Err: errNoJob}
	}
	if err != nil {
		c.mu.Unlock()
		subErr := asSubmissionError(err)
		c.logger.Warn().Err(err).Str("product_id", productID).Msg("tryon: submission failed")
		c.notifier.OnJobFailed(Event{
			Kind:      domain.EventSubmitFailed,
			ProductID: productID,
			Message:   subErr.UserMessage(),
			At:        c.opts.Now(),
		})
		return nil, subErr
	}
	if productID == "" {
		productID = job.SourceProductID
	}
	c.current = job
	c.productID = productID
	c.elapsed = 0
	c.mu.Unlock()

	c.logger.Info().Str("job_id", job.ID).Str("status", string(job.Status())).Msg("tryon: job submitted")
	c.notifier.OnJobSubmitted(Event{
		Kind:      domain.EventJobSubmitted,
		JobID:     job.ID,
		ProductID: productID,
		At:        c.opts.Now(),
	})

	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		return job, nil
	}
	if job.Terminal() {
		ev, emit := c.finishLocked(job)
		c.mu.Unlock()
		if emit {
			c.emit(ev)
		}
		return job, nil
	}
	c.startTaskLocked(gen, job.ID)
	c.mu.Unlock()
	return job, nil
}

// Reset drops the held job, clears elapsed time and cancels both timers.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTaskLocked()
	c.clearLocked()
	c.generation++
	c.submitting = false
}

// Close tears the controller down and waits for its goroutines to exit.
// It must not be called from a Notifier callback.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTaskLocked()
	c.generation++
	c.submitting = false
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// View returns the current phase, snapshot, elapsed seconds and progress.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Phase:          c.phaseLocked(),
		Job:            c.current,
		ElapsedSeconds: c.elapsed,
		Progress:       c.meter.Value(),
	}
	if v.Phase == PhaseSucceeded {
		v.Progress = 100
	}
	return v
}

// Phase returns the current controller phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

// Job returns the held snapshot, or nil when idle.
func (c *Controller) Job() *domain.TryOnJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ElapsedSeconds returns the time spent polling the current job.
func (c *Controller) ElapsedSeconds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

func (c *Controller) phaseLocked() Phase {
	if c.submitting {
		return PhaseSubmitting
	}
	if c.current == nil {
		return PhaseIdle
	}
	switch c.current.Status() {
	case domain.JobStatusSucceeded:
		return PhaseSucceeded
	case domain.JobStatusFailed:
		return PhaseFailed
	default:
		return PhasePolling
	}
}

func (c *Controller) clearLocked() {
	c.current = nil
	c.productID = ""
	c.elapsed = 0
	c.failures = 0
	c.meter.Reset()
}

func (c *Controller) stopTaskLocked() {
	if c.task == nil {
		return
	}
	c.task.Cancel()
	c.task = nil
}

func (c *Controller) startTaskLocked(gen uint64, jobID string) {
	ctx, cancel := context.WithCancel(c.ctx)
	task := newPollTask(jobID, cancel)
	c.task = task
	var deadline time.Time
	if c.opts.JobTimeout > 0 {
		deadline = c.opts.Now().Add(c.opts.JobTimeout)
	}
	poll := c.opts.NewTicker(c.opts.PollInterval)
	tick := c.opts.NewTicker(c.opts.TickInterval)
	c.wg.Add(1)
	go c.run(ctx, task, gen, jobID, deadline, poll, tick)
}

func (c *Controller) run(ctx context.Context, task *pollTask, gen uint64, jobID string, deadline time.Time, poll, tick Ticker) {
	defer c.wg.Done()
	defer close(task.done)
	defer poll.Stop()
	defer tick.Stop()

	results := make(chan pollResult, 1)
	inFlight := false
	var seq uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C():
			c.advanceElapsed(gen)
		case <-poll.C():
			if !deadline.IsZero() && c.opts.Now().After(deadline) {
				c.failLocally(gen, jobID, "Try-on timed out. Please try again.")
				return
			}
			if inFlight {
				c.logger.Debug().Str("job_id", jobID).Msg("tryon: previous poll still in flight, skipping tick")
				continue
			}
			inFlight = true
			seq++
			c.wg.Add(1)
			go c.fetch(ctx, jobID, seq, results)
		case res := <-results:
			inFlight = false
			if done := c.apply(gen, jobID, res); done {
				return
			}
		}
	}
}

func (c *Controller) fetch(ctx context.Context, jobID string, seq uint64, out chan<- pollResult) {
	defer c.wg.Done()
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.PollTimeout)
	defer cancel()
	job, err := c.jobs.JobStatus(reqCtx, jobID)
	out <- pollResult{seq: seq, job: job, err: err}
}

func (c *Controller) advanceElapsed(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.phaseLocked() != PhasePolling {
		return
	}
	c.elapsed++
	c.meter.Advance(*c.current, c.elapsed)
}

// apply installs a poll result. It reports whether the task should stop.
func (c *Controller) apply(gen uint64, jobID string, res pollResult) bool {
	c.mu.Lock()
	if gen != c.generation || c.current == nil || c.current.ID != jobID {
		c.mu.Unlock()
		c.logger.Debug().Str("job_id", jobID).Msg("tryon: discarding stale poll response")
		return true
	}
	if res.err != nil {
		c.failures++
		failures := c.failures
		limit := c.opts.PollFailureLimit
		c.mu.Unlock()
		perr := &domain.PollTransientError{JobID: jobID, Err: res.err}
		c.logger.Warn().Err(perr).Int("consecutive_failures", failures).Msg("tryon: status poll failed, retrying")
		if limit > 0 && failures >= limit {
			c.failLocally(gen, jobID, fmt.Sprintf("Lost contact with the try-on service after %d attempts.", failures))
			return true
		}
		return false
	}
	if res.job == nil || res.job.ID != jobID {
		c.mu.Unlock()
		c.logger.Warn().Str("job_id", jobID).Msg("tryon: poll returned a different job, ignoring")
		return false
	}
	c.failures = 0
	c.current = res.job
	if !res.job.Terminal() {
		c.mu.Unlock()
		return false
	}
	ev, emit := c.finishLocked(res.job)
	c.mu.Unlock()
	if emit {
		c.emit(ev)
	}
	return true
}

// failLocally replaces the held job with a synthesized FAILED snapshot.
func (c *Controller) failLocally(gen uint64, jobID, message string) {
	c.mu.Lock()
	if gen != c.generation || c.current == nil || c.current.ID != jobID || c.current.Terminal() {
		c.mu.Unlock()
		return
	}
	now := c.opts.Now()
	failed := *c.current
	failed.State = domain.Failed{Message: message}
	failed.CompletedAt = &now
	c.current = &failed
	ev, emit := c.finishLocked(&failed)
	c.mu.Unlock()
	if emit {
		c.emit(ev)
	}
}

// finishLocked stops the timers for a terminal snapshot and builds its event.
// The event is returned only the first time a job reaches a terminal state.
func (c *Controller) finishLocked(job *domain.TryOnJob) (Event, bool) {
	c.stopTaskLocked()
	if job.Status() == domain.JobStatusSucceeded {
		c.meter.Complete()
	}
	if c.notified == job.ID {
		return Event{}, false
	}
	c.notified = job.ID
	ev := Event{
		JobID:          job.ID,
		ProductID:      c.productID,
		ElapsedSeconds: c.elapsed,
		At:             c.opts.Now(),
	}
	switch state := job.State.(type) {
	case domain.Succeeded:
		ev.Kind = domain.EventJobSucceeded
		ev.Message = state.ResultURL
	case domain.Failed:
		ev.Kind = domain.EventJobFailed
		ev.Message, _ = job.ErrorMessage()
	}
	return ev, true
}

func (c *Controller) emit(ev Event) {
	switch ev.Kind {
	case domain.EventJobSucceeded:
		c.logger.Info().Str("job_id", ev.JobID).Int("elapsed_seconds", ev.ElapsedSeconds).Msg("tryon: job succeeded")
		c.notifier.OnJobSucceeded(ev)
	case domain.EventJobFailed:
		c.logger.Warn().Str("job_id", ev.JobID).Str("reason", ev.Message).Msg("tryon: job failed")
		c.notifier.OnJobFailed(ev)
	}
}

func asSubmissionError(err error) *domain.SubmissionError {
	var subErr *domain.SubmissionError
	if errors.As(err, &subErr) {
		return subErr
	}
	return &domain.SubmissionError{Err: err}
}
