package tryon

import (
	"context"
	"sync"
	"time"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

// Ticker is the subset of time.Ticker the controller relies on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }
func (t *timeTicker) Stop()               { t.t.Stop() }

// pollTask is the handle for the polling and elapsed timers of one job.
// Cancel may be called from any exit path any number of times.
type pollTask struct {
	jobID  string
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func newPollTask(jobID string, cancel context.CancelFunc) *pollTask {
	return &pollTask{jobID: jobID, cancel: cancel, done: make(chan struct{})}
}

// Cancel stops the task. The timers are released by the task goroutine.
func (t *pollTask) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
}

// Done is closed once the task goroutine has stopped both timers.
func (t *pollTask) Done() <-chan struct{} {
	return t.done
}

type pollResult struct {
	seq uint64
	job *domain.TryOnJob
	err error
}
