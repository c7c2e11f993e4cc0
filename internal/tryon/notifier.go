package tryon

import (
	"time"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
)

// Event describes one lifecycle transition of a try-on job.
type Event struct {
	Kind           domain.EventKind `json:"kind"`
	JobID          string           `json:"job_id,omitempty"`
	ProductID      string           `json:"product_id,omitempty"`
	ElapsedSeconds int              `json:"elapsed_seconds"`
	Message        string           `json:"message,omitempty"`
	At             time.Time        `json:"at"`
}

// Notifier receives lifecycle events for user-visible notifications and
// analytics. Calls are fire-and-forget and must not block for long.
type Notifier interface {
	OnJobSubmitted(ev Event)
	OnJobSucceeded(ev Event)
	OnJobFailed(ev Event)
}

// Notifiers fans every event out to each member in order.
type Notifiers []Notifier

func (ns Notifiers) OnJobSubmitted(ev Event) {
	for _, n := range ns {
		if n != nil {
			n.OnJobSubmitted(ev)
		}
	}
}

func (ns Notifiers) OnJobSucceeded(ev Event) {
	for _, n := range ns {
		if n != nil {
			n.OnJobSucceeded(ev)
		}
	}
}

func (ns Notifiers) OnJobFailed(ev Event) {
	for _, n := range ns {
		if n != nil {
			n.OnJobFailed(ev)
		}
	}
}

type nopNotifier struct{}

func (nopNotifier) OnJobSubmitted(Event) {}
func (nopNotifier) OnJobSucceeded(Event) {}
func (nopNotifier) OnJobFailed(Event)    {}

var _ Notifier = Notifiers(nil)
