package session

import (
	"sync"
	"time"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/domain"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
)

const maxToasts = 20

// Toast is a one-shot user notification.
type Toast struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	JobID   string    `json:"jobId,omitempty"`
	At      time.Time `json:"at"`
}

// Inbox turns lifecycle events into localized toasts until they are drained.
type Inbox struct {
	locale string

	mu     sync.Mutex
	toasts []Toast
}

// NewInbox returns an inbox rendering messages in locale.
func NewInbox(locale string) *Inbox {
	return &Inbox{locale: tryon.MatchLocale(locale)}
}

func (in *Inbox) OnJobSubmitted(ev tryon.Event) {
	in.push("success", tryon.Message(in.locale, tryon.MsgToastStarted), ev)
}

func (in *Inbox) OnJobSucceeded(ev tryon.Event) {
	in.push("success", tryon.Message(in.locale, tryon.MsgToastCompleted), ev)
}

func (in *Inbox) OnJobFailed(ev tryon.Event) {
	msg := tryon.Message(in.locale, tryon.MsgToastFailed)
	if ev.Kind == domain.EventSubmitFailed {
		msg = ev.Message
		if msg == "" {
			msg = tryon.Message(in.locale, tryon.MsgToastSubmitFailed)
		}
	}
	in.push("error", msg, ev)
}

// Drain returns pending toasts oldest first and empties the inbox.
func (in *Inbox) Drain() []Toast {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := in.toasts
	in.toasts = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

func (in *Inbox) push(level, msg string, ev tryon.Event) {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.toasts = append(in.toasts, Toast{Level: level, Message: msg, JobID: ev.JobID, At: at})
	if len(in.toasts) > maxToasts {
		in.toasts = in.toasts[len(in.toasts)-maxToasts:]
	}
}

var _ tryon.Notifier = (*Inbox)(nil)
