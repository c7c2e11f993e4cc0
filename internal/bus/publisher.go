// Package bus carries try-on lifecycle events over NATS.
package bus

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/tryon"
)

// DefaultSubject is used when no events subject is configured.
const DefaultSubject = "tryon.events"

// JSONPublisher is satisfied by *Client.
type JSONPublisher interface {
	PublishJSON(subject string, v any) error
}

// Publisher forwards lifecycle events to the bus. Publish failures are
// logged and never reach the controller.
type Publisher struct {
	pub     JSONPublisher
	subject string
	logger  infra.Logger
}

// NewPublisher returns a notifier publishing on subject.
func NewPublisher(pub JSONPublisher, subject string, logger infra.Logger) *Publisher {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{pub: pub, subject: subject, logger: logger}
}

func (p *Publisher) OnJobSubmitted(ev tryon.Event) { p.publish(ev) }
func (p *Publisher) OnJobSucceeded(ev tryon.Event) { p.publish(ev) }
func (p *Publisher) OnJobFailed(ev tryon.Event)    { p.publish(ev) }

// Publish sends an arbitrary event, such as a session lifecycle event.
func (p *Publisher) Publish(ev tryon.Event) { p.publish(ev) }

func (p *Publisher) publish(ev tryon.Event) {
	if err := p.pub.PublishJSON(p.subject, ev); err != nil {
		p.logger.Error().Err(err).Str("subject", p.subject).Str("kind", string(ev.Kind)).Msg("bus: publish event")
	}
}

// DecodeEvent parses a message published by Publisher.
func DecodeEvent(data []byte) (tryon.Event, error) {
	var ev tryon.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return tryon.Event{}, fmt.Errorf("bus: decode event: %w", err)
	}
	if ev.Kind == "" {
		return tryon.Event{}, fmt.Errorf("bus: decode event: missing kind")
	}
	return ev, nil
}

var _ tryon.Notifier = (*Publisher)(nil)
