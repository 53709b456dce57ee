package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"investa/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	sourceService    = "investa"
	domainStreamName = "investa_events"
)

// EventEnvelope is the JSON wrapper every outbound event travels in
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// EventPublisher delivers committed events to in-process subscribers and,
// when a message bus is configured, to NATS
type EventPublisher struct {
	messages      MessagePublisher
	subjectMapper *EventSubjectMapper
	bus           *events.Bus
	onPublished   func(eventType string)
}

// NewEventPublisher creates an event publisher. A nil messages publisher keeps events in-process.
func NewEventPublisher(messages MessagePublisher, subjectMapper *EventSubjectMapper) *EventPublisher {
	return &EventPublisher{
		messages:      messages,
		subjectMapper: subjectMapper,
		bus:           events.NewBus(),
	}
}

// OnPublished registers a callback run after each successful bus publish
func (p *EventPublisher) OnPublished(fn func(eventType string)) {
	p.onPublished = fn
}

// RegisterLocalHandler subscribes an in-process handler to an event type
func (p *EventPublisher) RegisterLocalHandler(eventType events.EventType, handler events.Handler) {
	p.bus.Subscribe(eventType, handler)
	log.WithField("eventType", eventType).Info("Registered local event handler")
}

// Publish dispatches an event to local handlers, then sends it to the message bus
func (p *EventPublisher) Publish(event events.Event) error {
	ctx := context.Background()
	p.bus.Emit(ctx, event)

	if p.messages == nil {
		return nil
	}

	envelope, err := p.envelope(event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.messages.Publish(ctx, subject, envelope.EventID, data); err != nil {
		// no stream bound to the subject yet
		if strings.Contains(err.Error(), "no response from stream") {
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if p.onPublished != nil {
		p.onPublished(string(event.Type()))
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Published event to NATS")
	return nil
}

func (p *EventPublisher) envelope(event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}, nil
}

// EnsureDomainEventStream creates the JetStream stream covering every published subject
func EnsureDomainEventStream(client *NATSClient, subjectMapper *EventSubjectMapper) error {
	return client.EnsureStream(domainStreamName, subjectMapper.GetAllSubjects())
}
