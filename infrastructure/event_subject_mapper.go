package infrastructure

import (
	"fmt"

	"investa/events"
)

const (
	SubjectRequestSubmitted     = "requests.submitted"
	SubjectRequestDecided       = "requests.decided"
	SubjectContractStateChanged = "contracts.state_changed"
	SubjectProfitAccrued        = "contracts.profit_accrued"
	SubjectContractEndingSoon   = "contracts.ending_soon"
)

// EventSubjectMapper maps domain events to NATS subjects and back
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject returns the subject an event is published on
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeRequestSubmitted:
		return SubjectRequestSubmitted
	case events.EventTypeRequestDecided:
		return SubjectRequestDecided
	case events.EventTypeContractStateChange:
		return SubjectContractStateChanged
	case events.EventTypeProfitAccrued:
		return SubjectProfitAccrued
	case events.EventTypeContractEndingSoon:
		return SubjectContractEndingSoon
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a subject back to its event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case SubjectRequestSubmitted:
		return events.EventTypeRequestSubmitted
	case SubjectRequestDecided:
		return events.EventTypeRequestDecided
	case SubjectContractStateChanged:
		return events.EventTypeContractStateChange
	case SubjectProfitAccrued:
		return events.EventTypeProfitAccrued
	case SubjectContractEndingSoon:
		return events.EventTypeContractEndingSoon
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns every subject this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectRequestSubmitted,
		SubjectRequestDecided,
		SubjectContractStateChanged,
		SubjectProfitAccrued,
		SubjectContractEndingSoon,
	}
}
