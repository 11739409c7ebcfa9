package enums

import "fmt"

// OutboxEventType enumerates events emitted through the transactional outbox.
type OutboxEventType string

const (
	OutboxEventAmberAlertRaised OutboxEventType = "amber_alert.raised"
	OutboxEventPetFound         OutboxEventType = "pet.found"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventAmberAlertRaised,
	OutboxEventPetFound,
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// OutboxAggregateType names the aggregate an outbox event refers to.
type OutboxAggregateType string

const (
	OutboxAggregatePet OutboxAggregateType = "pet"
)

// ParseOutboxEventType converts raw strings into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
