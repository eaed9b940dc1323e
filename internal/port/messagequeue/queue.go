// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to
// coordination events.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Close shuts down the queue connection.
	Close() error
}

// Subject constants for coordination events.
const (
	SubjectMessageSent      = "coordination.messages.sent"
	SubjectMessageDelivered = "coordination.messages.delivered"
	SubjectMessageRead      = "coordination.messages.read"
	SubjectMessageFailed    = "coordination.messages.failed"
	SubjectMessageSwept     = "coordination.messages.swept"
	SubjectConflictDetected = "coordination.conflicts.detected"
	SubjectConflictResolved = "coordination.conflicts.resolved"
	SubjectConflictEscalate = "coordination.conflicts.escalated"
	SubjectAgentStatus      = "coordination.agents.status"

	// SubjectAllEvents matches every coordination event; the audit
	// recorder subscribes here.
	SubjectAllEvents = "coordination.>"
)
