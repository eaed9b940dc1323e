package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentcore"

// Metrics holds all coordination metric instruments.
type Metrics struct {
	AgentsRegistered  metric.Int64Counter
	MessagesSent      metric.Int64Counter
	MessagesRead      metric.Int64Counter
	MessagesExpired   metric.Int64Counter
	ConflictsOpened   metric.Int64Counter
	ConflictsClosed   metric.Int64Counter
	AuditEntries      metric.Int64Counter
	AuditCost         metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.AgentsRegistered, err = meter.Int64Counter("agentcore.agents.registered",
		metric.WithDescription("Number of agents registered"))
	if err != nil {
		return nil, err
	}

	m.MessagesSent, err = meter.Int64Counter("agentcore.messages.sent",
		metric.WithDescription("Number of messages sent"))
	if err != nil {
		return nil, err
	}

	m.MessagesRead, err = meter.Int64Counter("agentcore.messages.read",
		metric.WithDescription("Number of messages marked read"))
	if err != nil {
		return nil, err
	}

	m.MessagesExpired, err = meter.Int64Counter("agentcore.messages.expired",
		metric.WithDescription("Number of pending messages failed by the expiry sweeper"))
	if err != nil {
		return nil, err
	}

	m.ConflictsOpened, err = meter.Int64Counter("agentcore.conflicts.opened",
		metric.WithDescription("Number of conflicts detected"))
	if err != nil {
		return nil, err
	}

	m.ConflictsClosed, err = meter.Int64Counter("agentcore.conflicts.closed",
		metric.WithDescription("Number of conflicts resolved or escalated"))
	if err != nil {
		return nil, err
	}

	m.AuditEntries, err = meter.Int64Counter("agentcore.audit.entries",
		metric.WithDescription("Number of audit entries appended"))
	if err != nil {
		return nil, err
	}

	m.AuditCost, err = meter.Float64Histogram("agentcore.audit.cost_usd",
		metric.WithDescription("Cost recorded per audit entry in USD"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
