package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/teamspan/agentcore/internal/port/messagequeue"
)

// Event payloads published to the coordination stream. Consumers outside
// this process key on the subject; payloads carry identifiers only, never
// full records.

type agentStatusEvent struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
}

type messageEvent struct {
	MessageID string `json:"message_id"`
	FromAgent string `json:"from_agent"`
	ToAgent   string `json:"to_agent,omitempty"`
	Broadcast bool   `json:"broadcast"`
	Status    string `json:"status"`
}

type conflictEvent struct {
	ConflictID string   `json:"conflict_id"`
	AgentIDs   []string `json:"agent_ids"`
	Severity   string   `json:"severity"`
	Status     string   `json:"status"`
}

type sweepEvent struct {
	Failed  int64     `json:"failed"`
	SweptAt time.Time `json:"swept_at"`
}

// publish sends an event best-effort: a queue failure is logged and never
// fails the triggering operation. The store is the source of truth; the
// stream is advisory.
func publish(ctx context.Context, queue messagequeue.Queue, subject string, payload any) {
	if queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("event marshal failed", "subject", subject, "error", err)
		return
	}
	if err := queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("event publish failed", "subject", subject, "error", err)
	}
}
