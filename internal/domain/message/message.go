// Package message defines the Message domain entity and its status state machine.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teamspan/agentcore/internal/domain"
)

// Type classifies the intent of a message.
type Type string

const (
	TypeRequest      Type = "request"
	TypeResponse     Type = "response"
	TypeNotification Type = "notification"
	TypeAlert        Type = "alert"
	TypeCoordination Type = "coordination"
)

// Priority orders messages within an inbox.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Status tracks a message through the delivery state machine:
//
//	pending -> delivered -> read
//	pending -> failed
//
// delivered is an optional checkpoint; a consumer may go straight from
// pending to read. No backward transition is ever permitted, so a read
// receipt, once recorded, is permanent.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusRead || s == StatusFailed
}

// Message is a unit of communication from one agent to one agent or to
// all agents. An empty ToAgent means broadcast: the message is visible
// to every agent's inbox query but remains a single stored record.
type Message struct {
	ID        string          `json:"id"`
	FromAgent string          `json:"from_agent"`
	ToAgent   string          `json:"to_agent,omitempty"`
	Type      Type            `json:"message_type"`
	Content   json.RawMessage `json:"content,omitempty"`
	Priority  Priority        `json:"priority"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// Broadcast reports whether the message has no specific recipient.
func (m *Message) Broadcast() bool {
	return m.ToAgent == ""
}

// Expired reports whether the message's expiry has passed at the given
// instant. Expiry is always evaluated against a caller-supplied clock at
// read time, never precomputed into stored state.
func (m *Message) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && m.ExpiresAt.Before(now)
}

// SendRequest carries the fields needed to send a message.
// An empty ToAgent requests a broadcast.
type SendRequest struct {
	FromAgent string          `json:"from_agent"`
	ToAgent   string          `json:"to_agent,omitempty"`
	Type      Type            `json:"message_type"`
	Content   json.RawMessage `json:"content,omitempty"`
	Priority  Priority        `json:"priority,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// Validate checks send input and applies the medium-priority default.
func (r *SendRequest) Validate() error {
	if r.FromAgent == "" {
		return fmt.Errorf("%w: from_agent is required", domain.ErrValidation)
	}
	if !ValidType(r.Type) {
		return fmt.Errorf("%w: invalid message_type %q", domain.ErrValidation, r.Type)
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	if !ValidPriority(r.Priority) {
		return fmt.Errorf("%w: invalid priority %q", domain.ErrValidation, r.Priority)
	}
	return nil
}

// InboxQuery narrows an inbox listing. Zero values mean "no filter".
type InboxQuery struct {
	Status   Status
	Priority Priority
	Limit    int

	// IncludeExpired disables the read-time expiry filter. Intended for
	// diagnostics only; consumers must never act on expired requests.
	IncludeExpired bool
}

// Validate checks the optional filters.
func (q *InboxQuery) Validate() error {
	if q.Status != "" && !ValidStatus(q.Status) {
		return fmt.Errorf("%w: invalid status filter %q", domain.ErrValidation, q.Status)
	}
	if q.Priority != "" && !ValidPriority(q.Priority) {
		return fmt.Errorf("%w: invalid priority filter %q", domain.ErrValidation, q.Priority)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", domain.ErrValidation)
	}
	return nil
}

// ValidType reports whether t is a recognized message type.
func ValidType(t Type) bool {
	switch t {
	case TypeRequest, TypeResponse, TypeNotification, TypeAlert, TypeCoordination:
		return true
	}
	return false
}

// ValidPriority reports whether p is a recognized priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ValidStatus reports whether s is a recognized message status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}
