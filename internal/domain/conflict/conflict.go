// Package conflict defines the Conflict domain entity and its resolution lifecycle.
package conflict

import (
	"errors"
	"fmt"
	"time"

	"github.com/teamspan/agentcore/internal/domain"
)

// ErrAlreadyClosed indicates an attempt to resolve or escalate a conflict
// that already reached a terminal state. A conflict carries exactly one
// authoritative resolution; closed history is never overwritten.
var ErrAlreadyClosed = errors.New("conflict already closed")

// Type classifies the nature of a disagreement.
type Type string

const (
	TypePriority Type = "priority"
	TypeAction   Type = "action"
	TypeResource Type = "resource"
	TypeTimeline Type = "timeline"
	TypeEthical  Type = "ethical"
	TypeBusiness Type = "business"
)

// Severity grades how urgently a conflict needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Status tracks a conflict through its lifecycle:
//
//	detected -> resolved
//	detected -> resolving -> resolved
//	detected|resolving -> escalated
//
// resolved and escalated are terminal for this ledger; escalated disputes
// continue, if at all, outside it.
type Status string

const (
	StatusDetected  Status = "detected"
	StatusResolving Status = "resolving"
	StatusResolved  Status = "resolved"
	StatusEscalated Status = "escalated"
)

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusEscalated
}

// Conflict records a disagreement spanning two or more agents. Once
// resolved, no field is ever cleared; the resolution history is permanent.
type Conflict struct {
	ID          string     `json:"id"`
	Type        Type       `json:"conflict_type"`
	AgentIDs    []string   `json:"agent_ids"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	Status      Status     `json:"status"`
	Resolution  string     `json:"resolution,omitempty"`
	ResolvedBy  string     `json:"resolved_by_agent,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DetectRequest carries the fields needed to open a conflict.
type DetectRequest struct {
	Type        Type     `json:"conflict_type"`
	AgentIDs    []string `json:"agent_ids"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity,omitempty"`
}

// Validate checks detection input, deduplicates the party set, and
// applies the medium-severity default. A conflict needs at least two
// distinct agents; a single agent cannot disagree with itself.
func (r *DetectRequest) Validate() error {
	if !ValidType(r.Type) {
		return fmt.Errorf("%w: invalid conflict_type %q", domain.ErrValidation, r.Type)
	}

	seen := make(map[string]bool, len(r.AgentIDs))
	distinct := r.AgentIDs[:0]
	for _, id := range r.AgentIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		distinct = append(distinct, id)
	}
	r.AgentIDs = distinct
	if len(r.AgentIDs) < 2 {
		return fmt.Errorf("%w: at least two distinct agent_ids are required", domain.ErrValidation)
	}

	if r.Severity == "" {
		r.Severity = SeverityMedium
	}
	if !ValidSeverity(r.Severity) {
		return fmt.Errorf("%w: invalid severity %q", domain.ErrValidation, r.Severity)
	}
	return nil
}

// ValidType reports whether t is a recognized conflict type.
func ValidType(t Type) bool {
	switch t {
	case TypePriority, TypeAction, TypeResource, TypeTimeline, TypeEthical, TypeBusiness:
		return true
	}
	return false
}

// ValidSeverity reports whether s is a recognized severity.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}
