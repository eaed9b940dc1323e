// Package agent defines the Agent domain entity and registration rules.
package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teamspan/agentcore/internal/domain"
)

// Type classifies how an agent produces work.
type Type string

const (
	TypeAutomated Type = "automated"
	TypeHuman     Type = "human"
	TypeHybrid    Type = "hybrid"
)

// Status represents the operational state of an agent.
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusError       Status = "error"
	StatusMaintenance Status = "maintenance"
)

// Agent represents a registered participant capable of sending and
// receiving messages and being party to conflicts. Agents are never
// hard-deleted; decommissioning is StatusInactive so that messages,
// conflicts, and audit entries keep valid references.
type Agent struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DepartmentID string          `json:"department_id,omitempty"`
	Type         Type            `json:"type"`
	Status       Status          `json:"status"`
	Capabilities []string        `json:"capabilities"`
	Config       json.RawMessage `json:"config,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// HasCapability reports whether the agent's capability set contains the tag.
func (a *Agent) HasCapability(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// RegisterRequest carries the fields needed to register a new agent.
type RegisterRequest struct {
	Name         string          `json:"name"`
	DepartmentID string          `json:"department_id,omitempty"`
	Type         Type            `json:"type"`
	Capabilities []string        `json:"capabilities,omitempty"`
	Config       json.RawMessage `json:"config,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// Validate checks registration input. Returns a domain.ErrValidation-wrapped
// error naming the offending field.
func (r *RegisterRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !ValidType(r.Type) {
		return fmt.Errorf("%w: invalid agent type %q", domain.ErrValidation, r.Type)
	}
	return nil
}

// ValidType reports whether t is a recognized agent type.
func ValidType(t Type) bool {
	switch t {
	case TypeAutomated, TypeHuman, TypeHybrid:
		return true
	}
	return false
}

// ValidStatus reports whether s is a recognized agent status.
// Any status is reachable from any other; operational failures and
// recoveries are externally triggered and not sequenced here.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusInactive, StatusError, StatusMaintenance:
		return true
	}
	return false
}
