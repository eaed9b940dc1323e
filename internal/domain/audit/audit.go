// Package audit defines the append-only audit trail domain types.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teamspan/agentcore/internal/domain"
)

// Entry is an immutable record of who did what, to what, at what cost.
// The trail records that an action was attempted or performed, not a
// judgment of its correctness. Entries are write-once; no update or
// delete operation exists anywhere in the contract.
type Entry struct {
	ID           string          `json:"id"`
	Department   string          `json:"department,omitempty"`
	AgentID      string          `json:"agent,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	Cost         float64         `json:"cost"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LogRequest carries the fields for one audit entry. Department and
// agent are both optional; system-level actions omit the agent.
type LogRequest struct {
	Department   string          `json:"department,omitempty"`
	AgentID      string          `json:"agent,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Details      json.RawMessage `json:"details,omitempty"`
	Cost         float64         `json:"cost,omitempty"`
}

// Validate checks log input.
func (r *LogRequest) Validate() error {
	if r.Action == "" {
		return fmt.Errorf("%w: action is required", domain.ErrValidation)
	}
	if r.ResourceType == "" {
		return fmt.Errorf("%w: resource_type is required", domain.ErrValidation)
	}
	if r.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", domain.ErrValidation)
	}
	return nil
}

// QueryFilter narrows an audit listing. Zero values mean "no filter";
// filters are AND-combined. Start is inclusive, End exclusive.
type QueryFilter struct {
	Department   string
	AgentID      string
	ResourceType string
	ResourceID   string
	Action       string
	Start        *time.Time
	End          *time.Time
	Limit        int
}

// Validate checks the optional filters.
func (f *QueryFilter) Validate() error {
	if f.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", domain.ErrValidation)
	}
	if f.Start != nil && f.End != nil && !f.Start.Before(*f.End) {
		return fmt.Errorf("%w: start must be before end", domain.ErrValidation)
	}
	return nil
}

// CostFilter scopes a cost aggregation. The [Start, End) range is
// mandatory: half-open bounds make adjacent windows sum without double
// counting, and unbounded aggregation conflates unrelated billing periods.
type CostFilter struct {
	Department string
	AgentID    string
	Start      time.Time
	End        time.Time
}

// Validate enforces the bounded half-open range.
func (f *CostFilter) Validate() error {
	if f.Start.IsZero() || f.End.IsZero() {
		return fmt.Errorf("%w: start and end are required for cost aggregation", domain.ErrValidation)
	}
	if !f.Start.Before(f.End) {
		return fmt.Errorf("%w: start must be before end", domain.ErrValidation)
	}
	return nil
}
