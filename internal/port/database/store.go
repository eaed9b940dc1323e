// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/teamspan/agentcore/internal/domain/agent"
	"github.com/teamspan/agentcore/internal/domain/audit"
	"github.com/teamspan/agentcore/internal/domain/conflict"
	"github.com/teamspan/agentcore/internal/domain/message"
)

// Store is the port interface for persistent coordination state.
//
// All mutating transition methods are compare-and-set on the record's
// current status: concurrent callers racing the same record converge on
// the forward-most state and never move a record backward.
type Store interface {
	// Agents
	CreateAgent(ctx context.Context, req agent.RegisterRequest) (*agent.Agent, error)
	GetAgent(ctx context.Context, id string) (*agent.Agent, error)
	ListAgentsByDepartment(ctx context.Context, departmentID string) ([]agent.Agent, error)
	ListAgentsByCapability(ctx context.Context, capability string) ([]agent.Agent, error)
	ListActiveAgents(ctx context.Context) ([]agent.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, status agent.Status) (*agent.Agent, error)

	// Messages
	CreateMessage(ctx context.Context, req message.SendRequest) (*message.Message, error)
	GetMessage(ctx context.Context, id string) (*message.Message, error)
	ListInbox(ctx context.Context, agentID string, q message.InboxQuery) ([]message.Message, error)
	// MarkMessageDelivered and MarkMessageRead return the current row even
	// when the CAS matched nothing, so retried acknowledgments succeed.
	MarkMessageDelivered(ctx context.Context, id string) (*message.Message, error)
	MarkMessageRead(ctx context.Context, id string) (*message.Message, error)
	MarkMessageFailed(ctx context.Context, id string) (*message.Message, error)
	CountUnread(ctx context.Context, agentID string) (int, error)
	// FailExpiredPending marks expired pending messages failed and returns
	// how many rows changed. Bookkeeping only; inbox filtering never
	// depends on it.
	FailExpiredPending(ctx context.Context, olderThan time.Time) (int64, error)

	// Conflicts
	CreateConflict(ctx context.Context, req conflict.DetectRequest) (*conflict.Conflict, error)
	GetConflict(ctx context.Context, id string) (*conflict.Conflict, error)
	ListActiveConflicts(ctx context.Context) ([]conflict.Conflict, error)
	ListConflictsForAgents(ctx context.Context, agentIDs []string) ([]conflict.Conflict, error)
	StartConflictResolution(ctx context.Context, id string) (*conflict.Conflict, error)
	ResolveConflict(ctx context.Context, id, resolution, resolvedBy string) (*conflict.Conflict, error)
	EscalateConflict(ctx context.Context, id string) (*conflict.Conflict, error)

	// Audit trail (append-only: no update or delete methods exist)
	AppendAuditEntry(ctx context.Context, req audit.LogRequest) (*audit.Entry, error)
	QueryAuditEntries(ctx context.Context, f audit.QueryFilter) ([]audit.Entry, error)
	SumAuditCost(ctx context.Context, f audit.CostFilter) (float64, error)
}
