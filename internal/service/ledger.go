package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teamspan/agentcore/internal/adapter/otel"
	"github.com/teamspan/agentcore/internal/domain"
	"github.com/teamspan/agentcore/internal/domain/conflict"
	"github.com/teamspan/agentcore/internal/port/database"
	"github.com/teamspan/agentcore/internal/port/messagequeue"
)

// LedgerService tracks disagreements between agents from detection to a
// single permanent resolution or escalation.
type LedgerService struct {
	store   database.Store
	queue   messagequeue.Queue
	metrics *otel.Metrics
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store database.Store, queue messagequeue.Queue) *LedgerService {
	return &LedgerService{store: store, queue: queue}
}

// SetMetrics attaches metric instruments.
func (s *LedgerService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// Detect opens a conflict between two or more registered agents.
func (s *LedgerService) Detect(ctx context.Context, req conflict.DetectRequest) (*conflict.Conflict, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, id := range req.AgentIDs {
		if _, err := s.store.GetAgent(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: agent %q is not registered", domain.ErrValidation, id)
			}
			return nil, err
		}
	}

	c, err := s.store.CreateConflict(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ConflictsOpened.Add(ctx, 1)
	}
	publish(ctx, s.queue, messagequeue.SubjectConflictDetected, conflictEvent{
		ConflictID: c.ID,
		AgentIDs:   c.AgentIDs,
		Severity:   string(c.Severity),
		Status:     string(c.Status),
	})

	slog.Info("conflict detected", "conflict_id", c.ID, "type", c.Type, "severity", c.Severity, "agents", len(c.AgentIDs))
	return c, nil
}

// Get returns a conflict by ID.
func (s *LedgerService) Get(ctx context.Context, id string) (*conflict.Conflict, error) {
	return s.store.GetConflict(ctx, id)
}

// Active returns every conflict still awaiting resolution, newest first.
func (s *LedgerService) Active(ctx context.Context) ([]conflict.Conflict, error) {
	return s.store.ListActiveConflicts(ctx)
}

// ForAgents returns active conflicts involving any of the given agents.
func (s *LedgerService) ForAgents(ctx context.Context, agentIDs []string) ([]conflict.Conflict, error) {
	if len(agentIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one agent_id is required", domain.ErrValidation)
	}
	return s.store.ListConflictsForAgents(ctx, agentIDs)
}

// StartResolving marks a detected conflict as being worked on. Calling it
// again while resolving is a no-op; a closed conflict is rejected.
func (s *LedgerService) StartResolving(ctx context.Context, id string) (*conflict.Conflict, error) {
	ctx, span := otel.StartConflictSpan(ctx, "start_resolving", id)
	defer span.End()

	return s.store.StartConflictResolution(ctx, id)
}

// Resolve closes a conflict with its one authoritative resolution.
// A conflict already resolved or escalated is rejected with
// conflict.ErrAlreadyClosed.
func (s *LedgerService) Resolve(ctx context.Context, id, resolution, resolvedBy string) (*conflict.Conflict, error) {
	if resolution == "" {
		return nil, fmt.Errorf("%w: resolution is required", domain.ErrValidation)
	}

	ctx, span := otel.StartConflictSpan(ctx, "resolve", id)
	defer span.End()

	c, err := s.store.ResolveConflict(ctx, id, resolution, resolvedBy)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ConflictsClosed.Add(ctx, 1)
	}
	publish(ctx, s.queue, messagequeue.SubjectConflictResolved, conflictEvent{
		ConflictID: c.ID,
		AgentIDs:   c.AgentIDs,
		Severity:   string(c.Severity),
		Status:     string(c.Status),
	})

	slog.Info("conflict resolved", "conflict_id", c.ID, "resolved_by", resolvedBy)
	return c, nil
}

// Escalate hands a conflict to a higher authority and closes it for this
// ledger. Same terminal-state contract as Resolve.
func (s *LedgerService) Escalate(ctx context.Context, id string) (*conflict.Conflict, error) {
	ctx, span := otel.StartConflictSpan(ctx, "escalate", id)
	defer span.End()

	c, err := s.store.EscalateConflict(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ConflictsClosed.Add(ctx, 1)
	}
	publish(ctx, s.queue, messagequeue.SubjectConflictEscalate, conflictEvent{
		ConflictID: c.ID,
		AgentIDs:   c.AgentIDs,
		Severity:   string(c.Severity),
		Status:     string(c.Status),
	})

	slog.Warn("conflict escalated", "conflict_id", c.ID, "severity", c.Severity)
	return c, nil
}
