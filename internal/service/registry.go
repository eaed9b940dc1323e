// Package service implements the coordination use cases on top of the
// store, queue, and cache ports.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teamspan/agentcore/internal/adapter/otel"
	"github.com/teamspan/agentcore/internal/domain"
	"github.com/teamspan/agentcore/internal/domain/agent"
	"github.com/teamspan/agentcore/internal/port/cache"
	"github.com/teamspan/agentcore/internal/port/database"
	"github.com/teamspan/agentcore/internal/port/messagequeue"
)

// RegistryService manages the agent roster.
//
// Roster listings are served through a generation-stamped cache: every
// mutation bumps the generation, which orphans all previously cached
// listings. A read after a write therefore always observes the write.
type RegistryService struct {
	store      database.Store
	queue      messagequeue.Queue
	cache      cache.Cache
	rosterTTL  time.Duration
	generation atomic.Uint64
	metrics    *otel.Metrics
}

// NewRegistryService creates a new RegistryService. cache may be nil to
// disable roster caching.
func NewRegistryService(store database.Store, queue messagequeue.Queue, c cache.Cache, rosterTTL time.Duration) *RegistryService {
	return &RegistryService{store: store, queue: queue, cache: c, rosterTTL: rosterTTL}
}

// SetMetrics attaches metric instruments.
func (s *RegistryService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// Register adds a new agent to the roster. New agents start active.
func (s *RegistryService) Register(ctx context.Context, req agent.RegisterRequest) (*agent.Agent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.store.CreateAgent(ctx, req)
	if err != nil {
		return nil, err
	}

	s.generation.Add(1)
	if s.metrics != nil {
		s.metrics.AgentsRegistered.Add(ctx, 1)
	}
	publish(ctx, s.queue, messagequeue.SubjectAgentStatus, agentStatusEvent{
		AgentID: a.ID,
		Status:  string(a.Status),
	})

	slog.Info("agent registered", "agent_id", a.ID, "name", a.Name, "type", a.Type)
	return a, nil
}

// Get returns an agent by ID.
func (s *RegistryService) Get(ctx context.Context, id string) (*agent.Agent, error) {
	return s.store.GetAgent(ctx, id)
}

// ListByDepartment returns the active agents of a department.
func (s *RegistryService) ListByDepartment(ctx context.Context, departmentID string) ([]agent.Agent, error) {
	return s.roster(ctx, "dept:"+departmentID, func() ([]agent.Agent, error) {
		return s.store.ListAgentsByDepartment(ctx, departmentID)
	})
}

// FindByCapability returns the active agents advertising a capability.
func (s *RegistryService) FindByCapability(ctx context.Context, capability string) ([]agent.Agent, error) {
	return s.roster(ctx, "cap:"+capability, func() ([]agent.Agent, error) {
		return s.store.ListAgentsByCapability(ctx, capability)
	})
}

// ListActive returns every active agent.
func (s *RegistryService) ListActive(ctx context.Context) ([]agent.Agent, error) {
	return s.roster(ctx, "active", func() ([]agent.Agent, error) {
		return s.store.ListActiveAgents(ctx)
	})
}

// UpdateStatus moves an agent to a new operational status. All statuses
// are reachable from all others.
func (s *RegistryService) UpdateStatus(ctx context.Context, id string, status agent.Status) (*agent.Agent, error) {
	if !agent.ValidStatus(status) {
		return nil, fmt.Errorf("%w: invalid agent status %q", domain.ErrValidation, status)
	}

	a, err := s.store.UpdateAgentStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.generation.Add(1)
	publish(ctx, s.queue, messagequeue.SubjectAgentStatus, agentStatusEvent{
		AgentID: a.ID,
		Status:  string(a.Status),
	})

	slog.Info("agent status updated", "agent_id", a.ID, "status", a.Status)
	return a, nil
}

// roster serves a listing from the cache when a current-generation entry
// exists, loading and caching it otherwise. Cache failures degrade to a
// store read.
func (s *RegistryService) roster(ctx context.Context, key string, load func() ([]agent.Agent, error)) ([]agent.Agent, error) {
	if s.cache == nil {
		return load()
	}

	cacheKey := fmt.Sprintf("roster:%d:%s", s.generation.Load(), key)
	if data, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var agents []agent.Agent
		if err := json.Unmarshal(data, &agents); err == nil {
			return agents, nil
		}
	}

	agents, err := load()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(agents); err == nil {
		if err := s.cache.Set(ctx, cacheKey, data, s.rosterTTL); err != nil {
			slog.Warn("roster cache set failed", "key", cacheKey, "error", err)
		}
	}
	return agents, nil
}
