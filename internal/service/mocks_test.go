package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teamspan/agentcore/internal/domain"
	"github.com/teamspan/agentcore/internal/domain/agent"
	"github.com/teamspan/agentcore/internal/domain/audit"
	"github.com/teamspan/agentcore/internal/domain/conflict"
	"github.com/teamspan/agentcore/internal/domain/message"
	"github.com/teamspan/agentcore/internal/port/cache"
	"github.com/teamspan/agentcore/internal/port/database"
	"github.com/teamspan/agentcore/internal/port/messagequeue"
)

// Ensure mock types implement their interfaces at compile time.
var (
	_ database.Store     = (*mockStore)(nil)
	_ messagequeue.Queue = (*mockQueue)(nil)
	_ cache.Cache        = (*mockCache)(nil)
)

// mockStore is an in-memory Store with the same transition semantics as
// the postgres adapter, including CAS fallbacks.
type mockStore struct {
	agents    []*agent.Agent
	messages  []*message.Message
	conflicts []*conflict.Conflict
	audit     []*audit.Entry
	seq       int

	getAgentCalls int
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *mockStore) CreateAgent(_ context.Context, req agent.RegisterRequest) (*agent.Agent, error) {
	now := time.Now()
	caps := req.Capabilities
	if caps == nil {
		caps = []string{}
	}
	a := &agent.Agent{
		ID:           s.nextID("agent"),
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		Type:         req.Type,
		Status:       agent.StatusActive,
		Capabilities: caps,
		Config:       req.Config,
		Metadata:     req.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.agents = append(s.agents, a)
	return copyAgent(a), nil
}

func (s *mockStore) GetAgent(_ context.Context, id string) (*agent.Agent, error) {
	s.getAgentCalls++
	for _, a := range s.agents {
		if a.ID == id {
			return copyAgent(a), nil
		}
	}
	return nil, fmt.Errorf("get agent %s: %w", id, domain.ErrNotFound)
}

func (s *mockStore) ListAgentsByDepartment(_ context.Context, departmentID string) ([]agent.Agent, error) {
	var out []agent.Agent
	for _, a := range s.agents {
		if a.DepartmentID == departmentID && a.Status == agent.StatusActive {
			out = append(out, *copyAgent(a))
		}
	}
	return out, nil
}

func (s *mockStore) ListAgentsByCapability(_ context.Context, capability string) ([]agent.Agent, error) {
	var out []agent.Agent
	for _, a := range s.agents {
		if a.Status == agent.StatusActive && a.HasCapability(capability) {
			out = append(out, *copyAgent(a))
		}
	}
	return out, nil
}

func (s *mockStore) ListActiveAgents(_ context.Context) ([]agent.Agent, error) {
	var out []agent.Agent
	for _, a := range s.agents {
		if a.Status == agent.StatusActive {
			out = append(out, *copyAgent(a))
		}
	}
	return out, nil
}

func (s *mockStore) UpdateAgentStatus(_ context.Context, id string, status agent.Status) (*agent.Agent, error) {
	for _, a := range s.agents {
		if a.ID == id {
			a.Status = status
			a.UpdatedAt = time.Now()
			return copyAgent(a), nil
		}
	}
	return nil, fmt.Errorf("update agent status %s: %w", id, domain.ErrNotFound)
}

func (s *mockStore) CreateMessage(_ context.Context, req message.SendRequest) (*message.Message, error) {
	m := &message.Message{
		ID:        s.nextID("msg"),
		FromAgent: req.FromAgent,
		ToAgent:   req.ToAgent,
		Type:      req.Type,
		Content:   req.Content,
		Priority:  req.Priority,
		Status:    message.StatusPending,
		CreatedAt: time.Now(),
		ExpiresAt: req.ExpiresAt,
	}
	s.messages = append(s.messages, m)
	return copyMessage(m), nil
}

func (s *mockStore) GetMessage(_ context.Context, id string) (*message.Message, error) {
	for _, m := range s.messages {
		if m.ID == id {
			return copyMessage(m), nil
		}
	}
	return nil, fmt.Errorf("get message %s: %w", id, domain.ErrNotFound)
}

func (s *mockStore) ListInbox(_ context.Context, agentID string, q message.InboxQuery) ([]message.Message, error) {
	now := time.Now()
	var out []message.Message
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.ToAgent != agentID && !m.Broadcast() {
			continue
		}
		if q.Status != "" && m.Status != q.Status {
			continue
		}
		if q.Priority != "" && m.Priority != q.Priority {
			continue
		}
		if !q.IncludeExpired && m.Status == message.StatusPending && m.Expired(now) {
			continue
		}
		out = append(out, *copyMessage(m))
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *mockStore) MarkMessageDelivered(ctx context.Context, id string) (*message.Message, error) {
	return s.transitionMessage(ctx, id, message.StatusDelivered, message.StatusPending)
}

func (s *mockStore) MarkMessageRead(ctx context.Context, id string) (*message.Message, error) {
	return s.transitionMessage(ctx, id, message.StatusRead, message.StatusPending, message.StatusDelivered)
}

func (s *mockStore) MarkMessageFailed(ctx context.Context, id string) (*message.Message, error) {
	return s.transitionMessage(ctx, id, message.StatusFailed, message.StatusPending)
}

func (s *mockStore) transitionMessage(ctx context.Context, id string, to message.Status, from ...message.Status) (*message.Message, error) {
	for _, m := range s.messages {
		if m.ID != id {
			continue
		}
		for _, f := range from {
			if m.Status == f {
				m.Status = to
				if to == message.StatusRead {
					now := time.Now()
					m.ReadAt = &now
				}
				break
			}
		}
		return copyMessage(m), nil
	}
	return s.GetMessage(ctx, id)
}

func (s *mockStore) CountUnread(_ context.Context, agentID string) (int, error) {
	now := time.Now()
	n := 0
	for _, m := range s.messages {
		if m.ToAgent != agentID && !m.Broadcast() {
			continue
		}
		if m.Status != message.StatusPending && m.Status != message.StatusDelivered {
			continue
		}
		if m.Expired(now) {
			continue
		}
		n++
	}
	return n, nil
}

func (s *mockStore) FailExpiredPending(_ context.Context, olderThan time.Time) (int64, error) {
	var n int64
	for _, m := range s.messages {
		if m.Status == message.StatusPending && m.ExpiresAt != nil && m.ExpiresAt.Before(olderThan) {
			m.Status = message.StatusFailed
			n++
		}
	}
	return n, nil
}

func (s *mockStore) CreateConflict(_ context.Context, req conflict.DetectRequest) (*conflict.Conflict, error) {
	now := time.Now()
	c := &conflict.Conflict{
		ID:          s.nextID("conflict"),
		Type:        req.Type,
		AgentIDs:    append([]string(nil), req.AgentIDs...),
		Description: req.Description,
		Severity:    req.Severity,
		Status:      conflict.StatusDetected,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.conflicts = append(s.conflicts, c)
	return copyConflict(c), nil
}

func (s *mockStore) GetConflict(_ context.Context, id string) (*conflict.Conflict, error) {
	for _, c := range s.conflicts {
		if c.ID == id {
			return copyConflict(c), nil
		}
	}
	return nil, fmt.Errorf("get conflict %s: %w", id, domain.ErrNotFound)
}

func (s *mockStore) ListActiveConflicts(_ context.Context) ([]conflict.Conflict, error) {
	var out []conflict.Conflict
	for i := len(s.conflicts) - 1; i >= 0; i-- {
		if !s.conflicts[i].Status.Terminal() {
			out = append(out, *copyConflict(s.conflicts[i]))
		}
	}
	return out, nil
}

func (s *mockStore) ListConflictsForAgents(_ context.Context, agentIDs []string) ([]conflict.Conflict, error) {
	want := make(map[string]bool, len(agentIDs))
	for _, id := range agentIDs {
		want[id] = true
	}
	var out []conflict.Conflict
	for i := len(s.conflicts) - 1; i >= 0; i-- {
		c := s.conflicts[i]
		if c.Status.Terminal() {
			continue
		}
		for _, id := range c.AgentIDs {
			if want[id] {
				out = append(out, *copyConflict(c))
				break
			}
		}
	}
	return out, nil
}

func (s *mockStore) StartConflictResolution(ctx context.Context, id string) (*conflict.Conflict, error) {
	for _, c := range s.conflicts {
		if c.ID != id {
			continue
		}
		if c.Status.Terminal() {
			return nil, fmt.Errorf("conflict %s: %w", id, conflict.ErrAlreadyClosed)
		}
		c.Status = conflict.StatusResolving
		c.UpdatedAt = time.Now()
		return copyConflict(c), nil
	}
	return nil, fmt.Errorf("get conflict %s: %w", id, domain.ErrNotFound)
}

func (s *mockStore) ResolveConflict(_ context.Context, id, resolution, resolvedBy string) (*conflict.Conflict, error) {
	return s.closeConflict(id, conflict.StatusResolved, resolution, resolvedBy)
}

func (s *mockStore) EscalateConflict(_ context.Context, id string) (*conflict.Conflict, error) {
	return s.closeConflict(id, conflict.StatusEscalated, "", "")
}

func (s *mockStore) closeConflict(id string, to conflict.Status, resolution, resolvedBy string) (*conflict.Conflict, error) {
	for _, c := range s.conflicts {
		if c.ID != id {
			continue
		}
		if c.Status.Terminal() {
			return nil, fmt.Errorf("conflict %s: %w", id, conflict.ErrAlreadyClosed)
		}
		now := time.Now()
		c.Status = to
		c.UpdatedAt = now
		if to == conflict.StatusResolved {
			c.Resolution = resolution
			c.ResolvedBy = resolvedBy
			c.ResolvedAt = &now
		}
		return copyConflict(c), nil
	}
	return nil, fmt.Errorf("get conflict %s: %w", id, domain.ErrNotFound)
}

func (s *mockStore) AppendAuditEntry(_ context.Context, req audit.LogRequest) (*audit.Entry, error) {
	e := &audit.Entry{
		ID:           s.nextID("audit"),
		Department:   req.Department,
		AgentID:      req.AgentID,
		Action:       req.Action,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Details:      req.Details,
		Cost:         req.Cost,
		CreatedAt:    time.Now(),
	}
	s.audit = append(s.audit, e)
	out := *e
	return &out, nil
}

func (s *mockStore) QueryAuditEntries(_ context.Context, f audit.QueryFilter) ([]audit.Entry, error) {
	var out []audit.Entry
	for i := len(s.audit) - 1; i >= 0; i-- {
		e := s.audit[i]
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		if f.AgentID != "" && e.AgentID != f.AgentID {
			continue
		}
		if f.ResourceType != "" && e.ResourceType != f.ResourceType {
			continue
		}
		if f.ResourceID != "" && e.ResourceID != f.ResourceID {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.Start != nil && e.CreatedAt.Before(*f.Start) {
			continue
		}
		if f.End != nil && !e.CreatedAt.Before(*f.End) {
			continue
		}
		out = append(out, *e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *mockStore) SumAuditCost(_ context.Context, f audit.CostFilter) (float64, error) {
	var total float64
	for _, e := range s.audit {
		if f.Department != "" && e.Department != f.Department {
			continue
		}
		if f.AgentID != "" && e.AgentID != f.AgentID {
			continue
		}
		if e.CreatedAt.Before(f.Start) || !e.CreatedAt.Before(f.End) {
			continue
		}
		total += e.Cost
	}
	return total, nil
}

func copyAgent(a *agent.Agent) *agent.Agent {
	out := *a
	out.Capabilities = append([]string(nil), a.Capabilities...)
	return &out
}

func copyMessage(m *message.Message) *message.Message {
	out := *m
	return &out
}

func copyConflict(c *conflict.Conflict) *conflict.Conflict {
	out := *c
	out.AgentIDs = append([]string(nil), c.AgentIDs...)
	return &out
}

type mockQueue struct {
	published []struct {
		subject string
		data    []byte
	}
	publishErr error

	subscribed []string
	handlers   map[string]messagequeue.Handler
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	q.subscribed = append(q.subscribed, subject)
	if q.handlers == nil {
		q.handlers = make(map[string]messagequeue.Handler)
	}
	q.handlers[subject] = handler
	return func() {}, nil
}

func (q *mockQueue) Close() error { return nil }

// countSubject reports how many published events match a subject.
func (q *mockQueue) countSubject(subject string) int {
	n := 0
	for _, p := range q.published {
		if p.subject == subject || strings.HasPrefix(p.subject, subject) {
			n++
		}
	}
	return n
}

type mockCache struct {
	entries map[string][]byte
	gets    int
	hits    int
	sets    int
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.gets++
	data, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return data, ok, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.sets++
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[key] = value
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *mockCache) Close() {}
