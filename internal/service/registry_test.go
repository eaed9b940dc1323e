package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teamspan/agentcore/internal/domain"
	"github.com/teamspan/agentcore/internal/domain/agent"
	"github.com/teamspan/agentcore/internal/port/messagequeue"
)

func newRegistry(store *mockStore) (*RegistryService, *mockQueue, *mockCache) {
	queue := &mockQueue{}
	c := &mockCache{}
	return NewRegistryService(store, queue, c, time.Minute), queue, c
}

func TestRegistryRegister(t *testing.T) {
	store := &mockStore{}
	svc, queue, _ := newRegistry(store)

	a, err := svc.Register(context.Background(), agent.RegisterRequest{
		Name:         "scheduler",
		DepartmentID: "ops",
		Type:         agent.TypeAutomated,
		Capabilities: []string{"scheduling"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != agent.StatusActive {
		t.Fatalf("expected new agent to be active, got %q", a.Status)
	}
	if queue.countSubject(messagequeue.SubjectAgentStatus) != 1 {
		t.Fatalf("expected one agent status event")
	}
}

func TestRegistryRegisterValidation(t *testing.T) {
	svc, _, _ := newRegistry(&mockStore{})

	cases := []struct {
		name string
		req  agent.RegisterRequest
	}{
		{"empty name", agent.RegisterRequest{Type: agent.TypeAutomated}},
		{"bad type", agent.RegisterRequest{Name: "x", Type: "robot"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.req); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	svc, _, _ := newRegistry(&mockStore{})

	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryListByDepartmentExcludesInactive(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newRegistry(store)
	ctx := context.Background()

	a1, _ := svc.Register(ctx, agent.RegisterRequest{Name: "a1", DepartmentID: "eng", Type: agent.TypeAutomated})
	a2, _ := svc.Register(ctx, agent.RegisterRequest{Name: "a2", DepartmentID: "eng", Type: agent.TypeHuman})
	svc.Register(ctx, agent.RegisterRequest{Name: "a3", DepartmentID: "sales", Type: agent.TypeHuman})

	if _, err := svc.UpdateStatus(ctx, a2.ID, agent.StatusInactive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.ListByDepartment(ctx, "eng")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != a1.ID {
		t.Fatalf("expected only %s, got %+v", a1.ID, got)
	}
}

func TestRegistryFindByCapability(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newRegistry(store)
	ctx := context.Background()

	a1, _ := svc.Register(ctx, agent.RegisterRequest{Name: "planner", Type: agent.TypeAutomated, Capabilities: []string{"planning", "review"}})
	svc.Register(ctx, agent.RegisterRequest{Name: "writer", Type: agent.TypeAutomated, Capabilities: []string{"writing"}})

	got, err := svc.FindByCapability(ctx, "planning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != a1.ID {
		t.Fatalf("expected only %s, got %+v", a1.ID, got)
	}

	// Capability match is exact, not substring.
	got, err = svc.FindByCapability(ctx, "plan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no match for partial capability, got %+v", got)
	}
}

func TestRegistryUpdateStatusInvalid(t *testing.T) {
	svc, _, _ := newRegistry(&mockStore{})

	if _, err := svc.UpdateStatus(context.Background(), "a1", "sleeping"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRegistryUpdateStatusAnyToAny(t *testing.T) {
	store := &mockStore{}
	svc, _, _ := newRegistry(store)
	ctx := context.Background()

	a, _ := svc.Register(ctx, agent.RegisterRequest{Name: "flaky", Type: agent.TypeAutomated})

	for _, status := range []agent.Status{
		agent.StatusError, agent.StatusMaintenance, agent.StatusActive, agent.StatusInactive, agent.StatusActive,
	} {
		got, err := svc.UpdateStatus(ctx, a.ID, status)
		if err != nil {
			t.Fatalf("transition to %q failed: %v", status, err)
		}
		if got.Status != status {
			t.Fatalf("expected %q, got %q", status, got.Status)
		}
	}
}

// A listing after a status change must observe the change even with the
// cache in play.
func TestRegistryCacheInvalidatedOnWrite(t *testing.T) {
	store := &mockStore{}
	svc, _, c := newRegistry(store)
	ctx := context.Background()

	a, _ := svc.Register(ctx, agent.RegisterRequest{Name: "a1", Type: agent.TypeAutomated})

	before, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(before) != 1 {
		t.Fatalf("expected 1 active agent, got %d", len(before))
	}

	if _, err := svc.UpdateStatus(ctx, a.ID, agent.StatusInactive); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("expected stale roster to be invalidated, got %+v", after)
	}
	if c.sets == 0 {
		t.Fatalf("expected listings to populate the cache")
	}
}

func TestRegistryCacheServesRepeatReads(t *testing.T) {
	store := &mockStore{}
	svc, _, c := newRegistry(store)
	ctx := context.Background()

	svc.Register(ctx, agent.RegisterRequest{Name: "a1", DepartmentID: "eng", Type: agent.TypeAutomated})

	for range 3 {
		if _, err := svc.ListByDepartment(ctx, "eng"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if c.hits < 2 {
		t.Fatalf("expected repeat reads to hit the cache, hits=%d", c.hits)
	}
}

func TestRegistryNilCache(t *testing.T) {
	store := &mockStore{}
	svc := NewRegistryService(store, &mockQueue{}, nil, time.Minute)
	ctx := context.Background()

	svc.Register(ctx, agent.RegisterRequest{Name: "a1", Type: agent.TypeAutomated})

	got, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(got))
	}
}
