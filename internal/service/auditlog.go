package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/teamspan/agentcore/internal/adapter/otel"
	"github.com/teamspan/agentcore/internal/domain/audit"
	"github.com/teamspan/agentcore/internal/port/database"
	"github.com/teamspan/agentcore/internal/port/messagequeue"
)

// DefaultAuditLimit caps audit listings when the caller does not set one.
const DefaultAuditLimit = 100

// AuditService maintains the append-only trail of agent actions and their
// cost. It records that actions happened, not whether they were correct.
type AuditService struct {
	store   database.Store
	metrics *otel.Metrics
}

// NewAuditService creates a new AuditService.
func NewAuditService(store database.Store) *AuditService {
	return &AuditService{store: store}
}

// SetMetrics attaches metric instruments.
func (s *AuditService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// Log appends one entry to the trail.
func (s *AuditService) Log(ctx context.Context, req audit.LogRequest) (*audit.Entry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.store.AppendAuditEntry(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AuditEntries.Add(ctx, 1)
		s.metrics.AuditCost.Record(ctx, e.Cost)
	}
	return e, nil
}

// Query lists entries matching the filter, newest first.
func (s *AuditService) Query(ctx context.Context, f audit.QueryFilter) ([]audit.Entry, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Limit == 0 {
		f.Limit = DefaultAuditLimit
	}
	return s.store.QueryAuditEntries(ctx, f)
}

// TotalCost sums the cost of entries in the filter's half-open
// [start, end) window.
func (s *AuditService) TotalCost(ctx context.Context, f audit.CostFilter) (float64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return s.store.SumAuditCost(ctx, f)
}

// StartEventRecorder subscribes to the full coordination stream and
// mirrors every event into the audit trail, so the trail captures
// coordination activity even when callers forget to log it themselves.
// The returned function cancels the subscription.
func (s *AuditService) StartEventRecorder(ctx context.Context, queue messagequeue.Queue) (func(), error) {
	return queue.Subscribe(ctx, messagequeue.SubjectAllEvents, func(ctx context.Context, subject string, data []byte) error {
		if !json.Valid(data) {
			data = nil
		}
		_, err := s.store.AppendAuditEntry(ctx, audit.LogRequest{
			Action:       subject,
			ResourceType: "coordination_event",
			Details:      data,
		})
		if err != nil {
			slog.Error("audit event record failed", "subject", subject, "error", err)
			return err
		}
		return nil
	})
}
