package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teamspan/agentcore/internal/adapter/otel"
	"github.com/teamspan/agentcore/internal/domain"
	"github.com/teamspan/agentcore/internal/domain/message"
	"github.com/teamspan/agentcore/internal/port/database"
	"github.com/teamspan/agentcore/internal/port/messagequeue"
)

// DefaultInboxLimit caps inbox listings when the caller does not set one.
const DefaultInboxLimit = 100

// BusService handles agent-to-agent messaging: directed sends, broadcasts,
// inbox reads, and delivery acknowledgments.
type BusService struct {
	store   database.Store
	queue   messagequeue.Queue
	metrics *otel.Metrics
}

// NewBusService creates a new BusService.
func NewBusService(store database.Store, queue messagequeue.Queue) *BusService {
	return &BusService{store: store, queue: queue}
}

// SetMetrics attaches metric instruments.
func (s *BusService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// Send records a message from one agent to another, or to all agents when
// the recipient is empty. Both parties must be registered; a broadcast is
// stored once regardless of roster size.
func (s *BusService) Send(ctx context.Context, req message.SendRequest) (*message.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkRegistered(ctx, "from_agent", req.FromAgent); err != nil {
		return nil, err
	}
	if req.ToAgent != "" {
		if err := s.checkRegistered(ctx, "to_agent", req.ToAgent); err != nil {
			return nil, err
		}
	}

	ctx, span := otel.StartSendSpan(ctx, req.FromAgent, req.ToAgent)
	defer span.End()

	m, err := s.store.CreateMessage(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.MessagesSent.Add(ctx, 1)
	}
	publish(ctx, s.queue, messagequeue.SubjectMessageSent, messageEvent{
		MessageID: m.ID,
		FromAgent: m.FromAgent,
		ToAgent:   m.ToAgent,
		Broadcast: m.Broadcast(),
		Status:    string(m.Status),
	})

	slog.Info("message sent", "message_id", m.ID, "from", m.FromAgent, "broadcast", m.Broadcast())
	return m, nil
}

// Get returns a message by ID.
func (s *BusService) Get(ctx context.Context, id string) (*message.Message, error) {
	return s.store.GetMessage(ctx, id)
}

// Inbox lists messages visible to an agent, newest first: direct messages
// plus broadcasts, minus pending messages whose expiry has passed.
func (s *BusService) Inbox(ctx context.Context, agentID string, q message.InboxQuery) ([]message.Message, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Limit == 0 {
		q.Limit = DefaultInboxLimit
	}
	return s.store.ListInbox(ctx, agentID, q)
}

// MarkDelivered acknowledges transport delivery. Safe to retry: a message
// already past pending is returned unchanged.
func (s *BusService) MarkDelivered(ctx context.Context, id string) (*message.Message, error) {
	m, err := s.store.MarkMessageDelivered(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.queue, messagequeue.SubjectMessageDelivered, messageEvent{
		MessageID: m.ID,
		FromAgent: m.FromAgent,
		ToAgent:   m.ToAgent,
		Broadcast: m.Broadcast(),
		Status:    string(m.Status),
	})
	return m, nil
}

// MarkRead acknowledges consumption and stamps the read time. Safe to
// retry; the first read receipt is permanent.
func (s *BusService) MarkRead(ctx context.Context, id string) (*message.Message, error) {
	m, err := s.store.MarkMessageRead(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.MessagesRead.Add(ctx, 1)
	}
	publish(ctx, s.queue, messagequeue.SubjectMessageRead, messageEvent{
		MessageID: m.ID,
		FromAgent: m.FromAgent,
		ToAgent:   m.ToAgent,
		Broadcast: m.Broadcast(),
		Status:    string(m.Status),
	})
	return m, nil
}

// MarkFailed records a delivery failure for a still-pending message.
func (s *BusService) MarkFailed(ctx context.Context, id string) (*message.Message, error) {
	m, err := s.store.MarkMessageFailed(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.queue, messagequeue.SubjectMessageFailed, messageEvent{
		MessageID: m.ID,
		FromAgent: m.FromAgent,
		ToAgent:   m.ToAgent,
		Broadcast: m.Broadcast(),
		Status:    string(m.Status),
	})
	return m, nil
}

// UnreadCount returns how many unexpired messages await the agent.
func (s *BusService) UnreadCount(ctx context.Context, agentID string) (int, error) {
	return s.store.CountUnread(ctx, agentID)
}

// SweepExpired fails pending messages whose expiry has passed. Inbox
// filtering is already correct without it; the sweep only keeps stored
// state from accumulating stale pending rows.
func (s *BusService) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := otel.StartSweepSpan(ctx)
	defer span.End()

	n, err := s.store.FailExpiredPending(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if s.metrics != nil {
			s.metrics.MessagesExpired.Add(ctx, n)
		}
		publish(ctx, s.queue, messagequeue.SubjectMessageSwept, sweepEvent{
			Failed:  n,
			SweptAt: time.Now().UTC(),
		})
		slog.Info("expired messages swept", "failed", n)
	}
	return n, nil
}

// RunSweeper runs SweepExpired on the given interval until ctx is done.
func (s *BusService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				slog.Error("expiry sweep failed", "error", err)
			}
		}
	}
}

// checkRegistered verifies an agent reference, reporting a missing agent
// as caller error rather than not-found.
func (s *BusService) checkRegistered(ctx context.Context, field, agentID string) error {
	if _, err := s.store.GetAgent(ctx, agentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %s %q is not a registered agent", domain.ErrValidation, field, agentID)
		}
		return err
	}
	return nil
}
