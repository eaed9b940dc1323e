package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/teamspan/agentcore/internal/domain"
	"github.com/teamspan/agentcore/internal/domain/message"
)

const messageCols = `id, from_agent, to_agent, message_type, content, priority, status, created_at, read_at, expires_at`

func (s *Store) CreateMessage(ctx context.Context, req message.SendRequest) (*message.Message, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO messages (from_agent, to_agent, message_type, content, priority, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+messageCols,
		req.FromAgent, nullIfEmpty(req.ToAgent), string(req.Type), []byte(req.Content), string(req.Priority), req.ExpiresAt)

	m, err := scanMessage(row)
	if err != nil {
		// An unknown sender or recipient surfaces as a foreign key
		// violation; report it as caller error, not a store fault.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%w: from_agent and to_agent must reference registered agents", domain.ErrValidation)
		}
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &m, nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*message.Message, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+messageCols+` FROM messages WHERE id = $1`, id)

	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get message %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}
	return &m, nil
}

// ListInbox returns messages addressed to the agent directly or by
// broadcast, newest first. Expired pending messages are filtered out at
// read time against the database clock; expiry is never stored as
// derived state.
func (s *Store) ListInbox(ctx context.Context, agentID string, q message.InboxQuery) ([]message.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+messageCols+` FROM messages
		 WHERE (to_agent = $1 OR to_agent IS NULL)
		   AND ($2::text = '' OR status = $2)
		   AND ($3::text = '' OR priority = $3)
		   AND ($4::boolean OR NOT (status = 'pending' AND expires_at IS NOT NULL AND expires_at < now()))
		 ORDER BY created_at DESC
		 LIMIT $5`,
		agentID, string(q.Status), string(q.Priority), q.IncludeExpired, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	defer rows.Close()

	var msgs []message.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkMessageDelivered transitions pending -> delivered. When the message
// is in any other state, the current row is returned as success so that
// at-least-once acknowledgment retries are safe.
func (s *Store) MarkMessageDelivered(ctx context.Context, id string) (*message.Message, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE messages SET status = 'delivered'
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+messageCols, id)

	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.GetMessage(ctx, id)
		}
		return nil, fmt.Errorf("mark message delivered %s: %w", id, err)
	}
	return &m, nil
}

// MarkMessageRead transitions pending|delivered -> read and stamps
// read_at. Same idempotency contract as MarkMessageDelivered.
func (s *Store) MarkMessageRead(ctx context.Context, id string) (*message.Message, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE messages SET status = 'read', read_at = now()
		 WHERE id = $1 AND status IN ('pending', 'delivered')
		 RETURNING `+messageCols, id)

	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.GetMessage(ctx, id)
		}
		return nil, fmt.Errorf("mark message read %s: %w", id, err)
	}
	return &m, nil
}

// MarkMessageFailed transitions pending -> failed. Same idempotency
// contract as MarkMessageDelivered.
func (s *Store) MarkMessageFailed(ctx context.Context, id string) (*message.Message, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE messages SET status = 'failed'
		 WHERE id = $1 AND status = 'pending'
		 RETURNING `+messageCols, id)

	m, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.GetMessage(ctx, id)
		}
		return nil, fmt.Errorf("mark message failed %s: %w", id, err)
	}
	return &m, nil
}

func (s *Store) CountUnread(ctx context.Context, agentID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages
		 WHERE (to_agent = $1 OR to_agent IS NULL)
		   AND status IN ('pending', 'delivered')
		   AND (expires_at IS NULL OR expires_at >= now())`, agentID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *Store) FailExpiredPending(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE messages SET status = 'failed'
		 WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("fail expired pending: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMessage(row scannable) (message.Message, error) {
	var m message.Message
	var toAgent *string
	var content []byte
	err := row.Scan(&m.ID, &m.FromAgent, &toAgent, &m.Type, &content, &m.Priority, &m.Status,
		&m.CreatedAt, &m.ReadAt, &m.ExpiresAt)
	if err != nil {
		return m, err
	}
	m.ToAgent = emptyIfNil(toAgent)
	m.Content = content
	return m, nil
}
