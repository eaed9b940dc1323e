package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/teamspan/agentcore/internal/domain"
	"github.com/teamspan/agentcore/internal/domain/conflict"
)

const conflictCols = `id, conflict_type, agent_ids::text[], description, severity, status, resolution, resolved_by_agent, resolved_at, created_at, updated_at`

func (s *Store) CreateConflict(ctx context.Context, req conflict.DetectRequest) (*conflict.Conflict, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO conflicts (conflict_type, agent_ids, description, severity)
		 VALUES ($1, $2::uuid[], $3, $4)
		 RETURNING `+conflictCols,
		string(req.Type), req.AgentIDs, req.Description, string(req.Severity))

	c, err := scanConflict(row)
	if err != nil {
		return nil, fmt.Errorf("create conflict: %w", err)
	}
	return &c, nil
}

func (s *Store) GetConflict(ctx context.Context, id string) (*conflict.Conflict, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+conflictCols+` FROM conflicts WHERE id = $1`, id)

	c, err := scanConflict(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get conflict %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get conflict %s: %w", id, err)
	}
	return &c, nil
}

// ListActiveConflicts is the operational "needs attention" queue:
// everything not yet resolved or escalated, newest first.
func (s *Store) ListActiveConflicts(ctx context.Context) ([]conflict.Conflict, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+conflictCols+` FROM conflicts
		 WHERE status IN ('detected', 'resolving')
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active conflicts: %w", err)
	}
	defer rows.Close()

	return collectConflicts(rows)
}

// ListConflictsForAgents returns active conflicts whose party set
// overlaps the query set.
func (s *Store) ListConflictsForAgents(ctx context.Context, agentIDs []string) ([]conflict.Conflict, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+conflictCols+` FROM conflicts
		 WHERE status IN ('detected', 'resolving') AND agent_ids && $1::uuid[]
		 ORDER BY created_at DESC`, agentIDs)
	if err != nil {
		return nil, fmt.Errorf("list conflicts for agents: %w", err)
	}
	defer rows.Close()

	return collectConflicts(rows)
}

// StartConflictResolution transitions detected -> resolving. A conflict
// already resolving is returned as-is; a terminal conflict is rejected.
func (s *Store) StartConflictResolution(ctx context.Context, id string) (*conflict.Conflict, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE conflicts SET status = 'resolving', updated_at = now()
		 WHERE id = $1 AND status = 'detected'
		 RETURNING `+conflictCols, id)

	c, err := scanConflict(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.currentUnlessClosed(ctx, id)
		}
		return nil, fmt.Errorf("start conflict resolution %s: %w", id, err)
	}
	return &c, nil
}

// ResolveConflict transitions any non-terminal state -> resolved,
// recording the single authoritative resolution. Closed conflicts are
// never overwritten.
func (s *Store) ResolveConflict(ctx context.Context, id, resolution, resolvedBy string) (*conflict.Conflict, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE conflicts
		 SET status = 'resolved', resolution = $2, resolved_by_agent = $3, resolved_at = now(), updated_at = now()
		 WHERE id = $1 AND status IN ('detected', 'resolving')
		 RETURNING `+conflictCols,
		id, resolution, nullIfEmpty(resolvedBy))

	c, err := scanConflict(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.closedOrNotFound(ctx, id)
		}
		// An unknown resolver surfaces as a foreign key violation;
		// report it as caller error, not a store fault.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%w: resolved_by_agent must reference a registered agent", domain.ErrValidation)
		}
		return nil, fmt.Errorf("resolve conflict %s: %w", id, err)
	}
	return &c, nil
}

// EscalateConflict hands a non-terminal conflict to a higher authority.
// Escalated is terminal for this ledger; any further resolution happens
// outside it.
func (s *Store) EscalateConflict(ctx context.Context, id string) (*conflict.Conflict, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE conflicts SET status = 'escalated', updated_at = now()
		 WHERE id = $1 AND status IN ('detected', 'resolving')
		 RETURNING `+conflictCols, id)

	c, err := scanConflict(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.closedOrNotFound(ctx, id)
		}
		return nil, fmt.Errorf("escalate conflict %s: %w", id, err)
	}
	return &c, nil
}

// currentUnlessClosed resolves a missed CAS: resolving is idempotent
// success, terminal states are rejected.
func (s *Store) currentUnlessClosed(ctx context.Context, id string) (*conflict.Conflict, error) {
	c, err := s.GetConflict(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, fmt.Errorf("conflict %s: %w", id, conflict.ErrAlreadyClosed)
	}
	return c, nil
}

// closedOrNotFound resolves a missed resolve/escalate CAS: the only
// non-error explanation is that the conflict no longer exists.
func (s *Store) closedOrNotFound(ctx context.Context, id string) (*conflict.Conflict, error) {
	if _, err := s.GetConflict(ctx, id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("conflict %s: %w", id, conflict.ErrAlreadyClosed)
}

func collectConflicts(rows pgx.Rows) ([]conflict.Conflict, error) {
	var conflicts []conflict.Conflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func scanConflict(row scannable) (conflict.Conflict, error) {
	var c conflict.Conflict
	var resolution, resolvedBy *string
	err := row.Scan(&c.ID, &c.Type, &c.AgentIDs, &c.Description, &c.Severity, &c.Status,
		&resolution, &resolvedBy, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	c.Resolution = emptyIfNil(resolution)
	c.ResolvedBy = emptyIfNil(resolvedBy)
	return c, nil
}
