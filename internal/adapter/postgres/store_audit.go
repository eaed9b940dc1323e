package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/teamspan/agentcore/internal/domain/audit"
)

const auditCols = `id, department, agent_id, action, resource_type, resource_id, details, cost, created_at`

func (s *Store) AppendAuditEntry(ctx context.Context, req audit.LogRequest) (*audit.Entry, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO audit_log (department, agent_id, action, resource_type, resource_id, details, cost)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+auditCols,
		req.Department, nullIfEmpty(req.AgentID), req.Action, req.ResourceType, req.ResourceID,
		[]byte(req.Details), req.Cost)

	e, err := scanAuditEntry(row)
	if err != nil {
		return nil, fmt.Errorf("append audit entry: %w", err)
	}
	return &e, nil
}

func (s *Store) QueryAuditEntries(ctx context.Context, f audit.QueryFilter) ([]audit.Entry, error) {
	conds, args := auditConds(f.Department, f.AgentID)
	if f.ResourceType != "" {
		args = append(args, f.ResourceType)
		conds = append(conds, fmt.Sprintf("resource_type = $%d", len(args)))
	}
	if f.ResourceID != "" {
		args = append(args, f.ResourceID)
		conds = append(conds, fmt.Sprintf("resource_id = $%d", len(args)))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if f.Start != nil {
		args = append(args, *f.Start)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.End != nil {
		args = append(args, *f.End)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := `SELECT ` + auditCols + ` FROM audit_log`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumAuditCost aggregates over the caller's half-open [start, end)
// window; adjacent windows therefore sum without double counting.
func (s *Store) SumAuditCost(ctx context.Context, f audit.CostFilter) (float64, error) {
	conds, args := auditConds(f.Department, f.AgentID)
	args = append(args, f.Start)
	conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	args = append(args, f.End)
	conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))

	query := `SELECT COALESCE(SUM(cost), 0) FROM audit_log WHERE ` + strings.Join(conds, " AND ")

	var total float64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum audit cost: %w", err)
	}
	return total, nil
}

// auditConds builds the filter conditions shared by query and aggregation.
func auditConds(department, agentID string) ([]string, []any) {
	var conds []string
	var args []any
	if department != "" {
		args = append(args, department)
		conds = append(conds, fmt.Sprintf("department = $%d", len(args)))
	}
	if agentID != "" {
		args = append(args, agentID)
		conds = append(conds, fmt.Sprintf("agent_id = $%d", len(args)))
	}
	return conds, args
}

func scanAuditEntry(row scannable) (audit.Entry, error) {
	var e audit.Entry
	var agentID *string
	var details []byte
	err := row.Scan(&e.ID, &e.Department, &agentID, &e.Action, &e.ResourceType, &e.ResourceID,
		&details, &e.Cost, &e.CreatedAt)
	if err != nil {
		return e, err
	}
	e.AgentID = emptyIfNil(agentID)
	e.Details = details
	return e, nil
}
