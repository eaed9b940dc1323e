package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/teamspan/agentcore/internal/domain"
	"github.com/teamspan/agentcore/internal/domain/agent"
)

const agentCols = `id, name, department_id, agent_type, status, capabilities, config, metadata, created_at, updated_at`

func (s *Store) CreateAgent(ctx context.Context, req agent.RegisterRequest) (*agent.Agent, error) {
	capabilities := req.Capabilities
	if capabilities == nil {
		capabilities = []string{}
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO agents (name, department_id, agent_type, capabilities, config, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+agentCols,
		req.Name, req.DepartmentID, string(req.Type), capabilities, []byte(req.Config), []byte(req.Metadata))

	a, err := scanAgent(row)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &a, nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agent.Agent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+agentCols+` FROM agents WHERE id = $1`, id)

	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get agent %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get agent %s: %w", id, err)
	}
	return &a, nil
}

// ListAgentsByDepartment returns only active agents: inactive, error, and
// maintenance agents are excluded from department rosters so they do not
// receive new work.
func (s *Store) ListAgentsByDepartment(ctx context.Context, departmentID string) ([]agent.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+agentCols+` FROM agents
		 WHERE department_id = $1 AND status = 'active'
		 ORDER BY created_at DESC`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list agents by department: %w", err)
	}
	defer rows.Close()

	return collectAgents(rows)
}

func (s *Store) ListAgentsByCapability(ctx context.Context, capability string) ([]agent.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+agentCols+` FROM agents
		 WHERE status = 'active' AND capabilities @> ARRAY[$1]::text[]
		 ORDER BY created_at DESC`, capability)
	if err != nil {
		return nil, fmt.Errorf("list agents by capability: %w", err)
	}
	defer rows.Close()

	return collectAgents(rows)
}

func (s *Store) ListActiveAgents(ctx context.Context) ([]agent.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+agentCols+` FROM agents WHERE status = 'active' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active agents: %w", err)
	}
	defer rows.Close()

	return collectAgents(rows)
}

func (s *Store) UpdateAgentStatus(ctx context.Context, id string, status agent.Status) (*agent.Agent, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE agents SET status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+agentCols,
		id, string(status))

	a, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update agent status %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update agent status %s: %w", id, err)
	}
	return &a, nil
}

func collectAgents(rows pgx.Rows) ([]agent.Agent, error) {
	var agents []agent.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func scanAgent(row scannable) (agent.Agent, error) {
	var a agent.Agent
	var configJSON, metadataJSON []byte
	err := row.Scan(&a.ID, &a.Name, &a.DepartmentID, &a.Type, &a.Status, &a.Capabilities,
		&configJSON, &metadataJSON, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	a.Config = configJSON
	a.Metadata = metadataJSON
	return a, nil
}
