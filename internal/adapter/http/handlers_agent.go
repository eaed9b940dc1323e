package http

import (
	"net/http"

	"github.com/teamspan/agentcore/internal/domain/agent"
)

// RegisterAgent handles POST /api/v1/agents
func (h *Handlers) RegisterAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[agent.RegisterRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	a, err := h.Registry.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAgent handles GET /api/v1/agents/{id}
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	a, err := h.Registry.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListAgents handles GET /api/v1/agents with optional department or
// capability filters. Without a filter it lists every active agent.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	var (
		agents []agent.Agent
		err    error
	)
	switch {
	case r.URL.Query().Get("department") != "":
		agents, err = h.Registry.ListByDepartment(r.Context(), r.URL.Query().Get("department"))
	case r.URL.Query().Get("capability") != "":
		agents, err = h.Registry.FindByCapability(r.Context(), r.URL.Query().Get("capability"))
	default:
		agents, err = h.Registry.ListActive(r.Context())
	}
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if agents == nil {
		agents = []agent.Agent{}
	}
	writeJSON(w, http.StatusOK, agents)
}

type updateStatusRequest struct {
	Status agent.Status `json:"status"`
}

// UpdateAgentStatus handles PUT /api/v1/agents/{id}/status
func (h *Handlers) UpdateAgentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[updateStatusRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	a, err := h.Registry.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
