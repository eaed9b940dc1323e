package http

import (
	"net/http"
	"strings"

	"github.com/teamspan/agentcore/internal/domain/conflict"
)

// DetectConflict handles POST /api/v1/conflicts
func (h *Handlers) DetectConflict(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[conflict.DetectRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	c, err := h.Ledger.Detect(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "conflict not found")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetConflict handles GET /api/v1/conflicts/{id}
func (h *Handlers) GetConflict(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.Ledger.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "conflict not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListConflicts handles GET /api/v1/conflicts. Without a filter it lists
// every active conflict; ?agents=a,b narrows to conflicts involving any
// of the given agents.
func (h *Handlers) ListConflicts(w http.ResponseWriter, r *http.Request) {
	var (
		conflicts []conflict.Conflict
		err       error
	)
	if raw := r.URL.Query().Get("agents"); raw != "" {
		conflicts, err = h.Ledger.ForAgents(r.Context(), strings.Split(raw, ","))
	} else {
		conflicts, err = h.Ledger.Active(r.Context())
	}
	if err != nil {
		writeDomainError(w, err, "conflict not found")
		return
	}
	if conflicts == nil {
		conflicts = []conflict.Conflict{}
	}
	writeJSON(w, http.StatusOK, conflicts)
}

// StartResolving handles POST /api/v1/conflicts/{id}/start
func (h *Handlers) StartResolving(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.Ledger.StartResolving(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "conflict not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type resolveRequest struct {
	Resolution string `json:"resolution"`
	ResolvedBy string `json:"resolved_by_agent,omitempty"`
}

// ResolveConflict handles POST /api/v1/conflicts/{id}/resolve
func (h *Handlers) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[resolveRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	c, err := h.Ledger.Resolve(r.Context(), id, req.Resolution, req.ResolvedBy)
	if err != nil {
		writeDomainError(w, err, "conflict not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// EscalateConflict handles POST /api/v1/conflicts/{id}/escalate
func (h *Handlers) EscalateConflict(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.Ledger.Escalate(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "conflict not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
