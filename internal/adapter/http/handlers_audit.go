package http

import (
	"net/http"
	"time"

	"github.com/teamspan/agentcore/internal/domain/audit"
)

// AppendAudit handles POST /api/v1/audit
func (h *Handlers) AppendAudit(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[audit.LogRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	e, err := h.Audit.Log(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "audit entry not found")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// QueryAudit handles GET /api/v1/audit
func (h *Handlers) QueryAudit(w http.ResponseWriter, r *http.Request) {
	start, ok := queryTime(w, r, "start")
	if !ok {
		return
	}
	end, ok := queryTime(w, r, "end")
	if !ok {
		return
	}

	f := audit.QueryFilter{
		Department:   r.URL.Query().Get("department"),
		AgentID:      r.URL.Query().Get("agent"),
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
		Action:       r.URL.Query().Get("action"),
		Start:        start,
		End:          end,
		Limit:        queryInt(r, "limit", 0),
	}

	entries, err := h.Audit.Query(r.Context(), f)
	if err != nil {
		writeDomainError(w, err, "audit entries not found")
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type totalCostResponse struct {
	TotalCost float64   `json:"total_cost"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// TotalCost handles GET /api/v1/audit/cost. The start and end bounds are
// mandatory; the window is half-open [start, end).
func (h *Handlers) TotalCost(w http.ResponseWriter, r *http.Request) {
	start, ok := queryTime(w, r, "start")
	if !ok {
		return
	}
	end, ok := queryTime(w, r, "end")
	if !ok {
		return
	}

	f := audit.CostFilter{
		Department: r.URL.Query().Get("department"),
		AgentID:    r.URL.Query().Get("agent"),
	}
	if start != nil {
		f.Start = *start
	}
	if end != nil {
		f.End = *end
	}

	total, err := h.Audit.TotalCost(r.Context(), f)
	if err != nil {
		writeDomainError(w, err, "audit entries not found")
		return
	}
	writeJSON(w, http.StatusOK, totalCostResponse{TotalCost: total, Start: f.Start, End: f.End})
}
