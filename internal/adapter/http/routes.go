package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Agents
		r.Post("/agents", h.RegisterAgent)
		r.Get("/agents", h.ListAgents)
		r.Get("/agents/{id}", h.GetAgent)
		r.Put("/agents/{id}/status", h.UpdateAgentStatus)
		r.Get("/agents/{id}/inbox", h.Inbox)
		r.Get("/agents/{id}/inbox/unread", h.UnreadCount)

		// Messages
		r.Post("/messages", h.SendMessage)
		r.Get("/messages/{id}", h.GetMessage)
		r.Post("/messages/{id}/delivered", h.MarkDelivered)
		r.Post("/messages/{id}/read", h.MarkRead)
		r.Post("/messages/{id}/failed", h.MarkFailed)

		// Conflicts
		r.Post("/conflicts", h.DetectConflict)
		r.Get("/conflicts", h.ListConflicts)
		r.Get("/conflicts/{id}", h.GetConflict)
		r.Post("/conflicts/{id}/start", h.StartResolving)
		r.Post("/conflicts/{id}/resolve", h.ResolveConflict)
		r.Post("/conflicts/{id}/escalate", h.EscalateConflict)

		// Audit trail
		r.Post("/audit", h.AppendAudit)
		r.Get("/audit", h.QueryAudit)
		r.Get("/audit/cost", h.TotalCost)
	})
}
