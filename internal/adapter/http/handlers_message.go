package http

import (
	"net/http"

	"github.com/teamspan/agentcore/internal/domain/message"
)

// SendMessage handles POST /api/v1/messages
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[message.SendRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	m, err := h.Bus.Send(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "message not found")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// GetMessage handles GET /api/v1/messages/{id}
func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	m, err := h.Bus.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "message not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Inbox handles GET /api/v1/agents/{id}/inbox
func (h *Handlers) Inbox(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	q := message.InboxQuery{
		Status:         message.Status(r.URL.Query().Get("status")),
		Priority:       message.Priority(r.URL.Query().Get("priority")),
		Limit:          queryInt(r, "limit", 0),
		IncludeExpired: r.URL.Query().Get("include_expired") == "true",
	}

	msgs, err := h.Bus.Inbox(r.Context(), id, q)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	if msgs == nil {
		msgs = []message.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

type unreadResponse struct {
	Unread int `json:"unread"`
}

// UnreadCount handles GET /api/v1/agents/{id}/inbox/unread
func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	n, err := h.Bus.UnreadCount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, unreadResponse{Unread: n})
}

// MarkDelivered handles POST /api/v1/messages/{id}/delivered
func (h *Handlers) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	m, err := h.Bus.MarkDelivered(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "message not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// MarkRead handles POST /api/v1/messages/{id}/read
func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	m, err := h.Bus.MarkRead(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "message not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// MarkFailed handles POST /api/v1/messages/{id}/failed
func (h *Handlers) MarkFailed(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	m, err := h.Bus.MarkFailed(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "message not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}
