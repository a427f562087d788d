package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mammyai/chat-gateway/internal/api/response"
	"github.com/mammyai/chat-gateway/internal/domain"
)

type SessionHandler struct {
	states *StateManager
}

func NewSessionHandler(states *StateManager) *SessionHandler {
	return &SessionHandler{states: states}
}

// List returns the user's sessions grouped by age
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	st := h.states.Acquire(r)
	groups := st.Chat.SessionGroups()
	st.Flush(w)

	response.OK(w, groups)
}

// Create starts a new chat session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Optional body
	}

	st := h.states.Acquire(r)
	session := st.Chat.NewChat(req.Label)
	st.Flush(w)

	response.Created(w, map[string]any{
		"session":     session,
		"navigate_to": st.TakeNavigation(),
	})
}

// Select activates a session and loads its stored history
func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := uuid.Parse(sessionID); err != nil {
		response.BadRequest(w, "Invalid session ID")
		return
	}

	st := h.states.Acquire(r)
	err := st.Chat.SelectSession(r.Context(), sessionID)
	st.Flush(w)

	if err != nil {
		if errors.Is(err, domain.ErrHistoryNotFound) {
			response.NotFound(w, "Session history not found")
			return
		}
		response.InternalError(w, "Failed to load session")
		return
	}

	response.OK(w, map[string]any{
		"history":     st.Chat.History(),
		"status":      st.Chat.Status(),
		"navigate_to": st.TakeNavigation(),
	})
}

// Delete expires a session cookie and drops the stored conversation
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := uuid.Parse(sessionID); err != nil {
		response.BadRequest(w, "Invalid session ID")
		return
	}

	st := h.states.Acquire(r)
	st.Chat.DeleteSession(r.Context(), sessionID)
	st.Flush(w)

	response.OK(w, map[string]any{
		"sessions":    st.Chat.SessionGroups(),
		"navigate_to": st.TakeNavigation(),
	})
}
