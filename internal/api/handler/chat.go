package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/mammyai/chat-gateway/internal/api/response"
	"github.com/mammyai/chat-gateway/internal/domain"
)

type ChatHandler struct {
	states   *StateManager
	validate *validator.Validate
}

func NewChatHandler(states *StateManager) *ChatHandler {
	return &ChatHandler{
		states:   states,
		validate: validator.New(),
	}
}

type sendMessageBody struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// Send runs one streamed send cycle and returns the assembled history
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var body sendMessageBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := h.validate.Struct(body); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	st := h.states.Acquire(r)
	err := st.Chat.SendMessage(r.Context(), body.Message)
	st.Flush(w)

	if errors.Is(err, domain.ErrSendInProgress) {
		response.Conflict(w, "A send is already in progress")
		return
	}

	response.OK(w, map[string]any{
		"history":           st.Chat.History(),
		"status":            st.Chat.Status(),
		"active_session_id": st.Chat.ActiveSessionID(),
		"navigate_to":       st.TakeNavigation(),
	})
}

// History returns the current conversation snapshot
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	st := h.states.Acquire(r)
	st.Flush(w)

	response.OK(w, map[string]any{
		"history":           st.Chat.History(),
		"status":            st.Chat.Status(),
		"active_session_id": st.Chat.ActiveSessionID(),
	})
}
