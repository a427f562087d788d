package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClient_SendMessage(t *testing.T) {
	var received domain.SendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(domain.SendMessageResponse{
			Answer: domain.TextMessage(domain.RoleAssistant, "final answer"),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	resp, err := client.SendMessage(context.Background(), domain.SendMessageRequest{
		Messages: []domain.ChatMessage{domain.TextMessage(domain.RoleUser, "hello")},
		Agent:    "core_agent",
	})

	assert.NoError(t, err)
	assert.Equal(t, "final answer", resp.Answer.FirstText())
	assert.Equal(t, "core_agent", received.Agent)
	assert.Len(t, received.Messages, 1)
}

func TestClient_SendMessageNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.SendMessage(context.Background(), domain.SendMessageRequest{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_SendMessageStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/stream", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, `data: {"answer":{"role":"assistant","content":[{"type":"text","text":"Hel"}]}}`+"\n\n")
		fmt.Fprint(w, `data: {"answer":{"role":"assistant","content":[{"type":"text","text":"Hello"}]}}`+"\n\n")
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, `data: {"answer":{"role":"assistant","content":[{"type":"text","text":"after done"}]}}`+"\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	events, err := client.SendMessageStream(context.Background(), domain.SendMessageRequest{})
	assert.NoError(t, err)

	var texts []string
	for ev := range events {
		assert.NoError(t, ev.Err)
		texts = append(texts, ev.Answer.FirstText())
	}

	// comment lines and undecodable events are skipped, nothing after [DONE]
	assert.Equal(t, []string{"Hel", "Hello"}, texts)
}

func TestClient_SendMessageStreamNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.SendMessageStream(context.Background(), domain.SendMessageRequest{})

	assert.Error(t, err)
}

func TestClient_FetchHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/chat/history", r.URL.Path)
		assert.Equal(t, "abc-123", r.URL.Query().Get("session_id"))
		assert.Equal(t, "user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "mammy_assistant", r.URL.Query().Get("agent"))

		json.NewEncoder(w).Encode(domain.HistoryResponse{
			Results: []domain.HistoryEntry{{Text: `[{"role":"user","text":"hi"}]`}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	resp, err := client.FetchHistory(context.Background(), domain.HistoryRequest{
		SessionID: "abc-123",
		UserID:    "user-1",
		Agent:     "mammy_assistant",
	})

	assert.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestClient_DeleteChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/delete", r.URL.Path)

		var req domain.DeleteChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abc-123", req.SessionID)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	err := client.DeleteChat(context.Background(), domain.DeleteChatRequest{SessionID: "abc-123"})

	assert.NoError(t, err)
}
