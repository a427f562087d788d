package domain

import "context"

// FrontendTool declares a client-executable tool on an outbound request
type FrontendTool struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Parameters  map[string]string `json:"parameters"`
}

// SendMessageRequest is the payload of a chat turn sent to the agent backend
type SendMessageRequest struct {
	System    string         `json:"system,omitempty"`
	Tools     []FrontendTool `json:"tools"`
	Messages  []ChatMessage  `json:"messages" validate:"required,min=1"`
	UserID    string         `json:"user_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Agent     string         `json:"agent,omitempty"`
}

// SendMessageResponse carries one (possibly partial) assistant answer
type SendMessageResponse struct {
	Answer ChatMessage `json:"answer"`
}

// StreamEvent is one element of a streamed send. Err is non-nil only for
// the terminal failure event; the channel closes after it.
type StreamEvent struct {
	Answer *ChatMessage
	Err    error
}

// HistoryRequest identifies a stored conversation on the agent backend
type HistoryRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Agent     string `json:"agent"`
}

// HistoryEntry is one stored history blob; Text is a JSON-encoded array of
// {role, text} records.
type HistoryEntry struct {
	Text string `json:"text"`
}

// HistoryResponse is the agent backend's stored-history payload
type HistoryResponse struct {
	Results []HistoryEntry `json:"results"`
}

// DeleteChatRequest asks the agent backend to drop a stored conversation
type DeleteChatRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Agent     string `json:"agent"`
}

// AgentTransport is the HTTP collaborator that talks to the agent backend
type AgentTransport interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error)
	SendMessageStream(ctx context.Context, req SendMessageRequest) (<-chan StreamEvent, error)
	FetchHistory(ctx context.Context, req HistoryRequest) (*HistoryResponse, error)
	DeleteChat(ctx context.Context, req DeleteChatRequest) error
}
