package domain

import "encoding/json"

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ContentType discriminates the variants of a content item
type ContentType string

const (
	ContentText       ContentType = "text"
	ContentImage      ContentType = "image"
	ContentFile       ContentType = "file"
	ContentToolCall   ContentType = "tool-call"
	ContentToolResult ContentType = "tool-result"
)

// ToolArgs carries the arguments of a tool invocation, keyed by parameter name
type ToolArgs map[string]any

// ToolResult is the payload of a tool-result content item. Backend-delivered
// results carry Summary plus a raw Content block (a JSON array of content
// items, sometimes double-encoded as a string); client-executed tools carry
// their handler output in Values. Marshalling stays wire-compatible with the
// untyped "result" field of the agent protocol.
type ToolResult struct {
	Summary string          `json:"result,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`

	Values map[string]any `json:"-"`
}

// MarshalJSON emits Values directly when set so client-executed tool results
// keep the flat key/value shape the agent backend expects.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	if r.Values != nil {
		return json.Marshal(r.Values)
	}
	type wire ToolResult
	return json.Marshal(wire(r))
}

// UnmarshalJSON accepts the structured {result, content} shape, a flat
// key/value object, or a bare string summary.
func (r *ToolResult) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Summary = s
		return nil
	}

	type wire ToolResult
	var w wire
	if err := json.Unmarshal(data, &w); err == nil && (w.Summary != "" || len(w.Content) > 0) {
		*r = ToolResult(w)
		return nil
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	r.Values = values
	return nil
}

// MessageContent is one typed unit of message payload. Type selects the
// variant; only the fields of that variant are populated.
type MessageContent struct {
	Type ContentType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// image
	Image string `json:"image,omitempty"`

	// image or file
	MimeType string `json:"mimeType,omitempty"`

	// file
	Data string `json:"data,omitempty"`

	// tool-call and tool-result
	ToolCallID string `json:"toolCallId,omitempty"`
	ToolName   string `json:"toolName,omitempty"`

	// tool-call
	Args ToolArgs `json:"args,omitempty"`

	// tool-result
	Result  *ToolResult `json:"result,omitempty"`
	IsError bool        `json:"isError,omitempty"`
}

// TextContent builds a text content item
func TextContent(text string) MessageContent {
	return MessageContent{Type: ContentText, Text: text}
}

// ChatMessage represents one turn of a conversation
type ChatMessage struct {
	Role    MessageRole      `json:"role"`
	Content []MessageContent `json:"content"`
}

// TextMessage builds a single-item text message
func TextMessage(role MessageRole, text string) ChatMessage {
	return ChatMessage{Role: role, Content: []MessageContent{TextContent(text)}}
}

// FirstText returns the text of the first content item, or "" when the
// message has no content.
func (m ChatMessage) FirstText() string {
	if len(m.Content) == 0 {
		return ""
	}
	return m.Content[0].Text
}
