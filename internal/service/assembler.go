package service

import (
	"context"
	"encoding/json"

	"github.com/mammyai/chat-gateway/internal/domain"
)

// FailedSendText is the fixed assistant message appended when a send fails
const FailedSendText = "⚠️ Gửi tin nhắn thất bại."

// Assembler folds response events into the history store. Each event
// carries a partial or full answer; folding dispatches per content item.
// An assembler run is bound to the history epoch it started on, so events
// from a stream whose session was abandoned fold into nothing.
type Assembler struct {
	history *HistoryStore
	tools   *ToolOrchestrator
}

// NewAssembler creates an assembler over the given history and orchestrator
func NewAssembler(history *HistoryStore, tools *ToolOrchestrator) *Assembler {
	return &Assembler{history: history, tools: tools}
}

// Fold applies one answer to history. req is the outbound request that
// produced the stream, needed by the tool-call branch. epoch is the history
// generation the run started on; a stale epoch makes Fold a no-op.
func (a *Assembler) Fold(ctx context.Context, answer domain.ChatMessage, req domain.SendMessageRequest, epoch uint64) {
	if a.history.Epoch() != epoch {
		return
	}

	for _, item := range answer.Content {
		switch item.Type {
		case domain.ContentText:
			a.foldText(item.Text)
		case domain.ContentImage:
			a.history.MergeContentIntoLast(IsTool, domain.RoleTool, item)
		case domain.ContentToolCall:
			a.tools.HandleToolCall(ctx, item, req)
		case domain.ContentToolResult:
			a.history.Append(domain.ChatMessage{
				Role:    domain.RoleTool,
				Content: toolResultContent(item),
			})
		}
	}
}

// foldText treats each text item as the cumulative text so far, not a
// delta: last write wins. An echo identical to the current trailing
// assistant text is a no-op.
func (a *Assembler) foldText(text string) {
	if last, ok := a.history.Last(); ok && last.Role == domain.RoleAssistant {
		if last.FirstText() == text {
			return
		}
		a.history.ReplaceLast(IsAssistant, domain.TextMessage(domain.RoleAssistant, text))
		return
	}
	a.history.Append(domain.TextMessage(domain.RoleAssistant, text))
}

// toolResultContent extracts the content items carried by a tool result.
// The backend sometimes double-encodes the content array as a JSON string;
// parse failures fall back to a single prettified text item.
func toolResultContent(item domain.MessageContent) []domain.MessageContent {
	r := item.Result
	if r == nil {
		return []domain.MessageContent{item}
	}

	if len(r.Content) > 0 {
		var encoded string
		if err := json.Unmarshal(r.Content, &encoded); err == nil {
			var items []domain.MessageContent
			if err := json.Unmarshal([]byte(encoded), &items); err == nil {
				return items
			}
		} else {
			var items []domain.MessageContent
			if err := json.Unmarshal(r.Content, &items); err == nil {
				return items
			}
		}
	}

	switch {
	case r.Values != nil:
		return []domain.MessageContent{domain.TextContent(Prettify(r.Values))}
	case r.Summary != "":
		return []domain.MessageContent{domain.TextContent(r.Summary)}
	default:
		return []domain.MessageContent{domain.TextContent(string(r.Content))}
	}
}
