package service

import (
	"context"

	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/rs/zerolog/log"
)

// backendResolvedTools are resolved by the agent backend itself; their
// results arrive later through the normal stream, so the orchestrator must
// not double-handle them.
var backendResolvedTools = map[string]struct{}{
	"get_stock_price": {},
}

// ToolHandler executes a client-side tool and returns its key/value result
type ToolHandler func(args domain.ToolArgs) map[string]any

// defaultToolHandler stands in for tools declared without a registered
// handler; real handlers are an external collaborator.
func defaultToolHandler(domain.ToolArgs) map[string]any {
	return map[string]any{"mockResult": "Frontend tool result"}
}

// ToolOrchestrator drives the tool-call branch of a response: it decides
// whether a tool call is the backend's to resolve, executes client-declared
// tools, records their results in history, and re-enters the send cycle
// with a non-streaming follow-up.
type ToolOrchestrator struct {
	history  *HistoryStore
	handlers map[string]ToolHandler

	// followUp submits the secondary send; provided by the state machine so
	// its completion can update status independently of the live stream.
	// The epoch pins the follow-up to the history it was enqueued against.
	followUp func(ctx context.Context, req domain.SendMessageRequest, epoch uint64)
}

// NewToolOrchestrator creates an orchestrator bound to the given history
func NewToolOrchestrator(history *HistoryStore) *ToolOrchestrator {
	return &ToolOrchestrator{
		history:  history,
		handlers: make(map[string]ToolHandler),
	}
}

// RegisterHandler installs the handler for a client-side tool name
func (o *ToolOrchestrator) RegisterHandler(name string, fn ToolHandler) {
	o.handlers[name] = fn
}

// HandleToolCall processes one tool-call content item against the request
// that produced it.
func (o *ToolOrchestrator) HandleToolCall(ctx context.Context, call domain.MessageContent, req domain.SendMessageRequest) {
	if _, ok := backendResolvedTools[call.ToolName]; ok {
		// the backend resolves this one; its tool-result comes via the stream
		return
	}

	declared := false
	for _, t := range req.Tools {
		if t.Name == call.ToolName {
			declared = true
			break
		}
	}
	if !declared {
		// current behavior: undeclared tool names are dropped without
		// surfacing an error to the user
		log.Warn().Str("tool", call.ToolName).Msg("dropping tool call for undeclared tool")
		return
	}

	handler := o.handlers[call.ToolName]
	if handler == nil {
		handler = defaultToolHandler
	}
	result := handler(call.Args)

	toolMsg := domain.ChatMessage{
		Role: domain.RoleTool,
		Content: []domain.MessageContent{{
			Type:       domain.ContentToolResult,
			ToolCallID: call.ToolCallID,
			ToolName:   call.ToolName,
			Result:     &domain.ToolResult{Values: result},
			IsError:    false,
		}},
	}
	o.history.Append(toolMsg)
	// companion rendering so the result reads immediately, before the
	// follow-up answer lands
	o.history.Append(domain.TextMessage(domain.RoleAssistant, Prettify(result)))

	if o.followUp == nil {
		return
	}

	messages := make([]domain.ChatMessage, 0, len(req.Messages)+1)
	messages = append(messages, req.Messages...)
	messages = append(messages, toolMsg)

	o.followUp(ctx, domain.SendMessageRequest{
		System:    req.System,
		Tools:     req.Tools,
		Messages:  messages,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Agent:     req.Agent,
	}, o.history.Epoch())
}

// DeclaredTools lists the registered client-side tools as request
// declarations.
func (o *ToolOrchestrator) DeclaredTools() []domain.FrontendTool {
	tools := make([]domain.FrontendTool, 0, len(o.handlers))
	for name := range o.handlers {
		tools = append(tools, domain.FrontendTool{Name: name, Parameters: map[string]string{}})
	}
	return tools
}
