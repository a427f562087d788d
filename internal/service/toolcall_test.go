package service

import (
	"context"
	"testing"

	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestToolOrchestrator_ExecutesDeclaredTool(t *testing.T) {
	history := NewHistoryStore()
	o := NewToolOrchestrator(history)
	o.RegisterHandler("lookup_weather", func(args domain.ToolArgs) map[string]any {
		return map[string]any{"city": args["city"], "temp_c": 31}
	})

	var followUpReq domain.SendMessageRequest
	followUpCalls := 0
	o.followUp = func(_ context.Context, req domain.SendMessageRequest, _ uint64) {
		followUpCalls++
		followUpReq = req
	}

	userMsg := domain.TextMessage(domain.RoleUser, "weather in Hanoi?")
	req := domain.SendMessageRequest{
		Tools:    []domain.FrontendTool{{Name: "lookup_weather", Parameters: map[string]string{}}},
		Messages: []domain.ChatMessage{userMsg},
		Agent:    "core_agent",
	}
	call := domain.MessageContent{
		Type:       domain.ContentToolCall,
		ToolCallID: "tc-1",
		ToolName:   "lookup_weather",
		Args:       domain.ToolArgs{"city": "Hanoi"},
	}

	o.HandleToolCall(context.Background(), call, req)

	snapshot := history.Snapshot()
	assert.Len(t, snapshot, 2)

	toolMsg := snapshot[0]
	assert.Equal(t, domain.RoleTool, toolMsg.Role)
	assert.Equal(t, domain.ContentToolResult, toolMsg.Content[0].Type)
	assert.Equal(t, "tc-1", toolMsg.Content[0].ToolCallID)
	assert.Equal(t, "Hanoi", toolMsg.Content[0].Result.Values["city"])
	assert.False(t, toolMsg.Content[0].IsError)

	assert.Equal(t, domain.RoleAssistant, snapshot[1].Role)
	assert.Equal(t, "City: Hanoi\nTemp C: 31", snapshot[1].FirstText())

	assert.Equal(t, 1, followUpCalls)
	assert.Equal(t, []domain.ChatMessage{userMsg, toolMsg}, followUpReq.Messages)
	assert.Equal(t, "core_agent", followUpReq.Agent)
}

func TestToolOrchestrator_DefaultHandlerWhenNoneRegistered(t *testing.T) {
	history := NewHistoryStore()
	o := NewToolOrchestrator(history)
	o.RegisterHandler("lookup_weather", nil)
	o.followUp = func(context.Context, domain.SendMessageRequest, uint64) {}

	req := domain.SendMessageRequest{
		Tools: []domain.FrontendTool{{Name: "lookup_weather", Parameters: map[string]string{}}},
	}
	call := domain.MessageContent{Type: domain.ContentToolCall, ToolCallID: "tc-1", ToolName: "lookup_weather"}

	o.HandleToolCall(context.Background(), call, req)

	snapshot := history.Snapshot()
	assert.Len(t, snapshot, 2)
	assert.Equal(t, "Frontend tool result", snapshot[0].Content[0].Result.Values["mockResult"])
	assert.Equal(t, "MockResult: Frontend tool result", snapshot[1].FirstText())
}

func TestToolOrchestrator_SkipsBackendResolvedTool(t *testing.T) {
	history := NewHistoryStore()
	o := NewToolOrchestrator(history)
	o.followUp = func(context.Context, domain.SendMessageRequest, uint64) {
		t.Fatal("follow-up must not fire for backend-resolved tools")
	}

	call := domain.MessageContent{Type: domain.ContentToolCall, ToolName: "get_stock_price"}
	o.HandleToolCall(context.Background(), call, domain.SendMessageRequest{})

	assert.Equal(t, 0, history.Len())
}

func TestToolOrchestrator_DropsUndeclaredTool(t *testing.T) {
	history := NewHistoryStore()
	o := NewToolOrchestrator(history)
	o.followUp = func(context.Context, domain.SendMessageRequest, uint64) {
		t.Fatal("follow-up must not fire for undeclared tools")
	}

	call := domain.MessageContent{Type: domain.ContentToolCall, ToolName: "mystery_tool"}
	o.HandleToolCall(context.Background(), call, domain.SendMessageRequest{})

	assert.Equal(t, 0, history.Len())
}

func TestToolOrchestrator_DeclaredTools(t *testing.T) {
	o := NewToolOrchestrator(NewHistoryStore())
	assert.Empty(t, o.DeclaredTools())

	o.RegisterHandler("lookup_weather", nil)
	tools := o.DeclaredTools()
	assert.Len(t, tools, 1)
	assert.Equal(t, "lookup_weather", tools[0].Name)
	assert.NotNil(t, tools[0].Parameters)
}
