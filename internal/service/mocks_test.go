package service

import (
	"context"

	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockTransport mocks the AgentTransport interface
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) SendMessage(ctx context.Context, req domain.SendMessageRequest) (*domain.SendMessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SendMessageResponse), args.Error(1)
}

func (m *MockTransport) SendMessageStream(ctx context.Context, req domain.SendMessageRequest) (<-chan domain.StreamEvent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamEvent), args.Error(1)
}

func (m *MockTransport) FetchHistory(ctx context.Context, req domain.HistoryRequest) (*domain.HistoryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistoryResponse), args.Error(1)
}

func (m *MockTransport) DeleteChat(ctx context.Context, req domain.DeleteChatRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockNavigator mocks the Navigator interface
type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) NavigateToSession(sessionID string) {
	m.Called(sessionID)
}

func (m *MockNavigator) NavigateHome() {
	m.Called()
}

// eventChannel builds a closed stream carrying the given events
func eventChannel(events ...domain.StreamEvent) <-chan domain.StreamEvent {
	ch := make(chan domain.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

// answerEvent wraps an answer message as a stream event
func answerEvent(answer domain.ChatMessage) domain.StreamEvent {
	return domain.StreamEvent{Answer: &answer}
}
