package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/rs/zerolog/log"
)

const streamDoneMarker = "[DONE]"

// Client talks to the agent backend over HTTP. It implements
// domain.AgentTransport.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the agent backend
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// SendMessage submits a chat turn and waits for the single final answer
func (c *Client) SendMessage(ctx context.Context, req domain.SendMessageRequest) (*domain.SendMessageResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent backend returned status %d", resp.StatusCode)
	}

	var out domain.SendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// SendMessageStream submits a chat turn and yields each partial answer as
// it arrives. The returned channel closes after the terminal event; a
// stream failure is delivered as the final event's Err.
func (c *Client) SendMessageStream(ctx context.Context, req domain.SendMessageRequest) (<-chan domain.StreamEvent, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("agent backend returned status %d", resp.StatusCode)
	}

	events := make(chan domain.StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, ":") {
				continue
			}
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == streamDoneMarker {
				return
			}

			var ev domain.SendMessageResponse
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				log.Debug().Err(err).Msg("skipping undecodable stream event")
				continue
			}
			answer := ev.Answer
			events <- domain.StreamEvent{Answer: &answer}
		}

		if err := scanner.Err(); err != nil {
			events <- domain.StreamEvent{Err: fmt.Errorf("stream read failed: %w", err)}
		}
	}()

	return events, nil
}

// FetchHistory retrieves the stored conversation for a session
func (c *Client) FetchHistory(ctx context.Context, req domain.HistoryRequest) (*domain.HistoryResponse, error) {
	q := url.Values{}
	q.Set("session_id", req.SessionID)
	q.Set("user_id", req.UserID)
	q.Set("agent", req.Agent)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/chat/history?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent backend returned status %d", resp.StatusCode)
	}

	var out domain.HistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return &out, nil
}

// DeleteChat drops the stored conversation for a session
func (c *Client) DeleteChat(ctx context.Context, req domain.DeleteChatRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/delete", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("agent backend returned status %d", resp.StatusCode)
	}
	return nil
}
