package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mammyai/chat-gateway/internal/domain"
	"github.com/rs/zerolog/log"
)

// Options configures a ChatService
type Options struct {
	AgentName      string
	HistoryAgent   string
	SystemPrompt   string
	SessionTTLDays int
	CookiePrefix   string
	UserCookieName string
}

func (o Options) withDefaults() Options {
	if o.AgentName == "" {
		o.AgentName = "core_agent"
	}
	if o.HistoryAgent == "" {
		o.HistoryAgent = "mammy_assistant"
	}
	if o.SessionTTLDays <= 0 {
		o.SessionTTLDays = DefaultSessionTTLDays
	}
	if o.CookiePrefix == "" {
		o.CookiePrefix = SessionCookiePrefix
	}
	if o.UserCookieName == "" {
		o.UserCookieName = UserCookieName
	}
	return o
}

// ChatService is the session state machine: it composes the session
// registry, history store, streaming assembler and tool-call orchestrator,
// and exposes the operations UI collaborators call. One instance per client
// context; collaborators hold a reference, there is no ambient singleton.
type ChatService struct {
	transport domain.AgentTransport
	registry  *SessionRegistry
	history   *HistoryStore
	tools     *ToolOrchestrator
	assembler *Assembler
	nav       domain.Navigator
	opts      Options

	mu              sync.Mutex
	status          domain.Status
	activeSessionID string
	streaming       bool

	followUps sync.WaitGroup
}

// NewChatService wires a state machine over the given collaborators
func NewChatService(transport domain.AgentTransport, cookies domain.CookieStore, nav domain.Navigator, opts Options) *ChatService {
	opts = opts.withDefaults()

	history := NewHistoryStore()
	tools := NewToolOrchestrator(history)

	c := &ChatService{
		transport: transport,
		registry:  NewSessionRegistry(cookies, opts.SessionTTLDays, opts.CookiePrefix, opts.UserCookieName),
		history:   history,
		tools:     tools,
		assembler: NewAssembler(history, tools),
		nav:       nav,
		opts:      opts,
		status:    domain.StatusIdle,
	}
	tools.followUp = c.sendFollowUp
	return c
}

// RegisterTool installs a handler for a client-side tool
func (c *ChatService) RegisterTool(name string, fn ToolHandler) {
	c.tools.RegisterHandler(name, fn)
}

// SendMessage runs one streamed send cycle for the active session, creating
// a session when none is active. At most one streamed send may be
// outstanding; a second attempt returns ErrSendInProgress without touching
// history or issuing a request.
func (c *ChatService) SendMessage(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.streaming {
		c.mu.Unlock()
		return domain.ErrSendInProgress
	}
	c.streaming = true
	c.status = domain.StatusLoading
	c.mu.Unlock()

	userID := c.registry.EnsureUserID()

	sessionID := c.ActiveSessionID()
	if sessionID == "" {
		sessionID = uuid.NewString()
		// the first message seeds the session label
		c.registry.SetSessionCookie(sessionID, text, 0)
		c.setActive(sessionID)
	} else if existing, ok := c.registry.Session(sessionID); ok {
		// refresh the TTL without touching the seeded label
		c.registry.SetSessionCookie(sessionID, existing.Label, 0)
	}

	userMsg := domain.TextMessage(domain.RoleUser, text)
	c.history.Append(userMsg)
	c.history.EnsureTrailingAssistantPlaceholder()
	epoch := c.history.Epoch()

	req := domain.SendMessageRequest{
		System:    c.opts.SystemPrompt,
		Tools:     c.tools.DeclaredTools(),
		Messages:  []domain.ChatMessage{userMsg},
		UserID:    userID,
		SessionID: sessionID,
		Agent:     c.opts.AgentName,
	}

	events, err := c.transport.SendMessageStream(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to open message stream")
		c.failSend(epoch)
		return nil
	}

	for ev := range events {
		if ev.Err != nil {
			log.Error().Err(ev.Err).Str("session_id", sessionID).Msg("message stream failed")
			c.failSend(epoch)
			return nil
		}
		if ev.Answer != nil {
			c.assembler.Fold(ctx, *ev.Answer, req, epoch)
		}
	}

	c.finishSend(domain.StatusSuccess)
	return nil
}

// sendFollowUp re-enters the send cycle with the tool-result follow-up.
// It is not gated by the streaming flag and completes independently of the
// stream still in progress; only appends race, last-appended-wins. The
// epoch is the history generation at enqueue time, so a follow-up that
// outlives a session switch folds into nothing.
func (c *ChatService) sendFollowUp(ctx context.Context, req domain.SendMessageRequest, epoch uint64) {
	ctx = context.WithoutCancel(ctx)
	c.followUps.Add(1)
	go func() {
		defer c.followUps.Done()

		resp, err := c.transport.SendMessage(ctx, req)
		if err != nil {
			log.Error().Err(err).Msg("tool-result follow-up send failed")
			if c.history.Epoch() == epoch {
				c.history.Append(domain.TextMessage(domain.RoleAssistant, FailedSendText))
			}
			c.setStatus(domain.StatusError)
			return
		}

		c.assembler.Fold(ctx, resp.Answer, req, epoch)
		c.setStatus(domain.StatusSuccess)
	}()
}

// failSend records the fixed failure message and ends the cycle in error.
// Prior history stays untouched; the trailing assistant message (the
// placeholder, or partial text) is replaced rather than duplicated.
func (c *ChatService) failSend(epoch uint64) {
	if c.history.Epoch() == epoch {
		failMsg := domain.TextMessage(domain.RoleAssistant, FailedSendText)
		if !c.history.ReplaceLast(IsAssistant, failMsg) {
			c.history.Append(failMsg)
		}
	}
	c.finishSend(domain.StatusError)
}

func (c *ChatService) finishSend(status domain.Status) {
	c.mu.Lock()
	c.status = status
	c.streaming = false
	c.mu.Unlock()
}

// SelectSession makes a session active, emits the navigation intent, and
// loads its stored history.
func (c *ChatService) SelectSession(ctx context.Context, sessionID string) error {
	c.setActive(sessionID)
	return c.LoadHistory(ctx, sessionID)
}

// LoadHistory replaces history with the session's stored conversation.
// On failure, history resets to empty and status turns to error.
func (c *ChatService) LoadHistory(ctx context.Context, sessionID string) error {
	c.setStatus(domain.StatusLoading)

	resp, err := c.transport.FetchHistory(ctx, domain.HistoryRequest{
		SessionID: sessionID,
		UserID:    c.registry.EnsureUserID(),
		Agent:     c.opts.HistoryAgent,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to fetch history")
		c.history.Reset()
		c.setStatus(domain.StatusError)
		return fmt.Errorf("%w: %s", domain.ErrHistoryNotFound, sessionID)
	}

	c.history.ReplaceAll(flattenHistory(resp.Results))

	c.mu.Lock()
	c.activeSessionID = sessionID
	c.status = domain.StatusSuccess
	c.mu.Unlock()
	return nil
}

// NewChat creates a fresh session and makes it active
func (c *ChatService) NewChat(label string) domain.Session {
	if label == "" {
		label = "New Chat"
	}
	sessionID := uuid.NewString()
	c.registry.SetSessionCookie(sessionID, label, 0)
	c.history.Reset()
	c.setActive(sessionID)

	s, _ := c.registry.Session(sessionID)
	return s
}

// DeleteSession expires the session cookie. When the deleted session was
// active, active state clears, history resets, and the default-route
// navigation intent fires. The backend copy is dropped best-effort.
func (c *ChatService) DeleteSession(ctx context.Context, sessionID string) {
	userID := c.registry.EnsureUserID()
	c.registry.DeleteSession(sessionID)

	if c.ActiveSessionID() == sessionID {
		c.mu.Lock()
		c.activeSessionID = ""
		c.mu.Unlock()
		c.history.Reset()
		c.nav.NavigateHome()
	}

	if err := c.transport.DeleteChat(ctx, domain.DeleteChatRequest{
		SessionID: sessionID,
		UserID:    userID,
		Agent:     c.opts.HistoryAgent,
	}); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to delete stored chat")
	}
}

// SessionGroups derives the grouped session list from live cookies
func (c *ChatService) SessionGroups() domain.SessionGroups {
	return c.registry.SessionGroups()
}

// History returns a snapshot of the active conversation
func (c *ChatService) History() []domain.ChatMessage {
	return c.history.Snapshot()
}

// Subscribe registers a listener for history changes
func (c *ChatService) Subscribe(fn func([]domain.ChatMessage)) func() {
	return c.history.Subscribe(fn)
}

// Status returns the current request lifecycle state
func (c *ChatService) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ActiveSessionID returns the active session id, or "" when none is active
func (c *ChatService) ActiveSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeSessionID
}

// IsStreaming reports whether a streamed send is outstanding
func (c *ChatService) IsStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

func (c *ChatService) setActive(sessionID string) {
	c.mu.Lock()
	c.activeSessionID = sessionID
	c.mu.Unlock()
	c.nav.NavigateToSession(sessionID)
}

func (c *ChatService) setStatus(status domain.Status) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

// historyRecord is one stored {role, text} entry; text is a plain string
// for user turns and a content array for assistant turns.
type historyRecord struct {
	Role domain.MessageRole `json:"role"`
	Text json.RawMessage    `json:"text"`
}

// flattenHistory decodes each stored entry and flattens the records into
// one message sequence, preserving source order across entries. Entries
// that fail to decode are skipped.
func flattenHistory(entries []domain.HistoryEntry) []domain.ChatMessage {
	var messages []domain.ChatMessage
	for _, entry := range entries {
		var records []historyRecord
		if err := json.Unmarshal([]byte(entry.Text), &records); err != nil {
			log.Warn().Err(err).Msg("skipping malformed history entry")
			continue
		}
		for _, rec := range records {
			messages = append(messages, domain.ChatMessage{
				Role:    rec.Role,
				Content: recordContent(rec.Text),
			})
		}
	}
	return messages
}

func recordContent(raw json.RawMessage) []domain.MessageContent {
	var items []domain.MessageContent
	if err := json.Unmarshal(raw, &items); err == nil {
		return items
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []domain.MessageContent{domain.TextContent(text)}
	}
	return []domain.MessageContent{domain.TextContent(string(raw))}
}
