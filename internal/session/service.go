// ABOUTME: Session service orchestrating chat lifecycle and the send-message protocol
// ABOUTME: Validates input, calls the inference engine, persists both turns atomically

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatrelay/internal/inference"
	"chatrelay/internal/store"
)

// Validation errors, surfaced to clients as 400s.
var (
	ErrEmptyMessage = errors.New("message is required")
	ErrMissingChat  = errors.New("chatId is required")
)

// PlaceholderTitle is used when a first message collapses to nothing
// usable for a title.
const PlaceholderTitle = "New Conversation"

// maxTitleLen bounds derived chat titles.
const maxTitleLen = 60

// Generator defines what the service needs from the inference layer.
type Generator interface {
	Generate(ctx context.Context, req *inference.GenerateRequest) (string, error)
	ClearSession(ctx context.Context, sessionID string) error
}

// Service implements chat lifecycle operations and the send-message
// protocol on top of the chat store and the inference engine.
type Service struct {
	store  store.ChatStore
	engine Generator
	logger *slog.Logger
}

// New creates a session service.
func New(chatStore store.ChatStore, engine Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  chatStore,
		engine: engine,
		logger: logger.With("component", "session"),
	}
}

// CreatedChat is the response view for chat creation.
type CreatedChat struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// CreateChat creates a new empty chat for the owner.
func (s *Service) CreateChat(ctx context.Context, ownerID string) (*CreatedChat, error) {
	now := time.Now().UTC()
	chat := &store.Chat{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Title:     store.DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	s.logger.Debug("chat created", "chat_id", chat.ID, "owner_id", ownerID)
	return &CreatedChat{
		ID:        chat.ID,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt,
	}, nil
}

// ListChats returns the owner's chats, most recently active first.
func (s *Service) ListChats(ctx context.Context, ownerID string) ([]store.ChatSummary, error) {
	return s.store.ListChats(ctx, ownerID)
}

// LoadChat returns a full chat including its messages.
// Propagates store.ErrNotFound for missing or foreign chats.
func (s *Service) LoadChat(ctx context.Context, chatID, ownerID string) (*store.Chat, error) {
	return s.store.GetChat(ctx, chatID, ownerID)
}

// DeleteChat removes the chat and all its messages, then asks the engine
// to drop its session memory. The engine call is best-effort: the chat is
// already gone, and a stale engine session only wastes its memory.
func (s *Service) DeleteChat(ctx context.Context, chatID, ownerID string) error {
	if err := s.store.DeleteChat(ctx, chatID, ownerID); err != nil {
		return err
	}

	go func() {
		clearCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.engine.ClearSession(clearCtx, chatID); err != nil {
			s.logger.Debug("engine session clear failed", "chat_id", chatID, "error", err)
		}
	}()

	s.logger.Debug("chat deleted", "chat_id", chatID, "owner_id", ownerID)
	return nil
}

// SendRequest carries one send-message call.
type SendRequest struct {
	ChatID  string
	OwnerID string
	Message string

	// Credential is forwarded opaquely to the engine.
	Credential string
}

// SendMessage runs the send-message protocol:
//
//  1. Validate: message must not trim to empty, chat ID must be present.
//  2. Load the chat, scoped to the owner.
//  3. Call the engine under its timeout. If the call fails nothing is
//     persisted; the exchange is all-or-nothing from the caller's view.
//  4. Atomically append the user turn then the assistant turn.
//  5. Derive a title from the first user message if the chat still
//     carries the sentinel title.
//
// Returns the generated assistant text.
func (s *Service) SendMessage(ctx context.Context, req *SendRequest) (string, error) {
	trimmed := strings.TrimSpace(req.Message)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	if req.ChatID == "" {
		return "", ErrMissingChat
	}

	chat, err := s.store.GetChat(ctx, req.ChatID, req.OwnerID)
	if err != nil {
		return "", err
	}

	reply, err := s.engine.Generate(ctx, &inference.GenerateRequest{
		Message:    trimmed,
		SessionID:  chat.ID,
		Credential: req.Credential,
	})
	if err != nil {
		s.logger.Warn("generation failed", "chat_id", chat.ID, "error", err)
		return "", err
	}

	now := time.Now().UTC()
	exchange := &store.AppendRequest{
		ChatID:  chat.ID,
		OwnerID: req.OwnerID,
		Messages: []store.Message{
			{Role: store.RoleUser, Content: trimmed, CreatedAt: now},
			{Role: store.RoleAssistant, Content: reply, CreatedAt: now},
		},
	}

	// Title derivation is keyed off "title still sentinel", not message
	// count, so resends cannot re-derive. The store applies it with a
	// conditional update, which also settles races between two first
	// sends.
	if chat.Title == store.DefaultTitle {
		exchange.Title = DeriveTitle(firstUserMessage(chat, trimmed))
	}

	if _, err := s.store.AppendMessages(ctx, exchange); err != nil {
		return "", fmt.Errorf("persisting exchange: %w", err)
	}

	s.logger.Debug("message exchanged", "chat_id", chat.ID)
	return reply, nil
}

// firstUserMessage returns the content the title should derive from: the
// chat's earliest user turn, or the incoming message when the chat is
// still empty.
func firstUserMessage(chat *store.Chat, incoming string) string {
	for _, msg := range chat.Messages {
		if msg.Role == store.RoleUser {
			return msg.Content
		}
	}
	return incoming
}

// DeriveTitle turns a first user message into a chat title: whitespace
// runs collapse to single spaces, the result is cut to 60 characters and
// trimmed. An empty result falls back to PlaceholderTitle.
func DeriveTitle(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen])
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return PlaceholderTitle
	}
	return title
}
