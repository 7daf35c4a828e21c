// ABOUTME: Store interface and data types for chatrelay persistence
// ABOUTME: Defines Chat, Message, User structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist,
// or exists but is owned by a different user. The two cases are
// deliberately indistinguishable so callers cannot probe for chats
// belonging to other owners.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registering a user with an email
// that is already taken.
var ErrDuplicateEmail = errors.New("email already exists")

// DefaultTitle is the sentinel title assigned to every new chat.
// A chat whose title still equals this value has not yet had a title
// derived from its first user message.
const DefaultTitle = "New Chat"

// Role constants for message authorship. The set is closed: the schema
// rejects any other value.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat represents a conversation thread owned by a single user.
// Messages are only populated by GetChat; list operations return summaries.
type Chat struct {
	ID        string
	OwnerID   string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []Message
}

// ChatSummary is the list view of a chat: metadata without message bodies.
type ChatSummary struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single turn in a chat, authored by "user" or "assistant".
type Message struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

// User is an account that can own chats.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AppendRequest describes an atomic append to a chat's message sequence.
// Title, when non-empty, is applied only if the chat's title still equals
// DefaultTitle; a chat whose title was already derived keeps it.
type AppendRequest struct {
	ChatID   string
	OwnerID  string
	Messages []Message
	Title    string
}

// ChatStore defines chat persistence. Every operation that takes an
// ownerID is scoped to that owner; a chat belonging to someone else
// behaves exactly like a missing chat.
type ChatStore interface {
	CreateChat(ctx context.Context, chat *Chat) error
	GetChat(ctx context.Context, chatID, ownerID string) (*Chat, error)
	ListChats(ctx context.Context, ownerID string) ([]ChatSummary, error)
	AppendMessages(ctx context.Context, req *AppendRequest) (*Chat, error)
	DeleteChat(ctx context.Context, chatID, ownerID string) error
}

// UserStore defines account persistence for the identity layer.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// Store combines chat and user persistence.
type Store interface {
	ChatStore
	UserStore

	// Close releases any resources held by the store
	Close() error
}
