// ABOUTME: Tests for the session service
// ABOUTME: Covers the send-message protocol, title derivation, and delete cleanup

package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/inference"
	"chatrelay/internal/store"
)

// stubEngine is a scriptable Generator.
type stubEngine struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []*inference.GenerateRequest
	cleared  []string
}

func (e *stubEngine) Generate(_ context.Context, req *inference.GenerateRequest) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, req)
	if e.err != nil {
		return "", e.err
	}
	return e.reply, nil
}

func (e *stubEngine) ClearSession(_ context.Context, sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleared = append(e.cleared, sessionID)
	return nil
}

func (e *stubEngine) clearedSessions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.cleared...)
}

func newTestService(t *testing.T, engine *stubEngine) (*Service, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, engine, nil), st
}

func TestCreateAndListChats(t *testing.T) {
	svc, _ := newTestService(t, &stubEngine{})
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "owner-1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, store.DefaultTitle, created.Title)

	chats, err := svc.ListChats(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, created.ID, chats[0].ID)

	// Other owners see nothing.
	chats, err = svc.ListChats(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestSendMessage(t *testing.T) {
	engine := &stubEngine{reply: "hello back"}
	svc, st := newTestService(t, engine)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "owner-1")
	require.NoError(t, err)

	reply, err := svc.SendMessage(ctx, &SendRequest{
		ChatID:     created.ID,
		OwnerID:    "owner-1",
		Message:    "  hello there  ",
		Credential: "tok-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", reply)

	// The engine saw the trimmed message, the chat ID as session, and
	// the forwarded credential.
	require.Len(t, engine.requests, 1)
	assert.Equal(t, "hello there", engine.requests[0].Message)
	assert.Equal(t, created.ID, engine.requests[0].SessionID)
	assert.Equal(t, "tok-123", engine.requests[0].Credential)

	chat, err := st.GetChat(ctx, created.ID, "owner-1")
	require.NoError(t, err)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, store.RoleUser, chat.Messages[0].Role)
	assert.Equal(t, "hello there", chat.Messages[0].Content)
	assert.Equal(t, store.RoleAssistant, chat.Messages[1].Role)
	assert.Equal(t, "hello back", chat.Messages[1].Content)
	assert.Equal(t, "hello there", chat.Title)
}

func TestSendMessage_Validation(t *testing.T) {
	engine := &stubEngine{reply: "x"}
	svc, _ := newTestService(t, engine)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, &SendRequest{ChatID: "c", OwnerID: "o", Message: "   \t\n "})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = svc.SendMessage(ctx, &SendRequest{OwnerID: "o", Message: "hi"})
	assert.ErrorIs(t, err, ErrMissingChat)

	// Validation failures never reach the engine.
	assert.Empty(t, engine.requests)
}

func TestSendMessage_ChatNotFound(t *testing.T) {
	engine := &stubEngine{reply: "x"}
	svc, _ := newTestService(t, engine)

	_, err := svc.SendMessage(context.Background(), &SendRequest{
		ChatID: "nope", OwnerID: "owner-1", Message: "hi",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, engine.requests)
}

func TestSendMessage_ForeignChat(t *testing.T) {
	engine := &stubEngine{reply: "x"}
	svc, _ := newTestService(t, engine)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "owner-1")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, &SendRequest{
		ChatID: created.ID, OwnerID: "owner-2", Message: "hi",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, engine.requests)
}

func TestSendMessage_EngineFailureLeavesChatUntouched(t *testing.T) {
	engine := &stubEngine{err: inference.ErrTimeout}
	svc, st := newTestService(t, engine)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "owner-1")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, &SendRequest{
		ChatID: created.ID, OwnerID: "owner-1", Message: "hi",
	})
	assert.ErrorIs(t, err, inference.ErrTimeout)

	chat, err := st.GetChat(ctx, created.ID, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, chat.Messages)
	assert.Equal(t, store.DefaultTitle, chat.Title)
}

func TestSendMessage_TitleDerivedOnce(t *testing.T) {
	engine := &stubEngine{reply: "reply"}
	svc, st := newTestService(t, engine)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "owner-1")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, &SendRequest{
		ChatID: created.ID, OwnerID: "owner-1", Message: "first message",
	})
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, &SendRequest{
		ChatID: created.ID, OwnerID: "owner-1", Message: "second message",
	})
	require.NoError(t, err)

	chat, err := st.GetChat(ctx, created.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "first message", chat.Title)
	require.Len(t, chat.Messages, 4)
}

func TestDeleteChat_ClearsEngineSession(t *testing.T) {
	engine := &stubEngine{reply: "x"}
	svc, st := newTestService(t, engine)
	ctx := context.Background()

	created, err := svc.CreateChat(ctx, "owner-1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteChat(ctx, created.ID, "owner-1"))

	_, err = st.GetChat(ctx, created.ID, "owner-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The engine clear runs async; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(engine.clearedSessions()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, []string{created.ID}, engine.clearedSessions())
}

func TestDeleteChat_NotFound(t *testing.T) {
	engine := &stubEngine{}
	svc, _ := newTestService(t, engine)

	err := svc.DeleteChat(context.Background(), "missing", "owner-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, engine.clearedSessions())
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"simple", "hello world", "hello world"},
		{"collapses whitespace", "hello \t\n  world", "hello world"},
		{"truncates long messages", strings.Repeat("a", 100), strings.Repeat("a", 60)},
		{"trims after truncation", strings.Repeat("a", 59) + "  b", strings.Repeat("a", 59)},
		{"whitespace only falls back", "   \t  ", PlaceholderTitle},
		{"empty falls back", "", PlaceholderTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.message))
		})
	}
}
