// ABOUTME: Tests for the inference engine HTTP client
// ABOUTME: Verifies wire format, failure classification, and timeout behavior

package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenerate_Success(t *testing.T) {
	var gotBody generatePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"response": "Hi there",
			"model":    "test-model",
		})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	text, err := client.Generate(context.Background(), &GenerateRequest{
		Message:    "Hello",
		SessionID:  "chat-1",
		Credential: "tok-123",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if text != "Hi there" {
		t.Errorf("unexpected text: %q", text)
	}
	if gotBody.Message != "Hello" {
		t.Errorf("message not forwarded: %q", gotBody.Message)
	}
	if gotBody.SessionID != "chat-1" {
		t.Errorf("session_id not forwarded: %q", gotBody.SessionID)
	}
	if gotBody.HFToken != "tok-123" {
		t.Errorf("credential not forwarded: %q", gotBody.HFToken)
	}
}

func TestGenerate_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model exploded"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	_, err := client.Generate(context.Background(), &GenerateRequest{Message: "hi", SessionID: "s"})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestGenerate_EmptyResponseText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 OK but no usable generated text
		json.NewEncoder(w).Encode(map[string]string{"model": "test-model"})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	_, err := client.Generate(context.Background(), &GenerateRequest{Message: "hi", SessionID: "s"})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream for empty text, got %v", err)
	}
}

func TestGenerate_EngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "HF_API_TOKEN not set"})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	_, err := client.Generate(context.Background(), &GenerateRequest{Message: "hi", SessionID: "s"})
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream for engine-reported error, got %v", err)
	}
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := New(srv.URL, 20*time.Millisecond)
	_, err := client.Generate(context.Background(), &GenerateRequest{Message: "hi", SessionID: "s"})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := New(srv.URL, time.Second)
	_, err := client.Generate(context.Background(), &GenerateRequest{Message: "hi", SessionID: "s"})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestClearSession(t *testing.T) {
	var gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clear" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotSession = body["session_id"]
		json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	if err := client.ClearSession(context.Background(), "chat-9"); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	if gotSession != "chat-9" {
		t.Errorf("session_id not forwarded: %q", gotSession)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second)
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}
