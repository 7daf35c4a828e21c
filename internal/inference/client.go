// ABOUTME: HTTP client for the external text-generation engine
// ABOUTME: Sends (message, session_id) to POST /chat and classifies failures

package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Failure classes for engine calls. The caller decides retry policy;
// this client never retries on its own.
var (
	// ErrTimeout means the engine did not answer within the request timeout.
	ErrTimeout = errors.New("inference request timed out")

	// ErrUnreachable means the engine could not be reached at all.
	ErrUnreachable = errors.New("inference engine unreachable")

	// ErrUpstream means the engine responded but signaled failure or
	// produced no usable generated text.
	ErrUpstream = errors.New("inference engine error")
)

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 60 * time.Second

// GenerateRequest carries one generation call to the engine.
type GenerateRequest struct {
	// Message is the trimmed user message.
	Message string

	// SessionID keys the engine's conversation memory; the chat ID is used.
	SessionID string

	// Credential is an opaque engine token forwarded as-is. Never
	// inspected, logged, or persisted here.
	Credential string
}

// generatePayload is the engine's wire format for POST /chat.
type generatePayload struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	HFToken   string `json:"hf_token,omitempty"`
}

// generateResult is the engine's response body. Error is set when the
// engine signals failure with a 200-adjacent JSON body.
type generateResult struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Error    string `json:"error"`
}

// Client talks to the generation engine over HTTP.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates an engine client for the given base URL. A timeout of zero
// falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.Default().With("component", "inference"),
	}
}

// Generate sends the message to the engine and returns the generated text.
// Failures are classified as ErrTimeout, ErrUnreachable, or ErrUpstream;
// an empty generated text counts as ErrUpstream, never as success.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	body, err := json.Marshal(generatePayload{
		Message:   req.Message,
		SessionID: req.SessionID,
		HFToken:   req.Credential,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling generate request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("engine responded",
		"status", resp.StatusCode,
		"session_id", req.SessionID,
		"elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var result generateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("%w: engine reported failure", ErrUpstream)
	}
	if result.Response == "" {
		return "", fmt.Errorf("%w: no generated text in response", ErrUpstream)
	}

	return result.Response, nil
}

// ClearSession asks the engine to drop its conversation memory for a
// session. Used when the owning chat is deleted. Errors are returned for
// logging only; callers treat this as best-effort.
func (c *Client) ClearSession(ctx context.Context, sessionID string) error {
	body, err := json.Marshal(map[string]string{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("marshaling clear request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clear", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating clear request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}

// Health probes the engine's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating health request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	return nil
}

// classifyTransportError maps a transport-level failure to ErrTimeout or
// ErrUnreachable. The raw error is wrapped for logs, never for clients.
func (c *Client) classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
