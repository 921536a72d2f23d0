// Package voiceagent is a small client for the ElevenLabs conversational
// AI endpoints: signed session URLs and post-call conversation artefacts.
package voiceagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
	"github.com/rakeshreddymandala/humaneq-hr/internal/model"
)

// statusMissingAudio is reported while the provider is still rendering a
// conversation; only this condition is retried.
const statusMissingAudio = "missing_conversation_audio"

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("voice agent not configured")
	// ErrExhausted is returned when every retry saw missing audio.
	ErrExhausted = errors.New("conversation artefacts not ready")
)

// APIError is a non-2xx reply.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voice agent: http %d: %s", e.StatusCode, e.Body)
}

// Client talks to the voice agent REST API.
type Client struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	retries    int
	retryDelay time.Duration
	log        *zap.Logger
}

func New(cfg config.VoiceAgentConfig, hc *http.Client, log *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		http:       hc,
		retries:    retries,
		retryDelay: cfg.RetryDelay,
		log:        log,
	}
}

// SignedURL returns a one-time websocket URL for agentID.
func (c *Client) SignedURL(ctx context.Context, agentID string) (string, error) {
	body, err := c.do(ctx, http.MethodGet,
		"/v1/convai/conversation/get-signed-url?agent_id="+url.QueryEscape(agentID))
	if err != nil {
		return "", err
	}
	var out struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode signed url: %w", err)
	}
	if out.SignedURL == "" {
		return "", fmt.Errorf("voice agent returned no signed url")
	}
	return out.SignedURL, nil
}

// Audio downloads the recording of a conversation.
func (c *Client) Audio(ctx context.Context, conversationID string) ([]byte, error) {
	return c.withRetry(ctx, "audio", "/v1/convai/conversations/"+url.PathEscape(conversationID)+"/audio")
}

// Transcript returns the turns of a conversation.  A conversation without a
// transcript yields nil.
func (c *Client) Transcript(ctx context.Context, conversationID string) ([]model.TranscriptTurn, error) {
	body, err := c.withRetry(ctx, "transcript", "/v1/convai/conversations/"+url.PathEscape(conversationID))
	if err != nil {
		return nil, err
	}
	var out struct {
		Transcript []model.TranscriptTurn `json:"transcript"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return out.Transcript, nil
}

// DeleteConversation removes the conversation from the provider.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/v1/convai/conversations/"+url.PathEscape(conversationID))
	return err
}

// withRetry GETs path until it succeeds, the provider reports anything
// other than missing audio, or the attempts run out.
func (c *Client) withRetry(ctx context.Context, what, path string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		body, err := c.do(ctx, http.MethodGet, path)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && detailStatus(apiErr.Body) != statusMissingAudio {
			return nil, err
		}
		c.log.Warn("voice agent fetch failed",
			zap.String("what", what), zap.Int("attempt", attempt), zap.Error(err))

		if attempt < c.retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrExhausted, what, lastErr)
}

func detailStatus(body string) string {
	var e struct {
		Detail struct {
			Status string `json:"status"`
		} `json:"detail"`
	}
	if json.Unmarshal([]byte(body), &e) != nil {
		return ""
	}
	return e.Detail.Status
}

func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voice agent request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
