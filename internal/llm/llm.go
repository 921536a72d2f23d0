// Package llm wraps the chat-completion providers used to draft interview
// questions and to score transcripts.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
)

// Client sends one system+user prompt pair and returns the reply text.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Provider() string
}

// ProviderError is returned by every provider so callers can log which
// backend failed.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// New returns the provider selected by cfg.Provider.  hc may be nil.
func New(ctx context.Context, cfg config.LLMConfig, hc *http.Client) (Client, error) {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAI(cfg, hc), nil
	case "gemini":
		return NewGemini(ctx, cfg, hc)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// cleanReply strips markdown code fences from a model reply.
func cleanReply(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
