package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
)

// OpenAI talks to the chat completions endpoint.
type OpenAI struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAI(cfg config.LLMConfig, hc *http.Client) *OpenAI {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &OpenAI{
		baseURL:   strings.TrimRight(base, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    hc,
	}
}

func (o *OpenAI) Provider() string { return "openai" }

// Complete posts the non-empty prompts as a chat and returns the first
// choice.
func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	var msgs []chatMessage
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	if user != "" {
		msgs = append(msgs, chatMessage{Role: "user", Content: user})
	}
	body, err := json.Marshal(chatRequest{Model: o.model, Messages: msgs, MaxTokens: o.maxTokens})
	if err != nil {
		return "", &ProviderError{Provider: "openai", Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Provider: "openai", Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: "openai", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: "openai", Message: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: "openai", Message: fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &ProviderError{Provider: "openai", Message: "decode response", Err: err}
	}
	if out.Error != nil {
		return "", &ProviderError{Provider: "openai", Message: out.Error.Message}
	}
	if len(out.Choices) == 0 {
		return "", &ProviderError{Provider: "openai", Message: "no choices returned"}
	}
	return out.Choices[0].Message.Content, nil
}
