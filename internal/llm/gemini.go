package llm

import (
	"context"
	"net/http"

	"google.golang.org/genai"

	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
)

// Gemini generates content through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg config.LLMConfig, hc *http.Client) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL, APIVersion: "v1beta"}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Message: "failed to create client", Err: err}
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

func (g *Gemini) Provider() string { return "gemini" }

// Complete sends the system instructions followed by the user prompt as a
// single text part.
func (g *Gemini) Complete(ctx context.Context, system, user string) (string, error) {
	prompt := user
	if system != "" {
		prompt = system + "\n\n" + user
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &ProviderError{Provider: "gemini", Message: "failed to generate content", Err: err}
	}
	if result == nil {
		return "", &ProviderError{Provider: "gemini", Message: "no response generated"}
	}
	text, err := result.Text()
	if err != nil {
		return "", &ProviderError{Provider: "gemini", Message: "failed to extract response text", Err: err}
	}
	if text == "" {
		return "", &ProviderError{Provider: "gemini", Message: "empty response generated"}
	}
	return text, nil
}
