package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
)

func TestOpenAICompleteSendsPrompts(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "1. Why?\n\n 2. How? \n"}}},
		})
	}))
	defer srv.Close()

	c := NewOpenAI(config.LLMConfig{BaseURL: srv.URL + "/", APIKey: "k", Model: "gpt-4", MaxTokens: 500}, srv.Client())
	qs, err := GenerateQuestions(context.Background(), c, "backend engineer")
	require.NoError(t, err)
	assert.Equal(t, []string{"1. Why?", "2. How?"}, qs)

	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, questionSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, questionUserPrompt+"backend engineer", got.Messages[1].Content)
}

func TestOpenAIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOpenAI(config.LLMConfig{BaseURL: srv.URL, Model: "gpt-4"}, srv.Client())
	_, err := c.Complete(context.Background(), "s", "u")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "openai", pe.Provider)
}

func TestGeminiComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": "Tell me about yourself"}}},
			}},
		})
	}))
	defer srv.Close()

	c, err := New(context.Background(), config.LLMConfig{
		Provider: "gemini", APIKey: "test", Model: "test-model", BaseURL: srv.URL,
	}, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Provider())

	qs, err := GenerateQuestions(context.Background(), c, "intern")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tell me about yourself"}, qs)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "other"}, nil)
	assert.Error(t, err)
}

func TestGenerateQuestionsEmptyPrompt(t *testing.T) {
	_, err := GenerateQuestions(context.Background(), nil, "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestCleanReply(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanReply("```json\n{\"a\":1}\n```"))
}
