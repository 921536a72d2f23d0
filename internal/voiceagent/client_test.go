package voiceagent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakeshreddymandala/humaneq-hr/internal/config"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.VoiceAgentConfig{
		BaseURL: srv.URL, APIKey: "xi", Retries: 3, RetryDelay: time.Millisecond,
	}, srv.Client(), nil)
}

func TestSignedURL(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/convai/conversation/get-signed-url", r.URL.Path)
		assert.Equal(t, "agent-7", r.URL.Query().Get("agent_id"))
		assert.Equal(t, "xi", r.Header.Get("xi-api-key"))
		_, _ = w.Write([]byte(`{"signed_url":"wss://example/abc"}`))
	})
	u, err := c.SignedURL(context.Background(), "agent-7")
	require.NoError(t, err)
	assert.Equal(t, "wss://example/abc", u)
}

func TestAudioRetriesWhileMissing(t *testing.T) {
	var calls int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/convai/conversations/conv-1/audio", r.URL.Path)
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":{"status":"missing_conversation_audio"}}`))
			return
		}
		_, _ = w.Write([]byte("mp3"))
	})
	b, err := c.Audio(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "mp3", string(b))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAudioStopsOnOtherErrors(t *testing.T) {
	var calls int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"status":"invalid_api_key"}}`))
	})
	_, err := c.Audio(context.Background(), "conv-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAudioExhausted(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":{"status":"missing_conversation_audio"}}`))
	})
	_, err := c.Audio(context.Background(), "conv-1")
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestTranscriptAndDelete(t *testing.T) {
	var deleted bool
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			deleted = true
			w.WriteHeader(http.StatusOK)
		default:
			_, _ = w.Write([]byte(`{"transcript":[{"role":"agent","message":"hi","time_in_call_secs":1},{"role":"user","message":"hello","time_in_call_secs":2.5}]}`))
		}
	})
	turns, err := c.Transcript(context.Background(), "conv-2")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[1].Role)
	assert.Equal(t, 2.5, turns[1].TimeInCallSecs)

	require.NoError(t, c.DeleteConversation(context.Background(), "conv-2"))
	assert.True(t, deleted)
}

func TestNotConfigured(t *testing.T) {
	c := New(config.VoiceAgentConfig{BaseURL: "http://unused"}, nil, nil)
	_, err := c.SignedURL(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
