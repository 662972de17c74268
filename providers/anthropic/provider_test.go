package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/providers"
	"github.com/BaSui01/maestro/types"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(providers.ClaudeConfig{APIKey: "test-key", BaseURL: srv.URL}, zap.NewNop())
}

func TestGenerateContent(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req claudeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "stay in character", req.System)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.NotZero(t, req.MaxTokens)

		json.NewEncoder(w).Encode(claudeResponse{
			ID:      "msg_1",
			Model:   "claude-3-5-sonnet-20241022",
			Content: []claudeContent{{Type: "text", Text: "understood"}},
		})
	})

	resp, err := p.GenerateContent(context.Background(), &llm.Request{
		SystemInstruction: "stay in character",
		Prompt:            "begin",
	})
	require.NoError(t, err)
	assert.Equal(t, "understood", resp.Text)
	assert.Equal(t, "anthropic", resp.Provider)
}

func TestGenerateContentOverloaded(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		w.Write([]byte(`{"error":{"type":"overloaded_error","message":"Overloaded"}}`))
	})

	_, err := p.GenerateContent(context.Background(), &llm.Request{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, types.ErrModelOverloaded, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}

func TestStream(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: content_block_delta\n"))
		w.Write([]byte(`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}` + "\n\n"))
		w.Write([]byte(`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"lo"}}` + "\n\n"))
		w.Write([]byte(`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"}}` + "\n\n"))
		w.Write([]byte(`data: {"type":"message_stop"}` + "\n\n"))
	})

	ch, err := p.Stream(context.Background(), &llm.Request{Prompt: "hello"})
	require.NoError(t, err)

	var text, finish string
	for chunk := range ch {
		require.NoError(t, chunk.Err)
		text += chunk.Delta
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}
	assert.Equal(t, "Hello", text)
	assert.Equal(t, "end_turn", finish)
}
