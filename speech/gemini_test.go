package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/maestro/providers"
	"github.com/BaSui01/maestro/types"
)

func newTestTTS(t *testing.T, handler http.HandlerFunc) *GeminiTTS {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiTTS(providers.GeminiConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestGeminiTTSSynthesize(t *testing.T) {
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, "gemini-2.5-flash-preview-tts:generateContent")

		var req ttsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"AUDIO"}, req.GenerationConfig.ResponseModalities)
		assert.Equal(t, "Kore", req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)

		json.NewEncoder(w).Encode(ttsResponse{
			Candidates: []struct {
				Content ttsContent `json:"content"`
			}{{Content: ttsContent{Parts: []ttsPart{{
				InlineData: &ttsInlineData{MimeType: "audio/pcm", Data: "QUJD"},
			}}}}},
		})
	})

	audio, err := tts.Synthesize(context.Background(), "Hello everyone.", "Kore")
	require.NoError(t, err)
	assert.Equal(t, "QUJD", audio)
}

func TestGeminiTTSServerError(t *testing.T) {
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := tts.Synthesize(context.Background(), "hi", "Puck")
	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
}

func TestGeminiTTSNoAudioInResponse(t *testing.T) {
	tts := newTestTTS(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ttsResponse{})
	})

	_, err := tts.Synthesize(context.Background(), "hi", "Puck")
	require.Error(t, err)
	assert.Equal(t, types.ErrMalformedResponse, types.GetErrorCode(err))
}

func TestDisabledSynthesizer(t *testing.T) {
	audio, err := Disabled{}.Synthesize(context.Background(), "anything", "any")
	require.NoError(t, err)
	assert.Empty(t, audio)
}
