package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/maestro/providers"
	"github.com/BaSui01/maestro/types"
)

// DefaultTTSModel is the Gemini model used for speech generation.
const DefaultTTSModel = "gemini-2.5-flash-preview-tts"

// GeminiTTS synthesizes speech through the Gemini generateContent API with
// the AUDIO response modality. The returned audio is the base64 payload of
// the inline data part, unmodified.
type GeminiTTS struct {
	cfg    providers.GeminiConfig
	client *http.Client
	logger *zap.Logger
}

func NewGeminiTTS(cfg providers.GeminiConfig, logger *zap.Logger) *GeminiTTS {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultTTSModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiTTS{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "gemini-tts")),
	}
}

func (g *GeminiTTS) Name() string { return "gemini-tts" }

type ttsRequest struct {
	Contents         []ttsContent        `json:"contents"`
	GenerationConfig ttsGenerationConfig `json:"generationConfig"`
}

type ttsContent struct {
	Parts []ttsPart `json:"parts"`
}

type ttsPart struct {
	Text       string         `json:"text,omitempty"`
	InlineData *ttsInlineData `json:"inlineData,omitempty"`
}

type ttsInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data"`
}

type ttsGenerationConfig struct {
	ResponseModalities []string        `json:"responseModalities"`
	SpeechConfig       ttsSpeechConfig `json:"speechConfig"`
}

type ttsSpeechConfig struct {
	VoiceConfig ttsVoiceConfig `json:"voiceConfig"`
}

type ttsVoiceConfig struct {
	PrebuiltVoiceConfig ttsPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type ttsPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type ttsResponse struct {
	Candidates []struct {
		Content ttsContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiTTS) Synthesize(ctx context.Context, text, voice string) (string, error) {
	body := ttsRequest{
		Contents: []ttsContent{{Parts: []ttsPart{{Text: text}}}},
		GenerationConfig: ttsGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: ttsSpeechConfig{
				VoiceConfig: ttsVoiceConfig{
					PrebuiltVoiceConfig: ttsPrebuiltVoice{VoiceName: voice},
				},
			},
		},
	}
	payload, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", types.NewError(types.ErrInvalidRequest, err.Error()).WithProvider(g.Name())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrUpstreamError, err.Error()).
			WithRetryable(true).
			WithProvider(g.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		g.logger.Warn("speech synthesis failed",
			zap.Int("status", resp.StatusCode),
			zap.String("voice", voice))
		return "", types.NewError(types.ErrUpstreamError, string(msg)).
			WithHTTPStatus(resp.StatusCode).
			WithRetryable(resp.StatusCode >= 500).
			WithProvider(g.Name())
	}

	var tr ttsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", types.NewError(types.ErrMalformedResponse, err.Error()).WithProvider(g.Name())
	}
	for _, cand := range tr.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return part.InlineData.Data, nil
			}
		}
	}
	return "", types.NewError(types.ErrMalformedResponse, "response contained no audio data").
		WithProvider(g.Name())
}
