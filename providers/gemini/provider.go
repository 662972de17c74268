// Package gemini implements the llm.Provider adapter for the Google Gemini
// generateContent API.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/providers"
	"github.com/BaSui01/maestro/types"
)

// Provider adapts the Gemini REST API to the uniform llm.Provider shape.
// Gemini differs from the OpenAI-style APIs in three ways that matter here:
// the API key travels in the x-goog-api-key header, the system instruction is
// a separate top-level field, and streaming uses SSE on a distinct endpoint.
type Provider struct {
	cfg    providers.GeminiConfig
	client *http.Client
	logger *zap.Logger
}

// New creates a Gemini provider.
func New(cfg providers.GeminiConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", "gemini")),
	}
}

func (p *Provider) Name() string { return "gemini" }

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations"`
}

type geminiFunctionDecl struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature float32 `json:"temperature"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	Tools             []geminiTool           `json:"tools,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	ModelVer   string            `json:"modelVersion,omitempty"`
}

type geminiErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (p *Provider) buildRequest(req *llm.Request) geminiRequest {
	body := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
		GenerationConfig: geminiGenerationConfig{Temperature: req.Temperature},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemInstruction}},
		}
	}
	if len(req.Tools) > 0 {
		tool := geminiTool{}
		for _, t := range req.Tools {
			tool.FunctionDeclarations = append(tool.FunctionDeclarations, geminiFunctionDecl{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		body.Tools = []geminiTool{tool}
	}
	return body
}

func (p *Provider) model(req *llm.Request) string {
	if req.ModelName != "" {
		return req.ModelName
	}
	if p.cfg.Model != "" {
		return p.cfg.Model
	}
	return "gemini-2.0-flash"
}

func (p *Provider) endpoint(model, verb string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:%s",
		strings.TrimRight(p.cfg.BaseURL, "/"), model, verb)
}

func (p *Provider) do(ctx context.Context, url string, body geminiRequest) (*http.Response, error) {
	payload, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, err.Error()).WithProvider(p.Name())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithProvider(p.Name())
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, mapError(resp.StatusCode, readErrMsg(resp.Body), p.Name())
	}
	return resp, nil
}

// GenerateContent performs one synchronous generation call.
func (p *Provider) GenerateContent(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	model := p.model(req)
	resp, err := p.do(ctx, p.endpoint(model, "generateContent"), p.buildRequest(req))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithProvider(p.Name())
	}
	return toResponse(gr, p.Name(), model), nil
}

// Stream performs a streamed generation call via the SSE endpoint.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) (<-chan llm.StreamChunk, error) {
	model := p.model(req)
	url := p.endpoint(model, "streamGenerateContent") + "?alt=sse"
	resp, err := p.do(ctx, url, p.buildRequest(req))
	if err != nil {
		return nil, err
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					ch <- llm.StreamChunk{Err: types.NewError(types.ErrUpstreamError, err.Error()).
						WithRetryable(true).
						WithProvider(p.Name())}
				}
				return
			}
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[DONE]" {
				continue
			}
			var gr geminiResponse
			if err := json.Unmarshal([]byte(data), &gr); err != nil {
				ch <- llm.StreamChunk{Err: types.NewError(types.ErrUpstreamError, err.Error()).
					WithProvider(p.Name())}
				return
			}
			for _, cand := range gr.Candidates {
				for _, part := range cand.Content.Parts {
					if part.Text != "" {
						select {
						case ch <- llm.StreamChunk{Delta: part.Text}:
						case <-ctx.Done():
							return
						}
					}
				}
				if cand.FinishReason != "" {
					ch <- llm.StreamChunk{FinishReason: cand.FinishReason}
				}
			}
		}
	}()
	return ch, nil
}

func toResponse(gr geminiResponse, provider, model string) *llm.Response {
	out := &llm.Response{
		Provider:  provider,
		Model:     model,
		CreatedAt: time.Now(),
	}
	for _, cand := range gr.Candidates {
		for _, part := range cand.Content.Parts {
			out.Text += part.Text
			if part.FunctionCall != nil {
				out.FunctionCalls = append(out.FunctionCalls, llm.FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
	}
	return out
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var er geminiErrorResp
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return fmt.Sprintf("%s (status: %s)", er.Error.Message, er.Error.Status)
	}
	return string(data)
}

func mapError(status int, msg, provider string) *types.Error {
	switch status {
	case http.StatusUnauthorized:
		return types.NewError(types.ErrUnauthorized, msg).WithHTTPStatus(status).WithProvider(provider)
	case http.StatusForbidden:
		return types.NewError(types.ErrForbidden, msg).WithHTTPStatus(status).WithProvider(provider)
	case http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimited, msg).WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return types.NewError(types.ErrUpstreamError, msg).WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	default:
		if strings.Contains(msg, "quota") {
			return types.NewError(types.ErrQuotaExceeded, msg).WithHTTPStatus(status).WithProvider(provider)
		}
		return types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(status).
			WithRetryable(status >= 500).
			WithProvider(provider)
	}
}
