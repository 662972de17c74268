// Package anthropic implements the llm.Provider adapter for the Anthropic
// messages API.
package anthropic

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

// Provider adapts the Anthropic REST API. Differences from the OpenAI-style
// APIs: authentication uses the x-api-key header, the system instruction is a
// separate top-level field, max_tokens is mandatory, and 529 is a dedicated
// overload status.
type Provider struct {
	cfg    providers.ClaudeConfig
	client *http.Client
	logger *zap.Logger
}

// New creates an Anthropic provider.
func New(cfg providers.ClaudeConfig, logger *zap.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
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
		logger: logger.With(zap.String("provider", "anthropic")),
	}
}

func (p *Provider) Name() string { return "anthropic" }

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	Messages    []claudeMessage `json:"messages"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
	Tools       []claudeTool    `json:"tools,omitempty"`
}

type claudeContent struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type claudeResponse struct {
	ID         string          `json:"id"`
	Model      string          `json:"model"`
	Content    []claudeContent `json:"content"`
	StopReason string          `json:"stop_reason,omitempty"`
}

type claudeStreamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type       string `json:"type"`
		Text       string `json:"text,omitempty"`
		StopReason string `json:"stop_reason,omitempty"`
	} `json:"delta,omitempty"`
}

type claudeErrorResp struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Provider) buildRequest(req *llm.Request, stream bool) claudeRequest {
	body := claudeRequest{
		Model:       p.model(req),
		System:      req.SystemInstruction,
		Messages:    []claudeMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   4096, // mandatory for the messages API
		Temperature: req.Temperature,
		Stream:      stream,
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, claudeTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
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
	return "claude-3-5-sonnet-20241022"
}

func (p *Provider) do(ctx context.Context, body claudeRequest) (*http.Response, error) {
	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1/messages", strings.TrimRight(p.cfg.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, err.Error()).WithProvider(p.Name())
	}
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("Content-Type", "application/json")

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
	resp, err := p.do(ctx, p.buildRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, err.Error()).
			WithHTTPStatus(http.StatusBadGateway).
			WithRetryable(true).
			WithProvider(p.Name())
	}

	out := &llm.Response{Provider: p.Name(), Model: cr.Model, CreatedAt: time.Now()}
	for _, c := range cr.Content {
		switch c.Type {
		case "text":
			out.Text += c.Text
		case "tool_use":
			out.FunctionCalls = append(out.FunctionCalls, llm.FunctionCall{
				Name:      c.Name,
				Arguments: c.Input,
			})
		}
	}
	return out, nil
}

// Stream performs a streamed generation call using the SSE protocol.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) (<-chan llm.StreamChunk, error) {
	resp, err := p.do(ctx, p.buildRequest(req, true))
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
			var ev claudeStreamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				ch <- llm.StreamChunk{Err: types.NewError(types.ErrUpstreamError, err.Error()).
					WithProvider(p.Name())}
				return
			}
			switch ev.Type {
			case "content_block_delta":
				if ev.Delta != nil && ev.Delta.Text != "" {
					select {
					case ch <- llm.StreamChunk{Delta: ev.Delta.Text}:
					case <-ctx.Done():
						return
					}
				}
			case "message_delta":
				if ev.Delta != nil && ev.Delta.StopReason != "" {
					ch <- llm.StreamChunk{FinishReason: ev.Delta.StopReason}
				}
			case "message_stop":
				return
			}
		}
	}()
	return ch, nil
}

func readErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var er claudeErrorResp
	if err := json.Unmarshal(data, &er); err == nil && er.Error.Message != "" {
		return fmt.Sprintf("%s (type: %s)", er.Error.Message, er.Error.Type)
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
	case http.StatusBadRequest:
		if strings.Contains(msg, "credit") || strings.Contains(msg, "quota") {
			return types.NewError(types.ErrQuotaExceeded, msg).WithHTTPStatus(status).WithProvider(provider)
		}
		return types.NewError(types.ErrInvalidRequest, msg).WithHTTPStatus(status).WithProvider(provider)
	case 529: // Anthropic-specific overload status
		return types.NewError(types.ErrModelOverloaded, msg).WithHTTPStatus(status).WithRetryable(true).WithProvider(provider)
	default:
		return types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(status).
			WithRetryable(status >= 500).
			WithProvider(provider)
	}
}
