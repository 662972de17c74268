// Package unsupported provides the fail-closed fallback adapter.
//
// An agent configured with a provider that has no working implementation must
// degrade the conversation, not crash it: this adapter always returns a
// successful response whose text explains the situation, so the session log
// shows a visible placeholder line for that agent's turn.
package unsupported

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/maestro/llm"
)

// Provider satisfies llm.Provider for a backend that is not implemented.
type Provider struct {
	providerName string
}

// New creates an unsupported-provider adapter for the given provider name.
// The name appears verbatim in the explanatory response text.
func New(providerName string) *Provider {
	return &Provider{providerName: providerName}
}

func (p *Provider) Name() string { return p.providerName }

func (p *Provider) message() string {
	return fmt.Sprintf("The selected LLM provider (%q) is not implemented. "+
		"Configure this agent with a supported provider to receive real responses.", p.providerName)
}

// GenerateContent never fails; it returns the explanatory text as a normal
// response.
func (p *Provider) GenerateContent(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return &llm.Response{
		Text:      p.message(),
		Provider:  p.providerName,
		Model:     req.ModelName,
		CreatedAt: time.Now(),
	}, nil
}

// Stream delivers the explanatory text as a single chunk.
func (p *Provider) Stream(ctx context.Context, req *llm.Request) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, 2)
	ch <- llm.StreamChunk{Delta: p.message()}
	ch <- llm.StreamChunk{FinishReason: "stop"}
	close(ch)
	return ch, nil
}
