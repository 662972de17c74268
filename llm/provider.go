// Package llm defines the uniform contract over heterogeneous LLM backends.
//
// Every backend is wrapped in a Provider that normalizes the request/response
// shape. Concrete implementations live under providers/; this package only
// owns the interface, the wire-neutral types, and the registry used for
// dynamic dispatch by provider name.
package llm

import (
	"context"
	"encoding/json"
	"time"
)

// ToolDeclaration describes one function the model may call, in JSON Schema
// form. It is passed through to the backend untouched.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// FunctionCall is a tool invocation request returned by the model.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Request is the normalized generation request. SystemInstruction carries the
// assembled per-turn instruction; Prompt is the user-facing ask for this turn.
type Request struct {
	SystemInstruction string            `json:"system_instruction"`
	Prompt            string            `json:"prompt"`
	Temperature       float32           `json:"temperature"` // [0,1]
	ModelName         string            `json:"model_name"`
	Tools             []ToolDeclaration `json:"tools,omitempty"`
	Timeout           time.Duration     `json:"timeout,omitempty"`
}

// Response is the normalized generation result.
type Response struct {
	Text          string         `json:"text"`
	FunctionCalls []FunctionCall `json:"function_calls,omitempty"`
	Provider      string         `json:"provider,omitempty"`
	Model         string         `json:"model,omitempty"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
}

// StreamChunk is one increment of a streamed generation. The final chunk for
// an errored stream carries Err; Delta is the text appended by this chunk.
type StreamChunk struct {
	Delta        string `json:"delta,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	Err          error  `json:"-"`
}

// Provider is the uniform adapter interface over one LLM backend.
//
// Implementations own their authentication and wire format. A provider with
// no working backend must still satisfy this interface by returning a
// successful Response whose Text explains the situation (see
// providers/unsupported); only real network or auth failures from an
// implemented backend surface as errors.
type Provider interface {
	// GenerateContent performs one synchronous generation call.
	GenerateContent(ctx context.Context, req *Request) (*Response, error)

	// Stream performs a streamed generation call. The returned channel is
	// closed when the stream ends; a terminal failure is delivered as a chunk
	// with Err set.
	Stream(ctx context.Context, req *Request) (<-chan StreamChunk, error)

	// Name returns the provider's unique identifier.
	Name() string
}
