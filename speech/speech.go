// Package speech turns agent text into audio. Synthesis is best effort: a
// failed or disabled synthesizer never blocks the text conversation, the log
// entry simply carries no audio.
package speech

import "context"

// Synthesizer converts text to base64-encoded audio for a named voice.
type Synthesizer interface {
	// Synthesize returns base64 audio bytes, or an error if generation
	// failed. Callers treat errors as "no audio", never as turn failures.
	Synthesize(ctx context.Context, text, voice string) (string, error)
	Name() string
}

// Disabled is a Synthesizer that produces no audio. Used when no TTS backend
// is configured or the agents have no voices.
type Disabled struct{}

func (Disabled) Synthesize(context.Context, string, string) (string, error) { return "", nil }
func (Disabled) Name() string                                              { return "disabled" }
