package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/prompt"
	"github.com/BaSui01/maestro/types"
)

// synthesize runs the final document generation on the Maestro's model,
// streaming partial text into the store so observers can render a live
// document. A failure is reported as a log entry; collected deliverables are
// untouched.
func (e *Engine) synthesize(ctx context.Context) string {
	start := time.Now()
	blob := e.synthesisInput()
	if strings.TrimSpace(blob) == "" {
		e.logger.Info("nothing to synthesize")
		return ""
	}

	instruction := prompt.Synthesis(e.cfg.Mode, e.cfg.OutputFormat)
	provider := e.registry.Resolve(e.maestro.Model.Provider)

	stream, err := provider.Stream(ctx, &llm.Request{
		SystemInstruction: instruction,
		Prompt:            blob,
		Temperature:       e.cfg.temperature(),
		ModelName:         e.maestro.Model.ModelName,
	})
	if err != nil {
		e.reportSynthesisFailure(err)
		return ""
	}

	var doc strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			e.reportSynthesisFailure(chunk.Err)
			return ""
		}
		if chunk.Delta == "" {
			continue
		}
		doc.WriteString(chunk.Delta)
		e.store.UpdateFinalDocument(doc.String(), false)
	}
	if e.isCancelled(ctx) {
		return ""
	}

	final := doc.String()
	e.store.UpdateFinalDocument(final, true)
	e.store.AppendLog(types.SessionLogEntry{
		Role:    types.MaestroRole,
		Avatar:  e.maestroAvatar(),
		Content: "The final document has been generated.",
	}, types.EventDocGeneration)
	e.metrics.RecordSynthesis(time.Since(start))
	e.logger.Info("synthesis complete",
		zap.Int("chars", len(final)),
		zap.Duration("elapsed", time.Since(start)))
	return final
}

// synthesisInput concatenates what the mode produced: collected deliverables
// for Project, the full transcript otherwise. Every entry is tagged with its
// source.
func (e *Engine) synthesisInput() string {
	var b strings.Builder
	if e.cfg.Mode == types.ModeProject {
		for _, d := range e.Deliverables() {
			fmt.Fprintf(&b, "=== Milestone: %s | Agent: %s ===\n%s\n\n", d.Milestone, d.Agent, d.Content)
		}
		return b.String()
	}
	for _, en := range e.store.Log() {
		fmt.Fprintf(&b, "[%s] %s\n", en.Role, en.Content)
	}
	return b.String()
}

func (e *Engine) reportSynthesisFailure(err error) {
	e.logger.Error("synthesis failed", zap.Error(err))
	e.store.AppendLog(types.SessionLogEntry{
		Role:    types.MaestroRole,
		Avatar:  e.maestroAvatar(),
		Content: fmt.Sprintf("I was unable to generate the final document: %v", err),
	}, types.EventDecision)
}
