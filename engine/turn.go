package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/maestro/cache"
	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/prompt"
	"github.com/BaSui01/maestro/rag"
	"github.com/BaSui01/maestro/types"
)

// memoryKey is the cache key for an agent's persistent memory.
func memoryKey(agentID string) string { return "memory:" + agentID }

// agentMemory loads the agent's stored lessons, if it keeps any.
func (e *Engine) agentMemory(ctx context.Context, a *types.Agent) string {
	if e.memory == nil || !a.HasPersonalMemory {
		return ""
	}
	text, err := e.memory.Get(ctx, memoryKey(a.ID))
	if err != nil {
		if !cache.IsMiss(err) {
			e.logger.Warn("agent memory lookup failed",
				zap.String("agent", a.ID), zap.Error(err))
		}
		return ""
	}
	return text
}

// promptContext gathers everything the assembler needs for one turn of the
// given agent.
func (e *Engine) promptContext(ctx context.Context, a *types.Agent, userPrompt string) prompt.Context {
	pc := prompt.Context{
		Mode:            e.cfg.Mode,
		Agent:           a,
		Agents:          e.store.Agents(),
		UserName:        e.cfg.UserName,
		SessionGoal:     e.cfg.Goal,
		AgentMemory:     e.agentMemory(ctx, a),
		LastTurns:       e.store.LastEntries(prompt.RecentTurnCount),
		Tools:           e.cfg.Tools,
		SandboxScenario: e.cfg.SandboxScenario,
	}
	if a.IsMaestro() && e.memory != nil {
		lessons, err := e.memory.Get(ctx, memoryKey(a.ID))
		if err == nil {
			pc.MaestroMemory = lessons
		}
	}
	if e.docs != nil {
		if docCtx, ok := e.docs.RetrieveContext(ctx, userPrompt, rag.DefaultTopK); ok {
			pc.DocContext = docCtx
		}
	}
	return pc
}

// takeTurn runs one complete agent turn: status transitions, prompt assembly,
// the provider call, the log append, and optional speech. A provider error is
// absorbed into an error-status turn; the returned error is non-nil only so
// callers can count failures, never to abort the session.
func (e *Engine) takeTurn(ctx context.Context, a *types.Agent, pc prompt.Context, userPrompt, task string) (types.SessionLogEntry, error) {
	e.store.SetAgentStatus(a.ID, types.StatusWorking, task)
	start := time.Now()

	provider := e.registry.Resolve(a.Model.Provider)
	resp, err := provider.GenerateContent(ctx, &llm.Request{
		SystemInstruction: prompt.Build(pc),
		Prompt:            userPrompt,
		Temperature:       e.cfg.temperature(),
		ModelName:         a.Model.ModelName,
	})
	if e.isCancelled(ctx) {
		// Cancellation observed during the await: discard the result, no
		// state store mutation beyond resetting the agent.
		e.store.SetAgentStatus(a.ID, types.StatusIdle, "")
		return types.SessionLogEntry{}, types.NewError(types.ErrCancelled, "turn discarded after cancellation")
	}
	if err != nil {
		e.metrics.RecordTurn(string(e.cfg.Mode), a.Role, "error", time.Since(start))
		e.metrics.RecordProviderRequest(a.Model.Provider, a.Model.ModelName, "error", time.Since(start))
		e.store.SetAgentStatus(a.ID, types.StatusError, "")
		e.store.AppendLog(types.SessionLogEntry{
			Role:    types.MaestroRole,
			Avatar:  e.maestroAvatar(),
			Content: fmt.Sprintf("%s was unable to respond (%v). Moving on.", a.Role, err),
		}, types.EventDecision)
		e.logger.Warn("agent turn failed",
			zap.String("agent", a.ID),
			zap.String("provider", a.Model.Provider),
			zap.Error(err))
		return types.SessionLogEntry{}, err
	}

	e.metrics.RecordTurn(string(e.cfg.Mode), a.Role, "ok", time.Since(start))
	e.metrics.RecordProviderRequest(a.Model.Provider, a.Model.ModelName, "ok", time.Since(start))

	entry := types.SessionLogEntry{
		Role:    a.Role,
		Avatar:  a.Avatar,
		Content: resp.Text,
	}
	entry = e.store.AppendLog(entry, eventTypeFor(a, e.cfg.UserName))
	e.store.SetAgentStatus(a.ID, types.StatusDone, "")

	e.speak(ctx, a, resp.Text)
	return entry, nil
}

// speak fires speech synthesis for a voiced agent. Best effort: failures are
// logged and the turn is unaffected.
func (e *Engine) speak(ctx context.Context, a *types.Agent, text string) {
	if a.Voice == "" || text == "" {
		return
	}
	audio, err := e.tts.Synthesize(ctx, text, a.Voice)
	if err != nil {
		e.logger.Warn("speech synthesis failed",
			zap.String("agent", a.ID),
			zap.String("voice", a.Voice),
			zap.Error(err))
		return
	}
	if e.audio != nil {
		e.audio.Enqueue(audio)
	}
}

func eventTypeFor(a *types.Agent, userName string) types.TimelineEventType {
	switch {
	case userName != "" && a.Role == userName:
		return types.EventUserInput
	case a.IsMaestro():
		return types.EventDecision
	default:
		return types.EventAgentContribution
	}
}

// maestroCall issues an orchestration request on the Maestro's own model,
// outside the normal turn flow.
func (e *Engine) maestroCall(ctx context.Context, instruction, userPrompt string) (string, error) {
	if e.maestro == nil {
		return "", types.NewError(types.ErrNoMaestro, "no Maestro agent in roster")
	}
	start := time.Now()
	provider := e.registry.Resolve(e.maestro.Model.Provider)
	resp, err := provider.GenerateContent(ctx, &llm.Request{
		SystemInstruction: instruction,
		Prompt:            userPrompt,
		Temperature:       e.cfg.temperature(),
		ModelName:         e.maestro.Model.ModelName,
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.metrics.RecordProviderRequest(e.maestro.Model.Provider, e.maestro.Model.ModelName, status, time.Since(start))
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
