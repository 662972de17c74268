package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/maestro/prompt"
	"github.com/BaSui01/maestro/types"
)

// runSandbox plays out a roleplaying scenario with a hard turn cap. After
// each turn the Maestro nominates the next speaker; an invalid nomination
// falls back to the sequential next participant.
func (e *Engine) runSandbox(ctx context.Context) error {
	participants := e.participants()
	if len(participants) == 0 {
		return types.NewError(types.ErrConfiguration, "no non-Maestro agents in the scenario")
	}

	if e.cfg.SandboxScenario != "" {
		e.AssignPersonas(ctx)
		if e.isCancelled(ctx) {
			return nil
		}
	}

	speakerIdx := 0
	for turn := 0; turn < e.cfg.sandboxCap(); turn++ {
		if e.isCancelled(ctx) {
			return nil
		}
		speaker := participants[speakerIdx]

		pc := e.promptContext(ctx, speaker, e.cfg.SandboxScenario)
		ask := "Continue the scene in character."
		if turn == 0 {
			ask = "Open the scene in character."
		}
		e.takeTurn(ctx, speaker, pc, ask, "In the scene")

		if e.isCancelled(ctx) {
			return nil
		}
		speakerIdx = e.nominateNext(ctx, participants, speakerIdx)
	}
	return nil
}

// nominateNext asks the Maestro who speaks next. Any failure, malformed
// reply, or out-of-roster nomination falls back to the next participant in
// roster order.
func (e *Engine) nominateNext(ctx context.Context, participants []*types.Agent, current int) int {
	fallback := (current + 1) % len(participants)

	roles := make([]string, len(participants))
	for i, p := range participants {
		roles[i] = p.Role
	}
	transcript := transcriptText(e.store.LastEntries(prompt.RecentTurnCount))
	raw, err := e.maestroCall(ctx, prompt.NextSpeaker(roles),
		fmt.Sprintf("Recent turns:\n%s\n\nWho should speak next?", transcript))
	if err != nil {
		e.logger.Warn("next speaker nomination failed, using sequential fallback", zap.Error(err))
		return fallback
	}

	var decision types.NextSpeakerDecision
	if err := types.DecodeStructured(raw, &decision); err != nil {
		e.logger.Warn("next speaker reply malformed, using sequential fallback", zap.Error(err))
		return fallback
	}
	if err := decision.Validate(roles); err != nil {
		e.logger.Warn("next speaker nomination rejected, using sequential fallback",
			zap.String("nominated", decision.NextSpeaker), zap.Error(err))
		return fallback
	}
	for i, p := range participants {
		if p.Role == decision.NextSpeaker {
			return i
		}
	}
	return fallback
}

// AssignPersonas asks the Maestro to cast each participant for the scenario
// and applies the returned roles. On any failure the default roles stand.
func (e *Engine) AssignPersonas(ctx context.Context) {
	agents := e.participants()
	ids := make([]string, 0, len(agents))
	desc := ""
	for _, a := range agents {
		ids = append(ids, a.ID)
		desc += fmt.Sprintf("- %s (id: %s): %s\n", a.Role, a.ID, a.Expertise)
	}

	raw, err := e.maestroCall(ctx, prompt.SetupScenario,
		fmt.Sprintf("Scenario: %s\n\nAvailable agents:\n%s", e.cfg.SandboxScenario, desc))
	if err != nil {
		e.logger.Warn("persona assignment failed, keeping default roles", zap.Error(err))
		return
	}

	var personas types.PersonaAssignments
	if err := types.DecodeStructured(raw, &personas); err != nil {
		e.logger.Warn("persona reply malformed, keeping default roles", zap.Error(err))
		return
	}
	if err := personas.Validate(ids); err != nil {
		e.logger.Warn("persona assignments invalid, keeping default roles", zap.Error(err))
		return
	}

	for _, p := range personas.AgentPersonas {
		if a, ok := e.store.AgentByID(p.AgentID); ok {
			a.Role = p.NewRole
			e.logger.Info("persona assigned",
				zap.String("agent", p.AgentID),
				zap.String("role", p.NewRole))
		}
	}
	e.store.AppendLog(types.SessionLogEntry{
		Role:    types.MaestroRole,
		Avatar:  e.maestroAvatar(),
		Content: "The scene is set. Personas have been assigned.",
	}, types.EventAlteration)
}
