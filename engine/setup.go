package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/maestro/prompt"
	"github.com/BaSui01/maestro/rag"
	"github.com/BaSui01/maestro/types"
)

// GenerateItinerary asks the Maestro to turn the session goal into an agenda.
// A failed or malformed reply falls back to a single item carrying the goal
// itself, so the meeting can always start.
func (e *Engine) GenerateItinerary(ctx context.Context) ([]types.ItineraryItem, error) {
	fallback := []types.ItineraryItem{{ID: uuid.NewString(), Text: e.cfg.Goal}}

	raw, err := e.maestroCall(ctx, prompt.ItineraryGeneration,
		fmt.Sprintf("The meeting goal is: %s", e.cfg.Goal))
	if err != nil {
		e.logger.Warn("itinerary generation failed, using the goal as the agenda", zap.Error(err))
		return fallback, nil
	}

	var plan types.ItineraryPlan
	if err := types.DecodeStructured(raw, &plan); err != nil {
		e.logger.Warn("itinerary reply malformed, using the goal as the agenda", zap.Error(err))
		return fallback, nil
	}
	if err := plan.Validate(); err != nil {
		e.logger.Warn("itinerary plan invalid, using the goal as the agenda", zap.Error(err))
		return fallback, nil
	}

	items := make([]types.ItineraryItem, 0, len(plan.Itinerary))
	for _, text := range plan.Itinerary {
		items = append(items, types.ItineraryItem{ID: uuid.NewString(), Text: text})
	}
	e.logger.Info("itinerary generated", zap.Int("items", len(items)))
	return items, nil
}

// ParseProjectPlan asks the Maestro to decompose a high-level prompt into a
// milestone plan. Unlike the other setup calls this one has no silent
// fallback: a plan that fails validation is a configuration error, because
// running an invented schedule would be worse than not starting.
func (e *Engine) ParseProjectPlan(ctx context.Context, goal string) (*types.ProjectData, error) {
	var roster strings.Builder
	for _, a := range e.participants() {
		fmt.Fprintf(&roster, "- %s (id: %s): %s\n", a.Role, a.ID, a.Expertise)
	}

	raw, err := e.maestroCall(ctx, prompt.ProjectPlanParse,
		fmt.Sprintf("Prompt: %s\n\nAvailable agents:\n%s", goal, roster.String()))
	if err != nil {
		return nil, types.NewError(types.ErrConfiguration, "project plan generation failed").WithCause(err)
	}

	var plan types.ProjectPlan
	if err := types.DecodeStructured(raw, &plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	project := &types.ProjectData{
		ProjectID:   uuid.NewString(),
		ProjectName: plan.ProjectName,
		Goal:        plan.Goal,
		Constraints: plan.Constraints,
		Milestones:  plan.Milestones,
	}
	e.logger.Info("project plan generated",
		zap.String("project", plan.ProjectName),
		zap.Int("milestones", len(plan.Milestones)))
	return project, nil
}

// SummarizeLessons distills each memory-keeping agent's session performance
// into a short lesson and stores it for future sessions. Called after a
// completed session; failures only cost the memory, never the session.
func (e *Engine) SummarizeLessons(ctx context.Context) {
	if e.memory == nil {
		return
	}
	transcript := transcriptText(e.store.Log())
	if transcript == "" {
		return
	}
	for _, a := range e.store.Agents() {
		if !a.HasPersonalMemory {
			continue
		}
		lesson, err := e.maestroCall(ctx, prompt.SummarizeAgentLessons,
			fmt.Sprintf("Agent: %s (%s)\n\nTranscript:\n%s", a.Role, a.Expertise, transcript))
		if err != nil {
			e.logger.Warn("lesson summarization failed",
				zap.String("agent", a.ID), zap.Error(err))
			continue
		}
		lesson = strings.TrimSpace(lesson)
		if lesson == "" {
			continue
		}
		if err := e.memory.Set(ctx, memoryKey(a.ID), lesson, 0); err != nil {
			e.logger.Warn("failed to store agent lesson",
				zap.String("agent", a.ID), zap.Error(err))
		}
	}
}

// AddFiles indexes uploaded documents for retrieval during prompts.
func (e *Engine) AddFiles(ctx context.Context, files []rag.File) error {
	if e.docs == nil {
		return nil
	}
	return e.docs.AddFiles(ctx, files)
}
