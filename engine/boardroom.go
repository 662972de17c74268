package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/maestro/prompt"
	"github.com/BaSui01/maestro/types"
)

// runBoardroom walks the itinerary in order. Within each item every
// non-Maestro agent speaks exactly once, round-robin, starting from the agent
// after the previous item's last speaker. Between items the Maestro posts a
// short topic summary.
func (e *Engine) runBoardroom(ctx context.Context) error {
	items := e.cfg.Itinerary
	if len(items) == 0 {
		generated, err := e.GenerateItinerary(ctx)
		if err != nil {
			return err
		}
		items = generated
	}
	e.store.SetItinerary(items)

	participants := e.participants()
	if len(participants) == 0 {
		return types.NewError(types.ErrConfiguration, "no non-Maestro agents to run the meeting")
	}

	next := 0 // rotation cursor, persists across items
	for itemIdx := range items {
		item := &items[itemIdx]
		e.logger.Info("itinerary item started",
			zap.Int("item", itemIdx),
			zap.String("text", item.Text))

		for range participants {
			if e.isCancelled(ctx) {
				return nil
			}
			speaker := participants[next%len(participants)]
			next++

			pc := e.promptContext(ctx, speaker, item.Text)
			pc.CurrentItineraryItem = item

			task := fmt.Sprintf("Discussing: %s", item.Text)
			e.takeTurn(ctx, speaker, pc, item.Text, task)

			if e.isCancelled(ctx) {
				return nil
			}
		}

		e.store.CompleteItineraryItem(item.ID)

		// Topic summary is only needed when a transition follows.
		if itemIdx < len(items)-1 {
			e.summarizeTopic(ctx, item.Text, items[itemIdx+1].Text)
			if e.isCancelled(ctx) {
				return nil
			}
		}
	}
	return nil
}

// summarizeTopic asks the Maestro to close out the finished agenda item.
// Failure is absorbed; the meeting simply moves on without a summary.
func (e *Engine) summarizeTopic(ctx context.Context, finished, upcoming string) {
	transcript := transcriptText(e.store.LastEntries(prompt.RecentTurnCount * 2))
	ask := fmt.Sprintf("The topic %q is complete. The next topic is %q.\n\nRecent discussion:\n%s",
		finished, upcoming, transcript)

	summary, err := e.maestroCall(ctx, prompt.TopicSummary, ask)
	if err != nil || e.isCancelled(ctx) {
		if err != nil {
			e.logger.Warn("topic summary failed", zap.Error(err))
		}
		return
	}
	e.store.AppendLog(types.SessionLogEntry{
		Role:    types.MaestroRole,
		Avatar:  e.maestroAvatar(),
		Content: summary,
	}, types.EventDecision)
}

// runComparison gives every non-Maestro agent one turn on the same prompt so
// their answers can be compared side by side.
func (e *Engine) runComparison(ctx context.Context) error {
	participants := e.participants()
	if len(participants) == 0 {
		return types.NewError(types.ErrConfiguration, "no non-Maestro agents to compare")
	}
	for _, a := range participants {
		if e.isCancelled(ctx) {
			return nil
		}
		pc := e.promptContext(ctx, a, e.cfg.Goal)
		e.takeTurn(ctx, a, pc, e.cfg.Goal, "Answering the comparison prompt")
	}
	return nil
}

func transcriptText(entries []types.SessionLogEntry) string {
	var out string
	for _, en := range entries {
		if out != "" {
			out += "\n"
		}
		out += fmt.Sprintf("%s: %s", en.Role, en.Content)
	}
	return out
}
