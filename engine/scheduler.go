package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/maestro/types"
)

// ExecutionOrder resolves milestone dependencies depth first, visiting
// milestones in list order as entry points, so every milestone appears after
// all of its resolvable dependencies. Dependency ids that match no milestone
// are treated as already satisfied; this leniency is deliberate, matching the
// planner's tolerance for sloppy model output. Cycles terminate the walk for
// the affected branch and are reported once by the caller via
// ProjectData.Validate.
func ExecutionOrder(milestones []types.Milestone) []types.Milestone {
	byID := make(map[string]*types.Milestone, len(milestones))
	for i := range milestones {
		byID[milestones[i].MilestoneID] = &milestones[i]
	}

	const (
		unvisited = 0
		inPath    = 1
		finished  = 2
	)
	state := make(map[string]int, len(milestones))
	order := make([]types.Milestone, 0, len(milestones))

	var visit func(id string)
	visit = func(id string) {
		m, ok := byID[id]
		if !ok || state[id] != unvisited {
			// Unknown dependency, already emitted, or a cycle back edge.
			return
		}
		state[id] = inPath
		for _, dep := range m.Dependencies {
			visit(dep)
		}
		state[id] = finished
		order = append(order, *m)
	}
	for _, m := range milestones {
		visit(m.MilestoneID)
	}
	return order
}

// runProject executes all milestones in dependency order, fanning each one
// out to its assigned agents concurrently.
func (e *Engine) runProject(ctx context.Context) error {
	project := e.cfg.Project
	if project == nil {
		parsed, err := e.ParseProjectPlan(ctx, e.cfg.Goal)
		if err != nil {
			return err
		}
		project = parsed
	}

	for _, m := range ExecutionOrder(project.Milestones) {
		if e.isCancelled(ctx) {
			return nil
		}
		if done := e.runMilestone(ctx, m); !done {
			return nil
		}
	}
	return nil
}

// runMilestone fans one milestone out to its assigned agents and waits for
// all of them. Individual agent failures are recorded as error turns without
// blocking siblings. Returns false when cancellation interrupted the
// milestone, in which case done is never recorded.
func (e *Engine) runMilestone(ctx context.Context, m types.Milestone) bool {
	e.store.SetMilestoneStatus(m.MilestoneID, types.TaskInProgress)
	e.metrics.RecordMilestone("started")
	e.logger.Info("milestone started",
		zap.String("milestone", m.MilestoneID),
		zap.String("name", m.Name))

	agents := e.resolveAssignees(m.AssignedAgents)
	if len(agents) == 0 {
		e.store.AppendLog(types.SessionLogEntry{
			Role:    types.MaestroRole,
			Avatar:  e.maestroAvatar(),
			Content: fmt.Sprintf("No available agents matched milestone %q; skipping it.", m.Name),
		}, types.EventDecision)
		e.store.SetMilestoneStatus(m.MilestoneID, types.TaskDone)
		e.metrics.RecordMilestone("skipped")
		return true
	}

	ask := milestoneAsk(m)
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range agents {
		a := a
		g.Go(func() error {
			pc := e.promptContext(gctx, a, ask)
			pc.CurrentMilestone = &m
			entry, err := e.takeTurn(gctx, a, pc, ask, fmt.Sprintf("Working on: %s", m.Name))
			if err != nil {
				// Already recorded as an error turn; do not fail the group.
				return nil
			}
			e.addDeliverable(types.Deliverable{
				Milestone: m.Name,
				Agent:     a.Role,
				Content:   entry.Content,
			})
			return nil
		})
	}
	g.Wait()

	if e.isCancelled(ctx) {
		// Stop before marking done; scheduling stays incomplete.
		return false
	}
	e.store.SetMilestoneStatus(m.MilestoneID, types.TaskDone)
	e.store.AppendLog(types.SessionLogEntry{
		Role:    types.MaestroRole,
		Avatar:  e.maestroAvatar(),
		Content: fmt.Sprintf("Milestone %q is complete.", m.Name),
	}, types.EventTaskComplete)
	e.metrics.RecordMilestone("done")
	return true
}

// resolveAssignees matches assignment entries against both agent ids and role
// names, returning the union without duplicates. The Maestro never takes
// milestone work.
func (e *Engine) resolveAssignees(assigned []string) []*types.Agent {
	var out []*types.Agent
	seen := make(map[string]bool)
	for _, key := range assigned {
		for _, a := range e.store.Agents() {
			if a.IsMaestro() || seen[a.ID] {
				continue
			}
			if a.ID == key || strings.EqualFold(a.Role, key) {
				seen[a.ID] = true
				out = append(out, a)
			}
		}
	}
	return out
}

func milestoneAsk(m types.Milestone) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Produce your deliverable for the milestone %q.\nObjective: %s", m.Name, m.Objective)
	if len(m.Deliverables) > 0 {
		b.WriteString("\nExpected deliverables:")
		for _, d := range m.Deliverables {
			b.WriteString("\n- " + d)
		}
	}
	return b.String()
}
