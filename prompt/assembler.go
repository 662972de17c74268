// Package prompt builds the per-turn system instruction for an agent.
//
// Assembly is a pure function: given the same Context, Build returns
// byte-identical output. The instruction is an ordered concatenation of
// optional blocks joined by Separator; a block whose underlying data is absent
// is omitted entirely, never emitted as an empty section.
package prompt

import (
	"strings"

	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/types"
)

// Separator joins the instruction blocks. Tests rely on it to check block
// presence and ordering independently.
const Separator = "\n\n---\n\n"

// RecentTurnCount is how many trailing transcript turns are quoted back to
// the speaking agent.
const RecentTurnCount = 3

// Default reasoning-weight profiles per mode.
var (
	BoardroomWeights = types.WeightProfile{Objective: 0.7, CriticalThinking: 0.2, Innovation: 0.1}
	ProjectWeights   = types.WeightProfile{Objective: 0.4, CriticalThinking: 0.3, Innovation: 0.3}
	SandboxWeights   = types.WeightProfile{Objective: 0.1, CriticalThinking: 0.3, Innovation: 0.6}
)

// Context is everything the assembler may draw on for one turn. Optional
// fields left at their zero value simply drop their block.
type Context struct {
	Mode       types.Mode
	Agent      *types.Agent
	Agents     []*types.Agent
	UserName   string
	SessionGoal string

	MaestroMemory string
	AgentMemory   string
	DocContext    string
	LastTurns     []types.SessionLogEntry
	Tools         []llm.ToolDeclaration

	// Mode-specific context.
	CurrentItineraryItem *types.ItineraryItem
	CurrentMilestone     *types.Milestone
	SandboxScenario      string

	// Weights overrides the mode's default profile when non-nil.
	Weights *types.WeightProfile
}

func (c *Context) weights() types.WeightProfile {
	if c.Weights != nil {
		return *c.Weights
	}
	switch c.Mode {
	case types.ModeProject:
		return ProjectWeights
	case types.ModeSocialSandbox:
		return SandboxWeights
	default:
		return BoardroomWeights
	}
}

// Build assembles the full system instruction for the context's mode.
func Build(ctx Context) string {
	switch ctx.Mode {
	case types.ModeProject:
		return buildProject(ctx)
	case types.ModeSocialSandbox:
		return buildSandbox(ctx)
	default:
		// Boardroom is also the Comparison fallback; the modes differ only in
		// the current-objective block.
		return buildBoardroom(ctx)
	}
}

func join(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}

func buildBoardroom(ctx Context) string {
	return join([]string{
		masterContext(ctx.SessionGoal, ctx.MaestroMemory),
		agentAssignment(ctx.Agent),
		agentMemory(ctx.Agent, ctx.AgentMemory),
		uploadedDocs(ctx.DocContext),
		availableTools(ctx.Tools),
		currentObjective(ctx),
		recentConversation(ctx.LastTurns, ctx.Agents),
		instructions(ctx.weights(), ctx.UserName, ctx.Agents, ctx.Tools),
	})
}

func buildProject(ctx Context) string {
	return join([]string{
		masterContext(ctx.SessionGoal, ctx.MaestroMemory),
		agentAssignment(ctx.Agent),
		agentMemory(ctx.Agent, ctx.AgentMemory),
		uploadedDocs(ctx.DocContext),
		availableTools(ctx.Tools),
		currentObjective(ctx),
		roleGuidance(ctx.Agent.ID),
		recentConversation(ctx.LastTurns, ctx.Agents),
		instructions(ctx.weights(), ctx.UserName, ctx.Agents, ctx.Tools),
	})
}

func buildSandbox(ctx Context) string {
	scenario := ctx.SandboxScenario
	if scenario == "" {
		scenario = ctx.SessionGoal
	}
	master := "### MASTER CONTEXT ###\nYou are in a roleplaying scenario: \"" + scenario + "\""
	assignment := "### YOUR ASSIGNMENT ###\nYou are currently playing the role of: \"" + ctx.Agent.Role + "\""

	return join([]string{
		master,
		assignment,
		agentMemory(ctx.Agent, ctx.AgentMemory),
		uploadedDocs(ctx.DocContext),
		currentObjective(ctx),
		recentConversation(ctx.LastTurns, ctx.Agents),
		sandboxInstructions(ctx.weights(), ctx.Agent, ctx.Agents),
	})
}
