package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/types"
)

func testAgent(id, role string) *types.Agent {
	return types.NewAgent(types.AgentConfig{
		ID:        id,
		Role:      role,
		Expertise: "expertise of " + role,
		Avatar:    "🤖",
	})
}

func testContext(mode types.Mode) Context {
	maestro := testAgent("maestro", types.MaestroRole)
	analyst := testAgent("analyst", "Market Analyst")
	return Context{
		Mode:        mode,
		Agent:       analyst,
		Agents:      []*types.Agent{maestro, analyst},
		UserName:    "Dana",
		SessionGoal: "Decide the Q3 launch strategy",
	}
}

func blocks(instruction string) []string {
	return strings.Split(instruction, Separator)
}

func TestBoardroomBlockOrder(t *testing.T) {
	ctx := testContext(types.ModeBoardroom)
	ctx.CurrentItineraryItem = &types.ItineraryItem{ID: "i1", Text: "Budget ceiling"}

	got := blocks(Build(ctx))
	require.Len(t, got, 4) // master, assignment, objective, instructions
	assert.Contains(t, got[0], "MASTER CONTEXT")
	assert.Contains(t, got[1], "YOUR ASSIGNMENT")
	assert.Contains(t, got[2], "CURRENT OBJECTIVE")
	assert.Contains(t, got[2], "Budget ceiling")
	assert.Contains(t, got[3], "INSTRUCTIONS FOR YOUR RESPONSE")
	assert.Contains(t, got[3], `"Dana"`)
}

func TestBoardroomObjectiveFallsBackToGoal(t *testing.T) {
	ctx := testContext(types.ModeBoardroom)
	out := Build(ctx)
	assert.Contains(t, out, "the main goal")
}

func TestAbsentBlocksAreOmitted(t *testing.T) {
	ctx := testContext(types.ModeBoardroom)
	out := Build(ctx)

	assert.NotContains(t, out, "LESSONS LEARNED")
	assert.NotContains(t, out, "FACTUAL GROUNDING")
	assert.NotContains(t, out, "AVAILABLE TOOLS")
	assert.NotContains(t, out, "RECENT CONVERSATION")
	// No empty sections: every block between separators has content.
	for _, b := range blocks(out) {
		assert.NotEmpty(t, strings.TrimSpace(b))
	}
}

func TestMemoryBlockRoundTrip(t *testing.T) {
	ctx := testContext(types.ModeBoardroom)
	base := Build(ctx)

	// Memory text alone is not enough; the agent must opt in.
	ctx.AgentMemory = "never promise dates"
	assert.Equal(t, base, Build(ctx))

	ctx.Agent.HasPersonalMemory = true
	withMemory := Build(ctx)
	assert.Contains(t, withMemory, "YOUR LESSONS LEARNED")
	assert.Contains(t, withMemory, "never promise dates")

	// Removing the memory restores the original block set byte for byte.
	ctx.AgentMemory = ""
	ctx.Agent.HasPersonalMemory = false
	assert.Equal(t, base, Build(ctx))
}

func TestBuildDeterminism(t *testing.T) {
	ctx := testContext(types.ModeProject)
	ctx.CurrentMilestone = &types.Milestone{
		MilestoneID:  "m1",
		Name:         "Architecture Setup",
		Objective:    "Design the system",
		Deliverables: []string{"API schema", "Data model"},
	}
	ctx.LastTurns = []types.SessionLogEntry{
		{Role: "Market Analyst", Avatar: "🤖", Content: "I think we should start."},
	}
	assert.Equal(t, Build(ctx), Build(ctx))
}

func TestProjectRoleGuidance(t *testing.T) {
	ctx := testContext(types.ModeProject)
	ctx.Agent = testAgent("ArchitectBot", "Architect")
	ctx.CurrentMilestone = &types.Milestone{Name: "M", Objective: "O", Deliverables: []string{"D"}}

	out := Build(ctx)
	assert.Contains(t, out, "ROLE-SPECIFIC GUIDANCE")
	assert.Contains(t, out, "System design")

	// Unknown ids get the generic fallback, never an absent block.
	ctx.Agent = testAgent("MysteryBot", "Mystery")
	out = Build(ctx)
	assert.Contains(t, out, "ROLE-SPECIFIC GUIDANCE")
	assert.Contains(t, out, "core expertise")
}

func TestSandboxInstructions(t *testing.T) {
	ctx := testContext(types.ModeSocialSandbox)
	ctx.SandboxScenario = "A tense salary negotiation"
	ctx.Agent.Role = "Skeptical Hiring Manager"

	out := Build(ctx)
	assert.Contains(t, out, "Stay in Character")
	assert.Contains(t, out, "Do NOT break character or mention that you are an AI")
	assert.Contains(t, out, "A tense salary negotiation")
	assert.Contains(t, out, "Skeptical Hiring Manager")
	assert.NotContains(t, out, "Do not act like a chatbot")
}

func TestRecentConversationLimit(t *testing.T) {
	ctx := testContext(types.ModeBoardroom)
	for _, content := range []string{"first", "second", "third", "fourth", "fifth"} {
		ctx.LastTurns = append(ctx.LastTurns, types.SessionLogEntry{
			Role: "Market Analyst", Avatar: "🤖", Content: content,
		})
	}
	out := Build(ctx)
	assert.NotContains(t, out, "first")
	assert.NotContains(t, out, "second")
	assert.Contains(t, out, "third")
	assert.Contains(t, out, "fourth")
	assert.Contains(t, out, "fifth")
}

func TestToolsBlock(t *testing.T) {
	ctx := testContext(types.ModeBoardroom)
	ctx.Tools = []llm.ToolDeclaration{{
		Name:        "googleSearch",
		Description: "Performs a Google search for up-to-date information.",
	}}
	out := Build(ctx)
	assert.Contains(t, out, "AVAILABLE TOOLS")
	assert.Contains(t, out, "googleSearch")
	assert.Contains(t, out, "Tool Use")
}

func TestComparisonObjective(t *testing.T) {
	ctx := testContext(types.ModeComparison)
	out := Build(ctx)
	assert.Contains(t, out, "best possible response to the user's prompt")
}

func TestSynthesisFormats(t *testing.T) {
	md := Synthesis(types.ModeBoardroom, types.FormatMarkdown)
	assert.Contains(t, md, "Markdown format")

	js := Synthesis(types.ModeBoardroom, types.FormatJSON)
	assert.Contains(t, js, "single JSON object")
	assert.Contains(t, js, "keyDecisions")

	email := Synthesis(types.ModeProject, types.FormatEmail)
	assert.Contains(t, email, "professional email")
	assert.Contains(t, email, "deliverables")
}

func TestNextSpeakerListsParticipants(t *testing.T) {
	out := NextSpeaker([]string{"Interviewer", "Candidate"})
	assert.Contains(t, out, "Interviewer, Candidate")
}
