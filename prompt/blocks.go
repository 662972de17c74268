package prompt

import (
	"fmt"
	"strings"

	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/types"
)

// Block builders. Each returns "" when its underlying data is absent, which
// drops the block from the assembled instruction.

func masterContext(sessionGoal, maestroMemory string) string {
	var b strings.Builder
	b.WriteString("### MASTER CONTEXT (Your high-level goal) ###\n")
	b.WriteString("Your primary objective for this entire session is: " + sessionGoal)
	if maestroMemory != "" {
		b.WriteString("\nGlobal Lessons Learned (Maestro's Memory): " + maestroMemory)
	}
	return b.String()
}

func agentAssignment(agent *types.Agent) string {
	return fmt.Sprintf("### YOUR ASSIGNMENT ###\n"+
		"You are the %s.\n"+
		"Your specialization is: %s\n"+
		"(You are represented by %s)",
		agent.Role, agent.Expertise, agent.Avatar)
}

func agentMemory(agent *types.Agent, memory string) string {
	if !agent.HasPersonalMemory || memory == "" {
		return ""
	}
	return "### YOUR LESSONS LEARNED (Recall this) ###\n" +
		"Based on your past experiences, you've learned: " + memory
}

func uploadedDocs(docContext string) string {
	if docContext == "" {
		return ""
	}
	return "### FACTUAL GROUNDING (Data from uploaded documents) ###\n" +
		"You MUST use the following information to inform your response:\n" + docContext
}

func availableTools(tools []llm.ToolDeclaration) string {
	if len(tools) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("### AVAILABLE TOOLS ###\n")
	b.WriteString("You have access to the following tools. If you need to use one, respond with a function call.\n")
	for _, t := range tools {
		b.WriteString(fmt.Sprintf("- `%s`: %s\n", t.Name, t.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}

func currentObjective(ctx Context) string {
	const header = "### CURRENT OBJECTIVE (Your immediate task) ###\n"
	switch ctx.Mode {
	case types.ModeBoardroom:
		topic := "the main goal"
		if ctx.CurrentItineraryItem != nil && ctx.CurrentItineraryItem.Text != "" {
			topic = ctx.CurrentItineraryItem.Text
		}
		return header +
			fmt.Sprintf("The current discussion topic is: %q\n", topic) +
			"Your response MUST be relevant to this topic."
	case types.ModeProject:
		m := ctx.CurrentMilestone
		if m == nil {
			return ""
		}
		return header +
			fmt.Sprintf("You are assigned to Milestone: %q\n", m.Name) +
			"Milestone Objective: " + m.Objective + "\n" +
			"Your task is to generate your portion of the following deliverables: " +
			strings.Join(m.Deliverables, ", ")
	case types.ModeSocialSandbox:
		scenario := ctx.SandboxScenario
		if scenario == "" {
			scenario = ctx.SessionGoal
		}
		return header +
			"You are in a roleplaying scenario. You MUST stay in character.\n" +
			"Scenario: " + scenario + "\n" +
			"Your current persona is: " + ctx.Agent.Role
	case types.ModeComparison:
		return header +
			"You are in a head-to-head comparison.\n" +
			"Your task is to provide the best possible response to the user's prompt."
	default:
		return ""
	}
}

func recentConversation(lastTurns []types.SessionLogEntry, agents []*types.Agent) string {
	if len(lastTurns) == 0 {
		return ""
	}
	if len(lastTurns) > RecentTurnCount {
		lastTurns = lastTurns[len(lastTurns)-RecentTurnCount:]
	}
	var b strings.Builder
	b.WriteString("### RECENT CONVERSATION (Context for your response) ###\n")
	for i, turn := range lastTurns {
		role, avatar := turn.Role, turn.Avatar
		// The transcript role can be a sandbox persona; resolve back to the
		// live agent when possible.
		for _, a := range agents {
			if a.Role == turn.Role || a.ID == turn.Role {
				role, avatar = a.Role, a.Avatar
				break
			}
		}
		if avatar == "" {
			avatar = "..."
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s (%s): %s", role, avatar, turn.Content))
	}
	return b.String()
}

func peerRoles(agents []*types.Agent, exceptID string) string {
	var names []string
	for _, a := range agents {
		if a.IsMaestro() || a.ID == exceptID {
			continue
		}
		names = append(names, a.Role)
	}
	return strings.Join(names, ", ")
}

func instructions(w types.WeightProfile, userName string, agents []*types.Agent, tools []llm.ToolDeclaration) string {
	var b strings.Builder
	b.WriteString("### INSTRUCTIONS FOR YOUR RESPONSE (READ CAREFULLY) ###\n\n")
	b.WriteString("**1. Conversational Style (CRITICAL):**\n")
	b.WriteString("   - You MUST be conversational. Do not act like a chatbot.\n")
	b.WriteString("   - Acknowledge the previous turn before giving your own.\n")
	b.WriteString("   - Specifically address their main points if you disagree, have a question, or strongly agree.\n")
	b.WriteString(fmt.Sprintf("   - Refer to the user as %q and your colleagues (e.g., %s) by their roles.\n\n", userName, peerRoles(agents, "")))
	b.WriteString("**2. Response Format:**\n")
	b.WriteString("   - Provide your response directly. Do not say \"As the [Role]...\". Just give your expert output.\n")
	b.WriteString("   - Adhere strictly to your assigned role and specialization.\n\n")
	b.WriteString("**3. Reasoning Weights (How to Think):**\n")
	b.WriteString("   - Emphasize the following in your reasoning:\n")
	b.WriteString(fmt.Sprintf("   - Current Objective: %.0f%%\n", w.Objective*100))
	b.WriteString(fmt.Sprintf("   - Critical Thinking: %.0f%%\n", w.CriticalThinking*100))
	b.WriteString(fmt.Sprintf("   - Innovation: %.0f%%\n\n", w.Innovation*100))
	b.WriteString("**4. Language:**\n")
	b.WriteString("   - Use natural, flowing, expert language. You are a world-class professional.")
	if len(tools) > 0 {
		b.WriteString("\n\n**5. Tool Use:**\n")
		b.WriteString("   - If you need external information to answer, use the provided tools by making a function call in your response.")
	}
	return b.String()
}

func sandboxInstructions(w types.WeightProfile, agent *types.Agent, agents []*types.Agent) string {
	var b strings.Builder
	b.WriteString("### INSTRUCTIONS FOR YOUR RESPONSE (READ CAREFULLY) ###\n\n")
	b.WriteString("**1. Stay in Character (CRITICAL):**\n")
	b.WriteString(fmt.Sprintf("   - You MUST stay in character as your assigned persona (%s) at all times.\n", agent.Role))
	b.WriteString("   - Do NOT break character or mention that you are an AI.\n")
	b.WriteString(fmt.Sprintf("   - Your response should be a natural continuation of the conversation. Refer to other participants by their assigned roles (e.g., %s).\n", peerRoles(agents, agent.ID)))
	b.WriteString("   - Your response can be dialogue or an action described in brackets (e.g., [takes a deep breath and looks at the interviewer]).\n\n")
	b.WriteString("**2. Reasoning Weights (How to Think):**\n")
	b.WriteString("   - Your persona should emphasize the following in their reasoning:\n")
	b.WriteString(fmt.Sprintf("   - Scenario Objective: %.0f%%\n", w.Objective*100))
	b.WriteString(fmt.Sprintf("   - Critical Thinking: %.0f%%\n", w.CriticalThinking*100))
	b.WriteString(fmt.Sprintf("   - Innovation/Creativity: %.0f%%\n\n", w.Innovation*100))
	b.WriteString("**3. Goal:**\n")
	b.WriteString("   - Emphasize creativity, authenticity, and believability in your role-playing.")
	return b.String()
}
