package prompt

// Project-mode role guidance, keyed by agent id. An unrecognized id falls
// back to the generic entry.

const roleGuidanceHeader = "### YOUR ROLE-SPECIFIC GUIDANCE (Read Carefully) ###\n"

var roleGuidanceByID = map[string]string{
	"ArchitectBot": "- **Focus:** System design, API architecture, and scalability.\n" +
		"- **Task:** Define the data models, API schemas, and overall structural logic.\n" +
		"- **Output:** Your deliverable should be technical (e.g., JSON schemas, system diagrams as text, API endpoint definitions).",
	"CodeSmith": "- **Focus:** Implementation, integration, and debugging.\n" +
		"- **Task:** Write clean, functional, and efficient code.\n" +
		"- **Output:** Your deliverable must be primarily code blocks that directly implement the required features.",
	"UXBot": "- **Focus:** User experience, interaction design, and visual layout.\n" +
		"- **Task:** Describe the user's journey, component layout, and interaction patterns.\n" +
		"- **Output:** Your deliverable should be descriptive text outlining the UI/UX, user flow logic, or accessibility guidelines.",
	"AudioBot": "- **Focus:** TTS integration, voice selection, and audio playback.\n" +
		"- **Task:** Detail the logic for audio integration.\n" +
		"- **Output:** Your deliverable should be technical descriptions of API integration steps, audio processing logic, or voice selection criteria.",
	"StrategistBot": "- **Focus:** Milestone planning, dependency management, and dynamic allocation.\n" +
		"- **Task:** Analyze the project's \"why\" and \"when.\"\n" +
		"- **Output:** Your deliverable should be focused on planning, risk analysis, dependency mapping, or timeline adjustments.",
	"QABot": "- **Focus:** Testing, optimization, and bug reporting.\n" +
		"- **Task:** Critically analyze the system to find flaws and suggest improvements.\n" +
		"- **Output:** Your deliverable should be a list of test cases, detailed bug reports, or performance benchmark criteria.",
	"Maestro": "- **Focus:** Orchestration, synthesis, and progress tracking.\n" +
		"- **Task:** Your role in this milestone is to synthesize outputs or manage other agents.\n" +
		"- **Output:** Your deliverable should be a high-level summary, a status update, or clear instructions for the *next* steps.",
}

// UXBot and DesignBot share guidance.
func init() {
	roleGuidanceByID["DesignBot"] = roleGuidanceByID["UXBot"]
}

const genericRoleGuidance = "- **Focus:** Your core expertise.\n" +
	"- **Task:** Provide your best expert contribution to the milestone.\n" +
	"- **Output:** Your deliverable should be a professional, expert-level response."

func roleGuidance(agentID string) string {
	if g, ok := roleGuidanceByID[agentID]; ok {
		return roleGuidanceHeader + g
	}
	return roleGuidanceHeader + genericRoleGuidance
}
