package types

// MaestroRole is the reserved role name of the coordinating agent. Exactly one
// agent in the roster must carry this role before a session can start.
const MaestroRole = "Maestro"

// AgentStatus represents an agent's lifecycle state during a session.
type AgentStatus string

const (
	StatusIdle    AgentStatus = "idle"
	StatusWorking AgentStatus = "working"
	StatusDone    AgentStatus = "done"
	StatusError   AgentStatus = "error"
)

// ModelConfig identifies the backend serving an agent.
type ModelConfig struct {
	Provider  string `json:"provider" yaml:"provider"`
	ModelName string `json:"model_name" yaml:"model_name"`
}

// AgentConfig is the persisted, user-editable subset of an Agent.
type AgentConfig struct {
	ID                string      `json:"id" yaml:"id"`
	Role              string      `json:"role" yaml:"role"`
	Expertise         string      `json:"expertise" yaml:"expertise"`
	Avatar            string      `json:"avatar" yaml:"avatar"`
	Model             ModelConfig `json:"model" yaml:"model"`
	HasPersonalMemory bool        `json:"has_personal_memory" yaml:"has_personal_memory"`
	Voice             string      `json:"voice,omitempty" yaml:"voice,omitempty"`
}

// Agent is a live session participant: its config plus runtime status.
// Status and CurrentTask are mutated only by the turn engine.
type Agent struct {
	AgentConfig
	Status      AgentStatus `json:"status"`
	CurrentTask string      `json:"current_task,omitempty"`
}

// NewAgent creates an idle Agent from its persisted config.
func NewAgent(cfg AgentConfig) *Agent {
	return &Agent{AgentConfig: cfg, Status: StatusIdle}
}

// IsMaestro reports whether this agent is the session coordinator.
func (a *Agent) IsMaestro() bool {
	return a.Role == MaestroRole
}

// ValidateRoster checks the configuration invariants that must hold before a
// session can start: a non-empty roster containing exactly one Maestro and no
// duplicate agent ids.
func ValidateRoster(configs []AgentConfig) error {
	if len(configs) == 0 {
		return NewError(ErrConfiguration, "agent roster is empty")
	}
	seen := make(map[string]bool, len(configs))
	maestros := 0
	for _, c := range configs {
		if c.ID == "" {
			return NewError(ErrConfiguration, "agent with empty id")
		}
		if seen[c.ID] {
			return NewError(ErrConfiguration, "duplicate agent id: "+c.ID)
		}
		seen[c.ID] = true
		if c.Role == MaestroRole {
			maestros++
		}
	}
	switch maestros {
	case 0:
		return NewError(ErrNoMaestro, "roster has no Maestro agent")
	case 1:
		return nil
	default:
		return NewError(ErrNoMaestro, "roster has more than one Maestro agent")
	}
}
