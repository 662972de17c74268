package types

// TaskStatus is the lifecycle state of a milestone. A milestone never
// regresses to an earlier state.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "inprogress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

// Milestone is one unit of Project-mode work. AssignedAgents entries may be
// agent ids or role names; both interpretations are matched when resolving.
type Milestone struct {
	MilestoneID       string     `json:"milestone_id" yaml:"milestone_id"`
	Name              string     `json:"name" yaml:"name"`
	Objective         string     `json:"objective" yaml:"objective"`
	Deliverables      []string   `json:"deliverables" yaml:"deliverables"`
	EstimatedDuration string     `json:"estimated_duration" yaml:"estimated_duration"`
	AssignedAgents    []string   `json:"assigned_agents" yaml:"assigned_agents"`
	Dependencies      []string   `json:"dependencies" yaml:"dependencies"`
	CurrentStatus     TaskStatus `json:"current_status" yaml:"current_status"`
}

// ProjectAgent is a lightweight planning-time specialization record, separate
// from the live Agent registry.
type ProjectAgent struct {
	AgentID         string   `json:"agent_id" yaml:"agent_id"`
	Specializations []string `json:"specializations" yaml:"specializations"`
	CurrentTasks    []string `json:"current_tasks,omitempty" yaml:"current_tasks,omitempty"`
	Availability    bool     `json:"availability" yaml:"availability"`
}

// ProjectData is the Project mode root aggregate.
type ProjectData struct {
	ProjectID   string         `json:"project_id" yaml:"project_id"`
	ProjectName string         `json:"project_name" yaml:"project_name"`
	Goal        string         `json:"goal" yaml:"goal"`
	Constraints []string       `json:"constraints" yaml:"constraints"`
	Milestones  []Milestone    `json:"milestones" yaml:"milestones"`
	Agents      []ProjectAgent `json:"agents,omitempty" yaml:"agents,omitempty"`
}

// Validate checks the structural invariants of a project plan: unique
// milestone ids and no dependency cycles. Unknown dependency ids are NOT an
// error here; the scheduler deliberately treats them as already satisfied.
func (p *ProjectData) Validate() error {
	if len(p.Milestones) == 0 {
		return NewError(ErrConfiguration, "project has no milestones")
	}
	byID := make(map[string]*Milestone, len(p.Milestones))
	for i := range p.Milestones {
		m := &p.Milestones[i]
		if m.MilestoneID == "" {
			return NewError(ErrConfiguration, "milestone with empty id")
		}
		if _, dup := byID[m.MilestoneID]; dup {
			return NewError(ErrConfiguration, "duplicate milestone id: "+m.MilestoneID)
		}
		byID[m.MilestoneID] = m
	}
	// Cycle check over resolvable dependencies only.
	const (
		white = 0 // unvisited
		grey  = 1 // on the current path
		black = 2 // finished
	)
	color := make(map[string]int, len(byID))
	var visit func(id string) bool
	visit = func(id string) bool {
		m, ok := byID[id]
		if !ok {
			return true
		}
		switch color[id] {
		case grey:
			return false
		case black:
			return true
		}
		color[id] = grey
		for _, dep := range m.Dependencies {
			if !visit(dep) {
				return false
			}
		}
		color[id] = black
		return true
	}
	for _, m := range p.Milestones {
		if !visit(m.MilestoneID) {
			return NewError(ErrCycleDetected, "milestone dependency cycle involving "+m.MilestoneID)
		}
	}
	return nil
}
