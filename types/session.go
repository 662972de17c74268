package types

import "time"

// Mode selects the interaction structure of a session.
type Mode string

const (
	ModeBoardroom     Mode = "Boardroom"
	ModeProject       Mode = "Project"
	ModeSocialSandbox Mode = "SocialSandbox"
	ModeComparison    Mode = "Comparison"
)

// OutputFormat selects the shape of the synthesized final artifact.
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "Markdown"
	FormatJSON     OutputFormat = "JSON"
	FormatEmail    OutputFormat = "Email"
)

// SessionLogEntry is an immutable, append-only transcript record.
// Insertion order is chronological order.
type SessionLogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar"`
	Content   string    `json:"content"`
	Audio     string    `json:"audio,omitempty"` // base64 encoded
}

// TimelineEventType classifies a timeline event.
type TimelineEventType string

const (
	EventDecision          TimelineEventType = "decision"
	EventAgentContribution TimelineEventType = "agent_contribution"
	EventUserInput         TimelineEventType = "user_input"
	EventAlteration        TimelineEventType = "alteration"
	EventTaskComplete      TimelineEventType = "task_complete"
	EventDocGeneration     TimelineEventType = "doc_generation"
)

// TimelineEvent is a derived secondary index over log entries. RefID points
// back to the originating log entry for navigation only; the log entry owns
// the content.
type TimelineEvent struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Type        TimelineEventType `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	RefID       string            `json:"ref_id"`
}

// ItineraryItem is one Boardroom agenda entry. The agenda is user-editable
// before the session starts and frozen once active, except for Completed.
type ItineraryItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Deliverable is the ephemeral (milestone, agent, content) triple collected
// for the synthesis stage. It is never persisted on its own.
type Deliverable struct {
	Milestone string `json:"milestone"`
	Agent     string `json:"agent"`
	Content   string `json:"content"`
}

// ArchivedSession is the record persisted when a session completes.
type ArchivedSession struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Goal      string            `json:"goal"`
	FinalPlan string            `json:"final_plan,omitempty"`
	Log       []SessionLogEntry `json:"log"`
}

// WeightProfile is the reasoning-weight triple injected into agent prompts.
// The three values are intended to sum to 1, but this is advisory metadata
// only; nothing normalizes or enforces it.
type WeightProfile struct {
	Objective        float64 `json:"objective" yaml:"objective"`
	CriticalThinking float64 `json:"critical_thinking" yaml:"critical_thinking"`
	Innovation       float64 `json:"innovation" yaml:"innovation"`
}
