// Package session holds the mutable state of one conversation: the transcript
// log, the derived timeline, agent statuses, milestone statuses, and the
// synthesized final document. The turn engine is the only writer during an
// active session; everything else observes through Subscribe.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/maestro/types"
)

// UpdateKind discriminates state-change notifications.
type UpdateKind string

const (
	UpdateLogAppend       UpdateKind = "log_append"
	UpdateAgentStatus     UpdateKind = "agent_status"
	UpdateMilestoneStatus UpdateKind = "milestone_status"
	UpdateFinalDocument   UpdateKind = "final_document"
	UpdateItinerary       UpdateKind = "itinerary"
)

// StateUpdate is delivered to subscribers on every mutation. Only the fields
// relevant to Kind are populated.
type StateUpdate struct {
	Kind UpdateKind

	Entry *types.SessionLogEntry
	Event *types.TimelineEvent

	AgentID     string
	AgentStatus types.AgentStatus
	CurrentTask string

	MilestoneID     string
	MilestoneStatus types.TaskStatus

	Document         string
	DocumentComplete bool
}

// Listener receives state updates. Called synchronously from the mutating
// goroutine; keep it fast and never call back into the store.
type Listener func(StateUpdate)

// timelinePreviewLen bounds the description copied from a log entry into its
// timeline event.
const timelinePreviewLen = 100

// Store is the session ledger.
type Store struct {
	mu sync.RWMutex

	goal      string
	mode      types.Mode
	agents    []*types.Agent
	log       []types.SessionLogEntry
	timeline  []types.TimelineEvent
	itinerary []types.ItineraryItem

	milestoneStatus map[string]types.TaskStatus

	finalDocument string
	docComplete   bool

	listeners []Listener
	logger    *zap.Logger
}

// NewStore builds a store for the given roster. The roster should already
// have passed types.ValidateRoster.
func NewStore(mode types.Mode, goal string, agents []*types.Agent, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		goal:            goal,
		mode:            mode,
		agents:          agents,
		milestoneStatus: make(map[string]types.TaskStatus),
		logger:          logger.With(zap.String("component", "session")),
	}
}

// Subscribe registers a listener for all subsequent updates.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(u StateUpdate) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, l := range listeners {
		l(u)
	}
}

func (s *Store) Goal() string     { return s.goal }
func (s *Store) Mode() types.Mode { return s.mode }

// AppendLog appends a transcript entry and its derived timeline event. Blank
// ID and timestamp are filled in. Returns the stored entry.
func (s *Store) AppendLog(entry types.SessionLogEntry, eventType types.TimelineEventType) types.SessionLogEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	event := types.TimelineEvent{
		ID:          uuid.NewString(),
		Timestamp:   entry.Timestamp,
		Type:        eventType,
		Title:       entry.Role,
		Description: preview(entry.Content),
		RefID:       entry.ID,
	}

	s.mu.Lock()
	s.log = append(s.log, entry)
	s.timeline = append(s.timeline, event)
	s.mu.Unlock()

	s.logger.Debug("log entry appended",
		zap.String("role", entry.Role),
		zap.String("type", string(eventType)))
	s.notify(StateUpdate{Kind: UpdateLogAppend, Entry: &entry, Event: &event})
	return entry
}

// Log returns a copy of the transcript.
func (s *Store) Log() []types.SessionLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.SessionLogEntry, len(s.log))
	copy(out, s.log)
	return out
}

// LastEntries returns the most recent n transcript entries, oldest first.
func (s *Store) LastEntries(n int) []types.SessionLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.log) == 0 {
		return nil
	}
	if n > len(s.log) {
		n = len(s.log)
	}
	out := make([]types.SessionLogEntry, n)
	copy(out, s.log[len(s.log)-n:])
	return out
}

// Timeline returns a copy of the derived timeline.
func (s *Store) Timeline() []types.TimelineEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.TimelineEvent, len(s.timeline))
	copy(out, s.timeline)
	return out
}

// Agents returns the live roster. The slice is shared; only the turn engine
// may mutate agent fields, and only through SetAgentStatus.
func (s *Store) Agents() []*types.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agents
}

// AgentByID returns the roster agent with the given id.
func (s *Store) AgentByID(id string) (*types.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.agents {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// SetAgentStatus updates one agent's status and current task.
func (s *Store) SetAgentStatus(id string, status types.AgentStatus, task string) {
	s.mu.Lock()
	for _, a := range s.agents {
		if a.ID == id {
			a.Status = status
			a.CurrentTask = task
			break
		}
	}
	s.mu.Unlock()
	s.notify(StateUpdate{Kind: UpdateAgentStatus, AgentID: id, AgentStatus: status, CurrentTask: task})
}

// ResetAgentStatuses returns every agent to idle with no task.
func (s *Store) ResetAgentStatuses() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.agents))
	for _, a := range s.agents {
		a.Status = types.StatusIdle
		a.CurrentTask = ""
		ids = append(ids, a.ID)
	}
	s.mu.Unlock()
	for _, id := range ids {
		s.notify(StateUpdate{Kind: UpdateAgentStatus, AgentID: id, AgentStatus: types.StatusIdle})
	}
}

// SetItinerary replaces the agenda. Allowed only before the session starts.
func (s *Store) SetItinerary(items []types.ItineraryItem) {
	s.mu.Lock()
	s.itinerary = items
	s.mu.Unlock()
	s.notify(StateUpdate{Kind: UpdateItinerary})
}

// Itinerary returns a copy of the agenda.
func (s *Store) Itinerary() []types.ItineraryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ItineraryItem, len(s.itinerary))
	copy(out, s.itinerary)
	return out
}

// CompleteItineraryItem marks one agenda item completed.
func (s *Store) CompleteItineraryItem(id string) {
	s.mu.Lock()
	for i := range s.itinerary {
		if s.itinerary[i].ID == id {
			s.itinerary[i].Completed = true
			break
		}
	}
	s.mu.Unlock()
	s.notify(StateUpdate{Kind: UpdateItinerary})
}

// SetMilestoneStatus records a milestone transition. Statuses never regress
// from done.
func (s *Store) SetMilestoneStatus(id string, status types.TaskStatus) {
	s.mu.Lock()
	if s.milestoneStatus[id] == types.TaskDone && status != types.TaskDone {
		s.mu.Unlock()
		return
	}
	s.milestoneStatus[id] = status
	s.mu.Unlock()
	s.notify(StateUpdate{Kind: UpdateMilestoneStatus, MilestoneID: id, MilestoneStatus: status})
}

// MilestoneStatus returns the recorded status for the milestone, or
// types.TaskPending if none was recorded.
func (s *Store) MilestoneStatus(id string) types.TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.milestoneStatus[id]; ok {
		return st
	}
	return types.TaskPending
}

// UpdateFinalDocument replaces the synthesized document text. Streaming
// synthesis calls this repeatedly with complete=false and once at the end
// with complete=true.
func (s *Store) UpdateFinalDocument(text string, complete bool) {
	s.mu.Lock()
	s.finalDocument = text
	s.docComplete = complete
	s.mu.Unlock()
	s.notify(StateUpdate{Kind: UpdateFinalDocument, Document: text, DocumentComplete: complete})
}

// FinalDocument returns the synthesized document and whether it is complete.
func (s *Store) FinalDocument() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finalDocument, s.docComplete
}

// Snapshot produces the archive record for this session.
func (s *Store) Snapshot() types.ArchivedSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := make([]types.SessionLogEntry, len(s.log))
	copy(log, s.log)
	return types.ArchivedSession{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Goal:      s.goal,
		FinalPlan: s.finalDocument,
		Log:       log,
	}
}

func preview(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= timelinePreviewLen {
		return string(runes)
	}
	return string(runes[:timelinePreviewLen]) + "..."
}
