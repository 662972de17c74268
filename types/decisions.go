package types

import (
	"encoding/json"
	"strings"
)

// The Maestro agent is prompted to answer several orchestration questions as
// bare JSON. These types model those reply shapes. Decode with
// DecodeStructured, then Validate; a failure on either step routes to the
// caller's deterministic fallback.

// NextSpeakerDecision is the Maestro's SocialSandbox nomination.
type NextSpeakerDecision struct {
	NextSpeaker string `json:"nextSpeaker"`
}

// Validate checks that the nomination names one of the given participants.
func (d *NextSpeakerDecision) Validate(participants []string) error {
	if d.NextSpeaker == "" {
		return NewError(ErrMalformedResponse, "next speaker decision missing nextSpeaker")
	}
	for _, p := range participants {
		if p == d.NextSpeaker {
			return nil
		}
	}
	return NewError(ErrMalformedResponse, "nominated speaker not in roster: "+d.NextSpeaker)
}

// ItineraryPlan is the Maestro-generated Boardroom agenda.
type ItineraryPlan struct {
	Itinerary []string `json:"itinerary"`
}

// Validate requires at least one non-empty agenda item.
func (p *ItineraryPlan) Validate() error {
	if len(p.Itinerary) == 0 {
		return NewError(ErrMalformedResponse, "itinerary plan is empty")
	}
	for _, item := range p.Itinerary {
		if strings.TrimSpace(item) == "" {
			return NewError(ErrMalformedResponse, "itinerary plan contains an empty item")
		}
	}
	return nil
}

// PersonaAssignment maps one agent to its sandbox persona.
type PersonaAssignment struct {
	AgentID            string `json:"agentId"`
	NewRole            string `json:"newRole"`
	PersonaDescription string `json:"personaDescription"`
}

// PersonaAssignments is the Maestro's sandbox scenario setup.
type PersonaAssignments struct {
	AgentPersonas []PersonaAssignment `json:"agentPersonas"`
}

// Validate checks that every assignment names a known agent and a non-empty
// role. Agents missing from the reply are left on their default role.
func (p *PersonaAssignments) Validate(knownAgentIDs []string) error {
	if len(p.AgentPersonas) == 0 {
		return NewError(ErrMalformedResponse, "persona assignments are empty")
	}
	known := make(map[string]bool, len(knownAgentIDs))
	for _, id := range knownAgentIDs {
		known[id] = true
	}
	for _, a := range p.AgentPersonas {
		if !known[a.AgentID] {
			return NewError(ErrMalformedResponse, "persona assigned to unknown agent: "+a.AgentID)
		}
		if strings.TrimSpace(a.NewRole) == "" {
			return NewError(ErrMalformedResponse, "empty persona role for agent "+a.AgentID)
		}
	}
	return nil
}

// ProjectPlan is the Maestro's decomposition of a high-level prompt into a
// full project. It embeds the same structure as ProjectData minus runtime
// fields.
type ProjectPlan struct {
	ProjectName string      `json:"projectName"`
	Goal        string      `json:"goal"`
	Constraints []string    `json:"constraints"`
	Milestones  []Milestone `json:"milestones"`
}

// Validate checks required fields and delegates the DAG invariants to
// ProjectData.Validate.
func (p *ProjectPlan) Validate() error {
	if strings.TrimSpace(p.ProjectName) == "" {
		return NewError(ErrMalformedResponse, "project plan missing projectName")
	}
	if strings.TrimSpace(p.Goal) == "" {
		return NewError(ErrMalformedResponse, "project plan missing goal")
	}
	pd := ProjectData{ProjectName: p.ProjectName, Goal: p.Goal, Milestones: p.Milestones}
	if err := pd.Validate(); err != nil {
		if e, ok := err.(*Error); ok && e.Code == ErrCycleDetected {
			return err
		}
		return NewError(ErrMalformedResponse, "invalid project plan").WithCause(err)
	}
	return nil
}

// DecodeStructured parses a model reply that is expected to be a single JSON
// object. Models routinely wrap JSON in markdown fences; the fence is stripped
// before decoding. Any decode failure is reported as MALFORMED_RESPONSE.
func DecodeStructured(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return NewError(ErrMalformedResponse, "reply is not valid JSON").WithCause(err)
	}
	return nil
}
