// Package types provides the core types shared across the maestro framework.
//
// This package has ZERO dependencies on other maestro packages to avoid circular
// imports. All other packages should import their domain types from here:
//
//   - Agent, AgentConfig: the session participants and their persisted config
//   - SessionLogEntry, TimelineEvent: the transcript and its derived index
//   - ItineraryItem: the Boardroom agenda
//   - Milestone, ProjectData: the Project mode planning aggregate
//   - Deliverable, ArchivedSession: synthesis inputs and the persisted record
//   - Error: the structured error used across provider and engine boundaries
//
// The structured reply types (NextSpeakerDecision, ItineraryPlan,
// PersonaAssignments, ProjectPlan) model the JSON shapes the Maestro agent is
// asked to produce. Each carries a Validate method; callers must treat a
// validation failure as a recoverable condition with a deterministic fallback,
// never as a reason to abort the session.
package types
