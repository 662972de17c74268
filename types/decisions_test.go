package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStructuredFenced(t *testing.T) {
	raw := "```json\n{\"nextSpeaker\": \"Negotiator\"}\n```"
	var d NextSpeakerDecision
	require.NoError(t, DecodeStructured(raw, &d))
	assert.Equal(t, "Negotiator", d.NextSpeaker)
}

func TestDecodeStructuredGarbage(t *testing.T) {
	var d NextSpeakerDecision
	err := DecodeStructured("I think the Negotiator should go next.", &d)
	require.Error(t, err)
	assert.Equal(t, ErrMalformedResponse, GetErrorCode(err))
}

func TestNextSpeakerValidate(t *testing.T) {
	roster := []string{"Negotiator", "Interviewer"}

	d := NextSpeakerDecision{NextSpeaker: "Interviewer"}
	assert.NoError(t, d.Validate(roster))

	d = NextSpeakerDecision{NextSpeaker: "Stranger"}
	assert.Equal(t, ErrMalformedResponse, GetErrorCode(d.Validate(roster)))

	d = NextSpeakerDecision{}
	assert.Equal(t, ErrMalformedResponse, GetErrorCode(d.Validate(roster)))
}

func TestItineraryPlanValidate(t *testing.T) {
	p := ItineraryPlan{Itinerary: []string{"Budget review", "Launch timing"}}
	assert.NoError(t, p.Validate())

	p = ItineraryPlan{}
	assert.Error(t, p.Validate())

	p = ItineraryPlan{Itinerary: []string{"Budget review", "  "}}
	assert.Error(t, p.Validate())
}

func TestPersonaAssignmentsValidate(t *testing.T) {
	known := []string{"a1", "a2"}

	p := PersonaAssignments{AgentPersonas: []PersonaAssignment{
		{AgentID: "a1", NewRole: "Skeptical Buyer"},
	}}
	assert.NoError(t, p.Validate(known))

	p = PersonaAssignments{AgentPersonas: []PersonaAssignment{
		{AgentID: "ghost", NewRole: "Anyone"},
	}}
	assert.Equal(t, ErrMalformedResponse, GetErrorCode(p.Validate(known)))

	p = PersonaAssignments{AgentPersonas: []PersonaAssignment{
		{AgentID: "a2", NewRole: ""},
	}}
	assert.Equal(t, ErrMalformedResponse, GetErrorCode(p.Validate(known)))
}

func TestProjectPlanValidate(t *testing.T) {
	plan := ProjectPlan{
		ProjectName: "Demo",
		Goal:        "Produce a demo",
		Milestones:  []Milestone{milestone("m1"), milestone("m2", "m1")},
	}
	require.NoError(t, plan.Validate())

	plan.Goal = ""
	assert.Equal(t, ErrMalformedResponse, GetErrorCode(plan.Validate()))

	plan = ProjectPlan{
		ProjectName: "Demo",
		Goal:        "g",
		Milestones:  []Milestone{milestone("m1", "m2"), milestone("m2", "m1")},
	}
	assert.Equal(t, ErrCycleDetected, GetErrorCode(plan.Validate()))
}
