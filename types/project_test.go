package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func milestone(id string, deps ...string) Milestone {
	return Milestone{
		MilestoneID:   id,
		Name:          "Milestone " + id,
		Objective:     "objective " + id,
		Dependencies:  deps,
		CurrentStatus: TaskPending,
	}
}

func TestProjectValidate(t *testing.T) {
	p := ProjectData{
		ProjectID:  "p1",
		Goal:       "ship it",
		Milestones: []Milestone{milestone("m1"), milestone("m2", "m1"), milestone("m3", "m1", "m2")},
	}
	require.NoError(t, p.Validate())
}

func TestProjectValidateCycle(t *testing.T) {
	p := ProjectData{
		Milestones: []Milestone{milestone("m1", "m2"), milestone("m2", "m1")},
	}
	err := p.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrCycleDetected, GetErrorCode(err))
}

func TestProjectValidateSelfCycle(t *testing.T) {
	p := ProjectData{Milestones: []Milestone{milestone("m1", "m1")}}
	err := p.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrCycleDetected, GetErrorCode(err))
}

func TestProjectValidateUnknownDepAllowed(t *testing.T) {
	// Unknown dependency ids are deliberately tolerated; the scheduler treats
	// them as already satisfied.
	p := ProjectData{Milestones: []Milestone{milestone("m1", "ghost")}}
	assert.NoError(t, p.Validate())
}

func TestProjectValidateDuplicateID(t *testing.T) {
	p := ProjectData{Milestones: []Milestone{milestone("m1"), milestone("m1")}}
	err := p.Validate()
	require.Error(t, err)
	assert.Equal(t, ErrConfiguration, GetErrorCode(err))
}

func TestValidateRoster(t *testing.T) {
	maestro := AgentConfig{ID: "maestro", Role: MaestroRole}
	analyst := AgentConfig{ID: "analyst", Role: "Market Analyst"}

	assert.NoError(t, ValidateRoster([]AgentConfig{maestro, analyst}))

	err := ValidateRoster([]AgentConfig{analyst})
	assert.Equal(t, ErrNoMaestro, GetErrorCode(err))

	err = ValidateRoster([]AgentConfig{maestro, {ID: "m2", Role: MaestroRole}})
	assert.Equal(t, ErrNoMaestro, GetErrorCode(err))

	err = ValidateRoster(nil)
	assert.Equal(t, ErrConfiguration, GetErrorCode(err))

	err = ValidateRoster([]AgentConfig{maestro, {ID: "maestro", Role: "Dupe"}})
	assert.Equal(t, ErrConfiguration, GetErrorCode(err))
}
