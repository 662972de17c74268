package engine

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/session"
	"github.com/BaSui01/maestro/types"
)

// fakeProvider is a scripted llm.Provider. Reply and StreamChunks drive the
// behavior; calls are recorded for assertions.
type fakeProvider struct {
	name  string
	mu    sync.Mutex
	calls []llm.Request

	reply        func(req *llm.Request) (*llm.Response, error)
	streamChunks []llm.StreamChunk
	streamCalls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) GenerateContent(_ context.Context, req *llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, *req)
	f.mu.Unlock()
	if f.reply != nil {
		return f.reply(req)
	}
	return &llm.Response{Text: "ok", Provider: f.name}, nil
}

func (f *fakeProvider) Stream(_ context.Context, req *llm.Request) (<-chan llm.StreamChunk, error) {
	f.mu.Lock()
	f.streamCalls++
	chunks := f.streamChunks
	f.mu.Unlock()

	ch := make(chan llm.StreamChunk, len(chunks)+1)
	if len(chunks) == 0 {
		ch <- llm.StreamChunk{Delta: "synthesized document"}
	}
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeProvider) streamCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamCalls
}

func testAgents() []types.AgentConfig {
	return []types.AgentConfig{
		{ID: "maestro", Role: types.MaestroRole, Avatar: "M", Model: types.ModelConfig{Provider: "fake-maestro", ModelName: "m-0"}},
		{ID: "ux", Role: "UXBot", Avatar: "U", Model: types.ModelConfig{Provider: "fake-agent", ModelName: "m-ux"}},
		{ID: "qa", Role: "QABot", Avatar: "Q", Model: types.ModelConfig{Provider: "fake-agent", ModelName: "m-qa"}},
	}
}

func newTestEngine(t *testing.T, cfg Config, maestro, agent *fakeProvider) *Engine {
	t.Helper()
	reg := llm.NewRegistry(agent)
	reg.Register("fake-maestro", maestro)
	reg.Register("fake-agent", agent)

	e, err := New(cfg, Options{Registry: reg, Logger: zap.NewNop()})
	require.NoError(t, err)
	return e
}

func TestNewRejectsInvalidRoster(t *testing.T) {
	_, err := New(Config{Mode: types.ModeBoardroom, Agents: nil}, Options{Registry: llm.NewRegistry(&fakeProvider{})})
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))

	_, err = New(Config{
		Mode:   types.ModeBoardroom,
		Agents: []types.AgentConfig{{ID: "a", Role: "Analyst"}},
	}, Options{Registry: llm.NewRegistry(&fakeProvider{})})
	require.Error(t, err)
	assert.Equal(t, types.ErrNoMaestro, types.GetErrorCode(err))
}

func TestBoardroomTwoAgentsTwoItems(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:   types.ModeBoardroom,
		Goal:   "plan the launch",
		Agents: testAgents(),
		Itinerary: []types.ItineraryItem{
			{ID: "i1", Text: "Scope"},
			{ID: "i2", Text: "Timeline"},
		},
	}, maestro, agent)

	doc, err := e.Run(context.Background())
	require.NoError(t, err)

	// Two participants, two items, one turn each per item.
	assert.Equal(t, 4, agent.callCount())
	// Synthesis ran exactly once, on the Maestro's model.
	assert.Equal(t, 1, maestro.streamCount())
	assert.Equal(t, "synthesized document", doc)

	// Both items were completed, and all agents ended idle.
	for _, item := range e.Store().Itinerary() {
		assert.True(t, item.Completed)
	}
	for _, a := range e.Store().Agents() {
		assert.Equal(t, types.StatusIdle, a.Status)
	}
	assert.Equal(t, StateIdle, e.State())
}

func TestBoardroomRoundRobinRotation(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:   types.ModeBoardroom,
		Goal:   "goal",
		Agents: testAgents(),
		Itinerary: []types.ItineraryItem{
			{ID: "i1", Text: "First"},
			{ID: "i2", Text: "Second"},
		},
	}, maestro, agent)

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	// Rotation continues across items: ux, qa on item one, then ux, qa again
	// starting after the previous last speaker (wraparound).
	require.Equal(t, 4, agent.callCount())
	assert.Equal(t, "m-ux", agent.calls[0].ModelName)
	assert.Equal(t, "m-qa", agent.calls[1].ModelName)
	assert.Equal(t, "m-ux", agent.calls[2].ModelName)
	assert.Equal(t, "m-qa", agent.calls[3].ModelName)
}

func TestProviderErrorRecordedWithoutAbort(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	agent := &fakeProvider{name: "fake-agent"}
	agent.reply = func(req *llm.Request) (*llm.Response, error) {
		if req.ModelName == "m-ux" {
			return nil, types.NewError(types.ErrUpstreamError, "connection refused")
		}
		return &llm.Response{Text: "a useful reply"}, nil
	}

	e := newTestEngine(t, Config{
		Mode:      types.ModeBoardroom,
		Goal:      "goal",
		Agents:    testAgents(),
		Itinerary: []types.ItineraryItem{{ID: "i1", Text: "Topic"}},
	}, maestro, agent)

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	// Both agents were attempted despite the first failing.
	assert.Equal(t, 2, agent.callCount())

	var errorLine, qaLine bool
	for _, entry := range e.Store().Log() {
		if entry.Role == types.MaestroRole && strings.Contains(entry.Content, "unable to respond") {
			errorLine = true
		}
		if entry.Role == "QABot" {
			qaLine = true
		}
	}
	assert.True(t, errorLine, "expected a Maestro-attributed failure line")
	assert.True(t, qaLine, "expected the healthy agent's turn to land")

	ux, ok := e.Store().AgentByID("ux")
	require.True(t, ok)
	assert.Equal(t, types.StatusIdle, ux.Status, "statuses reset after the session")
}

func TestCancellationDiscardsInFlightTurn(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:      types.ModeBoardroom,
		Goal:      "goal",
		Agents:    testAgents(),
		Itinerary: []types.ItineraryItem{{ID: "i1", Text: "Topic"}},
	}, maestro, agent)

	// Stop lands while the first provider call is in flight.
	agent.reply = func(req *llm.Request) (*llm.Response, error) {
		e.Stop()
		return &llm.Response{Text: "should be discarded"}, nil
	}

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	log := e.Store().Log()
	require.Len(t, log, 1, "only the closing status message may land after cancellation")
	assert.Equal(t, types.MaestroRole, log[0].Role)
	assert.Contains(t, log[0].Content, "stopped")

	// No synthesis after an explicit stop.
	assert.Equal(t, 0, maestro.streamCount())
	doc, complete := e.Store().FinalDocument()
	assert.Empty(t, doc)
	assert.False(t, complete)
}

func TestSandboxCapTerminates(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	// Maestro nominations are garbage; the sequential fallback must keep the
	// scene moving and the cap must still hold.
	maestro.reply = func(req *llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: "not json at all"}, nil
	}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:   types.ModeSocialSandbox,
		Goal:   "a tavern scene",
		Agents: testAgents(),
	}, maestro, agent)

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSandboxTurnCap, agent.callCount())
}

func TestSandboxNominationFollowed(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	// Always nominate QABot.
	maestro.reply = func(req *llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: `{"nextSpeaker": "QABot"}`}, nil
	}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:           types.ModeSocialSandbox,
		Goal:           "scene",
		Agents:         testAgents(),
		SandboxTurnCap: 3,
	}, maestro, agent)

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, agent.callCount())
	// First speaker is the first participant, then the nomination takes over.
	assert.Equal(t, "m-ux", agent.calls[0].ModelName)
	assert.Equal(t, "m-qa", agent.calls[1].ModelName)
	assert.Equal(t, "m-qa", agent.calls[2].ModelName)
}

func TestComparisonOneTurnPerAgent(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:   types.ModeComparison,
		Goal:   "explain quantum tunneling simply",
		Agents: testAgents(),
	}, maestro, agent)

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, agent.callCount())
	assert.Equal(t, 1, maestro.streamCount())
}

func TestSynthesisStreamsPartialUpdates(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	maestro.streamChunks = []llm.StreamChunk{
		{Delta: "## Plan"},
		{Delta: "\n\nDo the work."},
	}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:      types.ModeBoardroom,
		Goal:      "goal",
		Agents:    testAgents(),
		Itinerary: []types.ItineraryItem{{ID: "i1", Text: "Topic"}},
	}, maestro, agent)

	var partials []session.StateUpdate
	e.Store().Subscribe(func(u session.StateUpdate) {
		if u.Kind == session.UpdateFinalDocument {
			partials = append(partials, u)
		}
	})

	doc, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "## Plan\n\nDo the work.", doc)

	// Two streaming updates plus the completion update.
	require.Len(t, partials, 3)
	assert.Equal(t, "## Plan", partials[0].Document)
	assert.False(t, partials[0].DocumentComplete)
	assert.True(t, partials[2].DocumentComplete)
}

func TestSynthesisFailureReportedAsLogEntry(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	maestro.streamChunks = []llm.StreamChunk{
		{Delta: "partial"},
		{Err: types.NewError(types.ErrUpstreamError, "stream cut")},
	}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:      types.ModeBoardroom,
		Goal:      "goal",
		Agents:    testAgents(),
		Itinerary: []types.ItineraryItem{{ID: "i1", Text: "Topic"}},
	}, maestro, agent)

	doc, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc)

	log := e.Store().Log()
	last := log[len(log)-1]
	assert.Equal(t, types.MaestroRole, last.Role)
	assert.Contains(t, last.Content, "unable to generate")
}

func TestGenerateItineraryFallsBackToGoal(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	maestro.reply = func(req *llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: "definitely not an agenda"}, nil
	}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:   types.ModeBoardroom,
		Goal:   "decide the pricing model",
		Agents: testAgents(),
	}, maestro, agent)

	items, err := e.GenerateItinerary(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "decide the pricing model", items[0].Text)
}

func TestGenerateItineraryParsesPlan(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	maestro.reply = func(req *llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: "```json\n{\"itinerary\": [\"Scope\", \"Budget\", \"Risks\"]}\n```"}, nil
	}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:   types.ModeBoardroom,
		Goal:   "goal",
		Agents: testAgents(),
	}, maestro, agent)

	items, err := e.GenerateItinerary(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Budget", items[1].Text)
	for _, it := range items {
		assert.NotEmpty(t, it.ID)
	}
}

func TestRunRejectsConcurrentSession(t *testing.T) {
	maestro := &fakeProvider{name: "fake-maestro"}
	agent := &fakeProvider{name: "fake-agent"}

	e := newTestEngine(t, Config{
		Mode:      types.ModeBoardroom,
		Goal:      "goal",
		Agents:    testAgents(),
		Itinerary: []types.ItineraryItem{{ID: "i1", Text: "Topic"}},
	}, maestro, agent)

	started := make(chan struct{})
	release := make(chan struct{})
	agent.reply = func(req *llm.Request) (*llm.Response, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return &llm.Response{Text: "ok"}, nil
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := e.Run(context.Background())
		errCh <- err
	}()
	<-started

	assert.Equal(t, StateActive, e.State())
	_, err := e.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrSessionActive, types.GetErrorCode(err))

	close(release)
	require.NoError(t, <-errCh)
}
