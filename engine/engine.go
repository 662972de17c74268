// Package engine drives a session: it picks speakers, assembles prompts,
// invokes providers, and writes every outcome into the session store. It is
// the single writer of session state while a session is active.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/maestro/archive"
	"github.com/BaSui01/maestro/cache"
	"github.com/BaSui01/maestro/internal/metrics"
	"github.com/BaSui01/maestro/llm"
	"github.com/BaSui01/maestro/rag"
	"github.com/BaSui01/maestro/session"
	"github.com/BaSui01/maestro/speech"
	"github.com/BaSui01/maestro/types"
)

// State is the engine's lifecycle phase.
type State string

const (
	StateIdle         State = "idle"
	StateActive       State = "active"
	StateSynthesizing State = "synthesizing"
)

// DefaultSandboxTurnCap bounds SocialSandbox sessions to keep cost finite.
const DefaultSandboxTurnCap = 10

// DefaultTemperature is used when the config leaves it unset.
const DefaultTemperature = 0.7

// Config describes one session.
type Config struct {
	Mode         types.Mode         `yaml:"mode"`
	Goal         string             `yaml:"goal"`
	UserName     string             `yaml:"user_name"`
	OutputFormat types.OutputFormat `yaml:"output_format"`
	Agents       []types.AgentConfig `yaml:"agents"`
	Temperature  float32            `yaml:"temperature"`

	// Project mode. When Project is nil and Mode is Project, the plan is
	// generated from Goal by the Maestro.
	Project *types.ProjectData `yaml:"project,omitempty"`

	// SocialSandbox mode.
	SandboxScenario string `yaml:"sandbox_scenario,omitempty"`
	SandboxTurnCap  int    `yaml:"sandbox_turn_cap,omitempty"`

	// Boardroom mode. When empty, the itinerary is generated from Goal by
	// the Maestro.
	Itinerary []types.ItineraryItem `yaml:"itinerary,omitempty"`

	Tools []llm.ToolDeclaration `yaml:"-"`
}

func (c *Config) temperature() float32 {
	if c.Temperature <= 0 {
		return DefaultTemperature
	}
	return c.Temperature
}

func (c *Config) sandboxCap() int {
	if c.SandboxTurnCap <= 0 {
		return DefaultSandboxTurnCap
	}
	return c.SandboxTurnCap
}

// Engine orchestrates one session at a time.
type Engine struct {
	cfg      Config
	store    *session.Store
	registry *llm.Registry
	docs     *rag.Service
	memory   cache.Store
	tts      speech.Synthesizer
	audio    *session.AudioQueue
	archive  archive.Store
	metrics  *metrics.Collector
	logger   *zap.Logger

	state     atomic.Value // State
	cancelled atomic.Bool
	runMu     sync.Mutex

	maestro *types.Agent

	deliverablesMu sync.Mutex
	deliverables   []types.Deliverable
}

// Options carries the engine's collaborators. Registry is required; all other
// fields are optional and default to inert implementations.
type Options struct {
	Registry *llm.Registry
	Docs     *rag.Service
	Memory   cache.Store
	TTS      speech.Synthesizer
	Audio    *session.AudioQueue
	Archive  archive.Store
	Metrics  *metrics.Collector
	Logger   *zap.Logger
}

// New validates the roster and builds an engine plus its session store.
func New(cfg Config, opts Options) (*Engine, error) {
	if err := types.ValidateRoster(cfg.Agents); err != nil {
		return nil, err
	}
	if cfg.Mode == types.ModeProject && cfg.Project != nil {
		if err := cfg.Project.Validate(); err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	agents := make([]*types.Agent, 0, len(cfg.Agents))
	var maestro *types.Agent
	for _, ac := range cfg.Agents {
		a := types.NewAgent(ac)
		if a.IsMaestro() {
			maestro = a
		}
		agents = append(agents, a)
	}

	tts := opts.TTS
	if tts == nil {
		tts = speech.Disabled{}
	}

	e := &Engine{
		cfg:      cfg,
		store:    session.NewStore(cfg.Mode, cfg.Goal, agents, logger),
		registry: opts.Registry,
		docs:     opts.Docs,
		memory:   opts.Memory,
		tts:      tts,
		audio:    opts.Audio,
		archive:  opts.Archive,
		metrics:  opts.Metrics,
		logger:   logger.With(zap.String("component", "engine"), zap.String("mode", string(cfg.Mode))),
		maestro:  maestro,
	}
	e.state.Store(StateIdle)
	return e, nil
}

// Store exposes the session state for observers.
func (e *Engine) Store() *session.Store { return e.store }

// State returns the current lifecycle phase.
func (e *Engine) State() State { return e.state.Load().(State) }

// Stop requests cooperative cancellation. In-flight provider calls are not
// aborted; their results are discarded once the flag is observed.
func (e *Engine) Stop() {
	e.cancelled.Store(true)
}

func (e *Engine) isCancelled(ctx context.Context) bool {
	return e.cancelled.Load() || ctx.Err() != nil
}

// Run executes the session to completion or cancellation. It returns the
// final document (empty when cancelled or when synthesis failed).
func (e *Engine) Run(ctx context.Context) (string, error) {
	if !e.runMu.TryLock() {
		return "", types.NewError(types.ErrSessionActive, "a session is already running")
	}
	defer e.runMu.Unlock()
	e.cancelled.Store(false)
	e.deliverables = nil
	e.state.Store(StateActive)
	start := time.Now()

	e.logger.Info("session started", zap.String("goal", e.cfg.Goal))

	var err error
	switch e.cfg.Mode {
	case types.ModeProject:
		err = e.runProject(ctx)
	case types.ModeSocialSandbox:
		err = e.runSandbox(ctx)
	case types.ModeComparison:
		err = e.runComparison(ctx)
	default:
		err = e.runBoardroom(ctx)
	}

	if err != nil {
		e.finish(ctx, start, "error")
		return "", err
	}
	if e.isCancelled(ctx) {
		// Explicit stop: no synthesis, just a closing status message.
		e.store.AppendLog(types.SessionLogEntry{
			Role:    types.MaestroRole,
			Avatar:  e.maestroAvatar(),
			Content: "Session stopped by user.",
		}, types.EventDecision)
		e.finish(ctx, start, "cancelled")
		return "", nil
	}

	e.state.Store(StateSynthesizing)
	doc := e.synthesize(ctx)
	e.archiveSession(ctx)
	e.finish(ctx, start, "completed")
	return doc, nil
}

func (e *Engine) finish(ctx context.Context, start time.Time, status string) {
	e.store.ResetAgentStatuses()
	e.state.Store(StateIdle)
	e.metrics.RecordSession(string(e.cfg.Mode), status, time.Since(start))
	e.logger.Info("session finished",
		zap.String("status", status),
		zap.Duration("elapsed", time.Since(start)))
}

func (e *Engine) archiveSession(ctx context.Context) {
	if e.archive == nil {
		return
	}
	if err := e.archive.Save(ctx, e.store.Snapshot()); err != nil {
		e.logger.Warn("failed to archive session", zap.Error(err))
	}
}

func (e *Engine) maestroAvatar() string {
	if e.maestro != nil {
		return e.maestro.Avatar
	}
	return ""
}

// participants returns the non-Maestro agents in roster order.
func (e *Engine) participants() []*types.Agent {
	var out []*types.Agent
	for _, a := range e.store.Agents() {
		if !a.IsMaestro() {
			out = append(out, a)
		}
	}
	return out
}

func (e *Engine) addDeliverable(d types.Deliverable) {
	e.deliverablesMu.Lock()
	defer e.deliverablesMu.Unlock()
	e.deliverables = append(e.deliverables, d)
}

// Deliverables returns the deliverables collected so far.
func (e *Engine) Deliverables() []types.Deliverable {
	e.deliverablesMu.Lock()
	defer e.deliverablesMu.Unlock()
	out := make([]types.Deliverable, len(e.deliverables))
	copy(out, e.deliverables)
	return out
}
