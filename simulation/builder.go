package simulation

import (
	"github.com/sarchlab/tankersim/datarecording"
	"github.com/sarchlab/tankersim/fleet"
	"github.com/sarchlab/tankersim/hooking"
	"github.com/sarchlab/tankersim/timing"
)

// A Builder can build engines.
type Builder struct {
	config      Config
	timeOrdered bool
	dispatcher  fleet.Dispatcher
	hooks       []hooking.Hook
	recorder    datarecording.DataRecorder
}

// MakeBuilder creates a new Builder with the default scenario.
func MakeBuilder() Builder {
	return Builder{
		config:     DefaultConfig(),
		dispatcher: fleet.GreedyDispatcher{},
	}
}

// WithConfig sets the scenario to run.
func (b Builder) WithConfig(cfg Config) Builder {
	b.config = cfg
	return b
}

// WithTimeOrderedEvents makes due events apply in time order instead of
// insertion order.
func (b Builder) WithTimeOrderedEvents() Builder {
	b.timeOrdered = true
	return b
}

// WithDispatcher replaces the greedy dispatcher.
func (b Builder) WithDispatcher(d fleet.Dispatcher) Builder {
	b.dispatcher = d
	return b
}

// WithHook registers a hook on the engine to build.
func (b Builder) WithHook(h hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], h)
	return b
}

// WithDataRecorder records log events and per-step samples into the given
// recorder.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// Build validates the scenario and creates the engine.
func (b Builder) Build() (*Engine, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		HookableBase: hooking.NewHookableBase(),
		config:       b.config,
		dispatcher:   b.dispatcher,
		newQueue:     timing.NewInsertionQueue,
	}

	if b.timeOrdered {
		e.newQueue = timing.NewTimeOrderedQueue
	}

	for _, h := range b.hooks {
		e.AcceptHook(h)
	}

	if b.recorder != nil {
		e.AcceptHook(NewDataRecorderHook(b.recorder))
	}

	return e, nil
}

// Simulate runs a scenario with the default engine.
func Simulate(cfg Config) (*Result, error) {
	e, err := MakeBuilder().WithConfig(cfg).Build()
	if err != nil {
		return nil, err
	}

	return e.Run()
}
