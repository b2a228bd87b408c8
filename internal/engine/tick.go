// Package engine provides the city simulation tick and the loop that drives it.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/mini-city/internal/balance"
	"github.com/talgya/mini-city/internal/entropy"
)

// Engine drives the simulation forward in real time. It owns the random
// source and scratch memory; readers get immutable snapshots through State().
type Engine struct {
	Interval time.Duration // Base tick interval at speed 1

	// Callbacks, populated during setup. They run on the engine goroutine
	// after the new state is published.
	OnTick  func(s *State, r Report)
	OnDay   func(s *State, day Report)
	OnMonth func(s *State)

	cfg     *balance.Config
	rng     entropy.Source
	scratch *Scratch

	mu      sync.Mutex // serializes ticks and player actions
	speed   float64
	dayRep  Report
	state   atomic.Pointer[State]
	running atomic.Bool
}

// NewEngine creates an engine around an initial state.
func NewEngine(initial *State, cfg *balance.Config, rng entropy.Source) *Engine {
	e := &Engine{
		Interval: 500 * time.Millisecond,
		cfg:      cfg,
		rng:      rng,
		scratch:  NewScratch(initial.GridSize),
		speed:    1.0,
	}
	e.state.Store(initial)
	return e
}

// State returns the latest published snapshot.
func (e *Engine) State() *State {
	return e.state.Load()
}

// Config returns the balance the engine runs with.
func (e *Engine) Config() *balance.Config {
	return e.cfg
}

// Speed returns the current multiplier: 1.0 = base interval, 0 = paused.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the multiplier. Negative values pause.
func (e *Engine) SetSpeed(v float64) {
	e.mu.Lock()
	e.speed = max(0, v)
	e.mu.Unlock()
	slog.Info("simulation speed changed", "speed", v)
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the simulation loop. Blocks until ctx is cancelled or Stop() is called.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("simulation engine started",
		"city", e.State().Name, "date", e.State().Calendar.String(), "speed", e.Speed())

	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused; check again shortly.
			if !sleep(ctx, 100*time.Millisecond) {
				break
			}
			continue
		}

		start := time.Now()
		e.Step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target && !sleep(ctx, target-elapsed) {
			break
		}
	}

	slog.Info("simulation engine stopped", "ticks", e.State().Calendar.TotalTicks)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Stop halts the simulation loop after the current tick.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Step advances the simulation by one tick immediately and returns its report.
func (e *Engine) Step() Report {
	e.mu.Lock()
	next, rep := Step(e.state.Load(), e.rng, e.scratch, e.cfg)
	e.state.Store(next)
	e.dayRep.Add(rep)
	day := e.dayRep
	if rep.NewDay {
		e.dayRep = Report{}
	}
	e.mu.Unlock()

	if e.OnTick != nil {
		e.OnTick(next, rep)
	}
	if rep.NewDay {
		logDay(next, day)
		if e.OnDay != nil {
			e.OnDay(next, day)
		}
	}
	if rep.NewMonth {
		logMonth(next)
		if e.OnMonth != nil {
			e.OnMonth(next)
		}
	}
	return rep
}

// Apply runs a player action between ticks and publishes its result.
// It reports whether the action changed anything.
func (e *Engine) Apply(action func(*State) *State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.state.Load()
	next := action(cur)
	if next == cur {
		return false
	}
	e.state.Store(next)
	return true
}

func logDay(s *State, day Report) {
	slog.Info("daily report",
		"date", s.Calendar.String(),
		"population", humanize.Comma(int64(s.Stats.Population)),
		"jobs", humanize.Comma(int64(s.Stats.Jobs)),
		"money", humanize.Comma(int64(s.Stats.Money)),
		"demand_r", int(s.Stats.Demand.Residential),
		"demand_c", int(s.Stats.Demand.Commercial),
		"demand_i", int(s.Stats.Demand.Industrial),
		"spawned", day.Spawned,
		"upgraded", day.Upgraded,
		"abandoned", day.Abandoned,
		"fires", day.Ignited,
	)
}

func logMonth(s *State) {
	slog.Info("monthly budget",
		"date", s.Calendar.String(),
		"income", humanize.Comma(int64(s.Stats.Income)),
		"expenses", humanize.Comma(int64(s.Stats.Expenses)),
		"balance", humanize.Comma(int64(s.Stats.Money)),
		"happiness", int(s.Stats.Happiness),
	)
}
