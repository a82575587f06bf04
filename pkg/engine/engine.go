package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"necroshell/pkg/endings"
	"necroshell/pkg/state"
	"necroshell/pkg/story"
	"necroshell/pkg/trials"
	"necroshell/pkg/ui"
)

const hoursPerDay = 24

var (
	ErrGameOver       = errors.New("run has ended; progression state is frozen")
	ErrNoPendingScene = errors.New("that scene has not arrived yet")
	ErrChoiceResolved = errors.New("that choice has already been made")
)

// Engine is the progression façade. It owns the event scheduler (and its
// flag store), the trial sequence and the ending resolver, and holds a
// non-owning handle to the host's state facet. All entry points are
// synchronous; every mutation that can affect a trigger predicate is
// followed by one dispatcher sweep.
type Engine struct {
	runID     uuid.UUID
	st        state.Port
	scheduler *story.Scheduler
	trials    *trials.Manager
	resolver  *endings.Resolver
	ui        ui.Port
	logger    *slog.Logger

	hoursIntoDay uint32

	ashbrook ashbrookEvent
	thessara thessaraEvent
	summons  summonsEvent
}

// New builds an engine around the supplied state facet. A nil UI port
// runs headless: scene prompts report non-interactive and outcomes are
// driven by explicit engine calls.
func New(st state.Port, port ui.Port, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if port == nil {
		port = ui.Null{}
	}
	e := &Engine{
		runID:     uuid.New(),
		st:        st,
		scheduler: story.NewScheduler(logger),
		ui:        port,
		logger:    logger,
	}
	e.trials = trials.NewManager(e.scheduler, logger)
	e.resolver = endings.NewResolver(e.scheduler, e.trials, logger)
	e.ashbrook = newAshbrookEvent()
	e.thessara = newThessaraEvent()
	e.summons = newSummonsEvent()
	return e
}

// RunID identifies this run; save snapshots are keyed by it.
func (e *Engine) RunID() uuid.UUID { return e.runID }

// Scheduler exposes the event scheduler for inspection and debugging.
func (e *Engine) Scheduler() *story.Scheduler { return e.scheduler }

// Trials exposes the trial sequence manager.
func (e *Engine) Trials() *trials.Manager { return e.trials }

// Endings exposes the ending resolver.
func (e *Engine) Endings() *endings.Resolver { return e.resolver }

// State exposes the state facet handle.
func (e *Engine) State() state.Port { return e.st }

// runSweep performs one dispatcher pass and then enforces the summons
// response deadline, which is checked every sweep rather than only on
// acknowledge.
func (e *Engine) runSweep() int {
	n := e.scheduler.Sweep(e.st)
	e.checkSummonsDeadline()
	return n
}

// AdvanceTime accumulates hours into days. Each completed day triggers
// exactly one sweep, so day-boundary events fire on their target day.
func (e *Engine) AdvanceTime(hours uint32) error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	e.hoursIntoDay += hours
	for e.hoursIntoDay >= hoursPerDay {
		e.hoursIntoDay -= hoursPerDay
		e.st.IncrementDay()
		e.logger.Debug("Day advanced", "day", e.st.DayCount())
		e.runSweep()
		if e.resolver.HasEnded() {
			break
		}
	}
	return nil
}

// SetCorruption writes an absolute corruption value (clamped) and sweeps.
func (e *Engine) SetCorruption(value int) error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	e.st.AdjustCorruption(value - e.st.Corruption())
	e.runSweep()
	return nil
}

// ApplyCorruptionChange applies a clamped delta and sweeps.
func (e *Engine) ApplyCorruptionChange(delta int) error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	e.st.AdjustCorruption(delta)
	e.runSweep()
	return nil
}

// EnterLocation moves the player and sweeps location-triggered events.
func (e *Engine) EnterLocation(id uint32) error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	e.st.SetLocation(id)
	e.runSweep()
	return nil
}

// SetFlag records a story flag and sweeps so flag-gated events can fire.
func (e *Engine) SetFlag(name string) bool {
	if e.resolver.HasEnded() {
		return false
	}
	ok := e.scheduler.SetFlag(name)
	if ok {
		e.runSweep()
	}
	return ok
}

// HasFlag reports whether a story flag is set.
func (e *Engine) HasFlag(name string) bool {
	return e.scheduler.HasFlag(name)
}

// MarkTrialCompleted records completion of trial n, unlocking the next
// step or arming the divine judgment, then sweeps.
func (e *Engine) MarkTrialCompleted(n uint32) error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	if err := e.trials.OnCompletion(n, e.st.DayCount()); err != nil {
		return err
	}
	e.runSweep()
	return nil
}

// MarkTrialFailed records a failed trial. An unrecoverable failure locks
// the Archon ending path.
func (e *Engine) MarkTrialFailed(n uint32) error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	unrecoverable, err := e.trials.OnFailure(n)
	if err != nil {
		return err
	}
	if unrecoverable {
		name := "trial"
		if n >= 1 && n <= trials.NumTrials {
			name = trials.TrialNames[n-1]
		}
		if err := e.resolver.Lock(endings.KindArchon, fmt.Sprintf("failed the %s", name)); err != nil {
			e.logger.Error("Failed to lock Archon path", "error", err)
		}
	}
	e.runSweep()
	return nil
}

// TryTriggerEnding attempts to end the run with the given outcome.
func (e *Engine) TryTriggerEnding(kind endings.Kind) error {
	return e.resolver.Trigger(kind, e.st)
}

// Status is the host-facing progress summary.
type Status struct {
	RunID           uuid.UUID
	Day             uint32
	Corruption      int
	TriggeredEvents int
	PendingEvents   int
	TrialProgress   trials.Progress
	GameEnded       bool
	Ending          endings.Kind
	EndingDay       uint32
}

// QueryStatus summarises the run for display.
func (e *Engine) QueryStatus() Status {
	return Status{
		RunID:           e.runID,
		Day:             e.st.DayCount(),
		Corruption:      e.st.Corruption(),
		TriggeredEvents: e.scheduler.TriggeredCount(),
		PendingEvents:   len(e.scheduler.Upcoming()),
		TrialProgress:   e.trials.Progress(),
		GameEnded:       e.resolver.HasEnded(),
		Ending:          e.resolver.Chosen(),
		EndingDay:       e.resolver.EndingDay(),
	}
}
