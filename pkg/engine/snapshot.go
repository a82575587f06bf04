package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"necroshell/pkg/endings"
	"necroshell/pkg/state"
	"necroshell/pkg/trials"
)

// ErrUnsupportedFacet is returned when the engine's state port is not
// the reference WorldState and therefore cannot be serialised here.
var ErrUnsupportedFacet = errors.New("state facet does not support snapshots")

// EventRecord is the persisted lifecycle of one scheduled event.
type EventRecord struct {
	ID        uint32 `json:"id"`
	Triggered bool   `json:"triggered"`
	Completed bool   `json:"completed"`
}

// Snapshot is the full serialisable run state. Restoring it into a
// freshly built engine with the same registered events reproduces the
// run exactly.
type Snapshot struct {
	RunID        uuid.UUID           `json:"run_id"`
	HoursIntoDay uint32              `json:"hours_into_day"`
	World        *state.WorldState   `json:"world"`
	Flags        []string            `json:"flags"`
	Events       []EventRecord       `json:"events"`
	Trials       trials.Progress     `json:"trials"`
	Ashbrook     ashbrookEvent       `json:"ashbrook"`
	Thessara     thessaraEvent       `json:"thessara"`
	Summons      summonsEvent        `json:"summons"`
	Endings      endings.EndingState `json:"endings"`
}

// Snapshot captures the current run. The engine must have been built
// over a *state.WorldState facet.
func (e *Engine) Snapshot() (*Snapshot, error) {
	world, ok := e.st.(*state.WorldState)
	if !ok {
		return nil, ErrUnsupportedFacet
	}

	snap := &Snapshot{
		RunID:        e.runID,
		HoursIntoDay: e.hoursIntoDay,
		World:        world,
		Flags:        e.scheduler.Flags().Names(),
		Trials:       e.trials.Progress(),
		Ashbrook:     e.ashbrook,
		Thessara:     e.thessara,
		Summons:      e.summons,
		Endings:      e.resolver.Snapshot(),
	}
	for _, ev := range e.scheduler.All() {
		snap.Events = append(snap.Events, EventRecord{
			ID:        ev.ID,
			Triggered: ev.Triggered,
			Completed: ev.Completed,
		})
	}
	return snap, nil
}

// Restore replaces the run state from a snapshot. The engine must have
// the same events registered as the engine that produced it.
func (e *Engine) Restore(snap *Snapshot) error {
	world, ok := e.st.(*state.WorldState)
	if !ok {
		return ErrUnsupportedFacet
	}
	if snap.World == nil {
		return fmt.Errorf("snapshot has no world state")
	}

	*world = *snap.World
	e.runID = snap.RunID
	e.hoursIntoDay = snap.HoursIntoDay

	for _, name := range snap.Flags {
		if !e.scheduler.Flags().Set(name) {
			return fmt.Errorf("restoring flag %q failed", name)
		}
	}
	for _, rec := range snap.Events {
		ev, err := e.scheduler.Lookup(rec.ID)
		if err != nil {
			return fmt.Errorf("restoring event %d: %w", rec.ID, err)
		}
		ev.Triggered = rec.Triggered
		ev.Completed = rec.Completed
	}

	e.trials.RestoreProgress(snap.Trials)
	e.ashbrook = snap.Ashbrook
	e.thessara = snap.Thessara
	e.summons = snap.Summons
	e.resolver.Restore(snap.Endings)

	e.logger.Info("Run restored",
		"run_id", snap.RunID, "day", world.DayCount())
	return nil
}
