package story

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"necroshell/pkg/state"
)

// MaxEvents bounds the registry. The full story registers well under this.
const MaxEvents = 256

var (
	ErrDuplicateEvent  = errors.New("event id already registered")
	ErrRegistryFull    = errors.New("event registry is full")
	ErrEventNotFound   = errors.New("event not found")
	ErrNotRepeatable   = errors.New("event is not repeatable")
	ErrSweepInProgress = errors.New("sweep already in progress")
)

// Scheduler owns the event registry and the flag store, evaluates trigger
// conditions against a state snapshot, and dispatches callbacks in
// priority order. It is single-threaded; a sweep runs to completion on
// the caller's goroutine.
type Scheduler struct {
	events []*ScheduledEvent
	flags  *FlagStore
	logger *slog.Logger

	sweeping bool

	lastCheckDay        uint32
	lastCheckCorruption int
	lastCheckLocation   uint32
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		flags:  NewFlagStore(),
		logger: logger,
	}
}

// Flags exposes the flag store owned by the scheduler.
func (s *Scheduler) Flags() *FlagStore {
	return s.flags
}

// Register appends an event to the registry. The ID must be unique.
func (s *Scheduler) Register(event ScheduledEvent) error {
	if len(s.events) >= MaxEvents {
		return ErrRegistryFull
	}
	for _, e := range s.events {
		if e.ID == event.ID {
			return fmt.Errorf("%w: %d", ErrDuplicateEvent, event.ID)
		}
	}
	ev := event
	s.events = append(s.events, &ev)
	s.logger.Debug("Event registered",
		"id", ev.ID, "name", ev.Name,
		"trigger", ev.TriggerType.String(), "value", ev.TriggerValue)
	return nil
}

// conditionsMet checks the gates and the trigger-specific predicate for a
// single event against the current state snapshot.
func (s *Scheduler) conditionsMet(event *ScheduledEvent, st state.Port) bool {
	if event.Triggered {
		return false
	}

	day := st.DayCount()
	if event.MinDay > 0 && day < event.MinDay {
		return false
	}
	if event.MaxDay > 0 && day > event.MaxDay {
		return false
	}
	if event.RequiredFlag != "" && event.TriggerType != TriggerFlag {
		if !s.flags.Has(event.RequiredFlag) {
			return false
		}
	}

	switch event.TriggerType {
	case TriggerDay:
		return day == event.TriggerValue
	case TriggerCorruption:
		return st.Corruption() >= int(event.TriggerValue)
	case TriggerLocation:
		return st.CurrentLocation() == event.TriggerValue
	case TriggerFlag:
		return s.flags.Has(event.RequiredFlag)
	case TriggerQuest:
		// Quest integration is not wired in; never fires.
		return false
	default:
		return false
	}
}

// Sweep checks every registered event against the state snapshot and
// executes the satisfied set in (priority desc, id asc) order. The set is
// computed once at the start: flags written by a callback are visible to
// trigger evaluation only on the next sweep, so one advance cannot
// cascade unbounded. Returns the number of callbacks that completed.
func (s *Scheduler) Sweep(st state.Port) int {
	if st == nil {
		return 0
	}
	if s.sweeping {
		// Re-entry from inside a callback is a programming error.
		s.logger.Error("Sweep re-entered while in progress; skipping")
		return 0
	}
	s.sweeping = true
	defer func() { s.sweeping = false }()

	var satisfied []*ScheduledEvent
	for _, event := range s.events {
		if s.conditionsMet(event, st) {
			satisfied = append(satisfied, event)
		}
	}

	sort.Slice(satisfied, func(i, j int) bool {
		if satisfied[i].Priority != satisfied[j].Priority {
			return satisfied[i].Priority > satisfied[j].Priority
		}
		return satisfied[i].ID < satisfied[j].ID
	})

	completed := 0
	for _, event := range satisfied {
		s.logger.Info("Triggering event", "name", event.Name, "day", st.DayCount())

		// Mark before invoking so a callback can never re-enter itself.
		event.Triggered = true

		if event.Callback == nil {
			event.Completed = true
			completed++
			continue
		}
		if event.Callback(st, event.ID) {
			event.Completed = true
			completed++
		} else {
			event.Completed = false
			s.logger.Warn("Event callback failed", "name", event.Name, "id", event.ID)
		}
	}

	s.lastCheckDay = st.DayCount()
	s.lastCheckCorruption = st.Corruption()
	s.lastCheckLocation = st.CurrentLocation()

	return completed
}

func (s *Scheduler) find(eventID uint32) *ScheduledEvent {
	for _, e := range s.events {
		if e.ID == eventID {
			return e
		}
	}
	return nil
}

// WasTriggered reports whether the event has fired. Unknown IDs are false.
func (s *Scheduler) WasTriggered(eventID uint32) bool {
	if e := s.find(eventID); e != nil {
		return e.Triggered
	}
	return false
}

// WasCompleted reports whether the event's callback succeeded.
func (s *Scheduler) WasCompleted(eventID uint32) bool {
	if e := s.find(eventID); e != nil {
		return e.Completed
	}
	return false
}

// Lookup returns the event record for inspection.
func (s *Scheduler) Lookup(eventID uint32) (*ScheduledEvent, error) {
	if e := s.find(eventID); e != nil {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
}

// All returns the full registry in registration order.
func (s *Scheduler) All() []*ScheduledEvent {
	return s.events
}

// Upcoming returns events that have not triggered yet.
func (s *Scheduler) Upcoming() []*ScheduledEvent {
	var upcoming []*ScheduledEvent
	for _, e := range s.events {
		if !e.Triggered {
			upcoming = append(upcoming, e)
		}
	}
	return upcoming
}

// TriggeredCount returns the number of events that have fired.
func (s *Scheduler) TriggeredCount() int {
	n := 0
	for _, e := range s.events {
		if e.Triggered {
			n++
		}
	}
	return n
}

// ForceTrigger bypasses condition checks and fires the event immediately.
// Used for debugging and tests; still marks triggered and completed.
func (s *Scheduler) ForceTrigger(eventID uint32, st state.Port) (bool, error) {
	event := s.find(eventID)
	if event == nil {
		return false, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}

	s.logger.Info("Forcing event trigger", "name", event.Name, "id", event.ID)
	event.Triggered = true
	if event.Callback == nil {
		event.Completed = true
		return true, nil
	}
	ok := event.Callback(st, event.ID)
	event.Completed = ok
	return ok, nil
}

// Reset returns a repeatable event to its untriggered state.
func (s *Scheduler) Reset(eventID uint32) error {
	event := s.find(eventID)
	if event == nil {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	if !event.Repeatable {
		return fmt.Errorf("%w: %s", ErrNotRepeatable, event.Name)
	}
	event.Triggered = false
	event.Completed = false
	s.logger.Debug("Event reset", "name", event.Name, "id", event.ID)
	return nil
}

// SetFlag records a story flag, making it visible to flag-gated events on
// the next sweep.
func (s *Scheduler) SetFlag(name string) bool {
	ok := s.flags.Set(name)
	if ok {
		s.logger.Debug("Flag set", "flag", name)
	} else {
		s.logger.Error("Failed to set flag", "flag", name)
	}
	return ok
}

// HasFlag reports whether a story flag is set.
func (s *Scheduler) HasFlag(name string) bool {
	return s.flags.Has(name)
}
