package story

import "necroshell/pkg/state"

// TriggerType selects the predicate that fires a ScheduledEvent.
type TriggerType int

const (
	// TriggerDay fires when day_count equals the trigger value exactly.
	TriggerDay TriggerType = iota
	// TriggerCorruption fires when corruption reaches the trigger value.
	TriggerCorruption
	// TriggerLocation fires when the current location matches the value.
	TriggerLocation
	// TriggerQuest is reserved; it evaluates false until the quest system
	// is wired in.
	TriggerQuest
	// TriggerFlag fires when the event's required flag is set. The flag is
	// both gate and trigger.
	TriggerFlag
)

func (t TriggerType) String() string {
	switch t {
	case TriggerDay:
		return "day"
	case TriggerCorruption:
		return "corruption"
	case TriggerLocation:
		return "location"
	case TriggerQuest:
		return "quest"
	case TriggerFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// Priority orders callback execution within a sweep. Higher runs first;
// ties break by ascending event ID.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Callback is invoked when an event fires. It mutates game state only
// through the state port and returns whether the event completed.
// Callbacks must not panic; a false return marks the event incomplete
// without retrying it.
type Callback func(st state.Port, eventID uint32) bool

// ScheduledEvent is a declarative story beat: a trigger, optional gates,
// and a callback. Triggered and Completed track its lifecycle.
type ScheduledEvent struct {
	ID          uint32
	Name        string
	Description string

	TriggerType  TriggerType
	TriggerValue uint32

	RequiredFlag string // empty means no flag gate
	MinDay       uint32 // 0 means no minimum
	MaxDay       uint32 // 0 means no maximum

	Priority   Priority
	Repeatable bool
	Callback   Callback

	Triggered bool
	Completed bool
}
