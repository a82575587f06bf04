package engine

import (
	"fmt"

	"necroshell/pkg/story"
)

// RegisterStoryEvents installs the main narrative beats into the
// scheduler. Call once after New; re-registration reports duplicates.
func (e *Engine) RegisterStoryEvents() error {
	events := []story.ScheduledEvent{
		{
			ID:           ashbrookEventID,
			Name:         "The Ashbrook Choice",
			Description:  "A sleeping village, an effortless harvest, and the first real test of what remains of you.",
			TriggerType:  story.TriggerDay,
			TriggerValue: ashbrookEventDay,
			Priority:     story.PriorityCritical,
			Callback:     e.onAshbrookArrival,
		},
		{
			ID:           thessaraEventID,
			Name:         "Thessara's Contact",
			Description:  "A voice in the network offers mentorship and the map of seven paths.",
			TriggerType:  story.TriggerDay,
			TriggerValue: thessaraEventDay,
			RequiredFlag: "ashbrook_resolved",
			MinDay:       thessaraEventDay,
			Priority:     story.PriorityHigh,
			Callback:     e.onThessaraContact,
		},
		{
			ID:           summonsEventID,
			Name:         "The Divine Summons",
			Description:  "The Architects call you to stand the seven trials.",
			TriggerType:  story.TriggerDay,
			TriggerValue: summonsEventDay,
			RequiredFlag: "thessara_paths_revealed",
			MinDay:       summonsEventDay,
			Priority:     story.PriorityCritical,
			Callback:     e.onDivineSummons,
		},
	}
	for _, ev := range events {
		if err := e.scheduler.Register(ev); err != nil {
			return fmt.Errorf("registering %q: %w", ev.Name, err)
		}
	}
	e.logger.Info("Story events registered", "count", len(events))
	return nil
}
