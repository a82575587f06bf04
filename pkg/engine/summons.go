package engine

import (
	"fmt"

	"necroshell/pkg/endings"
	"necroshell/pkg/state"
	"necroshell/pkg/ui"
)

const (
	summonsEventID  = 155
	summonsEventDay = 155

	// Days the player has to answer before the Architects withdraw the offer.
	summonsResponseWindow = 7
)

// summonsEvent tracks the divine summons and its response deadline. The
// summons arrives on day 155 once the paths are known; ignoring it past
// the deadline closes the Archon route.
type summonsEvent struct {
	Received     bool   `json:"received"`
	Acknowledged bool   `json:"acknowledged"`
	Ignored      bool   `json:"ignored"`
	DeadlineDay  uint32 `json:"deadline_day"`
}

func newSummonsEvent() summonsEvent {
	return summonsEvent{}
}

func (e *Engine) onDivineSummons(st state.Port, eventID uint32) bool {
	e.summons.Received = true
	e.summons.DeadlineDay = st.DayCount() + summonsResponseWindow

	e.scheduler.SetFlag("divine_summons_received")

	e.logger.Info("Divine summons received",
		"day", st.DayCount(), "deadline", e.summons.DeadlineDay)

	e.ui.PresentScene("The Summons", []string{
		"Seven voices speak at once, and the Death Network goes still to",
		"listen. The Architects have noticed you.",
		"",
		fmt.Sprintf("You are called to stand the seven trials. Answer within %d days,", summonsResponseWindow),
		"or the offer is withdrawn and will not come again.",
	}, ui.StyleWarning)

	choice, ok := e.ui.PromptChoice(
		"The Divine Summons",
		"Answer the Architects?",
		[]string{"Acknowledge the summons", "Not yet"},
	)
	if ok && choice == 0 {
		e.acknowledgeSummons(st)
	}
	return true
}

func (e *Engine) acknowledgeSummons(st state.Port) {
	if e.summons.Acknowledged || e.summons.Ignored {
		return
	}
	e.summons.Acknowledged = true

	e.scheduler.SetFlag("divine_summons_acknowledged")
	e.trials.Activate()

	e.logger.Info("Divine summons acknowledged", "day", st.DayCount())

	e.ui.PresentScene("The Trials Begin", []string{
		"You answer. The first trial unfolds before you: the Test of Power.",
	}, ui.StyleInfo)
}

// checkSummonsDeadline runs after every sweep. Once the response window
// has lapsed without an acknowledgement, the summons is marked ignored
// and the Archon route locks permanently.
func (e *Engine) checkSummonsDeadline() {
	if !e.summons.Received || e.summons.Acknowledged || e.summons.Ignored {
		return
	}
	if e.st.DayCount() <= e.summons.DeadlineDay {
		return
	}
	e.summons.Ignored = true
	e.scheduler.SetFlag("divine_summons_ignored")
	if err := e.resolver.Lock(endings.KindArchon, "ignored the divine summons"); err != nil {
		e.logger.Error("Failed to lock Archon path", "error", err)
	}
	e.logger.Warn("Divine summons ignored; offer withdrawn",
		"day", e.st.DayCount(), "deadline", e.summons.DeadlineDay)

	e.ui.PresentScene("Silence", []string{
		"The seven voices withdraw. The trials will not be offered twice.",
	}, ui.StyleWarning)
}

// AcknowledgeSummons answers a pending divine summons, activating the
// trial sequence, then sweeps.
func (e *Engine) AcknowledgeSummons() error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	if !e.summons.Received {
		return ErrNoPendingScene
	}
	if e.summons.Acknowledged || e.summons.Ignored {
		return ErrChoiceResolved
	}
	e.acknowledgeSummons(e.st)
	e.runSweep()
	return nil
}

// SummonsDeadline returns the last day an acknowledgement is accepted,
// or zero before the summons arrives.
func (e *Engine) SummonsDeadline() uint32 { return e.summons.DeadlineDay }
