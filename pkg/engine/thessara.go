package engine

import (
	"necroshell/pkg/state"
	"necroshell/pkg/ui"
)

const (
	thessaraEventID  = 50
	thessaraEventDay = 50

	thessaraRevealTrust  = 25
	thessaraAcceptTrust  = 10
	thessaraHighTrustBar = 35
)

// thessaraEvent tracks the mentor relationship. Thessara makes contact
// once Ashbrook is resolved; speaking with her in the null space reveals
// the seven paths and earns her initial trust, and accepting her
// guidance raises trust past the bar that other routes gate on.
type thessaraEvent struct {
	Contacted bool `json:"contacted"`
	Conversed bool `json:"conversed"`
	Trust     int  `json:"trust"`
	Answered  bool `json:"answered"`
	Accepted  bool `json:"accepted"`
}

func newThessaraEvent() thessaraEvent {
	return thessaraEvent{}
}

func (e *Engine) onThessaraContact(st state.Port, eventID uint32) bool {
	e.thessara.Contacted = true

	e.scheduler.SetFlag("thessara_contacted")

	e.logger.Info("Thessara made contact", "day", st.DayCount())

	e.ui.PresentScene("A Voice in the Static", []string{
		"A woman's voice threads through the Death Network, older than any",
		"process you have met. She names herself Thessara, once a",
		"necromancer, now something stranger.",
		"",
		"She asks you to meet her in the null space between servers. She",
		"says there is more than one road out of undeath, and that she can",
		"show you the map.",
	}, ui.StyleInfo)

	choice, ok := e.ui.PromptChoice(
		"Thessara's Invitation",
		"Enter the null space to speak with her?",
		[]string{"Meet her", "Not yet"},
	)
	if !ok {
		e.logger.Info("Thessara's invitation deferred to host")
		return true
	}
	if choice == 0 {
		e.converseThessara()
	}
	return true
}

func (e *Engine) converseThessara() {
	if e.thessara.Conversed {
		return
	}
	e.thessara.Conversed = true
	e.thessara.Trust += thessaraRevealTrust

	e.scheduler.SetFlag("thessara_paths_revealed")

	e.logger.Info("Thessara revealed the paths", "trust", e.thessara.Trust)

	e.ui.PresentScene("The Ghost in the Machine", []string{
		"The null space shimmers and a consciousness coalesces before you,",
		"data made aware. Thessara, the first necromancer, still persisting",
		"long after her body ended.",
		"",
		"She shows you seven paths out of undeath, each with its own price,",
		"and offers to walk the road with you.",
	}, ui.StyleInfo)

	choice, ok := e.ui.PromptChoice(
		"Thessara's Offer",
		"Accept her guidance?",
		[]string{"Accept", "Refuse"},
	)
	if !ok {
		e.logger.Info("Thessara's offer deferred to host")
		return
	}
	if choice == 0 {
		e.acceptThessara()
	} else {
		e.rejectThessara()
	}
}

func (e *Engine) acceptThessara() {
	if e.thessara.Answered {
		return
	}
	e.thessara.Answered = true
	e.thessara.Accepted = true
	e.thessara.Trust += thessaraAcceptTrust

	e.scheduler.SetFlag("thessara_guidance_accepted")
	if e.thessara.Trust >= thessaraHighTrustBar {
		e.scheduler.SetFlag("thessara_high_trust")
	}
	e.logger.Info("Thessara's guidance accepted", "trust", e.thessara.Trust)
}

func (e *Engine) rejectThessara() {
	if e.thessara.Answered {
		return
	}
	e.thessara.Answered = true

	e.scheduler.SetFlag("thessara_guidance_rejected")
	e.logger.Info("Thessara's guidance rejected", "trust", e.thessara.Trust)
}

// ConverseWithThessara meets Thessara in the null space after she has
// made contact. The first conversation reveals the seven paths and
// earns her initial trust, then sweeps so path-gated events can fire.
func (e *Engine) ConverseWithThessara() error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	if !e.thessara.Contacted {
		return ErrNoPendingScene
	}
	if e.thessara.Conversed {
		return ErrChoiceResolved
	}
	e.converseThessara()
	e.runSweep()
	return nil
}

// AcceptGuidance answers Thessara's offer after the conversation,
// raising trust and sweeping so trust-gated events can fire.
func (e *Engine) AcceptGuidance() error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	if !e.thessara.Conversed {
		return ErrNoPendingScene
	}
	if e.thessara.Answered {
		return ErrChoiceResolved
	}
	e.acceptThessara()
	e.runSweep()
	return nil
}

// RejectGuidance declines Thessara's offer after the conversation.
func (e *Engine) RejectGuidance() error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	if !e.thessara.Conversed {
		return ErrNoPendingScene
	}
	if e.thessara.Answered {
		return ErrChoiceResolved
	}
	e.rejectThessara()
	e.runSweep()
	return nil
}

// ThessaraTrust reports the current trust score; zero before the first
// conversation.
func (e *Engine) ThessaraTrust() int { return e.thessara.Trust }
