package engine

import (
	"necroshell/pkg/endings"
	"necroshell/pkg/state"
	"necroshell/pkg/ui"
)

const (
	ashbrookEventID  = 47
	ashbrookEventDay = 47

	ashbrookHarvestCorruption = 13
	ashbrookSpareCorruption   = -2
)

// ashbrookEvent holds the pending moral choice at Ashbrook Village. The
// scene fires on day 47; if the UI declines the prompt the choice stays
// pending and the host resolves it later with Harvest or Spare.
type ashbrookEvent struct {
	Presented bool `json:"presented"`
	Resolved  bool `json:"resolved"`
}

func newAshbrookEvent() ashbrookEvent {
	return ashbrookEvent{}
}

// villager is one entry in the Ashbrook harvest roster.
type villager struct {
	soulType state.SoulType
	quality  int
}

// ashbrookRoster builds the fixed village population: 120 common souls,
// 20 warriors, 5 mages and 2 innocents, with deterministic quality so a
// harvest always yields the same energy.
func ashbrookRoster() []villager {
	roster := make([]villager, 0, 147)
	for i := 0; i < 120; i++ {
		roster = append(roster, villager{state.SoulCommon, 40 + (i % 31)})
	}
	for i := 0; i < 20; i++ {
		roster = append(roster, villager{state.SoulWarrior, 70 + (i % 21)})
	}
	for i := 0; i < 5; i++ {
		roster = append(roster, villager{state.SoulMage, 75 + 3*i})
	}
	for i := 0; i < 2; i++ {
		roster = append(roster, villager{state.SoulInnocent, 92 + 3*i})
	}
	return roster
}

func (e *Engine) onAshbrookArrival(st state.Port, eventID uint32) bool {
	e.ashbrook.Presented = true

	e.ui.PresentScene("Ashbrook Village", []string{
		"The village of Ashbrook sleeps below the ridge. A hundred and",
		"forty-seven souls, warm and unguarded. Your reserves are thin and",
		"the harvest would be effortless.",
		"",
		"Or you could pass through quietly and leave them to their lives.",
	}, ui.StyleWarning)

	choice, ok := e.ui.PromptChoice(
		"The Ashbrook Choice",
		"What do you do with the village?",
		[]string{"Harvest every soul", "Spare the village"},
	)
	if !ok {
		// Non-interactive host; the choice stays pending until the
		// player issues an explicit harvest or spare command.
		e.logger.Info("Ashbrook choice deferred to host")
		return true
	}
	if choice == 0 {
		return e.resolveAshbrookHarvest(st)
	}
	return e.resolveAshbrookSpare(st)
}

// resolveAshbrookHarvest consumes the whole roster, applies the
// corruption cost and locks the redemption paths. Safe to call from
// inside a sweep; flags it writes are seen next sweep.
func (e *Engine) resolveAshbrookHarvest(st state.Port) bool {
	if e.ashbrook.Resolved {
		return false
	}
	e.ashbrook.Resolved = true

	var energy uint32
	roster := ashbrookRoster()
	for _, v := range roster {
		st.AddSoul(v.soulType, v.quality)
		energy += state.SoulEnergy(v.soulType, v.quality)
	}
	st.AddSoulEnergy(energy)
	st.AdjustCorruption(ashbrookHarvestCorruption)

	e.scheduler.SetFlag("ashbrook_harvested")
	e.scheduler.SetFlag("ashbrook_resolved")

	reason := "mass harvest of Ashbrook Village"
	if err := e.resolver.Lock(endings.KindRevenant, reason); err != nil {
		e.logger.Error("Failed to lock ending path", "error", err)
	}
	if err := e.resolver.Lock(endings.KindMorningstar, reason); err != nil {
		e.logger.Error("Failed to lock ending path", "error", err)
	}

	e.logger.Info("Ashbrook harvested",
		"souls", len(roster), "energy", energy, "corruption", st.Corruption())

	e.ui.PresentScene("The Harvest", []string{
		"It takes less than an hour. One hundred and forty-seven souls",
		"stream into your phylactery, and the village falls silent.",
		"Something in you quiets too, and does not return.",
	}, ui.StyleWarning)
	return true
}

// resolveAshbrookSpare walks away from the village, easing corruption
// slightly and keeping the redemption paths open.
func (e *Engine) resolveAshbrookSpare(st state.Port) bool {
	if e.ashbrook.Resolved {
		return false
	}
	e.ashbrook.Resolved = true

	st.AdjustCorruption(ashbrookSpareCorruption)
	e.scheduler.SetFlag("ashbrook_spared")
	e.scheduler.SetFlag("ashbrook_resolved")

	e.logger.Info("Ashbrook spared", "corruption", st.Corruption())

	e.ui.PresentScene("Mercy", []string{
		"You pass through Ashbrook before dawn and take nothing. The",
		"hunger complains; the part of you that is still a person does not.",
	}, ui.StyleSuccess)
	return true
}

// HarvestVillage resolves a pending Ashbrook choice as a harvest and
// sweeps so the new flags can gate follow-up events.
func (e *Engine) HarvestVillage() error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	if !e.ashbrook.Presented {
		return ErrNoPendingScene
	}
	if e.ashbrook.Resolved {
		return ErrChoiceResolved
	}
	e.resolveAshbrookHarvest(e.st)
	e.runSweep()
	return nil
}

// SpareVillage resolves a pending Ashbrook choice as mercy and sweeps.
func (e *Engine) SpareVillage() error {
	if e.resolver.HasEnded() {
		return ErrGameOver
	}
	if !e.ashbrook.Presented {
		return ErrNoPendingScene
	}
	if e.ashbrook.Resolved {
		return ErrChoiceResolved
	}
	e.resolveAshbrookSpare(e.st)
	e.runSweep()
	return nil
}
