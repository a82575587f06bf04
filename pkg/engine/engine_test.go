package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necroshell/pkg/endings"
	"necroshell/pkg/state"
	"necroshell/pkg/trials"
	"necroshell/pkg/ui"
)

// ashbrookHarvestEnergy is the deterministic yield of the full roster:
// 120 common, 20 warrior, 5 mage and 2 innocent souls.
const ashbrookHarvestEnergy = 2790

func newTestEngine(t *testing.T) (*Engine, *state.WorldState, *ui.Scripted) {
	t.Helper()
	world := state.NewWorldState()
	port := &ui.Scripted{}
	e := New(world, port, nil)
	require.NoError(t, e.RegisterStoryEvents())
	return e, world, port
}

func advanceToDay(t *testing.T, e *Engine, world *state.WorldState, day uint32) {
	t.Helper()
	for world.DayCount() < day {
		require.NoError(t, e.AdvanceTime(24))
	}
	require.Equal(t, day, world.DayCount())
}

func TestEngine_RegisteredEventGates(t *testing.T) {
	e, _, _ := newTestEngine(t)

	thessara, err := e.Scheduler().Lookup(thessaraEventID)
	require.NoError(t, err)
	assert.Equal(t, "ashbrook_resolved", thessara.RequiredFlag)
	assert.Equal(t, uint32(thessaraEventDay), thessara.MinDay)

	summons, err := e.Scheduler().Lookup(summonsEventID)
	require.NoError(t, err)
	assert.Equal(t, "thessara_paths_revealed", summons.RequiredFlag)
	assert.Equal(t, uint32(summonsEventDay), summons.MinDay)
}

func TestEngine_AdvanceTimeAccumulatesHours(t *testing.T) {
	e, world, _ := newTestEngine(t)

	require.NoError(t, e.AdvanceTime(23))
	assert.Equal(t, uint32(1), world.DayCount())

	require.NoError(t, e.AdvanceTime(1))
	assert.Equal(t, uint32(2), world.DayCount())

	require.NoError(t, e.AdvanceTime(48))
	assert.Equal(t, uint32(4), world.DayCount())
}

func TestEngine_SpareAndMentor(t *testing.T) {
	e, world, _ := newTestEngine(t)
	require.NoError(t, e.SetCorruption(10))

	advanceToDay(t, e, world, 47)
	assert.True(t, e.Scheduler().WasTriggered(ashbrookEventID))

	require.NoError(t, e.SpareVillage())
	assert.True(t, e.HasFlag("ashbrook_spared"))
	assert.True(t, e.HasFlag("ashbrook_resolved"))
	assert.False(t, e.HasFlag("ashbrook_harvested"))
	assert.Equal(t, 8, world.Corruption(), "sparing eases corruption by two")
	assert.Equal(t, uint32(0), world.TotalSoulsHarvested())

	advanceToDay(t, e, world, 50)
	assert.True(t, e.Scheduler().WasTriggered(thessaraEventID))
	assert.True(t, e.HasFlag("thessara_contacted"))
	assert.False(t, e.HasFlag("thessara_paths_revealed"),
		"contact alone reveals nothing")
	assert.Equal(t, 0, e.ThessaraTrust())

	require.NoError(t, e.ConverseWithThessara())
	assert.True(t, e.HasFlag("thessara_paths_revealed"))
	assert.Equal(t, 25, e.ThessaraTrust())

	require.NoError(t, e.AcceptGuidance())
	assert.True(t, e.HasFlag("thessara_guidance_accepted"))
	assert.True(t, e.HasFlag("thessara_high_trust"))
	assert.Equal(t, 35, e.ThessaraTrust())

	assert.True(t, e.Endings().IsAvailable(endings.KindRevenant),
		"sparing keeps the resurrection path open")
}

func TestEngine_HarvestLocksRedemption(t *testing.T) {
	e, world, _ := newTestEngine(t)
	require.NoError(t, e.SetCorruption(10))

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.HarvestVillage())

	assert.True(t, e.HasFlag("ashbrook_harvested"))
	assert.True(t, e.HasFlag("ashbrook_resolved"))
	assert.Equal(t, uint32(147), world.TotalSoulsHarvested())
	assert.Equal(t, uint32(ashbrookHarvestEnergy), world.SoulEnergy)
	assert.Equal(t, 23, world.Corruption(), "harvesting costs thirteen corruption")

	assert.False(t, e.Endings().IsAvailable(endings.KindRevenant))
	assert.False(t, e.Endings().IsAvailable(endings.KindMorningstar))
	assert.True(t, e.Endings().IsAvailable(endings.KindLichLord))
	assert.Equal(t, "mass harvest of Ashbrook Village", e.Endings().LockReason(endings.KindRevenant))
	assert.False(t, e.Endings().Check(endings.KindRevenant, world))
}

func TestEngine_AshbrookChoiceGuards(t *testing.T) {
	e, world, _ := newTestEngine(t)

	assert.ErrorIs(t, e.HarvestVillage(), ErrNoPendingScene)
	assert.ErrorIs(t, e.SpareVillage(), ErrNoPendingScene)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.SpareVillage())

	assert.ErrorIs(t, e.HarvestVillage(), ErrChoiceResolved)
	assert.ErrorIs(t, e.SpareVillage(), ErrChoiceResolved)
	assert.Equal(t, uint32(0), world.TotalSoulsHarvested(),
		"a resolved choice cannot be re-resolved the other way")
}

func TestEngine_ThessaraRequiresAshbrookResolution(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	// Leave the choice pending. Thessara's gate flag is never set, and
	// her day-50 window passes unanswered.
	advanceToDay(t, e, world, 60)
	assert.False(t, e.Scheduler().WasTriggered(thessaraEventID))
	assert.False(t, e.HasFlag("thessara_contacted"))
}

func TestEngine_ContactAloneLeavesPathsHidden(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.SpareVillage())

	// Never speak with Thessara. The paths stay hidden, so the summons
	// gate flag is absent when day 155 passes.
	advanceToDay(t, e, world, 160)
	assert.False(t, e.HasFlag("thessara_paths_revealed"))
	assert.Equal(t, 0, e.ThessaraTrust())
	assert.False(t, e.Scheduler().WasTriggered(summonsEventID))

	// The offer cannot be answered before the conversation happens.
	assert.ErrorIs(t, e.AcceptGuidance(), ErrNoPendingScene)
	assert.ErrorIs(t, e.RejectGuidance(), ErrNoPendingScene)

	// The conversation is still open, and only happens once.
	require.NoError(t, e.ConverseWithThessara())
	assert.True(t, e.HasFlag("thessara_paths_revealed"))
	assert.Equal(t, 25, e.ThessaraTrust())
	assert.ErrorIs(t, e.ConverseWithThessara(), ErrChoiceResolved)
}

func TestEngine_ConverseRequiresContact(t *testing.T) {
	e, world, _ := newTestEngine(t)

	assert.ErrorIs(t, e.ConverseWithThessara(), ErrNoPendingScene)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.SpareVillage())
	assert.ErrorIs(t, e.ConverseWithThessara(), ErrNoPendingScene,
		"she does not reach out until her day comes")
}

func TestEngine_RejectGuidance(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.SpareVillage())
	advanceToDay(t, e, world, 50)
	require.NoError(t, e.ConverseWithThessara())

	require.NoError(t, e.RejectGuidance())
	assert.True(t, e.HasFlag("thessara_guidance_rejected"))
	assert.False(t, e.HasFlag("thessara_high_trust"))
	assert.Equal(t, 25, e.ThessaraTrust())

	assert.ErrorIs(t, e.AcceptGuidance(), ErrChoiceResolved)
}

func TestEngine_SummonsIgnoredLocksArchon(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.SpareVillage())
	advanceToDay(t, e, world, 50)
	require.NoError(t, e.ConverseWithThessara())
	require.NoError(t, e.AcceptGuidance())

	advanceToDay(t, e, world, 155)
	assert.True(t, e.Scheduler().WasTriggered(summonsEventID))
	assert.True(t, e.HasFlag("divine_summons_received"))
	assert.Equal(t, uint32(162), e.SummonsDeadline())

	advanceToDay(t, e, world, 162)
	assert.False(t, e.HasFlag("divine_summons_ignored"), "deadline day itself is still in time")

	advanceToDay(t, e, world, 163)
	assert.True(t, e.HasFlag("divine_summons_ignored"))
	assert.False(t, e.Endings().IsAvailable(endings.KindArchon))
	assert.Equal(t, "ignored the divine summons", e.Endings().LockReason(endings.KindArchon))

	assert.ErrorIs(t, e.AcknowledgeSummons(), ErrChoiceResolved,
		"a lapsed summons cannot be answered")
}

func TestEngine_SummonsRequiresPathsRevealed(t *testing.T) {
	e, world, _ := newTestEngine(t)

	// Ashbrook stays unresolved past day 50, so Thessara never makes
	// contact and the summons gate flag is absent on day 155.
	advanceToDay(t, e, world, 160)
	assert.False(t, e.Scheduler().WasTriggered(thessaraEventID))
	assert.False(t, e.Scheduler().WasTriggered(summonsEventID))
	assert.ErrorIs(t, e.AcknowledgeSummons(), ErrNoPendingScene)
}

func TestEngine_FullTrialRunToArchon(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.SpareVillage())
	advanceToDay(t, e, world, 50)
	require.NoError(t, e.ConverseWithThessara())
	require.NoError(t, e.AcceptGuidance())

	advanceToDay(t, e, world, 155)
	require.NoError(t, e.AdvanceTime(24))
	require.NoError(t, e.AcknowledgeSummons())
	assert.True(t, e.HasFlag("divine_summons_acknowledged"))
	assert.True(t, e.HasFlag("trial_1_unlocked"))

	for n := uint32(1); n <= trials.NumTrials; n++ {
		require.NoError(t, e.MarkTrialCompleted(n))
		if n < trials.NumTrials {
			assert.True(t, e.Trials().IsUnlocked(n+1),
				"completing trial %d unlocks the next", n)
		}
	}
	assert.True(t, e.HasFlag("all_trials_completed"))
	assert.True(t, e.HasFlag("divine_judgment_available"))
	assert.True(t, e.Trials().JudgmentArmed())

	// Meet the remaining Archon gates.
	require.NoError(t, e.SetCorruption(45))
	world.Alliances = 3
	world.SoulsTotal = 1000
	world.Consciousness = 80

	require.NoError(t, e.TryTriggerEnding(endings.KindArchon))
	assert.True(t, e.Endings().HasEnded())
	assert.Equal(t, endings.KindArchon, e.Endings().Chosen())

	assert.ErrorIs(t, e.TryTriggerEnding(endings.KindLichLord), endings.ErrGameOver)
	assert.ErrorIs(t, e.AdvanceTime(24), ErrGameOver)
	assert.ErrorIs(t, e.MarkTrialCompleted(1), ErrGameOver)
	assert.False(t, e.SetFlag("anything"), "a finished run accepts no new flags")
}

func TestEngine_UnrecoverableTrialFailureLocksArchon(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.SpareVillage())
	advanceToDay(t, e, world, 50)
	require.NoError(t, e.ConverseWithThessara())
	require.NoError(t, e.AcceptGuidance())
	advanceToDay(t, e, world, 155)
	require.NoError(t, e.AcknowledgeSummons())

	require.NoError(t, e.MarkTrialCompleted(1))
	require.NoError(t, e.MarkTrialCompleted(2))
	require.NoError(t, e.MarkTrialFailed(3))

	assert.Equal(t, trials.SequenceFailed, e.Trials().State())
	assert.False(t, e.Endings().IsAvailable(endings.KindArchon))
	assert.True(t, e.HasFlag("trial_3_failed"))
}

func TestEngine_RecoverableTrialFailureKeepsArchon(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.SpareVillage())
	advanceToDay(t, e, world, 50)
	require.NoError(t, e.ConverseWithThessara())
	require.NoError(t, e.AcceptGuidance())
	advanceToDay(t, e, world, 155)
	require.NoError(t, e.AcknowledgeSummons())

	require.NoError(t, e.MarkTrialFailed(1))
	assert.True(t, e.Endings().IsAvailable(endings.KindArchon))
	assert.Equal(t, trials.SequenceActive, e.Trials().State())
}

func TestEngine_ScriptedChoiceResolvesInline(t *testing.T) {
	world := state.NewWorldState()
	port := &ui.Scripted{Choices: []int{1}} // spare
	e := New(world, port, nil)
	require.NoError(t, e.RegisterStoryEvents())

	for world.DayCount() < 47 {
		require.NoError(t, e.AdvanceTime(24))
	}

	assert.True(t, e.HasFlag("ashbrook_spared"),
		"an interactive port resolves the choice inside the callback")
	assert.ErrorIs(t, e.SpareVillage(), ErrChoiceResolved)

	require.NotEmpty(t, port.Scenes)
	assert.Equal(t, "Ashbrook Village", port.Scenes[0].Title)
}

func TestEngine_ScriptedMentorChainResolvesInline(t *testing.T) {
	world := state.NewWorldState()
	// Spare the village, meet Thessara, accept her guidance.
	port := &ui.Scripted{Choices: []int{1, 0, 0}}
	e := New(world, port, nil)
	require.NoError(t, e.RegisterStoryEvents())

	for world.DayCount() < 50 {
		require.NoError(t, e.AdvanceTime(24))
	}

	assert.True(t, e.HasFlag("thessara_contacted"))
	assert.True(t, e.HasFlag("thessara_paths_revealed"))
	assert.True(t, e.HasFlag("thessara_guidance_accepted"))
	assert.True(t, e.HasFlag("thessara_high_trust"))
	assert.Equal(t, 35, e.ThessaraTrust())
	assert.ErrorIs(t, e.ConverseWithThessara(), ErrChoiceResolved)
}

func TestEngine_QueryStatus(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.HarvestVillage())

	st := e.QueryStatus()
	assert.Equal(t, uint32(47), st.Day)
	assert.Equal(t, 13, st.Corruption)
	assert.Equal(t, 1, st.TriggeredEvents)
	assert.Equal(t, 2, st.PendingEvents)
	assert.False(t, st.GameEnded)
	assert.Equal(t, endings.KindNone, st.Ending)
}
