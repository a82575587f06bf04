package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necroshell/pkg/endings"
	"necroshell/pkg/state"
)

// restoreThroughJSON snapshots the engine, round-trips the payload
// through JSON, and restores it into a freshly built engine.
func restoreThroughJSON(t *testing.T, e *Engine) (*Engine, *state.WorldState) {
	t.Helper()

	snap, err := e.Snapshot()
	require.NoError(t, err)
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	world := state.NewWorldState()
	restored := New(world, nil, nil)
	require.NoError(t, restored.RegisterStoryEvents())
	require.NoError(t, restored.Restore(&decoded))
	return restored, world
}

func TestSnapshot_RoundTripMidRun(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.HarvestVillage())
	require.NoError(t, e.AdvanceTime(12)) // partial day in flight

	restored, restoredWorld := restoreThroughJSON(t, e)

	assert.Equal(t, e.RunID(), restored.RunID())
	assert.Equal(t, world.DayCount(), restoredWorld.DayCount())
	assert.Equal(t, world.Corruption(), restoredWorld.Corruption())
	assert.Equal(t, world.SoulsTotal, restoredWorld.SoulsTotal)
	assert.Equal(t, world.SoulEnergy, restoredWorld.SoulEnergy)
	assert.True(t, restored.HasFlag("ashbrook_harvested"))
	assert.True(t, restored.Scheduler().WasTriggered(ashbrookEventID))
	assert.False(t, restored.Endings().IsAvailable(endings.KindRevenant))

	// The partial 12 hours carries over: 12 more completes the day.
	require.NoError(t, restored.AdvanceTime(12))
	assert.Equal(t, uint32(48), restoredWorld.DayCount())
}

func TestSnapshot_RestoredRunMakesIdenticalDecisions(t *testing.T) {
	e, world, _ := newTestEngine(t)

	advanceToDay(t, e, world, 47)
	require.NoError(t, e.SpareVillage())

	restored, restoredWorld := restoreThroughJSON(t, e)

	// Drive both engines through the same input sequence and compare
	// every trigger decision.
	play := func(eng *Engine, w *state.WorldState) []string {
		for w.DayCount() < 50 {
			require.NoError(t, eng.AdvanceTime(24))
		}
		require.NoError(t, eng.ConverseWithThessara())
		require.NoError(t, eng.AcceptGuidance())
		for w.DayCount() < 155 {
			require.NoError(t, eng.AdvanceTime(24))
		}
		require.NoError(t, eng.AcknowledgeSummons())
		return eng.Scheduler().Flags().Names()
	}

	original := play(e, world)
	replayed := play(restored, restoredWorld)

	assert.Equal(t, original, replayed, "flag history must match after restore")
	assert.Equal(t, e.Scheduler().TriggeredCount(), restored.Scheduler().TriggeredCount())
	assert.Equal(t, e.ThessaraTrust(), restored.ThessaraTrust())
	assert.Equal(t, e.SummonsDeadline(), restored.SummonsDeadline())
}

func TestSnapshot_RoundTripAfterGameOver(t *testing.T) {
	e, world, _ := newTestEngine(t)

	world.CorruptionPct = 80
	world.Consciousness = 50
	world.SoulsTotal = 5000
	require.NoError(t, e.AdvanceTime(24))
	require.NoError(t, e.TryTriggerEnding(endings.KindLichLord))
	require.True(t, e.Endings().HasEnded())

	restored, _ := restoreThroughJSON(t, e)

	assert.True(t, restored.Endings().HasEnded())
	assert.Equal(t, endings.KindLichLord, restored.Endings().Chosen())
	assert.Equal(t, e.Endings().EndingDay(), restored.Endings().EndingDay())
	assert.ErrorIs(t, restored.AdvanceTime(24), ErrGameOver)
}

func TestSnapshot_RequiresWorldStateFacet(t *testing.T) {
	e := New(nonWorldFacet{}, nil, nil)

	_, err := e.Snapshot()
	assert.ErrorIs(t, err, ErrUnsupportedFacet)
	assert.ErrorIs(t, e.Restore(&Snapshot{}), ErrUnsupportedFacet)
}

// nonWorldFacet is a state.Port that is not the reference WorldState.
type nonWorldFacet struct{}

func (nonWorldFacet) DayCount() uint32 { return 1 }

func (nonWorldFacet) Corruption() int { return 0 }

func (nonWorldFacet) ConsciousnessStability() float64 { return 100 }

func (nonWorldFacet) CurrentLocation() uint32 { return 0 }

func (nonWorldFacet) DivineFavor() [state.NumGods]int { return [state.NumGods]int{} }

func (nonWorldFacet) TotalSoulsHarvested() uint32 { return 0 }

func (nonWorldFacet) FullAlliances() int { return 0 }

func (nonWorldFacet) IncrementDay() {}

func (nonWorldFacet) SetLocation(uint32) {}

func (nonWorldFacet) AddSoul(state.SoulType, int) {}

func (nonWorldFacet) AddSoulEnergy(uint32) {}

func (nonWorldFacet) AdjustCorruption(int) int { return 0 }
