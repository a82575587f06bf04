package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWorldState(t *testing.T) {
	w := NewWorldState()

	assert.Equal(t, uint32(1), w.DayCount())
	assert.Equal(t, 0, w.Corruption())
	assert.Equal(t, 100.0, w.ConsciousnessStability())
	assert.Equal(t, uint32(0), w.TotalSoulsHarvested())
}

func TestWorldState_AdjustCorruptionClamps(t *testing.T) {
	w := NewWorldState()

	assert.Equal(t, 13, w.AdjustCorruption(13))
	assert.Equal(t, 0, w.AdjustCorruption(-50), "corruption floors at zero")
	assert.Equal(t, 100, w.AdjustCorruption(250), "corruption caps at one hundred")
}

func TestWorldState_SetFavorClamps(t *testing.T) {
	w := NewWorldState()

	w.SetFavor(0, 150)
	w.SetFavor(1, -150)
	w.SetFavor(-1, 50) // out of range, ignored
	w.SetFavor(NumGods, 50)

	favor := w.DivineFavor()
	assert.Equal(t, 100, favor[0])
	assert.Equal(t, -100, favor[1])
	for i := 2; i < NumGods; i++ {
		assert.Equal(t, 0, favor[i])
	}
}

func TestWorldState_AddSoul(t *testing.T) {
	w := NewWorldState()

	w.AddSoul(SoulCommon, 50)
	w.AddSoul(SoulCommon, 60)
	w.AddSoul(SoulAncient, 90)

	assert.Equal(t, uint32(3), w.TotalSoulsHarvested())
	assert.Equal(t, uint(2), w.SoulTally[SoulCommon])
	assert.Equal(t, uint(1), w.SoulTally[SoulAncient])
}

func TestSoulEnergy(t *testing.T) {
	tests := []struct {
		name     string
		soulType SoulType
		quality  int
		want     uint32
	}{
		{"common floor", SoulCommon, 0, 10},
		{"common ceiling", SoulCommon, 100, 20},
		{"common midpoint", SoulCommon, 50, 15},
		{"warrior", SoulWarrior, 50, 30},
		{"mage", SoulMage, 80, 46},
		{"innocent", SoulInnocent, 92, 24},
		{"corrupted", SoulCorrupted, 10, 26},
		{"ancient", SoulAncient, 100, 100},
		{"quality clamped low", SoulCommon, -10, 10},
		{"quality clamped high", SoulCommon, 900, 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SoulEnergy(tc.soulType, tc.quality))
		})
	}
}

func TestSoulTypeString(t *testing.T) {
	assert.Equal(t, "Warrior", SoulWarrior.String())
	assert.Equal(t, "Unknown", SoulType(42).String())
}
