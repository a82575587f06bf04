package state

// NumGods is the size of the divine favor array. One entry per Architect.
const NumGods = 7

// Port is the narrow facet of game state that the progression core reads
// and writes. The host implements this over its richer domain model; the
// in-memory WorldState below is sufficient for the shell and for tests.
type Port interface {
	DayCount() uint32
	Corruption() int
	ConsciousnessStability() float64
	CurrentLocation() uint32
	DivineFavor() [NumGods]int
	TotalSoulsHarvested() uint32
	FullAlliances() int

	IncrementDay()
	SetLocation(id uint32)
	AddSoul(soulType SoulType, quality int)
	AddSoulEnergy(amount uint32)
	AdjustCorruption(delta int) int
}

// WorldState is the reference Port implementation.
type WorldState struct {
	Day           uint32            `json:"day"`
	CorruptionPct int               `json:"corruption"`
	Consciousness float64           `json:"consciousness"`
	LocationID    uint32            `json:"location_id"`
	Favor         [NumGods]int      `json:"divine_favor"`
	SoulsTotal    uint32            `json:"souls_total"`
	SoulEnergy    uint32            `json:"soul_energy"`
	Alliances     int               `json:"alliances"`
	SoulTally     map[SoulType]uint `json:"soul_tally,omitempty"`
}

// NewWorldState returns a fresh run: day 1, no corruption, full stability.
func NewWorldState() *WorldState {
	return &WorldState{
		Day:           1,
		Consciousness: 100.0,
		SoulTally:     make(map[SoulType]uint),
	}
}

func (w *WorldState) DayCount() uint32 { return w.Day }

func (w *WorldState) Corruption() int { return w.CorruptionPct }

func (w *WorldState) ConsciousnessStability() float64 { return w.Consciousness }

func (w *WorldState) CurrentLocation() uint32 { return w.LocationID }

func (w *WorldState) DivineFavor() [NumGods]int { return w.Favor }

func (w *WorldState) TotalSoulsHarvested() uint32 { return w.SoulsTotal }

func (w *WorldState) FullAlliances() int { return w.Alliances }

func (w *WorldState) IncrementDay() { w.Day++ }

func (w *WorldState) SetLocation(id uint32) { w.LocationID = id }

func (w *WorldState) AddSoul(soulType SoulType, quality int) {
	if w.SoulTally == nil {
		w.SoulTally = make(map[SoulType]uint)
	}
	w.SoulTally[soulType]++
	w.SoulsTotal++
}

func (w *WorldState) AddSoulEnergy(amount uint32) { w.SoulEnergy += amount }

// AdjustCorruption applies a delta and clamps to [0,100].
// Returns the new corruption value.
func (w *WorldState) AdjustCorruption(delta int) int {
	w.CorruptionPct += delta
	if w.CorruptionPct < 0 {
		w.CorruptionPct = 0
	}
	if w.CorruptionPct > 100 {
		w.CorruptionPct = 100
	}
	return w.CorruptionPct
}

// SetFavor sets a single god's favor, clamped to [-100, 100].
func (w *WorldState) SetFavor(god int, favor int) {
	if god < 0 || god >= NumGods {
		return
	}
	if favor < -100 {
		favor = -100
	}
	if favor > 100 {
		favor = 100
	}
	w.Favor[god] = favor
}
