package state

// SoulType classifies a harvested soul. The type sets the base energy
// range; quality interpolates within it.
type SoulType int

const (
	SoulCommon SoulType = iota
	SoulWarrior
	SoulMage
	SoulInnocent
	SoulCorrupted
	SoulAncient
)

var soulTypeNames = map[SoulType]string{
	SoulCommon:    "Common",
	SoulWarrior:   "Warrior",
	SoulMage:      "Mage",
	SoulInnocent:  "Innocent",
	SoulCorrupted: "Corrupted",
	SoulAncient:   "Ancient",
}

func (t SoulType) String() string {
	if name, ok := soulTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// energyRange returns the min and max energy for a soul type.
func (t SoulType) energyRange() (uint32, uint32) {
	switch t {
	case SoulWarrior:
		return 20, 40
	case SoulMage:
		return 30, 50
	case SoulInnocent:
		return 15, 25
	case SoulCorrupted:
		return 25, 35
	case SoulAncient:
		return 50, 100
	default:
		return 10, 20
	}
}

// SoulEnergy computes the energy yield of a soul:
// min + (max-min)*quality/100, quality clamped to [0,100].
func SoulEnergy(t SoulType, quality int) uint32 {
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	min, max := t.energyRange()
	return min + (max-min)*uint32(quality)/100
}
