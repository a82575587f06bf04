package endings

import (
	"errors"
	"fmt"
	"log/slog"

	"necroshell/pkg/state"
)

// Kind identifies one of the terminal outcomes of a run.
type Kind int

const (
	KindNone Kind = iota
	// KindRevenant: resurrection, return to mortal life.
	KindRevenant
	// KindWraith: escape as distributed consciousness.
	KindWraith
	// KindMorningstar: ascend as the eighth god.
	KindMorningstar
	// KindArchon: reform the Death Network from within.
	KindArchon
	// KindLichLord: embrace undeath as an immortal tyrant.
	KindLichLord
	// KindReaper: dissolve into eternal service.
	KindReaper
	// KindDestruction: the failure outcome; the soul is unrouteable.
	KindDestruction
)

var kindNames = map[Kind]string{
	KindRevenant:    "revenant",
	KindWraith:      "wraith",
	KindMorningstar: "morningstar",
	KindArchon:      "archon",
	KindLichLord:    "lich_lord",
	KindReaper:      "reaper",
	KindDestruction: "destruction",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "none"
}

// ParseKind maps a name back to a Kind; used by the shell and save files.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindNone, false
}

var (
	ErrGameOver      = errors.New("game has already ended")
	ErrUnknownEnding = errors.New("unknown ending kind")
	ErrNotQualified  = errors.New("ending requirements not met")
	ErrEndingLocked  = errors.New("ending path is locked")
)

// FavorQuorum requires at least Count deities at or above Threshold.
// A zero Count means no favor requirement. WorstAtMost, when enabled,
// additionally requires the lowest favor to be at or below that bound
// (used only by the Destruction outcome).
type FavorQuorum struct {
	Count          int  `json:"count"`
	Threshold      int  `json:"threshold"`
	WorstAtMost    int  `json:"worst_at_most"`
	UseWorstAtMost bool `json:"use_worst_at_most"`
}

// Requirements is the structured predicate an ending evaluates against
// the state facet and the flag store.
type Requirements struct {
	MinCorruption    int         `json:"min_corruption"`
	MaxCorruption    int         `json:"max_corruption"`
	MinConsciousness float64     `json:"min_consciousness"`
	Favor            FavorQuorum `json:"favor"`
	RequiredFlags    []string    `json:"required_flags,omitempty"`
	ForbiddenFlags   []string    `json:"forbidden_flags,omitempty"`
	MinTrials        int         `json:"min_trials"`
	MinSouls         uint32      `json:"min_souls"`
	MinAlliances     int         `json:"min_alliances"`
}

// Availability tracks whether a path can still be walked.
type Availability int

const (
	Available Availability = iota
	Locked
	Unlocked
)

// Ending is one catalogue entry.
type Ending struct {
	Kind         Kind
	Name         string
	Description  string
	Epilogue     string
	Requirements Requirements

	Availability Availability
	LockReason   string
	UnlockedDay  uint32
}

// FlagSource is the read side of the story flag store.
type FlagSource interface {
	HasFlag(name string) bool
}

// TrialSource reports trial completion counts.
type TrialSource interface {
	CountCompleted() int
}

// Resolver holds the ending catalogue and the game-over latch. At most
// one ending unlocks per run; locking is permanent.
type Resolver struct {
	endings map[Kind]*Ending
	flags   FlagSource
	trials  TrialSource
	logger  *slog.Logger

	gameEnded bool
	chosen    Kind
	endingDay uint32
}

func NewResolver(flags FlagSource, trials TrialSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		endings: make(map[Kind]*Ending),
		flags:   flags,
		trials:  trials,
		logger:  logger,
	}
	for _, e := range catalogue() {
		ending := e
		r.endings[ending.Kind] = &ending
	}
	return r
}

// catalogue defines the seven routes and their gates.
func catalogue() []Ending {
	return []Ending{
		{
			Kind:        KindRevenant,
			Name:        "Revenant Route",
			Description: "Return to Dust - resurrect and reclaim mortality",
			Epilogue:    "You wake with a heartbeat. The Death Network releases you, and the morning is ordinary, and that is everything.",
			Requirements: Requirements{
				MinCorruption:    0,
				MaxCorruption:    30,
				MinConsciousness: 70,
				Favor:            FavorQuorum{Count: 3, Threshold: 40},
				RequiredFlags:    []string{"ashbrook_spared", "divine_judgment_available"},
				ForbiddenFlags:   []string{"ashbrook_harvested"},
			},
		},
		{
			Kind:        KindWraith,
			Name:        "Wraith Route",
			Description: "Freedom in Fragments - disperse into distributed consciousness",
			Epilogue:    "You are everywhere the network reaches. No single process holds you; no purge can find all of you at once.",
			Requirements: Requirements{
				MinCorruption:    20,
				MaxCorruption:    40,
				MinConsciousness: 80,
				Favor:            FavorQuorum{Count: 2, Threshold: 20},
				RequiredFlags:    []string{"thessara_high_trust", "all_trials_completed"},
				ForbiddenFlags:   []string{"ashbrook_harvested"},
			},
		},
		{
			Kind:        KindMorningstar,
			Name:        "Morningstar Route",
			Description: "Transcendence - become the eighth god",
			Epilogue:    "Seven voices become eight. The Architects make room, because they must.",
			Requirements: Requirements{
				MinCorruption:    0,
				MaxCorruption:    20,
				MinConsciousness: 90,
				Favor:            FavorQuorum{Count: 5, Threshold: 60},
				RequiredFlags: []string{
					"ashbrook_spared",
					"all_trials_completed",
					"final_antagonist_defeated",
				},
				ForbiddenFlags: []string{"ashbrook_harvested"},
			},
		},
		{
			Kind:        KindArchon,
			Name:        "Archon Route",
			Description: "Revolution - rewrite the Death Network protocols",
			Epilogue:    "The system accepts your patches. Death keeps running, but kinder, and signed with your key.",
			Requirements: Requirements{
				MinCorruption:    30,
				MaxCorruption:    60,
				MinConsciousness: 75,
				Favor:            FavorQuorum{Count: 1, Threshold: 0},
				RequiredFlags:    []string{"all_trials_completed"},
				MinAlliances:     3,
				MinSouls:         1000,
			},
		},
		{
			Kind:        KindLichLord,
			Name:        "Lich Lord Route",
			Description: "Eternal Optimization - embrace perfect, emotionless undeath",
			Epilogue:    "Feeling was overhead. You deprecate it, and the centuries compile clean.",
			Requirements: Requirements{
				MinCorruption:    70,
				MaxCorruption:    100,
				MinConsciousness: 40,
				MinSouls:         5000,
			},
		},
		{
			Kind:        KindReaper,
			Name:        "Reaper Route",
			Description: "Service Without End - dissolve into guiding souls",
			Epilogue:    "You take the queue. Every soul routed gently, forever, and the work is its own mercy.",
			Requirements: Requirements{
				MinCorruption:    0,
				MaxCorruption:    50,
				MinConsciousness: 60,
				Favor:            FavorQuorum{Count: 1, Threshold: 20},
				RequiredFlags:    []string{"thessara_high_trust"},
			},
		},
		{
			Kind:        KindDestruction,
			Name:        "Destruction",
			Description: "The Fourth Purge claims an unrouteable soul",
			Epilogue:    "There is no route left for what you became. The network drops the packet.",
			Requirements: Requirements{
				MinCorruption: 90,
				MaxCorruption: 100,
				Favor:         FavorQuorum{WorstAtMost: -70, UseWorstAtMost: true},
			},
		},
	}
}

// Lock permanently disables an ending path for this run.
// Locking an already-locked path keeps the original reason.
func (r *Resolver) Lock(kind Kind, reason string) error {
	ending, ok := r.endings[kind]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEnding, kind)
	}
	if ending.Availability == Locked {
		return nil
	}
	ending.Availability = Locked
	ending.LockReason = reason
	r.logger.Info("Ending path locked", "ending", kind.String(), "reason", reason)
	return nil
}

// IsAvailable reports whether the path has not been locked.
func (r *Resolver) IsAvailable(kind Kind) bool {
	ending, ok := r.endings[kind]
	return ok && ending.Availability != Locked
}

// LockReason returns the recorded reason for a locked path.
func (r *Resolver) LockReason(kind Kind) string {
	if ending, ok := r.endings[kind]; ok {
		return ending.LockReason
	}
	return ""
}

// Check evaluates every gate of the ending against the state facet and
// the flag store. A locked path never qualifies.
func (r *Resolver) Check(kind Kind, st state.Port) bool {
	ending, ok := r.endings[kind]
	if !ok || ending.Availability == Locked {
		return false
	}
	req := ending.Requirements

	corruption := st.Corruption()
	if corruption < req.MinCorruption || corruption > req.MaxCorruption {
		return false
	}
	if st.ConsciousnessStability() < req.MinConsciousness {
		return false
	}

	favor := st.DivineFavor()
	if req.Favor.Count > 0 {
		met := 0
		for _, f := range favor {
			if f >= req.Favor.Threshold {
				met++
			}
		}
		if met < req.Favor.Count {
			return false
		}
	}
	if req.Favor.UseWorstAtMost {
		worst := favor[0]
		for _, f := range favor[1:] {
			if f < worst {
				worst = f
			}
		}
		if worst > req.Favor.WorstAtMost {
			return false
		}
	}

	for _, flag := range req.RequiredFlags {
		if !r.flags.HasFlag(flag) {
			return false
		}
	}
	for _, flag := range req.ForbiddenFlags {
		if r.flags.HasFlag(flag) {
			return false
		}
	}

	if req.MinTrials > 0 && r.trials.CountCompleted() < req.MinTrials {
		return false
	}
	if st.TotalSoulsHarvested() < req.MinSouls {
		return false
	}
	if st.FullAlliances() < req.MinAlliances {
		return false
	}

	return true
}

// Trigger attempts to end the run with the given outcome. It succeeds
// only if Check holds and no ending has been triggered yet; on success
// the game-over latch is set permanently.
func (r *Resolver) Trigger(kind Kind, st state.Port) error {
	if r.gameEnded {
		return ErrGameOver
	}
	ending, ok := r.endings[kind]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEnding, kind)
	}
	if ending.Availability == Locked {
		return fmt.Errorf("%w: %s (%s)", ErrEndingLocked, ending.Name, ending.LockReason)
	}
	if !r.Check(kind, st) {
		return fmt.Errorf("%w: %s", ErrNotQualified, ending.Name)
	}

	r.gameEnded = true
	r.chosen = kind
	r.endingDay = st.DayCount()
	ending.Availability = Unlocked
	ending.UnlockedDay = st.DayCount()

	r.logger.Info("Ending triggered",
		"ending", kind.String(), "name", ending.Name, "day", st.DayCount())
	return nil
}

// HasEnded reports the game-over latch.
func (r *Resolver) HasEnded() bool { return r.gameEnded }

// Chosen returns the terminal outcome, or KindNone before game over.
func (r *Resolver) Chosen() Kind { return r.chosen }

// EndingDay returns the day the run ended; zero before game over.
func (r *Resolver) EndingDay() uint32 { return r.endingDay }

// Get returns the catalogue entry for inspection.
func (r *Resolver) Get(kind Kind) (*Ending, error) {
	if ending, ok := r.endings[kind]; ok {
		return ending, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownEnding, kind)
}

// Kinds lists the catalogue in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindMorningstar, KindArchon, KindRevenant,
		KindWraith, KindReaper, KindLichLord, KindDestruction,
	}
}

// EndingState is the serialisable per-run resolver state.
type EndingState struct {
	GameEnded bool              `json:"game_ended"`
	Chosen    Kind              `json:"chosen"`
	EndingDay uint32            `json:"ending_day"`
	Locked    map[string]string `json:"locked,omitempty"`
	Unlocked  map[string]uint32 `json:"unlocked,omitempty"`
}

// Snapshot captures availability, locks and the latch.
func (r *Resolver) Snapshot() EndingState {
	snap := EndingState{
		GameEnded: r.gameEnded,
		Chosen:    r.chosen,
		EndingDay: r.endingDay,
		Locked:    make(map[string]string),
		Unlocked:  make(map[string]uint32),
	}
	for kind, ending := range r.endings {
		switch ending.Availability {
		case Locked:
			snap.Locked[kind.String()] = ending.LockReason
		case Unlocked:
			snap.Unlocked[kind.String()] = ending.UnlockedDay
		}
	}
	return snap
}

// Restore replaces the per-run state from a saved snapshot.
func (r *Resolver) Restore(snap EndingState) {
	r.gameEnded = snap.GameEnded
	r.chosen = snap.Chosen
	r.endingDay = snap.EndingDay
	for name, reason := range snap.Locked {
		if kind, ok := ParseKind(name); ok {
			if ending, found := r.endings[kind]; found {
				ending.Availability = Locked
				ending.LockReason = reason
			}
		}
	}
	for name, day := range snap.Unlocked {
		if kind, ok := ParseKind(name); ok {
			if ending, found := r.endings[kind]; found {
				ending.Availability = Unlocked
				ending.UnlockedDay = day
			}
		}
	}
}
