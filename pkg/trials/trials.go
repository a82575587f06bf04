package trials

import (
	"errors"
	"fmt"
	"log/slog"
)

// NumTrials is the length of the Archon trial sequence.
const NumTrials = 7

// TrialNames indexes display names by trial number - 1.
var TrialNames = [NumTrials]string{
	"Test of Power",
	"Test of Wisdom",
	"Test of Morality",
	"Test of Technical Skill",
	"Test of Resolve",
	"Test of Sacrifice",
	"Test of Leadership",
}

// unrecoverableTrials marks trials whose failure ends the sequence.
// Failing the Test of Morality closes the Archon path for good.
var unrecoverableTrials = map[uint32]bool{3: true}

var ErrInvalidTrial = errors.New("trial number out of range")

// SequenceState tracks the overall trial progression.
type SequenceState int

const (
	SequenceInactive SequenceState = iota
	SequenceActive
	SequenceCompleted
	SequenceFailed
)

func (s SequenceState) String() string {
	switch s {
	case SequenceInactive:
		return "inactive"
	case SequenceActive:
		return "active"
	case SequenceCompleted:
		return "completed"
	case SequenceFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FlagSink receives the story flags the trial sequence publishes.
type FlagSink interface {
	SetFlag(name string) bool
}

// Progress is the serialisable trial sequence state.
type Progress struct {
	State             SequenceState `json:"state"`
	Unlocked          uint8         `json:"unlocked"`
	CompletedMask     uint8         `json:"completed"`
	FailedMask        uint8         `json:"failed"`
	LastCompletionDay uint32        `json:"last_completion_day"`
	JudgmentArmed     bool          `json:"judgment_armed"`
}

// Manager drives the seven-step gated progression: completing trial n
// unlocks trial n+1, and completing trial seven arms the divine judgment.
type Manager struct {
	progress Progress
	flags    FlagSink
	logger   *slog.Logger
}

func NewManager(flags FlagSink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{flags: flags, logger: logger}
}

func bit(n uint32) uint8 { return 1 << (n - 1) }

// Activate unlocks trial 1 and moves the sequence to Active. Called when
// the divine summons is acknowledged. Idempotent.
func (m *Manager) Activate() {
	if m.progress.State != SequenceInactive {
		return
	}
	m.progress.State = SequenceActive
	m.progress.Unlocked |= bit(1)
	m.flags.SetFlag("trial_1_unlocked")
	m.logger.Info("Archon trial path activated", "trial", 1)
}

// OnCompletion records trial n as completed, unlocks the next trial or,
// at trial seven, arms the divine judgment. The trial must be unlocked
// and not already resolved.
func (m *Manager) OnCompletion(n uint32, day uint32) error {
	if n < 1 || n > NumTrials {
		return fmt.Errorf("%w: %d", ErrInvalidTrial, n)
	}
	if m.progress.State == SequenceFailed {
		return fmt.Errorf("trial sequence already failed")
	}
	if m.progress.Unlocked&bit(n) == 0 {
		return fmt.Errorf("trial %d is not unlocked", n)
	}
	if m.progress.CompletedMask&bit(n) != 0 {
		return fmt.Errorf("trial %d already completed", n)
	}
	if m.progress.FailedMask&bit(n) != 0 {
		return fmt.Errorf("trial %d already failed", n)
	}

	m.progress.CompletedMask |= bit(n)
	m.progress.LastCompletionDay = day
	m.logger.Info("Trial completed", "trial", n, "name", TrialNames[n-1], "day", day)
	m.flags.SetFlag(fmt.Sprintf("trial_%d_completed", n))

	if n < NumTrials {
		m.unlockNext(n)
		return nil
	}

	m.progress.State = SequenceCompleted
	m.progress.JudgmentArmed = true
	m.flags.SetFlag("all_trials_completed")
	m.flags.SetFlag("divine_judgment_available")
	m.logger.Info("All seven trials complete; divine judgment armed")
	return nil
}

func (m *Manager) unlockNext(completed uint32) {
	next := completed + 1
	m.progress.Unlocked |= bit(next)
	m.flags.SetFlag(fmt.Sprintf("trial_%d_unlocked", next))
	m.logger.Info("Trial unlocked", "trial", next, "name", TrialNames[next-1])
}

// OnFailure records trial n as failed. An unrecoverable trial moves the
// whole sequence to Failed; the caller locks the affected ending path.
// Returns whether the failure was unrecoverable.
func (m *Manager) OnFailure(n uint32) (bool, error) {
	if n < 1 || n > NumTrials {
		return false, fmt.Errorf("%w: %d", ErrInvalidTrial, n)
	}
	if m.progress.Unlocked&bit(n) == 0 {
		return false, fmt.Errorf("trial %d is not unlocked", n)
	}
	if m.progress.CompletedMask&bit(n) != 0 {
		return false, fmt.Errorf("trial %d already completed", n)
	}

	m.progress.FailedMask |= bit(n)
	m.flags.SetFlag(fmt.Sprintf("trial_%d_failed", n))
	m.logger.Warn("Trial failed", "trial", n, "name", TrialNames[n-1])

	if unrecoverableTrials[n] {
		m.progress.State = SequenceFailed
		m.logger.Warn("Unrecoverable trial failure; sequence failed", "trial", n)
		return true, nil
	}
	return false, nil
}

func (m *Manager) IsUnlocked(n uint32) bool {
	return n >= 1 && n <= NumTrials && m.progress.Unlocked&bit(n) != 0
}

func (m *Manager) IsCompleted(n uint32) bool {
	return n >= 1 && n <= NumTrials && m.progress.CompletedMask&bit(n) != 0
}

func (m *Manager) IsFailed(n uint32) bool {
	return n >= 1 && n <= NumTrials && m.progress.FailedMask&bit(n) != 0
}

func countBits(mask uint8) int {
	n := 0
	for mask != 0 {
		n += int(mask & 1)
		mask >>= 1
	}
	return n
}

func (m *Manager) CountCompleted() int { return countBits(m.progress.CompletedMask) }

func (m *Manager) CountFailed() int { return countBits(m.progress.FailedMask) }

func (m *Manager) AllCompleted() bool { return m.CountCompleted() == NumTrials }

func (m *Manager) State() SequenceState { return m.progress.State }

func (m *Manager) JudgmentArmed() bool { return m.progress.JudgmentArmed }

// Progress returns a copy of the serialisable progression state.
func (m *Manager) Progress() Progress { return m.progress }

// RestoreProgress replaces the progression state from a saved snapshot.
func (m *Manager) RestoreProgress(p Progress) { m.progress = p }
