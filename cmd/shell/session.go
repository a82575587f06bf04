package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"necroshell/internal/storage"
	"necroshell/pkg/endings"
	"necroshell/pkg/engine"
	"necroshell/pkg/state"
	"necroshell/pkg/story"
	"necroshell/pkg/trials"
	"necroshell/pkg/ui"
)

// session wraps one engine run with its persistence. It is the
// command-execution layer; the bubbletea model renders what it returns.
type session struct {
	eng    *engine.Engine
	world  *state.WorldState
	store  storage.Storage
	port   *transcriptPort
	logger *slog.Logger
}

// transcriptPort buffers narrative scenes so the shell can drain them
// into the viewport after each command. Prompts report non-interactive;
// choices are made with explicit commands instead.
type transcriptPort struct {
	pending []ui.ScenePresentation
}

func (p *transcriptPort) PresentScene(title string, paragraphs []string, style ui.SceneStyle) {
	p.pending = append(p.pending, ui.ScenePresentation{
		Title:      title,
		Paragraphs: paragraphs,
		Style:      style,
	})
}

func (p *transcriptPort) PromptChoice(title, description string, choices []string) (int, bool) {
	return 0, false
}

func (p *transcriptPort) drain() []ui.ScenePresentation {
	scenes := p.pending
	p.pending = nil
	return scenes
}

func newSession(store storage.Storage, logger *slog.Logger) (*session, error) {
	world := state.NewWorldState()
	port := &transcriptPort{}
	eng := engine.New(world, port, logger)
	if err := eng.RegisterStoryEvents(); err != nil {
		return nil, err
	}
	return &session{
		eng:    eng,
		world:  world,
		store:  store,
		port:   port,
		logger: logger,
	}, nil
}

// commandResult is what one shell command produced: output text for the
// transcript plus any scenes the engine presented along the way.
type commandResult struct {
	output string
	scenes []ui.ScenePresentation
	quit   bool
}

func (s *session) execute(input string) commandResult {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return commandResult{}
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	var out string
	var err error

	switch cmd {
	case "help":
		out = helpText
	case "advance":
		out, err = s.cmdAdvance(args)
	case "status":
		out = s.cmdStatus()
	case "harvest":
		err = s.eng.HarvestVillage()
	case "spare":
		err = s.eng.SpareVillage()
	case "talk":
		out, err = s.cmdTalk()
	case "accept":
		err = s.eng.AcceptGuidance()
	case "reject":
		err = s.eng.RejectGuidance()
	case "invoke":
		err = s.eng.AcknowledgeSummons()
	case "trial":
		out, err = s.cmdTrial(args)
	case "fail":
		out, err = s.cmdFail(args)
	case "ending":
		out, err = s.cmdEnding(args)
	case "endings":
		out = s.cmdEndings()
	case "flags":
		out = s.cmdFlags()
	case "events":
		out = s.cmdEvents()
	case "corrupt":
		out, err = s.cmdCorrupt(args)
	case "goto":
		out, err = s.cmdGoto(args)
	case "save":
		out, err = s.cmdSave()
	case "load":
		out, err = s.cmdLoad(args)
	case "delete":
		out, err = s.cmdDelete(args)
	case "log":
		out, err = s.cmdLog(args)
	case "quit", "exit":
		return commandResult{quit: true}
	default:
		out = fmt.Sprintf("Unknown command %q. Type help for the command list.", cmd)
	}

	if err != nil {
		out = "Error: " + err.Error()
	}
	return commandResult{output: out, scenes: s.port.drain()}
}

func (s *session) cmdAdvance(args []string) (string, error) {
	hours := uint32(24)
	if len(args) > 0 {
		n, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil || n == 0 {
			return "", fmt.Errorf("advance takes a positive number of hours")
		}
		hours = uint32(n)
	}
	before := s.world.DayCount()
	if err := s.eng.AdvanceTime(hours); err != nil {
		return "", err
	}
	after := s.world.DayCount()
	if after == before {
		return fmt.Sprintf("Time passes. Still day %d.", after), nil
	}
	return fmt.Sprintf("Day %d.", after), nil
}

func (s *session) cmdStatus() string {
	st := s.eng.QueryStatus()
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", st.RunID.String()[:8])
	fmt.Fprintf(&b, "Day %d | Corruption %d%% | Stability %.0f%%\n",
		st.Day, st.Corruption, s.world.ConsciousnessStability())
	fmt.Fprintf(&b, "Souls harvested: %d | Soul energy: %d | Alliances: %d\n",
		s.world.TotalSoulsHarvested(), s.world.SoulEnergy, s.world.FullAlliances())
	fmt.Fprintf(&b, "Events: %d fired, %d pending\n", st.TriggeredEvents, st.PendingEvents)

	p := st.TrialProgress
	fmt.Fprintf(&b, "Trials: %s", p.State.String())
	if p.State != trials.SequenceInactive {
		done := 0
		for n := uint32(1); n <= trials.NumTrials; n++ {
			if s.eng.Trials().IsCompleted(n) {
				done++
			}
		}
		fmt.Fprintf(&b, " (%d/%d complete)", done, trials.NumTrials)
	}
	b.WriteString("\n")

	if st.GameEnded {
		fmt.Fprintf(&b, "THE RUN IS OVER: %s on day %d\n", st.Ending.String(), st.EndingDay)
	}
	return b.String()
}

func (s *session) cmdTalk() (string, error) {
	if !s.eng.HasFlag("thessara_contacted") {
		return "No one answers. The network is quiet.", nil
	}
	// The first talk is the null-space conversation that reveals the
	// paths; after that it reports where the relationship stands.
	if !s.eng.HasFlag("thessara_paths_revealed") {
		if err := s.eng.ConverseWithThessara(); err != nil {
			return "", err
		}
		return "", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Thessara | trust %d\n", s.eng.ThessaraTrust())
	switch {
	case s.eng.HasFlag("thessara_guidance_accepted"):
		b.WriteString("She walks the road with you. The seven paths are marked on your map.")
	case s.eng.HasFlag("thessara_guidance_rejected"):
		b.WriteString("You refused her guidance. She watches from a distance, saying nothing.")
	default:
		b.WriteString("Her offer stands. accept or reject it.")
	}
	return b.String(), nil
}

func (s *session) cmdTrial(args []string) (string, error) {
	n, err := parseTrialNumber(args)
	if err != nil {
		return "", err
	}
	if err := s.eng.MarkTrialCompleted(n); err != nil {
		return "", err
	}
	return fmt.Sprintf("The %s is complete.", trials.TrialNames[n-1]), nil
}

func (s *session) cmdFail(args []string) (string, error) {
	n, err := parseTrialNumber(args)
	if err != nil {
		return "", err
	}
	if err := s.eng.MarkTrialFailed(n); err != nil {
		return "", err
	}
	return fmt.Sprintf("The %s is failed.", trials.TrialNames[n-1]), nil
}

func parseTrialNumber(args []string) (uint32, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("which trial? (1-%d)", trials.NumTrials)
	}
	n, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil || n < 1 || n > trials.NumTrials {
		return 0, fmt.Errorf("trial number must be 1-%d", trials.NumTrials)
	}
	return uint32(n), nil
}

func (s *session) cmdEnding(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("which ending? Type endings to list them.")
	}
	kind, ok := endings.ParseKind(strings.ToLower(args[0]))
	if !ok {
		return "", fmt.Errorf("unknown ending %q", args[0])
	}
	if err := s.eng.TryTriggerEnding(kind); err != nil {
		return "", err
	}
	ending, err := s.eng.Endings().Get(kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n\n%s", ending.Name, ending.Epilogue), nil
}

func (s *session) cmdEndings() string {
	var b strings.Builder
	b.WriteString("The seven paths:\n")
	for _, kind := range endings.Kinds() {
		ending, err := s.eng.Endings().Get(kind)
		if err != nil {
			continue
		}
		marker := " "
		note := ""
		switch {
		case !s.eng.Endings().IsAvailable(kind):
			marker = "x"
			note = " (locked: " + s.eng.Endings().LockReason(kind) + ")"
		case s.eng.Endings().Check(kind, s.world):
			marker = "*"
			note = " (within reach)"
		}
		fmt.Fprintf(&b, " [%s] %-12s %s%s\n", marker, kind.String(), ending.Description, note)
	}
	return b.String()
}

func (s *session) cmdFlags() string {
	names := s.eng.Scheduler().Flags().Names()
	if len(names) == 0 {
		return "No story flags set."
	}
	return fmt.Sprintf("Story flags (%d):\n  %s", len(names), strings.Join(names, "\n  "))
}

func (s *session) cmdEvents() string {
	all := s.eng.Scheduler().All()
	sorted := make([]*story.ScheduledEvent, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var b strings.Builder
	b.WriteString("Scheduled events:\n")
	for _, ev := range sorted {
		status := "pending"
		if ev.Completed {
			status = "completed"
		} else if ev.Triggered {
			status = "triggered"
		}
		fmt.Fprintf(&b, "  %3d  %-24s %s\n", ev.ID, ev.Name, status)
	}
	return b.String()
}

func (s *session) cmdCorrupt(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("corrupt takes a delta, e.g. corrupt +10")
	}
	delta, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("corrupt takes a signed number")
	}
	if err := s.eng.ApplyCorruptionChange(delta); err != nil {
		return "", err
	}
	return fmt.Sprintf("Corruption is now %d%%.", s.world.Corruption()), nil
}

func (s *session) cmdGoto(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("goto takes a location id")
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return "", fmt.Errorf("location id must be a number")
	}
	if err := s.eng.EnterLocation(uint32(id)); err != nil {
		return "", err
	}
	return fmt.Sprintf("You travel to location %d.", id), nil
}

func (s *session) cmdSave() (string, error) {
	if s.store == nil {
		return "", errors.New("no storage configured; saves are disabled")
	}
	snap, err := s.eng.Snapshot()
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveRun(ctx, s.eng.RunID(), snap); err != nil {
		return "", err
	}
	return fmt.Sprintf("Run saved as %s.", s.eng.RunID()), nil
}

func (s *session) cmdLoad(args []string) (string, error) {
	if s.store == nil {
		return "", errors.New("no storage configured; saves are disabled")
	}
	if len(args) == 0 {
		return s.cmdListRuns()
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid run id: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.store.LoadRun(ctx, id)
	if err != nil {
		return "", err
	}
	if snap == nil {
		return "", fmt.Errorf("no saved run with id %s", id)
	}

	// Restore into a fresh engine so stale flags and event state from the
	// current run cannot leak in.
	fresh, err := newSession(s.store, s.logger)
	if err != nil {
		return "", err
	}
	if err := fresh.eng.Restore(snap); err != nil {
		return "", err
	}
	s.eng = fresh.eng
	s.world = fresh.world
	s.port = fresh.port
	return fmt.Sprintf("Run %s restored. Day %d.", id, s.world.DayCount()), nil
}

func (s *session) cmdListRuns() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ids, err := s.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "No saved runs.", nil
	}
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = id.String()
	}
	sort.Strings(lines)
	return "Saved runs:\n  " + strings.Join(lines, "\n  "), nil
}

func (s *session) cmdDelete(args []string) (string, error) {
	if s.store == nil {
		return "", errors.New("no storage configured; saves are disabled")
	}
	if len(args) == 0 {
		return "", fmt.Errorf("delete takes a run id")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid run id: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.DeleteRun(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Run %s deleted.", id), nil
}

func (s *session) cmdLog(args []string) (string, error) {
	if s.store == nil {
		return "", errors.New("no storage configured; the journal is disabled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if len(args) > 0 && args[0] == "clear" {
		if err := s.store.ClearJournal(ctx, s.eng.RunID()); err != nil {
			return "", err
		}
		return "The journal is cleared.", nil
	}
	entries, err := s.store.ReadJournal(ctx, s.eng.RunID())
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "The journal is empty.", nil
	}
	return "Journal:\n  " + strings.Join(entries, "\n  "), nil
}

// journalScene records a narrative beat in the persistent journal.
// Failures are logged, not surfaced; the journal is best-effort.
func (s *session) journalScene(scene ui.ScenePresentation) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entry := fmt.Sprintf("Day %d: %s", s.world.DayCount(), scene.Title)
	if err := s.store.AppendJournal(ctx, s.eng.RunID(), entry); err != nil {
		s.logger.Warn("Failed to append journal entry", "error", err)
	}
}

const helpText = `Commands:
  advance [hours]  Let time pass (default 24 hours)
  status           Show the state of the run
  harvest          Resolve the Ashbrook choice by harvesting
  spare            Resolve the Ashbrook choice by sparing
  talk             Meet Thessara in the null space
  accept | reject  Answer Thessara's offer
  invoke           Acknowledge the divine summons
  trial <n>        Complete trial n
  fail <n>         Fail trial n
  endings          List the seven paths
  ending <name>    Attempt an ending
  flags            List story flags
  events           List scheduled events
  corrupt <delta>  Adjust corruption
  goto <id>        Travel to a location
  save | load <id> Persist or restore the run (load alone lists saves)
  delete <id>      Delete a saved run
  log [clear]      Show or clear the story journal
  quit             Leave the shell`
