package storage

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"necroshell/pkg/engine"
	"necroshell/pkg/state"
	"necroshell/pkg/trials"
)

func newTestStorage(t *testing.T) *RedisStorage {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisStorage(mr.Addr(), slog.Default())
}

func testSnapshot(id uuid.UUID) *engine.Snapshot {
	world := state.NewWorldState()
	world.Day = 47
	world.CorruptionPct = 13
	return &engine.Snapshot{
		RunID:  id,
		World:  world,
		Flags:  []string{"ashbrook_harvested", "ashbrook_resolved"},
		Events: []engine.EventRecord{{ID: 47, Triggered: true, Completed: true}},
		Trials: trials.Progress{},
	}
}

func TestRedisStorage_SaveAndLoadRun(t *testing.T) {
	rs := newTestStorage(t)
	ctx := context.Background()

	id := uuid.New()
	snap := testSnapshot(id)

	if err := rs.SaveRun(ctx, id, snap); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	loaded, err := rs.LoadRun(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load run: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected non-nil snapshot")
	}
	if loaded.RunID != id {
		t.Errorf("Expected run ID %v, got %v", id, loaded.RunID)
	}
	if loaded.World.Day != 47 {
		t.Errorf("Expected day 47, got %d", loaded.World.Day)
	}
	if len(loaded.Flags) != 2 {
		t.Errorf("Expected 2 flags, got %d", len(loaded.Flags))
	}
	if len(loaded.Events) != 1 || !loaded.Events[0].Triggered {
		t.Errorf("Expected one triggered event record, got %v", loaded.Events)
	}
}

func TestRedisStorage_LoadNonExistentRun(t *testing.T) {
	rs := newTestStorage(t)
	ctx := context.Background()

	loaded, err := rs.LoadRun(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for missing run, got: %v", err)
	}
	if loaded != nil {
		t.Error("Expected nil for missing run")
	}
}

func TestRedisStorage_DeleteRun(t *testing.T) {
	rs := newTestStorage(t)
	ctx := context.Background()

	id := uuid.New()
	if err := rs.SaveRun(ctx, id, testSnapshot(id)); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}
	if err := rs.AppendJournal(ctx, id, "Day 47: Ashbrook"); err != nil {
		t.Fatalf("Failed to append journal: %v", err)
	}

	if err := rs.DeleteRun(ctx, id); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}

	loaded, err := rs.LoadRun(ctx, id)
	if err != nil {
		t.Fatalf("Unexpected error after deletion: %v", err)
	}
	if loaded != nil {
		t.Error("Run should be nil after deletion")
	}

	entries, err := rs.ReadJournal(ctx, id)
	if err != nil {
		t.Fatalf("Unexpected journal error after deletion: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Journal should be empty after deletion, got %d entries", len(entries))
	}
}

func TestRedisStorage_ListRuns(t *testing.T) {
	rs := newTestStorage(t)
	ctx := context.Background()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		if err := rs.SaveRun(ctx, id, testSnapshot(id)); err != nil {
			t.Fatalf("Failed to save run %v: %v", id, err)
		}
	}

	listed, err := rs.ListRuns(ctx)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(listed) != len(ids) {
		t.Errorf("Expected %d runs, got %d", len(ids), len(listed))
	}
}

func TestRedisStorage_Journal(t *testing.T) {
	rs := newTestStorage(t)
	ctx := context.Background()

	id := uuid.New()
	entries := []string{
		"Day 47: The Ashbrook Choice",
		"Day 50: Thessara's Contact",
		"Day 155: The Divine Summons",
	}
	for _, e := range entries {
		if err := rs.AppendJournal(ctx, id, e); err != nil {
			t.Fatalf("Failed to append journal entry: %v", err)
		}
	}

	read, err := rs.ReadJournal(ctx, id)
	if err != nil {
		t.Fatalf("Failed to read journal: %v", err)
	}
	if len(read) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(read))
	}
	for i, e := range entries {
		if read[i] != e {
			t.Errorf("Entry %d: expected %q, got %q", i, e, read[i])
		}
	}

	if err := rs.ClearJournal(ctx, id); err != nil {
		t.Fatalf("Failed to clear journal: %v", err)
	}
	read, err = rs.ReadJournal(ctx, id)
	if err != nil {
		t.Fatalf("Failed to read journal after clear: %v", err)
	}
	if len(read) != 0 {
		t.Errorf("Expected empty journal after clear, got %d entries", len(read))
	}
}

func TestMockStorage_SaveAndLoadRun(t *testing.T) {
	ms := NewMockStorage()
	ctx := context.Background()

	id := uuid.New()
	if err := ms.SaveRun(ctx, id, testSnapshot(id)); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	loaded, err := ms.LoadRun(ctx, id)
	if err != nil || loaded == nil {
		t.Fatalf("Failed to load run: %v", err)
	}
	if loaded.RunID != id {
		t.Errorf("Expected run ID %v, got %v", id, loaded.RunID)
	}

	missing, err := ms.LoadRun(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Expected no error for missing run, got: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing run")
	}

	if err := ms.SaveRun(ctx, id, nil); err == nil {
		t.Error("Expected error saving nil snapshot")
	}
}
