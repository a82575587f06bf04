package storage

import (
	"context"

	"github.com/google/uuid"

	"necroshell/pkg/engine"
)

// Storage persists run snapshots and the per-run story journal.
// LoadRun returns (nil, nil) when the run does not exist.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveRun(ctx context.Context, id uuid.UUID, snap *engine.Snapshot) error
	LoadRun(ctx context.Context, id uuid.UUID) (*engine.Snapshot, error)
	DeleteRun(ctx context.Context, id uuid.UUID) error
	ListRuns(ctx context.Context) ([]uuid.UUID, error)

	AppendJournal(ctx context.Context, id uuid.UUID, entry string) error
	ReadJournal(ctx context.Context, id uuid.UUID) ([]string, error)
	ClearJournal(ctx context.Context, id uuid.UUID) error
}
