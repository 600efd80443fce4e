package storage

import (
	"context"

	"rebias/internal/model"
)

// Store persists bias checkpoints outside the hot path. Implementations
// are safe for concurrent use; the potential never touches a store.
type Store interface {
	Init(ctx context.Context) error
	SaveCheckpoint(ctx context.Context, checkpoint model.BiasCheckpoint) error
	GetCheckpoint(ctx context.Context, runID string, windowIndex int) (model.BiasCheckpoint, bool, error)
	LatestCheckpoint(ctx context.Context, runID string) (model.BiasCheckpoint, bool, error)
}
