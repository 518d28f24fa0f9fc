package interfaces

import (
	"context"

	"prizedraw/domain/entities"
)

// LotteryRepository persists lottery snapshots
type LotteryRepository interface {
	// Save upserts the complete snapshot atomically
	Save(ctx context.Context, snapshot *entities.LotterySnapshot) error

	// GetByID returns a single snapshot, or nil if it does not exist
	GetByID(ctx context.Context, id entities.LotteryID) (*entities.LotterySnapshot, error)

	// LoadAll returns every persisted snapshot ordered by creation time
	LoadAll(ctx context.Context) ([]*entities.LotterySnapshot, error)
}
