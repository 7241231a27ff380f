package domain

import (
	"context"
)

// Batch is every write produced by one command. Stores apply it all or
// nothing.
type Batch struct {
	Games    []*Game
	Stats    []PlayerStats
	Registry *Registry
	Payouts  []Payout
}

func (b Batch) Empty() bool {
	return len(b.Games) == 0 && len(b.Stats) == 0 && b.Registry == nil && len(b.Payouts) == 0
}

type Store interface {
	// Game returns ErrGameNotFound when id was never created.
	Game(ctx context.Context, id uint64) (*Game, error)
	Games(ctx context.Context, ids []uint64) ([]*Game, error)
	// PlayerStats returns zero stats for an unknown address.
	PlayerStats(ctx context.Context, address string) (PlayerStats, error)
	Registry(ctx context.Context) (Registry, error)
	Payouts(ctx context.Context, gameID uint64) ([]Payout, error)
	Commit(ctx context.Context, batch Batch) error
	Close() error
}
