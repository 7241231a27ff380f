package hub

import (
	"context"

	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/pkg/errors"
)

// ledger collects the player stats touched by one command, one record per
// address in first-touch order.
type ledger struct {
	ctx     context.Context
	store   domain.Store
	order   []string
	updated map[string]*domain.PlayerStats
}

func newLedger(ctx context.Context, store domain.Store) *ledger {
	return &ledger{
		ctx:     ctx,
		store:   store,
		updated: make(map[string]*domain.PlayerStats),
	}
}

func (l *ledger) update(address string, apply func(s *domain.PlayerStats)) error {
	stats, ok := l.updated[address]
	if !ok {
		loaded, err := l.store.PlayerStats(l.ctx, address)
		if err != nil {
			return errors.WithMessagef(err, "load stats of '%s'", address)
		}
		loaded.Address = address
		stats = &loaded
		l.updated[address] = stats
		l.order = append(l.order, address)
	}
	apply(stats)
	return nil
}

func (l *ledger) stats() []domain.PlayerStats {
	out := make([]domain.PlayerStats, 0, len(l.order))
	for _, address := range l.order {
		out = append(out, *l.updated[address])
	}
	return out
}
