package memory

import (
	"context"
	"sync"

	"github.com/kiryu-dev/battleship/internal/domain"
)

// store keeps everything in maps. Games are cloned on the way in and out so
// callers can never mutate committed state.
type store struct {
	mu       *sync.RWMutex
	games    map[uint64]*domain.Game
	stats    map[string]domain.PlayerStats
	registry domain.Registry
	payouts  map[uint64][]domain.Payout
}

func New() *store {
	return &store{
		mu:       &sync.RWMutex{},
		games:    make(map[uint64]*domain.Game),
		stats:    make(map[string]domain.PlayerStats),
		registry: domain.NewRegistry(),
		payouts:  make(map[uint64][]domain.Payout),
	}
}

func (s *store) Game(_ context.Context, id uint64) (*domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *store) Games(_ context.Context, ids []uint64) ([]*domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]*domain.Game, 0, len(ids))
	for _, id := range ids {
		if game, ok := s.games[id]; ok {
			games = append(games, game.Clone())
		}
	}
	return games, nil
}

func (s *store) PlayerStats(_ context.Context, address string) (domain.PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if stats, ok := s.stats[address]; ok {
		return stats, nil
	}
	return domain.NewPlayerStats(address), nil
}

func (s *store) Registry(_ context.Context) (domain.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry, nil
}

func (s *store) Payouts(_ context.Context, gameID uint64) ([]domain.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Payout(nil), s.payouts[gameID]...), nil
}

func (s *store) Commit(ctx context.Context, batch domain.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, game := range batch.Games {
		s.games[game.ID] = game.Clone()
	}
	for _, stats := range batch.Stats {
		s.stats[stats.Address] = stats
	}
	if batch.Registry != nil {
		s.registry = *batch.Registry
	}
	for _, payout := range batch.Payouts {
		s.payouts[payout.GameID] = append(s.payouts[payout.GameID], payout)
	}
	return nil
}

func (s *store) Close() error {
	return nil
}
