package hub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// useCase serializes commands the way a chain host would. Each game has its
// own lock; registry and player stats are read and committed under commitMu.
// Lock order is always game lock first, then commitMu.
type useCase struct {
	game     domain.GameUseCase
	store    domain.Store
	now      func() time.Time
	newTxID  func() string
	locks    map[uint64]*gameLock
	locksMu  *sync.Mutex
	commitMu *sync.Mutex
	logger   *zap.Logger
}

// gameLock lives in useCase.locks only while some command holds or waits
// for it.
type gameLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(u *useCase)

func WithClock(now func() time.Time) Option {
	return func(u *useCase) {
		u.now = now
	}
}

func WithTxIDGenerator(newTxID func() string) Option {
	return func(u *useCase) {
		u.newTxID = newTxID
	}
}

func New(game domain.GameUseCase, store domain.Store, logger *zap.Logger, opts ...Option) *useCase {
	u := &useCase{
		game:     game,
		store:    store,
		now:      time.Now,
		newTxID:  uuid.NewString,
		locks:    make(map[uint64]*gameLock),
		locksMu:  &sync.Mutex{},
		commitMu: &sync.Mutex{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *useCase) CreateGame(ctx context.Context, caller string, funds domain.Amount,
	p domain.CreateGamePayload) (domain.CommandResult, error) {
	now := u.now()
	u.commitMu.Lock()
	defer u.commitMu.Unlock()
	registry, err := u.store.Registry(ctx)
	if err != nil {
		return domain.CommandResult{}, errors.WithMessage(err, "load registry")
	}
	id := registry.Allocate()
	game, effects, err := u.game.Create(domain.CreateGameRequest{
		ID:       id,
		Creator:  caller,
		EntryFee: p.EntryFee,
		Ships:    p.Ships,
		Funds:    funds,
		Now:      now,
	})
	if err != nil {
		return domain.CommandResult{}, errors.WithMessage(err, "create game")
	}
	ledger := newLedger(ctx, u.store)
	if err := ledger.update(caller, func(s *domain.PlayerStats) { s.RecordGameCreated() }); err != nil {
		return domain.CommandResult{}, err
	}
	txID := u.newTxID()
	effects.Stamp(txID)
	batch := domain.Batch{
		Games:    []*domain.Game{game},
		Stats:    ledger.stats(),
		Registry: &registry,
		Payouts:  effects.Payouts,
	}
	if err := u.store.Commit(ctx, batch); err != nil {
		return domain.CommandResult{}, errors.WithMessage(err, "commit created game")
	}
	u.logger.Info("game created",
		zap.String("tx_id", txID),
		zap.Uint64("game_id", game.ID),
		zap.String("creator", caller),
		zap.Uint64("pot", uint64(game.Pot)))
	return u.result(txID, game, effects, now), nil
}

func (u *useCase) FireShot(ctx context.Context, caller string, funds domain.Amount,
	p domain.FireShotPayload) (domain.CommandResult, error) {
	unlock := u.lockGame(p.GameID)
	defer unlock()
	game, err := u.lookup(ctx, p.GameID)
	if err != nil {
		return domain.CommandResult{}, err
	}
	now := u.now()
	next, outcome, effects, err := u.game.FireShot(game, domain.FireShotRequest{
		Coord:   domain.Coord{X: p.X, Y: p.Y},
		Shooter: caller,
		Funds:   funds,
		Now:     now,
	})
	if err != nil {
		return domain.CommandResult{}, errors.WithMessagef(err, "fire shot at game %d", p.GameID)
	}

	u.commitMu.Lock()
	defer u.commitMu.Unlock()
	ledger := newLedger(ctx, u.store)
	err = ledger.update(caller, func(s *domain.PlayerStats) {
		s.RecordShot(effects.Charged)
		if outcome.Result == domain.Sunk {
			s.RecordSunk(outcome.Reward)
		}
	})
	if err != nil {
		return domain.CommandResult{}, err
	}
	txID := u.newTxID()
	effects.Stamp(txID)
	batch := domain.Batch{
		Games:   []*domain.Game{next},
		Stats:   ledger.stats(),
		Payouts: effects.Payouts,
	}
	if err := u.store.Commit(ctx, batch); err != nil {
		return domain.CommandResult{}, errors.WithMessage(err, "commit shot")
	}
	u.logger.Info("shot fired",
		zap.String("tx_id", txID),
		zap.Uint64("game_id", next.ID),
		zap.String("shooter", caller),
		zap.Int("x", p.X),
		zap.Int("y", p.Y),
		zap.Stringer("result", outcome.Result),
		zap.Uint64("cost", uint64(effects.Charged)))
	res := u.result(txID, next, effects, now)
	res.Outcome = &outcome
	return res, nil
}

func (u *useCase) PeekShots(ctx context.Context, caller string, funds domain.Amount,
	p domain.PeekShotsPayload) (domain.CommandResult, error) {
	unlock := u.lockGame(p.GameID)
	defer unlock()
	game, err := u.lookup(ctx, p.GameID)
	if err != nil {
		return domain.CommandResult{}, err
	}
	shots, effects, err := u.game.Peek(game, domain.PeekRequest{
		Caller:   caller,
		NumShots: p.NumShots,
		Funds:    funds,
	})
	if err != nil {
		return domain.CommandResult{}, errors.WithMessagef(err, "peek at game %d", p.GameID)
	}

	u.commitMu.Lock()
	defer u.commitMu.Unlock()
	ledger := newLedger(ctx, u.store)
	if err := ledger.update(caller, func(s *domain.PlayerStats) { s.RecordSpend(effects.Charged) }); err != nil {
		return domain.CommandResult{}, err
	}
	txID := u.newTxID()
	effects.Stamp(txID)
	if err := u.store.Commit(ctx, domain.Batch{Stats: ledger.stats(), Payouts: effects.Payouts}); err != nil {
		return domain.CommandResult{}, errors.WithMessage(err, "commit peek")
	}
	u.logger.Info("shots peeked",
		zap.String("tx_id", txID),
		zap.Uint64("game_id", game.ID),
		zap.String("caller", caller),
		zap.Int("num_shots", p.NumShots))
	res := u.result(txID, game, effects, u.now())
	res.Shots = shots
	return res, nil
}

func (u *useCase) ClaimWinnings(ctx context.Context, caller string, funds domain.Amount,
	p domain.ClaimWinningsPayload) (domain.CommandResult, error) {
	unlock := u.lockGame(p.GameID)
	defer unlock()
	game, err := u.lookup(ctx, p.GameID)
	if err != nil {
		return domain.CommandResult{}, err
	}
	now := u.now()
	next, effects, err := u.game.ClaimWinnings(game, domain.ClaimRequest{
		Claimant: caller,
		Funds:    funds,
		Now:      now,
	})
	if err != nil {
		return domain.CommandResult{}, errors.WithMessagef(err, "claim winnings of game %d", p.GameID)
	}

	u.commitMu.Lock()
	defer u.commitMu.Unlock()
	ledger := newLedger(ctx, u.store)
	if err := ledger.update(caller, func(s *domain.PlayerStats) { s.RecordWinnings(next.ClaimedAmount) }); err != nil {
		return domain.CommandResult{}, err
	}
	txID := u.newTxID()
	effects.Stamp(txID)
	batch := domain.Batch{
		Games:   []*domain.Game{next},
		Stats:   ledger.stats(),
		Payouts: effects.Payouts,
	}
	if err := u.store.Commit(ctx, batch); err != nil {
		return domain.CommandResult{}, errors.WithMessage(err, "commit claim")
	}
	res := u.result(txID, next, effects, now)
	res.Claimed = next.ClaimedAmount
	return res, nil
}

// SweepExpired walks games from the cursor and persists every lazily
// resolved status. It stops at the first game that is still active, so a
// call costs as many reads as there are newly resolved games plus one.
func (u *useCase) SweepExpired(ctx context.Context) (domain.SweepReport, error) {
	registry, err := u.registry(ctx)
	if err != nil {
		return domain.SweepReport{}, err
	}
	report := domain.SweepReport{OldestActive: registry.OldestActive}
	cursor := registry.OldestActive
	for id := registry.OldestActive; id < registry.NextID; id++ {
		resolved, changed, err := u.expire(ctx, id)
		if err != nil {
			return report, err
		}
		report.Scanned++
		if !resolved {
			break
		}
		if changed {
			report.Resolved = append(report.Resolved, id)
		}
		cursor = id + 1
	}
	if cursor == registry.OldestActive {
		return report, nil
	}

	u.commitMu.Lock()
	defer u.commitMu.Unlock()
	fresh, err := u.store.Registry(ctx)
	if err != nil {
		return report, errors.WithMessage(err, "reload registry")
	}
	fresh.Advance(cursor)
	if err := u.store.Commit(ctx, domain.Batch{Registry: &fresh}); err != nil {
		return report, errors.WithMessage(err, "commit sweep cursor")
	}
	report.OldestActive = fresh.OldestActive
	u.logger.Info("swept expired games",
		zap.Int("scanned", report.Scanned),
		zap.Int("resolved", len(report.Resolved)),
		zap.Uint64("oldest_active", report.OldestActive))
	return report, nil
}

// expire reports whether game id is resolved and whether this call is the
// one that persisted the transition.
func (u *useCase) expire(ctx context.Context, id uint64) (bool, bool, error) {
	unlock := u.lockGame(id)
	defer unlock()
	game, err := u.lookup(ctx, id)
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		/* ids are never reused, a hole can only be skipped */
		return true, false, nil
	case err != nil:
		return false, false, err
	}
	next, changed := u.game.Expire(game, u.now())
	if next.Status == domain.Active {
		return false, false, nil
	}
	if !changed {
		return true, false, nil
	}
	u.commitMu.Lock()
	defer u.commitMu.Unlock()
	if err := u.store.Commit(ctx, domain.Batch{Games: []*domain.Game{next}}); err != nil {
		return false, false, errors.WithMessagef(err, "commit expired game %d", id)
	}
	u.logger.Info("game resolved by sweep", zap.Uint64("game_id", id), zap.Stringer("status", next.Status))
	return true, true, nil
}

func (u *useCase) Game(ctx context.Context, id uint64) (domain.GameView, error) {
	game, err := u.lookup(ctx, id)
	if err != nil {
		return domain.GameView{}, err
	}
	return u.game.View(game, u.now()), nil
}

func (u *useCase) RecentGames(ctx context.Context) ([]domain.GameView, error) {
	registry, err := u.registry(ctx)
	if err != nil {
		return nil, err
	}
	games, err := u.store.Games(ctx, registry.RecentIDs(domain.RecentGamesLimit))
	if err != nil {
		return nil, errors.WithMessage(err, "load recent games")
	}
	now := u.now()
	views := make([]domain.GameView, 0, len(games))
	for _, game := range games {
		views = append(views, u.game.View(game, now))
	}
	return views, nil
}

func (u *useCase) ActiveWindow(ctx context.Context) ([]uint64, error) {
	registry, err := u.registry(ctx)
	if err != nil {
		return nil, err
	}
	return registry.ActiveWindow(), nil
}

func (u *useCase) Shot(ctx context.Context, id uint64, c domain.Coord) (domain.Shot, error) {
	game, err := u.lookup(ctx, id)
	if err != nil {
		return domain.Shot{}, err
	}
	shot, ok := game.ShotAt(c)
	if !ok {
		return domain.Shot{}, errors.WithMessagef(domain.ErrShotNotFound, "game %d at %s", id, c)
	}
	return shot, nil
}

// Payouts lists the transfers the host still has to execute for game id,
// in commit order.
func (u *useCase) Payouts(ctx context.Context, id uint64) ([]domain.Payout, error) {
	if _, err := u.lookup(ctx, id); err != nil {
		return nil, err
	}
	payouts, err := u.store.Payouts(ctx, id)
	if err != nil {
		return nil, errors.WithMessagef(err, "load payouts of game %d", id)
	}
	if payouts == nil {
		payouts = []domain.Payout{}
	}
	return payouts, nil
}

func (u *useCase) PlayerStats(ctx context.Context, address string) (domain.PlayerStats, error) {
	stats, err := u.store.PlayerStats(ctx, address)
	if err != nil {
		return domain.PlayerStats{}, errors.WithMessagef(err, "load stats of '%s'", address)
	}
	return stats, nil
}

// lookup is the only way command handlers fetch a game.
func (u *useCase) lookup(ctx context.Context, id uint64) (*domain.Game, error) {
	game, err := u.store.Game(ctx, id)
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		return nil, errors.WithMessagef(domain.ErrGameNotFound, "game %d", id)
	case err != nil:
		return nil, errors.WithMessagef(err, "load game %d", id)
	}
	return game, nil
}

func (u *useCase) registry(ctx context.Context) (domain.Registry, error) {
	registry, err := u.store.Registry(ctx)
	if err != nil {
		return domain.Registry{}, errors.WithMessage(err, "load registry")
	}
	return registry, nil
}

func (u *useCase) lockGame(id uint64) func() {
	u.locksMu.Lock()
	lock, ok := u.locks[id]
	if !ok {
		lock = &gameLock{}
		u.locks[id] = lock
	}
	lock.refs++
	u.locksMu.Unlock()
	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		u.locksMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(u.locks, id)
		}
		u.locksMu.Unlock()
	}
}

func (u *useCase) result(txID string, game *domain.Game, effects domain.CommandEffects,
	now time.Time) domain.CommandResult {
	return domain.CommandResult{
		TxID:    txID,
		GameID:  game.ID,
		Charged: effects.Charged,
		Game:    u.game.View(game, now),
		Payouts: effects.Payouts,
	}
}
