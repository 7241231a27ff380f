package hub

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kiryu-dev/battleship/internal/adapters/memory"
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/kiryu-dev/battleship/internal/rules"
	"github.com/kiryu-dev/battleship/internal/usecase/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var start = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	hub   *useCase
	store domain.Store
	clock *atomic.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	clock := atomic.NewTime(start)
	txCounter := atomic.NewUint64(0)
	u := New(game.New(rules.Default(), zap.NewNop()), store, zap.NewNop(),
		WithClock(clock.Load),
		WithTxIDGenerator(func() string {
			return fmt.Sprintf("tx-%d", txCounter.Inc())
		}))
	return fixture{hub: u, store: store, clock: clock}
}

func fleet() []domain.Placement {
	return []domain.Placement{
		{Type: domain.Destroyer, Start: domain.Coord{X: 0, Y: 0}, Horizontal: true},
		{Type: domain.Cruiser, Start: domain.Coord{X: 0, Y: 2}, Horizontal: true},
		{Type: domain.Battleship, Start: domain.Coord{X: 0, Y: 4}, Horizontal: true},
	}
}

func (f fixture) create(t *testing.T, creator string) uint64 {
	t.Helper()
	res, err := f.hub.CreateGame(context.Background(), creator, 85, domain.CreateGamePayload{Ships: fleet()})
	require.NoError(t, err)
	return res.GameID
}

func TestCreateGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.hub.CreateGame(ctx, "alice", 90, domain.CreateGamePayload{Ships: fleet()})
	require.NoError(t, err)
	assert.Equal(t, "tx-1", res.TxID)
	assert.Equal(t, uint64(1), res.GameID)
	assert.Equal(t, domain.Amount(85), res.Charged)
	assert.Equal(t, domain.Amount(85), res.Game.Pot)
	assert.Equal(t, []domain.Payout{
		{TxID: "tx-1", GameID: 1, To: "alice", Amount: 5, Reason: domain.ChangePayout},
	}, res.Payouts)

	assert.Equal(t, uint64(2), f.create(t, "alice"))

	registry, err := f.store.Registry(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), registry.NextID)
	assert.Equal(t, uint64(2), registry.TotalGames)

	stats, err := f.hub.PlayerStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.GamesCreated)
}

func TestRejectedCreateCommitsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.hub.CreateGame(ctx, "alice", 10, domain.CreateGamePayload{Ships: fleet()})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	registry, err := f.store.Registry(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.NewRegistry(), registry)
	stats, err := f.hub.PlayerStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.GamesCreated)
}

func TestShooterStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "alice")

	res, err := f.hub.FireShot(ctx, "bob", 1, domain.FireShotPayload{GameID: id, X: 0, Y: 0})
	require.NoError(t, err)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, domain.Hit, res.Outcome.Result)

	res, err = f.hub.FireShot(ctx, "bob", 2, domain.FireShotPayload{GameID: id, X: 1, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, domain.Sunk, res.Outcome.Result)
	assert.Equal(t, domain.Amount(10), res.Outcome.Reward)
	assert.Equal(t, 2, res.Game.ShipsRemaining)
	assert.Equal(t, domain.Amount(4), res.Game.NextShotCost)

	_, err = f.hub.FireShot(ctx, "bob", 4, domain.FireShotPayload{GameID: id, X: 0, Y: 0})
	assert.ErrorIs(t, err, domain.ErrDuplicateShot)

	stats, err := f.hub.PlayerStats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerStats{
		Address:     "bob",
		ShotsFired:  2,
		ShipsSunk:   1,
		TokensSpent: 3,
		TokensWon:   10,
	}, stats)

	payouts, err := f.store.Payouts(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []domain.Payout{
		{TxID: "tx-3", GameID: id, To: "bob", Amount: 10, Reason: domain.RewardPayout},
	}, payouts)

	shot, err := f.hub.Shot(ctx, id, domain.Coord{X: 1, Y: 0})
	require.NoError(t, err)
	assert.Equal(t, "bob", shot.Shooter)
	assert.Equal(t, domain.Amount(2), shot.Cost)

	_, err = f.hub.Shot(ctx, id, domain.Coord{X: 5, Y: 5})
	assert.ErrorIs(t, err, domain.ErrShotNotFound)
}

func TestMissStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "alice")

	res, err := f.hub.FireShot(ctx, "bob", 1, domain.FireShotPayload{GameID: id, X: 9, Y: 9})
	require.NoError(t, err)
	assert.Equal(t, domain.Miss, res.Outcome.Result)

	stats, err := f.hub.PlayerStats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.ShotsFired)
	assert.Equal(t, uint64(0), stats.ShipsSunk)
	assert.Equal(t, domain.Amount(1), stats.TokensSpent)
	assert.Equal(t, domain.Amount(0), stats.TokensWon)
}

func TestUnknownGame(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.hub.FireShot(ctx, "bob", 1, domain.FireShotPayload{GameID: 42, X: 0, Y: 0})
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
	_, err = f.hub.PeekShots(ctx, "bob", 2, domain.PeekShotsPayload{GameID: 42, NumShots: 1})
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
	_, err = f.hub.ClaimWinnings(ctx, "bob", 0, domain.ClaimWinningsPayload{GameID: 42})
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
	_, err = f.hub.Game(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
	_, err = f.hub.Payouts(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestLocksAreReleased(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "alice")

	for i := uint64(0); i < 1000; i++ {
		_, err := f.hub.FireShot(ctx, "mallory", 1, domain.FireShotPayload{GameID: 100 + i, X: 0, Y: 0})
		require.ErrorIs(t, err, domain.ErrGameNotFound)
	}
	assert.Empty(t, f.hub.locks, "unknown game ids must not leave locks behind")

	group := new(errgroup.Group)
	for i := 0; i < 10; i++ {
		group.Go(func() error {
			_, err := f.hub.PeekShots(ctx, "bob", 2, domain.PeekShotsPayload{GameID: id, NumShots: 1})
			return err
		})
	}
	require.NoError(t, group.Wait())
	_, err := f.hub.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, f.hub.locks)
}

func TestPeekShots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "alice")
	_, err := f.hub.FireShot(ctx, "bob", 1, domain.FireShotPayload{GameID: id, X: 9, Y: 9})
	require.NoError(t, err)

	res, err := f.hub.PeekShots(ctx, "carol", 2, domain.PeekShotsPayload{GameID: id, NumShots: 1})
	require.NoError(t, err)
	require.Len(t, res.Shots, 1)
	assert.Equal(t, domain.Coord{X: 9, Y: 9}, res.Shots[0].Coord)
	assert.Equal(t, domain.Amount(2), res.Charged)

	stats, err := f.hub.PlayerStats(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(2), stats.TokensSpent)
	assert.Equal(t, uint64(0), stats.ShotsFired)

	payouts, err := f.hub.Payouts(ctx, id)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, domain.PeekFeePayout, payouts[0].Reason)
	assert.Equal(t, "alice", payouts[0].To)
}

func TestClaimWinnings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "alice")

	_, err := f.hub.ClaimWinnings(ctx, "alice", 0, domain.ClaimWinningsPayload{GameID: id})
	assert.ErrorIs(t, err, domain.ErrGameStillActive)

	f.clock.Store(start.Add(rules.DefaultTimeLimit))
	_, err = f.hub.FireShot(ctx, "bob", 1, domain.FireShotPayload{GameID: id, X: 0, Y: 0})
	assert.ErrorIs(t, err, domain.ErrNotActive)

	res, err := f.hub.ClaimWinnings(ctx, "alice", 0, domain.ClaimWinningsPayload{GameID: id})
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(85), res.Claimed)
	assert.Equal(t, domain.Abandoned, res.Game.Status)
	assert.True(t, res.Game.Claimed)

	_, err = f.hub.ClaimWinnings(ctx, "alice", 0, domain.ClaimWinningsPayload{GameID: id})
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	stats, err := f.hub.PlayerStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(85), stats.TokensWon)

	stored, err := f.store.Game(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Abandoned, stored.Status)
	assert.Equal(t, domain.Amount(0), stored.Pot)
}

func TestRecentGames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		f.create(t, "alice")
	}

	games, err := f.hub.RecentGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, domain.RecentGamesLimit)
	assert.Equal(t, uint64(3), games[0].ID)
	assert.Equal(t, uint64(12), games[9].ID)

	view, err := f.hub.Game(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Creator)
	assert.Equal(t, domain.Active, view.Status)
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.create(t, "alice")
	}
	f.clock.Store(start.Add(time.Hour))
	f.create(t, "alice")

	report, err := f.hub.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Empty(t, report.Resolved)
	assert.Equal(t, uint64(1), report.OldestActive)

	f.clock.Store(start.Add(rules.DefaultTimeLimit))
	report, err = f.hub.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, report.Resolved)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, uint64(4), report.OldestActive)

	window, err := f.hub.ActiveWindow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, window)

	stored, err := f.store.Game(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.Abandoned, stored.Status)

	registry, err := f.store.Registry(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), registry.NextID)

	f.clock.Store(start.Add(rules.DefaultTimeLimit + time.Hour))
	report, err = f.hub.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, report.Resolved)
	assert.Equal(t, uint64(5), report.OldestActive)

	window, err = f.hub.ActiveWindow(ctx)
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestSweepSkipsClaimedGames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "alice")

	f.clock.Store(start.Add(rules.DefaultTimeLimit))
	_, err := f.hub.ClaimWinnings(ctx, "alice", 0, domain.ClaimWinningsPayload{GameID: id})
	require.NoError(t, err)

	report, err := f.hub.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Resolved, "claim already persisted the status")
	assert.Equal(t, uint64(2), report.OldestActive)

	stored, err := f.store.Game(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.Claimed)
}

func TestConcurrentShots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "alice")

	group := new(errgroup.Group)
	for i := 0; i < 20; i++ {
		c := domain.Coord{X: i % 10, Y: 8 + i/10}
		group.Go(func() error {
			_, err := f.hub.FireShot(ctx, "bob", 1024, domain.FireShotPayload{GameID: id, X: c.X, Y: c.Y})
			return err
		})
	}
	require.NoError(t, group.Wait())

	view, err := f.hub.Game(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 20, view.ShotsFired)

	var spent domain.Amount
	for n := 0; n < 20; n++ {
		spent += rules.EscalatingShotCost(n)
	}
	assert.Equal(t, domain.Amount(85)+spent, view.Pot)

	stats, err := f.hub.PlayerStats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), stats.ShotsFired)
	assert.Equal(t, spent, stats.TokensSpent)
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ids := make([]uint64, 16)
	group := new(errgroup.Group)
	for i := range ids {
		i := i
		group.Go(func() error {
			res, err := f.hub.CreateGame(ctx, fmt.Sprintf("creator-%d", i), 85, domain.CreateGamePayload{Ships: fleet()})
			ids[i] = res.GameID
			return err
		})
	}
	require.NoError(t, group.Wait())

	seen := make(map[uint64]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "id %d allocated twice", id)
		seen[id] = true
	}
	registry, err := f.store.Registry(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(17), registry.NextID)
	assert.Equal(t, uint64(16), registry.TotalGames)
}
