package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestGame() *Game {
	return &Game{
		ID:       1,
		Creator:  "alice",
		GridSize: 10,
		Ships: []Ship{
			NewShip(Placement{Type: Destroyer, Start: Coord{X: 0, Y: 0}, Horizontal: true}),
			NewShip(Placement{Type: Cruiser, Start: Coord{X: 0, Y: 2}, Horizontal: true}),
		},
		Pot:       35,
		CreatedAt: createdAt,
		Status:    Active,
	}
}

func TestGameEffectiveStatus(t *testing.T) {
	limit := 24 * time.Hour
	game := newTestGame()

	assert.Equal(t, Active, game.EffectiveStatus(createdAt.Add(time.Hour), limit))
	assert.Equal(t, Abandoned, game.EffectiveStatus(createdAt.Add(limit), limit))
	assert.Equal(t, Active, game.EffectiveStatus(createdAt.Add(100*limit), 0), "zero limit never expires")

	for i := range game.Ships {
		for _, tile := range game.Ships[i].Tiles {
			game.Ships[i].ApplyHit(tile)
		}
	}
	assert.True(t, game.AllSunk())
	assert.Equal(t, Completed, game.EffectiveStatus(createdAt.Add(limit), limit), "sinking wins over expiry")

	game.Status = Completed
	assert.Equal(t, Completed, game.EffectiveStatus(createdAt.Add(time.Minute), limit))
}

func TestGameShots(t *testing.T) {
	game := newTestGame()
	for i := 0; i < 4; i++ {
		game.Shots = append(game.Shots, Shot{Coord: Coord{X: i, Y: 9}, Shooter: "bob", Cost: Amount(1) << uint(i)})
	}

	recent := game.RecentShots(2)
	require.Len(t, recent, 2)
	assert.Equal(t, Coord{X: 2, Y: 9}, recent[0].Coord)
	assert.Equal(t, Coord{X: 3, Y: 9}, recent[1].Coord)
	assert.Len(t, game.RecentShots(10), 4)
	assert.Nil(t, game.RecentShots(0))

	shot, ok := game.ShotAt(Coord{X: 1, Y: 9})
	require.True(t, ok)
	assert.Equal(t, Amount(2), shot.Cost)
	_, ok = game.ShotAt(Coord{X: 1, Y: 8})
	assert.False(t, ok)
}

func TestGameCloneIsDeep(t *testing.T) {
	game := newTestGame()
	game.Shots = []Shot{{Coord: Coord{X: 9, Y: 9}}}

	cloned := game.Clone()
	cloned.Ships[0].ApplyHit(Coord{X: 0, Y: 0})
	cloned.Shots = append(cloned.Shots, Shot{Coord: Coord{X: 0, Y: 0}})
	cloned.Pot = 0

	assert.False(t, game.Ships[0].Hits[0])
	assert.Len(t, game.Shots, 1)
	assert.Equal(t, Amount(35), game.Pot)
	assert.Equal(t, 2, game.ShipsRemaining())
}

func TestStatusText(t *testing.T) {
	for _, status := range []Status{Active, Completed, Abandoned} {
		text, err := status.MarshalText()
		require.NoError(t, err)
		var decoded Status
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, status, decoded)
	}
	assert.True(t, Completed.Terminal())
	assert.True(t, Abandoned.Terminal())
	assert.False(t, Active.Terminal())

	var status Status
	assert.Error(t, status.UnmarshalText([]byte("paused")))
}

func TestPlayerStatsCounters(t *testing.T) {
	stats := NewPlayerStats("bob")
	stats.RecordGameCreated()
	stats.RecordShot(1)
	stats.RecordShot(2)
	stats.RecordSunk(10)
	stats.RecordSpend(4)
	stats.RecordWinnings(20)

	assert.Equal(t, PlayerStats{
		Address:      "bob",
		GamesCreated: 1,
		ShotsFired:   2,
		ShipsSunk:    1,
		TokensSpent:  7,
		TokensWon:    30,
	}, stats)
}
