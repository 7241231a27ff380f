package domain

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipTypeCatalog(t *testing.T) {
	tests := []struct {
		shipType ShipType
		name     string
		length   int
		reward   Amount
	}{
		{Destroyer, "destroyer", 2, 10},
		{Cruiser, "cruiser", 3, 25},
		{Battleship, "battleship", 4, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.shipType.Valid())
			assert.Equal(t, tt.name, tt.shipType.String())
			assert.Equal(t, tt.length, tt.shipType.Length())
			assert.Equal(t, tt.reward, tt.shipType.Reward())
		})
	}
	assert.False(t, ShipType(0).Valid())
	assert.False(t, ShipType(9).Valid())
}

func TestShipTypeText(t *testing.T) {
	data, err := jsoniter.Marshal(Placement{Type: Cruiser, Start: Coord{X: 1, Y: 2}, Horizontal: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"cruiser","start":{"x":1,"y":2},"horizontal":true}`, string(data))

	var p Placement
	require.NoError(t, jsoniter.Unmarshal(data, &p))
	assert.Equal(t, Cruiser, p.Type)

	var unknown ShipType
	err = unknown.UnmarshalText([]byte("submarine"))
	assert.ErrorIs(t, err, ErrUnknownShipType)
}

func TestPlacementTiles(t *testing.T) {
	horizontal := Placement{Type: Cruiser, Start: Coord{X: 2, Y: 5}, Horizontal: true}
	assert.Equal(t, []Coord{{2, 5}, {3, 5}, {4, 5}}, horizontal.Tiles())
	assert.Equal(t, Coord{X: 4, Y: 5}, horizontal.End())

	vertical := Placement{Type: Destroyer, Start: Coord{X: 7, Y: 8}}
	assert.Equal(t, []Coord{{7, 8}, {7, 9}}, vertical.Tiles())
	assert.Equal(t, Coord{X: 7, Y: 9}, vertical.End())
}

func TestShipApplyHit(t *testing.T) {
	ship := NewShip(Placement{Type: Destroyer, Start: Coord{X: 0, Y: 0}, Horizontal: true})
	require.Len(t, ship.Hits, 2)

	assert.True(t, ship.Occupies(Coord{X: 1, Y: 0}))
	assert.False(t, ship.Occupies(Coord{X: 0, Y: 1}))

	assert.Equal(t, HitNoEffect, ship.ApplyHit(Coord{X: 5, Y: 5}))
	assert.Equal(t, HitLanded, ship.ApplyHit(Coord{X: 0, Y: 0}))
	assert.Equal(t, HitNoEffect, ship.ApplyHit(Coord{X: 0, Y: 0}), "same tile twice")
	assert.False(t, ship.Sunk)

	assert.Equal(t, HitSunk, ship.ApplyHit(Coord{X: 1, Y: 0}))
	assert.True(t, ship.Sunk)
	assert.Equal(t, HitNoEffect, ship.ApplyHit(Coord{X: 1, Y: 0}), "already sunk")
	assert.Equal(t, Amount(10), ship.Reward())
}

func TestShipCloneIsDeep(t *testing.T) {
	ship := NewShip(Placement{Type: Destroyer, Start: Coord{X: 0, Y: 0}, Horizontal: true})
	cloned := ship.clone()
	cloned.ApplyHit(Coord{X: 0, Y: 0})
	assert.False(t, ship.Hits[0])
	assert.True(t, cloned.Hits[0])
}
