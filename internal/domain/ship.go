package domain

import (
	"strconv"

	"github.com/pkg/errors"
)

type Amount uint64

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return "(" + strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y) + ")"
}

type ShipType byte

const (
	Destroyer = ShipType(iota + 1)
	Cruiser
	Battleship
)

type shipSpec struct {
	name   string
	length int
	reward Amount
}

var shipSpecs = map[ShipType]shipSpec{
	Destroyer:  {name: "destroyer", length: 2, reward: 10},
	Cruiser:    {name: "cruiser", length: 3, reward: 25},
	Battleship: {name: "battleship", length: 4, reward: 50},
}

func (t ShipType) Valid() bool {
	_, ok := shipSpecs[t]
	return ok
}

func (t ShipType) Length() int {
	return shipSpecs[t].length
}

func (t ShipType) Reward() Amount {
	return shipSpecs[t].reward
}

func (t ShipType) String() string {
	if spec, ok := shipSpecs[t]; ok {
		return spec.name
	}
	return "unknown"
}

func (t ShipType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrUnknownShipType
	}
	return []byte(t.String()), nil
}

func (t *ShipType) UnmarshalText(text []byte) error {
	for shipType, spec := range shipSpecs {
		if spec.name == string(text) {
			*t = shipType
			return nil
		}
	}
	return errors.WithMessagef(ErrUnknownShipType, "ship type %q", string(text))
}

// Placement is a ship as requested by the creator, before validation.
type Placement struct {
	Type       ShipType `json:"type"`
	Start      Coord    `json:"start"`
	Horizontal bool     `json:"horizontal"`
}

func (p Placement) End() Coord {
	length := p.Type.Length()
	if p.Horizontal {
		return Coord{X: p.Start.X + length - 1, Y: p.Start.Y}
	}
	return Coord{X: p.Start.X, Y: p.Start.Y + length - 1}
}

func (p Placement) Tiles() []Coord {
	tiles := make([]Coord, 0, p.Type.Length())
	for i := 0; i < p.Type.Length(); i++ {
		if p.Horizontal {
			tiles = append(tiles, Coord{X: p.Start.X + i, Y: p.Start.Y})
		} else {
			tiles = append(tiles, Coord{X: p.Start.X, Y: p.Start.Y + i})
		}
	}
	return tiles
}

type HitOutcome byte

const (
	HitNoEffect = HitOutcome(iota)
	HitLanded
	HitSunk
)

// Ship tiles never change once placed; Hits is parallel to Tiles.
type Ship struct {
	Type       ShipType `json:"type"`
	Start      Coord    `json:"start"`
	Horizontal bool     `json:"horizontal"`
	Tiles      []Coord  `json:"tiles"`
	Hits       []bool   `json:"hits"`
	Sunk       bool     `json:"sunk"`
}

func NewShip(p Placement) Ship {
	tiles := p.Tiles()
	return Ship{
		Type:       p.Type,
		Start:      p.Start,
		Horizontal: p.Horizontal,
		Tiles:      tiles,
		Hits:       make([]bool, len(tiles)),
	}
}

func (s *Ship) Occupies(c Coord) bool {
	return s.tileIndex(c) >= 0
}

// ApplyHit marks the tile at c. Sunk is returned only by the hit that covers
// the last unhit tile; any later call is NoEffect.
func (s *Ship) ApplyHit(c Coord) HitOutcome {
	i := s.tileIndex(c)
	if i < 0 || s.Sunk || s.Hits[i] {
		return HitNoEffect
	}
	s.Hits[i] = true
	for _, hit := range s.Hits {
		if !hit {
			return HitLanded
		}
	}
	s.Sunk = true
	return HitSunk
}

func (s *Ship) Reward() Amount {
	return s.Type.Reward()
}

func (s *Ship) tileIndex(c Coord) int {
	for i, tile := range s.Tiles {
		if tile == c {
			return i
		}
	}
	return -1
}

func (s Ship) clone() Ship {
	s.Tiles = append([]Coord(nil), s.Tiles...)
	s.Hits = append([]bool(nil), s.Hits...)
	return s
}
