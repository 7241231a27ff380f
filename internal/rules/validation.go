package rules

import (
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/pkg/errors"
)

func inGrid(gridSize int, c domain.Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < gridSize && c.Y < gridSize
}

func ValidatePlacement(gridSize int, p domain.Placement) error {
	if !p.Type.Valid() {
		return errors.WithMessagef(domain.ErrUnknownShipType, "ship type '%d'", p.Type)
	}
	if !inGrid(gridSize, p.Start) || !inGrid(gridSize, p.End()) {
		return errors.WithMessagef(domain.ErrOutOfBounds,
			"%s from %s to %s on a %dx%d grid", p.Type, p.Start, p.End(), gridSize, gridSize)
	}
	return nil
}

// ValidateNoOverlap stops at the first tile claimed by two ships.
func ValidateNoOverlap(ships []domain.Ship) error {
	occupied := make(map[domain.Coord]domain.ShipType)
	for _, ship := range ships {
		for _, tile := range ship.Tiles {
			if other, ok := occupied[tile]; ok {
				return errors.WithMessagef(domain.ErrOverlappingShips,
					"%s and %s both occupy %s", other, ship.Type, tile)
			}
			occupied[tile] = ship.Type
		}
	}
	return nil
}

func ValidateShipCount(placements []domain.Placement, want int) error {
	if len(placements) != want {
		return errors.WithMessagef(domain.ErrWrongShipCount, "want %d ships, got %d", want, len(placements))
	}
	return nil
}

func ValidateShotCoordinate(gridSize int, c domain.Coord) error {
	if !inGrid(gridSize, c) {
		return errors.WithMessagef(domain.ErrOutOfBounds, "shot at %s on a %dx%d grid", c, gridSize, gridSize)
	}
	return nil
}

func ValidateNotAlreadyShot(shots []domain.Shot, c domain.Coord) error {
	for _, shot := range shots {
		if shot.Coord == c {
			return errors.WithMessagef(domain.ErrDuplicateShot, "shot at %s", c)
		}
	}
	return nil
}

// Fleet validates a create-game request and builds its ships.
func (r Ruleset) Fleet(placements []domain.Placement) ([]domain.Ship, error) {
	if err := ValidateShipCount(placements, r.ShipCount); err != nil {
		return nil, err
	}
	ships := make([]domain.Ship, 0, len(placements))
	for _, p := range placements {
		if err := ValidatePlacement(r.GridSize, p); err != nil {
			return nil, err
		}
		ships = append(ships, domain.NewShip(p))
	}
	if err := ValidateNoOverlap(ships); err != nil {
		return nil, err
	}
	return ships, nil
}
