package domain

import (
	"time"

	"github.com/pkg/errors"
)

type Status byte

const (
	Active = Status(iota)
	Completed
	Abandoned
)

var statusNames = [...]string{
	Active:    "active",
	Completed: "completed",
	Abandoned: "abandoned",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

func (s Status) Terminal() bool {
	return s == Completed || s == Abandoned
}

func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, errors.Errorf("unexpected game status '%d'", s)
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return errors.Errorf("unexpected game status '%s'", string(text))
}

type ShotResult byte

const (
	Miss = ShotResult(iota)
	Hit
	Sunk
)

var shotResultNames = [...]string{
	Miss: "miss",
	Hit:  "hit",
	Sunk: "sunk",
}

func (r ShotResult) String() string {
	if int(r) < len(shotResultNames) {
		return shotResultNames[r]
	}
	return "unknown"
}

func (r ShotResult) MarshalText() ([]byte, error) {
	if int(r) >= len(shotResultNames) {
		return nil, errors.Errorf("unexpected shot result '%d'", r)
	}
	return []byte(shotResultNames[r]), nil
}

func (r *ShotResult) UnmarshalText(text []byte) error {
	for i, name := range shotResultNames {
		if name == string(text) {
			*r = ShotResult(i)
			return nil
		}
	}
	return errors.Errorf("unexpected shot result '%s'", string(text))
}

// ShotOutcome carries the sunk ship and its reward only for Sunk results.
type ShotOutcome struct {
	Result   ShotResult `json:"result"`
	ShipType ShipType   `json:"ship_type,omitempty"`
	Reward   Amount     `json:"reward,omitempty"`
}

type Shot struct {
	Coord   Coord       `json:"coord"`
	Shooter string      `json:"shooter"`
	Outcome ShotOutcome `json:"outcome"`
	Cost    Amount      `json:"cost"`
	FiredAt time.Time   `json:"fired_at"`
}

type Game struct {
	ID            uint64    `json:"id"`
	Creator       string    `json:"creator"`
	EntryFee      Amount    `json:"entry_fee"`
	CreationCost  Amount    `json:"creation_cost"`
	GridSize      int       `json:"grid_size"`
	Ships         []Ship    `json:"ships"`
	Shots         []Shot    `json:"shots"`
	Pot           Amount    `json:"pot"`
	CreatedAt     time.Time `json:"created_at"`
	Status        Status    `json:"status"`
	Claimed       bool      `json:"claimed"`
	ClaimedAmount Amount    `json:"claimed_amount"`
}

func (g *Game) ShipsRemaining() int {
	remaining := 0
	for i := range g.Ships {
		if !g.Ships[i].Sunk {
			remaining++
		}
	}
	return remaining
}

func (g *Game) AllSunk() bool {
	return g.ShipsRemaining() == 0
}

func (g *Game) ShotAt(c Coord) (Shot, bool) {
	for _, shot := range g.Shots {
		if shot.Coord == c {
			return shot, true
		}
	}
	return Shot{}, false
}

// Expired reports whether the time limit elapsed; a zero limit never expires.
func (g *Game) Expired(now time.Time, limit time.Duration) bool {
	if limit <= 0 {
		return false
	}
	return !now.Before(g.CreatedAt.Add(limit))
}

// EffectiveStatus evaluates expiry lazily: a stored Active game whose time
// limit elapsed is already Abandoned even before the sweep persists it.
func (g *Game) EffectiveStatus(now time.Time, limit time.Duration) Status {
	if g.Status != Active {
		return g.Status
	}
	if g.AllSunk() {
		return Completed
	}
	if g.Expired(now, limit) {
		return Abandoned
	}
	return Active
}

// RecentShots returns up to n of the latest shots in firing order.
func (g *Game) RecentShots(n int) []Shot {
	if n <= 0 {
		return nil
	}
	if n > len(g.Shots) {
		n = len(g.Shots)
	}
	return append([]Shot(nil), g.Shots[len(g.Shots)-n:]...)
}

func (g *Game) Clone() *Game {
	cloned := *g
	cloned.Ships = make([]Ship, len(g.Ships))
	for i := range g.Ships {
		cloned.Ships[i] = g.Ships[i].clone()
	}
	cloned.Shots = append([]Shot(nil), g.Shots...)
	return &cloned
}

type GameUseCase interface {
	Create(req CreateGameRequest) (*Game, CommandEffects, error)
	FireShot(game *Game, req FireShotRequest) (*Game, ShotOutcome, CommandEffects, error)
	Peek(game *Game, req PeekRequest) ([]Shot, CommandEffects, error)
	ClaimWinnings(game *Game, req ClaimRequest) (*Game, CommandEffects, error)
	Expire(game *Game, now time.Time) (*Game, bool)
	View(game *Game, now time.Time) GameView
}

// GameView is the public projection of a game. Ship positions and shots stay
// hidden; shots are only revealed through a paid peek or a single-tile lookup.
type GameView struct {
	ID             uint64    `json:"id"`
	Creator        string    `json:"creator"`
	EntryFee       Amount    `json:"entry_fee"`
	Pot            Amount    `json:"pot"`
	Status         Status    `json:"status"`
	GridSize       int       `json:"grid_size"`
	ShotsFired     int       `json:"shots_fired"`
	ShipsRemaining int       `json:"ships_remaining"`
	NextShotCost   Amount    `json:"next_shot_cost"`
	CreatedAt      time.Time `json:"created_at"`
	Claimed        bool      `json:"claimed"`
}
