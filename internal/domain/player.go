package domain

// PlayerStats are lifetime totals for one address. Every counter only grows.
type PlayerStats struct {
	Address      string `json:"address"`
	GamesCreated uint64 `json:"games_created"`
	ShotsFired   uint64 `json:"shots_fired"`
	ShipsSunk    uint64 `json:"ships_sunk"`
	TokensSpent  Amount `json:"tokens_spent"`
	TokensWon    Amount `json:"tokens_won"`
}

func NewPlayerStats(address string) PlayerStats {
	return PlayerStats{Address: address}
}

func (p *PlayerStats) RecordGameCreated() {
	p.GamesCreated++
}

func (p *PlayerStats) RecordShot(cost Amount) {
	p.ShotsFired++
	p.TokensSpent += cost
}

func (p *PlayerStats) RecordSunk(reward Amount) {
	p.ShipsSunk++
	p.TokensWon += reward
}

func (p *PlayerStats) RecordSpend(amount Amount) {
	p.TokensSpent += amount
}

func (p *PlayerStats) RecordWinnings(amount Amount) {
	p.TokensWon += amount
}
