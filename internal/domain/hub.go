package domain

import (
	"context"
)

type HubUseCase interface {
	CreateGame(ctx context.Context, caller string, funds Amount, p CreateGamePayload) (CommandResult, error)
	FireShot(ctx context.Context, caller string, funds Amount, p FireShotPayload) (CommandResult, error)
	PeekShots(ctx context.Context, caller string, funds Amount, p PeekShotsPayload) (CommandResult, error)
	ClaimWinnings(ctx context.Context, caller string, funds Amount, p ClaimWinningsPayload) (CommandResult, error)

	Game(ctx context.Context, id uint64) (GameView, error)
	RecentGames(ctx context.Context) ([]GameView, error)
	ActiveWindow(ctx context.Context) ([]uint64, error)
	Shot(ctx context.Context, id uint64, c Coord) (Shot, error)
	PlayerStats(ctx context.Context, address string) (PlayerStats, error)
	Payouts(ctx context.Context, id uint64) ([]Payout, error)

	SweepExpired(ctx context.Context) (SweepReport, error)
}
