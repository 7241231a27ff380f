package webapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/kiryu-dev/battleship/pkg/utils"
	"github.com/pkg/errors"
)

const (
	clientTimeout       = 5 * time.Second
	healthCheckEndpoint = "/health"
	gamesEndpoint       = "/games"
	activeGamesEndpoint = "/games/active"
	playerStatsEndpoint = "/players/%s/stats"
	gameEndpoint        = "/games/%d"
	shotEndpoint        = "/games/%d/shots/%d/%d"
	payoutsEndpoint     = "/games/%d/payouts"
)

// repository reads game state from a running server over its HTTP query API.
type repository struct {
	cli  *http.Client
	addr string
}

func New(addr string) repository {
	return repository{
		cli:  &http.Client{Timeout: clientTimeout},
		addr: addr,
	}
}

func (r repository) Game(ctx context.Context, id uint64) (domain.GameView, error) {
	return get[domain.GameView](ctx, r, fmt.Sprintf(gameEndpoint, id))
}

func (r repository) RecentGames(ctx context.Context) ([]domain.GameView, error) {
	return get[[]domain.GameView](ctx, r, gamesEndpoint)
}

func (r repository) ActiveGames(ctx context.Context) ([]uint64, error) {
	return get[[]uint64](ctx, r, activeGamesEndpoint)
}

func (r repository) Shot(ctx context.Context, id uint64, c domain.Coord) (domain.Shot, error) {
	return get[domain.Shot](ctx, r, fmt.Sprintf(shotEndpoint, id, c.X, c.Y))
}

func (r repository) Payouts(ctx context.Context, id uint64) ([]domain.Payout, error) {
	return get[[]domain.Payout](ctx, r, fmt.Sprintf(payoutsEndpoint, id))
}

func (r repository) PlayerStats(ctx context.Context, address string) (domain.PlayerStats, error) {
	return get[domain.PlayerStats](ctx, r, fmt.Sprintf(playerStatsEndpoint, url.PathEscape(address)))
}

func (r repository) HealthCheck(ctx context.Context) (*domain.HealthCheckResponse, error) {
	resp, err := get[domain.HealthCheckResponse](ctx, r, healthCheckEndpoint)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func get[T any](ctx context.Context, r repository, endpoint string) (T, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, r.addr+endpoint, nil)
	if err != nil {
		return *new(T), errors.WithMessage(err, "new get request")
	}
	resp, err := r.cli.Do(request)
	if err != nil {
		return *new(T), errors.WithMessagef(err, "call http endpoint '%s'", endpoint)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		rejection, err := utils.ReadJson[domain.RejectedPayload](resp.Body)
		if err != nil {
			return *new(T), errors.Errorf("unexpected response status '%s'", resp.Status)
		}
		return *new(T), rejection.Err()
	}
	result, err := utils.ReadJson[T](resp.Body)
	if err != nil {
		return *new(T), errors.WithMessage(err, "decode json response body")
	}
	return result, nil
}
