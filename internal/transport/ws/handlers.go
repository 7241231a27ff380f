package ws

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/kiryu-dev/battleship/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (s *server) serveWs(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.Header.Get(domain.PlayerAddressHeader))
	if address == "" {
		s.logger.Warn(fmt.Sprintf("empty '%s' header", domain.PlayerAddressHeader))
		s.writeError(w, errors.WithMessagef(domain.ErrUnauthorized, "missing '%s' header", domain.PlayerAddressHeader))
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade websocket", zap.Error(err))
		return
	}
	client := newClient(conn, address)
	defer client.Close()
	stop := context.AfterFunc(r.Context(), client.Close)
	defer stop()
	s.logger.Info("new connection", zap.String("player", address))
	if err := s.handle(r.Context(), client); err != nil {
		s.logger.Warn("connection dropped", zap.String("player", address), zap.Error(err))
	}
}

// handle answers every command on the connection with exactly one accepted
// or rejected message until the peer goes away.
func (s *server) handle(ctx context.Context, c domain.Client) error {
	for {
		msg, err := c.ReadMessage()
		switch {
		case errors.Is(err, domain.ErrConnectionClosed):
			return nil
		case errors.Is(err, domain.ErrEmptyMessage):
			if err := c.WriteMessage(rejected(err)); err != nil {
				return err
			}
			continue
		case err != nil:
			return err
		}
		if err := c.WriteMessage(s.execute(ctx, c.Address(), msg)); err != nil {
			return err
		}
	}
}

func (s *server) execute(ctx context.Context, caller string, msg domain.Message) domain.Message {
	result, err := s.dispatch(ctx, caller, msg)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnknown {
			s.logger.Error("command failed", zap.String("player", caller), zap.Error(err))
		} else {
			s.logger.Info("command rejected", zap.String("player", caller), zap.Error(err))
		}
		return rejected(err)
	}
	return domain.Message{Type: domain.CommandAccepted, Payload: result}
}

func (s *server) dispatch(ctx context.Context, caller string, msg domain.Message) (domain.CommandResult, error) {
	switch msg.Type {
	case domain.CreateGameCommand:
		p, err := decode[domain.CreateGamePayload](msg)
		if err != nil {
			return domain.CommandResult{}, err
		}
		return s.hub.CreateGame(ctx, caller, msg.Funds, p)
	case domain.FireShotCommand:
		p, err := decode[domain.FireShotPayload](msg)
		if err != nil {
			return domain.CommandResult{}, err
		}
		return s.hub.FireShot(ctx, caller, msg.Funds, p)
	case domain.PeekShotsCommand:
		p, err := decode[domain.PeekShotsPayload](msg)
		if err != nil {
			return domain.CommandResult{}, err
		}
		return s.hub.PeekShots(ctx, caller, msg.Funds, p)
	case domain.ClaimWinningsCommand:
		p, err := decode[domain.ClaimWinningsPayload](msg)
		if err != nil {
			return domain.CommandResult{}, err
		}
		return s.hub.ClaimWinnings(ctx, caller, msg.Funds, p)
	default:
		return domain.CommandResult{}, errors.WithMessagef(domain.ErrUnknownCommand, "type %d", msg.Type)
	}
}

func decode[T any](msg domain.Message) (T, error) {
	p, err := utils.Convert[T](msg.Payload)
	if err != nil {
		return p, errors.WithMessage(domain.ErrMalformedRequest, err.Error())
	}
	return p, nil
}

func rejected(err error) domain.Message {
	return domain.Message{Type: domain.CommandRejected, Payload: domain.Rejection(err)}
}

func (s *server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	resp := domain.HealthCheckResponse{
		Status: "ok",
		Store:  s.storeName,
		Sweep:  s.sweep.Stats(),
	}
	if resp.Sweep.LastFailure != "" {
		resp.Status = "degraded"
	}
	s.respond(w, resp, nil)
}

func (s *server) recentGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.hub.RecentGames(r.Context())
	s.respond(w, games, err)
}

func (s *server) activeGames(w http.ResponseWriter, r *http.Request) {
	ids, err := s.hub.ActiveWindow(r.Context())
	if ids == nil {
		ids = []uint64{}
	}
	s.respond(w, ids, err)
}

func (s *server) game(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	game, err := s.hub.Game(r.Context(), id)
	s.respond(w, game, err)
}

func (s *server) shot(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	x, err := intParam(r, "x")
	if err != nil {
		s.writeError(w, err)
		return
	}
	y, err := intParam(r, "y")
	if err != nil {
		s.writeError(w, err)
		return
	}
	shot, err := s.hub.Shot(r.Context(), id, domain.Coord{X: x, Y: y})
	s.respond(w, shot, err)
}

func (s *server) payouts(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	payouts, err := s.hub.Payouts(r.Context(), id)
	s.respond(w, payouts, err)
}

func (s *server) playerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.hub.PlayerStats(r.Context(), chi.URLParam(r, "address"))
	s.respond(w, stats, err)
}

func (s *server) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := utils.WriteJson(w, http.StatusOK, v); err != nil {
		s.logger.Warn(err.Error())
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("query failed", zap.Error(err))
	}
	if err := utils.WriteJson(w, status, domain.Rejection(err)); err != nil {
		s.logger.Warn(err.Error())
	}
}

func statusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusForbidden
	case domain.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case domain.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func uintParam(r *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, errors.WithMessagef(domain.ErrMalformedRequest, "parameter '%s'", name)
	}
	return v, nil
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, errors.WithMessagef(domain.ErrMalformedRequest, "parameter '%s'", name)
	}
	return v, nil
}
