package game

import (
	"time"

	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/kiryu-dev/battleship/internal/rules"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// useCase is the game state machine. It never mutates the game it is given:
// every successful operation returns a new value for the caller to commit.
type useCase struct {
	rules  rules.Ruleset
	logger *zap.Logger
}

func New(ruleset rules.Ruleset, logger *zap.Logger) useCase {
	return useCase{
		rules:  ruleset,
		logger: logger,
	}
}

func (u useCase) Create(req domain.CreateGameRequest) (*domain.Game, domain.CommandEffects, error) {
	ships, err := u.rules.Fleet(req.Ships)
	if err != nil {
		return nil, domain.CommandEffects{}, errors.WithMessage(err, "validate fleet")
	}
	/* the pot is the creation cost alone; the entry fee is only recorded */
	required := u.rules.CreationCost(ships)
	if req.Funds < required {
		return nil, domain.CommandEffects{}, insufficientFunds(required, req.Funds)
	}
	game := &domain.Game{
		ID:           req.ID,
		Creator:      req.Creator,
		EntryFee:     req.EntryFee,
		CreationCost: required,
		GridSize:     u.rules.GridSize,
		Ships:        ships,
		Shots:        []domain.Shot{},
		Pot:          required,
		CreatedAt:    req.Now,
		Status:       domain.Active,
	}
	effects := domain.CommandEffects{Charged: required}
	effects.Refund(game.ID, req.Creator, req.Funds)
	u.logger.Debug("game created",
		zap.Uint64("game_id", game.ID),
		zap.String("creator", game.Creator),
		zap.Uint64("pot", uint64(game.Pot)))
	return game, effects, nil
}

func (u useCase) FireShot(game *domain.Game, req domain.FireShotRequest) (*domain.Game, domain.ShotOutcome,
	domain.CommandEffects, error) {
	if game == nil {
		return nil, domain.ShotOutcome{}, domain.CommandEffects{}, domain.ErrGameNotFound
	}
	if status := game.EffectiveStatus(req.Now, u.rules.TimeLimit); status != domain.Active {
		return nil, domain.ShotOutcome{}, domain.CommandEffects{}, notActive(game.ID, status)
	}
	if err := rules.ValidateShotCoordinate(game.GridSize, req.Coord); err != nil {
		return nil, domain.ShotOutcome{}, domain.CommandEffects{}, err
	}
	/* must run before any charge: a rejected duplicate costs nothing */
	if err := rules.ValidateNotAlreadyShot(game.Shots, req.Coord); err != nil {
		return nil, domain.ShotOutcome{}, domain.CommandEffects{}, err
	}
	if u.rules.ForbidCreatorShots && req.Shooter == game.Creator {
		return nil, domain.ShotOutcome{}, domain.CommandEffects{},
			errors.WithMessage(domain.ErrUnauthorized, "creator cannot shoot at own game")
	}
	cost := u.rules.ShotCost(len(game.Shots))
	if req.Funds < cost {
		return nil, domain.ShotOutcome{}, domain.CommandEffects{}, insufficientFunds(cost, req.Funds)
	}

	next := game.Clone()
	next.Pot += cost
	effects := domain.CommandEffects{Charged: cost}
	outcome := resolveShot(next, req.Coord)
	if outcome.Result == domain.Sunk {
		paid := outcome.Reward
		if paid > next.Pot {
			paid = next.Pot
		}
		next.Pot -= paid
		outcome.Reward = paid
		effects.Pay(next.ID, req.Shooter, paid, domain.RewardPayout)
	}
	next.Shots = append(next.Shots, domain.Shot{
		Coord:   req.Coord,
		Shooter: req.Shooter,
		Outcome: outcome,
		Cost:    cost,
		FiredAt: req.Now,
	})
	if next.AllSunk() {
		next.Status = domain.Completed
		u.logger.Info("all ships sunk", zap.Uint64("game_id", next.ID), zap.Int("shots", len(next.Shots)))
	}
	effects.Refund(next.ID, req.Shooter, req.Funds)
	return next, outcome, effects, nil
}

// resolveShot applies the shot to the first ship on the tile. Placement
// validation guarantees there is at most one.
func resolveShot(game *domain.Game, c domain.Coord) domain.ShotOutcome {
	for i := range game.Ships {
		ship := &game.Ships[i]
		if !ship.Occupies(c) {
			continue
		}
		if ship.ApplyHit(c) == domain.HitSunk {
			return domain.ShotOutcome{
				Result:   domain.Sunk,
				ShipType: ship.Type,
				Reward:   ship.Reward(),
			}
		}
		return domain.ShotOutcome{Result: domain.Hit}
	}
	return domain.ShotOutcome{Result: domain.Miss}
}

func (u useCase) Peek(game *domain.Game, req domain.PeekRequest) ([]domain.Shot, domain.CommandEffects, error) {
	if game == nil {
		return nil, domain.CommandEffects{}, domain.ErrGameNotFound
	}
	if req.NumShots <= 0 {
		return nil, domain.CommandEffects{}, errors.WithMessagef(domain.ErrInvalidPeek, "got %d", req.NumShots)
	}
	cost := u.rules.PeekCost(req.NumShots)
	if req.Funds < cost {
		return nil, domain.CommandEffects{}, insufficientFunds(cost, req.Funds)
	}
	effects := domain.CommandEffects{Charged: cost}
	effects.Pay(game.ID, game.Creator, cost, domain.PeekFeePayout)
	effects.Refund(game.ID, req.Caller, req.Funds)
	return game.RecentShots(req.NumShots), effects, nil
}

func (u useCase) ClaimWinnings(game *domain.Game, req domain.ClaimRequest) (*domain.Game, domain.CommandEffects, error) {
	if game == nil {
		return nil, domain.CommandEffects{}, domain.ErrGameNotFound
	}
	if req.Claimant != game.Creator {
		return nil, domain.CommandEffects{}, errors.WithMessage(domain.ErrUnauthorized, "only the creator may claim")
	}
	status := game.EffectiveStatus(req.Now, u.rules.TimeLimit)
	if !status.Terminal() {
		return nil, domain.CommandEffects{}, errors.WithMessagef(domain.ErrGameStillActive, "game %d", game.ID)
	}
	if game.Claimed {
		return nil, domain.CommandEffects{}, errors.WithMessagef(domain.ErrAlreadyClaimed, "game %d", game.ID)
	}
	next := game.Clone()
	next.Status = status
	next.Claimed = true
	next.ClaimedAmount = next.Pot
	next.Pot = 0
	var effects domain.CommandEffects
	effects.Pay(next.ID, next.Creator, next.ClaimedAmount, domain.ClaimPayout)
	effects.Refund(next.ID, req.Claimant, req.Funds)
	u.logger.Info("winnings claimed",
		zap.Uint64("game_id", next.ID),
		zap.Stringer("status", next.Status),
		zap.Uint64("amount", uint64(next.ClaimedAmount)))
	return next, effects, nil
}

// Expire persists the lazily evaluated status. The second result is false
// when nothing changed.
func (u useCase) Expire(game *domain.Game, now time.Time) (*domain.Game, bool) {
	status := game.EffectiveStatus(now, u.rules.TimeLimit)
	if status == game.Status {
		return game, false
	}
	next := game.Clone()
	next.Status = status
	return next, true
}

func (u useCase) View(game *domain.Game, now time.Time) domain.GameView {
	return domain.GameView{
		ID:             game.ID,
		Creator:        game.Creator,
		EntryFee:       game.EntryFee,
		Pot:            game.Pot,
		Status:         game.EffectiveStatus(now, u.rules.TimeLimit),
		GridSize:       game.GridSize,
		ShotsFired:     len(game.Shots),
		ShipsRemaining: game.ShipsRemaining(),
		NextShotCost:   u.rules.ShotCost(len(game.Shots)),
		CreatedAt:      game.CreatedAt,
		Claimed:        game.Claimed,
	}
}
