package rules

import (
	"time"

	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/pkg/errors"
)

type CreationPricing string

const (
	// RewardSumPricing makes the creator fund every reward up front.
	RewardSumPricing = CreationPricing("reward_sum")
	// AreaPricing charges for the empty water a shooter may hit instead.
	AreaPricing = CreationPricing("area")
)

type ShotPricing string

const (
	EscalatingShotPricing = ShotPricing("escalating")
	FlatShotPricing       = ShotPricing("flat")
)

const (
	DefaultGridSize       = 10
	DefaultShipCount      = 3
	DefaultPeekFeePerShot = domain.Amount(2)
	DefaultTimeLimit      = 24 * time.Hour
	MaxShotCostExponent   = 10
)

type Ruleset struct {
	GridSize           int             `yaml:"grid_size" env:"GRID_SIZE"`
	ShipCount          int             `yaml:"ship_count" env:"SHIP_COUNT"`
	CreationPricing    CreationPricing `yaml:"creation_pricing" env:"CREATION_PRICING"`
	AreaFlatFee        domain.Amount   `yaml:"area_flat_fee" env:"AREA_FLAT_FEE"`
	ShotPricing        ShotPricing     `yaml:"shot_pricing" env:"SHOT_PRICING"`
	FlatShotFee        domain.Amount   `yaml:"flat_shot_fee" env:"FLAT_SHOT_FEE"`
	PeekFeePerShot     domain.Amount   `yaml:"peek_fee_per_shot" env:"PEEK_FEE_PER_SHOT"`
	ForbidCreatorShots bool            `yaml:"forbid_creator_shots" env:"FORBID_CREATOR_SHOTS"`
	TimeLimit          time.Duration   `yaml:"time_limit" env:"TIME_LIMIT"`
}

func Default() Ruleset {
	return Ruleset{
		GridSize:           DefaultGridSize,
		ShipCount:          DefaultShipCount,
		CreationPricing:    RewardSumPricing,
		ShotPricing:        EscalatingShotPricing,
		PeekFeePerShot:     DefaultPeekFeePerShot,
		ForbidCreatorShots: true,
		TimeLimit:          DefaultTimeLimit,
	}
}

func (r Ruleset) Validate() error {
	if r.GridSize <= 0 {
		return errors.Errorf("grid size must be positive, got %d", r.GridSize)
	}
	if r.ShipCount <= 0 {
		return errors.Errorf("ship count must be positive, got %d", r.ShipCount)
	}
	switch r.CreationPricing {
	case RewardSumPricing, AreaPricing:
	default:
		return errors.Errorf("unexpected creation pricing '%s'", r.CreationPricing)
	}
	switch r.ShotPricing {
	case EscalatingShotPricing:
	case FlatShotPricing:
		if r.FlatShotFee == 0 {
			return errors.New("flat shot pricing requires a positive flat_shot_fee")
		}
	default:
		return errors.Errorf("unexpected shot pricing '%s'", r.ShotPricing)
	}
	if r.TimeLimit < 0 {
		return errors.Errorf("time limit must not be negative, got %s", r.TimeLimit)
	}
	return nil
}
