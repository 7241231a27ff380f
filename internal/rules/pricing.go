package rules

import (
	"github.com/kiryu-dev/battleship/internal/domain"
)

func RewardSum(ships []domain.Ship) domain.Amount {
	var total domain.Amount
	for i := range ships {
		total += ships[i].Reward()
	}
	return total
}

func (r Ruleset) CreationCost(ships []domain.Ship) domain.Amount {
	if r.CreationPricing != AreaPricing {
		return RewardSum(ships)
	}
	area := domain.Amount(r.GridSize * r.GridSize)
	var occupied domain.Amount
	for i := range ships {
		occupied += domain.Amount(len(ships[i].Tiles))
	}
	if occupied > area {
		occupied = area
	}
	return area - occupied + r.AreaFlatFee
}

// EscalatingShotCost doubles with every shot and stops at 2^MaxShotCostExponent.
func EscalatingShotCost(shotsFired int) domain.Amount {
	if shotsFired < 0 {
		shotsFired = 0
	}
	if shotsFired > MaxShotCostExponent {
		shotsFired = MaxShotCostExponent
	}
	return domain.Amount(1) << uint(shotsFired)
}

func (r Ruleset) ShotCost(shotsFired int) domain.Amount {
	if r.ShotPricing == FlatShotPricing {
		return r.FlatShotFee
	}
	return EscalatingShotCost(shotsFired)
}

func (r Ruleset) PeekCost(numShots int) domain.Amount {
	if numShots <= 0 {
		return 0
	}
	return r.PeekFeePerShot * domain.Amount(numShots)
}
