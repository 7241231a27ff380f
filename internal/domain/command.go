package domain

import (
	"time"
)

type CreateGameRequest struct {
	ID       uint64
	Creator  string
	EntryFee Amount
	Ships    []Placement
	Funds    Amount
	Now      time.Time
}

type FireShotRequest struct {
	Coord   Coord
	Shooter string
	Funds   Amount
	Now     time.Time
}

type PeekRequest struct {
	Caller   string
	NumShots int
	Funds    Amount
}

type ClaimRequest struct {
	Claimant string
	Funds    Amount
	Now      time.Time
}

type PayoutReason string

const (
	RewardPayout  = PayoutReason("reward")
	PeekFeePayout = PayoutReason("peek_fee")
	ClaimPayout   = PayoutReason("claim")
	ChangePayout  = PayoutReason("change")
)

// Payout is an instruction for the host to move funds; the engine never
// transfers anything itself.
type Payout struct {
	TxID   string       `json:"tx_id"`
	GameID uint64       `json:"game_id"`
	To     string       `json:"to"`
	Amount Amount       `json:"amount"`
	Reason PayoutReason `json:"reason"`
}

// CommandEffects is what a successful command costs the caller and what the
// host has to pay out because of it.
type CommandEffects struct {
	Charged Amount
	Payouts []Payout
}

func (e *CommandEffects) Pay(gameID uint64, to string, amount Amount, reason PayoutReason) {
	if amount == 0 {
		return
	}
	e.Payouts = append(e.Payouts, Payout{GameID: gameID, To: to, Amount: amount, Reason: reason})
}

// Refund returns everything attached above the charged amount as change.
func (e *CommandEffects) Refund(gameID uint64, to string, funds Amount) {
	if funds > e.Charged {
		e.Pay(gameID, to, funds-e.Charged, ChangePayout)
	}
}

func (e *CommandEffects) PaidTo(to string, reason PayoutReason) Amount {
	var total Amount
	for _, p := range e.Payouts {
		if p.To == to && p.Reason == reason {
			total += p.Amount
		}
	}
	return total
}

func (e *CommandEffects) Stamp(txID string) {
	for i := range e.Payouts {
		e.Payouts[i].TxID = txID
	}
}
