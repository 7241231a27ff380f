package domain

import (
	"github.com/pkg/errors"
)

var (
	ErrConnectionClosed = errors.New("connection closed")

	ErrEmptyMessage     = newError(KindInvalidInput, "empty_message", "message has no payload")
	ErrMalformedRequest = newError(KindInvalidInput, "malformed_request", "request cannot be decoded")
	ErrUnknownCommand   = newError(KindInvalidInput, "unknown_command", "unknown command type")
)

const (
	PlayerAddressHeader = "X-Player-Address"
)

type messageType byte

const (
	CreateGameCommand = messageType(iota)
	FireShotCommand
	PeekShotsCommand
	ClaimWinningsCommand
	CommandAccepted
	CommandRejected
)

// Message is the websocket envelope. Funds is the amount the caller
// attaches to a command.
type Message struct {
	Type    messageType
	Funds   Amount `json:",omitempty"`
	Payload any
}

type CreateGamePayload struct {
	EntryFee Amount
	Ships    []Placement
}

type FireShotPayload struct {
	GameID uint64
	X      int
	Y      int
}

type PeekShotsPayload struct {
	GameID   uint64
	NumShots int
}

type ClaimWinningsPayload struct {
	GameID uint64
}

type CommandResult struct {
	TxID    string
	GameID  uint64
	Charged Amount
	Outcome *ShotOutcome `json:",omitempty"`
	Shots   []Shot       `json:",omitempty"`
	Claimed Amount       `json:",omitempty"`
	Game    GameView
	Payouts []Payout
}

type RejectedPayload struct {
	Kind  string
	Code  string
	Error string
}

func Rejection(err error) RejectedPayload {
	return RejectedPayload{
		Kind:  KindOf(err).String(),
		Code:  CodeOf(err),
		Error: err.Error(),
	}
}

// Err rebuilds the error a peer rejected with, so errors.Is keeps working
// across the wire for known codes.
func (p RejectedPayload) Err() error {
	known, ok := errorsByCode[p.Code]
	if !ok {
		return errors.New(p.Error)
	}
	return &Error{Kind: known.Kind, Code: known.Code, Message: p.Error}
}

type Client interface {
	WriteMessage(msg Message) error
	ReadMessage() (Message, error)
	Address() string
}
