package domain

import (
	"github.com/pkg/errors"
)

type Kind byte

const (
	KindUnknown = Kind(iota)
	KindNotFound
	KindInvalidInput
	KindUnauthorized
	KindInsufficientFunds
	KindInvalidState
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindNotFound:          "not_found",
	KindInvalidInput:      "invalid_input",
	KindUnauthorized:      "unauthorized",
	KindInsufficientFunds: "insufficient_funds",
	KindInvalidState:      "invalid_state",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is a rejected command. Two errors are equal under errors.Is when
// their codes match, so sentinels survive wrapping with extra context.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var errorsByCode = make(map[string]*Error)

func newError(kind Kind, code, message string) *Error {
	e := &Error{Kind: kind, Code: code, Message: message}
	errorsByCode[code] = e
	return e
}

var (
	ErrGameNotFound = newError(KindNotFound, "game_not_found", "game not found")
	ErrShotNotFound = newError(KindNotFound, "shot_not_found", "shot not found")

	ErrOutOfBounds      = newError(KindInvalidInput, "out_of_bounds", "coordinate is outside the grid")
	ErrOverlappingShips = newError(KindInvalidInput, "overlapping_ships", "ships share a tile")
	ErrWrongShipCount   = newError(KindInvalidInput, "wrong_ship_count", "wrong number of ships")
	ErrUnknownShipType  = newError(KindInvalidInput, "unknown_ship_type", "unknown ship type")
	ErrInvalidPeek      = newError(KindInvalidInput, "invalid_peek", "number of shots to peek must be positive")
	ErrDuplicateShot    = newError(KindInvalidInput, "duplicate_shot", "shot already taken at this location")

	ErrUnauthorized = newError(KindUnauthorized, "unauthorized", "caller is not allowed to perform this action")

	ErrInsufficientFunds = newError(KindInsufficientFunds, "insufficient_funds", "attached funds are below the required cost")

	ErrNotActive       = newError(KindInvalidState, "not_active", "game is not active")
	ErrGameStillActive = newError(KindInvalidState, "game_still_active", "game is still active")
	ErrAlreadyClaimed  = newError(KindInvalidState, "already_claimed", "winnings already claimed")
)

// KindOf reports the taxonomy bucket of err; errors raised outside the
// domain are KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the machine readable code of a domain error or an empty string.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
