package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorsSurviveWrapping(t *testing.T) {
	err := errors.WithMessage(errors.WithMessagef(ErrDuplicateShot, "shot at %s", Coord{X: 1, Y: 1}), "fire shot")

	assert.ErrorIs(t, err, ErrDuplicateShot)
	assert.NotErrorIs(t, err, ErrOutOfBounds)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.Equal(t, "duplicate_shot", CodeOf(err))
	assert.Equal(t, "fire shot: shot at (1,1): shot already taken at this location", err.Error())
}

func TestKindOfForeignError(t *testing.T) {
	err := errors.New("disk on fire")
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, "", CodeOf(err))
	assert.Equal(t, "unknown", KindOf(err).String())
}

func TestRejectionRoundTrip(t *testing.T) {
	rejection := Rejection(errors.WithMessage(ErrAlreadyClaimed, "game 7"))
	assert.Equal(t, RejectedPayload{
		Kind:  "invalid_state",
		Code:  "already_claimed",
		Error: "game 7: winnings already claimed",
	}, rejection)

	err := rejection.Err()
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, "game 7: winnings already claimed", err.Error())

	foreign := RejectedPayload{Kind: "unknown", Error: "boom"}.Err()
	assert.Equal(t, KindUnknown, KindOf(foreign))
	assert.EqualError(t, foreign, "boom")
}
