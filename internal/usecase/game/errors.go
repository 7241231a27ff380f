package game

import (
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/pkg/errors"
)

func insufficientFunds(required, attached domain.Amount) error {
	return errors.WithMessagef(domain.ErrInsufficientFunds, "required %d, attached %d", required, attached)
}

func notActive(id uint64, status domain.Status) error {
	return errors.WithMessagef(domain.ErrNotActive, "game %d is %s", id, status)
}
