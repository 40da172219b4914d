package service

import (
	"errors"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/repository"
)

// classify переводит ошибки хранилища в apperr
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Message: "not found", Err: err}
	case errors.Is(err, repository.ErrSlotTaken):
		return &apperr.Error{Kind: apperr.KindConflict, Op: op, Message: "time slot is no longer available", Err: err}
	case errors.Is(err, repository.ErrStaleTransition):
		return &apperr.Error{Kind: apperr.KindConflict, Op: op, Message: "status was changed by another request", Err: err}
	default:
		return apperr.Internal(op, err)
	}
}
