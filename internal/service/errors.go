package service

import (
	"errors"

	"infra-assistant-be/internal/pkg/apperror"
)

// storageErr keeps classified errors and reports everything else from the
// store as Unavailable.
func storageErr(op string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Unavailable(op, err)
}
