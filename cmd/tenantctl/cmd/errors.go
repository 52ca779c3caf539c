package cmd

import (
	"errors"
	"fmt"

	"tenantgate/contexts/identity-access/tenant-session/domain/entities"
	domainerrors "tenantgate/contexts/identity-access/tenant-session/domain/errors"
)

func describeError(err error) error {
	if errors.Is(err, domainerrors.ErrUnauthenticated) {
		return fmt.Errorf("session expired or invalid; sign in again and update it with 'tenantctl login': %w", err)
	}
	if message := entities.ErrorMessage(err); message != "" {
		return fmt.Errorf("tenant API: %s: %w", message, err)
	}
	return err
}
