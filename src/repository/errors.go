package repository

import (
	"fmt"

	"snapshotengine/src/model"
)

// storageError tags a database failure so callers can match it with
// errors.Is(err, model.ErrStorageUnavailable) while keeping the driver error.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorageUnavailable, err)
}
