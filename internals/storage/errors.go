package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup matches no record. Checkout also
	// returns it for an out-of-stock book; the two conditions are reported
	// identically on purpose.
	ErrNotFound = errors.New("storage: record not found")

	// ErrDuplicate is returned on unique-constraint violations
	// (username or email already taken).
	ErrDuplicate = errors.New("storage: duplicate record")
)

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicate) }

// mapErr translates driver errors into the package sentinels. The SQLite
// driver does not export typed errors, so constraint failures are matched on
// the message.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
