// services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Business-rule and infrastructure failures the engine can surface. Handlers map
// these to HTTP statuses; nothing in this package talks HTTP.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	// ErrSessionFinished marks calls against a completed/abandoned session — a caller
	// bug, distinct from business-rule failures like insufficient energy.
	ErrSessionFinished = errors.New("session already finished")
	ErrOutOfRange      = errors.New("player is outside the checkpoint geofence")
)

// InsufficientEnergyError carries cost vs. balance so the client can render both.
type InsufficientEnergyError struct {
	Required int
	Balance  int
}

func (e *InsufficientEnergyError) Error() string {
	return fmt.Sprintf("insufficient energy: need %d, have %d", e.Required, e.Balance)
}

// IsInsufficientEnergy reports whether err is an energy-balance failure.
func IsInsufficientEnergy(err error) bool {
	var iee *InsufficientEnergyError
	return errors.As(err, &iee)
}
