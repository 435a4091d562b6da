package engine

import (
	"errors"
	"fmt"

	"github.com/kilianp07/assetsim/core/store"
)

var (
	ErrUnknownExperiment = store.ErrUnknownExperiment
	ErrTickInProgress    = store.ErrTickInProgress
	// ErrMissingInput is returned when a dynamic required by an asset was
	// not supplied for the tick.
	ErrMissingInput = errors.New("missing input")
	// ErrUnknownStation is returned for occupancy reports addressed to a
	// building without a charging station.
	ErrUnknownStation = errors.New("unknown charging station")
	// ErrPanic wraps a recovered panic of an entity update.
	ErrPanic = errors.New("entity update panicked")
)

// EntityError reports the failure of one connector or sensor during a tick.
type EntityError struct {
	ExperimentID string
	Phase        int
	EntityID     string
	Err          error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("experiment %s phase %d entity %s: %v", e.ExperimentID, e.Phase, e.EntityID, e.Err)
}

func (e *EntityError) Unwrap() error { return e.Err }

func missing(what, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s has no dynamic", ErrMissingInput, what)
	}
	return fmt.Errorf("%w: %s %s", ErrMissingInput, what, id)
}
