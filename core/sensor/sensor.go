// Package sensor computes grid sensor measurements.
package sensor

import (
	"errors"
	"fmt"

	"github.com/kilianp07/assetsim/core/model"
)

// MaxCables is the number of cables a sensor node may have before the
// sensor is considered unable to measure.
const MaxCables = 2

// ErrMissingCablePower is returned when an active sensor has no cable power
// value for the tick.
var ErrMissingCablePower = errors.New("missing cable power")

// Reading is the per-tick input of a sensor.
type Reading struct {
	Name       string
	Direction  model.Direction
	CablePower []float64
}

// Measurement is the per-tick output of a sensor.
type Measurement struct {
	Value float64
	// Name is set when the sensor reports itself as inactive.
	Name string
}

// Active reports whether a sensor attached to a node with the given number
// of cables can measure.
func Active(cables int) bool {
	return cables <= MaxCables
}

// Measure returns the mean phase power of the cable, signed by direction.
func Measure(s model.Sensor, r Reading) (Measurement, error) {
	if !s.Active {
		return Measurement{Name: model.InactiveName}, nil
	}
	if r.Name == model.InactiveName {
		return Measurement{}, nil
	}
	if len(r.CablePower) < 3 {
		return Measurement{}, fmt.Errorf("sensor %s: %w (%d phases)", s.ID, ErrMissingCablePower, len(r.CablePower))
	}
	avg := (r.CablePower[0] + r.CablePower[1] + r.CablePower[2]) / 3
	return Measurement{Value: r.Direction.Factor() * avg}, nil
}
