package model

import "strings"

// InactiveName is the name reported by a sensor that cannot measure.
const InactiveName = "Inactive"

// Direction orients a sensor measurement along its cable.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
)

// ParseDirection maps a reported direction to a Direction. Anything other
// than "down" is treated as upward.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "down") {
		return DirectionDown
	}
	return DirectionUp
}

// Factor returns the sign applied to measurements.
func (d Direction) Factor() float64 {
	if d == DirectionDown {
		return -1
	}
	return 1
}

func (d Direction) String() string {
	if d == DirectionDown {
		return "DOWN"
	}
	return "UP"
}

// Sensor observes the power flowing through the cable it is attached to.
type Sensor struct {
	ID            string
	NameID        string
	DirectionID   string
	CablePowerID  string
	MeasurementID string
	PowerLimitID  string
	// Active is false when the sensor node has more than two cables.
	Active bool
}
