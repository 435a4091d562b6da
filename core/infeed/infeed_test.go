package infeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPVCapsAtSetpoint(t *testing.T) {
	r := PV(-3, 8, 10, true)
	assert.Equal(t, -24.0, r.Potential)
	assert.Equal(t, -10.0, r.Actual)
	assert.Equal(t, []float64{24, 10}, r.Output())
}

func TestPVBelowSetpoint(t *testing.T) {
	r := PV(-1, 2, 10, true)
	assert.Equal(t, -2.0, r.Actual)
	assert.Equal(t, r.Potential, r.Actual)
}

func TestPVUncapped(t *testing.T) {
	r := PV(-5, 1, 0, false)
	assert.Equal(t, -5.0, r.Actual)
}

func TestWindCapAndEquivalentSpeed(t *testing.T) {
	p := WindParams{ConversionFactor: 2, MinSpeed: 3, MaxSpeed: 25}
	r := Wind(10, 1, p, 8, true)
	assert.Equal(t, 20.0, r.Potential)
	assert.Equal(t, 8.0, r.Actual)
	assert.Equal(t, 4.0, r.Speed)
	assert.Equal(t, []float64{20, 8}, r.Output())
}

func TestWindSpeedBand(t *testing.T) {
	p := WindParams{ConversionFactor: 1, MinSpeed: 3, MaxSpeed: 25}
	assert.Equal(t, 3.0, Wind(1, 1, p, 0, false).Speed)
	assert.Equal(t, 25.0, Wind(40, 1, p, 0, false).Speed)
	// zero conversion yields the lower bound instead of dividing by zero
	assert.Equal(t, 3.0, Wind(10, 1, WindParams{MinSpeed: 3}, 0, false).Speed)
}

func TestWindNegativeSetpointStopsTurbine(t *testing.T) {
	r := Wind(10, 1, WindParams{ConversionFactor: 1}, -5, true)
	assert.Equal(t, 0.0, r.Actual)
}
