// Package battery advances the state of charge of stationary batteries.
package battery

import (
	"math"

	"github.com/kilianp07/assetsim/core/model"
)

// Input groups the external values read for one battery tick.
type Input struct {
	SoC      float64 // percent
	Capacity float64 // kWh
	// ChargeSetpoint and DischargeSetpoint are the two components of the
	// max-power vector. Their sum is the requested power.
	ChargeSetpoint    float64
	DischargeSetpoint float64
}

// Result is the outcome of one battery tick.
type Result struct {
	SoC                float64
	Power              float64 // positive when charging
	ChargePotential    float64
	DischargePotential float64
}

// PowerVector returns the power output as [actual, charge potential,
// -discharge potential].
func (r Result) PowerVector() []float64 {
	return []float64{r.Power, r.ChargePotential, -r.DischargePotential}
}

// Headroom returns the charge and discharge power available for a tick of
// tickHours, capped by the battery power limits.
func Headroom(capacity, soc, tickHours, chargeLimit, dischargeLimit float64) (charge, discharge float64) {
	if capacity <= 0 {
		return 0, 0
	}
	if tickHours <= 0 {
		return chargeLimit, dischargeLimit
	}
	charge = math.Min(capacity*(100-soc)/100/tickHours, chargeLimit)
	discharge = math.Min(capacity*soc/100/tickHours, dischargeLimit)
	return math.Max(charge, 0), math.Max(discharge, 0)
}

// Step advances the battery by one tick and updates its stored energy.
func Step(b *model.Battery, in Input, tickHours float64) Result {
	capacity := in.Capacity
	if math.IsNaN(capacity) {
		capacity = 0
	}
	soc := clampSoC(in.SoC)

	// A changed capacity keeps the energy and moves the SoC.
	if b.StoredEnergy >= 0 && soc*capacity/100 != b.StoredEnergy {
		if capacity <= 0 {
			soc = 0
		} else {
			soc = clampSoC(b.StoredEnergy / capacity * 100)
		}
	}

	charge, discharge := Headroom(capacity, soc, tickHours, b.ChargePowerLimit, b.DischargePowerLimit)
	actual := in.ChargeSetpoint + in.DischargeSetpoint
	if math.IsNaN(actual) {
		actual = 0
	}
	if actual > 0 {
		actual = math.Min(actual, charge)
	} else if actual < 0 {
		actual = math.Max(actual, -discharge)
	}

	if capacity > 0 {
		soc += actual / capacity * tickHours * 100
	} else {
		soc = 0
	}
	soc = clampSoC(soc)

	charge, discharge = Headroom(capacity, soc, tickHours, b.ChargePowerLimit, b.DischargePowerLimit)
	b.StoredEnergy = soc * capacity / 100

	return Result{SoC: soc, Power: actual, ChargePotential: charge, DischargePotential: discharge}
}

func clampSoC(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
