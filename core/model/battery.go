package model

// StoredEnergyUnset marks a battery whose stored energy has not yet been
// derived from the external SoC and capacity values.
const StoredEnergyUnset = -1

// Battery holds the persistent state of a stationary battery.
type Battery struct {
	PowerID    string
	MaxPowerID string
	SoCID      string
	CapacityID string

	ChargePowerLimit    float64 // kW
	DischargePowerLimit float64 // kW
	// StoredEnergy in kWh. Negative until the first completed tick.
	StoredEnergy float64
}
