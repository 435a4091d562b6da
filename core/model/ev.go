package model

import "math"

// EmptyBay is the car identifier reported for an unoccupied charging bay.
const EmptyBay = -1

// EVCharger holds the persistent state of a charging station attached to a
// connector.
type EVCharger struct {
	PowerID    string
	MaxPowerID string
	// SoCID receives the per-slot state of charge of managed stations.
	SoCID string

	ChargingSlots   int
	MaxPowerPerSlot float64 // kW
	// ShiftedEnergy is the signed ledger of demand that could not be served
	// yet. Positive values are owed to the cars.
	ShiftedEnergy float64
}

// CarSlot is one bay of a managed charging station.
type CarSlot struct {
	CarID          int     `json:"car_id"`
	ChargeKWh      float64 `json:"charge_kwh"`
	ChargeMaxKWh   float64 `json:"charge_max_kwh"`
	ChargePowerMax float64 `json:"charge_power_max_kw"`
	ShiftedEnergy  float64 `json:"shifted_energy"`
}

// SoC returns the state of charge of the slot in percent. Degenerate slots
// report zero.
func (s CarSlot) SoC() float64 {
	v := s.ChargeKWh / s.ChargeMaxKWh * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Full reports whether the car in the slot reached its capacity.
func (s CarSlot) Full() bool {
	return s.ChargeKWh >= s.ChargeMaxKWh
}

// CarAssignment binds cars to the slots of a managed charging station.
// Values are replaced as a whole when a new occupancy report arrives.
type CarAssignment struct {
	StationID string    `json:"station_id"`
	Slots     []CarSlot `json:"slots"`
}

// Clone returns a deep copy of the assignment.
func (a *CarAssignment) Clone() *CarAssignment {
	if a == nil {
		return nil
	}
	out := &CarAssignment{StationID: a.StationID, Slots: make([]CarSlot, len(a.Slots))}
	copy(out.Slots, a.Slots)
	return out
}
