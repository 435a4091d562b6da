package ev

// CarSpec describes a car model known to the simulation.
type CarSpec struct {
	CapacityKWh float64 `json:"capacity_kwh" yaml:"capacity_kwh"`
	PowerKW     float64 `json:"power_kw" yaml:"power_kw"`
}

// Catalog maps car identifiers to their specification.
type Catalog map[int]CarSpec

// Spec returns the specification of id. Unknown cars, including the empty
// bay marker, have a zero specification.
func (c Catalog) Spec(id int) CarSpec {
	return c[id]
}

// Params tune managed charging.
type Params struct {
	// DemandFactor scales the car power into the per-tick slot demand.
	DemandFactor float64 `json:"demand_factor"`
	// LimitFactor scales the car power into the slot power limit.
	LimitFactor float64 `json:"limit_factor"`
	// InitialChargeRatio is the fraction of capacity a newly plugged car
	// arrives with.
	InitialChargeRatio float64 `json:"initial_charge_ratio"`
	// RealityTwin disables the profile driven slot assignment; slots then
	// only change through occupancy reports.
	RealityTwin bool `json:"reality_twin"`
}

// DefaultParams returns the standard managed charging parameters.
func DefaultParams() Params {
	return Params{DemandFactor: 4, LimitFactor: 6, InitialChargeRatio: 0.15}
}
