package model

// Connector is a grid connection point (PGC) together with the assets
// attached to it. Asset presence is fixed when the experiment is set up;
// a nil asset pointer means the connector has no asset of that kind.
type Connector struct {
	ID string
	// PowerID receives the balanced 3-phase net power of the connector.
	PowerID string
	// ParentBuildingID links the connector to a car assignment when the
	// surrounding building is a managed charging station.
	ParentBuildingID string

	Load    Load
	Solar   *PVSystem
	Wind    *WindTurbine
	EV      *EVCharger
	Battery *Battery
}

// Load scales the base demand profile of a connector.
type Load struct {
	ScaleFactor float64
}

// PVSystem converts the PV profile into infeed.
type PVSystem struct {
	PowerID     string
	MaxPowerID  string
	ScaleFactor float64
}

// WindTurbine converts a wind speed profile bin into infeed.
type WindTurbine struct {
	PowerID     string
	MaxPowerID  string
	SpeedID     string
	ScaleFactor float64
	// Bin is the profile column holding the wind speed for this turbine.
	Bin string
}

// Balanced splits a total power value into three equal phases.
func Balanced(total float64) [3]float64 {
	p := total / 3
	return [3]float64{p, p, p}
}
