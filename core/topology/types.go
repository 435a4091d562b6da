package topology

// Structure type identifiers.
const (
	TypePGC            = "PGC"
	TypeNode           = "NODE"
	TypeSolarPanel     = "SOLAR-PANEL"
	TypeChargingPole   = "CHARGING-POLE"
	TypeBatterySystem  = "BATTERY-SYSTEM"
	TypeWindTurbine    = "WIND-TURBINE"
	TypeGridSensor     = "GRID-SENSOR"
	TypeSolarFarm      = "SOLAR-FARM"
	TypeEVStation      = "EV-STATION"
	TypeBatteryStation = "BATTERY-STATION"
	TypeWindFarm       = "WIND-FARM"
	TypeSmallHouse     = "SMALL-HOUSE"
	TypeHugeHouse      = "HUGE-HOUSE"
)

// Connection type identifiers.
const (
	TypeCable = "CABLE-UNDERGROUND-SD"
)

// Dynamic type identifiers.
const (
	DynActivePower       = "ACTIVE-POWER-3P"
	DynCablePower        = "CABLE-POWER-3P"
	DynPVPower           = "PV-SYSTEM-POWER"
	DynPVMaxPower        = "PV-SYSTEM-MAX-POWER"
	DynChargingPower     = "CHGSTATION-POWER"
	DynChargingMaxPower  = "CHGSTATION-MAX-POWER"
	DynChargingSoC       = "CHGSTATION-SOC"
	DynBatteryPower      = "BATTERY-POWER"
	DynBatteryMaxPower   = "BATTERY-MAX-POWER"
	DynBatterySoC        = "BATTERY-SOC"
	DynBatteryCapacity   = "BATTERY-CAPACITY"
	DynWindPower         = "WIND-TURBINE-POWER"
	DynWindMaxPower      = "WIND-TURBINE-MAX-POWER"
	DynWindSpeed         = "WIND-SPEED"
	DynSensorName        = "GRID-SENSOR-NAME"
	DynSensorDirection   = "GRID-SENSOR-DIRECTION"
	DynSensorMeasurement = "GRID-SENSOR-POWERMEASUREMENT"
	DynSensorPowerLimit  = "GRID-SENSOR-POWERLIMIT"
)

// Structure is a node of the topology tree.
type Structure struct {
	ID           string   `json:"id" yaml:"id"`
	TypeID       string   `json:"type_id" yaml:"type_id"`
	ExperimentID string   `json:"experiment_id,omitempty" yaml:"experiment_id,omitempty"`
	ParentIDs    []string `json:"parent_ids,omitempty" yaml:"parent_ids,omitempty"`
	ChildIDs     []string `json:"child_ids,omitempty" yaml:"child_ids,omitempty"`
	DynamicIDs   []string `json:"dynamic_ids,omitempty" yaml:"dynamic_ids,omitempty"`
}

// Connection links structures, for example a cable between two nodes.
type Connection struct {
	ID         string   `json:"id" yaml:"id"`
	TypeID     string   `json:"type_id" yaml:"type_id"`
	DynamicIDs []string `json:"dynamic_ids,omitempty" yaml:"dynamic_ids,omitempty"`
}

// Dynamic is a typed value slot exchanged with the host every tick.
type Dynamic struct {
	ID     string `json:"id" yaml:"id"`
	TypeID string `json:"type_id" yaml:"type_id"`
}

// Snapshot is the topology handed over when an experiment is set up.
// Structures are resolved in slice order.
type Snapshot struct {
	Structures  []Structure  `json:"structures" yaml:"structures"`
	Connections []Connection `json:"connections,omitempty" yaml:"connections,omitempty"`
	Dynamics    []Dynamic    `json:"dynamics" yaml:"dynamics"`
}
