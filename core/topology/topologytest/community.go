// Package topologytest provides topology snapshots for tests.
package topologytest

import "github.com/kilianp07/assetsim/core/topology"

// Dynamic identifiers used by Community.
const (
	HousePower        = "ap-house"
	HousePV           = "pv-house"
	HousePVMax        = "pvmax-house"
	HouseBattery      = "bat-house"
	HouseBatteryMax   = "batmax-house"
	HouseBatterySoC   = "batsoc-house"
	HouseBatteryCap   = "batcap-house"
	StationPower      = "ap-station"
	StationEV         = "ev-station"
	StationEVMax      = "evmax-station"
	StationEVSoC      = "evsoc-station"
	FarmPower         = "ap-farm"
	FarmPV            = "pv-farm"
	FarmPVMax         = "pvmax-farm"
	WindPower         = "ap-wind"
	WindTurbine       = "wt-wind"
	WindTurbineMax    = "wtmax-wind"
	WindSpeed         = "ws-wind"
	CablePowerA       = "cp-a"
	SensorName        = "name-s1"
	SensorDirection   = "dir-s1"
	SensorMeasure     = "meas-s1"
	BusySensorName    = "name-s2"
	BusySensorDir     = "dir-s2"
	BusySensorMeasure = "meas-s2"
)

// Structure identifiers used by Community.
const (
	HouseConnector   = "pgc-house"
	StationConnector = "pgc-station"
	FarmConnector    = "pgc-farm"
	WindConnector    = "pgc-wind"
	Station          = "ev-station-1"
	Sensor           = "sensor-1"
	BusySensor       = "sensor-2"
)

// Community returns a small energy community: a small house with PV and a
// battery, a managed EV station, a solar farm, a wind farm, one sensor on a
// two-cable node and one sensor on a three-cable node.
func Community() topology.Snapshot {
	return topology.Snapshot{
		Structures: []topology.Structure{
			{ID: "house-1", TypeID: topology.TypeSmallHouse, ChildIDs: []string{HouseConnector}},
			{ID: HouseConnector, TypeID: topology.TypePGC, ParentIDs: []string{"house-1"}, ChildIDs: []string{"sp-house", "bs-house"}, DynamicIDs: []string{HousePower}},
			{ID: "sp-house", TypeID: topology.TypeSolarPanel, DynamicIDs: []string{HousePV, HousePVMax}},
			{ID: "bs-house", TypeID: topology.TypeBatterySystem, DynamicIDs: []string{HouseBattery, HouseBatteryMax, HouseBatterySoC, HouseBatteryCap}},

			{ID: Station, TypeID: topology.TypeEVStation, ChildIDs: []string{StationConnector}},
			{ID: StationConnector, TypeID: topology.TypePGC, ParentIDs: []string{Station}, ChildIDs: []string{"cp-station"}, DynamicIDs: []string{StationPower}},
			{ID: "cp-station", TypeID: topology.TypeChargingPole, DynamicIDs: []string{StationEV, StationEVMax, StationEVSoC}},

			{ID: "farm-1", TypeID: topology.TypeSolarFarm, ChildIDs: []string{FarmConnector}},
			{ID: FarmConnector, TypeID: topology.TypePGC, ParentIDs: []string{"farm-1"}, ChildIDs: []string{"sp-farm"}, DynamicIDs: []string{FarmPower}},
			{ID: "sp-farm", TypeID: topology.TypeSolarPanel, DynamicIDs: []string{FarmPV, FarmPVMax}},

			{ID: "wind-1", TypeID: topology.TypeWindFarm, ChildIDs: []string{WindConnector}},
			{ID: WindConnector, TypeID: topology.TypePGC, ParentIDs: []string{"wind-1"}, ChildIDs: []string{"wt-1"}, DynamicIDs: []string{WindPower}},
			{ID: "wt-1", TypeID: topology.TypeWindTurbine, DynamicIDs: []string{WindTurbine, WindTurbineMax, WindSpeed}},

			{ID: "node-1", TypeID: topology.TypeNode, ChildIDs: []string{"cable-a", "cable-b", Sensor}},
			{ID: Sensor, TypeID: topology.TypeGridSensor, ParentIDs: []string{"node-1"}, DynamicIDs: []string{SensorName, SensorDirection, SensorMeasure}},
			{ID: "node-2", TypeID: topology.TypeNode, ChildIDs: []string{"cable-c", "cable-d", "cable-e", BusySensor}},
			{ID: BusySensor, TypeID: topology.TypeGridSensor, ParentIDs: []string{"node-2"}, DynamicIDs: []string{BusySensorName, BusySensorDir, BusySensorMeasure}},
		},
		Connections: []topology.Connection{
			{ID: "cable-a", TypeID: topology.TypeCable, DynamicIDs: []string{CablePowerA}},
			{ID: "cable-b", TypeID: topology.TypeCable, DynamicIDs: []string{"cp-b"}},
			{ID: "cable-c", TypeID: topology.TypeCable, DynamicIDs: []string{"cp-c"}},
			{ID: "cable-d", TypeID: topology.TypeCable, DynamicIDs: []string{"cp-d"}},
			{ID: "cable-e", TypeID: topology.TypeCable, DynamicIDs: []string{"cp-e"}},
		},
		Dynamics: []topology.Dynamic{
			{ID: HousePower, TypeID: topology.DynActivePower},
			{ID: HousePV, TypeID: topology.DynPVPower},
			{ID: HousePVMax, TypeID: topology.DynPVMaxPower},
			{ID: HouseBattery, TypeID: topology.DynBatteryPower},
			{ID: HouseBatteryMax, TypeID: topology.DynBatteryMaxPower},
			{ID: HouseBatterySoC, TypeID: topology.DynBatterySoC},
			{ID: HouseBatteryCap, TypeID: topology.DynBatteryCapacity},
			{ID: StationPower, TypeID: topology.DynActivePower},
			{ID: StationEV, TypeID: topology.DynChargingPower},
			{ID: StationEVMax, TypeID: topology.DynChargingMaxPower},
			{ID: StationEVSoC, TypeID: topology.DynChargingSoC},
			{ID: FarmPower, TypeID: topology.DynActivePower},
			{ID: FarmPV, TypeID: topology.DynPVPower},
			{ID: FarmPVMax, TypeID: topology.DynPVMaxPower},
			{ID: WindPower, TypeID: topology.DynActivePower},
			{ID: WindTurbine, TypeID: topology.DynWindPower},
			{ID: WindTurbineMax, TypeID: topology.DynWindMaxPower},
			{ID: WindSpeed, TypeID: topology.DynWindSpeed},
			{ID: CablePowerA, TypeID: topology.DynCablePower},
			{ID: "cp-b", TypeID: topology.DynCablePower},
			{ID: "cp-c", TypeID: topology.DynCablePower},
			{ID: "cp-d", TypeID: topology.DynCablePower},
			{ID: "cp-e", TypeID: topology.DynCablePower},
			{ID: SensorName, TypeID: topology.DynSensorName},
			{ID: SensorDirection, TypeID: topology.DynSensorDirection},
			{ID: SensorMeasure, TypeID: topology.DynSensorMeasurement},
			{ID: BusySensorName, TypeID: topology.DynSensorName},
			{ID: BusySensorDir, TypeID: topology.DynSensorDirection},
			{ID: BusySensorMeasure, TypeID: topology.DynSensorMeasurement},
		},
	}
}
