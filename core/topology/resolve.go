// Package topology resolves the structures of an experiment into typed
// connector and sensor records. Type identifiers are consulted only here,
// once per experiment; ticks work on the resolved records.
package topology

import (
	"errors"
	"fmt"

	"github.com/kilianp07/assetsim/core/model"
	"github.com/kilianp07/assetsim/core/sensor"
)

var (
	// ErrUnknownDynamic is returned when a structure references a dynamic
	// missing from the snapshot.
	ErrUnknownDynamic = errors.New("unknown dynamic")
	// ErrNoPowerOutput is returned for a connector without an active power
	// dynamic.
	ErrNoPowerOutput = errors.New("connector has no active power dynamic")
	// ErrNoCable is returned for a sensor whose node has no cable.
	ErrNoCable = errors.New("sensor node has no cable")
	// ErrTooManyCables flags a sensor that is kept but set inactive.
	ErrTooManyCables = errors.New("sensor node has more than two cables")
)

// ResolveError reports a problem with one entity.
type ResolveError struct {
	EntityID string
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.EntityID, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Result is the outcome of Resolve.
type Result struct {
	Connectors []model.Connector
	Sensors    []model.Sensor
	// Init holds the outputs to publish at setup, such as the names of
	// inactive sensors.
	Init model.Batch
	// Errors lists every entity that could not be resolved or was
	// degraded. Entities that failed to resolve are left out.
	Errors []error
}

type index struct {
	structures  map[string]*Structure
	connections map[string]*Connection
	dynamics    map[string]string
}

func newIndex(s Snapshot) index {
	idx := index{
		structures:  make(map[string]*Structure, len(s.Structures)),
		connections: make(map[string]*Connection, len(s.Connections)),
		dynamics:    make(map[string]string, len(s.Dynamics)),
	}
	for i := range s.Structures {
		idx.structures[s.Structures[i].ID] = &s.Structures[i]
	}
	for i := range s.Connections {
		idx.connections[s.Connections[i].ID] = &s.Connections[i]
	}
	for _, d := range s.Dynamics {
		idx.dynamics[d.ID] = d.TypeID
	}
	return idx
}

// dynamicsOf maps dynamic type to identifier for the given owner.
func (idx index) dynamicsOf(ownerID string, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		typ, ok := idx.dynamics[id]
		if !ok {
			return nil, &ResolveError{EntityID: ownerID, Err: fmt.Errorf("%w %s", ErrUnknownDynamic, id)}
		}
		if _, seen := out[typ]; !seen {
			out[typ] = id
		}
	}
	return out, nil
}

// Resolve builds the connector and sensor records of experimentID.
// Structures tagged with another experiment are ignored.
func Resolve(s Snapshot, experimentID string, d AssetDefaults) Result {
	idx := newIndex(s)
	var res Result
	for i := range s.Structures {
		st := &s.Structures[i]
		if st.ExperimentID != "" && st.ExperimentID != experimentID {
			continue
		}
		switch st.TypeID {
		case TypePGC:
			c, err := idx.connector(st, d)
			if err != nil {
				res.Errors = append(res.Errors, err)
				continue
			}
			res.Connectors = append(res.Connectors, c)
		case TypeGridSensor:
			sn, cables, err := idx.sensor(st)
			if err != nil {
				res.Errors = append(res.Errors, err)
				continue
			}
			if !sn.Active {
				res.Init.AddText(sn.NameID, model.InactiveName)
				res.Errors = append(res.Errors, &ResolveError{EntityID: st.ID, Err: fmt.Errorf("%w (%d)", ErrTooManyCables, cables)})
			}
			res.Sensors = append(res.Sensors, sn)
		}
	}
	return res
}

//gocyclo:ignore
func (idx index) connector(st *Structure, d AssetDefaults) (model.Connector, error) {
	c := model.Connector{ID: st.ID, Load: model.Load{ScaleFactor: d.LoadScale}}
	own, err := idx.dynamicsOf(st.ID, st.DynamicIDs)
	if err != nil {
		return c, err
	}
	c.PowerID = own[DynActivePower]
	if c.PowerID == "" {
		return c, &ResolveError{EntityID: st.ID, Err: ErrNoPowerOutput}
	}

	for _, childID := range st.ChildIDs {
		child, ok := idx.structures[childID]
		if !ok {
			continue
		}
		dyn, err := idx.dynamicsOf(child.ID, child.DynamicIDs)
		if err != nil {
			return c, err
		}
		switch child.TypeID {
		case TypeSolarPanel:
			if id := dyn[DynPVPower]; id != "" {
				c.Solar = &model.PVSystem{PowerID: id, MaxPowerID: dyn[DynPVMaxPower], ScaleFactor: d.SolarScale}
			}
		case TypeChargingPole:
			if id := dyn[DynChargingPower]; id != "" {
				c.EV = &model.EVCharger{
					PowerID:         id,
					MaxPowerID:      dyn[DynChargingMaxPower],
					SoCID:           dyn[DynChargingSoC],
					ChargingSlots:   d.ChargingSlots,
					MaxPowerPerSlot: d.MaxPowerPerSlot,
				}
			}
		case TypeBatterySystem:
			if id := dyn[DynBatteryPower]; id != "" {
				c.Battery = &model.Battery{
					PowerID:             id,
					MaxPowerID:          dyn[DynBatteryMaxPower],
					SoCID:               dyn[DynBatterySoC],
					CapacityID:          dyn[DynBatteryCapacity],
					ChargePowerLimit:    d.BatteryChargePower,
					DischargePowerLimit: d.BatteryDischargePower,
					StoredEnergy:        model.StoredEnergyUnset,
				}
			}
		case TypeWindTurbine:
			if id := dyn[DynWindPower]; id != "" {
				c.Wind = &model.WindTurbine{
					PowerID:     id,
					MaxPowerID:  dyn[DynWindMaxPower],
					SpeedID:     dyn[DynWindSpeed],
					ScaleFactor: d.WindScale,
					Bin:         d.WindBin,
				}
			}
		}
	}

	for _, parentID := range st.ParentIDs {
		parent, ok := idx.structures[parentID]
		if !ok {
			continue
		}
		if c.ParentBuildingID == "" {
			c.ParentBuildingID = parent.ID
		}
		switch parent.TypeID {
		case TypeSolarFarm:
			c.Load.ScaleFactor = d.SolarFarm.LoadScale
			if c.Solar != nil {
				c.Solar.ScaleFactor = d.SolarFarm.SolarScale
			}
		case TypeEVStation:
			c.ParentBuildingID = parent.ID
			c.Load.ScaleFactor = d.EVStation.LoadScale
			if c.EV != nil {
				c.EV.ChargingSlots = d.EVStation.ChargingSlots
			}
		case TypeBatteryStation:
			c.Load.ScaleFactor = d.BatteryStation.LoadScale
			if c.Battery != nil {
				c.Battery.ChargePowerLimit = d.BatteryStation.ChargePower
				c.Battery.DischargePowerLimit = d.BatteryStation.DischargePower
			}
		case TypeWindFarm:
			c.Load.ScaleFactor = d.WindFarm.LoadScale
			if c.Wind != nil {
				c.Wind.ScaleFactor = d.WindFarm.WindScale
			}
		case TypeSmallHouse:
			c.Load.ScaleFactor = d.SmallHouse.LoadScale
		case TypeHugeHouse:
			c.Load.ScaleFactor = d.HugeHouse.LoadScale
		}
	}
	return c, nil
}

func (idx index) sensor(st *Structure) (model.Sensor, int, error) {
	sn := model.Sensor{ID: st.ID}
	own, err := idx.dynamicsOf(st.ID, st.DynamicIDs)
	if err != nil {
		return sn, 0, err
	}
	sn.NameID = own[DynSensorName]
	sn.DirectionID = own[DynSensorDirection]
	sn.MeasurementID = own[DynSensorMeasurement]
	sn.PowerLimitID = own[DynSensorPowerLimit]

	maxCables := 0
	for _, parentID := range st.ParentIDs {
		node, ok := idx.structures[parentID]
		if !ok || node.TypeID != TypeNode {
			continue
		}
		cables := 0
		for _, childID := range node.ChildIDs {
			conn, ok := idx.connections[childID]
			if !ok || conn.TypeID != TypeCable {
				continue
			}
			cables++
			if sn.CablePowerID != "" {
				continue
			}
			dyn, err := idx.dynamicsOf(conn.ID, conn.DynamicIDs)
			if err != nil {
				return sn, cables, err
			}
			sn.CablePowerID = dyn[DynCablePower]
		}
		maxCables = max(maxCables, cables)
	}
	sn.Active = sensor.Active(maxCables)
	if sn.Active && sn.CablePowerID == "" {
		return sn, maxCables, &ResolveError{EntityID: st.ID, Err: ErrNoCable}
	}
	return sn, maxCables, nil
}
