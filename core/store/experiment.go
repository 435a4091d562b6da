package store

import (
	"sort"
	"sync"
	"time"

	"github.com/kilianp07/assetsim/core/model"
)

// Experiment owns the state of one running simulation.
//
// Three locks guard it. tick serialises calls into the engine and is only
// ever acquired with TryLock. state protects the connector and sensor
// records so status readers never observe a half-applied tick. cars guards
// the bay assignments, which are also replaced by occupancy reports arriving
// between ticks.
type Experiment struct {
	ID      string
	Created time.Time

	tick  sync.Mutex
	state sync.RWMutex

	lastTickTime int64
	phase        int
	Connectors   []model.Connector
	Sensors      []model.Sensor

	cars        sync.Mutex
	assignments map[string]*model.CarAssignment
}

// NewExperiment creates an experiment from resolved records.
func NewExperiment(id string, connectors []model.Connector, sensors []model.Sensor) *Experiment {
	return &Experiment{
		ID:           id,
		Created:      time.Now(),
		lastTickTime: -1,
		Connectors:   connectors,
		Sensors:      sensors,
		assignments:  map[string]*model.CarAssignment{},
	}
}

// BeginTick claims the experiment for one engine call. It returns false
// when another call is in progress. The state lock is held until EndTick.
func (e *Experiment) BeginTick() bool {
	if !e.tick.TryLock() {
		return false
	}
	e.state.Lock()
	return true
}

// EndTick releases the claim taken by BeginTick.
func (e *Experiment) EndTick() {
	e.state.Unlock()
	e.tick.Unlock()
}

// NextPhase advances the tick phase for simulationAt. A new simulation time
// starts at phase 1; repeated calls for the same time count up. Callers must
// hold the tick claim.
func (e *Experiment) NextPhase(simulationAt int64) int {
	if simulationAt != e.lastTickTime {
		e.lastTickTime = simulationAt
		e.phase = 1
	} else {
		e.phase++
	}
	return e.phase
}

// WithAssignment runs fn with the current assignment of stationID while
// holding the assignment lock. fn receives nil when the station has none.
func (e *Experiment) WithAssignment(stationID string, fn func(a *model.CarAssignment)) {
	e.cars.Lock()
	defer e.cars.Unlock()
	fn(e.assignments[stationID])
}

// UpdateAssignment replaces the assignment of stationID with the value
// returned by fn. On error the previous assignment stays in place.
func (e *Experiment) UpdateAssignment(stationID string, fn func(prev *model.CarAssignment) (*model.CarAssignment, error)) error {
	e.cars.Lock()
	defer e.cars.Unlock()
	next, err := fn(e.assignments[stationID])
	if err != nil {
		return err
	}
	e.assignments[stationID] = next
	return nil
}

// HasStation reports whether a charging station connector belongs to
// stationID.
func (e *Experiment) HasStation(stationID string) bool {
	_, ok := e.StationSlots(stationID)
	return ok
}

// StationSlots returns the number of charging slots of the station
// connector belonging to stationID.
func (e *Experiment) StationSlots(stationID string) (int, bool) {
	if stationID == "" {
		return 0, false
	}
	for _, c := range e.Connectors {
		if c.EV != nil && c.ParentBuildingID == stationID {
			return c.EV.ChargingSlots, true
		}
	}
	return 0, false
}

// BatteryStatus reports the stored energy of a battery.
type BatteryStatus struct {
	ConnectorID     string  `json:"connector_id"`
	StoredEnergyKWh float64 `json:"stored_energy_kwh"`
}

// ChargerStatus reports the ledger of a charging station.
type ChargerStatus struct {
	ConnectorID   string  `json:"connector_id"`
	StationID     string  `json:"station_id,omitempty"`
	ShiftedEnergy float64 `json:"shifted_energy"`
}

// Status is a consistent snapshot of an experiment.
type Status struct {
	ID            string                `json:"id"`
	Created       time.Time             `json:"created"`
	LastTickTime  int64                 `json:"last_tick_time"`
	Phase         int                   `json:"phase"`
	Connectors    int                   `json:"connectors"`
	Sensors       int                   `json:"sensors"`
	ActiveSensors int                   `json:"active_sensors"`
	Batteries     []BatteryStatus       `json:"batteries,omitempty"`
	Chargers      []ChargerStatus       `json:"chargers,omitempty"`
	Assignments   []model.CarAssignment `json:"assignments,omitempty"`
}

// Status returns a snapshot of the experiment. It waits for a running tick
// to finish.
func (e *Experiment) Status() Status {
	e.state.RLock()
	st := Status{
		ID:           e.ID,
		Created:      e.Created,
		LastTickTime: e.lastTickTime,
		Phase:        e.phase,
		Connectors:   len(e.Connectors),
		Sensors:      len(e.Sensors),
	}
	for _, s := range e.Sensors {
		if s.Active {
			st.ActiveSensors++
		}
	}
	for _, c := range e.Connectors {
		if c.Battery != nil {
			st.Batteries = append(st.Batteries, BatteryStatus{ConnectorID: c.ID, StoredEnergyKWh: c.Battery.StoredEnergy})
		}
		if c.EV != nil {
			st.Chargers = append(st.Chargers, ChargerStatus{ConnectorID: c.ID, StationID: c.ParentBuildingID, ShiftedEnergy: c.EV.ShiftedEnergy})
		}
	}
	e.state.RUnlock()

	e.cars.Lock()
	for _, a := range e.assignments {
		st.Assignments = append(st.Assignments, *a.Clone())
	}
	e.cars.Unlock()
	sort.Slice(st.Assignments, func(i, j int) bool { return st.Assignments[i].StationID < st.Assignments[j].StationID })
	return st
}
