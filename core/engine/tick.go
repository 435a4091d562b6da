package engine

import (
	"fmt"
	"math"
	"runtime/debug"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/assetsim/core/battery"
	"github.com/kilianp07/assetsim/core/ev"
	"github.com/kilianp07/assetsim/core/events"
	"github.com/kilianp07/assetsim/core/infeed"
	"github.com/kilianp07/assetsim/core/model"
	"github.com/kilianp07/assetsim/core/profile"
	"github.com/kilianp07/assetsim/core/sensor"
	"github.com/kilianp07/assetsim/core/store"
)

// tick carries the state of one Advance call.
type tick struct {
	engine       *Engine
	exp          *store.Experiment
	startAt      int64
	simulationAt int64
	phase        int
	in           model.Inputs

	batch   model.Batch
	errs    []error
	samples []events.ConnectorSample
}

// guard runs fn for one entity, turning a returned error or a panic into an
// EntityError.
func (t *tick) guard(entityID string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t.engine.log.Errorf("experiment %s entity %s panic: %v\n%s", t.exp.ID, entityID, r, debug.Stack())
			t.fail(entityID, fmt.Errorf("%w: %v", ErrPanic, r))
			ok = false
		}
	}()
	if err := fn(); err != nil {
		t.fail(entityID, err)
		return false
	}
	return true
}

func (t *tick) fail(entityID string, err error) {
	ee := &EntityError{ExperimentID: t.exp.ID, Phase: t.phase, EntityID: entityID, Err: err}
	t.engine.log.Errorf("%v", ee)
	t.engine.monitor.CaptureException(ee, map[string]string{
		"module":        "engine",
		"experiment_id": t.exp.ID,
		"phase":         strconv.Itoa(t.phase),
		"entity_id":     entityID,
	})
	t.errs = append(t.errs, ee)
}

func (t *tick) updateConnectors() {
	second := profile.DataTime(t.startAt, t.simulationAt)
	row, err := t.engine.profile.Lookup(second)
	if err != nil {
		t.errs = append(t.errs, fmt.Errorf("experiment %s phase %d: %w", t.exp.ID, t.phase, err))
		t.engine.log.Errorf("experiment %s: profile lookup at %d: %v", t.exp.ID, second, err)
		return
	}
	season := profile.SeasonOf(t.startAt)
	for i := range t.exp.Connectors {
		c := &t.exp.Connectors[i]
		var out model.Batch
		var sample events.ConnectorSample
		if t.guard(c.ID, func() (err error) {
			out, sample, err = t.updateConnector(c, row, season)
			return err
		}) {
			t.batch.Append(out)
			t.samples = append(t.samples, sample)
		}
	}
}

// connectorInputs holds the validated external values of one connector.
type connectorInputs struct {
	pvMax     float64
	pvCapped  bool
	windMax   float64
	windCap   bool
	evSetting float64
	battery   battery.Input
}

func (t *tick) gather(c *model.Connector) (connectorInputs, error) {
	var ci connectorInputs
	if c.Solar != nil {
		ci.pvMax, ci.pvCapped = t.in.Scalar(c.Solar.MaxPowerID)
	}
	if c.Wind != nil {
		ci.windMax, ci.windCap = t.in.Scalar(c.Wind.MaxPowerID)
	}
	if c.EV != nil {
		v, ok := t.in.Scalar(c.EV.MaxPowerID)
		if !ok {
			return ci, missing("charging setpoint", c.EV.MaxPowerID)
		}
		ci.evSetting = v
	}
	if b := c.Battery; b != nil {
		soc, ok := t.in.Scalar(b.SoCID)
		if !ok {
			return ci, missing("battery soc", b.SoCID)
		}
		capacity, ok := t.in.Scalar(b.CapacityID)
		if !ok {
			return ci, missing("battery capacity", b.CapacityID)
		}
		sp, ok := t.in.Vector(b.MaxPowerID)
		if !ok || len(sp) < 2 {
			return ci, missing("battery setpoint", b.MaxPowerID)
		}
		ci.battery = battery.Input{SoC: soc, Capacity: capacity, ChargeSetpoint: sp[0], DischargeSetpoint: sp[1]}
	}
	return ci, nil
}

// updateConnector runs load, infeed, charging and storage in that order and
// emits the balanced net power. Inputs are validated before any asset state
// changes.
func (t *tick) updateConnector(c *model.Connector, row profile.Row, season profile.Season) (model.Batch, events.ConnectorSample, error) {
	var out model.Batch
	sample := events.ConnectorSample{ConnectorID: c.ID}
	ci, err := t.gather(c)
	if err != nil {
		return out, sample, err
	}
	cfg := t.engine.cfg

	sum := row.Get(profile.LoadColumn(season)) * c.Load.ScaleFactor
	sample.LoadKW = sum

	if c.Solar != nil {
		pv := infeed.PV(row.Get(profile.PVColumn(season)), c.Solar.ScaleFactor, ci.pvMax, ci.pvCapped)
		out.AddVector(c.Solar.PowerID, pv.Output()...)
		sum += pv.Actual
		sample.PVKW = -pv.Actual
	}

	if c.Wind != nil {
		w := infeed.Wind(row.Get(c.Wind.Bin), c.Wind.ScaleFactor, cfg.Wind, ci.windMax, ci.windCap)
		out.AddVector(c.Wind.PowerID, w.Output()...)
		out.AddScalar(c.Wind.SpeedID, w.Speed)
		sum -= w.Actual
		sample.WindKW = w.Actual
	}

	// charging and storage mutate state, so reject bad profile data first
	if math.IsNaN(sum) {
		return model.Batch{}, sample, fmt.Errorf("load and infeed power is NaN")
	}

	if c.EV != nil {
		res, backlog := t.chargeEV(c, row, ci.evSetting)
		out.AddVector(c.EV.PowerID, res.PowerVector()...)
		if res.SlotSoC != nil {
			out.AddVector(c.EV.SoCID, res.SlotSoC...)
		}
		sum += res.Actual
		sample.HasEV = true
		sample.EVKW = res.Actual
		sample.ShiftedEnergy = backlog
	}

	if c.Battery != nil {
		res := battery.Step(c.Battery, ci.battery, cfg.tickHours())
		out.AddScalar(c.Battery.SoCID, res.SoC)
		out.AddVector(c.Battery.PowerID, res.PowerVector()...)
		sum += res.Power
		sample.HasBattery = true
		sample.BatteryKW = res.Power
		sample.BatterySoC = res.SoC
	}

	if math.IsNaN(sum) {
		return model.Batch{}, sample, fmt.Errorf("net power is NaN")
	}
	p := model.Balanced(sum)
	out.AddVector(c.PowerID, p[:]...)
	sample.NetPowerKW = sum
	return out, sample, nil
}

// chargeEV steps the station as managed when its building has a car
// assignment, and as a generic charger otherwise. backlog is the energy
// still owed to the cars after the tick.
func (t *tick) chargeEV(c *model.Connector, row profile.Row, setpoint float64) (res ev.Result, backlog float64) {
	cfg := t.engine.cfg
	managed := false
	t.exp.WithAssignment(c.ParentBuildingID, func(a *model.CarAssignment) {
		if a == nil || len(a.Slots) == 0 {
			return
		}
		managed = true
		var cars []int
		if !cfg.EV.RealityTwin {
			cars = profileCars(row, a)
		}
		res = ev.StepManaged(c.EV, a, cars, setpoint, cfg.tickHours(), cfg.Catalog, cfg.EV)
		ledgers := make([]float64, len(a.Slots))
		for i, s := range a.Slots {
			ledgers[i] = s.ShiftedEnergy
		}
		backlog = floats.Sum(ledgers)
	})
	if managed {
		return res, backlog
	}
	res = ev.StepUnmanaged(c.EV, row.Get(profile.ColumnEV), setpoint)
	return res, c.EV.ShiftedEnergy
}

// profileCars reads the car expected in each slot from the profile row.
// Slots without a column keep their car.
func profileCars(row profile.Row, a *model.CarAssignment) []int {
	cars := make([]int, len(a.Slots))
	for i, s := range a.Slots {
		cars[i] = s.CarID
		if v, ok := row[profile.CarSlotColumn(i+1)]; ok && !math.IsNaN(v) {
			cars[i] = int(v)
		}
	}
	return cars
}

func (t *tick) updateSensors() {
	for i := range t.exp.Sensors {
		s := t.exp.Sensors[i]
		var out model.Batch
		if t.guard(s.ID, func() error {
			name, _ := t.in.Text(s.NameID)
			dir, _ := t.in.Text(s.DirectionID)
			power, _ := t.in.Vector(s.CablePowerID)
			m, err := sensor.Measure(s, sensor.Reading{Name: name, Direction: model.ParseDirection(dir), CablePower: power})
			if err != nil {
				return err
			}
			out.AddScalar(s.MeasurementID, m.Value)
			if m.Name != "" {
				out.AddText(s.NameID, m.Name)
			}
			return nil
		}) {
			t.batch.Append(out)
		}
	}
}
