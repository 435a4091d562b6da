package ev

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/assetsim/core/model"
)

// Plug resets slot for a newly arrived car.
func Plug(slot *model.CarSlot, carID int, cat Catalog, p Params) {
	spec := cat.Spec(carID)
	slot.CarID = carID
	slot.ChargeMaxKWh = spec.CapacityKWh
	slot.ChargePowerMax = spec.PowerKW * p.LimitFactor
	slot.ChargeKWh = spec.CapacityKWh * p.InitialChargeRatio
	slot.ShiftedEnergy = 0
}

// StepManaged advances a station whose bays are tracked by a. When
// profileCars is not nil, it lists the car expected in each slot and a
// differing car replaces the current one. The assignment is updated in
// place; callers must hold the lock guarding it.
func StepManaged(c *model.EVCharger, a *model.CarAssignment, profileCars []int, setpoint, tickHours float64, cat Catalog, p Params) Result {
	n := len(a.Slots)
	demands := make([]float64, n)
	ledgers := make([]float64, n)
	limit := 0.0

	for i := range a.Slots {
		slot := &a.Slots[i]
		if profileCars != nil && i < len(profileCars) && profileCars[i] != slot.CarID {
			Plug(slot, profileCars[i], cat, p)
		}
		d := cat.Spec(slot.CarID).PowerKW * p.DemandFactor
		if slot.Full() {
			d = 0
			slot.ShiftedEnergy = 0
		}
		slot.ShiftedEnergy = zeroNaN(slot.ShiftedEnergy)
		demands[i] = d
		ledgers[i] = slot.ShiftedEnergy
		limit += slot.ChargePowerMax
	}
	demand := floats.Sum(demands)

	shifted := floats.Sum(ledgers) + demand - setpoint
	r := reconcile(demand, limit, setpoint, shifted)
	res := Result{Demand: demand, Actual: r.actual, ShiftedDemand: shiftedDemand(r, shifted, demand)}

	// the per-slot ledgers carry the backlog of managed stations
	c.ShiftedEnergy = 0
	res.SlotSoC = make([]float64, n)
	for i := range a.Slots {
		slot := &a.Slots[i]
		part := 0.0
		if demand != 0 {
			part = demands[i] / demand
		}
		charged := r.actual * part
		slot.ShiftedEnergy += demands[i] - charged
		slot.ChargeKWh += charged * tickHours
		if slot.ChargeKWh >= slot.ChargeMaxKWh {
			slot.ChargeKWh = math.Max(slot.ChargeMaxKWh, 0)
			slot.ShiftedEnergy = 0
		}
		res.SlotSoC[i] = slot.SoC()
	}
	return res
}
