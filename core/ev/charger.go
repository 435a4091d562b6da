package ev

import (
	"math"

	"github.com/kilianp07/assetsim/core/model"
)

// Result is the outcome of one charging station tick.
type Result struct {
	Demand        float64
	Actual        float64
	ShiftedDemand float64
	// SlotSoC holds the state of charge of each bay in percent. It is nil
	// for unmanaged stations.
	SlotSoC []float64
}

// PowerVector returns the power output as [demand, actual, shifted demand].
func (r Result) PowerVector() []float64 {
	return []float64{r.Demand, r.Actual, r.ShiftedDemand}
}

type reconciliation struct {
	newPower float64
	actual   float64
	repaid   bool
}

// reconcile decides the power delivered for the given demand, physical
// limit, external setpoint and working ledger. A negative ledger means the
// backlog fits under the setpoint; it is then delivered at once and the
// ledger is settled.
func reconcile(demand, limit, setpoint, shifted float64) reconciliation {
	newPower := demand
	if shifted > 0 {
		newPower = math.Min(setpoint+shifted, limit)
	}
	if newPower < demand {
		newPower = demand
	}
	r := reconciliation{newPower: newPower}
	if newPower > setpoint {
		r.actual = setpoint
	} else {
		r.actual = newPower
		if shifted < 0 {
			r.actual = setpoint + shifted
			r.repaid = true
		}
	}
	if setpoint >= 0 {
		r.actual = math.Max(0, math.Min(r.actual, setpoint))
	}
	return r
}

func shiftedDemand(r reconciliation, shifted, demand float64) float64 {
	if r.repaid {
		shifted = 0
	}
	return math.Min(r.newPower, shifted+demand)
}

// StepUnmanaged advances a station without car tracking. Every slot draws
// evProfile kW.
func StepUnmanaged(c *model.EVCharger, evProfile, setpoint float64) Result {
	slots := float64(max(c.ChargingSlots, 0))
	demand := slots * evProfile
	limit := slots * c.MaxPowerPerSlot
	ledger := zeroNaN(c.ShiftedEnergy)

	shifted := ledger + demand - setpoint
	r := reconcile(demand, limit, setpoint, shifted)
	if r.repaid {
		c.ShiftedEnergy = 0
	} else {
		c.ShiftedEnergy = ledger + demand - r.actual
	}
	return Result{Demand: demand, Actual: r.actual, ShiftedDemand: shiftedDemand(r, shifted, demand)}
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
