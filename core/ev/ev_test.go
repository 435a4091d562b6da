package ev

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetsim/core/model"
)

const tolerance = 1e-9

var testCatalog = Catalog{
	1: {CapacityKWh: 40, PowerKW: 2.5},
	2: {CapacityKWh: 60, PowerKW: 5},
}

func near(t *testing.T, want, got float64, what string) {
	t.Helper()
	if math.Abs(want-got) > tolerance {
		t.Errorf("%s: expected %v got %v", what, want, got)
	}
}

func TestUnmanagedCurtailmentBuildsLedger(t *testing.T) {
	c := &model.EVCharger{ChargingSlots: 2, MaxPowerPerSlot: 4}
	res := StepUnmanaged(c, 3, 4)
	near(t, 6, res.Demand, "demand")
	near(t, 4, res.Actual, "actual")
	near(t, 6, res.ShiftedDemand, "shifted demand")
	near(t, 2, c.ShiftedEnergy, "ledger")
}

func TestUnmanagedLedgerIsRepaid(t *testing.T) {
	c := &model.EVCharger{ChargingSlots: 2, MaxPowerPerSlot: 4, ShiftedEnergy: 2}
	res := StepUnmanaged(c, 0, 4)
	near(t, 2, res.Actual, "actual")
	near(t, 0, c.ShiftedEnergy, "ledger")
	near(t, 0, res.ShiftedDemand, "shifted demand")
}

func TestUnmanagedPartialRepayment(t *testing.T) {
	c := &model.EVCharger{ChargingSlots: 2, MaxPowerPerSlot: 4, ShiftedEnergy: 5}
	res := StepUnmanaged(c, 1, 4)
	near(t, 4, res.Actual, "actual")
	near(t, 3, c.ShiftedEnergy, "ledger")
}

func TestUnmanagedLimitBelowSetpoint(t *testing.T) {
	c := &model.EVCharger{ChargingSlots: 1, MaxPowerPerSlot: 2, ShiftedEnergy: 10}
	res := StepUnmanaged(c, 1, 5)
	near(t, 2, res.Actual, "actual")
	near(t, 9, c.ShiftedEnergy, "ledger")
}

func TestUnmanagedActualWithinSetpoint(t *testing.T) {
	c := &model.EVCharger{ChargingSlots: 1, MaxPowerPerSlot: 11}
	profile := []float64{0, 7, 11, 3, 0, 0, 9, 2}
	setpoints := []float64{5, 3, 0, 11, 11, 2, 4, 8}
	for i := range profile {
		res := StepUnmanaged(c, profile[i], setpoints[i])
		if res.Actual < 0 || res.Actual > setpoints[i]+tolerance {
			t.Fatalf("tick %d: actual %v outside [0,%v]", i, res.Actual, setpoints[i])
		}
		if c.ShiftedEnergy < -tolerance {
			t.Fatalf("tick %d: negative ledger %v", i, c.ShiftedEnergy)
		}
	}
}

func TestUnmanagedRepaymentBeyondSetpointForfeitsSurplus(t *testing.T) {
	c := &model.EVCharger{ChargingSlots: 1, MaxPowerPerSlot: 4, ShiftedEnergy: -10}
	// working ledger -10 + 2 - 3 = -11 exceeds the setpoint
	res := StepUnmanaged(c, 2, 3)
	near(t, 0, res.Actual, "actual")
	near(t, 0, c.ShiftedEnergy, "ledger")
}

func newAssignment(t *testing.T, cars ...int) *model.CarAssignment {
	t.Helper()
	a, err := ApplyOccupancy(nil, "st", len(cars), cars, testCatalog, DefaultParams())
	require.NoError(t, err)
	return a
}

func TestManagedDistributesByDemand(t *testing.T) {
	a := newAssignment(t, 1, 2, model.EmptyBay)
	c := &model.EVCharger{ChargingSlots: 3}
	tick := 1.0 / 60

	res := StepManaged(c, a, nil, 15, tick, testCatalog, DefaultParams())
	near(t, 30, res.Demand, "demand")
	near(t, 15, res.Actual, "actual")
	near(t, 30, res.ShiftedDemand, "shifted demand")
	near(t, 5, a.Slots[0].ShiftedEnergy, "slot 0 ledger")
	near(t, 10, a.Slots[1].ShiftedEnergy, "slot 1 ledger")
	near(t, 0, a.Slots[2].ShiftedEnergy, "empty slot ledger")
	near(t, 6+5*tick, a.Slots[0].ChargeKWh, "slot 0 charge")
	near(t, 0, c.ShiftedEnergy, "station ledger")
	require.Len(t, res.SlotSoC, 3)
	near(t, (6+5*tick)/40*100, res.SlotSoC[0], "slot 0 soc")
	near(t, 0, res.SlotSoC[2], "empty slot soc")

	res = StepManaged(c, a, nil, 40, tick, testCatalog, DefaultParams())
	near(t, 40, res.Actual, "catch up actual")
	near(t, 5, a.Slots[0].ShiftedEnergy+a.Slots[1].ShiftedEnergy, "remaining backlog")
}

func TestManagedFullCarStopsDemand(t *testing.T) {
	a := newAssignment(t, 1)
	a.Slots[0].ChargeKWh = 40
	a.Slots[0].ShiftedEnergy = 3
	c := &model.EVCharger{ChargingSlots: 1}
	res := StepManaged(c, a, nil, 10, 1, testCatalog, DefaultParams())
	near(t, 0, res.Demand, "demand")
	near(t, 0, a.Slots[0].ShiftedEnergy, "ledger")
	near(t, 100, res.SlotSoC[0], "soc")
}

func TestManagedChargeNeverExceedsCapacity(t *testing.T) {
	a := newAssignment(t, 1, 2, 2)
	c := &model.EVCharger{ChargingSlots: 3}
	for i := 0; i < 200; i++ {
		res := StepManaged(c, a, nil, 50, 0.5, testCatalog, DefaultParams())
		if res.Actual < 0 || res.Actual > 50 {
			t.Fatalf("actual %v outside setpoint", res.Actual)
		}
		for j, s := range a.Slots {
			if s.ChargeKWh < 0 || s.ChargeKWh > s.ChargeMaxKWh+tolerance {
				t.Fatalf("slot %d charge %v outside [0,%v]", j, s.ChargeKWh, s.ChargeMaxKWh)
			}
		}
	}
	for _, s := range a.Slots {
		near(t, s.ChargeMaxKWh, s.ChargeKWh, "full charge")
	}
}

func TestManagedZeroDemandHasNoNaN(t *testing.T) {
	a := newAssignment(t, model.EmptyBay, model.EmptyBay, model.EmptyBay)
	c := &model.EVCharger{ChargingSlots: 3}
	res := StepManaged(c, a, nil, 10, 1, testCatalog, DefaultParams())
	near(t, 0, res.Actual, "actual")
	for _, v := range res.SlotSoC {
		assert.False(t, math.IsNaN(v))
	}
}

func TestManagedFollowsProfileCars(t *testing.T) {
	a := newAssignment(t, 1, model.EmptyBay)
	a.Slots[0].ShiftedEnergy = 7
	c := &model.EVCharger{ChargingSlots: 2}
	StepManaged(c, a, []int{2, model.EmptyBay}, 0, 1.0/60, testCatalog, DefaultParams())
	assert.Equal(t, 2, a.Slots[0].CarID)
	near(t, 60, a.Slots[0].ChargeMaxKWh, "new capacity")
	// curtailed to zero: the new car's demand is owed, the old backlog is gone
	near(t, 20, a.Slots[0].ShiftedEnergy, "ledger")
	near(t, 9, a.Slots[0].ChargeKWh, "initial charge")
}

func TestApplyOccupancy(t *testing.T) {
	p := DefaultParams()
	a := newAssignment(t, 1, 2, model.EmptyBay)
	assert.Equal(t, "st", a.StationID)
	near(t, 6, a.Slots[0].ChargeKWh, "initial charge")
	near(t, 15, a.Slots[0].ChargePowerMax, "power max")
	a.Slots[0].ShiftedEnergy = 4
	a.Slots[1].ShiftedEnergy = 2
	a.Slots[1].ChargeKWh = 30

	next, err := ApplyOccupancy(a, "st", 3, []int{1, model.EmptyBay, 2}, testCatalog, p)
	require.NoError(t, err)
	near(t, 4, next.Slots[0].ShiftedEnergy, "kept ledger")
	near(t, 0, next.Slots[1].ShiftedEnergy, "reset ledger")
	near(t, 0, next.Slots[1].ChargeKWh, "empty bay charge")
	assert.Equal(t, 2, next.Slots[2].CarID)
	near(t, 9, next.Slots[2].ChargeKWh, "new car charge")

	// previous value untouched
	near(t, 2, a.Slots[1].ShiftedEnergy, "previous ledger")
	near(t, 30, a.Slots[1].ChargeKWh, "previous charge")
}

func TestApplyOccupancyRejectsMalformed(t *testing.T) {
	p := DefaultParams()
	a := newAssignment(t, 1, 2, 1)
	_, err := ApplyOccupancy(a, "st", 3, []int{1}, testCatalog, p)
	assert.True(t, errors.Is(err, ErrInvalidOccupancy))
	_, err = ApplyOccupancy(nil, "st", 3, nil, testCatalog, p)
	assert.True(t, errors.Is(err, ErrInvalidOccupancy))
	_, err = ApplyOccupancy(a, "st", 3, []int{1, -7, 1}, testCatalog, p)
	assert.True(t, errors.Is(err, ErrInvalidOccupancy))
}

func TestApplyOccupancyFirstReportUsesStationSlots(t *testing.T) {
	p := DefaultParams()
	for name, cars := range map[string][]int{
		"one car":  {1},
		"two cars": {1, 2},
	} {
		_, err := ApplyOccupancy(nil, "st", 3, cars, testCatalog, p)
		if !errors.Is(err, ErrInvalidOccupancy) {
			t.Fatalf("%s: expected ErrInvalidOccupancy got %v", name, err)
		}
	}

	a, err := ApplyOccupancy(nil, "st", 3, []int{1, 2, 1, 2, 1}, testCatalog, p)
	require.NoError(t, err)
	require.Len(t, a.Slots, 3)
	assert.Equal(t, []int{1, 2, 1}, []int{a.Slots[0].CarID, a.Slots[1].CarID, a.Slots[2].CarID})

	_, err = ApplyOccupancy(nil, "st", 0, []int{1}, testCatalog, p)
	assert.True(t, errors.Is(err, ErrInvalidOccupancy))
}

func TestCatalogUnknownCar(t *testing.T) {
	assert.Equal(t, CarSpec{}, testCatalog.Spec(99))
	assert.Equal(t, CarSpec{}, testCatalog.Spec(model.EmptyBay))
}
