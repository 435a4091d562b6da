package config

import (
	"fmt"

	"github.com/kilianp07/assetsim/core/ev"
	"github.com/kilianp07/assetsim/core/infeed"
)

// SimulationConfig holds the stepping parameters.
type SimulationConfig struct {
	// TickSeconds is the sampling rate of the host.
	TickSeconds float64 `json:"tick_seconds"`
	// Hooks are the host hook numbers of the phases, logged per call.
	Hooks       []int `json:"hooks"`
	RealityTwin bool  `json:"reality_twin"`
	// ProfilePath is the CSV with base load, solar, wind and car columns.
	ProfilePath string `json:"profile_path"`
	// ScenarioPath optionally preloads an experiment at startup.
	ScenarioPath string `json:"scenario_path"`
}

func (c *SimulationConfig) SetDefaults() {
	if c.TickSeconds == 0 {
		c.TickSeconds = 60
	}
	if len(c.Hooks) == 0 {
		c.Hooks = []int{100, 910}
	}
}

func (c SimulationConfig) Validate() error {
	if c.TickSeconds <= 0 {
		return fmt.Errorf("tick_seconds must be positive, got %v", c.TickSeconds)
	}
	return nil
}

// CarConfig describes one car model of the catalog.
type CarConfig struct {
	ID          int     `json:"id"`
	CapacityKWh float64 `json:"capacity_kwh"`
	PowerKW     float64 `json:"power_kw"`
}

// EVConfig tunes managed charging and lists the known cars.
type EVConfig struct {
	DemandFactor       float64     `json:"demand_factor"`
	LimitFactor        float64     `json:"limit_factor"`
	InitialChargeRatio float64     `json:"initial_charge_ratio"`
	Cars               []CarConfig `json:"cars"`
}

func (c *EVConfig) SetDefaults() {
	d := ev.DefaultParams()
	if c.DemandFactor == 0 {
		c.DemandFactor = d.DemandFactor
	}
	if c.LimitFactor == 0 {
		c.LimitFactor = d.LimitFactor
	}
	if c.InitialChargeRatio == 0 {
		c.InitialChargeRatio = d.InitialChargeRatio
	}
}

func (c EVConfig) Validate() error {
	if c.DemandFactor < 0 || c.LimitFactor < 0 {
		return fmt.Errorf("factors must not be negative")
	}
	if c.InitialChargeRatio < 0 || c.InitialChargeRatio > 1 {
		return fmt.Errorf("initial_charge_ratio %v outside [0,1]", c.InitialChargeRatio)
	}
	seen := make(map[int]bool, len(c.Cars))
	for _, car := range c.Cars {
		if car.ID <= 0 {
			return fmt.Errorf("car id %d: ids start at 1", car.ID)
		}
		if seen[car.ID] {
			return fmt.Errorf("duplicate car id %d", car.ID)
		}
		seen[car.ID] = true
		if car.CapacityKWh < 0 || car.PowerKW < 0 {
			return fmt.Errorf("car %d: negative capacity or power", car.ID)
		}
	}
	return nil
}

// Params returns the charging parameters.
func (c EVConfig) Params(realityTwin bool) ev.Params {
	return ev.Params{
		DemandFactor:       c.DemandFactor,
		LimitFactor:        c.LimitFactor,
		InitialChargeRatio: c.InitialChargeRatio,
		RealityTwin:        realityTwin,
	}
}

// Catalog indexes the cars by identifier.
func (c EVConfig) Catalog() ev.Catalog {
	cat := make(ev.Catalog, len(c.Cars))
	for _, car := range c.Cars {
		cat[car.ID] = ev.CarSpec{CapacityKWh: car.CapacityKWh, PowerKW: car.PowerKW}
	}
	return cat
}

// WindConfig holds the wind turbine model.
type WindConfig struct {
	ConversionFactor float64 `json:"conversion_factor"`
	MinSpeed         float64 `json:"min_speed"`
	MaxSpeed         float64 `json:"max_speed"`
}

func (c *WindConfig) SetDefaults() {
	if c.ConversionFactor == 0 {
		c.ConversionFactor = 1
	}
}

func (c WindConfig) Validate() error {
	if c.ConversionFactor < 0 {
		return fmt.Errorf("conversion_factor must not be negative")
	}
	if c.MaxSpeed != 0 && c.MaxSpeed < c.MinSpeed {
		return fmt.Errorf("max_speed %v below min_speed %v", c.MaxSpeed, c.MinSpeed)
	}
	return nil
}

func (c WindConfig) Params() infeed.WindParams {
	return infeed.WindParams{ConversionFactor: c.ConversionFactor, MinSpeed: c.MinSpeed, MaxSpeed: c.MaxSpeed}
}

// HTTPConfig configures the status API.
type HTTPConfig struct {
	// Addr is the listen address; empty disables the API.
	Addr string `json:"addr"`
	// Token protects the journal endpoint when set.
	Token string `json:"token"`
}
