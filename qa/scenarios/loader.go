// Package scenarios replays scripted experiments through the engine. A
// scenario bundles a topology, a day profile, host inputs and bay
// occupancy events, plus the outputs expected at the end of the run.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/assetsim/core/model"
	"github.com/kilianp07/assetsim/core/profile"
	"github.com/kilianp07/assetsim/core/topology"
)

// Override replaces inputs from tick At on.
type Override struct {
	At     int64        `yaml:"at"`
	Inputs model.Inputs `yaml:"inputs"`
}

// OccupancyEvent reports the cars of a station before the tick at At.
type OccupancyEvent struct {
	At        int64  `yaml:"at"`
	StationID string `yaml:"station_id"`
	Cars      []int  `yaml:"cars"`
}

// Expected describes the checks run after the scenario.
type Expected struct {
	Failures int `yaml:"failures"`
	// Series holds the values of the last emission of each series.
	Series    map[string][]float64 `yaml:"series,omitempty"`
	Present   []string             `yaml:"present,omitempty"`
	Tolerance float64              `yaml:"tolerance,omitempty"`
}

type Scenario struct {
	Name         string                `yaml:"name"`
	Description  string                `yaml:"description,omitempty"`
	ExperimentID string                `yaml:"experiment_id,omitempty"`
	StartAt      int64                 `yaml:"start_at"`
	FirstTick    int64                 `yaml:"first_tick"`
	TickSeconds  int64                 `yaml:"tick_seconds"`
	Ticks        int                   `yaml:"ticks"`
	Phases       int                   `yaml:"phases"`
	Profile      map[int64]profile.Row `yaml:"profile,omitempty"`
	Topology     topology.Snapshot     `yaml:"topology"`
	Inputs       model.Inputs          `yaml:"inputs"`
	Overrides    []Override            `yaml:"overrides,omitempty"`
	Occupancy    []OccupancyEvent      `yaml:"occupancy,omitempty"`
	Expected     Expected              `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	sc.setDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

func (s *Scenario) setDefaults() {
	if s.ExperimentID == "" {
		s.ExperimentID = s.Name
	}
	if s.TickSeconds == 0 {
		s.TickSeconds = 60
	}
	if s.Ticks == 0 {
		s.Ticks = 1
	}
	if s.Phases == 0 {
		s.Phases = 2
	}
	if s.Expected.Tolerance == 0 {
		s.Expected.Tolerance = 1e-6
	}
}

// Validate checks the scenario is runnable.
func (s *Scenario) Validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("scenario name is required")
	case s.TickSeconds < 0 || s.Ticks < 0 || s.Phases < 0:
		return fmt.Errorf("tick_seconds, ticks and phases must not be negative")
	case len(s.Topology.Structures) == 0:
		return fmt.Errorf("scenario %s has no structures", s.Name)
	}
	return nil
}

// Table builds the inline profile. It returns nil when the scenario has
// none.
func (s *Scenario) Table() (*profile.Table, error) {
	if len(s.Profile) == 0 {
		return nil, nil
	}
	return profile.NewTable(s.Profile)
}
