package events

import "time"

// ConnectorSample summarises the state of one connector after a tick.
type ConnectorSample struct {
	ConnectorID   string
	NetPowerKW    float64
	LoadKW        float64
	PVKW          float64
	WindKW        float64
	EVKW          float64
	BatteryKW     float64
	BatterySoC    float64
	ShiftedEnergy float64
	HasBattery    bool
	HasEV         bool
}

// Tick is published after every call into the engine.
type Tick struct {
	ExperimentID string
	SimulationAt int64
	Phase        int
	Duration     time.Duration
	Series       int
	Failures     int
	Connectors   []ConnectorSample
	Time         time.Time
}
