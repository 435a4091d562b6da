package metrics

import "github.com/kilianp07/assetsim/core/events"

// MetricsSink records tick events for observability purposes.
type MetricsSink interface {
	RecordTick(ev events.Tick) error
}

// OccupancyRecorder records bay occupancy updates.
type OccupancyRecorder interface {
	RecordOccupancy(ev events.Occupancy) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(events.Tick) error           { return nil }
func (NopSink) RecordOccupancy(events.Occupancy) error { return nil }
