package metrics

import (
	"errors"

	"github.com/kilianp07/assetsim/core/events"
)

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards the event to every sink. One failing sink does not
// keep the others from recording.
func (m *MultiSink) RecordTick(ev events.Tick) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordTick(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordOccupancy forwards occupancy updates to the sinks supporting them.
func (m *MultiSink) RecordOccupancy(ev events.Occupancy) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(OccupancyRecorder); ok {
			if err := rec.RecordOccupancy(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
