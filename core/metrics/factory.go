package metrics

import (
	"fmt"

	"github.com/kilianp07/assetsim/core/factory"
)

// sinks holds the tick sink backends, registered by infra/metrics.
var sinks = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a tick sink backend available under name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinks.Register(name, f)
}

// SinkTypes lists the registered backend names.
func SinkTypes() []string { return sinks.Names() }

// NewMetricsSink builds the sinks receiving tick and occupancy events. No
// configuration records nothing, one yields that sink directly and several
// are combined into a MultiSink.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		s, err := sinks.Create(cfgs[0])
		if err != nil {
			return nil, fmt.Errorf("metrics sink %s: %w", cfgs[0].Type, err)
		}
		return s, nil
	}
	out := make([]MetricsSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			return nil, fmt.Errorf("metrics sink %d (%s): %w", i, c.Type, err)
		}
		out[i] = s
	}
	return NewMultiSink(out...), nil
}
