package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/assetsim/core/events"
	coremetrics "github.com/kilianp07/assetsim/core/metrics"
)

// PromSink exposes tick events as Prometheus metrics.
type PromSink struct {
	ticks      *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	netPower   *prometheus.GaugeVec
	batterySoC *prometheus.GaugeVec
	shifted    *prometheus.GaugeVec
	occupancy  *prometheus.CounterVec
}

// NewPromSink registers the simulator metrics on the default Prometheus
// registerer. The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assetsim_ticks_total",
			Help: "Total number of engine calls",
		}, []string{"experiment_id", "phase"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assetsim_entity_failures_total",
			Help: "Total number of connector and sensor updates that failed",
		}, []string{"experiment_id", "phase"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assetsim_tick_duration_seconds",
			Help:    "Wall clock time spent in one engine call",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"phase"}),
		netPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assetsim_connector_net_power_kw",
			Help: "Net power of a connector after the last asset update",
		}, []string{"experiment_id", "connector_id"}),
		batterySoC: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assetsim_battery_soc_percent",
			Help: "State of charge of a connector battery",
		}, []string{"experiment_id", "connector_id"}),
		shifted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "assetsim_ev_shifted_energy",
			Help: "Charging demand shifted to later ticks",
		}, []string{"experiment_id", "connector_id"}),
		occupancy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assetsim_occupancy_updates_total",
			Help: "Total number of applied bay occupancy reports",
		}, []string{"experiment_id", "station_id"}),
	}
	var err error
	if s.ticks, err = register(reg, s.ticks); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, s.failures); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.netPower, err = register(reg, s.netPower); err != nil {
		return nil, err
	}
	if s.batterySoC, err = register(reg, s.batterySoC); err != nil {
		return nil, err
	}
	if s.shifted, err = register(reg, s.shifted); err != nil {
		return nil, err
	}
	if s.occupancy, err = register(reg, s.occupancy); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg and returns the collector already registered
// under the same descriptor if there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTick updates the counters and the per connector gauges.
func (s *PromSink) RecordTick(ev events.Tick) error {
	phase := strconv.Itoa(ev.Phase)
	s.ticks.WithLabelValues(ev.ExperimentID, phase).Inc()
	if ev.Failures > 0 {
		s.failures.WithLabelValues(ev.ExperimentID, phase).Add(float64(ev.Failures))
	}
	s.duration.WithLabelValues(phase).Observe(ev.Duration.Seconds())
	for _, c := range ev.Connectors {
		s.netPower.WithLabelValues(ev.ExperimentID, c.ConnectorID).Set(c.NetPowerKW)
		if c.HasBattery {
			s.batterySoC.WithLabelValues(ev.ExperimentID, c.ConnectorID).Set(c.BatterySoC)
		}
		if c.HasEV {
			s.shifted.WithLabelValues(ev.ExperimentID, c.ConnectorID).Set(c.ShiftedEnergy)
		}
	}
	return nil
}

// RecordOccupancy counts applied occupancy reports.
func (s *PromSink) RecordOccupancy(ev events.Occupancy) error {
	s.occupancy.WithLabelValues(ev.ExperimentID, ev.StationID).Inc()
	return nil
}
