package metrics

import "github.com/kilianp07/assetsim/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint. The
	// endpoint is disabled when empty.
	PrometheusAddr string `json:"prometheus_addr"`
}
