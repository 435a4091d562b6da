// Package metrics defines the sinks that observe simulation ticks. Sinks
// like PromSink and InfluxSink live in infra/metrics and register
// themselves by type name; NewMetricsSink combines several of them into a
// MultiSink.
package metrics
