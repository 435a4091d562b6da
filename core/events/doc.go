// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - Tick: one call into the engine with per-connector samples
//   - Occupancy: a bay occupancy report applied to a charging station
package events
