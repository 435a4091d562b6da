package engine

import (
	"time"

	"github.com/kilianp07/assetsim/core/events"
	"github.com/kilianp07/assetsim/core/journal"
	"github.com/kilianp07/assetsim/core/logger"
	"github.com/kilianp07/assetsim/core/monitoring"
)

// TickPublisher receives an event after every call into the engine.
type TickPublisher interface {
	Publish(events.Tick)
}

// OccupancyPublisher receives an event for every applied occupancy report.
type OccupancyPublisher interface {
	Publish(events.Occupancy)
}

// Option customises an Engine.
type Option func(*Engine)

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMonitor sets the error reporter used for entity failures.
func WithMonitor(m monitoring.Monitor) Option {
	return func(e *Engine) {
		if m != nil {
			e.monitor = m
		}
	}
}

func WithTickPublisher(p TickPublisher) Option {
	return func(e *Engine) { e.ticks = p }
}

func WithOccupancyPublisher(p OccupancyPublisher) Option {
	return func(e *Engine) { e.occupancy = p }
}

// WithJournal records every tick in s.
func WithJournal(s journal.Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.journal = s
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
