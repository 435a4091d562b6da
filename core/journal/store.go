// Package journal persists one record per engine call so runs can be
// audited and replayed offline.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/assetsim/core/model"
)

// Record is the journal entry of one tick.
type Record struct {
	ID           uuid.UUID   `json:"id"`
	Timestamp    time.Time   `json:"timestamp"`
	ExperimentID string      `json:"experiment_id"`
	SimulationAt int64       `json:"simulation_at"`
	Phase        int         `json:"phase"`
	Batch        model.Batch `json:"batch"`
	Errors       []string    `json:"errors,omitempty"`
}

// NewRecord stamps a batch with a fresh identifier.
func NewRecord(experimentID string, b model.Batch, errs []error, ts time.Time) Record {
	rec := Record{
		ID:           uuid.New(),
		Timestamp:    ts,
		ExperimentID: experimentID,
		SimulationAt: b.SimulationAt,
		Phase:        b.Phase,
		Batch:        b,
	}
	for _, err := range errs {
		if err != nil {
			rec.Errors = append(rec.Errors, err.Error())
		}
	}
	return rec
}

// Query filters records. Zero values match everything.
type Query struct {
	Start        time.Time
	End          time.Time
	ExperimentID string
	Phase        int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.ExperimentID != "" && r.ExperimentID != q.ExperimentID {
		return false
	}
	if q.Phase != 0 && r.Phase != q.Phase {
		return false
	}
	return true
}

// Store persists tick records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
