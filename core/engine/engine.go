// Package engine advances the experiments of an energy community one tick
// at a time.
//
// Every call to Advance runs one phase of a tick. The first call for a new
// simulation time updates the assets of every connector and the second one
// computes the grid sensor measurements from the power flow the host
// derived in between. Further calls for the same time produce empty
// batches.
//
// Entities are isolated from each other: a connector or sensor that fails
// is reported through an EntityError while the outputs of all other
// entities are still returned.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/assetsim/core/ev"
	"github.com/kilianp07/assetsim/core/events"
	"github.com/kilianp07/assetsim/core/infeed"
	"github.com/kilianp07/assetsim/core/journal"
	"github.com/kilianp07/assetsim/core/logger"
	"github.com/kilianp07/assetsim/core/model"
	"github.com/kilianp07/assetsim/core/monitoring"
	"github.com/kilianp07/assetsim/core/profile"
	"github.com/kilianp07/assetsim/core/store"
	"github.com/kilianp07/assetsim/core/topology"
)

// Config holds the simulation parameters shared by all experiments.
type Config struct {
	// TickSeconds is the simulated duration of one tick.
	TickSeconds float64
	// Hooks names the host hook processed by each phase. It is only used
	// for logging.
	Hooks   []int
	EV      ev.Params
	Catalog ev.Catalog
	Wind    infeed.WindParams
	Assets  topology.AssetDefaults
}

// DefaultConfig returns a configuration with a one minute tick.
func DefaultConfig() Config {
	return Config{
		TickSeconds: 60,
		Hooks:       []int{100, 910},
		EV:          ev.DefaultParams(),
		Catalog:     ev.Catalog{},
		Wind:        infeed.WindParams{ConversionFactor: 1},
		Assets:      topology.DefaultAssets(),
	}
}

func (c Config) tickHours() float64 { return c.TickSeconds / 3600 }

// Engine runs the experiments registered with Setup.
type Engine struct {
	cfg     Config
	profile *profile.Table
	store   *store.ExperimentStore

	log       logger.Logger
	monitor   monitoring.Monitor
	ticks     TickPublisher
	occupancy OccupancyPublisher
	journal   journal.Store
	now       func() time.Time
}

// New creates an engine reading base demand and weather from table.
func New(cfg Config, table *profile.Table, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		profile: table,
		store:   store.New(),
		log:     logger.Nop{},
		monitor: monitoring.NopMonitor{},
		journal: journal.NopStore{},
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SetupResult describes a freshly registered experiment.
type SetupResult struct {
	// Init holds the outputs to publish before the first tick.
	Init       model.Batch
	Connectors int
	Sensors    int
	// Problems lists the entities that were skipped or degraded.
	Problems []error
}

// Setup resolves the snapshot and registers the experiment, replacing any
// previous experiment with the same identifier. Entities that fail to
// resolve are skipped and reported in SetupResult.Problems.
func (e *Engine) Setup(ctx context.Context, experimentID string, snap topology.Snapshot) (SetupResult, error) {
	if err := ctx.Err(); err != nil {
		return SetupResult{}, err
	}
	if experimentID == "" {
		return SetupResult{}, errors.New("setup: empty experiment id")
	}
	res := topology.Resolve(snap, experimentID, e.cfg.Assets)
	for _, p := range res.Errors {
		e.log.Warnf("experiment %s: %v", experimentID, p)
	}
	e.store.Put(store.NewExperiment(experimentID, res.Connectors, res.Sensors))
	e.log.Infof("experiment %s set up with %d connectors and %d sensors", experimentID, len(res.Connectors), len(res.Sensors))
	return SetupResult{
		Init:       res.Init,
		Connectors: len(res.Connectors),
		Sensors:    len(res.Sensors),
		Problems:   res.Errors,
	}, nil
}

// Teardown forgets the experiment.
func (e *Engine) Teardown(experimentID string) error {
	if !e.store.Remove(experimentID) {
		return ErrUnknownExperiment
	}
	e.log.Infof("experiment %s removed", experimentID)
	return nil
}

// Experiments returns the identifiers of all registered experiments.
func (e *Engine) Experiments() []string { return e.store.IDs() }

// Status returns a snapshot of the experiment state.
func (e *Engine) Status(experimentID string) (store.Status, error) {
	exp, err := e.store.Get(experimentID)
	if err != nil {
		return store.Status{}, err
	}
	return exp.Status(), nil
}

// Advance runs the next phase of the tick at simulationAt. startAt is the
// experiment start in seconds since the beginning of the year and selects
// the season. The returned batch always holds the outputs of the entities
// that succeeded; the error joins the EntityError of every failed entity.
func (e *Engine) Advance(ctx context.Context, experimentID string, startAt, simulationAt int64, in model.Inputs) (model.Batch, error) {
	if err := ctx.Err(); err != nil {
		return model.Batch{}, err
	}
	exp, err := e.store.Get(experimentID)
	if err != nil {
		return model.Batch{}, err
	}
	if !exp.BeginTick() {
		return model.Batch{}, ErrTickInProgress
	}
	defer exp.EndTick()

	begin := e.now()
	phase := exp.NextPhase(simulationAt)
	if phase <= len(e.cfg.Hooks) {
		e.log.Debugf("experiment %s: processing hook %d", experimentID, e.cfg.Hooks[phase-1])
	}

	t := tick{
		engine:       e,
		exp:          exp,
		startAt:      startAt,
		simulationAt: simulationAt,
		phase:        phase,
		in:           in,
		batch:        model.Batch{SimulationAt: simulationAt, Phase: phase},
	}
	switch phase {
	case 1:
		t.updateConnectors()
	case 2:
		t.updateSensors()
	default:
		e.log.Debugf("experiment %s: nothing to do in phase %d at %d", experimentID, phase, simulationAt)
	}

	e.record(ctx, &t, e.now().Sub(begin))
	return t.batch, errors.Join(t.errs...)
}

func (e *Engine) record(ctx context.Context, t *tick, d time.Duration) {
	now := e.now()
	if err := e.journal.Append(ctx, journal.NewRecord(t.exp.ID, t.batch, t.errs, now)); err != nil {
		e.log.Errorf("experiment %s: journal append: %v", t.exp.ID, err)
	}
	if e.ticks == nil {
		return
	}
	e.ticks.Publish(events.Tick{
		ExperimentID: t.exp.ID,
		SimulationAt: t.simulationAt,
		Phase:        t.phase,
		Duration:     d,
		Series:       t.batch.Len(),
		Failures:     len(t.errs),
		Connectors:   t.samples,
		Time:         now,
	})
}

// UpdateCars applies a bay occupancy report to a managed charging station.
// The first report creates one slot per charging slot of the station; every
// report must cover all of them. A tick in progress sees either the previous or the new assignment.
func (e *Engine) UpdateCars(ctx context.Context, experimentID, stationID string, cars []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	exp, err := e.store.Get(experimentID)
	if err != nil {
		return err
	}
	slots, ok := exp.StationSlots(stationID)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownStation, stationID)
	}
	err = exp.UpdateAssignment(stationID, func(prev *model.CarAssignment) (*model.CarAssignment, error) {
		return ev.ApplyOccupancy(prev, stationID, slots, cars, e.cfg.Catalog, e.cfg.EV)
	})
	if err != nil {
		return err
	}
	e.log.Debugw("occupancy updated", map[string]any{"experiment_id": experimentID, "station_id": stationID, "cars": cars})
	if e.occupancy != nil {
		reported := make([]int, len(cars))
		copy(reported, cars)
		e.occupancy.Publish(events.Occupancy{ExperimentID: experimentID, StationID: stationID, Cars: reported, Time: e.now()})
	}
	return nil
}
