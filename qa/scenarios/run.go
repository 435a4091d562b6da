package scenarios

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/assetsim/core/engine"
	"github.com/kilianp07/assetsim/core/model"
	"github.com/kilianp07/assetsim/core/topology"
)

// Simulator is the engine surface a scenario drives.
type Simulator interface {
	Setup(ctx context.Context, experimentID string, snap topology.Snapshot) (engine.SetupResult, error)
	Advance(ctx context.Context, experimentID string, startAt, simulationAt int64, in model.Inputs) (model.Batch, error)
	UpdateCars(ctx context.Context, experimentID, stationID string, cars []int) error
}

// Step is the outcome of one engine call.
type Step struct {
	SimulationAt int64          `json:"simulation_at"`
	Phase        int            `json:"phase"`
	Series       []model.Series `json:"series"`
	Errors       []string       `json:"errors,omitempty"`
}

// Result collects every step of a run.
type Result struct {
	Name         string `json:"name"`
	ExperimentID string `json:"experiment_id"`
	Steps        []Step `json:"steps"`
	Failures     int    `json:"failures"`
}

// Last returns the most recent emission of the series id.
func (r *Result) Last(id string) (model.Series, bool) {
	for i := len(r.Steps) - 1; i >= 0; i-- {
		for _, s := range r.Steps[i].Series {
			if s.DynamicID == id {
				return s, true
			}
		}
	}
	return model.Series{}, false
}

// Batches returns the steps as engine batches.
func (r *Result) Batches() []model.Batch {
	out := make([]model.Batch, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = model.Batch{SimulationAt: s.SimulationAt, Phase: s.Phase, Series: s.Series}
	}
	return out
}

// Run sets the scenario up on sim and replays every tick. Entity failures
// are counted in the result; only errors that stop the run are returned.
func Run(ctx context.Context, sim Simulator, sc *Scenario) (*Result, error) {
	res := &Result{Name: sc.Name, ExperimentID: sc.ExperimentID}
	setup, err := sim.Setup(ctx, sc.ExperimentID, sc.Topology)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	res.Steps = append(res.Steps, Step{SimulationAt: sc.FirstTick, Series: setup.Init.Series})

	occ := append([]OccupancyEvent(nil), sc.Occupancy...)
	sort.SliceStable(occ, func(i, j int) bool { return occ[i].At < occ[j].At })
	next := 0

	for i := 0; i < sc.Ticks; i++ {
		at := sc.FirstTick + int64(i)*sc.TickSeconds
		for ; next < len(occ) && occ[next].At <= at; next++ {
			ev := occ[next]
			if err := sim.UpdateCars(ctx, sc.ExperimentID, ev.StationID, ev.Cars); err != nil {
				return res, fmt.Errorf("occupancy of %s at %d: %w", ev.StationID, ev.At, err)
			}
		}
		in := sc.inputsAt(at)
		for p := 0; p < sc.Phases; p++ {
			b, err := sim.Advance(ctx, sc.ExperimentID, sc.StartAt, at, in)
			step := Step{SimulationAt: at, Phase: b.Phase, Series: b.Series}
			if err != nil {
				if b.Phase == 0 {
					return res, fmt.Errorf("tick %d: %w", at, err)
				}
				step.Errors = errorStrings(err)
				res.Failures += len(step.Errors)
			}
			res.Steps = append(res.Steps, step)
		}
	}
	return res, nil
}

// inputsAt merges the constant inputs with every override due at at.
func (s *Scenario) inputsAt(at int64) model.Inputs {
	in := model.Inputs{
		Scalars: map[string]float64{},
		Vectors: map[string][]float64{},
		Texts:   map[string]string{},
	}
	apply := func(src model.Inputs) {
		for k, v := range src.Scalars {
			in.Scalars[k] = v
		}
		for k, v := range src.Vectors {
			in.Vectors[k] = append([]float64(nil), v...)
		}
		for k, v := range src.Texts {
			in.Texts[k] = v
		}
	}
	apply(s.Inputs)
	ovs := append([]Override(nil), s.Overrides...)
	sort.SliceStable(ovs, func(i, j int) bool { return ovs[i].At < ovs[j].At })
	for _, o := range ovs {
		if o.At <= at {
			apply(o.Inputs)
		}
	}
	return in
}

// Check compares the result with the scenario expectations.
func Check(sc *Scenario, res *Result) error {
	var errs []error
	if res.Failures != sc.Expected.Failures {
		errs = append(errs, fmt.Errorf("expected %d failures, got %d", sc.Expected.Failures, res.Failures))
	}
	for _, id := range sc.Expected.Present {
		if _, ok := res.Last(id); !ok {
			errs = append(errs, fmt.Errorf("series %s never emitted", id))
		}
	}
	ids := make([]string, 0, len(sc.Expected.Series))
	for id := range sc.Expected.Series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		want := sc.Expected.Series[id]
		got, ok := res.Last(id)
		if !ok {
			errs = append(errs, fmt.Errorf("series %s never emitted", id))
			continue
		}
		if !closeTo(got.Values, want, sc.Expected.Tolerance) {
			errs = append(errs, fmt.Errorf("series %s: expected %v, got %v", id, want, got.Values))
		}
	}
	return errors.Join(errs...)
}

func closeTo(got, want []float64, tol float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			return false
		}
	}
	return true
}

func errorStrings(err error) []string {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		out := make([]string, 0, len(j.Unwrap()))
		for _, e := range j.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
