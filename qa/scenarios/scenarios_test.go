package scenarios

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/assetsim/core/engine"
	"github.com/kilianp07/assetsim/core/events"
	"github.com/kilianp07/assetsim/core/ev"
	coremetrics "github.com/kilianp07/assetsim/core/metrics"
	"github.com/kilianp07/assetsim/core/model"
	"github.com/kilianp07/assetsim/core/topology"
	"github.com/kilianp07/assetsim/infra/metrics"
)

type sinkPublisher struct {
	t    *testing.T
	sink coremetrics.MetricsSink
}

func (p sinkPublisher) Publish(e events.Tick) {
	if err := p.sink.RecordTick(e); err != nil {
		p.t.Errorf("record tick: %v", err)
	}
}

func testConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Catalog = ev.Catalog{1: {CapacityKWh: 50, PowerKW: 11}, 2: {CapacityKWh: 40, PowerKW: 7}}
	return cfg
}

func TestScenario(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenarios found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

// RunScenario replays sc on a fresh engine and checks the expectations
// and the tick metrics.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	tbl, err := sc.Table()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	eng := engine.New(testConfig(), tbl, engine.WithTickPublisher(sinkPublisher{t: t, sink: sink}))

	res, err := Run(context.Background(), eng, sc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := Check(sc, res); err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}
	if want := sc.Ticks * sc.Phases; len(res.Steps) != want+1 {
		t.Fatalf("expected %d steps, got %d", want+1, len(res.Steps))
	}
	var want strings.Builder
	want.WriteString("# HELP assetsim_ticks_total Total number of engine calls\n# TYPE assetsim_ticks_total counter\n")
	for p := 1; p <= sc.Phases; p++ {
		fmt.Fprintf(&want, "assetsim_ticks_total{experiment_id=%q,phase=\"%d\"} %d\n", sc.ExperimentID, p, sc.Ticks)
	}
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want.String()), "assetsim_ticks_total"); err != nil {
		t.Errorf("tick metrics: %v", err)
	}
}

func TestInputsAt(t *testing.T) {
	sc := &Scenario{
		Inputs: model.Inputs{Scalars: map[string]float64{"a": 1, "b": 2}},
		Overrides: []Override{
			{At: 120, Inputs: model.Inputs{Scalars: map[string]float64{"a": 3}}},
			{At: 60, Inputs: model.Inputs{Scalars: map[string]float64{"a": 2}, Texts: map[string]string{"t": "x"}}},
		},
	}
	cases := []struct {
		at   int64
		a    float64
		text string
	}{
		{0, 1, ""},
		{60, 2, "x"},
		{90, 2, "x"},
		{180, 3, "x"},
	}
	for _, c := range cases {
		in := sc.inputsAt(c.at)
		if in.Scalars["a"] != c.a || in.Scalars["b"] != 2 || in.Texts["t"] != c.text {
			t.Errorf("at %d: unexpected inputs %+v", c.at, in)
		}
	}
	if sc.Inputs.Scalars["a"] != 1 {
		t.Fatal("constant inputs mutated")
	}
}

type failingSim struct{ engine.SetupResult }

func (f failingSim) Setup(context.Context, string, topology.Snapshot) (engine.SetupResult, error) {
	return f.SetupResult, nil
}

func (failingSim) Advance(context.Context, string, int64, int64, model.Inputs) (model.Batch, error) {
	return model.Batch{}, engine.ErrUnknownExperiment
}

func (failingSim) UpdateCars(context.Context, string, string, []int) error {
	return engine.ErrUnknownStation
}

func TestRunStopsOnRejectedTick(t *testing.T) {
	sc := &Scenario{Name: "x", ExperimentID: "x", Ticks: 2, Phases: 2, TickSeconds: 60}
	if _, err := Run(context.Background(), failingSim{}, sc); err == nil {
		t.Fatal("expected error")
	}
	sc.Occupancy = []OccupancyEvent{{At: 0, StationID: "s"}}
	if _, err := Run(context.Background(), failingSim{}, sc); err == nil {
		t.Fatal("expected occupancy error")
	}
}

func TestCheck(t *testing.T) {
	sc := &Scenario{Expected: Expected{
		Failures:  1,
		Series:    map[string][]float64{"a": {1, 2}},
		Present:   []string{"b"},
		Tolerance: 1e-3,
	}}
	res := &Result{Failures: 1, Steps: []Step{
		{Series: []model.Series{{DynamicID: "a", Values: []float64{0, 0}}, {DynamicID: "b"}}},
		{Series: []model.Series{{DynamicID: "a", Values: []float64{1, 2.0001}}}},
	}}
	if err := Check(sc, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res.Failures = 0
	res.Steps = res.Steps[:1]
	if err := Check(sc, res); err == nil {
		t.Fatal("expected mismatch")
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	for _, data := range []string{":", "name: empty\n"} {
		tmp, err := os.CreateTemp(t.TempDir(), "bad*.yaml")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := tmp.WriteString(data); err != nil {
			t.Fatal(err)
		}
		if err := tmp.Close(); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(tmp.Name()); err == nil {
			t.Fatalf("expected error for %q", data)
		}
	}
}
