package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/assetsim/core/engine"
	"github.com/kilianp07/assetsim/core/model"
	"github.com/kilianp07/assetsim/core/topology"
)

type fakeSim struct {
	setups    []string
	teardowns []string
	ticks     []TickRequest
	cars      map[string][]int
	advance   func(TickRequest) (model.Batch, error)
}

func (f *fakeSim) Setup(_ context.Context, id string, snap topology.Snapshot) (engine.SetupResult, error) {
	f.setups = append(f.setups, id)
	var init model.Batch
	init.AddScalar("init-1", float64(len(snap.Structures)))
	return engine.SetupResult{Init: init, Problems: []error{errors.New("skipped x")}}, nil
}

func (f *fakeSim) Teardown(id string) error {
	f.teardowns = append(f.teardowns, id)
	return nil
}

func (f *fakeSim) Advance(_ context.Context, _ string, startAt, simAt int64, in model.Inputs) (model.Batch, error) {
	req := TickRequest{StartAt: startAt, SimulationAt: simAt, Inputs: in}
	f.ticks = append(f.ticks, req)
	if f.advance != nil {
		return f.advance(req)
	}
	b := model.Batch{SimulationAt: simAt, Phase: 1}
	b.AddScalar("out", 1)
	return b, nil
}

func (f *fakeSim) UpdateCars(_ context.Context, _ string, stationID string, cars []int) error {
	if stationID == "unknown" {
		return engine.ErrUnknownStation
	}
	if f.cars == nil {
		f.cars = map[string][]int{}
	}
	f.cars[stationID] = cars
	return nil
}

type captured struct {
	mu   sync.Mutex
	errs []error
	tags []map[string]string
}

func (c *captured) CaptureException(err error, tags map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
}
func (c *captured) Recover()            {}
func (c *captured) Flush(time.Duration) {}

func (c *captured) snapshot() ([]error, []map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...), append([]map[string]string(nil), c.tags...)
}

func testConfig() Config {
	return Config{Broker: "tcp://localhost:1883", ClientID: "sim", TopicPrefix: "sim", MaxRetries: 1, BackoffMS: 1,
		QoS: map[string]byte{"request": 1, "output": 2}}
}

func newTestBridge(t *testing.T, mc *mockClient, sim Simulator, opts ...BridgeOption) *Bridge {
	t.Helper()
	return newTestBridgeWithConfig(t, mc, sim, testConfig(), opts...)
}

func newTestBridgeWithConfig(t *testing.T, mc *mockClient, sim Simulator, cfg Config, opts ...BridgeOption) *Bridge {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
	b, err := NewBridge(cfg, sim, Descriptor{Name: "assetsim", SamplingRate: 60, Hooks: []int{100, 910}}, opts...)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

// waitSent waits until n messages were published on topic and returns them.
func waitSent(t *testing.T, mc *mockClient, topic string, n int) []published {
	t.Helper()
	require.Eventually(t, func() bool { return len(mc.sent(topic)) >= n }, 2*time.Second, 2*time.Millisecond, "waiting for %d messages on %s", n, topic)
	return mc.sent(topic)
}

func TestBridgeSubscribesAndAnnounces(t *testing.T) {
	mc := &mockClient{}
	newTestBridge(t, mc, &fakeSim{})

	for _, s := range []string{SuffixSetup, SuffixTeardown, SuffixTick, SuffixOccupancy} {
		qos, ok := mc.subscribed["sim/+/"+s]
		require.True(t, ok, s)
		assert.Equal(t, byte(1), qos)
	}
	mod := mc.sent("sim/module")
	require.Len(t, mod, 1)
	assert.True(t, mod[0].retained)
	var d Descriptor
	require.NoError(t, json.Unmarshal(mod[0].payload, &d))
	assert.Equal(t, "sim", d.ClientID)
	assert.Equal(t, []int{100, 910}, d.Hooks)
}

func TestBridgeTickPublishesOutput(t *testing.T) {
	mc := &mockClient{}
	sim := &fakeSim{}
	newTestBridge(t, mc, sim)

	req := `{"start_at":3600,"simulation_at":60,"inputs":{"scalars":{"pv-max":4}}}`
	require.True(t, mc.deliver("sim/exp1/tick", []byte(req)))
	out := waitSent(t, mc, "sim/exp1/output", 1)
	require.Len(t, out, 1)
	require.Len(t, sim.ticks, 1)
	assert.Equal(t, int64(3600), sim.ticks[0].StartAt)
	assert.Equal(t, 4.0, sim.ticks[0].Inputs.Scalars["pv-max"])

	assert.Equal(t, byte(2), out[0].qos)
	var o Output
	require.NoError(t, json.Unmarshal(out[0].payload, &o))
	assert.Equal(t, int64(60), o.SimulationAt)
	assert.Equal(t, 1, o.Phase)
	require.Len(t, o.Series, 1)
	assert.Empty(t, o.Errors)
}

func TestBridgeTickPartialFailure(t *testing.T) {
	mc := &mockClient{}
	sim := &fakeSim{advance: func(r TickRequest) (model.Batch, error) {
		b := model.Batch{SimulationAt: r.SimulationAt, Phase: 1}
		b.AddScalar("ok", 2)
		return b, errors.Join(errors.New("conn-a failed"), errors.New("conn-b failed"))
	}}
	newTestBridge(t, mc, sim)

	mc.deliver("sim/exp1/tick", []byte(`{"simulation_at":0}`))
	out := waitSent(t, mc, "sim/exp1/output", 1)
	require.Len(t, out, 1)
	var o Output
	require.NoError(t, json.Unmarshal(out[0].payload, &o))
	assert.Len(t, o.Series, 1)
	assert.Equal(t, []string{"conn-a failed", "conn-b failed"}, o.Errors)
	assert.Empty(t, mc.sent("sim/exp1/error"))
}

func TestBridgeTickRejected(t *testing.T) {
	mc := &mockClient{}
	mon := &captured{}
	sim := &fakeSim{advance: func(TickRequest) (model.Batch, error) {
		return model.Batch{}, engine.ErrUnknownExperiment
	}}
	newTestBridge(t, mc, sim, WithMonitor(mon))

	mc.deliver("sim/ghost/tick", []byte(`{"simulation_at":0}`))
	rep := waitSent(t, mc, "sim/ghost/error", 1)
	require.Len(t, rep, 1)
	assert.Empty(t, mc.sent("sim/ghost/output"))
	var r ErrorReport
	require.NoError(t, json.Unmarshal(rep[0].payload, &r))
	assert.Equal(t, SuffixTick, r.Request)
	errs, tags := mon.snapshot()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], engine.ErrUnknownExperiment)
	assert.Equal(t, "mqtt", tags[0]["module"])
	assert.Equal(t, "ghost", tags[0]["experiment_id"])
}

func TestBridgeBadPayload(t *testing.T) {
	mc := &mockClient{}
	sim := &fakeSim{}
	newTestBridge(t, mc, sim)

	mc.deliver("sim/exp1/tick", []byte(`{not json`))
	assert.Len(t, waitSent(t, mc, "sim/exp1/error", 1), 1)
	assert.Empty(t, sim.ticks)
}

func TestBridgeSetupOccupancyTeardown(t *testing.T) {
	mc := &mockClient{}
	sim := &fakeSim{}
	newTestBridge(t, mc, sim)

	mc.deliver("sim/exp2/setup", []byte(`{"structures":[{"id":"h1"}],"dynamics":[]}`))
	out := waitSent(t, mc, "sim/exp2/output", 1)
	require.Equal(t, []string{"exp2"}, sim.setups)
	require.Len(t, out, 1)
	var o Output
	require.NoError(t, json.Unmarshal(out[0].payload, &o))
	assert.Equal(t, 0, o.Phase)
	assert.Equal(t, []string{"skipped x"}, o.Errors)

	mc.deliver("sim/exp2/occupancy", []byte(`{"station_id":"cs1","cars":[1,0,2]}`))
	mc.deliver("sim/exp2/occupancy", []byte(`{"station_id":"unknown","cars":[1]}`))
	assert.Len(t, waitSent(t, mc, "sim/exp2/error", 1), 1)
	assert.Equal(t, []int{1, 0, 2}, sim.cars["cs1"])

	// requests are handled in order, so the tick output follows the teardown
	mc.deliver("sim/exp2/teardown", nil)
	mc.deliver("sim/exp2/tick", []byte(`{"simulation_at":0}`))
	waitSent(t, mc, "sim/exp2/output", 2)
	assert.Equal(t, []string{"exp2"}, sim.teardowns)
}

func TestBridgePublishRetry(t *testing.T) {
	mc := &mockClient{}
	sim := &fakeSim{}
	newTestBridge(t, mc, sim)

	mc.mu.Lock()
	mc.publishErrs = []error{fmt.Errorf("net fail"), nil}
	mc.mu.Unlock()
	mc.deliver("sim/exp1/tick", []byte(`{"simulation_at":0}`))
	assert.Len(t, waitSent(t, mc, "sim/exp1/output", 2), 2)
}

func TestBridgePublishGivesUp(t *testing.T) {
	mc := &mockClient{}
	mon := &captured{}
	newTestBridge(t, mc, &fakeSim{}, WithMonitor(mon))

	mc.mu.Lock()
	mc.publishErrs = []error{fmt.Errorf("fail 1"), fmt.Errorf("fail 2"), fmt.Errorf("fail 3"), fmt.Errorf("fail 4")}
	mc.mu.Unlock()
	mc.deliver("sim/exp1/tick", []byte(`{"simulation_at":0}`))
	// MaxRetries 1: two output attempts then two error report attempts
	assert.Len(t, waitSent(t, mc, "sim/exp1/error", 2), 2)
	assert.Len(t, mc.sent("sim/exp1/output"), 2)
	errs, _ := mon.snapshot()
	assert.NotEmpty(t, errs)
}

func TestBridgeHandlerDoesNotWaitForEngine(t *testing.T) {
	mc := &mockClient{}
	started := make(chan int64, 4)
	release := make(chan struct{})
	sim := &fakeSim{advance: func(r TickRequest) (model.Batch, error) {
		started <- r.SimulationAt
		<-release
		return model.Batch{SimulationAt: r.SimulationAt, Phase: 1}, nil
	}}
	newTestBridge(t, mc, sim)

	delivered := make(chan struct{})
	go func() {
		mc.deliver("sim/exp1/tick", []byte(`{"simulation_at":0}`))
		mc.deliver("sim/exp1/tick", []byte(`{"simulation_at":60}`))
		close(delivered)
	}()
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatalf("message handler blocked while the engine was busy")
	}

	assert.Equal(t, int64(0), <-started)
	close(release)
	out := waitSent(t, mc, "sim/exp1/output", 2)
	var first, second Output
	require.NoError(t, json.Unmarshal(out[0].payload, &first))
	require.NoError(t, json.Unmarshal(out[1].payload, &second))
	assert.Equal(t, int64(0), first.SimulationAt)
	assert.Equal(t, int64(60), second.SimulationAt)
}

func TestBridgeQueueFullRejectsRequest(t *testing.T) {
	mc := &mockClient{}
	mon := &captured{}
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	sim := &fakeSim{advance: func(r TickRequest) (model.Batch, error) {
		started <- struct{}{}
		<-release
		return model.Batch{SimulationAt: r.SimulationAt, Phase: 1}, nil
	}}
	cfg := testConfig()
	cfg.QueueSize = 1
	newTestBridgeWithConfig(t, mc, sim, cfg, WithMonitor(mon))

	mc.deliver("sim/exp1/tick", []byte(`{"simulation_at":0}`))
	<-started
	mc.deliver("sim/exp1/tick", []byte(`{"simulation_at":60}`))
	mc.deliver("sim/exp1/tick", []byte(`{"simulation_at":120}`))

	rep := waitSent(t, mc, "sim/exp1/error", 1)
	var r ErrorReport
	require.NoError(t, json.Unmarshal(rep[0].payload, &r))
	assert.Equal(t, SuffixTick, r.Request)
	assert.Equal(t, ErrQueueFull.Error(), r.Error)
	errs, _ := mon.snapshot()
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], ErrQueueFull)

	close(release)
	assert.Len(t, waitSent(t, mc, "sim/exp1/output", 2), 2)
}

func TestNewBridgeConnectError(t *testing.T) {
	mc := &mockClient{connectErr: errors.New("refused")}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()
	_, err := NewBridge(Config{Broker: "tcp://localhost:1883"}, &fakeSim{}, Descriptor{})
	require.Error(t, err)

	_, err = NewBridge(Config{}, &fakeSim{}, Descriptor{})
	require.Error(t, err)
}

func TestParseTopic(t *testing.T) {
	id, suffix, err := parseTopic("sim", "sim/exp-1/tick")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", id)
	assert.Equal(t, "tick", suffix)
	assert.Equal(t, "sim/exp-1/output", Topic("sim", "exp-1", SuffixOutput))

	for _, bad := range []string{"other/exp/tick", "sim/tick", "sim//tick", "sim/a/b/c"} {
		_, _, err := parseTopic("sim", bad)
		assert.Error(t, err, bad)
	}
}
