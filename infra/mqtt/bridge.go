package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/assetsim/core/engine"
	"github.com/kilianp07/assetsim/core/logger"
	"github.com/kilianp07/assetsim/core/model"
	"github.com/kilianp07/assetsim/core/monitoring"
	"github.com/kilianp07/assetsim/core/topology"
)

// Simulator is the part of the engine driven over MQTT.
type Simulator interface {
	Setup(ctx context.Context, experimentID string, snap topology.Snapshot) (engine.SetupResult, error)
	Teardown(experimentID string) error
	Advance(ctx context.Context, experimentID string, startAt, simulationAt int64, in model.Inputs) (model.Batch, error)
	UpdateCars(ctx context.Context, experimentID, stationID string, cars []int) error
}

// SuffixTeardown removes the experiment.
const SuffixTeardown = "teardown"

// publishTimeout bounds the wait for a broker acknowledgement.
const publishTimeout = 10 * time.Second

// ErrQueueFull is reported for requests dropped because the worker is
// behind.
var ErrQueueFull = errors.New("mqtt: request queue full")

// request is an incoming message waiting for the worker.
type request struct {
	topic   string
	payload []byte
}

// Bridge subscribes to the request topics of every experiment and
// publishes the engine outputs.
//
// The paho callback only queues requests. A single worker handles them in
// arrival order and does all publishing.
type Bridge struct {
	cfg        Config
	sim        Simulator
	desc       Descriptor
	log        logger.Logger
	monitor    monitoring.Monitor
	client     pahoClient
	maxRetries int
	backoff    time.Duration

	queue chan request
	done  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// BridgeOption customises a Bridge.
type BridgeOption func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(l logger.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithMonitor sets the monitor receiving transport failures.
func WithMonitor(m monitoring.Monitor) BridgeOption {
	return func(b *Bridge) {
		if m != nil {
			b.monitor = m
		}
	}
}

// NewBridge connects to the broker. Subscriptions and the module
// descriptor are (re)established on every connection.
func NewBridge(cfg Config, sim Simulator, desc Descriptor, opts ...BridgeOption) (*Bridge, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Broker == "" {
		return nil, errors.New("mqtt: broker is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	desc.ClientID = cfg.ClientID
	b := &Bridge{
		cfg:        cfg,
		sim:        sim,
		desc:       desc,
		log:        logger.Nop{},
		monitor:    monitoring.NopMonitor{},
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		queue:      make(chan request, cfg.QueueSize),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, o := range opts {
		o(b)
	}

	copts, err := NewClientOptions(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	copts.OnConnect = b.onConnect
	copts.OnConnectionLost = func(_ paho.Client, err error) {
		b.log.Warnf("mqtt connection lost: %v", err)
	}
	b.client = newMQTTClient(copts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		cancel()
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	go b.run()
	b.log.Infof("mqtt bridge connected to %s as %s", cfg.Broker, cfg.ClientID)
	return b, nil
}

func (b *Bridge) onConnect(paho.Client) {
	topics := map[string]paho.MessageHandler{
		b.cfg.TopicPrefix + "/+/" + SuffixSetup:     b.enqueue,
		b.cfg.TopicPrefix + "/+/" + SuffixTeardown:  b.enqueue,
		b.cfg.TopicPrefix + "/+/" + SuffixTick:      b.enqueue,
		b.cfg.TopicPrefix + "/+/" + SuffixOccupancy: b.enqueue,
	}
	for topic, h := range topics {
		if token := b.client.Subscribe(topic, b.cfg.qos("request"), h); token.Wait() && token.Error() != nil {
			b.log.Errorf("subscribe %s: %v", topic, token.Error())
			b.capture(token.Error(), map[string]string{"topic": topic})
		}
	}
	if err := b.publish(b.cfg.TopicPrefix+"/"+ModuleTopic, b.cfg.qos("module"), true, b.desc); err != nil {
		b.log.Errorf("publish module descriptor: %v", err)
	}
}

// enqueue is the paho message handler. It never blocks: when the queue is
// full the request is dropped and reported on the error topic.
func (b *Bridge) enqueue(_ paho.Client, msg paho.Message) {
	req := request{topic: msg.Topic(), payload: msg.Payload()}
	select {
	case <-b.ctx.Done():
	case b.queue <- req:
	default:
		expID, suffix, err := parseTopic(b.cfg.TopicPrefix, req.topic)
		if err != nil {
			b.log.Warnf("mqtt: %v", err)
			return
		}
		b.log.Errorf("experiment %s: %s dropped: %v", expID, suffix, ErrQueueFull)
		// paho handlers must not publish synchronously
		go b.reject(expID, suffix, ErrQueueFull)
	}
}

// run handles queued requests one at a time until the bridge is closed.
func (b *Bridge) run() {
	defer close(b.done)
	for {
		select {
		case <-b.ctx.Done():
			return
		case req := <-b.queue:
			b.handle(req)
		}
	}
}

// handle routes one request.
func (b *Bridge) handle(req request) {
	expID, suffix, err := parseTopic(b.cfg.TopicPrefix, req.topic)
	if err != nil {
		b.log.Warnf("mqtt: %v", err)
		return
	}
	ctx := b.ctx
	switch suffix {
	case SuffixSetup:
		err = b.onSetup(ctx, expID, req.payload)
	case SuffixTeardown:
		err = b.sim.Teardown(expID)
	case SuffixTick:
		err = b.onTick(ctx, expID, req.payload)
	case SuffixOccupancy:
		err = b.onOccupancy(ctx, expID, req.payload)
	default:
		return
	}
	if err != nil {
		b.log.Errorf("experiment %s: %s: %v", expID, suffix, err)
		b.reject(expID, suffix, err)
	}
}

// reject reports a failed request to the monitor and on the error topic.
func (b *Bridge) reject(expID, suffix string, err error) {
	b.capture(err, map[string]string{"experiment_id": expID, "request": suffix})
	report := ErrorReport{Request: suffix, Error: err.Error()}
	if perr := b.publish(Topic(b.cfg.TopicPrefix, expID, SuffixError), b.cfg.qos("error"), false, report); perr != nil {
		b.log.Errorf("publish error report: %v", perr)
	}
}

func (b *Bridge) onSetup(ctx context.Context, expID string, payload []byte) error {
	var snap topology.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	res, err := b.sim.Setup(ctx, expID, snap)
	if err != nil {
		return err
	}
	return b.publish(Topic(b.cfg.TopicPrefix, expID, SuffixOutput), b.cfg.qos("output"), false, Output{
		SimulationAt: res.Init.SimulationAt,
		Series:       res.Init.Series,
		Errors:       errorStrings(res.Problems),
	})
}

func (b *Bridge) onTick(ctx context.Context, expID string, payload []byte) error {
	var req TickRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decode tick: %w", err)
	}
	batch, err := b.sim.Advance(ctx, expID, req.StartAt, req.SimulationAt, req.Inputs)
	if err != nil && batch.Phase == 0 {
		// nothing ran
		return err
	}
	out := Output{SimulationAt: req.SimulationAt, Phase: batch.Phase, Series: batch.Series}
	if err != nil {
		out.Errors = errorStrings(unjoin(err))
	}
	return b.publish(Topic(b.cfg.TopicPrefix, expID, SuffixOutput), b.cfg.qos("output"), false, out)
}

func (b *Bridge) onOccupancy(ctx context.Context, expID string, payload []byte) error {
	var rep OccupancyReport
	if err := json.Unmarshal(payload, &rep); err != nil {
		return fmt.Errorf("decode occupancy: %w", err)
	}
	return b.sim.UpdateCars(ctx, expID, rep.StationID, rep.Cars)
}

// publish encodes v and retries with exponential backoff. It gives up
// early when the bridge is closed.
func (b *Bridge) publish(topic string, qos byte, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		token := b.client.Publish(topic, qos, retained, payload)
		if !token.WaitTimeout(publishTimeout) {
			err = fmt.Errorf("no acknowledgement after %s", publishTimeout)
		} else {
			err = token.Error()
		}
		if err == nil {
			return nil
		}
		if attempt >= b.maxRetries {
			break
		}
		select {
		case <-b.ctx.Done():
			return fmt.Errorf("publish %s: %w", topic, b.ctx.Err())
		case <-time.After(b.backoff * time.Duration(1<<attempt)):
		}
	}
	b.capture(err, map[string]string{"topic": topic})
	return fmt.Errorf("publish %s: %w", topic, err)
}

func (b *Bridge) capture(err error, tags map[string]string) {
	t := map[string]string{"module": "mqtt"}
	for k, v := range tags {
		t[k] = v
	}
	b.monitor.CaptureException(err, t)
}

// Close stops the worker, dropping queued requests, and disconnects.
func (b *Bridge) Close() {
	b.cancel()
	<-b.done
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
