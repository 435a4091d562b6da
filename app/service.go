// Package app wires the engine to its transports for the serve command.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	apiexp "github.com/kilianp07/assetsim/api/experiments"
	apijournal "github.com/kilianp07/assetsim/api/journal"
	"github.com/kilianp07/assetsim/config"
	"github.com/kilianp07/assetsim/core/engine"
	"github.com/kilianp07/assetsim/core/events"
	"github.com/kilianp07/assetsim/core/journal"
	coremetrics "github.com/kilianp07/assetsim/core/metrics"
	coremon "github.com/kilianp07/assetsim/core/monitoring"
	"github.com/kilianp07/assetsim/core/profile"
	"github.com/kilianp07/assetsim/infra/logger"
	"github.com/kilianp07/assetsim/infra/metrics"
	"github.com/kilianp07/assetsim/infra/monitoring"
	"github.com/kilianp07/assetsim/infra/mqtt"
	"github.com/kilianp07/assetsim/infra/profilecsv"
	"github.com/kilianp07/assetsim/internal/eventbus"
	"github.com/kilianp07/assetsim/qa/scenarios"
)

// ModuleName identifies the simulator towards MQTT hosts.
const ModuleName = "assetsim"

// Service orchestrates the engine, its transports and the metrics.
type Service struct {
	Engine *engine.Engine

	cfg       *config.Config
	log       logger.Logger
	monitor   coremon.Monitor
	ticks     *eventbus.TypedBus[events.Tick]
	occupancy *eventbus.TypedBus[events.Occupancy]
	sink      coremetrics.MetricsSink
	journal   journal.Store
	bridge    *mqtt.Bridge
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	table, err := loadProfile(cfg.Simulation.ProfilePath, logg)
	if err != nil {
		return nil, err
	}
	store, err := journal.New(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	s := &Service{
		cfg:       cfg,
		log:       logg,
		monitor:   mon,
		ticks:     eventbus.NewTyped[events.Tick](),
		occupancy: eventbus.NewTyped[events.Occupancy](),
		sink:      sink,
		journal:   store,
	}
	s.Engine = engine.New(cfg.EngineConfig(), table,
		engine.WithLogger(logger.New("engine")),
		engine.WithMonitor(mon),
		engine.WithTickPublisher(s.ticks),
		engine.WithOccupancyPublisher(s.occupancy),
		engine.WithJournal(store),
	)

	if path := cfg.Simulation.ScenarioPath; path != "" {
		if err := s.preload(path); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func loadProfile(path string, log logger.Logger) (*profile.Table, error) {
	if path == "" {
		log.Warnf("no profile configured, connectors will fail until one is set")
		return nil, nil
	}
	table, err := profilecsv.Load(path)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	log.Infof("profile %s loaded: %d rows, %d columns", path, table.Len(), len(table.Columns()))
	return table, nil
}

// preload registers the topology of a scenario file as an experiment.
func (s *Service) preload(path string) error {
	sc, err := scenarios.Load(path)
	if err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	res, err := s.Engine.Setup(context.Background(), sc.ExperimentID, sc.Topology)
	if err != nil {
		return fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	s.log.Infof("scenario %s preloaded as %s (%d problems)", sc.Name, sc.ExperimentID, len(res.Problems))
	return nil
}

// Handler returns the HTTP API: experiments, journal, metrics and health.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	apiexp.Register(r, s.Engine)
	r.Handle("/api/journal", apijournal.NewHandler(s.journal, s.cfg.HTTP.Token)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler(nil)).Methods(http.MethodGet)
	return handlers.RecoveryHandler()(r)
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.ticks, s.occupancy, s.sink, logger.New("metrics"))

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			defer coremon.Recover()
			if err := metrics.StartPromServer(ctx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	if s.cfg.MQTT.Broker != "" {
		desc := mqtt.Descriptor{Name: ModuleName, SamplingRate: s.cfg.Simulation.TickSeconds, Hooks: s.cfg.Simulation.Hooks}
		bridge, err := mqtt.NewBridge(s.cfg.MQTT, s.Engine, desc, mqtt.WithLogger(logger.New("mqtt")), mqtt.WithMonitor(s.monitor))
		if err != nil {
			return fmt.Errorf("mqtt bridge: %w", err)
		}
		s.bridge = bridge
	}

	errCh := make(chan error, 1)
	if addr := s.cfg.HTTP.Addr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           handlers.LoggingHandler(os.Stdout, s.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.log.Warnf("http shutdown: %v", err)
			}
		}()
		go func() {
			s.log.Infof("http api listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("http api: %w", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.bridge != nil {
		s.bridge.Close()
	}
	s.ticks.Close()
	s.occupancy.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.monitor.Flush(2 * time.Second)
	return s.journal.Close()
}
