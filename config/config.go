// Package config loads the service configuration from a YAML or JSON file
// with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/assetsim/core/engine"
	"github.com/kilianp07/assetsim/core/factory"
	"github.com/kilianp07/assetsim/core/journal"
	"github.com/kilianp07/assetsim/core/metrics"
	"github.com/kilianp07/assetsim/core/topology"
	"github.com/kilianp07/assetsim/infra/mqtt"
)

// EnvPrefix prefixes the environment overrides. Nested keys are separated
// by a double underscore, e.g. ASSETSIM_SIMULATION__TICK_SECONDS.
const EnvPrefix = "ASSETSIM_"

type Config struct {
	Simulation SimulationConfig       `json:"simulation"`
	Assets     topology.AssetDefaults `json:"assets"`
	EV         EVConfig               `json:"ev"`
	Wind       WindConfig             `json:"wind"`
	MQTT       mqtt.Config            `json:"mqtt"`
	Metrics    metrics.Config         `json:"metrics"`
	Journal    factory.ModuleConfig   `json:"journal"`
	HTTP       HTTPConfig             `json:"http"`
	Logging    LoggingConfig          `json:"logging"`
	Sentry     SentryConfig           `json:"sentry"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{Assets: topology.DefaultAssets()}
	cfg.SetDefaults()
	return cfg
}

// Load reads path, applies the environment overrides and validates the
// result. An empty path loads the defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Config{Assets: topology.DefaultAssets()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills the unset optional fields of every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.EV.SetDefaults()
	c.Wind.SetDefaults()
	c.MQTT.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
	if c.Journal.Type == "" {
		c.Journal.Type = "nop"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"simulation", c.Simulation.Validate},
		{"ev", c.EV.Validate},
		{"wind", c.Wind.Validate},
		{"mqtt", c.MQTT.Validate},
		{"logging", c.Logging.Validate},
		{"sentry", c.Sentry.Validate},
		{"journal", c.validateJournal},
		{"metrics", c.validateMetrics},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

func (c Config) validateJournal() error {
	if !journal.Registry.Has(c.Journal.Type) {
		return fmt.Errorf("unknown journal type %q (known: %s)", c.Journal.Type, strings.Join(journal.Registry.Names(), ", "))
	}
	return nil
}

func (c Config) validateMetrics() error {
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink %d: type is required", i)
		}
	}
	return nil
}

// EngineConfig assembles the engine settings.
func (c Config) EngineConfig() engine.Config {
	ecfg := engine.DefaultConfig()
	ecfg.TickSeconds = c.Simulation.TickSeconds
	ecfg.Hooks = append([]int(nil), c.Simulation.Hooks...)
	ecfg.EV = c.EV.Params(c.Simulation.RealityTwin)
	ecfg.Catalog = c.EV.Catalog()
	ecfg.Wind = c.Wind.Params()
	ecfg.Assets = c.Assets
	return ecfg
}
