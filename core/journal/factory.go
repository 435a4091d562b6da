package journal

import (
	"fmt"

	"github.com/kilianp07/assetsim/core/factory"
)

// Registry exposes the journal backends by type name.
var Registry = factory.NewRegistry[Store]()

type fileConf struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func decodeFile(conf map[string]any) (fileConf, error) {
	var c fileConf
	if err := factory.Decode(conf, &c); err != nil {
		return c, err
	}
	if c.Path == "" {
		return c, fmt.Errorf("journal path required")
	}
	return c, nil
}

func init() {
	_ = Registry.Register("nop", func(map[string]any) (Store, error) { return NopStore{}, nil })
	_ = Registry.Register("jsonl", func(conf map[string]any) (Store, error) {
		c, err := decodeFile(conf)
		if err != nil {
			return nil, err
		}
		return NewJSONLStore(c.Path)
	})
	_ = Registry.Register("jsonl_rotating", func(conf map[string]any) (Store, error) {
		c, err := decodeFile(conf)
		if err != nil {
			return nil, err
		}
		if c.MaxSizeMB == 0 {
			c.MaxSizeMB = 10
		}
		return NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	})
	_ = Registry.Register("sqlite", func(conf map[string]any) (Store, error) {
		c, err := decodeFile(conf)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}

// New creates the journal described by cfg. An empty type yields a NopStore.
func New(cfg factory.ModuleConfig) (Store, error) {
	if cfg.Type == "" {
		return NopStore{}, nil
	}
	return Registry.Create(cfg)
}
