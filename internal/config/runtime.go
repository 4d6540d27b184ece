package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RuntimeConfig holds tunables that may be adjusted without a restart.
type RuntimeConfig struct {
	// LoaderChunkSize bounds the number of parent IDs bound into a single
	// batched relationship query.
	LoaderChunkSize int `mapstructure:"loaderChunkSize"`
	// SlowQueryMillis is the threshold above which statements are logged
	// as slow.
	SlowQueryMillis int `mapstructure:"slowQueryMillis"`
}

// DefaultRuntimeConfig returns the built-in tunable defaults.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		LoaderChunkSize: 500,
		SlowQueryMillis: 200,
	}
}

// RuntimeHolder exposes the current runtime config and reloads it when the
// backing file changes.
type RuntimeHolder struct {
	current atomic.Value // holds RuntimeConfig
}

// NewRuntimeHolder reads orderdesk.yml (if present) and watches it for
// changes. Missing files fall back to defaults.
func NewRuntimeHolder() (*RuntimeHolder, error) {
	v := viper.New()

	v.SetConfigName("orderdesk")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/orderdesk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ORDERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultRuntimeConfig()
		v.SetDefault("runtime.loaderChunkSize", defaults.LoaderChunkSize)
		v.SetDefault("runtime.slowQueryMillis", defaults.SlowQueryMillis)
	}

	var cfg RuntimeConfig
	if err := v.UnmarshalKey("runtime", &cfg); err != nil {
		return nil, err
	}
	applyRuntimeDefaults(&cfg)
	if err := validateRuntimeConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RuntimeHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RuntimeConfig
		if err := v.UnmarshalKey("runtime", &updated); err != nil {
			log.Printf("[runtime-config] reload failed: %v", err)
			return
		}
		applyRuntimeDefaults(&updated)
		if err := validateRuntimeConfig(updated); err != nil {
			log.Printf("[runtime-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[runtime-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// Get returns the current runtime config snapshot.
func (h *RuntimeHolder) Get() RuntimeConfig {
	return h.current.Load().(RuntimeConfig)
}

func applyRuntimeDefaults(cfg *RuntimeConfig) {
	defaults := DefaultRuntimeConfig()
	if cfg.LoaderChunkSize == 0 {
		cfg.LoaderChunkSize = defaults.LoaderChunkSize
	}
	if cfg.SlowQueryMillis == 0 {
		cfg.SlowQueryMillis = defaults.SlowQueryMillis
	}
}

func validateRuntimeConfig(cfg RuntimeConfig) error {
	if cfg.LoaderChunkSize < 1 {
		return errors.New("runtime.loaderChunkSize must be positive")
	}
	if cfg.SlowQueryMillis < 0 {
		return errors.New("runtime.slowQueryMillis cannot be negative")
	}
	return nil
}
