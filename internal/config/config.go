// Package config loads the switchboard settings from an optional YAML file
// overlaid with SWITCHBOARD_* environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SWITCHBOARD_LOG_LEVEL.
const EnvPrefix = "SWITCHBOARD"

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// Config holds every tunable of the switchboard binary.
type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Store        StoreConfig        `mapstructure:"store"`
	Reservations ReservationsConfig `mapstructure:"reservations"`
	Portal       PortalConfig       `mapstructure:"portal"`
	Engine       EngineConfig       `mapstructure:"engine"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	MCP          MCPConfig          `mapstructure:"mcp"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects where session snapshots, locks and flight events live.
type StoreConfig struct {
	Backend   string        `mapstructure:"backend"`
	Dir       string        `mapstructure:"dir"`
	RedisAddr string        `mapstructure:"redis_addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
	// EncryptionKey is a base64 AES-256 key; snapshots are sealed when set.
	EncryptionKey string `mapstructure:"encryption_key"`
	// PIIKeys are patterns of data keys masked before a snapshot is stored.
	PIIKeys []string `mapstructure:"pii_keys"`
}

// ReservationsConfig selects the reservation backend. An empty SQLitePath
// serves a small in-memory demo data set.
type ReservationsConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

type PortalConfig struct {
	CallHistory bool   `mapstructure:"call_history"`
	PageSize    int    `mapstructure:"page_size"`
	Channel     string `mapstructure:"channel"`
}

type EngineConfig struct {
	MaxTransitions int           `mapstructure:"max_transitions"`
	InputTimeout   time.Duration `mapstructure:"input_timeout"`
	LineRetention  time.Duration `mapstructure:"line_retention"`
}

type HTTPConfig struct {
	Addr    string `mapstructure:"addr"`
	Metrics bool   `mapstructure:"metrics"`
	Tracing bool   `mapstructure:"tracing"`
}

type MCPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() map[string]any {
	return map[string]any{
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"store": map[string]any{
			"backend":    BackendMemory,
			"redis_addr": "localhost:6379",
			"dir":        ".switchboard/sessions",
			"password":   "",
			"db":         0,
			"prefix":     "switchboard:",
			"ttl":        "24h",
			"encryption_key": "",
			"pii_keys":       []any{},
		},
		"reservations": map[string]any{
			"sqlite_path": "",
		},
		"portal": map[string]any{
			"call_history": true,
			"page_size":    5,
			"channel":      "switchboard:notifications",
		},
		"engine": map[string]any{
			"max_transitions": 10000,
			"input_timeout":   "0s",
			"line_retention":  "1m",
		},
		"http": map[string]any{
			"addr":    ":8080",
			"metrics": true,
			"tracing": false,
		},
		"mcp": map[string]any{
			"addr": ":8081",
		},
	}
}

// Load reads path (optional, "" skips the file), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	raw := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		merge(raw, file)
	}

	applyEnv(raw, EnvPrefix, lookup)

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the binary cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.Dir == "" {
			errs = append(errs, errors.New("store.dir is required by the file backend"))
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required by the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	if c.Store.EncryptionKey != "" {
		if err := validKey(c.Store.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("store.encryption_key: %w", err))
		}
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	if c.Portal.PageSize < 1 {
		errs = append(errs, errors.New("portal.page_size must be positive"))
	}
	if c.Engine.MaxTransitions < 0 {
		errs = append(errs, errors.New("engine.max_transitions must not be negative"))
	}
	return errors.Join(errs...)
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

// applyEnv overrides every known key with PREFIX_SECTION_KEY when set.
func applyEnv(m map[string]any, prefix string, lookup func(string) (string, bool)) {
	for k, v := range m {
		name := prefix + "_" + strings.ToUpper(k)
		if sub, ok := v.(map[string]any); ok {
			applyEnv(sub, name, lookup)
			continue
		}
		if val, ok := lookup(name); ok {
			m[k] = val
		}
	}
}

func validKey(encoded string) error {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return err
	}
	if len(key) != 32 {
		return errors.New("must decode to 32 bytes")
	}
	return nil
}
