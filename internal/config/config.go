// Package config loads the guiapi CLI configuration from a YAML, TOML or
// JSON file, applies GUIAPI_* environment overrides and validates the result.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/guiapi/internal/logging"
	"github.com/aretw0/guiapi/pkg/dispatch"
	"github.com/aretw0/guiapi/pkg/interpret"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Content policies.
const (
	ContentTrusted   = "trusted"
	ContentSanitized = "sanitized"
)

// DefaultMarkup is the page a new session starts from.
const DefaultMarkup = `<div id="container"></div>`

// Config is the complete CLI configuration.
type Config struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Order       string        `mapstructure:"order"`
	Content     string        `mapstructure:"content"`
	Correlation bool          `mapstructure:"correlation"`

	Log   LogConfig   `mapstructure:"log"`
	Store StoreConfig `mapstructure:"store"`
	Page  PageConfig  `mapstructure:"page"`
	Serve ServeConfig `mapstructure:"serve"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects where page sessions are persisted.
type StoreConfig struct {
	Driver   string        `mapstructure:"driver"`
	Path     string        `mapstructure:"path"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type PageConfig struct {
	ID     string `mapstructure:"id"`
	Markup string `mapstructure:"markup"`
}

// ServeConfig configures the fixture endpoint started by `guiapi serve`.
type ServeConfig struct {
	Port           int    `mapstructure:"port"`
	Path           string `mapstructure:"path"`
	Fixtures       string `mapstructure:"fixtures"`
	Metrics        bool   `mapstructure:"metrics"`
	Validate       bool   `mapstructure:"validate"`
	StringEncoding bool   `mapstructure:"string_encoding"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Endpoint: "http://localhost:8080" + dispatch.DefaultEndpoint,
		Timeout:  30 * time.Second,
		Order:    dispatch.OrderCompletion.String(),
		Content:  ContentTrusted,
		Log:      LogConfig{Level: "info", Format: string(logging.FormatText)},
		Store:    StoreConfig{Driver: StoreFile, Path: ".guiapi/pages", LockTTL: 30 * time.Second},
		Page:     PageConfig{ID: "default", Markup: DefaultMarkup},
		Serve:    ServeConfig{Port: 8080, Path: dispatch.DefaultEndpoint},
	}
}

// envKeys maps environment variables to configuration keys.
var envKeys = map[string]string{
	"GUIAPI_ENDPOINT":       "endpoint",
	"GUIAPI_TIMEOUT":        "timeout",
	"GUIAPI_ORDER":          "order",
	"GUIAPI_CONTENT":        "content",
	"GUIAPI_CORRELATION":    "correlation",
	"GUIAPI_LOG_LEVEL":      "log.level",
	"GUIAPI_LOG_FORMAT":     "log.format",
	"GUIAPI_STORE":          "store.driver",
	"GUIAPI_STORE_PATH":     "store.path",
	"GUIAPI_REDIS_ADDR":     "store.addr",
	"GUIAPI_REDIS_PASSWORD": "store.password",
	"GUIAPI_REDIS_DB":       "store.db",
	"GUIAPI_STORE_TTL":      "store.ttl",
	"GUIAPI_PAGE_ID":        "page.id",
	"GUIAPI_PORT":           "serve.port",
	"GUIAPI_FIXTURES":       "serve.fixtures",
}

// Load reads path (optional), applies environment overrides and validates.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := decode(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
		}
	}

	if env := fromEnv(lookup); len(env) > 0 {
		if err := decode(env, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid environment override: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return raw, nil
}

func fromEnv(lookup func(string) (string, bool)) map[string]any {
	out := map[string]any{}
	for env, key := range envKeys {
		v, ok := lookup(env)
		if !ok {
			continue
		}
		parts := strings.Split(key, ".")
		node := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = v
	}
	return out
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Validate checks enumerated values and required fields.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if _, ok := dispatch.ParseOrderPolicy(c.Order); !ok {
		return fmt.Errorf("unknown order policy %q (expected completion or latest)", c.Order)
	}
	switch c.Content {
	case ContentTrusted, ContentSanitized:
	default:
		return fmt.Errorf("unknown content policy %q (expected trusted or sanitized)", c.Content)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch c.Store.Driver {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.Addr == "" {
			return fmt.Errorf("store.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// OrderPolicy returns the parsed ordering policy.
func (c Config) OrderPolicy() dispatch.OrderPolicy {
	p, _ := dispatch.ParseOrderPolicy(c.Order)
	return p
}

// ContentPolicy returns the policy applied to server markup.
func (c Config) ContentPolicy() interpret.ContentPolicy {
	if c.Content == ContentSanitized {
		return interpret.NewSanitized()
	}
	return interpret.Trusted{}
}
