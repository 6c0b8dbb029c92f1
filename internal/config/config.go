// Package config loads taskaction settings from defaults, an optional YAML
// file and TASKACTION_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks the environment variables read by Load.
const EnvPrefix = "TASKACTION_"

// Config is the full taskaction configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Client  ClientConfig  `koanf:"client"`
	History HistoryConfig `koanf:"history"`
	Queue   QueueConfig   `koanf:"queue"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

// ClientConfig configures the gateway client used by the CLI.
type ClientConfig struct {
	RootURL string        `koanf:"root_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	Debug   bool          `koanf:"debug"`
	// LogURL is passed to completion routing; empty means no log viewer.
	LogURL string `koanf:"log_url"`
}

// HistoryConfig selects the recent-task history backend.
type HistoryConfig struct {
	Backend string `koanf:"backend" validate:"oneof=memory sqlite postgres"`
	DSN     string `koanf:"dsn"`
	Limit   int    `koanf:"limit" validate:"min=1"`
}

// QueueConfig configures the queue service.
type QueueConfig struct {
	Addr             string        `koanf:"addr" validate:"required"`
	Store            string        `koanf:"store" validate:"oneof=memory postgres"`
	DatabaseURL      string        `koanf:"database_url"`
	DeadlineInterval time.Duration `koanf:"deadline_interval" validate:"gt=0"`
	PurgeRetention   time.Duration `koanf:"purge_retention" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Client: ClientConfig{
			RootURL: "http://localhost:8080",
			Timeout: 30 * time.Second,
		},
		History: HistoryConfig{
			Backend: "sqlite",
			DSN:     defaultHistoryPath(),
			Limit:   20,
		},
		Queue: QueueConfig{
			Addr:             ":8080",
			Store:            "memory",
			DeadlineInterval: 30 * time.Second,
			PurgeRetention:   24 * time.Hour,
		},
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskaction", "history.db")
	}
	return filepath.Join(home, ".taskaction", "history.db")
}

// Load builds the configuration. A .env file in the working directory is
// applied to the environment first; path names an optional YAML file and a
// missing file is not an error.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		values, err := readYAML(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawMap(values), nil); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{Prefix: EnvPrefix, TransformFunc: transformEnvKey}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf(
		"", &cfg, koanf.UnmarshalConf{
			Tag: "koanf",
			DecoderConfig: &mapstructure.DecoderConfig{
				WeaklyTypedInput: true,
				Result:           &cfg,
				TagName:          "koanf",
				DecodeHook: mapstructure.ComposeDecodeHookFunc(
					mapstructure.StringToTimeDurationHookFunc(),
				),
			},
		},
	); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints and the cross-field requirements of
// the postgres backends.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if cfg.Queue.Store == "postgres" && cfg.Queue.DatabaseURL == "" {
		return errors.New("queue.database_url is required when queue.store is postgres")
	}
	if cfg.History.Backend != "memory" && cfg.History.DSN == "" {
		return fmt.Errorf("history.dsn is required for the %s backend", cfg.History.Backend)
	}
	return nil
}

// transformEnvKey maps TASKACTION_QUEUE_DATABASE_URL to queue.database_url.
func transformEnvKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' })
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], value
	default:
		return parts[0] + "." + strings.Join(parts[1:], "_"), value
	}
}

func readYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return dropNil(values), nil
}

// dropNil removes null entries so an empty YAML key keeps its default.
func dropNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch v := v.(type) {
		case nil:
		case map[string]any:
			if nested := dropNil(v); len(nested) > 0 {
				out[k] = nested
			}
		default:
			out[k] = v
		}
	}
	return out
}

// rawMap adapts a decoded map to koanf.Provider.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("ReadBytes not implemented")
}
