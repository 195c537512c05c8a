package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Nested keys are separated
// by a double underscore: COMPLY_STORE__DRIVER sets store.driver.
const EnvPrefix = "COMPLY_"

// DefaultFile is the config file looked up when no path is given.
const DefaultFile = "complyeasy.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverFile   = "file"
)

// Config is the complete configuration of complyeasy.
type Config struct {
	Environment string `koanf:"environment" yaml:"environment"`

	Store     StoreConfig     `koanf:"store" yaml:"store"`
	Latency   LatencyConfig   `koanf:"latency" yaml:"latency"`
	Auth      AuthConfig      `koanf:"auth" yaml:"auth"`
	Access    AccessConfig    `koanf:"access" yaml:"access"`
	AI        AIConfig        `koanf:"ai" yaml:"ai"`
	Telemetry TelemetryConfig `koanf:"telemetry" yaml:"telemetry"`
}

// StoreConfig selects and configures the persistence medium.
type StoreConfig struct {
	Driver string      `koanf:"driver" yaml:"driver" validate:"oneof=memory sqlite redis file"`
	Path   string      `koanf:"path" yaml:"path" validate:"required_if=Driver sqlite"`
	Dir    string      `koanf:"dir" yaml:"dir" validate:"required_if=Driver file"`
	Redis  RedisConfig `koanf:"redis" yaml:"redis"`

	// ConnMaxLifetime recycles the SQLite connection; zero keeps it open.
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" yaml:"conn_max_lifetime" validate:"min=0"`
}

type RedisConfig struct {
	Addr        string        `koanf:"addr" yaml:"addr"`
	Password    string        `koanf:"password" yaml:"password,omitempty"`
	DB          int           `koanf:"db" yaml:"db" validate:"min=0"`
	Prefix      string        `koanf:"prefix" yaml:"prefix"`
	DialTimeout time.Duration `koanf:"dial_timeout" yaml:"dial_timeout"`
}

// LatencyConfig scales the simulated latency of facade calls. Zero turns it
// off.
type LatencyConfig struct {
	Scale float64 `koanf:"scale" yaml:"scale" validate:"min=0"`
}

type AuthConfig struct {
	Secret     string        `koanf:"secret" yaml:"secret,omitempty"`
	Issuer     string        `koanf:"issuer" yaml:"issuer" validate:"required"`
	SessionTTL time.Duration `koanf:"session_ttl" yaml:"session_ttl" validate:"gt=0"`
	LinkTTL    time.Duration `koanf:"link_ttl" yaml:"link_ttl" validate:"gt=0"`
}

// AccessConfig replaces the built-in role policy. PolicyFile is a Rego
// module declaring package complyeasy.access.
type AccessConfig struct {
	PolicyFile string `koanf:"policy_file" yaml:"policy_file,omitempty"`
}

type AIConfig struct {
	APIKey            string        `koanf:"api_key" yaml:"api_key,omitempty"`
	Model             string        `koanf:"model" yaml:"model" validate:"required"`
	RequestsPerSecond float64       `koanf:"requests_per_second" yaml:"requests_per_second" validate:"min=0"`
	Burst             int           `koanf:"burst" yaml:"burst" validate:"min=0"`
	Timeout           time.Duration `koanf:"timeout" yaml:"timeout" validate:"min=0"`
}

type TelemetryConfig struct {
	LogLevel     string        `koanf:"log_level" yaml:"log_level" validate:"oneof=trace debug info warn error disabled"`
	LogFormat    string        `koanf:"log_format" yaml:"log_format" validate:"oneof=json console"`
	EnableCaller bool          `koanf:"enable_caller" yaml:"enable_caller"`
	Tracing      TracingConfig `koanf:"tracing" yaml:"tracing"`
	Metrics      MetricsConfig `koanf:"metrics" yaml:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `koanf:"enabled" yaml:"enabled"`
	Exporter     string  `koanf:"exporter" yaml:"exporter" validate:"oneof=otlp stdout none"`
	Endpoint     string  `koanf:"endpoint" yaml:"endpoint,omitempty"`
	SamplingRate float64 `koanf:"sampling_rate" yaml:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `koanf:"insecure" yaml:"insecure"`
}

type MetricsConfig struct {
	Enabled       bool   `koanf:"enabled" yaml:"enabled"`
	ListenAddress string `koanf:"listen_address" yaml:"listen_address"`
}

// Default returns the built-in configuration: a SQLite store under ./data,
// full simulated latency and no AI key.
func Default() *Config {
	return &Config{
		Environment: "development",
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join("data", "complyeasy.db"),
			Dir:    filepath.Join("data", "collections"),
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				Prefix:      "complyeasy:",
				DialTimeout: 5 * time.Second,
			},
		},
		Latency: LatencyConfig{Scale: 1},
		Auth: AuthConfig{
			Issuer:     "complyeasy",
			SessionTTL: 7 * 24 * time.Hour,
			LinkTTL:    15 * time.Minute,
		},
		AI: AIConfig{
			Model:             "gemini-2.5-flash",
			RequestsPerSecond: 2,
			Burst:             2,
			Timeout:           60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			LogLevel:  "warn",
			LogFormat: "console",
			Tracing: TracingConfig{
				Exporter:     "none",
				SamplingRate: 1.0,
			},
			Metrics: MetricsConfig{
				ListenAddress: ":9464",
			},
		},
	}
}

// Load builds the configuration from the defaults, then the YAML file at
// path, then COMPLY_ environment variables. An empty path reads DefaultFile
// when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The key is commonly exported under the SDK's own name
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps COMPLY_AUTH__SESSION_TTL to auth.session_ttl.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Store.Driver == DriverRedis && c.Store.Redis.Addr == "" {
		return fmt.Errorf("invalid configuration: store.redis.addr is required for the redis driver")
	}
	if c.Telemetry.Tracing.Enabled && c.Telemetry.Tracing.Exporter == "otlp" && c.Telemetry.Tracing.Endpoint == "" {
		return fmt.Errorf("invalid configuration: telemetry.tracing.endpoint is required for the otlp exporter")
	}
	return nil
}

// WriteDefault writes a commented starter config to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	header := "# complyeasy configuration\n# Environment overrides use COMPLY_<SECTION>__<KEY>, e.g. COMPLY_STORE__DRIVER=redis\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
