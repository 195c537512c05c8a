// Package app assembles complyeasy from its configuration: telemetry, the
// persistence medium, the seeded record store, the access engine, the AI
// assistant and the facade over all of them.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/complyeasy/complyeasy/pkg/access"
	"github.com/complyeasy/complyeasy/pkg/ai"
	"github.com/complyeasy/complyeasy/pkg/api"
	"github.com/complyeasy/complyeasy/pkg/config"
	"github.com/complyeasy/complyeasy/pkg/repository"
	"github.com/complyeasy/complyeasy/pkg/stores"
	"github.com/complyeasy/complyeasy/pkg/telemetry"
)

// App is a running complyeasy instance.
type App struct {
	Config    *config.Config
	Telemetry *telemetry.Telemetry
	Store     *stores.RecordStore
	Repos     *repository.Repositories
	Facade    *api.Facade

	// Seeded reports whether the baseline dataset was written on this start.
	Seeded bool
}

// Option adjusts how an App is built.
type Option func(*options)

type options struct {
	version   string
	telemetry *telemetry.Telemetry
	oracle    ai.Oracle
	facade    []api.Option
}

// WithVersion sets the service version reported by telemetry.
func WithVersion(v string) Option {
	return func(o *options) {
		o.version = v
	}
}

// WithTelemetry uses tel instead of building telemetry from the config. The
// App does not shut it down.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(o *options) {
		o.telemetry = tel
	}
}

// WithOracle replaces the Gemini oracle.
func WithOracle(oracle ai.Oracle) Option {
	return func(o *options) {
		o.oracle = oracle
	}
}

// WithFacadeOptions appends options passed to api.New after the configured
// ones.
func WithFacadeOptions(opts ...api.Option) Option {
	return func(o *options) {
		o.facade = append(o.facade, opts...)
	}
}

// New builds an App from cfg. The store is initialized and seeded before it
// returns.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}
	ownsTelemetry := o.telemetry == nil
	defer func() {
		if err != nil {
			a.close(ctx, ownsTelemetry)
		}
	}()

	if ownsTelemetry {
		a.Telemetry, err = telemetry.NewTelemetry(TelemetryConfig(cfg, o.version))
		if err != nil {
			return nil, fmt.Errorf("failed to create telemetry: %w", err)
		}
	} else {
		a.Telemetry = o.telemetry
	}
	logger := a.Telemetry.Logger.NewComponentLogger("app")

	medium, err := NewMedium(cfg.Store)
	if err != nil {
		return nil, err
	}

	a.Store = stores.NewRecordStore(medium,
		stores.WithLogger(a.Telemetry.Logger),
		stores.WithMetrics(a.Telemetry.Metrics),
	)
	if err := a.Store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.Store.Driver, err)
	}

	a.Seeded, err = stores.NewSeeder(a.Store).Seed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}
	if a.Seeded {
		logger.Info("Seeded baseline dataset")
	}

	a.Repos = repository.New(a.Store)

	engineOpts := []access.EngineOption{access.WithEngineLogger(a.Telemetry.Logger)}
	if cfg.Access.PolicyFile != "" {
		policy, err := access.LoadPolicyFile(cfg.Access.PolicyFile)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, access.WithPolicy(policy))
		logger.WithField("policy", cfg.Access.PolicyFile).Info("Using custom access policy")
	}
	engine, err := access.NewEngine(ctx, engineOpts...)
	if err != nil {
		return nil, err
	}

	oracle := o.oracle
	if oracle == nil {
		gen, err := ai.NewGenAIOracle(ctx, ai.Config{
			APIKey:            cfg.AI.APIKey,
			Model:             cfg.AI.Model,
			RequestsPerSecond: cfg.AI.RequestsPerSecond,
			Burst:             cfg.AI.Burst,
			Timeout:           cfg.AI.Timeout,
		})
		switch {
		case errors.Is(err, ai.ErrUnconfigured):
			logger.Debug("No AI API key configured, AI features are disabled")
		case err != nil:
			return nil, err
		default:
			oracle = gen
		}
	}

	facadeOpts := []api.Option{
		api.WithTelemetry(a.Telemetry),
		api.WithLatency(api.NewLatency(cfg.Latency.Scale, nil)),
		api.WithAuthConfig(api.AuthConfig{
			Secret:     cfg.Auth.Secret,
			Issuer:     cfg.Auth.Issuer,
			SessionTTL: cfg.Auth.SessionTTL,
			LinkTTL:    cfg.Auth.LinkTTL,
		}),
		api.WithAssistant(ai.NewAssistant(oracle, a.Telemetry.Logger, a.Telemetry.Metrics)),
	}
	a.Facade, err = api.New(a.Repos, engine, append(facadeOpts, o.facade...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create facade: %w", err)
	}

	logger.WithField("driver", cfg.Store.Driver).Debug("complyeasy ready")
	return a, nil
}

// Close releases the store and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	return a.close(ctx, true)
}

func (a *App) close(ctx context.Context, shutdownTelemetry bool) error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}
	if shutdownTelemetry && a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down telemetry: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NewMedium creates the medium selected by cfg.Driver. Parent directories of
// file-backed media are created.
func NewMedium(cfg config.StoreConfig) (stores.Medium, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return stores.NewMemoryMedium(), nil
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return stores.NewSQLiteMedium(stores.SQLiteConfig{
			Path:            cfg.Path,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
	case config.DriverRedis:
		return stores.NewRedisMedium(stores.RedisConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			Prefix:      cfg.Redis.Prefix,
			DialTimeout: cfg.Redis.DialTimeout,
		})
	case config.DriverFile:
		return stores.NewFileMedium(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

// TelemetryConfig maps the telemetry section of cfg onto telemetry.Config.
func TelemetryConfig(cfg *config.Config, version string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = version
	if cfg.Environment != "" {
		tc.Environment = cfg.Environment
	}

	tc.Logging.Level = cfg.Telemetry.LogLevel
	tc.Logging.Format = cfg.Telemetry.LogFormat
	tc.Logging.EnableCaller = cfg.Telemetry.EnableCaller

	tc.Tracing.Enabled = cfg.Telemetry.Tracing.Enabled
	tc.Tracing.Exporter = cfg.Telemetry.Tracing.Exporter
	tc.Tracing.Endpoint = cfg.Telemetry.Tracing.Endpoint
	tc.Tracing.SamplingRate = cfg.Telemetry.Tracing.SamplingRate
	tc.Tracing.Insecure = cfg.Telemetry.Tracing.Insecure

	tc.Metrics.Enabled = cfg.Telemetry.Metrics.Enabled
	if cfg.Telemetry.Metrics.ListenAddress != "" {
		tc.Metrics.ListenAddress = cfg.Telemetry.Metrics.ListenAddress
	}
	return tc
}
