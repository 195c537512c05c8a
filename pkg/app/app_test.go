package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyeasy/complyeasy/pkg/ai"
	"github.com/complyeasy/complyeasy/pkg/api"
	"github.com/complyeasy/complyeasy/pkg/config"
	"github.com/complyeasy/complyeasy/pkg/stores"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Driver = driver
	cfg.Store.Path = filepath.Join(t.TempDir(), "complyeasy.db")
	cfg.Store.Dir = filepath.Join(t.TempDir(), "collections")
	cfg.Latency.Scale = 0
	cfg.Auth.Secret = "app-test-secret"
	cfg.AI.APIKey = ""
	cfg.Telemetry.LogLevel = "disabled"
	return cfg
}

type cannedOracle string

func (o cannedOracle) Generate(_ context.Context, _ ai.Request) (string, error) {
	return string(o), nil
}

func signIn(t *testing.T, a *App, email string) context.Context {
	t.Helper()
	link, err := a.Facade.Auth.RequestMagicLink(t.Context(), email)
	require.NoError(t, err)
	_, err = a.Facade.Auth.VerifyMagicLink(t.Context(), link.Token)
	require.NoError(t, err)
	ctx, _, err := a.Facade.Auth.Resume(t.Context())
	require.NoError(t, err)
	return ctx
}

func TestNewWithEachDriver(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, driver := range []string{config.DriverMemory, config.DriverSQLite, config.DriverFile, config.DriverRedis} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)
			cfg.Store.Redis.Addr = mr.Addr()
			cfg.Store.Redis.Prefix = "app-" + driver + ":"

			a, err := New(t.Context(), cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = a.Close(t.Context()) })

			assert.True(t, a.Seeded)

			ctx := signIn(t, a, "sarah@complyeasy.ai")
			risks, err := a.Facade.Risks.List(ctx)
			require.NoError(t, err)
			assert.Len(t, risks, 3)

			assistant, err := a.Facade.AI.Assistant(ctx)
			require.NoError(t, err)
			assert.False(t, assistant.Configured(), "no API key means no oracle")
		})
	}
}

func TestReopenKeepsDataAndSession(t *testing.T) {
	cfg := testConfig(t, config.DriverSQLite)

	first, err := New(t.Context(), cfg)
	require.NoError(t, err)
	ctx := signIn(t, first, "mike@complyeasy.ai")
	created, err := first.Facade.Risks.Create(ctx, stores.Risk{
		Description: "Unencrypted backups in cold storage",
		Severity:    stores.SeverityHigh,
		Category:    "Infrastructure",
	})
	require.NoError(t, err)
	require.NoError(t, first.Close(t.Context()))

	second, err := New(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close(t.Context()) })
	assert.False(t, second.Seeded, "an existing store is not reseeded")

	resumed, session, err := second.Facade.Auth.Resume(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "mike@complyeasy.ai", session.User.Email)

	risks, err := second.Facade.Risks.List(resumed)
	require.NoError(t, err)
	ids := make([]string, 0, len(risks))
	for _, r := range risks {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, created.ID)
}

func TestNewWithOracle(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)

	a, err := New(t.Context(), cfg, WithOracle(cannedOracle("## Report")), WithVersion("test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(t.Context()) })

	ctx := signIn(t, a, "jane@complyeasy.ai")
	res, err := a.Facade.AI.ComplianceReport(ctx, "SOC 2 Type II", "")
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "## Report", res.Value)
	assert.Equal(t, "test", a.Telemetry.Config.ServiceVersion)
}

func TestNewFailures(t *testing.T) {
	cfg := testConfig(t, "mongo")
	_, err := New(t.Context(), cfg)
	assert.ErrorContains(t, err, "unknown store driver")

	cfg = testConfig(t, config.DriverRedis)
	cfg.Store.Redis.Addr = "127.0.0.1:1"
	cfg.Store.Redis.DialTimeout = 100 * time.Millisecond
	_, err = New(t.Context(), cfg)
	assert.Error(t, err)
}

func TestFacadeOptionsOverrideConfig(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.Latency.Scale = 1

	a, err := New(t.Context(), cfg, WithFacadeOptions(api.WithLatency(api.NewLatency(0, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(t.Context()) })

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()
	_, err = a.Facade.Auth.Login(ctx, "sarah@complyeasy.ai")
	assert.NoError(t, err, "login would sleep 800ms with configured latency")
}

func TestCustomAccessPolicy(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	cfg.Access.PolicyFile = filepath.Join(t.TempDir(), "readonly.rego")
	require.NoError(t, os.WriteFile(cfg.Access.PolicyFile, []byte(`package complyeasy.access

import rego.v1

default allow := false

allow if endswith(input.operation, ".list")
`), 0o600))

	a, err := New(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(t.Context()) })

	ctx := signIn(t, a, "sarah@complyeasy.ai")
	_, err = a.Facade.Risks.List(ctx)
	require.NoError(t, err)
	_, err = a.Facade.Risks.Scan(ctx)
	assert.ErrorIs(t, err, api.ErrForbidden)
}

func TestTelemetryConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "production"
	cfg.Telemetry.LogLevel = "debug"
	cfg.Telemetry.LogFormat = "json"
	cfg.Telemetry.Tracing.Enabled = true
	cfg.Telemetry.Tracing.Exporter = "stdout"
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Metrics.ListenAddress = ":9999"

	tc := TelemetryConfig(cfg, "1.2.3")
	require.NoError(t, tc.Validate())
	assert.Equal(t, "complyeasy", tc.ServiceName)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, "production", tc.Environment)
	assert.Equal(t, "debug", tc.Logging.Level)
	assert.Equal(t, "json", tc.Logging.Format)
	assert.True(t, tc.Tracing.Enabled)
	assert.Equal(t, "stdout", tc.Tracing.Exporter)
	assert.True(t, tc.Metrics.Enabled)
	assert.Equal(t, ":9999", tc.Metrics.ListenAddress)
}
