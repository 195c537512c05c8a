package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/complyeasy/complyeasy/pkg/app"
	"github.com/complyeasy/complyeasy/pkg/config"
)

func newInitCommand() *cobra.Command {
	var (
		driver   string
		dataDir  string
		noDelay  bool
		redisURL string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a ComplyEasy workspace",
		Long: `Initialize a workspace: write a configuration file, create the data
directory and seed the store with the demo organization.

Seeding only happens once. Running init against an existing store leaves its
data untouched.`,
		Example: `  # SQLite workspace under ./data
  complyctl init

  # Redis-backed workspace without simulated latency
  complyctl init --driver redis --redis-addr localhost:6379 --no-delay

  # Human-editable JSON files, one per collection
  complyctl init --driver file --data-dir ./workspace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultFile
			}
			if dataDir == "" {
				dataDir = filepath.Join(filepath.Dir(path), "data")
			}

			log.Info().
				Str("driver", driver).
				Str("config", path).
				Str("data_dir", dataDir).
				Msg("Initializing workspace")

			cfg := config.Default()
			cfg.Store.Driver = driver
			cfg.Store.Path = filepath.Join(dataDir, "complyeasy.db")
			cfg.Store.Dir = filepath.Join(dataDir, "collections")
			if redisURL != "" {
				cfg.Store.Redis.Addr = redisURL
			}
			if noDelay {
				cfg.Latency.Scale = 0
			}
			secret := make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return fmt.Errorf("failed to generate auth secret: %w", err)
			}
			cfg.Auth.Secret = hex.EncodeToString(secret)
			if err := cfg.Validate(); err != nil {
				return err
			}

			if driver == config.DriverSQLite || driver == config.DriverFile {
				if err := os.MkdirAll(dataDir, 0o700); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dataDir, err)
				}
				done(cmd, "Created directory: %s", dataDir)
			}

			if _, err := os.Stat(path); err == nil {
				done(cmd, "Config file already exists: %s", path)
				loaded, err := config.Load(path)
				if err != nil {
					return err
				}
				cfg = loaded
			} else {
				if err := config.WriteDefault(path, cfg); err != nil {
					return err
				}
				done(cmd, "Created config file: %s", path)
			}

			// without a fixed secret every invocation signs with a new key
			if cfg.Auth.Secret == "" {
				log.Warn().Msg("auth.secret is not set; set COMPLY_AUTH__SECRET so sign-ins persist between commands")
			}

			a, err := app.New(cmd.Context(), cfg, app.WithVersion(buildVersion))
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer a.Close(context.WithoutCancel(cmd.Context()))

			if a.Seeded {
				done(cmd, "Seeded demo data into the %s store", cfg.Store.Driver)
			} else {
				done(cmd, "Store already initialized, data kept")
			}

			if !jsonOutput {
				fmt.Fprintln(cmd.OutOrStdout(), "\nNext: complyctl login sarah@complyeasy.ai")
			}
			return output(cmd, map[string]any{
				"config": path,
				"driver": cfg.Store.Driver,
				"seeded": a.Seeded,
			}, func(w io.Writer) {})
		},
	}

	cmd.Flags().StringVar(&driver, "driver", config.DriverSQLite, "store driver (memory, sqlite, redis, file)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory (default: ./data next to the config file)")
	cmd.Flags().StringVar(&redisURL, "redis-addr", "", "redis address for the redis driver")
	cmd.Flags().BoolVar(&noDelay, "no-delay", false, "disable simulated latency")

	return cmd
}
