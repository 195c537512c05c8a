package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/complyeasy/complyeasy/pkg/app"
	"github.com/complyeasy/complyeasy/pkg/stores"
)

func newWatchCommand() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow workspace changes and serve metrics",
		Long: `Watch a file-driver workspace for changes written by another complyctl
process or by hand, and print new audit entries as they land. Reading the
audit trail needs a signed-in admin or editor.

When telemetry.metrics.enabled is set the Prometheus endpoint is served
until the command is interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				fm, watchable := a.Store.Medium().(*stores.FileMedium)
				var feed *auditFeed
				if watchable {
					var err error
					if feed, err = newAuditFeed(ctx, a); err != nil {
						return err
					}
				}

				g, ctx := errgroup.WithContext(ctx)

				srv := a.Telemetry.Metrics.NewMetricsServer()
				if srv != nil {
					if metricsAddr != "" {
						srv.Addr = metricsAddr
					}
					g.Go(func() error {
						log.Info().Str("addr", srv.Addr).Msg("Serving metrics")
						if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
							return fmt.Errorf("metrics server: %w", err)
						}
						return nil
					})
					g.Go(func() error {
						<-ctx.Done()
						shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
						defer cancel()
						return srv.Shutdown(shutdownCtx)
					})
				}

				if !watchable {
					if srv == nil {
						return fmt.Errorf("nothing to watch: the %s driver has no change feed and metrics are disabled", a.Config.Store.Driver)
					}
					log.Info().Str("driver", a.Config.Store.Driver).Msg("Store has no change feed, serving metrics only")
					return g.Wait()
				}

				g.Go(func() error {
					return fm.Watch(ctx, func(key string) {
						log.Debug().Str("collection", key).Msg("Collection changed")
						entries, err := feed.next(ctx)
						if err != nil {
							log.Warn().Err(err).Msg("Failed to read audit trail")
							return
						}
						for _, e := range entries {
							fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n",
								mutedStyle.Render(e.Timestamp.Local().Format(time.TimeOnly)), e.User, e.Action)
						}
					})
				})
				done(cmd, "Watching %s (Ctrl+C to stop)", a.Config.Store.Dir)

				return g.Wait()
			})
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "override telemetry.metrics.listen_address")
	return cmd
}

// auditFeed reports audit entries recorded since it last looked. It reads
// through the facade so the signed-in user needs audit access.
type auditFeed struct {
	a    *app.App
	last string
}

func newAuditFeed(ctx context.Context, a *app.App) (*auditFeed, error) {
	logs, err := a.Facade.Audit.List(ctx)
	if err != nil {
		return nil, err
	}
	f := &auditFeed{a: a}
	if len(logs) > 0 {
		f.last = logs[0].ID
	}
	return f, nil
}

// next returns the entries newer than the last one seen, oldest first.
func (f *auditFeed) next(ctx context.Context) ([]stores.AuditLogEntry, error) {
	logs, err := f.a.Facade.Audit.List(ctx)
	if err != nil {
		return nil, err
	}
	var fresh []stores.AuditLogEntry
	for _, e := range logs {
		if e.ID == f.last {
			break
		}
		fresh = append(fresh, e)
	}
	if len(fresh) > 0 {
		f.last = fresh[0].ID
	}
	slices.Reverse(fresh)
	return fresh, nil
}
