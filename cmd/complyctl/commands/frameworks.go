package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/complyeasy/complyeasy/pkg/api"
	"github.com/complyeasy/complyeasy/pkg/app"
	"github.com/complyeasy/complyeasy/pkg/stores"
)

func newFrameworksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "frameworks",
		Aliases: []string{"fw"},
		Short:   "Manage tracked compliance frameworks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tracked frameworks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				frameworks, err := a.Facade.Frameworks.List(ctx)
				if err != nil {
					return err
				}
				return output(cmd, frameworks, func(w io.Writer) {
					rows := make([][]string, 0, len(frameworks))
					for _, f := range frameworks {
						rows = append(rows, []string{
							string(f.Name), string(f.Status), strconv.Itoa(f.Progress) + "%",
							f.NextAuditDate, orDash(f.Region),
						})
					}
					printTable(w, "Frameworks", []string{"NAME", "STATUS", "PROGRESS", "NEXT AUDIT", "REGION"}, rows)
				})
			})
		},
	})

	var search string
	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "List frameworks available to track",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				entries, err := a.Facade.Frameworks.Catalog(ctx, search)
				if err != nil {
					return err
				}
				return output(cmd, entries, func(w io.Writer) {
					rows := make([][]string, 0, len(entries))
					for _, e := range entries {
						rows = append(rows, []string{string(e.Name), e.Region, e.Description})
					}
					printTable(w, "Catalog", []string{"NAME", "REGION", "DESCRIPTION"}, rows)
				})
			})
		},
	}
	catalog.Flags().StringVarP(&search, "search", "s", "", "filter by name or description")
	cmd.AddCommand(catalog)

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Start tracking a framework from the catalog",
		Example: `  complyctl frameworks add HIPAA
  complyctl frameworks add "ISO 27001"`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: catalogNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				fw, err := a.Facade.Frameworks.AddFromCatalog(ctx, stores.FrameworkName(args[0]))
				if err != nil {
					return err
				}
				return output(cmd, fw, func(w io.Writer) {
					fmt.Fprintf(w, "%s Tracking %s (next audit %s)\n", successStyle.Render("✓"), fw.Name, fw.NextAuditDate)
				})
			})
		},
	})

	return cmd
}

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read and append to the audit trail",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show the audit trail, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				logs, err := a.Facade.Audit.List(ctx)
				if err != nil {
					return err
				}
				if limit > 0 && len(logs) > limit {
					logs = logs[:limit]
				}
				return output(cmd, logs, func(w io.Writer) {
					rows := make([][]string, 0, len(logs))
					for _, l := range logs {
						verified := "no"
						if l.Verified {
							verified = "yes"
						}
						rows = append(rows, []string{
							formatTime(&l.Timestamp), l.User, truncate(l.Action, 56), truncate(l.Hash, 14), verified,
						})
					}
					printTable(w, "Audit trail", []string{"TIME", "USER", "ACTION", "HASH", "VERIFIED"}, rows)
				})
			})
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries")
	cmd.AddCommand(list)

	var user string
	logCmd := &cobra.Command{
		Use:     "log <action>",
		Short:   "Append an entry",
		Example: `  complyctl audit log "Quarterly access review completed"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				entry, err := a.Facade.Audit.Log(ctx, args[0], user)
				if err != nil {
					return err
				}
				return output(cmd, entry, func(w io.Writer) {
					fmt.Fprintf(w, "%s Logged %s (%s)\n", successStyle.Render("✓"), entry.ID, entry.Hash)
				})
			})
		},
	}
	logCmd.Flags().StringVar(&user, "user", "", "name recorded as the actor (default: you)")
	cmd.AddCommand(logCmd)

	return cmd
}

func newBillingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "View plans and change the subscription",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "plans",
		Short: "List pricing tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				tiers, err := a.Facade.Billing.Plans(ctx)
				if err != nil {
					return err
				}
				return output(cmd, tiers, func(w io.Writer) {
					rows := make([][]string, 0, len(tiers))
					for _, t := range tiers {
						name := string(t.Plan)
						if t.Recommended {
							name += " ★"
						}
						rows = append(rows, []string{name, t.FormatPrice(), t.Target, strings.Join(t.Features, ", ")})
					}
					printTable(w, "Plans ("+api.Currency+")", []string{"PLAN", "PRICE", "FOR", "FEATURES"}, rows)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "upgrade <plan>",
		Short: "Change the subscription plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				receipt, err := a.Facade.Billing.Upgrade(ctx, stores.Plan(args[0]))
				if err != nil {
					return err
				}
				return output(cmd, receipt, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s is now on the %s plan ($%s %s/mo)\n", successStyle.Render("✓"),
						receipt.Organization.Name, receipt.Plan, receipt.Price.StringFixed(2), receipt.Currency)
				})
			})
		},
	})

	return cmd
}

// catalogNames feeds shell completion of "frameworks add".
func catalogNames() []string {
	names := make([]string, 0, len(api.AvailableFrameworks))
	for _, e := range api.AvailableFrameworks {
		names = append(names, string(e.Name))
	}
	return names
}
