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

func newRisksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "risks",
		Aliases: []string{"risk"},
		Short:   "Manage detected risks",
	}

	cmd.AddCommand(newRisksListCommand(false))
	cmd.AddCommand(newRisksListCommand(true))
	cmd.AddCommand(newRisksCreateCommand())
	cmd.AddCommand(newRisksUpdateCommand())
	cmd.AddCommand(newRisksAssignCommand())
	cmd.AddCommand(newRisksScanCommand())
	cmd.AddCommand(newRisksPrioritizeCommand())
	cmd.AddCommand(newRisksRemediateCommand())
	return cmd
}

// newRisksListCommand builds "risks list" or, with mine set, "risks mine".
func newRisksListCommand(mine bool) *cobra.Command {
	var (
		sev       string
		status    string
		assignee  string
		sortBy    string
		ascending bool
	)

	use, short := "list", "List risks"
	if mine {
		use, short = "mine", "List the risks assigned to you"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Example: `  complyctl risks list --severity High --sort detectedAt
  complyctl risks mine --status "In Progress"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := api.RiskQuery{
				Severity:   stores.Severity(sev),
				Status:     stores.RiskStatus(status),
				AssignedTo: assignee,
				Sort:       api.RiskSort(sortBy),
				Ascending:  ascending,
			}
			switch q.Sort {
			case api.SortNone, api.SortSeverity, api.SortDetectedAt, api.SortAIScore:
			default:
				return fmt.Errorf("unknown sort %q (severity, detectedAt, aiScore)", sortBy)
			}

			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				var (
					risks []stores.Risk
					err   error
				)
				if mine {
					risks, err = a.Facade.Risks.MyTasks(ctx, q)
				} else {
					risks, err = a.Facade.Risks.Query(ctx, q)
				}
				if err != nil {
					return err
				}
				return printRisks(cmd, risks)
			})
		},
	}

	cmd.Flags().StringVar(&sev, "severity", "", "filter by severity (High, Medium, Low)")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	if !mine {
		cmd.Flags().StringVar(&assignee, "assignee", "", "filter by assignee name")
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by severity, detectedAt or aiScore")
	cmd.Flags().BoolVar(&ascending, "asc", false, "sort ascending")
	return cmd
}

func newRisksCreateCommand() *cobra.Command {
	var (
		id          string
		description string
		sev         string
		category    string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Record a new risk",
		Example: `  complyctl risks create --description "MFA disabled for 3 admins" --severity High --category Identity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				risk, err := a.Facade.Risks.Create(ctx, stores.Risk{
					ID:          id,
					Description: description,
					Severity:    stores.Severity(sev),
					Category:    category,
				})
				if err != nil {
					return err
				}
				return output(cmd, risk, func(w io.Writer) {
					fmt.Fprintf(w, "%s Created risk %s\n", successStyle.Render("✓"), risk.ID)
				})
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "risk id (generated when empty)")
	cmd.Flags().StringVar(&description, "description", "", "what was found")
	cmd.Flags().StringVar(&sev, "severity", string(stores.SeverityMedium), "severity (High, Medium, Low)")
	cmd.Flags().StringVar(&category, "category", "", "category, e.g. Infrastructure")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newRisksUpdateCommand() *cobra.Command {
	var (
		description string
		sev         string
		status      string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields of a risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				risks, err := a.Facade.Risks.List(ctx)
				if err != nil {
					return err
				}
				risk, ok := findRisk(risks, args[0])
				if !ok {
					return fmt.Errorf("risk %s not found", args[0])
				}

				flags := cmd.Flags()
				if flags.Changed("description") {
					risk.Description = description
				}
				if flags.Changed("severity") {
					risk.Severity = stores.Severity(sev)
				}
				if flags.Changed("status") {
					risk.Status = stores.RiskStatus(status)
				}
				if flags.Changed("category") {
					risk.Category = category
				}

				updated, err := a.Facade.Risks.Update(ctx, risk)
				if err != nil {
					return err
				}
				return output(cmd, updated, func(w io.Writer) {
					fmt.Fprintf(w, "%s Updated risk %s (%s)\n", successStyle.Render("✓"), updated.ID, updated.Status)
				})
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&sev, "severity", "", "new severity")
	cmd.Flags().StringVar(&status, "status", "", "new status (Open, In Progress, Resolved, Ignored)")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	return cmd
}

func newRisksAssignCommand() *cobra.Command {
	var (
		assignee string
		status   string
		plan     string
		unassign bool
	)

	cmd := &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign a risk or move it through the workflow",
		Example: `  complyctl risks assign r1 --to "Mike Ross" --status "In Progress"
  complyctl risks assign r1 --status Resolved
  complyctl risks assign r1 --unassign`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := api.RiskAssignment{ID: args[0], Status: stores.RiskStatus(status)}
			if cmd.Flags().Changed("to") {
				a.Assignee = &assignee
			}
			if unassign {
				empty := ""
				a.Assignee = &empty
			}
			if cmd.Flags().Changed("plan") {
				a.MitigationPlan = &plan
			}

			return withSession(cmd, func(ctx context.Context, ap *app.App) error {
				risk, err := ap.Facade.Risks.Assign(ctx, a)
				if err != nil {
					return err
				}
				return output(cmd, risk, func(w io.Writer) {
					fmt.Fprintf(w, "%s Risk %s: %s, assigned to %s\n",
						successStyle.Render("✓"), risk.ID, risk.Status, orDash(risk.AssignedTo))
				})
			})
		},
	}

	cmd.Flags().StringVar(&assignee, "to", "", "assignee name")
	cmd.Flags().BoolVar(&unassign, "unassign", false, "clear the assignee")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&plan, "plan", "", "mitigation plan")
	cmd.MarkFlagsMutuallyExclusive("to", "unassign")
	return cmd
}

func newRisksScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run an infrastructure scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				risk, err := a.Facade.Risks.Scan(ctx)
				if err != nil {
					return err
				}
				return output(cmd, risk, func(w io.Writer) {
					fmt.Fprintf(w, "Scan found %s risk %s: %s\n", severity(risk.Severity), risk.ID, risk.Description)
				})
			})
		},
	}
}

func newRisksPrioritizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prioritize",
		Short: "Score every risk with the AI assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				out, err := a.Facade.Risks.Prioritize(ctx)
				if err != nil {
					return err
				}
				if out.Failure != "" {
					return fmt.Errorf("AI prioritization failed: %s", out.Message)
				}
				return printRisks(cmd, out.Risks)
			})
		},
	}
}

func newRisksRemediateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remediate <id>",
		Short: "Show or generate the mitigation plan of a risk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				out, err := a.Facade.Risks.Remediate(ctx, args[0])
				if err != nil {
					return err
				}
				if out.Failure != "" {
					return fmt.Errorf("AI remediation failed: %s", out.Message)
				}
				return output(cmd, out.Risk, func(w io.Writer) {
					fmt.Fprintln(w, titleStyle.Render("Mitigation plan for "+out.Risk.ID))
					fmt.Fprintln(w, out.Plan)
				})
			})
		},
	}
}

func findRisk(risks []stores.Risk, id string) (stores.Risk, bool) {
	for _, r := range risks {
		if r.ID == id {
			return r, true
		}
	}
	return stores.Risk{}, false
}

func printRisks(cmd *cobra.Command, risks []stores.Risk) error {
	return output(cmd, risks, func(w io.Writer) {
		rows := make([][]string, 0, len(risks))
		for _, r := range risks {
			score := "-"
			if r.AIPriorityScore != nil {
				score = strconv.Itoa(*r.AIPriorityScore)
			}
			rows = append(rows, []string{
				r.ID,
				severity(r.Severity),
				string(r.Status),
				truncate(r.Description, 48),
				orDash(r.Category),
				orDash(r.AssignedTo),
				score,
			})
		}
		printTable(w, "Risks", []string{"ID", "SEVERITY", "STATUS", "DESCRIPTION", "CATEGORY", "ASSIGNEE", "AI"}, rows)
	})
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
