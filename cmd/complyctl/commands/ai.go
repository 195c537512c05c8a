package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/complyeasy/complyeasy/pkg/ai"
	"github.com/complyeasy/complyeasy/pkg/app"
)

func newAICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Ask the AI compliance assistant",
		Long: `Generative helpers backed by Gemini. Set GEMINI_API_KEY (or ai.api_key in
the config file) to enable them; without a key every command reports that
the assistant is not configured.`,
	}

	var notes string
	report := &cobra.Command{
		Use:   "report <framework>",
		Short: "Draft an executive summary for an audit report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Facade.AI.ComplianceReport(ctx, args[0], notes)
				if err != nil {
					return err
				}
				return printResult(cmd, res)
			})
		},
	}
	report.Flags().StringVar(&notes, "notes", "", "auditor notes to include")
	cmd.AddCommand(report)

	cmd.AddCommand(&cobra.Command{
		Use:   "gap <target-framework>",
		Short: "Compare the tracked frameworks with a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Facade.AI.GapAnalysis(ctx, args[0])
				if err != nil {
					return err
				}
				return printResult(cmd, res)
			})
		},
	})

	cmd.AddCommand(assistantCommand("chat <message...>", "Ask a free-form compliance question", cobra.MinimumNArgs(1),
		func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error) {
			return as.Chat(ctx, strings.Join(args, " ")), nil
		}))

	var company, tone string
	policy := assistantCommand("policy <type>", "Draft a policy document", cobra.ExactArgs(1),
		func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error) {
			return as.Policy(ctx, args[0], company, tone), nil
		})
	policy.Flags().StringVar(&company, "company", "our organization", "company name used in the policy")
	policy.Flags().StringVar(&tone, "tone", "formal", "writing tone")
	cmd.AddCommand(policy)

	cmd.AddCommand(assistantCommand("contract <file>", "Review a contract for privacy and security risks", cobra.ExactArgs(1),
		func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return ai.Result[string]{}, fmt.Errorf("failed to read contract: %w", err)
			}
			return as.ContractAnalysis(ctx, string(data)), nil
		}))

	cmd.AddCommand(assistantCommand("classify <filename>", "Map an evidence file to a control", cobra.ExactArgs(1),
		func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error) {
			return as.ClassifyEvidence(ctx, args[0]), nil
		}))

	var rfpContext string
	rfp := assistantCommand("rfp <question>", "Answer a security questionnaire item", cobra.ExactArgs(1),
		func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error) {
			return as.RFPResponse(ctx, args[0], rfpContext), nil
		})
	rfp.Flags().StringVar(&rfpContext, "context", "", "facts the answer may rely on")
	cmd.AddCommand(rfp)

	var department string
	phishing := assistantCommand("phishing <topic>", "Draft a phishing simulation email", cobra.ExactArgs(1),
		func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error) {
			return as.PhishingSimulation(ctx, args[0], department), nil
		})
	phishing.Flags().StringVar(&department, "department", "Finance", "targeted department")
	cmd.AddCommand(phishing)

	cmd.AddCommand(assistantCommand("vendor <name> <service> <data>", "Risk score a third-party vendor", cobra.ExactArgs(3),
		func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error) {
			return as.VendorRisk(ctx, args[0], args[1], args[2]), nil
		}))

	cmd.AddCommand(assistantCommand("datamap <process>", "Draft a record of processing activities", cobra.ExactArgs(1),
		func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error) {
			return as.DataMap(ctx, args[0]), nil
		}))

	cmd.AddCommand(assistantCommand("bcp <scenario>", "Draft a business continuity plan", cobra.ExactArgs(1),
		func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error) {
			return as.BCP(ctx, args[0]), nil
		}))

	return cmd
}

// assistantCommand builds a subcommand that authorizes the signed-in user
// for the assistant and prints the result of run.
func assistantCommand(use, short string, args cobra.PositionalArgs,
	run func(ctx context.Context, as *ai.Assistant, args []string) (ai.Result[string], error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				as, err := a.Facade.AI.Assistant(ctx)
				if err != nil {
					return err
				}
				res, err := run(ctx, as, args)
				if err != nil {
					return err
				}
				return printResult(cmd, res)
			})
		},
	}
}
