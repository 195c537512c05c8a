package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/complyeasy/complyeasy/pkg/ai"
	"github.com/complyeasy/complyeasy/pkg/app"
	"github.com/complyeasy/complyeasy/pkg/config"
	"github.com/complyeasy/complyeasy/pkg/stores"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))

	severityStyles = map[stores.Severity]lipgloss.Style{
		stores.SeverityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true),
		stores.SeverityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		stores.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")),
	}
)

// loadConfig reads the configuration selected by --config and applies
// --verbose.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.LogLevel = "debug"
	}
	return cfg, nil
}

// withApp opens the workspace, runs fn and closes it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, app.WithVersion(buildVersion))
	if err != nil {
		return fmt.Errorf("failed to open workspace: %w", err)
	}
	defer func() {
		// shutdown must outlive a canceled command context
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to close workspace")
		}
	}()

	return fn(a.Telemetry.WithContext(ctx), a)
}

// withSession is withApp acting as the signed-in user.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		ctx, session, err := a.Facade.Auth.Resume(ctx)
		if err != nil {
			return fmt.Errorf("%w (run \"complyctl login <email>\")", err)
		}
		log.Debug().Str("user", session.User.Email).Msg("Resumed session")
		return fn(ctx, a)
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable renders rows under headers, or a muted note when empty.
func printTable(w io.Writer, title string, headers []string, rows [][]string) {
	if title != "" {
		fmt.Fprintln(w, titleStyle.Render(title))
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(none)"))
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

// output prints v as JSON under --json and calls human otherwise.
func output(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(w, v)
	}
	human(w)
	return nil
}

func done(cmd *cobra.Command, format string, args ...any) {
	if jsonOutput {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

// printResult prints an AI result. A failed result is returned as an error
// so the command exits non-zero.
func printResult(cmd *cobra.Command, res ai.Result[string]) error {
	if !res.OK() {
		if jsonOutput {
			_ = printJSON(cmd.OutOrStdout(), map[string]string{"failure": string(res.Failure), "message": res.Message()})
		}
		return fmt.Errorf("AI request failed: %s", res.Message())
	}
	return output(cmd, map[string]string{"text": res.Value}, func(w io.Writer) {
		fmt.Fprintln(w, res.Value)
	})
}

func severity(s stores.Severity) string {
	if st, ok := severityStyles[s]; ok {
		return st.Render(string(s))
	}
	return string(s)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
