package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/complyeasy/complyeasy/pkg/api"
	"github.com/complyeasy/complyeasy/pkg/app"
	"github.com/complyeasy/complyeasy/pkg/stores"
)

func newLoginCommand() *cobra.Command {
	var linkOnly bool

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in with a magic link",
		Long: `Sign in as a registered user. A magic link is issued for the email and,
unless --link-only is set, redeemed straight away.

With --link-only the token is printed instead; redeem it with
"complyctl verify <token>".`,
		Example: `  complyctl login sarah@complyeasy.ai
  complyctl login mike@complyeasy.ai --link-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				link, err := a.Facade.Auth.RequestMagicLink(ctx, args[0])
				if errors.Is(err, api.ErrNotFound) {
					return fmt.Errorf("no account for %s (run \"complyctl register\")", args[0])
				}
				if err != nil {
					return err
				}

				if linkOnly {
					return output(cmd, link, func(w io.Writer) {
						fmt.Fprintf(w, "Magic link token for %s (expires %s):\n%s\n",
							link.Email, formatTime(&link.ExpiresAt), link.Token)
					})
				}

				session, err := a.Facade.Auth.VerifyMagicLink(ctx, link.Token)
				if err != nil {
					return err
				}
				return printSession(cmd, session)
			})
		},
	}

	cmd.Flags().BoolVar(&linkOnly, "link-only", false, "print the magic link token instead of signing in")
	return cmd
}

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Redeem a magic link token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				session, err := a.Facade.Auth.VerifyMagicLink(ctx, args[0])
				if err != nil {
					return err
				}
				return printSession(cmd, session)
			})
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Facade.Auth.Logout(ctx); err != nil {
					return err
				}
				done(cmd, "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				_, session, err := a.Facade.Auth.Resume(ctx)
				if err != nil {
					return err
				}
				return printSession(cmd, session)
			})
		},
	}
}

func newRegisterCommand() *cobra.Command {
	var (
		name  string
		email string
		role  string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account in the organization. Self-registered accounts are
admins unless --role says otherwise. Sign in afterwards with
"complyctl login".`,
		Example: `  complyctl register --name "Olivia Park" --email olivia@acme.io`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Facade.Auth.Register(ctx, stores.User{
					Name:  name,
					Email: email,
					Role:  stores.Role(role),
				})
				if err != nil {
					return err
				}
				return output(cmd, user, func(w io.Writer) {
					fmt.Fprintf(w, "%s Registered %s <%s> as %s\n", successStyle.Render("✓"), user.Name, user.Email, user.Role)
				})
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", "", "role (admin, editor, viewer)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func printSession(cmd *cobra.Command, s stores.Session) error {
	return output(cmd, s.User, func(w io.Writer) {
		fmt.Fprintf(w, "Signed in as %s <%s>\n", s.User.Name, s.User.Email)
		fmt.Fprintf(w, "  role:    %s\n", s.User.Role)
		fmt.Fprintf(w, "  expires: %s\n", formatTime(&s.ExpiresAt))
	})
}
