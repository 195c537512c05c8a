package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/complyeasy/complyeasy/pkg/app"
	"github.com/complyeasy/complyeasy/pkg/stores"
)

func newTeamCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "Manage organization members",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				users, err := a.Facade.Team.List(ctx)
				if err != nil {
					return err
				}
				return output(cmd, users, func(w io.Writer) {
					rows := make([][]string, 0, len(users))
					for _, u := range users {
						rows = append(rows, []string{u.ID, u.Avatar, u.Name, u.Email, string(u.Role), formatTime(u.LastLogin)})
					}
					printTable(w, "Team", []string{"ID", "", "NAME", "EMAIL", "ROLE", "LAST LOGIN"}, rows)
				})
			})
		},
	})

	var (
		name string
		role string
	)
	invite := &cobra.Command{
		Use:     "invite <email>",
		Short:   "Invite a member",
		Example: `  complyctl team invite olivia@acme.io --name "Olivia Park" --role editor`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Facade.Team.Invite(ctx, stores.User{Name: name, Email: args[0], Role: stores.Role(role)})
				if err != nil {
					return err
				}
				return output(cmd, user, func(w io.Writer) {
					fmt.Fprintf(w, "%s Invited %s as %s (%s)\n", successStyle.Render("✓"), user.Email, user.Role, user.ID)
				})
			})
		},
	}
	invite.Flags().StringVar(&name, "name", "", "full name")
	invite.Flags().StringVar(&role, "role", "", "role (default viewer)")
	_ = invite.MarkFlagRequired("name")
	cmd.AddCommand(invite)

	cmd.AddCommand(&cobra.Command{
		Use:       "role <user-id> <role>",
		Short:     "Change the role of a member",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(stores.RoleAdmin), string(stores.RoleEditor), string(stores.RoleViewer)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Facade.Team.UpdateRole(ctx, args[0], stores.Role(args[1]))
				if err != nil {
					return err
				}
				return output(cmd, user, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s is now %s\n", successStyle.Render("✓"), user.Name, user.Role)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <user-id>",
		Short: "Remove a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Facade.Team.Remove(ctx, args[0]); err != nil {
					return err
				}
				done(cmd, "Removed %s", args[0])
				return nil
			})
		},
	})

	return cmd
}

func newIntegrationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integrations",
		Short: "Connect and disconnect evidence sources",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List integrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				list, err := a.Facade.Integrations.List(ctx)
				if err != nil {
					return err
				}
				return output(cmd, list, func(w io.Writer) {
					rows := make([][]string, 0, len(list))
					for _, in := range list {
						state := mutedStyle.Render("disconnected")
						if in.Connected {
							state = successStyle.Render("connected")
						}
						rows = append(rows, []string{in.ID, in.Name, string(in.Category), state, formatTime(in.LastSync)})
					}
					printTable(w, "Integrations", []string{"ID", "NAME", "CATEGORY", "STATE", "LAST SYNC"}, rows)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Connect or disconnect an integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, a *app.App) error {
				in, err := a.Facade.Integrations.Toggle(ctx, args[0])
				if err != nil {
					return err
				}
				state := "disconnected"
				if in.Connected {
					state = "connected"
				}
				return output(cmd, in, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s %s\n", successStyle.Render("✓"), in.Name, state)
				})
			})
		},
	})

	return cmd
}
