package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/summit/internal/app"
	"github.com/idilsaglam/summit/internal/config"
	"github.com/idilsaglam/summit/internal/ui"
)

func newEmailCmd(e *env) *cobra.Command {
	var clearAddr bool
	cmd := &cobra.Command{
		Use:   "email [address]",
		Short: "Show or set the reminder recipient",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearAddr && len(args) > 0 {
				return usagef("email: --clear takes no address")
			}
			return e.withApp(cmd, func(a *app.App) error {
				ctx := cmd.Context()
				switch {
				case clearAddr:
					if _, err := a.SetEmail(ctx, ""); err != nil {
						return err
					}
					ui.OK("email cleared")
				case len(args) == 1:
					addr, err := a.SetEmail(ctx, args[0])
					if err != nil {
						return usageError{err.Error()}
					}
					ui.OK("reminders go to " + addr)
				default:
					addr, err := a.Email(ctx)
					if err != nil {
						return err
					}
					if addr == "" {
						ui.Warn("no email set; run `summit email <address>`")
						return nil
					}
					fmt.Fprintln(cmd.OutOrStdout(), addr)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearAddr, "clear", false, "Remove the stored address")
	cmd.AddCommand(newTokenCmd(e))
	return cmd
}

func newTokenCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Show the stored email API access token (masked)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.GetCredentials()
			if errors.Is(err, config.ErrNoCredentials) {
				ui.Warn("no token; run `summit email token set <token>`")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", c.Masked(), c.Source)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store the email API access token",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetCredentials(args[0]); err != nil {
				return err
			}
			ui.OK("token saved")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the stored token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteCredentials(); err != nil {
				return err
			}
			ui.OK("token removed")
			return nil
		},
	})
	return cmd
}
