package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the dashboard",
		Long: `Asks the server to drop the refresh cookie and clears the local session.
The local session is cleared even when the server cannot be reached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()

			client, err := cmdutil.SDKClient(ctx)
			if err != nil {
				return err
			}
			client.Logout(ctx)

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully")
			return nil
		},
	}
}
