package auth

import (
	"github.com/spf13/cobra"
)

// NewCmd returns the parent command for auth operations.
func NewCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  `Commands for logging in and out of the dashboard and inspecting the session.`,
	}
	authCmd.AddCommand(newLoginCmd())
	authCmd.AddCommand(newLogoutCmd())
	authCmd.AddCommand(newStatusCmd())
	authCmd.AddCommand(newExportCmd())
	return authCmd
}
