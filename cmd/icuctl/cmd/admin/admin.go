package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/config"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/render"
	"github.com/icuboard/icuboard/pkg/dashboard"
	"github.com/icuboard/icuboard/pkg/sdk"
)

// NewCmd returns the admin page command.
func NewCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Show the administration page",
		Long: `Shows the administration data. Requires a session whose user belongs to
the administrators group.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := render.ValidateFormat(output); err != nil {
				return err
			}
			cfg := config.MustFromContext(cmd.Context())
			if cfg.Settings.DataSource != config.DataSourceAPI {
				return errors.New("the admin page needs the api data source")
			}

			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			client, err := cmdutil.SDKClient(ctx)
			if err != nil {
				return err
			}
			if !client.Session().IsAdmin() {
				return errors.New("administrator privileges required")
			}

			data, err := client.AdminData(ctx)
			if err != nil {
				if sdk.StatusCode(err) == http.StatusForbidden {
					return errors.New("the server denied administrator access")
				}
				return cmdutil.LoginHint(fmt.Errorf("failed to load admin data: %w", err))
			}
			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), data)
			}
			w := render.Table(cmd.OutOrStdout())
			fmt.Fprintf(w, "Mensagem:\t%s\n", data.Message)
			fmt.Fprintf(w, "Grupos:\t%s\n", render.OrDash(strings.Join(data.UserGroups, ", ")))
			return w.Flush()
		},
	}
	cmdutil.WithRoute(cmd, dashboard.RouteAdmin)
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}
