package discharges

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/render"
	"github.com/icuboard/icuboard/pkg/dashboard"
)

// NewCmd returns the parent command for discharges.
func NewCmd() *cobra.Command {
	dischargesCmd := &cobra.Command{
		Use:     "discharges",
		Aliases: []string{"altas"},
		Short:   "Manage patient discharges",
	}
	cmdutil.WithRoute(dischargesCmd, dashboard.RouteDischarges)
	dischargesCmd.AddCommand(newListCmd())
	dischargesCmd.AddCommand(newTransitionCmd("request", "Flag a bed's occupant for discharge", "discharge requested for bed %s",
		func(ctx context.Context, v *dashboard.Views, bed string) error { return v.RequestDischarge(ctx, bed) }))
	dischargesCmd.AddCommand(newTransitionCmd("cancel", "Withdraw a bed's discharge request", "discharge cancelled for bed %s",
		func(ctx context.Context, v *dashboard.Views, bed string) error { return v.CancelDischarge(ctx, bed) }))
	return dischargesCmd
}

func newListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List beds with a pending discharge",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := render.ValidateFormat(output); err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			views, err := cmdutil.Views(ctx)
			if err != nil {
				return err
			}
			beds, err := views.Discharges(ctx)
			if err != nil {
				return cmdutil.LoginHint(fmt.Errorf("failed to list discharges: %w", err))
			}
			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), beds)
			}
			if len(beds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending discharges")
				return nil
			}

			w := render.Table(cmd.OutOrStdout())
			fmt.Fprintln(w, "LEITO\tPACIENTE\tESPECIALIDADE\tPREVISAO\tPROXIMO")
			for _, b := range beds {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.Number,
					render.OrDash(b.PatientRecord), render.OrDash(b.PatientSpecialty),
					render.OrDash(b.ExpectedRelease), render.OrDash(b.NextRecord))
			}
			return w.Flush()
		},
	}
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}

func newTransitionCmd(use, short, done string, apply func(context.Context, *dashboard.Views, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <bed-number>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			views, err := cmdutil.Views(ctx)
			if err != nil {
				return err
			}
			if err := apply(ctx, views, args[0]); err != nil {
				return cmdutil.LoginHint(err)
			}
			pterm.Success.Printfln(done, args[0])
			return nil
		},
	}
}
