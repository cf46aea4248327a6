package reports

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/render"
	"github.com/icuboard/icuboard/pkg/dashboard"
)

// NewCmd returns the parent command for the read-only dashboard reports.
func NewCmd() *cobra.Command {
	reportsCmd := &cobra.Command{
		Use:   "reports",
		Short: "Alerts, indicators and bed history",
	}
	reportsCmd.AddCommand(newAlertsCmd())
	reportsCmd.AddCommand(newIndicatorsCmd())
	reportsCmd.AddCommand(newHistoryCmd())
	return reportsCmd
}

func newAlertsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "alerts",
		Aliases: []string{"alertas"},
		Short:   "Beds flagged for transfer or past their expected release",
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
			alerts, err := views.Alerts(ctx)
			if err != nil {
				return cmdutil.LoginHint(fmt.Errorf("failed to load alerts: %w", err))
			}
			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), alerts)
			}
			if len(alerts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No alerts")
				return nil
			}
			w := render.Table(cmd.OutOrStdout())
			fmt.Fprintln(w, "TIPO\tLEITO\tMENSAGEM")
			for _, a := range alerts {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.Kind, a.BedNumber, a.Message)
			}
			return w.Flush()
		},
	}
	cmdutil.WithRoute(cmd, dashboard.RouteAlerts)
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}

func newIndicatorsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "indicators",
		Aliases: []string{"indicadores"},
		Short:   "Bed occupancy statistics",
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
			ind, err := views.Indicators(ctx)
			if err != nil {
				return cmdutil.LoginHint(fmt.Errorf("failed to load indicators: %w", err))
			}
			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), ind)
			}
			w := render.Table(cmd.OutOrStdout())
			fmt.Fprintf(w, "Total:\t%d\n", ind.Total)
			fmt.Fprintf(w, "Ocupados:\t%d\n", ind.Occupied)
			fmt.Fprintf(w, "Disponiveis:\t%d\n", ind.Available)
			fmt.Fprintf(w, "Higienizacao:\t%d\n", ind.Cleaning)
			fmt.Fprintf(w, "Desativados:\t%d\n", ind.Disabled)
			fmt.Fprintf(w, "Alta:\t%d\n", ind.Discharge)
			fmt.Fprintf(w, "Com reserva:\t%d\n", ind.Reserved)
			fmt.Fprintf(w, "Alertas de transferencia:\t%d\n", ind.TransferAlerts)
			fmt.Fprintf(w, "Taxa de ocupacao:\t%.1f%%\n", ind.OccupancyRate)
			return w.Flush()
		},
	}
	cmdutil.WithRoute(cmd, dashboard.RouteIndicators)
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		output string
	)
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"historico"},
		Short:   "Recent bed events, newest first",
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
			events, err := views.History(ctx, limit)
			if err != nil {
				return cmdutil.LoginHint(fmt.Errorf("failed to load history: %w", err))
			}
			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), events)
			}
			w := render.Table(cmd.OutOrStdout())
			fmt.Fprintln(w, "QUANDO\tLEITO\tEVENTO\tDETALHE")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.At.Local().Format(time.DateTime), e.BedNumber, e.Kind, render.OrDash(e.Detail))
			}
			return w.Flush()
		},
	}
	cmdutil.WithRoute(cmd, dashboard.RouteHistory)
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum events to show (0 for all)")
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}
