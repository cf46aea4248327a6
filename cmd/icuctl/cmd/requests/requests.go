package requests

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/render"
	"github.com/icuboard/icuboard/pkg/dashboard"
	"github.com/icuboard/icuboard/pkg/sdk"
)

// NewCmd returns the parent command for bed reservations.
func NewCmd() *cobra.Command {
	requestsCmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"solicitacoes"},
		Short:   "Manage bed reservations",
	}
	cmdutil.WithRoute(requestsCmd, dashboard.RouteRequests)
	requestsCmd.AddCommand(newListCmd())
	requestsCmd.AddCommand(newReserveCmd())
	return requestsCmd
}

func newListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reserved beds and beds open for reservation",
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
			req, err := views.Requests(ctx)
			if err != nil {
				return cmdutil.LoginHint(fmt.Errorf("failed to load reservations: %w", err))
			}
			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), req)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Reservas")
			if err := writeReserved(out, req.Reserved); err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Disponiveis para reserva")
			return writeAvailable(out, req.Available)
		},
	}
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}

func writeReserved(out io.Writer, beds []sdk.Bed) error {
	w := render.Table(out)
	fmt.Fprintln(w, "LEITO\tSTATUS\tPROXIMO\tESPECIALIDADE\tRESERVA")
	for _, b := range beds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", b.Number, b.Status, b.NextRecord,
			render.OrDash(b.NextSpecialty), render.OrDash(b.ReservationType))
	}
	return w.Flush()
}

func writeAvailable(out io.Writer, beds []sdk.Bed) error {
	w := render.Table(out)
	fmt.Fprintln(w, "LEITO\tSTATUS\tTIPO\tPREVISAO")
	for _, b := range beds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Number, b.Status, b.Type, render.OrDash(b.ExpectedRelease))
	}
	return w.Flush()
}

func newReserveCmd() *cobra.Command {
	var r sdk.Reservation
	cmd := &cobra.Command{
		Use:   "reserve <bed-number>",
		Short: "Queue a patient for a bed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			views, err := cmdutil.Views(ctx)
			if err != nil {
				return err
			}
			if err := views.Reserve(ctx, args[0], r); err != nil {
				return cmdutil.LoginHint(fmt.Errorf("failed to reserve bed %s: %w", args[0], err))
			}
			pterm.Success.Printf("Bed %s reserved for record %d\n", args[0], r.Record)
			return nil
		},
	}
	cmd.Flags().IntVar(&r.Record, "record", 0, "Patient record number (prontuario)")
	cmd.Flags().IntVar(&r.Age, "age", 0, "Patient age")
	cmd.Flags().StringVar(&r.Specialty, "specialty", "", "Patient specialty")
	_ = cmd.MarkFlagRequired("record")
	_ = cmd.MarkFlagRequired("specialty")
	return cmd
}
