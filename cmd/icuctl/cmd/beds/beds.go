package beds

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

// NewCmd returns the parent command for the bed board.
func NewCmd() *cobra.Command {
	bedsCmd := &cobra.Command{
		Use:     "beds",
		Aliases: []string{"leitos"},
		Short:   "Show ICU beds",
		Long:    `Commands for listing beds and drawing the bed board.`,
	}
	cmdutil.WithRoute(bedsCmd, dashboard.RouteBeds)
	bedsCmd.AddCommand(newListCmd())
	bedsCmd.AddCommand(newGetCmd())
	bedsCmd.AddCommand(newBoardCmd())
	return bedsCmd
}

type queryFlags struct {
	status string
	typ    string
	filter string
	where  []string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "Only beds with this status (disponivel, ocupado, higienizacao, desativado, alta)")
	cmd.Flags().StringVar(&f.typ, "type", "", "Only beds of this type (cirurgico, hem, obstetrico, outro, nao_definido)")
	cmd.Flags().StringVar(&f.filter, "filter", "", `Boolean expression over bed fields, e.g. 'transfer == "true" and type != "hem"'`)
	cmd.Flags().StringArrayVar(&f.where, "where", nil, "field=value equality filter (repeatable)")
}

func (f *queryFlags) query() (dashboard.BedQuery, error) {
	var q dashboard.BedQuery
	if f.status != "" {
		st, err := sdk.ParseBedStatus(f.status)
		if err != nil {
			return q, err
		}
		q.Status = st
	}
	if f.typ != "" {
		t, err := sdk.ParseBedType(f.typ)
		if err != nil {
			return q, err
		}
		q.Type = t
	}

	where, warnings, err := dashboard.ParseWhereArgs(f.where)
	if err != nil {
		return q, err
	}
	for _, w := range warnings {
		pterm.Warning.Println(w)
	}
	q.Filter = dashboard.CombineFilters(f.filter, dashboard.BuildFilter(where))
	return q, nil
}

func newListCmd() *cobra.Command {
	var (
		flags  queryFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List beds",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := render.ValidateFormat(output); err != nil {
				return err
			}
			q, err := flags.query()
			if err != nil {
				return err
			}

			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			views, err := cmdutil.Views(ctx)
			if err != nil {
				return err
			}
			beds, err := views.Beds(ctx, q)
			if err != nil {
				return cmdutil.LoginHint(fmt.Errorf("failed to list beds: %w", err))
			}

			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), beds)
			}
			return writeBedTable(cmd.OutOrStdout(), beds)
		},
	}
	flags.register(cmd)
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}

func writeBedTable(out io.Writer, beds []sdk.Bed) error {
	w := render.Table(out)
	fmt.Fprintln(w, "LEITO\tSTATUS\tTIPO\tPACIENTE\tPROXIMO\tPREVISAO\tTRANSFERENCIA")
	for _, b := range beds {
		transfer := "-"
		if b.TransferFlag {
			transfer = "sim"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			b.Number, b.Status, b.Type,
			render.OrDash(b.PatientRecord),
			render.OrDash(b.NextRecord),
			render.OrDash(b.ExpectedRelease),
			transfer,
		)
	}
	return w.Flush()
}

func newGetCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <bed-number>",
		Short: "Show one bed",
		Args:  cobra.ExactArgs(1),
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
			bed, err := views.Bed(ctx, args[0])
			if err != nil {
				return cmdutil.LoginHint(err)
			}
			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), bed.Card())
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Card(bed.Card()))
			return nil
		},
	}
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}

func newBoardCmd() *cobra.Command {
	var (
		flags queryFlags
		width int
	)
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Draw the bed board",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := flags.query()
			if err != nil {
				return err
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			views, err := cmdutil.Views(ctx)
			if err != nil {
				return err
			}
			cards, err := views.BedCards(ctx, q)
			if err != nil {
				return cmdutil.LoginHint(fmt.Errorf("failed to list beds: %w", err))
			}
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No beds match")
				return nil
			}
			if !cmd.Flags().Changed("width") {
				width = pterm.GetTerminalWidth()
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Board(cards, width))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&width, "width", 0, "Board width in columns (default: terminal width)")
	return cmd
}
