package patients

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/icuboard/icuboard/cmd/icuctl/cmd/cmdutil"
	"github.com/icuboard/icuboard/cmd/icuctl/internal/render"
	"github.com/icuboard/icuboard/pkg/dashboard"
)

// NewCmd returns the parent command for patient lookups. Every subcommand
// requires a logged-in session.
func NewCmd() *cobra.Command {
	patientsCmd := &cobra.Command{
		Use:     "patients",
		Aliases: []string{"pacientes"},
		Short:   "Browse ICU patients",
	}
	cmdutil.WithRoute(patientsCmd, dashboard.RoutePatients)
	patientsCmd.AddCommand(newListCmd())
	patientsCmd.AddCommand(newGetCmd())
	return patientsCmd
}

func newListCmd() *cobra.Command {
	var search, output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patients",
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
			patients, err := views.Patients(ctx, search)
			if err != nil {
				return cmdutil.LoginHint(fmt.Errorf("failed to list patients: %w", err))
			}
			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), patients)
			}

			w := render.Table(cmd.OutOrStdout())
			fmt.Fprintln(w, "CODIGO\tPRONTUARIO\tNOME\tIDADE\tESPECIALIDADE\tADMISSAO\tALTA PREVISTA")
			for _, p := range patients {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
					p.Code, p.Record, p.Name, p.Age, p.Specialty,
					render.OrDash(p.AdmissionDate), render.OrDash(p.ExpectedDischarge))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Match name, record or specialty (case-insensitive)")
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}

func newGetCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <code>",
		Short: "Show one patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := render.ValidateFormat(output); err != nil {
				return err
			}
			code, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid patient code %q", args[0])
			}
			ctx, cancel := cmdutil.Context(cmd)
			defer cancel()
			views, err := cmdutil.Views(ctx)
			if err != nil {
				return err
			}
			p, err := views.Patient(ctx, code)
			if err != nil {
				return cmdutil.LoginHint(err)
			}
			if output == render.FormatJSON {
				return render.JSON(cmd.OutOrStdout(), p)
			}

			w := render.Table(cmd.OutOrStdout())
			rows := [][2]string{
				{"Codigo", strconv.Itoa(p.Code)},
				{"Prontuario", p.Record},
				{"Nome", p.Name},
				{"Nascimento", render.OrDash(p.BirthDate)},
				{"Idade", strconv.Itoa(p.Age)},
				{"Sexo", render.OrDash(p.Sex)},
				{"Cor", render.OrDash(p.Race)},
				{"Mae", render.OrDash(p.MotherName)},
				{"Pai", render.OrDash(p.FatherName)},
				{"Especialidade", p.Specialty},
				{"Diagnostico", render.OrDash(p.MainDiagnosis)},
				{"Admissao", render.OrDash(p.AdmissionDate)},
				{"Alta prevista", render.OrDash(p.ExpectedDischarge)},
				{"Origem", render.OrDash(p.Origin)},
			}
			for _, r := range rows {
				fmt.Fprintf(w, "%s:\t%s\n", r[0], r[1])
			}
			return w.Flush()
		},
	}
	cmdutil.AddOutputFlag(cmd, &output)
	return cmd
}
