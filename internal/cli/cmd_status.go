package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nielle003/patient-record/internal/storage"
)

func newStatusCommand(globals *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database health and row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			healthy, err := rt.Store.Healthy(cmd.Context())
			if err != nil {
				return mapCommandError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "database: %s\n", rt.Store.Path())
			if healthy {
				fmt.Fprintln(out, "integrity: ok")
			} else {
				fmt.Fprintln(out, "integrity: FAILED")
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tROWS")
			for _, table := range storage.Tables() {
				n, err := rt.Store.RowCount(cmd.Context(), table)
				if err != nil {
					return mapCommandError(err)
				}
				fmt.Fprintf(w, "%s\t%d\n", table, n)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !healthy {
				return &ExitError{Code: ExitCodeIO, Err: fmt.Errorf("integrity check failed")}
			}
			return nil
		},
	}
}
