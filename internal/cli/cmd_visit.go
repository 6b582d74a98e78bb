package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nielle003/patient-record/internal/storage"
)

func newVisitCommand(globals *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Manage visit records",
	}
	cmd.AddCommand(newVisitAddCommand(globals))
	cmd.AddCommand(newVisitListCommand(globals))
	cmd.AddCommand(newVisitUpdateCommand(globals))
	cmd.AddCommand(newVisitDeleteCommand(globals))
	return cmd
}

func visitFlags(cmd *cobra.Command, visit *storage.Visit) {
	cmd.Flags().StringVar(&visit.ProcedureDone, "procedure", "", "Procedure done")
	cmd.Flags().StringVar(&visit.Comments, "comments", "", "Comments")
	cmd.Flags().StringVar(&visit.DateOfVisit, "date", "", "Date of visit, ISO datetime (required)")
	cmd.Flags().StringVar(&visit.ModeOfPayment, "mode", "", `Mode of payment ("One-time Payment" or "Installment")`)
	cmd.Flags().Float64Var(&visit.TotalCost, "cost", 0, "Total cost of the visit")
}

func newVisitAddCommand(globals *GlobalOptions) *cobra.Command {
	var (
		visit         storage.Visit
		initialAmount float64
		paymentDate   string
		paymentMethod string
		paymentNotes  string
	)

	cmd := &cobra.Command{
		Use:   "add <patient-id>",
		Short: "Record a visit, optionally with its first payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, err := parseID(args[0])
			if err != nil {
				return err
			}
			visit.PatientID = patientID

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			var payment *storage.Payment
			if initialAmount > 0 {
				date := paymentDate
				if date == "" {
					date = visit.DateOfVisit
				}
				payment = &storage.Payment{
					Amount:        initialAmount,
					PaymentDate:   date,
					PaymentMethod: paymentMethod,
					Notes:         paymentNotes,
				}
			}

			id, err := rt.Visits.AddWithInitialPayment(cmd.Context(), &visit, payment)
			if err != nil {
				return mapCommandError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "visit %d created\n", id)
			if payment != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "initial payment of %.2f recorded\n", payment.Amount)
			}
			return nil
		},
	}
	visitFlags(cmd, &visit)
	cmd.Flags().Float64Var(&initialAmount, "pay", 0, "Initial payment amount")
	cmd.Flags().StringVar(&paymentDate, "pay-date", "", "Initial payment date (defaults to visit date)")
	cmd.Flags().StringVar(&paymentMethod, "pay-method", "", "Initial payment method")
	cmd.Flags().StringVar(&paymentNotes, "pay-notes", "", "Initial payment notes")
	return cmd
}

func newVisitListCommand(globals *GlobalOptions) *cobra.Command {
	var patientID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visits, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			var visits []storage.Visit
			if patientID > 0 {
				visits, err = rt.Visits.ListByPatient(cmd.Context(), patientID)
			} else {
				visits, err = rt.Visits.List(cmd.Context())
			}
			if err != nil {
				return mapCommandError(err)
			}
			printVisits(cmd.OutOrStdout(), visits)
			return nil
		},
	}
	cmd.Flags().Int64Var(&patientID, "patient", 0, "Only visits for this patient id")
	return cmd
}

func newVisitUpdateCommand(globals *GlobalOptions) *cobra.Command {
	var visit storage.Visit

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a visit record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			visit.ID = id

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			// Carry the stored names forward; the update form does not edit them.
			existing, err := rt.Visits.Get(cmd.Context(), id)
			if err != nil {
				return mapCommandError(err)
			}
			visit.PatientID = existing.PatientID
			visit.FirstName = existing.FirstName
			visit.LastName = existing.LastName

			ok, err := rt.Visits.Update(cmd.Context(), &visit)
			if err != nil {
				return mapCommandError(err)
			}
			if !ok {
				return asExitError(ExitCodeNotFound, fmt.Errorf("visit %d not found", id))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "visit %d updated\n", id)
			return nil
		},
	}
	visitFlags(cmd, &visit)
	return cmd
}

func newVisitDeleteCommand(globals *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a visit and its payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			ok, err := rt.Visits.Delete(cmd.Context(), id)
			if err != nil {
				return mapCommandError(err)
			}
			if !ok {
				return asExitError(ExitCodeNotFound, fmt.Errorf("visit %d not found", id))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "visit %d deleted\n", id)
			return nil
		},
	}
}
