package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nielle003/patient-record/internal/storage"
)

func newPaymentCommand(globals *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment",
		Short: "Manage payments against visits",
	}
	cmd.AddCommand(newPaymentAddCommand(globals))
	cmd.AddCommand(newPaymentListCommand(globals))
	cmd.AddCommand(newPaymentUpdateCommand(globals))
	cmd.AddCommand(newPaymentDeleteCommand(globals))
	return cmd
}

func paymentFlags(cmd *cobra.Command, payment *storage.Payment) {
	cmd.Flags().Float64Var(&payment.Amount, "amount", 0, "Payment amount (required)")
	cmd.Flags().StringVar(&payment.PaymentDate, "date", "", "Payment date, ISO datetime (required)")
	cmd.Flags().StringVar(&payment.PaymentMethod, "method", "", "Payment method")
	cmd.Flags().StringVar(&payment.Notes, "notes", "", "Notes")
}

func newPaymentAddCommand(globals *GlobalOptions) *cobra.Command {
	var payment storage.Payment

	cmd := &cobra.Command{
		Use:   "add <visit-id>",
		Short: "Record a payment and refresh the visit balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			visitID, err := parseID(args[0])
			if err != nil {
				return err
			}
			payment.VisitID = visitID

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			id, err := rt.Payments.Add(cmd.Context(), &payment)
			if err != nil {
				return mapCommandError(err)
			}

			visit, err := rt.Visits.Get(cmd.Context(), visitID)
			if err != nil {
				return mapCommandError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payment %d recorded, balance now %.2f\n", id, visit.Balance)
			return nil
		},
	}
	paymentFlags(cmd, &payment)
	return cmd
}

func newPaymentListCommand(globals *GlobalOptions) *cobra.Command {
	var visitID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			var payments []storage.Payment
			if visitID > 0 {
				payments, err = rt.Payments.ListByVisit(cmd.Context(), visitID)
			} else {
				payments, err = rt.Payments.List(cmd.Context())
			}
			if err != nil {
				return mapCommandError(err)
			}
			printPayments(cmd.OutOrStdout(), payments)
			return nil
		},
	}
	cmd.Flags().Int64Var(&visitID, "visit", 0, "Only payments for this visit id")
	return cmd
}

func newPaymentUpdateCommand(globals *GlobalOptions) *cobra.Command {
	var payment storage.Payment

	cmd := &cobra.Command{
		Use:   "update <id> <visit-id>",
		Short: "Replace a payment record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			visitID, err := parseID(args[1])
			if err != nil {
				return err
			}
			payment.ID = id
			payment.VisitID = visitID

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			ok, err := rt.Payments.Update(cmd.Context(), &payment)
			if err != nil {
				return mapCommandError(err)
			}
			if !ok {
				return asExitError(ExitCodeNotFound, fmt.Errorf("payment %d not found", id))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payment %d updated\n", id)
			return nil
		},
	}
	paymentFlags(cmd, &payment)
	return cmd
}

func newPaymentDeleteCommand(globals *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> <visit-id>",
		Short: "Delete a payment and refresh the visit balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			visitID, err := parseID(args[1])
			if err != nil {
				return err
			}

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			ok, err := rt.Payments.Delete(cmd.Context(), id, visitID)
			if err != nil {
				return mapCommandError(err)
			}
			if !ok {
				return asExitError(ExitCodeNotFound, fmt.Errorf("payment %d not found", id))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "payment %d deleted\n", id)
			return nil
		},
	}
}
