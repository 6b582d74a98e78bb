package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nielle003/patient-record/internal/pagination"
	"github.com/nielle003/patient-record/internal/storage"
)

func newPatientCommand(globals *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Manage patient records",
	}
	cmd.AddCommand(newPatientAddCommand(globals))
	cmd.AddCommand(newPatientListCommand(globals))
	cmd.AddCommand(newPatientGetCommand(globals))
	cmd.AddCommand(newPatientSearchCommand(globals))
	cmd.AddCommand(newPatientUpdateCommand(globals))
	cmd.AddCommand(newPatientDeleteCommand(globals))
	return cmd
}

func patientFlags(cmd *cobra.Command, patient *storage.Patient) {
	cmd.Flags().StringVar(&patient.FirstName, "first-name", "", "First name (required)")
	cmd.Flags().StringVar(&patient.LastName, "last-name", "", "Last name (required)")
	cmd.Flags().StringVar(&patient.Gender, "gender", "", "Gender (required)")
	cmd.Flags().StringVar(&patient.Birthday, "birthday", "", "Birthday, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&patient.ContactNumber, "contact", "", "Contact number (required)")
	cmd.Flags().StringVar(&patient.Occupation, "occupation", "", "Occupation")
	cmd.Flags().StringVar(&patient.Company, "company", "", "Company")
	cmd.Flags().StringVar(&patient.HMO, "hmo", "", "HMO provider")
	cmd.Flags().StringVar(&patient.HMONumber, "hmo-number", "", "HMO number")
	cmd.Flags().StringVar(&patient.ValidID, "valid-id", "", "Valid ID type")
	cmd.Flags().StringVar(&patient.IDNumber, "id-number", "", "ID number")
}

func newPatientAddCommand(globals *GlobalOptions) *cobra.Command {
	var patient storage.Patient

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			id, err := rt.Patients.Add(cmd.Context(), &patient)
			if err != nil {
				return mapCommandError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "patient %d created\n", id)
			return nil
		},
	}
	patientFlags(cmd, &patient)
	return cmd
}

func newPatientListCommand(globals *GlobalOptions) *cobra.Command {
	var (
		page  int
		limit int
		paged bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patients, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if paged {
				if limit <= 0 {
					limit = rt.Config.Pagination.PageSize
				}
				result, err := rt.Patients.ListPaged(cmd.Context(), pagination.Params{Page: page, Limit: limit})
				if err != nil {
					return mapCommandError(err)
				}
				printPatients(out, result.Patients)
				fmt.Fprintf(out, "page %d/%d, %d patients total\n",
					result.Meta.CurrentPage, result.Meta.TotalPages, result.Meta.TotalRecords)
				return nil
			}

			patients, err := rt.Patients.List(cmd.Context())
			if err != nil {
				return mapCommandError(err)
			}
			printPatients(out, patients)
			return nil
		},
	}
	cmd.Flags().BoolVar(&paged, "paged", false, "Page through results by name")
	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Patients per page")
	return cmd
}

func newPatientGetCommand(globals *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one patient",
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

			patient, err := rt.Patients.Get(cmd.Context(), id)
			if err != nil {
				return mapCommandError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:       %d\n", patient.ID)
			fmt.Fprintf(out, "name:     %s %s\n", patient.FirstName, patient.LastName)
			fmt.Fprintf(out, "gender:   %s\n", patient.Gender)
			fmt.Fprintf(out, "birthday: %s\n", patient.Birthday)
			fmt.Fprintf(out, "contact:  %s\n", patient.ContactNumber)
			if patient.HMO != "" {
				fmt.Fprintf(out, "hmo:      %s (%s)\n", patient.HMO, patient.HMONumber)
			}
			return nil
		},
	}
}

func newPatientSearchCommand(globals *GlobalOptions) *cobra.Command {
	var (
		page  int
		limit int
		paged bool
	)

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search patients by name or HMO number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if paged {
				if limit <= 0 {
					limit = rt.Config.Pagination.PageSize
				}
				result, err := rt.Patients.SearchPaged(cmd.Context(), args[0], pagination.Params{Page: page, Limit: limit})
				if err != nil {
					return mapCommandError(err)
				}
				printPatients(out, result.Patients)
				fmt.Fprintf(out, "page %d/%d, %d matches\n",
					result.Meta.CurrentPage, result.Meta.TotalPages, result.Meta.TotalRecords)
				return nil
			}

			patients, err := rt.Patients.Search(cmd.Context(), args[0])
			if err != nil {
				return mapCommandError(err)
			}
			printPatients(out, patients)
			return nil
		},
	}
	cmd.Flags().BoolVar(&paged, "paged", false, "Page through results by name")
	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Patients per page")
	return cmd
}

func newPatientUpdateCommand(globals *GlobalOptions) *cobra.Command {
	var patient storage.Patient

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a patient record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patient.ID = id

			rt, err := openRuntime(globals)
			if err != nil {
				return mapCommandError(err)
			}
			defer rt.Close()

			ok, err := rt.Patients.Update(cmd.Context(), &patient)
			if err != nil {
				return mapCommandError(err)
			}
			if !ok {
				return asExitError(ExitCodeNotFound, fmt.Errorf("patient %d not found", id))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "patient %d updated\n", id)
			return nil
		},
	}
	patientFlags(cmd, &patient)
	return cmd
}

func newPatientDeleteCommand(globals *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient and every visit and payment under them",
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

			ok, err := rt.Patients.Delete(cmd.Context(), id)
			if err != nil {
				return mapCommandError(err)
			}
			if !ok {
				return asExitError(ExitCodeNotFound, fmt.Errorf("patient %d not found", id))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "patient %d deleted\n", id)
			return nil
		},
	}
}
