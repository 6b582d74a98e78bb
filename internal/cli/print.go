package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/nielle003/patient-record/internal/storage"
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErrorf("invalid id %q", raw)
	}
	return id, nil
}

func printPatients(out io.Writer, patients []storage.Patient) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLAST NAME\tFIRST NAME\tGENDER\tBIRTHDAY\tHMO")
	for _, p := range patients {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.LastName, p.FirstName, p.Gender, p.Birthday, p.HMO)
	}
	_ = w.Flush()
}

func printVisits(out io.Writer, visits []storage.Visit) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATIENT\tDATE\tPROCEDURE\tCOST\tPAID\tBALANCE")
	for _, v := range visits {
		fmt.Fprintf(w, "%d\t%d (%s %s)\t%s\t%s\t%.2f\t%.2f\t%.2f\n",
			v.ID, v.PatientID, v.FirstName, v.LastName, v.DateOfVisit,
			v.ProcedureDone, v.TotalCost, v.TotalPaid, v.Balance)
	}
	_ = w.Flush()
}

func printPayments(out io.Writer, payments []storage.Payment) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVISIT\tDATE\tAMOUNT\tMETHOD\tNOTES")
	for _, p := range payments {
		fmt.Fprintf(w, "%d\t%d\t%s\t%.2f\t%s\t%s\n",
			p.ID, p.VisitID, p.PaymentDate, p.Amount, p.PaymentMethod, p.Notes)
	}
	_ = w.Flush()
}
