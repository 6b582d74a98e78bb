package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type paymentRepository struct {
	store *Store
}

const paymentSelectColumns = `id, visitId, firstName, lastName, amount, paymentDate, paymentMethod, notes, createdAt`

func (r *paymentRepository) Add(ctx context.Context, payment *Payment) (int64, error) {
	if payment == nil {
		return 0, fmt.Errorf("add payment: payment is nil")
	}
	if payment.VisitID == 0 {
		return 0, fmt.Errorf("add payment: visit id is required")
	}

	var id int64
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		insertedID, err := insertPayment(ctx, tx, payment)
		if err != nil {
			return err
		}
		id = insertedID
		return recomputeVisitBalance(ctx, tx, payment.VisitID)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *paymentRepository) GetByVisit(ctx context.Context, visitID int64) ([]Payment, error) {
	return r.queryPayments(ctx, `
		SELECT `+paymentSelectColumns+` FROM payments
		WHERE visitId = ?
		ORDER BY paymentDate ASC, createdAt ASC
	`, visitID)
}

func (r *paymentRepository) GetAll(ctx context.Context) ([]Payment, error) {
	return r.queryPayments(ctx, `
		SELECT `+paymentSelectColumns+` FROM payments
		ORDER BY paymentDate DESC, createdAt DESC
	`)
}

func (r *paymentRepository) Update(ctx context.Context, payment *Payment) (bool, error) {
	if payment == nil {
		return false, fmt.Errorf("update payment: payment is nil")
	}
	if payment.ID == 0 {
		return false, fmt.Errorf("update payment: id is required")
	}

	var updated bool
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE payments SET
				firstName = ?, lastName = ?, amount = ?, paymentDate = ?, paymentMethod = ?, notes = ?
			WHERE id = ?
		`, payment.FirstName, payment.LastName, payment.Amount,
			payment.PaymentDate, payment.PaymentMethod, payment.Notes, payment.ID)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		count, err := rowsAffected(result, "update payment")
		if err != nil {
			return err
		}
		updated = count > 0
		if !updated || payment.VisitID == 0 {
			return nil
		}
		return recomputeVisitBalance(ctx, tx, payment.VisitID)
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

func (r *paymentRepository) Delete(ctx context.Context, id, visitID int64) (bool, error) {
	var deleted bool
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete payment %d: %w", id, err)
		}
		count, err := rowsAffected(result, "delete payment")
		if err != nil {
			return err
		}
		deleted = count > 0
		if !deleted {
			return nil
		}
		return recomputeVisitBalance(ctx, tx, visitID)
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// TotalPaidForVisit sums every payment recorded for the visit.
func (r *paymentRepository) TotalPaidForVisit(ctx context.Context, visitID int64) (float64, error) {
	row, err := r.store.queryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE visitId = ?`, visitID)
	if err != nil {
		return 0, err
	}
	var total float64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("total paid for visit %d: %w", visitID, err)
	}
	return total, nil
}

// DeleteAllForVisit clears a visit's payments and zeroes the derived fields
// back to the visit's total cost.
func (r *paymentRepository) DeleteAllForVisit(ctx context.Context, visitID int64) (bool, error) {
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		if err := deletePaymentsForVisit(ctx, tx, visitID); err != nil {
			return err
		}
		return recomputeVisitBalance(ctx, tx, visitID)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteAllForPatient resolves patient -> visits -> payments and clears the
// payments, leaving the visits in place with recomputed balances.
func (r *paymentRepository) DeleteAllForPatient(ctx context.Context, patientID int64) (bool, error) {
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		if err := deletePaymentsForPatient(ctx, tx, patientID); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `SELECT id FROM visits WHERE patientId = ?`, patientID)
		if err != nil {
			return fmt.Errorf("list visits for patient %d: %w", patientID, err)
		}
		defer rows.Close()

		var visitIDs []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("scan visit id: %w", err)
			}
			visitIDs = append(visitIDs, id)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate visit ids: %w", err)
		}

		for _, id := range visitIDs {
			if err := recomputeVisitBalance(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *paymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]Payment, error) {
	rows, err := r.store.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("query payments: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query payments: iterate: %w", err)
	}
	return out, nil
}

func scanPayment(scanner rowScanner) (*Payment, error) {
	var (
		p         Payment
		visitID   sql.NullInt64
		text      [5]sql.NullString
		amount    sql.NullFloat64
		createdAt sql.NullInt64
	)
	err := scanner.Scan(&p.ID, &visitID, &text[0], &text[1], &amount,
		&text[2], &text[3], &text[4], &createdAt)
	if err != nil {
		return nil, err
	}
	p.VisitID = visitID.Int64
	p.FirstName = text[0].String
	p.LastName = text[1].String
	p.Amount = amount.Float64
	p.PaymentDate = text[2].String
	p.PaymentMethod = text[3].String
	p.Notes = text[4].String
	p.CreatedAt = createdAt.Int64
	return &p, nil
}
