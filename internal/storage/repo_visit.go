package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type visitRepository struct {
	store *Store
}

const visitSelectColumns = `id, patientId, firstName, lastName, procedureDone, comments, dateOfVisit, modeOfPayment, totalCost, totalPaid, balance`

func (r *visitRepository) Add(ctx context.Context, visit *Visit) (int64, error) {
	if visit == nil {
		return 0, fmt.Errorf("add visit: visit is nil")
	}

	var id int64
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		insertedID, err := insertVisit(ctx, tx, visit)
		if err != nil {
			return err
		}
		id = insertedID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AddWithInitialPayment inserts the visit and, when a payment with a
// positive amount is supplied, its first payment plus the derived
// totalPaid/balance, all in one transaction. A visit never appears without
// the payment that was recorded alongside it.
func (r *visitRepository) AddWithInitialPayment(ctx context.Context, visit *Visit, payment *Payment) (int64, error) {
	if visit == nil {
		return 0, fmt.Errorf("add visit with payment: visit is nil")
	}

	var id int64
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		insertedID, err := insertVisit(ctx, tx, visit)
		if err != nil {
			return err
		}
		id = insertedID

		if payment == nil || payment.Amount <= 0 {
			return nil
		}

		payment.VisitID = id
		if _, err := insertPayment(ctx, tx, payment); err != nil {
			return err
		}
		return recomputeVisitBalance(ctx, tx, id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *visitRepository) GetByID(ctx context.Context, id int64) (*Visit, error) {
	row, err := r.store.queryRow(ctx,
		`SELECT `+visitSelectColumns+` FROM visits WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}

	visit, err := scanVisit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get visit: %w", err)
	}
	return visit, nil
}

func (r *visitRepository) GetByPatient(ctx context.Context, patientID int64) ([]Visit, error) {
	return r.queryVisits(ctx, `
		SELECT `+visitSelectColumns+` FROM visits
		WHERE patientId = ?
		ORDER BY dateOfVisit DESC
	`, patientID)
}

func (r *visitRepository) GetAll(ctx context.Context) ([]Visit, error) {
	return r.queryVisits(ctx,
		`SELECT `+visitSelectColumns+` FROM visits ORDER BY dateOfVisit DESC`)
}

func (r *visitRepository) Update(ctx context.Context, visit *Visit) (bool, error) {
	if visit == nil {
		return false, fmt.Errorf("update visit: visit is nil")
	}
	if visit.ID == 0 {
		return false, fmt.Errorf("update visit: id is required")
	}

	var updated bool
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE visits SET
				firstName = ?, lastName = ?, procedureDone = ?, comments = ?, dateOfVisit = ?,
				modeOfPayment = ?, totalCost = ?
			WHERE id = ?
		`, visit.FirstName, visit.LastName, visit.ProcedureDone, visit.Comments,
			visit.DateOfVisit, visit.ModeOfPayment, visit.TotalCost, visit.ID)
		if err != nil {
			return fmt.Errorf("update visit: %w", err)
		}

		count, err := rowsAffected(result, "update visit")
		if err != nil {
			return err
		}
		updated = count > 0
		if !updated {
			return nil
		}

		// totalCost may have changed; totalPaid/balance are derived, never
		// taken from the caller.
		return recomputeVisitBalance(ctx, tx, visit.ID)
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// Delete removes the visit and its payments in one transaction.
func (r *visitRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		if err := deletePaymentsForVisit(ctx, tx, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM visits WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete visit %d: %w", id, err)
		}
		count, err := rowsAffected(result, "delete visit")
		if err != nil {
			return err
		}
		deleted = count > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

func insertVisit(ctx context.Context, tx *sql.Tx, visit *Visit) (int64, error) {
	// Balance starts as the derived value regardless of what the caller
	// filled in.
	visit.Balance = visit.TotalCost - visit.TotalPaid

	result, err := tx.ExecContext(ctx, `
		INSERT INTO visits (patientId, firstName, lastName, procedureDone, comments, dateOfVisit, modeOfPayment, totalCost, totalPaid, balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, visit.PatientID, visit.FirstName, visit.LastName, visit.ProcedureDone,
		visit.Comments, visit.DateOfVisit, visit.ModeOfPayment, visit.TotalCost,
		visit.TotalPaid, visit.Balance)
	if err != nil {
		return 0, fmt.Errorf("insert visit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert visit: last insert id: %w", err)
	}
	visit.ID = id
	return id, nil
}

func (r *visitRepository) queryVisits(ctx context.Context, query string, args ...any) ([]Visit, error) {
	rows, err := r.store.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var out []Visit
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("query visits: %w", err)
		}
		out = append(out, *visit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query visits: iterate: %w", err)
	}
	return out, nil
}

func scanVisit(scanner rowScanner) (*Visit, error) {
	var (
		v         Visit
		patientID sql.NullInt64
		text      [6]sql.NullString
		totals    [3]sql.NullFloat64
	)
	err := scanner.Scan(&v.ID, &patientID, &text[0], &text[1],
		&text[2], &text[3], &text[4], &text[5],
		&totals[0], &totals[1], &totals[2])
	if err != nil {
		return nil, err
	}
	v.PatientID = patientID.Int64
	v.FirstName = text[0].String
	v.LastName = text[1].String
	v.ProcedureDone = text[2].String
	v.Comments = text[3].String
	v.DateOfVisit = text[4].String
	v.ModeOfPayment = text[5].String
	v.TotalCost = totals[0].Float64
	v.TotalPaid = totals[1].Float64
	v.Balance = totals[2].Float64
	return &v, nil
}
