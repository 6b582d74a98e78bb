package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func rowsAffected(result sql.Result, op string) (int64, error) {
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return count, nil
}

// deletePaymentsForVisit removes every payment belonging to visitID. It is
// the single cascade step shared by the visit delete and the patient delete;
// there is deliberately no second implementation of this path.
func deletePaymentsForVisit(ctx context.Context, tx *sql.Tx, visitID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE visitId = ?`, visitID); err != nil {
		return fmt.Errorf("delete payments for visit %d: %w", visitID, err)
	}
	return nil
}

// deletePaymentsForPatient removes every payment hanging off any visit of
// patientID.
func deletePaymentsForPatient(ctx context.Context, tx *sql.Tx, patientID int64) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM payments WHERE visitId IN (SELECT id FROM visits WHERE patientId = ?)`,
		patientID)
	if err != nil {
		return fmt.Errorf("delete payments for patient %d: %w", patientID, err)
	}
	return nil
}

func deleteVisitsForPatient(ctx context.Context, tx *sql.Tx, patientID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM visits WHERE patientId = ?`, patientID); err != nil {
		return fmt.Errorf("delete visits for patient %d: %w", patientID, err)
	}
	return nil
}

// recomputeVisitBalance makes the visit's totalPaid/balance agree with the
// sum of its payments. It is the single source of truth for both fields and
// must run inside the same transaction as the payment mutation that made
// them stale. A missing visit is not an error; orphan cleanup already
// removed it.
func recomputeVisitBalance(ctx context.Context, tx *sql.Tx, visitID int64) error {
	var totalPaid float64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE visitId = ?`, visitID,
	).Scan(&totalPaid)
	if err != nil {
		return fmt.Errorf("recompute balance: sum payments for visit %d: %w", visitID, err)
	}

	var totalCost float64
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(totalCost, 0) FROM visits WHERE id = ?`, visitID).Scan(&totalCost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("recompute balance: load visit %d: %w", visitID, err)
	}

	balance := totalCost - totalPaid
	if _, err := tx.ExecContext(ctx,
		`UPDATE visits SET totalPaid = ?, balance = ? WHERE id = ?`,
		totalPaid, balance, visitID); err != nil {
		return fmt.Errorf("recompute balance: update visit %d: %w", visitID, err)
	}
	return nil
}

func insertPayment(ctx context.Context, tx *sql.Tx, payment *Payment) (int64, error) {
	if payment.CreatedAt == 0 {
		payment.CreatedAt = nowMillis()
	}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO payments (visitId, firstName, lastName, amount, paymentDate, paymentMethod, notes, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, payment.VisitID, payment.FirstName, payment.LastName, payment.Amount,
		payment.PaymentDate, payment.PaymentMethod, payment.Notes, payment.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert payment: last insert id: %w", err)
	}
	payment.ID = id
	return id, nil
}
