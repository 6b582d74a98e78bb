package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type patientRepository struct {
	store *Store
}

const patientSelectColumns = `id, firstName, lastName, gender, birthday, contactNumber, occupation, company, hmo, hmoNumber, validId, idNumber, createdAt`

func (r *patientRepository) Add(ctx context.Context, patient *Patient) (int64, error) {
	if patient == nil {
		return 0, fmt.Errorf("add patient: patient is nil")
	}
	if patient.CreatedAt == 0 {
		patient.CreatedAt = nowMillis()
	}

	result, err := r.store.Exec(ctx, `
		INSERT INTO patients (firstName, lastName, gender, birthday, contactNumber, occupation, company, hmo, hmoNumber, validId, idNumber, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, patient.FirstName, patient.LastName, patient.Gender, patient.Birthday,
		patient.ContactNumber, patient.Occupation, patient.Company, patient.HMO,
		patient.HMONumber, patient.ValidID, patient.IDNumber, patient.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("add patient: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add patient: last insert id: %w", err)
	}
	patient.ID = id
	return id, nil
}

func (r *patientRepository) GetByID(ctx context.Context, id int64) (*Patient, error) {
	row, err := r.store.queryRow(ctx,
		`SELECT `+patientSelectColumns+` FROM patients WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}

	patient, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return patient, nil
}

func (r *patientRepository) GetAll(ctx context.Context) ([]Patient, error) {
	return r.queryPatients(ctx,
		`SELECT `+patientSelectColumns+` FROM patients ORDER BY createdAt DESC`)
}

func (r *patientRepository) Search(ctx context.Context, term string) ([]Patient, error) {
	like := "%" + term + "%"
	return r.queryPatients(ctx, `
		SELECT `+patientSelectColumns+` FROM patients
		WHERE firstName LIKE ? OR lastName LIKE ? OR hmoNumber LIKE ?
		ORDER BY createdAt DESC
	`, like, like, like)
}

func (r *patientRepository) ListPaged(ctx context.Context, page Page) ([]Patient, error) {
	return r.queryPatients(ctx, `
		SELECT `+patientSelectColumns+` FROM patients
		ORDER BY lastName, firstName
		LIMIT ? OFFSET ?
	`, page.PageSize, page.offset())
}

func (r *patientRepository) SearchPaged(ctx context.Context, term string, page Page) ([]Patient, error) {
	like := "%" + term + "%"
	return r.queryPatients(ctx, `
		SELECT `+patientSelectColumns+` FROM patients
		WHERE firstName LIKE ? OR lastName LIKE ? OR hmoNumber LIKE ?
		ORDER BY lastName, firstName
		LIMIT ? OFFSET ?
	`, like, like, like, page.PageSize, page.offset())
}

func (r *patientRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM patients`)
}

func (r *patientRepository) SearchCount(ctx context.Context, term string) (int, error) {
	like := "%" + term + "%"
	return r.count(ctx, `
		SELECT COUNT(*) FROM patients
		WHERE firstName LIKE ? OR lastName LIKE ? OR hmoNumber LIKE ?
	`, like, like, like)
}

func (r *patientRepository) Update(ctx context.Context, patient *Patient) (bool, error) {
	if patient == nil {
		return false, fmt.Errorf("update patient: patient is nil")
	}
	if patient.ID == 0 {
		return false, fmt.Errorf("update patient: id is required")
	}

	result, err := r.store.Exec(ctx, `
		UPDATE patients SET
			firstName = ?, lastName = ?, gender = ?, birthday = ?, contactNumber = ?,
			occupation = ?, company = ?, hmo = ?, hmoNumber = ?, validId = ?, idNumber = ?
		WHERE id = ?
	`, patient.FirstName, patient.LastName, patient.Gender, patient.Birthday,
		patient.ContactNumber, patient.Occupation, patient.Company, patient.HMO,
		patient.HMONumber, patient.ValidID, patient.IDNumber, patient.ID)
	if err != nil {
		return false, fmt.Errorf("update patient: %w", err)
	}

	count, err := rowsAffected(result, "update patient")
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes the patient and, in the same transaction, every visit for
// the patient and every payment under those visits. Either all four steps
// persist or none do.
func (r *patientRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.store.Transaction(ctx, func(tx *sql.Tx) error {
		if err := deletePaymentsForPatient(ctx, tx, id); err != nil {
			return err
		}
		if err := deleteVisitsForPatient(ctx, tx, id); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM patients WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete patient %d: %w", id, err)
		}
		count, err := rowsAffected(result, "delete patient")
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

func (r *patientRepository) queryPatients(ctx context.Context, query string, args ...any) ([]Patient, error) {
	rows, err := r.store.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("query patients: %w", err)
		}
		out = append(out, *patient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query patients: iterate: %w", err)
	}
	return out, nil
}

func (r *patientRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	row, err := r.store.queryRow(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPatient tolerates NULL in every optional column; restored rows may
// carry NULL where the UI wrote an empty string.
func scanPatient(scanner rowScanner) (*Patient, error) {
	var (
		p         Patient
		text      [11]sql.NullString
		createdAt sql.NullInt64
	)
	err := scanner.Scan(&p.ID, &text[0], &text[1], &text[2], &text[3],
		&text[4], &text[5], &text[6], &text[7], &text[8],
		&text[9], &text[10], &createdAt)
	if err != nil {
		return nil, err
	}
	p.FirstName = text[0].String
	p.LastName = text[1].String
	p.Gender = text[2].String
	p.Birthday = text[3].String
	p.ContactNumber = text[4].String
	p.Occupation = text[5].String
	p.Company = text[6].String
	p.HMO = text[7].String
	p.HMONumber = text[8].String
	p.ValidID = text[9].String
	p.IDNumber = text[10].String
	p.CreatedAt = createdAt.Int64
	return &p, nil
}
