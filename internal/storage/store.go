package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nielle003/patient-record/internal/auth"
	_ "modernc.org/sqlite"
)

const (
	pragmaJournalModeWAL    = `PRAGMA journal_mode=WAL`
	pragmaSynchronousNormal = `PRAGMA synchronous=NORMAL`
	pragmaForeignKeysOn     = `PRAGMA foreign_keys=ON`
	pragmaBusyTimeout       = `PRAGMA busy_timeout=5000`
)

const seedAdminUsername = "admin"

// seedAdminPassword is the well-known first-run credential, hashed before it
// ever reaches the users table. Login prompts for a change are the UI's job.
const seedAdminPassword = "1234"

// tableColumns is the identifier allow-list. Only names found here are ever
// interpolated into SQL text; every value goes through a placeholder.
var tableColumns = map[string][]string{
	"users":    {"id", "username", "password", "createdAt"},
	"patients": {"id", "firstName", "lastName", "gender", "birthday", "contactNumber", "occupation", "company", "hmo", "hmoNumber", "validId", "idNumber", "createdAt"},
	"visits":   {"id", "patientId", "firstName", "lastName", "procedureDone", "comments", "dateOfVisit", "modeOfPayment", "totalCost", "totalPaid", "balance"},
	"payments": {"id", "visitId", "firstName", "lastName", "amount", "paymentDate", "paymentMethod", "notes", "createdAt"},
}

// tableOrder is the export order; parents before children so a full restore
// never inserts a child row ahead of its parent.
var tableOrder = []string{"users", "patients", "visits", "payments"}

// Store owns the single connection to the on-device database file. All
// repositories and the backup engine go through it; nothing else touches the
// physical file.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	// txMu serializes transactions: one in flight at a time, later callers
	// queue behind it. Work functions receive the open *sql.Tx and must not
	// start another transaction from inside it.
	txMu sync.Mutex

	Users    UserRepository
	Patients PatientRepository
	Visits   VisitRepository
	Payments PaymentRepository
}

// Open opens (or creates) the database file at path, applies pragmas and
// migrations, verifies integrity, and seeds the default admin user. It is
// safe to call for an already-initialized file; schema creation and seeding
// are idempotent.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("open storage: empty path")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("open storage: create parent dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	// One connection: the scheduling model is cooperative and the engine
	// never runs parallel statements against the same file.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	if err := configureSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	checkIntegrity(db, logger)

	if err := RunMigrations(db, DefaultMigrations()); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := seedDefaultUser(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{
		db:     db,
		path:   path,
		logger: logger,
	}
	store.Users = &userRepository{store: store}
	store.Patients = &patientRepository{store: store}
	store.Visits = &visitRepository{store: store}
	store.Payments = &paymentRepository{store: store}

	return store, nil
}

// Close releases the connection. A closed store fails every call with
// ErrClosed; Open recreates it cleanly.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Healthy runs an integrity check and reports whether the database file
// passes it.
func (s *Store) Healthy(ctx context.Context) (bool, error) {
	db, err := s.handle()
	if err != nil {
		return false, err
	}
	var status string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&status); err != nil {
		return false, fmt.Errorf("integrity check: %w", err)
	}
	return status == "ok", nil
}

// Transaction runs work inside one BEGIN/COMMIT. On any failure, including a
// failed commit, the transaction is rolled back and the original cause is
// returned unmasked. Transactions are serialized; a concurrent caller queues
// until the in-flight one finishes. Calling Transaction from inside work is
// not supported.
func (s *Store) Transaction(ctx context.Context, work func(tx *sql.Tx) error) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := work(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Exec runs a parameterized statement outside any transaction.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, query, args...)
}

// Query runs a parameterized query outside any transaction.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, query, args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}
	return db.QueryRowContext(ctx, query, args...), nil
}

// RowCount returns the number of rows in the named table.
func (s *Store) RowCount(ctx context.Context, table string) (int64, error) {
	if _, ok := tableColumns[table]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	row, err := s.queryRow(ctx, `SELECT COUNT(*) FROM `+table)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Tables lists the known tables in restore-safe order.
func Tables() []string {
	out := make([]string, len(tableOrder))
	copy(out, tableOrder)
	return out
}

// Columns returns the allow-listed column order for table.
func Columns(table string) ([]string, error) {
	cols, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// ValidColumn reports whether column belongs to table's allow-list.
func ValidColumn(table, column string) bool {
	for _, col := range tableColumns[table] {
		if col == column {
			return true
		}
	}
	return false
}

// ReadTable reads every row of the named table in its natural column order.
// Fields come back as nullable strings so the backup engine can distinguish
// NULL from empty.
func (s *Store) ReadTable(ctx context.Context, table string) ([][]sql.NullString, error) {
	cols, err := Columns(table)
	if err != nil {
		return nil, err
	}

	rows, err := s.Query(ctx, `SELECT `+joinIdentifiers(cols)+` FROM `+table)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]sql.NullString
	for rows.Next() {
		record := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range record {
			dest[i] = &record[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("read table %s: scan: %w", table, err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: iterate: %w", table, err)
	}
	return out, nil
}

// UpsertRow inserts one row into table, replacing any existing row sharing
// its primary key. Columns must all come from the table's allow-list.
func (s *Store) UpsertRow(ctx context.Context, table string, columns []string, values []any) error {
	if _, err := Columns(table); err != nil {
		return err
	}
	if len(columns) == 0 || len(columns) != len(values) {
		return fmt.Errorf("upsert %s: column/value count mismatch", table)
	}
	for _, col := range columns {
		if !ValidColumn(table, col) {
			return fmt.Errorf("upsert %s: column %q is not allowed", table, col)
		}
	}

	placeholders := make([]byte, 0, len(columns)*3)
	for i := range columns {
		if i > 0 {
			placeholders = append(placeholders, ',', ' ')
		}
		placeholders = append(placeholders, '?')
	}

	query := `INSERT OR REPLACE INTO ` + table + ` (` + joinIdentifiers(columns) + `) VALUES (` + string(placeholders) + `)`
	if _, err := s.Exec(ctx, query, values...); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func (s *Store) handle() (*sql.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

func configureSQLite(db *sql.DB) error {
	pragmas := []string{pragmaJournalModeWAL, pragmaSynchronousNormal, pragmaForeignKeysOn, pragmaBusyTimeout}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("configure sqlite %q: %w", stmt, err)
		}
	}
	return nil
}

// checkIntegrity logs a corruption signal without failing the open; refusing
// to start would also lock the operator out of exporting what is readable.
func checkIntegrity(db *sql.DB, logger *slog.Logger) {
	var status string
	if err := db.QueryRow(`PRAGMA integrity_check`).Scan(&status); err != nil {
		logger.Warn("integrity check could not run", "error", err)
		return
	}
	if status != "ok" {
		logger.Warn("database integrity check failed", "status", status)
	}
}

func seedDefaultUser(db *sql.DB) error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE id = 1`).Scan(&n); err != nil {
		return fmt.Errorf("seed default user: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword([]byte(seedAdminPassword), auth.DefaultParams())
	if err != nil {
		return fmt.Errorf("seed default user: hash password: %w", err)
	}
	_, err = db.Exec(
		`INSERT OR IGNORE INTO users (id, username, password, createdAt) VALUES (1, ?, ?, ?)`,
		seedAdminUsername, hash, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("seed default user: %w", err)
	}
	return nil
}

func joinIdentifiers(cols []string) string {
	out := ""
	for i, col := range cols {
		if i > 0 {
			out += ", "
		}
		out += col
	}
	return out
}
