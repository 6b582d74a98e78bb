package app

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nielle003/patient-record/internal/storage"
)

const manifestFileName = "manifest.json"

// BackupService serializes tables to CSV and restores them with
// upsert-by-key semantics. It talks to the store's bulk primitives directly
// rather than going through the repositories.
type BackupService struct {
	store  *storage.Store
	logger *slog.Logger
}

func NewBackupService(store *storage.Store, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{store: store, logger: logger}
}

// ExportTable renders every row of the named table as CSV: one header line
// of column names, then one line per row. Fields containing the separator, a
// quote, or a newline are quoted with internal quotes doubled; NULL fields
// render empty.
func (s *BackupService) ExportTable(ctx context.Context, table string) (string, error) {
	if s == nil || s.store == nil {
		return "", fmt.Errorf("export table: store is nil")
	}

	columns, err := storage.Columns(table)
	if err != nil {
		return "", err
	}
	rows, err := s.store.ReadTable(ctx, table)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%w: no rows in %s", ErrNoData, table)
	}

	var out strings.Builder
	writer := csv.NewWriter(&out)

	if err := writer.Write(columns); err != nil {
		return "", fmt.Errorf("export %s: write header: %w", table, err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, field := range row {
			if field.Valid {
				record[i] = field.String
			} else {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("export %s: write row: %w", table, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("export %s: %w", table, err)
	}
	return out.String(), nil
}

// ImportTable parses CSV text and upserts each row into the named table by
// primary key. A bad row is recorded and skipped, never aborting the batch;
// empty fields become NULL to match the schema's nullable-column convention.
func (s *BackupService) ImportTable(ctx context.Context, table, text string) (ImportResult, error) {
	result := ImportResult{Table: table}

	if s == nil || s.store == nil {
		return result, fmt.Errorf("import table: store is nil")
	}
	if _, err := storage.Columns(table); err != nil {
		return result, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("%w: missing or unreadable header line", ErrValidation)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	for _, column := range header {
		if !storage.ValidColumn(table, column) {
			return result, fmt.Errorf("%w: column %q does not belong to table %s", ErrValidation, column, table)
		}
	}

	// Row numbers are 1-based and count the header, matching what an
	// operator sees in a spreadsheet.
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		if len(record) != len(header) {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("row %d: column count mismatch (expected %d, got %d)", row, len(header), len(record)))
			continue
		}

		values := make([]any, len(record))
		for i, field := range record {
			if field == "" {
				values[i] = nil
			} else {
				values[i] = field
			}
		}

		if err := s.store.UpsertRow(ctx, table, header, values); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		result.Imported++
	}

	return result, nil
}

// ExportAll writes one CSV per table into a fresh Backups-<stamp> folder
// under dir, plus a manifest with per-file checksums. A table that fails to
// export (or has no rows) is skipped and reported; the rest still land.
func (s *BackupService) ExportAll(ctx context.Context, dir string) (*ExportManifest, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("export all: store is nil")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: output directory is required", ErrValidation)
	}

	stamp := BackupTimestamp(time.Now())
	folder := filepath.Join(dir, "Backups-"+stamp)
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("export all: create backup folder: %w", err)
	}

	manifest := &ExportManifest{
		BatchID:   uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Directory: folder,
		Files:     map[string]ManifestFile{},
		Skipped:   map[string]string{},
	}

	for _, table := range storage.Tables() {
		text, err := s.ExportTable(ctx, table)
		if err != nil {
			manifest.Skipped[table] = err.Error()
			s.logger.Warn("table skipped during export", "table", table, "error", err)
			continue
		}

		name := ExportFileName(table, stamp)
		path := filepath.Join(folder, name)
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			manifest.Skipped[table] = err.Error()
			s.logger.Warn("table skipped during export", "table", table, "error", err)
			continue
		}

		manifest.Files[name] = ManifestFile{
			SHA256:    sha256Hex([]byte(text)),
			SizeBytes: int64(len(text)),
		}
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export all: marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(folder, manifestFileName), raw, 0o600); err != nil {
		return nil, fmt.Errorf("export all: write manifest: %w", err)
	}

	return manifest, nil
}

// ImportFile resolves the target table from the file name prefix and imports
// the file's contents.
func (s *BackupService) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	table, err := TableForFile(path)
	if err != nil {
		return ImportResult{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import file: %w", err)
	}
	return s.ImportTable(ctx, table, string(raw))
}

// ExportWorkbook writes every table into one XLSX workbook, a sheet per
// table. Empty tables still get their header row.
func (s *BackupService) ExportWorkbook(ctx context.Context, path string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("export workbook: store is nil")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: output path is required", ErrValidation)
	}

	f := excelize.NewFile()
	defer f.Close()

	for _, table := range storage.Tables() {
		columns, err := storage.Columns(table)
		if err != nil {
			return err
		}
		rows, err := s.store.ReadTable(ctx, table)
		if err != nil {
			return err
		}

		if _, err := f.NewSheet(table); err != nil {
			return fmt.Errorf("export workbook: create sheet %s: %w", table, err)
		}
		if err := writeSheet(f, table, columns, rows); err != nil {
			return err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export workbook: drop default sheet: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("export workbook: create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export workbook: save: %w", err)
	}
	return nil
}

// TableForFile maps a backup file name to its target table by prefix.
func TableForFile(path string) (string, error) {
	base := filepath.Base(path)
	for _, table := range storage.Tables() {
		if strings.HasPrefix(base, table) {
			return table, nil
		}
	}
	return "", fmt.Errorf("%w: cannot resolve target table from file name %q (expected a users/patients/visits/payments prefix)", ErrValidation, base)
}

// ExportFileName builds the <table>_backup_<stamp>.csv convention.
func ExportFileName(table, stamp string) string {
	return fmt.Sprintf("%s_backup_%s.csv", table, stamp)
}

// BackupTimestamp renders t as an ISO timestamp with colons and dots
// replaced, safe for file names on every platform.
func BackupTimestamp(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

func writeSheet(f *excelize.File, sheet string, columns []string, rows [][]sql.NullString) error {
	for i, column := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("export workbook: header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, column); err != nil {
			return fmt.Errorf("export workbook: write header: %w", err)
		}
	}

	for r, row := range rows {
		for c, field := range row {
			if !field.Valid {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("export workbook: data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, field.String); err != nil {
				return fmt.Errorf("export workbook: write row: %w", err)
			}
		}
	}
	return nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
