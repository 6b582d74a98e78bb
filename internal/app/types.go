package app

import (
	"errors"

	"github.com/nielle003/patient-record/internal/pagination"
	"github.com/nielle003/patient-record/internal/storage"
)

var (
	ErrValidation = errors.New("app: validation failed")
	ErrNoData     = errors.New("app: no data")
	ErrAuthFailed = errors.New("app: authentication failed")
)

// PatientPage is one window of a paginated patient listing.
type PatientPage struct {
	Patients []storage.Patient
	Meta     pagination.Meta
}

// ImportResult aggregates the outcome of one CSV import. Row-level failures
// are collected here instead of aborting the batch.
type ImportResult struct {
	Table    string
	Imported int
	Failed   int
	Errors   []string
}

// ExportManifest records what an export-all run produced. BatchID ties the
// folder's files together across partially failed runs.
type ExportManifest struct {
	BatchID   string                  `json:"batch_id"`
	CreatedAt string                  `json:"created_at"`
	Directory string                  `json:"directory"`
	Files     map[string]ManifestFile `json:"files"`
	Skipped   map[string]string       `json:"skipped,omitempty"`
}

type ManifestFile struct {
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
}
