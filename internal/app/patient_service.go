package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/nielle003/patient-record/internal/pagination"
	"github.com/nielle003/patient-record/internal/storage"
)

// PatientService validates intake fields before they reach the repository
// and owns the paginated listing surface the UI calls while searching.
type PatientService struct {
	patients storage.PatientRepository
}

func NewPatientService(patients storage.PatientRepository) *PatientService {
	return &PatientService{patients: patients}
}

func (s *PatientService) Add(ctx context.Context, patient *storage.Patient) (int64, error) {
	if patient == nil {
		return 0, fmt.Errorf("%w: patient is nil", ErrValidation)
	}
	trimPatient(patient)
	if err := validatePatient(patient); err != nil {
		return 0, err
	}
	return s.patients.Add(ctx, patient)
}

func (s *PatientService) Get(ctx context.Context, id int64) (*storage.Patient, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	return s.patients.GetByID(ctx, id)
}

func (s *PatientService) List(ctx context.Context) ([]storage.Patient, error) {
	return s.patients.GetAll(ctx)
}

// Search matches a case-insensitive substring against first name, last name,
// or HMO number.
func (s *PatientService) Search(ctx context.Context, term string) ([]storage.Patient, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.patients.GetAll(ctx)
	}
	return s.patients.Search(ctx, term)
}

// ListPaged returns one page of patients ordered by name plus paging
// metadata for the UI's controls.
func (s *PatientService) ListPaged(ctx context.Context, params pagination.Params) (*PatientPage, error) {
	params.Validate()

	total, err := s.patients.Count(ctx)
	if err != nil {
		return nil, err
	}
	patients, err := s.patients.ListPaged(ctx, storage.Page{Page: params.Page - 1, PageSize: params.Limit})
	if err != nil {
		return nil, err
	}
	return &PatientPage{Patients: patients, Meta: params.CalculateMeta(total)}, nil
}

func (s *PatientService) SearchPaged(ctx context.Context, term string, params pagination.Params) (*PatientPage, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListPaged(ctx, params)
	}
	params.Validate()

	total, err := s.patients.SearchCount(ctx, term)
	if err != nil {
		return nil, err
	}
	patients, err := s.patients.SearchPaged(ctx, term, storage.Page{Page: params.Page - 1, PageSize: params.Limit})
	if err != nil {
		return nil, err
	}
	return &PatientPage{Patients: patients, Meta: params.CalculateMeta(total)}, nil
}

func (s *PatientService) Update(ctx context.Context, patient *storage.Patient) (bool, error) {
	if patient == nil || patient.ID == 0 {
		return false, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	trimPatient(patient)
	if err := validatePatient(patient); err != nil {
		return false, err
	}
	return s.patients.Update(ctx, patient)
}

// Delete cascades to the patient's visits and their payments; the
// repository runs all four steps in one transaction.
func (s *PatientService) Delete(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	return s.patients.Delete(ctx, id)
}

func trimPatient(p *storage.Patient) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Gender = strings.TrimSpace(p.Gender)
	p.Birthday = strings.TrimSpace(p.Birthday)
	p.ContactNumber = strings.TrimSpace(p.ContactNumber)
}

func validatePatient(p *storage.Patient) error {
	switch {
	case p.FirstName == "":
		return fmt.Errorf("%w: first name is required", ErrValidation)
	case p.LastName == "":
		return fmt.Errorf("%w: last name is required", ErrValidation)
	case p.Gender == "":
		return fmt.Errorf("%w: gender is required", ErrValidation)
	case p.Birthday == "":
		return fmt.Errorf("%w: birthday is required", ErrValidation)
	case p.ContactNumber == "":
		return fmt.Errorf("%w: contact number is required", ErrValidation)
	default:
		return nil
	}
}
