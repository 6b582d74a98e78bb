package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/nielle003/patient-record/internal/storage"
)

type VisitService struct {
	visits   storage.VisitRepository
	patients storage.PatientRepository
}

func NewVisitService(visits storage.VisitRepository, patients storage.PatientRepository) *VisitService {
	return &VisitService{visits: visits, patients: patients}
}

func (s *VisitService) Add(ctx context.Context, visit *storage.Visit) (int64, error) {
	if err := s.prepareVisit(ctx, visit); err != nil {
		return 0, err
	}
	return s.visits.Add(ctx, visit)
}

// AddWithInitialPayment records the visit together with its first payment
// when one was taken at the desk. Passing a nil payment, or one with a
// non-positive amount, records the visit alone.
func (s *VisitService) AddWithInitialPayment(ctx context.Context, visit *storage.Visit, payment *storage.Payment) (int64, error) {
	if err := s.prepareVisit(ctx, visit); err != nil {
		return 0, err
	}
	if payment != nil && payment.Amount > 0 {
		payment.FirstName = visit.FirstName
		payment.LastName = visit.LastName
	}
	return s.visits.AddWithInitialPayment(ctx, visit, payment)
}

func (s *VisitService) Get(ctx context.Context, id int64) (*storage.Visit, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: visit id is required", ErrValidation)
	}
	return s.visits.GetByID(ctx, id)
}

func (s *VisitService) ListByPatient(ctx context.Context, patientID int64) ([]storage.Visit, error) {
	if patientID <= 0 {
		return nil, fmt.Errorf("%w: patient id is required", ErrValidation)
	}
	return s.visits.GetByPatient(ctx, patientID)
}

func (s *VisitService) List(ctx context.Context) ([]storage.Visit, error) {
	return s.visits.GetAll(ctx)
}

func (s *VisitService) Update(ctx context.Context, visit *storage.Visit) (bool, error) {
	if visit == nil || visit.ID == 0 {
		return false, fmt.Errorf("%w: visit id is required", ErrValidation)
	}
	if err := validateVisit(visit); err != nil {
		return false, err
	}
	return s.visits.Update(ctx, visit)
}

func (s *VisitService) Delete(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, fmt.Errorf("%w: visit id is required", ErrValidation)
	}
	return s.visits.Delete(ctx, id)
}

// prepareVisit validates the visit and fills the denormalized patient name
// from the patient record when the caller left it blank.
func (s *VisitService) prepareVisit(ctx context.Context, visit *storage.Visit) error {
	if visit == nil {
		return fmt.Errorf("%w: visit is nil", ErrValidation)
	}
	if visit.PatientID <= 0 {
		return fmt.Errorf("%w: patient id is required", ErrValidation)
	}

	if visit.FirstName == "" || visit.LastName == "" {
		patient, err := s.patients.GetByID(ctx, visit.PatientID)
		if err != nil {
			return fmt.Errorf("load patient for visit: %w", err)
		}
		visit.FirstName = patient.FirstName
		visit.LastName = patient.LastName
	}

	return validateVisit(visit)
}

func validateVisit(visit *storage.Visit) error {
	visit.DateOfVisit = strings.TrimSpace(visit.DateOfVisit)
	switch {
	case visit.DateOfVisit == "":
		return fmt.Errorf("%w: date of visit is required", ErrValidation)
	case visit.TotalCost < 0:
		return fmt.Errorf("%w: total cost must not be negative", ErrValidation)
	case visit.ModeOfPayment != "" &&
		visit.ModeOfPayment != storage.PaymentModeOneTime &&
		visit.ModeOfPayment != storage.PaymentModeInstallment:
		return fmt.Errorf("%w: unknown mode of payment %q", ErrValidation, visit.ModeOfPayment)
	default:
		return nil
	}
}
