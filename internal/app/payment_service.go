package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/nielle003/patient-record/internal/storage"
)

// PaymentService fronts the payment repository; the repository keeps the
// parent visit's totalPaid/balance in step inside the mutation transaction.
type PaymentService struct {
	payments storage.PaymentRepository
}

func NewPaymentService(payments storage.PaymentRepository) *PaymentService {
	return &PaymentService{payments: payments}
}

func (s *PaymentService) Add(ctx context.Context, payment *storage.Payment) (int64, error) {
	if err := validatePayment(payment); err != nil {
		return 0, err
	}
	return s.payments.Add(ctx, payment)
}

func (s *PaymentService) ListByVisit(ctx context.Context, visitID int64) ([]storage.Payment, error) {
	if visitID <= 0 {
		return nil, fmt.Errorf("%w: visit id is required", ErrValidation)
	}
	return s.payments.GetByVisit(ctx, visitID)
}

func (s *PaymentService) List(ctx context.Context) ([]storage.Payment, error) {
	return s.payments.GetAll(ctx)
}

func (s *PaymentService) Update(ctx context.Context, payment *storage.Payment) (bool, error) {
	if payment == nil || payment.ID == 0 {
		return false, fmt.Errorf("%w: payment id is required", ErrValidation)
	}
	if err := validatePayment(payment); err != nil {
		return false, err
	}
	return s.payments.Update(ctx, payment)
}

func (s *PaymentService) Delete(ctx context.Context, id, visitID int64) (bool, error) {
	if id <= 0 || visitID <= 0 {
		return false, fmt.Errorf("%w: payment id and visit id are required", ErrValidation)
	}
	return s.payments.Delete(ctx, id, visitID)
}

func (s *PaymentService) TotalPaidForVisit(ctx context.Context, visitID int64) (float64, error) {
	if visitID <= 0 {
		return 0, fmt.Errorf("%w: visit id is required", ErrValidation)
	}
	return s.payments.TotalPaidForVisit(ctx, visitID)
}

func validatePayment(payment *storage.Payment) error {
	if payment == nil {
		return fmt.Errorf("%w: payment is nil", ErrValidation)
	}
	payment.PaymentDate = strings.TrimSpace(payment.PaymentDate)
	switch {
	case payment.VisitID <= 0:
		return fmt.Errorf("%w: visit id is required", ErrValidation)
	case payment.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	case payment.PaymentDate == "":
		return fmt.Errorf("%w: payment date is required", ErrValidation)
	default:
		return nil
	}
}
