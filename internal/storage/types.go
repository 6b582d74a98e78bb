package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrClosed       = errors.New("storage: store is closed")
	ErrSchemaTooNew = errors.New("storage: schema version newer than code")
	ErrUnknownTable = errors.New("storage: unknown table")
)

// ModeOfPayment values accepted on visits.
const (
	PaymentModeOneTime     = "One-time Payment"
	PaymentModeInstallment = "Installment"
)

type User struct {
	ID        int64
	Username  string
	Password  string
	CreatedAt int64
}

type Patient struct {
	ID            int64
	FirstName     string
	LastName      string
	Gender        string
	Birthday      string
	ContactNumber string
	Occupation    string
	Company       string
	HMO           string
	HMONumber     string
	ValidID       string
	IDNumber      string
	CreatedAt     int64
}

// Visit carries a denormalized copy of the patient name taken at visit time.
// TotalPaid and Balance are derived caches maintained by the payment
// repository; Balance == TotalCost - TotalPaid after every payment mutation.
type Visit struct {
	ID            int64
	PatientID     int64
	FirstName     string
	LastName      string
	ProcedureDone string
	Comments      string
	DateOfVisit   string
	ModeOfPayment string
	TotalCost     float64
	TotalPaid     float64
	Balance       float64
}

type Payment struct {
	ID            int64
	VisitID       int64
	FirstName     string
	LastName      string
	Amount        float64
	PaymentDate   string
	PaymentMethod string
	Notes         string
	CreatedAt     int64
}

// Page addresses one window of a paginated listing. Page is zero-based to
// match OFFSET arithmetic.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) offset() int {
	return p.Page * p.PageSize
}

type UserRepository interface {
	Create(ctx context.Context, user *User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdatePassword(ctx context.Context, id int64, password string) (bool, error)
}

type PatientRepository interface {
	Add(ctx context.Context, patient *Patient) (int64, error)
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetAll(ctx context.Context) ([]Patient, error)
	Search(ctx context.Context, term string) ([]Patient, error)
	ListPaged(ctx context.Context, page Page) ([]Patient, error)
	SearchPaged(ctx context.Context, term string, page Page) ([]Patient, error)
	Count(ctx context.Context) (int, error)
	SearchCount(ctx context.Context, term string) (int, error)
	Update(ctx context.Context, patient *Patient) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type VisitRepository interface {
	Add(ctx context.Context, visit *Visit) (int64, error)
	AddWithInitialPayment(ctx context.Context, visit *Visit, payment *Payment) (int64, error)
	GetByID(ctx context.Context, id int64) (*Visit, error)
	GetByPatient(ctx context.Context, patientID int64) ([]Visit, error)
	GetAll(ctx context.Context) ([]Visit, error)
	Update(ctx context.Context, visit *Visit) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type PaymentRepository interface {
	Add(ctx context.Context, payment *Payment) (int64, error)
	GetByVisit(ctx context.Context, visitID int64) ([]Payment, error)
	GetAll(ctx context.Context) ([]Payment, error)
	Update(ctx context.Context, payment *Payment) (bool, error)
	Delete(ctx context.Context, id, visitID int64) (bool, error)
	TotalPaidForVisit(ctx context.Context, visitID int64) (float64, error)
	DeleteAllForVisit(ctx context.Context, visitID int64) (bool, error)
	DeleteAllForPatient(ctx context.Context, patientID int64) (bool, error)
}
