package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nielle003/patient-record/internal/auth"
	"github.com/nielle003/patient-record/internal/pagination"
	"github.com/nielle003/patient-record/internal/storage"
)

func TestPatientServiceValidatesIntakeFields(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewPatientService(store.Patients)
	ctx := context.Background()

	_, err := svc.Add(ctx, &storage.Patient{LastName: "Santos"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Add(ctx, &storage.Patient{
		FirstName:     "   ",
		LastName:      "Santos",
		Gender:        "F",
		Birthday:      "1990-04-12",
		ContactNumber: "0917-555-0101",
	})
	require.ErrorIs(t, err, ErrValidation)

	id, err := svc.Add(ctx, &storage.Patient{
		FirstName:     "  Maria ",
		LastName:      "Santos",
		Gender:        "F",
		Birthday:      "1990-04-12",
		ContactNumber: "0917-555-0101",
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Maria", got.FirstName)
}

func TestPatientServiceSearchBlankTermListsAll(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewPatientService(store.Patients)
	ctx := context.Background()

	seedPatient(t, store)

	all, err := svc.Search(ctx, "   ")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestPatientServicePagedListing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewPatientService(store.Patients)
	ctx := context.Background()

	for _, last := range []string{"Aquino", "Bautista", "Castro"} {
		_, err := svc.Add(ctx, &storage.Patient{
			FirstName:     "Test",
			LastName:      last,
			Gender:        "F",
			Birthday:      "1990-01-01",
			ContactNumber: "0000",
		})
		require.NoError(t, err)
	}

	page, err := svc.ListPaged(ctx, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Patients, 2)
	require.Equal(t, 1, page.Meta.CurrentPage)
	require.Equal(t, 2, page.Meta.TotalPages)
	require.Equal(t, 3, page.Meta.TotalRecords)
	require.True(t, page.Meta.HasNext)
	require.False(t, page.Meta.HasPrevious)

	page, err = svc.ListPaged(ctx, pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Patients, 1)
	require.False(t, page.Meta.HasNext)
	require.True(t, page.Meta.HasPrevious)

	// Out-of-range values clamp to defaults rather than erroring.
	page, err = svc.ListPaged(ctx, pagination.Params{Page: -3, Limit: 0})
	require.NoError(t, err)
	require.Equal(t, 1, page.Meta.CurrentPage)
}

func TestVisitServiceFillsPatientNameWhenBlank(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	patients := NewPatientService(store.Patients)
	visits := NewVisitService(store.Visits, store.Patients)
	ctx := context.Background()

	patientID, err := patients.Add(ctx, &storage.Patient{
		FirstName:     "Maria",
		LastName:      "Santos",
		Gender:        "F",
		Birthday:      "1990-04-12",
		ContactNumber: "0917-555-0101",
	})
	require.NoError(t, err)

	id, err := visits.Add(ctx, &storage.Visit{
		PatientID:   patientID,
		DateOfVisit: "2024-03-01T09:00:00.000Z",
		TotalCost:   100,
	})
	require.NoError(t, err)

	visit, err := visits.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Maria", visit.FirstName)
	require.Equal(t, "Santos", visit.LastName)
}

func TestVisitServiceValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	visits := NewVisitService(store.Visits, store.Patients)
	ctx := context.Background()
	patientID := seedPatient(t, store)

	_, err := visits.Add(ctx, &storage.Visit{PatientID: patientID, TotalCost: 100})
	require.ErrorIs(t, err, ErrValidation)

	_, err = visits.Add(ctx, &storage.Visit{
		PatientID:   patientID,
		DateOfVisit: "2024-03-01T09:00:00.000Z",
		TotalCost:   -5,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = visits.Add(ctx, &storage.Visit{
		PatientID:     patientID,
		DateOfVisit:   "2024-03-01T09:00:00.000Z",
		ModeOfPayment: "Barter",
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = visits.Add(ctx, &storage.Visit{
		DateOfVisit: "2024-03-01T09:00:00.000Z",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestVisitServiceInitialPaymentInheritsName(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	visits := NewVisitService(store.Visits, store.Patients)
	ctx := context.Background()
	patientID := seedPatient(t, store)

	visitID, err := visits.AddWithInitialPayment(ctx, &storage.Visit{
		PatientID:     patientID,
		DateOfVisit:   "2024-03-01T09:00:00.000Z",
		ModeOfPayment: storage.PaymentModeInstallment,
		TotalCost:     300,
	}, &storage.Payment{
		Amount:      100,
		PaymentDate: "2024-03-01T09:00:00.000Z",
	})
	require.NoError(t, err)

	payments, err := store.Payments.GetByVisit(ctx, visitID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, "Maria", payments[0].FirstName)
	require.Equal(t, "Santos", payments[0].LastName)
}

func TestPaymentServiceValidation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewPaymentService(store.Payments)
	ctx := context.Background()

	_, err := svc.Add(ctx, &storage.Payment{Amount: 10, PaymentDate: "2024-03-01"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Add(ctx, &storage.Payment{VisitID: 1, Amount: 0, PaymentDate: "2024-03-01"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Add(ctx, &storage.Payment{VisitID: 1, Amount: 10})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUserServiceRegisterAndLogin(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewUserService(store.Users, testLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, "  ", []byte("longenough"))
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "reception", []byte("abc"))
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "reception", []byte("s3cret"))
	require.NoError(t, err)

	require.NoError(t, svc.Login(ctx, "reception", []byte("s3cret")))
	require.ErrorIs(t, svc.Login(ctx, "reception", []byte("wrong")), ErrAuthFailed)
	require.ErrorIs(t, svc.Login(ctx, "nobody", []byte("s3cret")), ErrAuthFailed)
}

func TestUserServiceSeededAdminLogin(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewUserService(store.Users, testLogger())

	require.NoError(t, svc.Login(context.Background(), "admin", []byte("1234")))
}

func TestUserServiceUpgradesLegacyPlaintextPassword(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewUserService(store.Users, testLogger())
	ctx := context.Background()

	// Simulate a row restored from an old backup that stored plaintext.
	id, err := store.Users.Create(ctx, &storage.User{Username: "legacy", Password: "oldpass"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Login(ctx, "legacy", []byte("wrong")), ErrAuthFailed)
	require.NoError(t, svc.Login(ctx, "legacy", []byte("oldpass")))

	user, err := store.Users.GetByUsername(ctx, "legacy")
	require.NoError(t, err)
	require.Equal(t, id, user.ID)
	require.True(t, auth.IsHashed(user.Password))

	// The upgraded hash still verifies the same password.
	require.NoError(t, svc.Login(ctx, "legacy", []byte("oldpass")))
}

func TestUserServiceListStripsPasswords(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewUserService(store.Users, testLogger())

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, users)
	for _, u := range users {
		require.Empty(t, u.Password)
	}
}
