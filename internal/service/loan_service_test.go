package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkiprop/loanbook/internal/domain"
	bizerr "github.com/mkiprop/loanbook/pkg/errors"
)

type loanServiceMocks struct {
	loanRepo      *MockLoanRepository
	customerRepo  *MockCustomerRepository
	guarantorRepo *MockGuarantorRepository
	arrearsRepo   *MockArrearsRepository
}

func newLoanService(t *testing.T) (*LoanService, *loanServiceMocks) {
	t.Helper()
	m := &loanServiceMocks{
		loanRepo:      &MockLoanRepository{},
		customerRepo:  &MockCustomerRepository{},
		guarantorRepo: &MockGuarantorRepository{},
		arrearsRepo:   &MockArrearsRepository{},
	}
	svc := NewLoanService(m.loanRepo, m.customerRepo, m.guarantorRepo, m.arrearsRepo, nil, nil, zap.NewNop())
	return svc, m
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var bizErr *bizerr.BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, code, bizErr.Code)
}

func testCustomer(idNumber string) *domain.Customer {
	return &domain.Customer{
		ID:       uuid.New(),
		Name:     "Jane Chebet",
		IDNumber: idNumber,
		Phone:    "0712345678",
	}
}

func TestCreateLoan_Success(t *testing.T) {
	svc, m := newLoanService(t)
	customer := testCustomer("12345678")

	m.customerRepo.On("GetByIDNumber", mock.Anything, "12345678").Return(customer, nil)
	m.loanRepo.On("GetOpenByCustomer", mock.Anything, "12345678").Return(nil, nil)
	m.arrearsRepo.On("HasUnclearedByCustomer", mock.Anything, customer.ID).Return(false, nil)
	m.loanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
		return loan.CustomerID == "12345678" &&
			loan.TotalAmount.Equal(decimal.RequireFromString("1200")) &&
			loan.RemainingAmount.Equal(decimal.RequireFromString("1200")) &&
			loan.Status == domain.LoanStatusActive
	})).Return(nil)

	resp, err := svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		IDNumber:     "12345678",
		Amount:       decimal.RequireFromString("1000"),
		InterestRate: decimal.RequireFromString("20"),
		StartDate:    "2025-06-01",
	})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), resp.Loan.DueDate)
	assert.Nil(t, resp.Guarantor)

	m.loanRepo.AssertExpectations(t)
}

func TestCreateLoan_WithGuarantor(t *testing.T) {
	svc, m := newLoanService(t)
	customer := testCustomer("12345678")

	m.customerRepo.On("GetByIDNumber", mock.Anything, "12345678").Return(customer, nil)
	m.loanRepo.On("GetOpenByCustomer", mock.Anything, "12345678").Return(nil, nil)
	m.arrearsRepo.On("HasUnclearedByCustomer", mock.Anything, customer.ID).Return(false, nil)
	m.loanRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.guarantorRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(g *domain.Guarantor) bool {
		return g.Name == "John Kiprono" && g.IDNumber == "87654321"
	})).Return(nil)

	resp, err := svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		IDNumber:     "12345678",
		Amount:       decimal.RequireFromString("1000"),
		InterestRate: decimal.RequireFromString("20"),
		StartDate:    "2025-06-01",
		Guarantor: &domain.GuarantorInput{
			Name:     "John Kiprono",
			IDNumber: "87654321",
			Phone:    "0798765432",
		},
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Guarantor)
	assert.Equal(t, resp.Loan.ID, resp.Guarantor.LoanID)

	m.guarantorRepo.AssertExpectations(t)
}

func TestCreateLoan_CustomerNotFound(t *testing.T) {
	svc, m := newLoanService(t)

	m.customerRepo.On("GetByIDNumber", mock.Anything, "00000000").Return(nil, sql.ErrNoRows)

	_, err := svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		IDNumber:  "00000000",
		Amount:    decimal.RequireFromString("1000"),
		StartDate: "2025-06-01",
	})

	assertCode(t, err, bizerr.CodeCustomerNotFound)
}

func TestCreateLoan_ActiveLoanExists(t *testing.T) {
	svc, m := newLoanService(t)
	customer := testCustomer("12345678")

	m.customerRepo.On("GetByIDNumber", mock.Anything, "12345678").Return(customer, nil)
	m.loanRepo.On("GetOpenByCustomer", mock.Anything, "12345678").Return(&domain.Loan{
		ID:     uuid.New(),
		Status: domain.LoanStatusActive,
	}, nil)

	_, err := svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		IDNumber:  "12345678",
		Amount:    decimal.RequireFromString("1000"),
		StartDate: "2025-06-01",
	})

	assertCode(t, err, bizerr.CodeActiveLoanExists)
	m.loanRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateLoan_UnclearedArrears(t *testing.T) {
	svc, m := newLoanService(t)
	customer := testCustomer("12345678")

	m.customerRepo.On("GetByIDNumber", mock.Anything, "12345678").Return(customer, nil)
	m.loanRepo.On("GetOpenByCustomer", mock.Anything, "12345678").Return(nil, nil)
	m.arrearsRepo.On("HasUnclearedByCustomer", mock.Anything, customer.ID).Return(true, nil)

	_, err := svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		IDNumber:  "12345678",
		Amount:    decimal.RequireFromString("1000"),
		StartDate: "2025-06-01",
	})

	assertCode(t, err, bizerr.CodeUnclearedArrears)
	m.loanRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGet_NotFound(t *testing.T) {
	svc, m := newLoanService(t)
	id := uuid.New()

	m.loanRepo.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	_, err := svc.Get(context.Background(), id)
	assertCode(t, err, bizerr.CodeLoanNotFound)
}

func TestSync_MarksOverdueAndOpensArrears(t *testing.T) {
	svc, m := newLoanService(t)
	customer := testCustomer("12345678")
	loan := &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      "12345678",
		TotalAmount:     decimal.RequireFromString("1200"),
		RemainingAmount: decimal.RequireFromString("700"),
		DueDate:         time.Now().AddDate(0, 0, -5),
		Status:          domain.LoanStatusActive,
	}

	m.arrearsRepo.On("GetByLoanID", mock.Anything, loan.ID).Return(nil, nil)
	m.customerRepo.On("GetByIDNumber", mock.Anything, "12345678").Return(customer, nil)
	m.arrearsRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.Arrears) bool {
		return a.LoanID == loan.ID &&
			a.CustomerID == customer.ID &&
			a.RemainingAmount.Equal(loan.RemainingAmount) &&
			!a.IsCleared
	})).Return(nil)
	m.loanRepo.On("Update", mock.Anything, loan).Return(nil)

	synced, err := svc.Sync(context.Background(), loan)

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, synced.Status)
	m.arrearsRepo.AssertExpectations(t)
	m.loanRepo.AssertExpectations(t)
}

func TestSync_ReMirrorsDriftedArrears(t *testing.T) {
	svc, m := newLoanService(t)
	loan := &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      "12345678",
		TotalAmount:     decimal.RequireFromString("1200"),
		RemainingAmount: decimal.RequireFromString("400"),
		DueDate:         time.Now().AddDate(0, 0, -5),
		Status:          domain.LoanStatusOverdue,
	}
	stale := &domain.Arrears{
		ID:              uuid.New(),
		LoanID:          loan.ID,
		RemainingAmount: decimal.RequireFromString("700"),
	}

	m.arrearsRepo.On("GetByLoanID", mock.Anything, loan.ID).Return(stale, nil)
	m.arrearsRepo.On("Update", mock.Anything, mock.MatchedBy(func(a *domain.Arrears) bool {
		return a.RemainingAmount.Equal(decimal.RequireFromString("400")) && !a.IsCleared
	})).Return(nil)

	_, err := svc.Sync(context.Background(), loan)

	require.NoError(t, err)
	m.arrearsRepo.AssertExpectations(t)
	// Status unchanged, no loan write needed.
	m.loanRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSync_CompletesPaidOffLoanAndClearsArrears(t *testing.T) {
	svc, m := newLoanService(t)
	loan := &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      "12345678",
		TotalAmount:     decimal.RequireFromString("1200"),
		RemainingAmount: decimal.Zero,
		DueDate:         time.Now().AddDate(0, 0, -5),
		Status:          domain.LoanStatusOverdue,
	}
	arrears := &domain.Arrears{
		ID:              uuid.New(),
		LoanID:          loan.ID,
		RemainingAmount: decimal.RequireFromString("700"),
	}

	m.arrearsRepo.On("GetByLoanID", mock.Anything, loan.ID).Return(arrears, nil)
	m.arrearsRepo.On("Update", mock.Anything, mock.MatchedBy(func(a *domain.Arrears) bool {
		return a.IsCleared && a.RemainingAmount.IsZero() && a.ClearedDate != nil
	})).Return(nil)
	m.loanRepo.On("Update", mock.Anything, loan).Return(nil)

	synced, err := svc.Sync(context.Background(), loan)

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusCompleted, synced.Status)
	require.NotNil(t, synced.CompletedAt)
	m.arrearsRepo.AssertExpectations(t)
}

func TestSync_LegacyArrearsStatusNormalized(t *testing.T) {
	svc, m := newLoanService(t)
	loan := &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      "12345678",
		TotalAmount:     decimal.RequireFromString("1200"),
		RemainingAmount: decimal.RequireFromString("700"),
		DueDate:         time.Now().AddDate(0, 0, -5),
		Status:          domain.LoanStatusArrears,
	}
	existing := &domain.Arrears{
		ID:              uuid.New(),
		LoanID:          loan.ID,
		RemainingAmount: decimal.RequireFromString("700"),
	}

	m.arrearsRepo.On("GetByLoanID", mock.Anything, loan.ID).Return(existing, nil)
	m.loanRepo.On("Update", mock.Anything, loan).Return(nil)

	synced, err := svc.Sync(context.Background(), loan)

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, synced.Status)
	m.loanRepo.AssertExpectations(t)
}

func TestSync_LeavesCurrentLoanAlone(t *testing.T) {
	svc, m := newLoanService(t)
	loan := &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      "12345678",
		TotalAmount:     decimal.RequireFromString("1200"),
		RemainingAmount: decimal.RequireFromString("700"),
		DueDate:         time.Now().AddDate(0, 0, 10),
		Status:          domain.LoanStatusActive,
	}

	synced, err := svc.Sync(context.Background(), loan)

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, synced.Status)
	m.loanRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	m.arrearsRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSweepOverdue_CountsTouchedLoans(t *testing.T) {
	svc, m := newLoanService(t)
	customer := testCustomer("12345678")

	current := &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      "12345678",
		TotalAmount:     decimal.RequireFromString("1200"),
		RemainingAmount: decimal.RequireFromString("700"),
		DueDate:         time.Now().AddDate(0, 0, 10),
		Status:          domain.LoanStatusActive,
	}
	pastDue := &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      "12345678",
		TotalAmount:     decimal.RequireFromString("1200"),
		RemainingAmount: decimal.RequireFromString("700"),
		DueDate:         time.Now().AddDate(0, 0, -3),
		Status:          domain.LoanStatusActive,
	}

	m.loanRepo.On("ListOpen", mock.Anything).Return([]*domain.Loan{current, pastDue}, nil)
	m.arrearsRepo.On("GetByLoanID", mock.Anything, pastDue.ID).Return(nil, nil)
	m.customerRepo.On("GetByIDNumber", mock.Anything, "12345678").Return(customer, nil)
	m.arrearsRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.loanRepo.On("Update", mock.Anything, pastDue).Return(nil)

	touched, err := svc.SweepOverdue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, touched)
}

func TestUpdateDueDate_ReactivatesOverdueLoan(t *testing.T) {
	svc, m := newLoanService(t)
	loan := &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      "12345678",
		TotalAmount:     decimal.RequireFromString("1200"),
		RemainingAmount: decimal.RequireFromString("700"),
		DueDate:         time.Now().AddDate(0, 0, -3),
		Status:          domain.LoanStatusOverdue,
	}
	future := time.Now().AddDate(0, 0, 14).Format("2006-01-02")

	m.loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
	m.loanRepo.On("Update", mock.Anything, loan).Return(nil)

	updated, err := svc.UpdateDueDate(context.Background(), loan.ID, future)

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, updated.Status)
}

func TestUpdateDueDate_InvalidDate(t *testing.T) {
	svc, m := newLoanService(t)
	loan := &domain.Loan{ID: uuid.New(), Status: domain.LoanStatusActive}

	m.loanRepo.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)

	_, err := svc.UpdateDueDate(context.Background(), loan.ID, "15-06-2025")
	assertCode(t, err, bizerr.CodeValidation)
}

func TestUpsertGuarantor_LoanNotFound(t *testing.T) {
	svc, m := newLoanService(t)
	id := uuid.New()

	m.loanRepo.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	_, err := svc.UpsertGuarantor(context.Background(), id, &domain.GuarantorInput{Name: "John"})
	assertCode(t, err, bizerr.CodeLoanNotFound)
}

func TestCreateLoan_DatabaseErrorWrapped(t *testing.T) {
	svc, m := newLoanService(t)

	m.customerRepo.On("GetByIDNumber", mock.Anything, "12345678").Return(nil, errors.New("connection reset"))

	_, err := svc.CreateLoan(context.Background(), &domain.CreateLoanRequest{
		IDNumber:  "12345678",
		Amount:    decimal.RequireFromString("1000"),
		StartDate: "2025-06-01",
	})

	assertCode(t, err, bizerr.CodeDatabaseError)
}
