package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkiprop/loanbook/internal/domain"
)

// UserRepository defines operator account data operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// CustomerRepository defines customer data operations.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	GetByIDNumber(ctx context.Context, idNumber string) (*domain.Customer, error)

	// FindConflict returns the name of the unique field ("id_number" or
	// "phone") already taken by another customer, or "" when both are free.
	FindConflict(ctx context.Context, idNumber, phone string) (string, error)

	List(ctx context.Context, limit, offset int) ([]*domain.Customer, error)
	Search(ctx context.Context, q string, limit int) ([]*domain.Customer, error)
	UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error
}

// LoanRepository defines loan data operations, including the atomic
// installment mutations: every installment insert, edit, or delete
// recomputes the loan's remaining amount and status in the same
// transaction.
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// GetOpenByCustomer returns the customer's most recent loan still in an
	// open status, or nil when there is none.
	GetOpenByCustomer(ctx context.Context, idNumber string) (*domain.Loan, error)

	ListOpen(ctx context.Context) ([]*domain.Loan, error)
	ListByCustomer(ctx context.Context, idNumber string) ([]*domain.Loan, error)
	Update(ctx context.Context, loan *domain.Loan) error

	RecordInstallment(ctx context.Context, loan *domain.Loan, installment *domain.Installment, now time.Time) (*domain.Loan, error)
	UpdateInstallment(ctx context.Context, loan *domain.Loan, installmentID uuid.UUID, amount decimal.Decimal, now time.Time) (*domain.Loan, error)
	DeleteInstallment(ctx context.Context, loan *domain.Loan, installmentID uuid.UUID, now time.Time) (*domain.Loan, error)

	// Dashboard aggregates
	CountOpen(ctx context.Context) (int, error)
	SumOpenOutstanding(ctx context.Context) (decimal.Decimal, error)
	SumCompletedBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	CountOpenStartedBetween(ctx context.Context, from, to time.Time) (int, error)
	SumInterestStartedBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	ListStartedBetween(ctx context.Context, from, to time.Time, statuses []string) ([]*domain.Loan, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Loan, error)
}

// InstallmentRepository defines read-side installment operations.
type InstallmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Installment, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Installment, error)
	SumByLoan(ctx context.Context, loanID uuid.UUID) (decimal.Decimal, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*domain.Installment, error)
}

// GuarantorRepository defines guarantor data operations.
type GuarantorRepository interface {
	Upsert(ctx context.Context, guarantor *domain.Guarantor) error
	GetByLoan(ctx context.Context, loanID uuid.UUID) (*domain.Guarantor, error)
}

// ArrearsRepository defines arrears record data operations.
type ArrearsRepository interface {
	Create(ctx context.Context, arrears *domain.Arrears) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Arrears, error)
	GetByLoanID(ctx context.Context, loanID uuid.UUID) (*domain.Arrears, error)
	Update(ctx context.Context, arrears *domain.Arrears) error
	List(ctx context.Context, onlyActive bool, limit, offset int) ([]*domain.Arrears, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Arrears, error)
	HasUnclearedByCustomer(ctx context.Context, customerID uuid.UUID) (bool, error)

	// Dashboard aggregates
	CountUncleared(ctx context.Context) (int, error)
	SumUnclearedRemaining(ctx context.Context) (decimal.Decimal, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}
