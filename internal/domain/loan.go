package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "active"
	LoanStatusOverdue   = "overdue"
	LoanStatusCompleted = "completed"

	// LoanStatusArrears is a legacy value still present in old rows; it is
	// normalized to overdue whenever a loan is loaded.
	LoanStatusArrears = "arrears"
)

// LoanTermDays is the repayment window granted at issuance.
const LoanTermDays = 30

// Loan represents a single loan issued to a customer. CustomerID holds the
// customer's national ID number, not the surrogate key.
type Loan struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CustomerID      string          `json:"customer_id" db:"customer_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	InterestRate    decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount" db:"remaining_amount"`
	StartDate       time.Time       `json:"start_date" db:"start_date"`
	DueDate         time.Time       `json:"due_date" db:"due_date"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// IsOpen reports whether the loan still accepts payments.
func (l *Loan) IsOpen() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusOverdue
}

// TotalPayable computes principal plus flat interest, rounded to cents.
// The rate is a percentage (20 means 20%).
func TotalPayable(amount, ratePercent decimal.Decimal) decimal.Decimal {
	interest := amount.Mul(ratePercent).Div(decimal.NewFromInt(100))
	return amount.Add(interest).Round(2)
}

// InterestEarned computes the flat interest portion of a loan.
func InterestEarned(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// DueDateFor returns the default due date for a loan starting on start.
func DueDateFor(start time.Time) time.Time {
	return start.AddDate(0, 0, LoanTermDays)
}

// NormalizeStatus maps the legacy arrears status to overdue.
func NormalizeStatus(status string) string {
	if status == LoanStatusArrears {
		return LoanStatusOverdue
	}
	return status
}

// DeriveStatus re-derives a loan's status from its outstanding balance and
// due date. Completed wins over overdue.
func DeriveStatus(dueDate time.Time, remaining decimal.Decimal, today time.Time) string {
	if remaining.LessThanOrEqual(decimal.Zero) {
		return LoanStatusCompleted
	}
	if dueDate.Before(TruncateToDay(today)) {
		return LoanStatusOverdue
	}
	return LoanStatusActive
}

// TruncateToDay drops the time-of-day component.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	IDNumber     string          `json:"id_number" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"required,decimal_gt=0"`
	InterestRate decimal.Decimal `json:"interest_rate" validate:"decimal_gte=0"`
	StartDate    string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	Guarantor    *GuarantorInput `json:"guarantor,omitempty"`
}

type UpdateLoanRequest struct {
	DueDate string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type CreateLoanResponse struct {
	Loan      *Loan      `json:"loan"`
	Guarantor *Guarantor `json:"guarantor,omitempty"`
}
