package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Arrears tracks the outstanding balance of a loan that went past its due
// date. One row per loan; remaining_amount mirrors the loan's while the
// record is uncleared.
type Arrears struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	LoanID          uuid.UUID       `json:"loan_id" db:"loan_id"`
	CustomerID      uuid.UUID       `json:"customer_id" db:"customer_id"`
	OriginalAmount  decimal.Decimal `json:"original_amount" db:"original_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount" db:"remaining_amount"`
	ArrearsDate     time.Time       `json:"arrears_date" db:"arrears_date"`
	IsCleared       bool            `json:"is_cleared" db:"is_cleared"`
	ClearedDate     *time.Time      `json:"cleared_date,omitempty" db:"cleared_date"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

type ArrearsPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,decimal_gt=0"`
}

type ArrearsPaymentResult struct {
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	IsCleared       bool            `json:"is_cleared"`
}
