package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment is a single recorded payment against a loan.
type Installment struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	LoanID      uuid.UUID       `json:"loan_id" db:"loan_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate time.Time       `json:"payment_date" db:"payment_date"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

type RecordPaymentRequest struct {
	IDNumber string          `json:"id_number" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required,decimal_gt=0"`
}

type UpdateInstallmentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,decimal_gt=0"`
}

// InstallmentHistory is a loan's payment history with the total collected.
type InstallmentHistory struct {
	Installments []*Installment  `json:"installments"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}

type PaymentResult struct {
	Installment     *Installment    `json:"installment"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	LoanStatus      string          `json:"loan_status"`
}
