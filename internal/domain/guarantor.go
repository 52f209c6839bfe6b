package domain

import (
	"time"

	"github.com/google/uuid"
)

// Guarantor co-signs a single loan.
type Guarantor struct {
	ID           uuid.UUID `json:"id" db:"id"`
	LoanID       uuid.UUID `json:"loan_id" db:"loan_id"`
	Name         string    `json:"name" db:"name"`
	IDNumber     string    `json:"id_number" db:"id_number"`
	Phone        string    `json:"phone" db:"phone"`
	Relationship *string   `json:"relationship,omitempty" db:"relationship"`
	Location     *string   `json:"location,omitempty" db:"location"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type GuarantorInput struct {
	Name         string  `json:"name" validate:"required,max=100"`
	IDNumber     string  `json:"id_number" validate:"required,max=30"`
	Phone        string  `json:"phone" validate:"required,max=20"`
	Relationship *string `json:"relationship,omitempty" validate:"omitempty,max=50"`
	Location     *string `json:"location,omitempty" validate:"omitempty,max=100"`
}
