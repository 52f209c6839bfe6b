package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a borrower identified by a unique national ID number.
type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IDNumber  string    `json:"id_number" db:"id_number"`
	Phone     string    `json:"phone" db:"phone"`
	Email     *string   `json:"email,omitempty" db:"email"`
	Location  *string   `json:"location,omitempty" db:"location"`
	PhotoURL  *string   `json:"photo_url,omitempty" db:"photo_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateCustomerRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	IDNumber string  `json:"id_number" validate:"required,max=30"`
	Phone    string  `json:"phone" validate:"required,max=20"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=100"`
}

type UpdateCustomerPhotoRequest struct {
	PhotoURL string `json:"photo_url" validate:"required,url"`
}

// CustomerCheckRequest looks a customer up by either key; at least one must
// be supplied.
type CustomerCheckRequest struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	IDNumber   *string    `json:"id_number,omitempty"`
}

// CustomerCheck reports loan eligibility. A missing customer is not an
// error: exists is simply false.
type CustomerCheck struct {
	Exists           bool      `json:"exists"`
	HasActiveLoan    bool      `json:"has_active_loan"`
	HasActiveArrears bool      `json:"has_active_arrears"`
	Customer         *Customer `json:"customer,omitempty"`
}

// CustomerDetail is a customer together with their loan and arrears history.
type CustomerDetail struct {
	Customer
	Loans   []*Loan    `json:"loans"`
	Arrears []*Arrears `json:"arrears,omitempty"`
}
