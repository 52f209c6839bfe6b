package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrLoanNotFound         = errors.New("loan not found")
	ErrInstallmentNotFound  = errors.New("installment not found")
	ErrArrearsNotFound      = errors.New("arrears record not found")
	ErrDuplicateCustomer    = errors.New("customer already exists")
	ErrActiveLoanExists     = errors.New("customer already has an active loan")
	ErrUnclearedArrears     = errors.New("customer has uncleared arrears")
	ErrNoActiveLoan         = errors.New("no active loan found for this customer")
	ErrLoanOverdue          = errors.New("loan is overdue; pay through the arrears flow")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrOverpayment          = errors.New("payment exceeds the remaining balance")
	ErrArrearsCleared       = errors.New("arrears already cleared")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrWrongPassword        = errors.New("old password is incorrect")
)

// Error codes
const (
	CodeCustomerNotFound    = "CUSTOMER_NOT_FOUND"
	CodeLoanNotFound        = "LOAN_NOT_FOUND"
	CodeInstallmentNotFound = "INSTALLMENT_NOT_FOUND"
	CodeArrearsNotFound     = "ARREARS_NOT_FOUND"
	CodeDuplicateCustomer   = "DUPLICATE_CUSTOMER"
	CodeActiveLoanExists    = "ACTIVE_LOAN_EXISTS"
	CodeUnclearedArrears    = "UNCLEARED_ARREARS"
	CodeNoActiveLoan        = "NO_ACTIVE_LOAN"
	CodeLoanOverdue         = "LOAN_OVERDUE"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeOverpayment         = "OVERPAYMENT"
	CodeArrearsCleared      = "ARREARS_ALREADY_CLEARED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeNotAuthenticated    = "NOT_AUTHENTICATED"
	CodeWrongPassword       = "WRONG_PASSWORD"
	CodeValidation          = "VALIDATION_ERROR"
	CodeDatabaseError       = "DATABASE_ERROR"
)

// BusinessError carries a stable code alongside a user-facing message.
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error.
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{Code: code, Message: message, Err: err}
}

// HTTPStatus maps an error code to the status the API surfaces it with.
func HTTPStatus(code string) int {
	switch code {
	case CodeCustomerNotFound, CodeLoanNotFound, CodeInstallmentNotFound, CodeArrearsNotFound:
		return http.StatusNotFound
	case CodeInvalidCredentials, CodeNotAuthenticated:
		return http.StatusUnauthorized
	case CodeDatabaseError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// Wrap common errors with business context

func WrapCustomerNotFound(key string) *BusinessError {
	return NewBusinessError(CodeCustomerNotFound, "Customer not found", fmt.Errorf("%w: %s", ErrCustomerNotFound, key))
}

func WrapLoanNotFound(id string) *BusinessError {
	return NewBusinessError(CodeLoanNotFound, "Loan not found", fmt.Errorf("%w: %s", ErrLoanNotFound, id))
}

func WrapInstallmentNotFound(id string) *BusinessError {
	return NewBusinessError(CodeInstallmentNotFound, "Installment not found", fmt.Errorf("%w: %s", ErrInstallmentNotFound, id))
}

func WrapArrearsNotFound(id string) *BusinessError {
	return NewBusinessError(CodeArrearsNotFound, "Arrears not found", fmt.Errorf("%w: %s", ErrArrearsNotFound, id))
}

func WrapDuplicateCustomer(field string) *BusinessError {
	return NewBusinessError(CodeDuplicateCustomer, fmt.Sprintf("Customer with this %s already exists", field), ErrDuplicateCustomer)
}

func WrapActiveLoanExists(idNumber string) *BusinessError {
	return NewBusinessError(CodeActiveLoanExists, "Customer already has an active loan", fmt.Errorf("%w: %s", ErrActiveLoanExists, idNumber))
}

func WrapUnclearedArrears(idNumber string) *BusinessError {
	return NewBusinessError(CodeUnclearedArrears, "Customer has uncleared arrears that must be settled first", fmt.Errorf("%w: %s", ErrUnclearedArrears, idNumber))
}

func WrapNoActiveLoan(idNumber string) *BusinessError {
	return NewBusinessError(CodeNoActiveLoan, "No active loan found for this customer", fmt.Errorf("%w: %s", ErrNoActiveLoan, idNumber))
}

func WrapLoanOverdue(idNumber string) *BusinessError {
	return NewBusinessError(CodeLoanOverdue, "Loan is overdue and must be paid through the arrears flow", fmt.Errorf("%w: %s", ErrLoanOverdue, idNumber))
}

func WrapInvalidAmount() *BusinessError {
	return NewBusinessError(CodeInvalidAmount, "Amount must be positive", ErrInvalidAmount)
}

func WrapOverpayment(remaining string) *BusinessError {
	return NewBusinessError(CodeOverpayment, fmt.Sprintf("Payment exceeds the remaining balance of %s", remaining), ErrOverpayment)
}

func WrapArrearsCleared(id string) *BusinessError {
	return NewBusinessError(CodeArrearsCleared, "Arrears already cleared", fmt.Errorf("%w: %s", ErrArrearsCleared, id))
}

func WrapInvalidCredentials() *BusinessError {
	return NewBusinessError(CodeInvalidCredentials, "Invalid username or password", ErrInvalidCredentials)
}

func WrapNotAuthenticated(reason string) *BusinessError {
	return NewBusinessError(CodeNotAuthenticated, reason, ErrNotAuthenticated)
}

func WrapWrongPassword() *BusinessError {
	return NewBusinessError(CodeWrongPassword, "Old password is incorrect", ErrWrongPassword)
}

func WrapValidation(err error) *BusinessError {
	return NewBusinessError(CodeValidation, "Invalid request payload", err)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(CodeDatabaseError, "Database operation failed", err)
}
