package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkiprop/loanbook/internal/domain"
	bizerr "github.com/mkiprop/loanbook/pkg/errors"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	var bizErr *bizerr.BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, bizerr.CodeValidation, bizErr.Code)
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDecode_ValidLoanRequest(t *testing.T) {
	v := newValidator()
	var req domain.CreateLoanRequest

	err := decode(jsonRequest(`{
		"id_number": "12345678",
		"amount": "1000",
		"interest_rate": "20",
		"start_date": "2025-06-01"
	}`), v, &req)

	require.NoError(t, err)
	assert.Equal(t, "12345678", req.IDNumber)
	assert.True(t, req.Amount.Equal(decimalFromString(t, "1000")))
}

func TestDecode_ZeroAmountRejected(t *testing.T) {
	v := newValidator()
	var req domain.CreateLoanRequest

	err := decode(jsonRequest(`{
		"id_number": "12345678",
		"amount": "0",
		"interest_rate": "20",
		"start_date": "2025-06-01"
	}`), v, &req)

	assertValidation(t, err)
}

func TestDecode_NegativeInterestRejected(t *testing.T) {
	v := newValidator()
	var req domain.CreateLoanRequest

	err := decode(jsonRequest(`{
		"id_number": "12345678",
		"amount": "1000",
		"interest_rate": "-1",
		"start_date": "2025-06-01"
	}`), v, &req)

	assertValidation(t, err)
}

func TestDecode_BadDateRejected(t *testing.T) {
	v := newValidator()
	var req domain.CreateLoanRequest

	err := decode(jsonRequest(`{
		"id_number": "12345678",
		"amount": "1000",
		"interest_rate": "20",
		"start_date": "01/06/2025"
	}`), v, &req)

	assertValidation(t, err)
}

func TestDecode_MalformedJSON(t *testing.T) {
	v := newValidator()
	var req domain.CreateLoanRequest

	err := decode(jsonRequest(`{"id_number":`), v, &req)
	assertValidation(t, err)
}

func TestRespondError_BusinessErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"customer not found", bizerr.WrapCustomerNotFound("x"), http.StatusNotFound},
		{"invalid credentials", bizerr.WrapInvalidCredentials(), http.StatusUnauthorized},
		{"overpayment", bizerr.WrapOverpayment("10.00"), http.StatusBadRequest},
		{"database failure", bizerr.WrapDatabaseError(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, tt.err)

			assert.Equal(t, tt.expected, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestRespondError_BodyCarriesDetailAndCode(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, bizerr.WrapLoanOverdue("12345678"))

	body := rec.Body.String()
	assert.Contains(t, body, `"detail"`)
	assert.Contains(t, body, bizerr.CodeLoanOverdue)
}
