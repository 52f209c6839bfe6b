package pdfgen

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkiprop/loanbook/internal/domain"
)

func sampleLoan() *domain.Loan {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      "12345678",
		Amount:          decimal.RequireFromString("1000"),
		InterestRate:    decimal.RequireFromString("20"),
		TotalAmount:     decimal.RequireFromString("1200"),
		RemainingAmount: decimal.RequireFromString("900"),
		StartDate:       start,
		DueDate:         domain.DueDateFor(start),
		Status:          domain.LoanStatusActive,
		CreatedAt:       start,
	}
}

func sampleCustomer() *domain.Customer {
	location := "Eldoret"
	return &domain.Customer{
		ID:       uuid.New(),
		Name:     "Jane Chebet",
		IDNumber: "12345678",
		Phone:    "0712345678",
		Location: &location,
	}
}

func TestWriteReceipt(t *testing.T) {
	g := New(t.TempDir())
	var buf bytes.Buffer

	err := g.WriteReceipt(&buf, sampleLoan(), sampleCustomer(), nil)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), "output is a PDF document")
}

func TestWriteReceipt_WithGuarantor(t *testing.T) {
	g := New(t.TempDir())
	loan := sampleLoan()
	guarantor := &domain.Guarantor{
		ID:       uuid.New(),
		LoanID:   loan.ID,
		Name:     "John Kiprono",
		IDNumber: "87654321",
		Phone:    "0798765432",
	}

	var buf bytes.Buffer
	require.NoError(t, g.WriteReceipt(&buf, loan, sampleCustomer(), guarantor))
	assert.NotZero(t, buf.Len())
}

func TestSaveReceipt(t *testing.T) {
	dir := t.TempDir()
	g := New(dir)
	loan := sampleLoan()

	path, err := g.SaveReceipt(loan, sampleCustomer(), nil)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "loan_receipt_"+loan.ID.String()+".pdf"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWritePaymentsReport(t *testing.T) {
	g := New(t.TempDir())
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	report := &domain.PaymentsReport{
		From:  from,
		To:    from.AddDate(0, 1, 0),
		Total: decimal.RequireFromString("350"),
		Weekly: []domain.PaymentBucket{
			{Start: from, Label: "Week of 01 Jun 2025", Count: 2, Total: decimal.RequireFromString("350")},
		},
		Monthly: []domain.PaymentBucket{
			{Start: from, Label: "June 2025", Count: 2, Total: decimal.RequireFromString("350")},
		},
	}

	var buf bytes.Buffer
	err := g.WritePaymentsReport(&buf, report)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWritePaymentsReport_Empty(t *testing.T) {
	g := New(t.TempDir())

	report := &domain.PaymentsReport{
		From:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:    time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC),
		Total: decimal.Zero,
	}

	var buf bytes.Buffer
	require.NoError(t, g.WritePaymentsReport(&buf, report))
	assert.NotZero(t, buf.Len())
}

func TestCurrencyFormatting(t *testing.T) {
	assert.Equal(t, "KSh 1,200.00", currency(decimal.RequireFromString("1200")))
	assert.Equal(t, "KSh 1,234,567.89", currency(decimal.RequireFromString("1234567.89")))
	assert.Equal(t, "KSh 0.00", currency(decimal.Zero))
	assert.Equal(t, "KSh 999.50", currency(decimal.RequireFromString("999.5")))
}
