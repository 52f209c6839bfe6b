package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardMetrics is the headline rollup: open loans and uncleared arrears
// with their outstanding balances.
type DashboardMetrics struct {
	ActiveLoans              int             `json:"active_loans"`
	ActiveLoansOutstanding   decimal.Decimal `json:"active_loans_outstanding"`
	ActiveArrears            int             `json:"active_arrears"`
	ActiveArrearsOutstanding decimal.Decimal `json:"active_arrears_outstanding"`
}

// DashboardSummary backs the dashboard side panel.
type DashboardSummary struct {
	CompletedLoansAmountThisMonth decimal.Decimal `json:"completed_loans_amount_this_month"`
	ActiveLoansCountThisMonth     int             `json:"active_loans_count_this_month"`
	InterestLastThreeMonths       decimal.Decimal `json:"interest_last_three_months"`
	ArrearsCountLastThreeMonths   int             `json:"arrears_count_last_three_months"`
}

// MonthTrend is one calendar month of issuance volume and interest.
type MonthTrend struct {
	Month    string          `json:"month"`
	Returns  decimal.Decimal `json:"returns"`
	Interest decimal.Decimal `json:"interest"`
}

// Activity is a recent-activity feed entry.
type Activity struct {
	Type       string          `json:"type"`
	ID         uuid.UUID       `json:"id"`
	CustomerID string          `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	Date       time.Time       `json:"date"`
}

// PaymentBucket is a week's or month's worth of collected installments.
type PaymentBucket struct {
	Start time.Time       `json:"start"`
	Label string          `json:"label"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// PaymentsReport aggregates installments between From and To by
// Sunday-start calendar week and by calendar month.
type PaymentsReport struct {
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Total   decimal.Decimal `json:"total"`
	Weekly  []PaymentBucket `json:"weekly"`
	Monthly []PaymentBucket `json:"monthly"`
}
