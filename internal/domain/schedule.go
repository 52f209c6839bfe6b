package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepaymentWeeks is the number of weekly buckets a loan is expected to be
// repaid over within its term.
const RepaymentWeeks = 4

// WeeklyProgress compares what should have been repaid by now against what
// actually was. Printed on loan receipts.
type WeeklyProgress struct {
	WeeklyDueAmount decimal.Decimal `json:"weekly_due_amount"`
	WeeksElapsed    int             `json:"weeks_elapsed"`
	ExpectedPaid    decimal.Decimal `json:"expected_paid"`
	ActualPaid      decimal.Decimal `json:"actual_paid"`
	ArrearsAmount   decimal.Decimal `json:"arrears_amount"`
}

// ComputeWeeklyProgress splits the total payable into equal weekly
// installments and reports how far behind schedule the loan is at ref.
func ComputeWeeklyProgress(loan *Loan, ref time.Time) WeeklyProgress {
	weeklyDue := loan.TotalAmount.Div(decimal.NewFromInt(RepaymentWeeks)).Round(2)

	days := int(TruncateToDay(ref).Sub(TruncateToDay(loan.StartDate)).Hours() / 24)
	weeksElapsed := 0
	if days >= 0 {
		weeksElapsed = days/7 + 1
		if weeksElapsed > RepaymentWeeks {
			weeksElapsed = RepaymentWeeks
		}
	}

	expected := weeklyDue.Mul(decimal.NewFromInt(int64(weeksElapsed)))
	actual := loan.TotalAmount.Sub(loan.RemainingAmount)
	arrears := expected.Sub(actual)
	if arrears.IsNegative() {
		arrears = decimal.Zero
	}

	return WeeklyProgress{
		WeeklyDueAmount: weeklyDue,
		WeeksElapsed:    weeksElapsed,
		ExpectedPaid:    expected.Round(2),
		ActualPaid:      actual.Round(2),
		ArrearsAmount:   arrears.Round(2),
	}
}

// WeekStart returns the Sunday beginning the calendar week containing t.
func WeekStart(t time.Time) time.Time {
	d := TruncateToDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// MonthStart returns the first day of the calendar month containing t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
