package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mkiprop/loanbook/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `id, customer_id, amount, interest_rate, total_amount, remaining_amount, start_date, due_date, status, created_at, completed_at`

// openStatuses includes the legacy arrears value so old rows keep showing up
// until they are normalized.
var openStatuses = []string{domain.LoanStatusActive, domain.LoanStatusOverdue, domain.LoanStatusArrears}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, customer_id, amount, interest_rate, total_amount, remaining_amount, start_date, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.CustomerID,
		loan.Amount,
		loan.InterestRate,
		loan.TotalAmount,
		loan.RemainingAmount,
		loan.StartDate,
		loan.DueDate,
		loan.Status,
		loan.CreatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, id); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetOpenByCustomer(ctx context.Context, idNumber string) (*domain.Loan, error) {
	query, args, err := sqlx.In(`
		SELECT `+loanColumns+`
		FROM loans
		WHERE customer_id = ? AND status IN (?)
		ORDER BY created_at DESC
		LIMIT 1
	`, idNumber, openStatuses)
	if err != nil {
		return nil, err
	}

	var loan domain.Loan
	err = r.db.GetContext(ctx, &loan, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListOpen(ctx context.Context) ([]*domain.Loan, error) {
	query, args, err := sqlx.In(`
		SELECT `+loanColumns+`
		FROM loans
		WHERE status IN (?)
		ORDER BY created_at DESC
	`, openStatuses)
	if err != nil {
		return nil, err
	}

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListByCustomer(ctx context.Context, idNumber string) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query, idNumber); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET remaining_amount = $2, due_date = $3, status = $4, completed_at = $5
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.RemainingAmount,
		loan.DueDate,
		loan.Status,
		loan.CompletedAt,
	)

	return err
}

// RecordInstallment inserts the installment and recomputes the loan's
// remaining amount and status in one transaction. The remaining amount is
// always derived from total_amount minus the installment sum; there is no
// incremental decrement path.
func (r *loanRepository) RecordInstallment(ctx context.Context, loan *domain.Loan, installment *domain.Installment, now time.Time) (*domain.Loan, error) {
	return r.mutateInstallments(ctx, loan, now, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO installments (id, loan_id, amount, payment_date, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := tx.ExecContext(ctx, query,
			installment.ID,
			installment.LoanID,
			installment.Amount,
			installment.PaymentDate,
			installment.CreatedAt,
		)
		return err
	})
}

func (r *loanRepository) UpdateInstallment(ctx context.Context, loan *domain.Loan, installmentID uuid.UUID, amount decimal.Decimal, now time.Time) (*domain.Loan, error) {
	return r.mutateInstallments(ctx, loan, now, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE installments SET amount = $2 WHERE id = $1 AND loan_id = $3`,
			installmentID, amount, loan.ID)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

func (r *loanRepository) DeleteInstallment(ctx context.Context, loan *domain.Loan, installmentID uuid.UUID, now time.Time) (*domain.Loan, error) {
	return r.mutateInstallments(ctx, loan, now, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM installments WHERE id = $1 AND loan_id = $2`,
			installmentID, loan.ID)
		if err != nil {
			return err
		}
		return requireRow(res)
	})
}

// mutateInstallments runs the given installment mutation and the balance
// recomputation inside a single transaction.
func (r *loanRepository) mutateInstallments(ctx context.Context, loan *domain.Loan, now time.Time, mutate func(tx *sqlx.Tx) error) (*domain.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := mutate(tx); err != nil {
		return nil, err
	}

	var paid decimal.Decimal
	if err := tx.GetContext(ctx, &paid,
		`SELECT COALESCE(SUM(amount), 0) FROM installments WHERE loan_id = $1`, loan.ID); err != nil {
		return nil, err
	}

	remaining := loan.TotalAmount.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	status := domain.DeriveStatus(loan.DueDate, remaining, now)

	var completedAt *time.Time
	if status == domain.LoanStatusCompleted {
		if loan.CompletedAt != nil {
			completedAt = loan.CompletedAt
		} else {
			completedAt = &now
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE loans SET remaining_amount = $2, status = $3, completed_at = $4 WHERE id = $1`,
		loan.ID, remaining, status, completedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	updated := *loan
	updated.RemainingAmount = remaining
	updated.Status = status
	updated.CompletedAt = completedAt
	return &updated, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *loanRepository) CountOpen(ctx context.Context) (int, error) {
	query, args, err := sqlx.In(`SELECT COUNT(id) FROM loans WHERE status IN (?)`, openStatuses)
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *loanRepository) SumOpenOutstanding(ctx context.Context) (decimal.Decimal, error) {
	query, args, err := sqlx.In(`
		SELECT COALESCE(SUM(l.total_amount), 0) - COALESCE((
			SELECT SUM(i.amount)
			FROM installments i
			JOIN loans li ON li.id = i.loan_id
			WHERE li.status IN (?)
		), 0)
		FROM loans l
		WHERE l.status IN (?)
	`, openStatuses, openStatuses)
	if err != nil {
		return decimal.Zero, err
	}

	var outstanding decimal.Decimal
	if err := r.db.GetContext(ctx, &outstanding, r.db.Rebind(query), args...); err != nil {
		return decimal.Zero, err
	}

	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	return outstanding, nil
}

func (r *loanRepository) SumCompletedBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM loans
		WHERE status = $1 AND completed_at IS NOT NULL AND completed_at >= $2 AND completed_at < $3
	`

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, domain.LoanStatusCompleted, from, to); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

func (r *loanRepository) CountOpenStartedBetween(ctx context.Context, from, to time.Time) (int, error) {
	query, args, err := sqlx.In(`
		SELECT COUNT(id)
		FROM loans
		WHERE status IN (?) AND start_date >= ? AND start_date <= ?
	`, openStatuses, from, to)
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(query), args...); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *loanRepository) SumInterestStartedBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount * interest_rate / 100.0), 0)
		FROM loans
		WHERE start_date >= $1 AND start_date <= $2 AND status != $3
	`

	var interest decimal.Decimal
	if err := r.db.GetContext(ctx, &interest, query, from, to, domain.LoanStatusArrears); err != nil {
		return decimal.Zero, err
	}

	return interest, nil
}

func (r *loanRepository) ListStartedBetween(ctx context.Context, from, to time.Time, statuses []string) ([]*domain.Loan, error) {
	query, args, err := sqlx.In(`
		SELECT `+loanColumns+`
		FROM loans
		WHERE start_date >= ? AND start_date <= ? AND status IN (?)
		ORDER BY start_date
	`, from, to, statuses)
	if err != nil {
		return nil, err
	}

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		ORDER BY created_at DESC
		LIMIT $1
	`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query, limit); err != nil {
		return nil, err
	}

	return loans, nil
}
