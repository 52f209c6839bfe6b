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

type arrearsRepository struct {
	db *sqlx.DB
}

func NewArrearsRepository(db *sqlx.DB) ArrearsRepository {
	return &arrearsRepository{db: db}
}

const arrearsColumns = `id, loan_id, customer_id, original_amount, remaining_amount, arrears_date, is_cleared, cleared_date, created_at`

func (r *arrearsRepository) Create(ctx context.Context, arrears *domain.Arrears) error {
	query := `
		INSERT INTO arrears (id, loan_id, customer_id, original_amount, remaining_amount, arrears_date, is_cleared, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		arrears.ID,
		arrears.LoanID,
		arrears.CustomerID,
		arrears.OriginalAmount,
		arrears.RemainingAmount,
		arrears.ArrearsDate,
		arrears.IsCleared,
		arrears.CreatedAt,
	)

	return err
}

func (r *arrearsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Arrears, error) {
	query := `SELECT ` + arrearsColumns + ` FROM arrears WHERE id = $1`

	var arrears domain.Arrears
	if err := r.db.GetContext(ctx, &arrears, query, id); err != nil {
		return nil, err
	}

	return &arrears, nil
}

func (r *arrearsRepository) GetByLoanID(ctx context.Context, loanID uuid.UUID) (*domain.Arrears, error) {
	query := `SELECT ` + arrearsColumns + ` FROM arrears WHERE loan_id = $1`

	var arrears domain.Arrears
	err := r.db.GetContext(ctx, &arrears, query, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &arrears, nil
}

func (r *arrearsRepository) Update(ctx context.Context, arrears *domain.Arrears) error {
	query := `
		UPDATE arrears
		SET remaining_amount = $2, is_cleared = $3, cleared_date = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		arrears.ID,
		arrears.RemainingAmount,
		arrears.IsCleared,
		arrears.ClearedDate,
	)

	return err
}

func (r *arrearsRepository) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*domain.Arrears, error) {
	query := `SELECT ` + arrearsColumns + ` FROM arrears`
	if onlyActive {
		query += ` WHERE is_cleared = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var list []*domain.Arrears
	if err := r.db.SelectContext(ctx, &list, query, limit, offset); err != nil {
		return nil, err
	}

	return list, nil
}

func (r *arrearsRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Arrears, error) {
	query := `
		SELECT ` + arrearsColumns + `
		FROM arrears
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	var list []*domain.Arrears
	if err := r.db.SelectContext(ctx, &list, query, customerID); err != nil {
		return nil, err
	}

	return list, nil
}

func (r *arrearsRepository) HasUnclearedByCustomer(ctx context.Context, customerID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM arrears WHERE customer_id = $1 AND is_cleared = FALSE)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, customerID); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *arrearsRepository) CountUncleared(ctx context.Context) (int, error) {
	query := `SELECT COUNT(id) FROM arrears WHERE is_cleared = FALSE`

	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *arrearsRepository) SumUnclearedRemaining(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(remaining_amount), 0) FROM arrears WHERE is_cleared = FALSE`

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}

func (r *arrearsRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	query := `SELECT COUNT(id) FROM arrears WHERE arrears_date >= $1 AND arrears_date <= $2`

	var count int
	if err := r.db.GetContext(ctx, &count, query, from, to); err != nil {
		return 0, err
	}

	return count, nil
}
