package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkiprop/loanbook/internal/domain"
)

type guarantorRepository struct {
	db *sqlx.DB
}

func NewGuarantorRepository(db *sqlx.DB) GuarantorRepository {
	return &guarantorRepository{db: db}
}

// Upsert writes the guarantor for a loan, replacing the existing one if the
// loan already has one.
func (r *guarantorRepository) Upsert(ctx context.Context, guarantor *domain.Guarantor) error {
	query := `
		INSERT INTO guarantors (id, loan_id, name, id_number, phone, relationship, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (loan_id) DO UPDATE
		SET name = EXCLUDED.name,
		    id_number = EXCLUDED.id_number,
		    phone = EXCLUDED.phone,
		    relationship = EXCLUDED.relationship,
		    location = EXCLUDED.location
	`

	_, err := r.db.ExecContext(ctx, query,
		guarantor.ID,
		guarantor.LoanID,
		guarantor.Name,
		guarantor.IDNumber,
		guarantor.Phone,
		guarantor.Relationship,
		guarantor.Location,
		guarantor.CreatedAt,
	)

	return err
}

func (r *guarantorRepository) GetByLoan(ctx context.Context, loanID uuid.UUID) (*domain.Guarantor, error) {
	query := `
		SELECT id, loan_id, name, id_number, phone, relationship, location, created_at
		FROM guarantors
		WHERE loan_id = $1
	`

	var guarantor domain.Guarantor
	err := r.db.GetContext(ctx, &guarantor, query, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &guarantor, nil
}
