package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkiprop/loanbook/internal/domain"
)

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, name, id_number, phone, email, location, photo_url, created_at`

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, name, id_number, phone, email, location, photo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.IDNumber,
		customer.Phone,
		customer.Email,
		customer.Location,
		customer.PhotoURL,
		customer.CreatedAt,
	)

	return err
}

func (r *customerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var customer domain.Customer
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *customerRepository) GetByIDNumber(ctx context.Context, idNumber string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id_number = $1`

	var customer domain.Customer
	if err := r.db.GetContext(ctx, &customer, query, idNumber); err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *customerRepository) FindConflict(ctx context.Context, idNumber, phone string) (string, error) {
	query := `
		SELECT id_number, phone
		FROM customers
		WHERE id_number = $1 OR phone = $2
		LIMIT 1
	`

	var existing struct {
		IDNumber string `db:"id_number"`
		Phone    string `db:"phone"`
	}
	err := r.db.GetContext(ctx, &existing, query, idNumber, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if existing.IDNumber == idNumber {
		return "id_number", nil
	}
	return "phone", nil
}

func (r *customerRepository) List(ctx context.Context, limit, offset int) ([]*domain.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var customers []*domain.Customer
	if err := r.db.SelectContext(ctx, &customers, query, limit, offset); err != nil {
		return nil, err
	}

	return customers, nil
}

func (r *customerRepository) Search(ctx context.Context, q string, limit int) ([]*domain.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE name ILIKE $1 OR id_number ILIKE $1 OR phone ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var customers []*domain.Customer
	if err := r.db.SelectContext(ctx, &customers, query, "%"+q+"%", limit); err != nil {
		return nil, err
	}

	return customers, nil
}

func (r *customerRepository) UpdatePhotoURL(ctx context.Context, id uuid.UUID, photoURL string) error {
	query := `
		UPDATE customers
		SET photo_url = $2
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, photoURL)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
