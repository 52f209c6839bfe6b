package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/repository"
	bizerr "github.com/mkiprop/loanbook/pkg/errors"
)

const searchLimit = 20

// CustomerService manages the borrower registry.
type CustomerService struct {
	customerRepo repository.CustomerRepository
	loanRepo     repository.LoanRepository
	arrearsRepo  repository.ArrearsRepository
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	loanRepo repository.LoanRepository,
	arrearsRepo repository.ArrearsRepository,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		arrearsRepo:  arrearsRepo,
	}
}

// Create registers a customer. National ID number and phone must both be
// unique; the error names whichever field is taken.
func (s *CustomerService) Create(ctx context.Context, req *domain.CreateCustomerRequest) (*domain.Customer, error) {
	conflict, err := s.customerRepo.FindConflict(ctx, req.IDNumber, req.Phone)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	if conflict != "" {
		return nil, bizerr.WrapDuplicateCustomer(conflict)
	}

	customer := &domain.Customer{
		ID:        uuid.New(),
		Name:      req.Name,
		IDNumber:  req.IDNumber,
		Phone:     req.Phone,
		Email:     req.Email,
		Location:  req.Location,
		CreatedAt: time.Now(),
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	return customer, nil
}

// List returns customers, newest first.
func (s *CustomerService) List(ctx context.Context, limit, offset int) ([]*domain.Customer, error) {
	customers, err := s.customerRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	return customers, nil
}

// Search matches customers by name, ID number or phone.
func (s *CustomerService) Search(ctx context.Context, q string) ([]*domain.Customer, error) {
	if q == "" {
		return []*domain.Customer{}, nil
	}

	customers, err := s.customerRepo.Search(ctx, q, searchLimit)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	return customers, nil
}

// GetDetail returns a customer with their loan and arrears history.
func (s *CustomerService) GetDetail(ctx context.Context, id uuid.UUID) (*domain.CustomerDetail, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bizerr.WrapCustomerNotFound(id.String())
	}
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	return s.detail(ctx, customer, true)
}

// GetByIDNumber looks a customer up by national ID number with their loans.
func (s *CustomerService) GetByIDNumber(ctx context.Context, idNumber string) (*domain.CustomerDetail, error) {
	customer, err := s.customerRepo.GetByIDNumber(ctx, idNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bizerr.WrapCustomerNotFound(idNumber)
	}
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	return s.detail(ctx, customer, false)
}

func (s *CustomerService) detail(ctx context.Context, customer *domain.Customer, withArrears bool) (*domain.CustomerDetail, error) {
	loans, err := s.loanRepo.ListByCustomer(ctx, customer.IDNumber)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	for _, loan := range loans {
		loan.Status = domain.NormalizeStatus(loan.Status)
	}

	detail := &domain.CustomerDetail{Customer: *customer, Loans: loans}

	if withArrears {
		arrears, err := s.arrearsRepo.ListByCustomer(ctx, customer.ID)
		if err != nil {
			return nil, bizerr.WrapDatabaseError(err)
		}
		detail.Arrears = arrears
	}

	return detail, nil
}

// Check reports loan eligibility without treating a missing customer as an
// error.
func (s *CustomerService) Check(ctx context.Context, req *domain.CustomerCheckRequest) (*domain.CustomerCheck, error) {
	var customer *domain.Customer
	var err error

	switch {
	case req.CustomerID != nil:
		customer, err = s.customerRepo.GetByID(ctx, *req.CustomerID)
	case req.IDNumber != nil:
		customer, err = s.customerRepo.GetByIDNumber(ctx, *req.IDNumber)
	default:
		return &domain.CustomerCheck{}, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &domain.CustomerCheck{}, nil
	}
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	openLoan, err := s.loanRepo.GetOpenByCustomer(ctx, customer.IDNumber)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	hasArrears, err := s.arrearsRepo.HasUnclearedByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	return &domain.CustomerCheck{
		Exists:           true,
		HasActiveLoan:    openLoan != nil,
		HasActiveArrears: hasArrears,
		Customer:         customer,
	}, nil
}

// UpdatePhoto sets the customer's photo URL.
func (s *CustomerService) UpdatePhoto(ctx context.Context, id uuid.UUID, photoURL string) error {
	err := s.customerRepo.UpdatePhotoURL(ctx, id, photoURL)
	if errors.Is(err, sql.ErrNoRows) {
		return bizerr.WrapCustomerNotFound(id.String())
	}
	if err != nil {
		return bizerr.WrapDatabaseError(err)
	}
	return nil
}
