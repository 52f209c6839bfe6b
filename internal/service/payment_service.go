package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkiprop/loanbook/internal/cache"
	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/repository"
	bizerr "github.com/mkiprop/loanbook/pkg/errors"
)

// PaymentService records and corrects loan installments. Direct payment is
// accepted only for active loans; overdue loans must go through the arrears
// flow, and a payment may never exceed the remaining balance.
type PaymentService struct {
	loanRepo        repository.LoanRepository
	installmentRepo repository.InstallmentRepository
	customerRepo    repository.CustomerRepository
	loans           *LoanService
	metricsCache    *cache.MetricsCache
}

func NewPaymentService(
	loanRepo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	customerRepo repository.CustomerRepository,
	loans *LoanService,
	metricsCache *cache.MetricsCache,
) *PaymentService {
	return &PaymentService{
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		customerRepo:    customerRepo,
		loans:           loans,
		metricsCache:    metricsCache,
	}
}

// RecordPayment appends an installment to the customer's active loan.
func (s *PaymentService) RecordPayment(ctx context.Context, req *domain.RecordPaymentRequest) (*domain.PaymentResult, error) {
	if _, err := s.customerRepo.GetByIDNumber(ctx, req.IDNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bizerr.WrapCustomerNotFound(req.IDNumber)
		}
		return nil, bizerr.WrapDatabaseError(err)
	}

	loan, err := s.loanRepo.GetOpenByCustomer(ctx, req.IDNumber)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	if loan == nil {
		return nil, bizerr.WrapNoActiveLoan(req.IDNumber)
	}

	loan, err = s.loans.Sync(ctx, loan)
	if err != nil {
		return nil, err
	}

	switch loan.Status {
	case domain.LoanStatusActive:
		// accepts direct payment
	case domain.LoanStatusOverdue:
		return nil, bizerr.WrapLoanOverdue(req.IDNumber)
	default:
		return nil, bizerr.WrapNoActiveLoan(req.IDNumber)
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, bizerr.WrapInvalidAmount()
	}
	if req.Amount.GreaterThan(loan.RemainingAmount) {
		return nil, bizerr.WrapOverpayment(loan.RemainingAmount.StringFixed(2))
	}

	now := time.Now()
	installment := &domain.Installment{
		ID:          uuid.New(),
		LoanID:      loan.ID,
		Amount:      req.Amount,
		PaymentDate: now,
		CreatedAt:   now,
	}

	updated, err := s.loanRepo.RecordInstallment(ctx, loan, installment, now)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	s.metricsCache.Invalidate(ctx)

	return &domain.PaymentResult{
		Installment:     installment,
		RemainingAmount: updated.RemainingAmount,
		LoanStatus:      updated.Status,
	}, nil
}

// UpdateInstallment corrects a past installment. The loan's remaining amount
// is recomputed from scratch and its status re-derived; a completed loan can
// reopen, losing its completion timestamp.
func (s *PaymentService) UpdateInstallment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.PaymentResult, error) {
	return s.correctInstallment(ctx, id, func(loan *domain.Loan, now time.Time) (*domain.Loan, error) {
		return s.loanRepo.UpdateInstallment(ctx, loan, id, amount, now)
	})
}

// DeleteInstallment removes an installment, with the same recomputation as
// UpdateInstallment.
func (s *PaymentService) DeleteInstallment(ctx context.Context, id uuid.UUID) (*domain.PaymentResult, error) {
	return s.correctInstallment(ctx, id, func(loan *domain.Loan, now time.Time) (*domain.Loan, error) {
		return s.loanRepo.DeleteInstallment(ctx, loan, id, now)
	})
}

func (s *PaymentService) correctInstallment(ctx context.Context, id uuid.UUID, mutate func(loan *domain.Loan, now time.Time) (*domain.Loan, error)) (*domain.PaymentResult, error) {
	installment, err := s.installmentRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bizerr.WrapInstallmentNotFound(id.String())
	}
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	loan, err := s.loanRepo.GetByID(ctx, installment.LoanID)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	updated, err := mutate(loan, time.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bizerr.WrapInstallmentNotFound(id.String())
		}
		return nil, bizerr.WrapDatabaseError(err)
	}

	// Bring the arrears mirror in line with the recomputed balance.
	updated, err = s.loans.Sync(ctx, updated)
	if err != nil {
		return nil, err
	}

	s.metricsCache.Invalidate(ctx)

	return &domain.PaymentResult{
		Installment:     installment,
		RemainingAmount: updated.RemainingAmount,
		LoanStatus:      updated.Status,
	}, nil
}

// Installments lists a loan's payment history, newest first, with the total
// collected so far.
func (s *PaymentService) Installments(ctx context.Context, loanID uuid.UUID) (*domain.InstallmentHistory, error) {
	installments, err := s.installmentRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	total, err := s.installmentRepo.SumByLoan(ctx, loanID)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	return &domain.InstallmentHistory{Installments: installments, TotalPaid: total}, nil
}
