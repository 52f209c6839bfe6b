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

// ArrearsService is the payment workflow for loans past their due date.
// Arrears payments are recorded as installments on the underlying loan, so
// the loan's remaining amount stays derived from its installment history.
type ArrearsService struct {
	arrearsRepo  repository.ArrearsRepository
	loanRepo     repository.LoanRepository
	metricsCache *cache.MetricsCache
}

func NewArrearsService(
	arrearsRepo repository.ArrearsRepository,
	loanRepo repository.LoanRepository,
	metricsCache *cache.MetricsCache,
) *ArrearsService {
	return &ArrearsService{
		arrearsRepo:  arrearsRepo,
		loanRepo:     loanRepo,
		metricsCache: metricsCache,
	}
}

// List returns arrears records, newest first.
func (s *ArrearsService) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*domain.Arrears, error) {
	list, err := s.arrearsRepo.List(ctx, onlyActive, limit, offset)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	return list, nil
}

// Get returns a single arrears record.
func (s *ArrearsService) Get(ctx context.Context, id uuid.UUID) (*domain.Arrears, error) {
	arrears, err := s.arrearsRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bizerr.WrapArrearsNotFound(id.String())
	}
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	return arrears, nil
}

// Pay records a payment against an overdue loan through its arrears record.
func (s *ArrearsService) Pay(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.ArrearsPaymentResult, error) {
	arrears, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if arrears.IsCleared {
		return nil, bizerr.WrapArrearsCleared(id.String())
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, bizerr.WrapInvalidAmount()
	}

	loan, err := s.loanRepo.GetByID(ctx, arrears.LoanID)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	if amount.GreaterThan(loan.RemainingAmount) {
		return nil, bizerr.WrapOverpayment(loan.RemainingAmount.StringFixed(2))
	}

	now := time.Now()
	installment := &domain.Installment{
		ID:          uuid.New(),
		LoanID:      loan.ID,
		Amount:      amount,
		PaymentDate: now,
		CreatedAt:   now,
	}

	updated, err := s.loanRepo.RecordInstallment(ctx, loan, installment, now)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	arrears.RemainingAmount = updated.RemainingAmount
	if updated.Status == domain.LoanStatusCompleted {
		arrears.IsCleared = true
		arrears.ClearedDate = &now
	}
	if err := s.arrearsRepo.Update(ctx, arrears); err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	s.metricsCache.Invalidate(ctx)

	return &domain.ArrearsPaymentResult{
		RemainingAmount: arrears.RemainingAmount,
		IsCleared:       arrears.IsCleared,
	}, nil
}

// Clear writes an arrears record off: the remaining balance is forgiven and
// the linked loan is completed. The loan's balance is zeroed directly here
// rather than through an installment, since no money changed hands.
func (s *ArrearsService) Clear(ctx context.Context, id uuid.UUID) (*domain.Arrears, error) {
	arrears, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	arrears.RemainingAmount = decimal.Zero
	arrears.IsCleared = true
	arrears.ClearedDate = &now
	if err := s.arrearsRepo.Update(ctx, arrears); err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	loan, err := s.loanRepo.GetByID(ctx, arrears.LoanID)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	if loan.Status != domain.LoanStatusCompleted {
		loan.RemainingAmount = decimal.Zero
		loan.Status = domain.LoanStatusCompleted
		loan.CompletedAt = &now
		if err := s.loanRepo.Update(ctx, loan); err != nil {
			return nil, bizerr.WrapDatabaseError(err)
		}
	}

	s.metricsCache.Invalidate(ctx)

	return arrears, nil
}
