package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkiprop/loanbook/internal/cache"
	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/repository"
	bizerr "github.com/mkiprop/loanbook/pkg/errors"
)

// ReceiptWriter renders a loan receipt to disk. Generation is best effort;
// failures are logged, never propagated.
type ReceiptWriter interface {
	SaveReceipt(loan *domain.Loan, customer *domain.Customer, guarantor *domain.Guarantor) (string, error)
}

// LoanService owns the loan lifecycle: issuance, overdue reconciliation and
// guarantor upkeep.
type LoanService struct {
	loanRepo      repository.LoanRepository
	customerRepo  repository.CustomerRepository
	guarantorRepo repository.GuarantorRepository
	arrearsRepo   repository.ArrearsRepository
	metricsCache  *cache.MetricsCache
	receipts      ReceiptWriter
	logger        *zap.Logger
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	customerRepo repository.CustomerRepository,
	guarantorRepo repository.GuarantorRepository,
	arrearsRepo repository.ArrearsRepository,
	metricsCache *cache.MetricsCache,
	receipts ReceiptWriter,
	logger *zap.Logger,
) *LoanService {
	return &LoanService{
		loanRepo:      loanRepo,
		customerRepo:  customerRepo,
		guarantorRepo: guarantorRepo,
		arrearsRepo:   arrearsRepo,
		metricsCache:  metricsCache,
		receipts:      receipts,
		logger:        logger,
	}
}

// CreateLoan issues a new loan. The customer must exist, hold no open loan
// and have no uncleared arrears.
func (s *LoanService) CreateLoan(ctx context.Context, req *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	customer, err := s.customerRepo.GetByIDNumber(ctx, req.IDNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bizerr.WrapCustomerNotFound(req.IDNumber)
	}
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	open, err := s.loanRepo.GetOpenByCustomer(ctx, req.IDNumber)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	if open != nil {
		return nil, bizerr.WrapActiveLoanExists(req.IDNumber)
	}

	hasArrears, err := s.arrearsRepo.HasUnclearedByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	if hasArrears {
		return nil, bizerr.WrapUnclearedArrears(req.IDNumber)
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, bizerr.WrapValidation(err)
	}

	total := domain.TotalPayable(req.Amount, req.InterestRate)
	now := time.Now()
	loan := &domain.Loan{
		ID:              uuid.New(),
		CustomerID:      req.IDNumber,
		Amount:          req.Amount,
		InterestRate:    req.InterestRate,
		TotalAmount:     total,
		RemainingAmount: total,
		StartDate:       startDate,
		DueDate:         domain.DueDateFor(startDate),
		Status:          domain.LoanStatusActive,
		CreatedAt:       now,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	var guarantor *domain.Guarantor
	if req.Guarantor != nil {
		guarantor = &domain.Guarantor{
			ID:           uuid.New(),
			LoanID:       loan.ID,
			Name:         req.Guarantor.Name,
			IDNumber:     req.Guarantor.IDNumber,
			Phone:        req.Guarantor.Phone,
			Relationship: req.Guarantor.Relationship,
			Location:     req.Guarantor.Location,
			CreatedAt:    now,
		}
		if err := s.guarantorRepo.Upsert(ctx, guarantor); err != nil {
			return nil, bizerr.WrapDatabaseError(err)
		}
	}

	s.metricsCache.Invalidate(ctx)

	if s.receipts != nil {
		if path, err := s.receipts.SaveReceipt(loan, customer, guarantor); err != nil {
			s.logger.Warn("receipt generation failed",
				zap.String("loan_id", loan.ID.String()), zap.Error(err))
		} else {
			s.logger.Info("receipt generated",
				zap.String("loan_id", loan.ID.String()), zap.String("path", path))
		}
	}

	return &domain.CreateLoanResponse{Loan: loan, Guarantor: guarantor}, nil
}

// Get returns a loan after running the lazy overdue reconciliation.
func (s *LoanService) Get(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bizerr.WrapLoanNotFound(id.String())
	}
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	return s.Sync(ctx, loan)
}

// ListOpen returns every loan still collecting payments, reconciled.
func (s *LoanService) ListOpen(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListOpen(ctx)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	for i, loan := range loans {
		synced, err := s.Sync(ctx, loan)
		if err != nil {
			return nil, err
		}
		loans[i] = synced
	}

	return loans, nil
}

// UpdateDueDate overrides a loan's due date and re-reconciles it.
func (s *LoanService) UpdateDueDate(ctx context.Context, id uuid.UUID, dueDate string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bizerr.WrapLoanNotFound(id.String())
	}
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	due, err := time.Parse("2006-01-02", dueDate)
	if err != nil {
		return nil, bizerr.WrapValidation(err)
	}

	loan.DueDate = due
	if loan.IsOpen() || loan.Status == domain.LoanStatusArrears {
		loan.Status = domain.DeriveStatus(loan.DueDate, loan.RemainingAmount, time.Now())
	}
	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	return s.Sync(ctx, loan)
}

// UpsertGuarantor creates or replaces the guarantor of a loan.
func (s *LoanService) UpsertGuarantor(ctx context.Context, loanID uuid.UUID, input *domain.GuarantorInput) (*domain.Guarantor, error) {
	if _, err := s.loanRepo.GetByID(ctx, loanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bizerr.WrapLoanNotFound(loanID.String())
		}
		return nil, bizerr.WrapDatabaseError(err)
	}

	guarantor := &domain.Guarantor{
		ID:           uuid.New(),
		LoanID:       loanID,
		Name:         input.Name,
		IDNumber:     input.IDNumber,
		Phone:        input.Phone,
		Relationship: input.Relationship,
		Location:     input.Location,
		CreatedAt:    time.Now(),
	}
	if err := s.guarantorRepo.Upsert(ctx, guarantor); err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	return guarantor, nil
}

// Guarantor returns the loan's guarantor, or nil when there is none.
func (s *LoanService) Guarantor(ctx context.Context, loanID uuid.UUID) (*domain.Guarantor, error) {
	guarantor, err := s.guarantorRepo.GetByLoan(ctx, loanID)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	return guarantor, nil
}

// Customer returns the borrower behind a loan.
func (s *LoanService) Customer(ctx context.Context, loan *domain.Loan) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByIDNumber(ctx, loan.CustomerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bizerr.WrapCustomerNotFound(loan.CustomerID)
	}
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}
	return customer, nil
}

// Sync runs the lazy overdue reconciliation for a single loan: legacy
// statuses are normalized, a past-due loan with a balance is marked overdue
// with a mirroring uncleared arrears row, and a paid-off loan is completed
// with its arrears cleared. Returns the loan in its reconciled state.
func (s *LoanService) Sync(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	now := time.Now()
	changed := false

	if loan.Status == domain.LoanStatusArrears {
		loan.Status = domain.LoanStatusOverdue
		changed = true
	}

	if !loan.IsOpen() && loan.Status != domain.LoanStatusCompleted {
		return loan, nil
	}

	derived := domain.DeriveStatus(loan.DueDate, loan.RemainingAmount, now)
	switch derived {
	case domain.LoanStatusOverdue:
		if loan.Status != domain.LoanStatusOverdue {
			loan.Status = domain.LoanStatusOverdue
			changed = true
		}
		if err := s.ensureArrearsRecord(ctx, loan); err != nil {
			return nil, err
		}

	case domain.LoanStatusCompleted:
		if loan.Status != domain.LoanStatusCompleted {
			loan.Status = domain.LoanStatusCompleted
			completedAt := now
			loan.CompletedAt = &completedAt
			changed = true
		}
		if err := s.clearArrearsRecord(ctx, loan, now); err != nil {
			return nil, err
		}
	}

	if changed {
		if err := s.loanRepo.Update(ctx, loan); err != nil {
			return nil, bizerr.WrapDatabaseError(err)
		}
	}

	return loan, nil
}

// SweepOverdue reconciles every open loan. Used by the scheduler binary and
// before dashboard rollups. Returns the number of loans touched.
func (s *LoanService) SweepOverdue(ctx context.Context) (int, error) {
	loans, err := s.loanRepo.ListOpen(ctx)
	if err != nil {
		return 0, bizerr.WrapDatabaseError(err)
	}

	touched := 0
	for _, loan := range loans {
		before := loan.Status
		synced, err := s.Sync(ctx, loan)
		if err != nil {
			return touched, err
		}
		if synced.Status != before {
			touched++
		}
	}

	return touched, nil
}

func (s *LoanService) ensureArrearsRecord(ctx context.Context, loan *domain.Loan) error {
	arrears, err := s.arrearsRepo.GetByLoanID(ctx, loan.ID)
	if err != nil {
		return bizerr.WrapDatabaseError(err)
	}

	if arrears == nil {
		customer, err := s.customerRepo.GetByIDNumber(ctx, loan.CustomerID)
		if err != nil {
			return bizerr.WrapDatabaseError(err)
		}

		now := time.Now()
		arrears = &domain.Arrears{
			ID:              uuid.New(),
			LoanID:          loan.ID,
			CustomerID:      customer.ID,
			OriginalAmount:  loan.TotalAmount,
			RemainingAmount: loan.RemainingAmount,
			ArrearsDate:     domain.TruncateToDay(now),
			IsCleared:       false,
			CreatedAt:       now,
		}
		if err := s.arrearsRepo.Create(ctx, arrears); err != nil {
			return bizerr.WrapDatabaseError(err)
		}
		s.metricsCache.Invalidate(ctx)
		return nil
	}

	mirrorDrift := !arrears.RemainingAmount.Equal(loan.RemainingAmount)
	if mirrorDrift || arrears.IsCleared {
		arrears.RemainingAmount = loan.RemainingAmount
		arrears.IsCleared = false
		arrears.ClearedDate = nil
		if err := s.arrearsRepo.Update(ctx, arrears); err != nil {
			return bizerr.WrapDatabaseError(err)
		}
		s.metricsCache.Invalidate(ctx)
	}

	return nil
}

func (s *LoanService) clearArrearsRecord(ctx context.Context, loan *domain.Loan, now time.Time) error {
	arrears, err := s.arrearsRepo.GetByLoanID(ctx, loan.ID)
	if err != nil {
		return bizerr.WrapDatabaseError(err)
	}
	if arrears == nil || arrears.IsCleared {
		return nil
	}

	arrears.RemainingAmount = decimal.Zero
	arrears.IsCleared = true
	arrears.ClearedDate = &now
	if err := s.arrearsRepo.Update(ctx, arrears); err != nil {
		return bizerr.WrapDatabaseError(err)
	}
	s.metricsCache.Invalidate(ctx)

	return nil
}
