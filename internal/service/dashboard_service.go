package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkiprop/loanbook/internal/cache"
	"github.com/mkiprop/loanbook/internal/domain"
	"github.com/mkiprop/loanbook/internal/repository"
	bizerr "github.com/mkiprop/loanbook/pkg/errors"
)

// DashboardService computes read-side rollups on demand.
type DashboardService struct {
	loanRepo        repository.LoanRepository
	installmentRepo repository.InstallmentRepository
	arrearsRepo     repository.ArrearsRepository
	loans           *LoanService
	metricsCache    *cache.MetricsCache
}

func NewDashboardService(
	loanRepo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	arrearsRepo repository.ArrearsRepository,
	loans *LoanService,
	metricsCache *cache.MetricsCache,
) *DashboardService {
	return &DashboardService{
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		arrearsRepo:     arrearsRepo,
		loans:           loans,
		metricsCache:    metricsCache,
	}
}

// Metrics returns the headline counts and outstanding balances. Open loans
// are reconciled first so overdue state is current.
func (s *DashboardService) Metrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	var cached domain.DashboardMetrics
	if s.metricsCache.Get(ctx, &cached) {
		return &cached, nil
	}

	if _, err := s.loans.SweepOverdue(ctx); err != nil {
		return nil, err
	}

	activeLoans, err := s.loanRepo.CountOpen(ctx)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	loansOutstanding, err := s.loanRepo.SumOpenOutstanding(ctx)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	activeArrears, err := s.arrearsRepo.CountUncleared(ctx)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	arrearsOutstanding, err := s.arrearsRepo.SumUnclearedRemaining(ctx)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	metrics := &domain.DashboardMetrics{
		ActiveLoans:              activeLoans,
		ActiveLoansOutstanding:   loansOutstanding.Round(2),
		ActiveArrears:            activeArrears,
		ActiveArrearsOutstanding: arrearsOutstanding.Round(2),
	}

	s.metricsCache.Set(ctx, metrics)
	return metrics, nil
}

// Summary backs the dashboard side panel: this month's completions and new
// loans, plus trailing-90-day interest and arrears counts.
func (s *DashboardService) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	now := time.Now()
	today := domain.TruncateToDay(now)
	monthStart := domain.MonthStart(now)
	last90 := today.AddDate(0, 0, -90)

	completed, err := s.loanRepo.SumCompletedBetween(ctx, monthStart, now)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	startedThisMonth, err := s.loanRepo.CountOpenStartedBetween(ctx, monthStart, today)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	interest, err := s.loanRepo.SumInterestStartedBetween(ctx, last90, today)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	arrearsCount, err := s.arrearsRepo.CountCreatedBetween(ctx, last90, today)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	return &domain.DashboardSummary{
		CompletedLoansAmountThisMonth: completed.Round(2),
		ActiveLoansCountThisMonth:     startedThisMonth,
		InterestLastThreeMonths:       interest.Round(2),
		ArrearsCountLastThreeMonths:   arrearsCount,
	}, nil
}

// Trends reports issuance volume and interest per calendar month for the
// trailing window.
func (s *DashboardService) Trends(ctx context.Context, months int) ([]domain.MonthTrend, error) {
	if months <= 0 {
		months = 3
	}

	now := time.Now()
	endDate := domain.TruncateToDay(now)
	startDate := endDate.AddDate(0, 0, -months*30)

	trends := make([]domain.MonthTrend, 0, months+1)
	for current := startDate; !current.After(endDate); current = domain.MonthStart(current).AddDate(0, 1, 0) {
		monthStart := domain.MonthStart(current)
		monthEnd := monthStart.AddDate(0, 1, -1)

		loans, err := s.loanRepo.ListStartedBetween(ctx, monthStart, monthEnd,
			[]string{domain.LoanStatusActive, domain.LoanStatusCompleted})
		if err != nil {
			return nil, bizerr.WrapDatabaseError(err)
		}

		returns := decimal.Zero
		interest := decimal.Zero
		for _, loan := range loans {
			returns = returns.Add(loan.TotalAmount)
			interest = interest.Add(domain.InterestEarned(loan.Amount, loan.InterestRate))
		}

		trends = append(trends, domain.MonthTrend{
			Month:    current.Format("Jan"),
			Returns:  returns.Round(2),
			Interest: interest.Round(2),
		})
	}

	return trends, nil
}

// RecentActivity returns the newest loans as a feed.
func (s *DashboardService) RecentActivity(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 10
	}

	loans, err := s.loanRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	activities := make([]domain.Activity, 0, len(loans))
	for _, loan := range loans {
		activities = append(activities, domain.Activity{
			Type:       "loan",
			ID:         loan.ID,
			CustomerID: loan.CustomerID,
			Amount:     loan.Amount,
			Status:     domain.NormalizeStatus(loan.Status),
			Date:       loan.CreatedAt,
		})
	}

	return activities, nil
}

// PaymentsReport buckets installments between from and to by Sunday-start
// calendar week and by calendar month.
func (s *DashboardService) PaymentsReport(ctx context.Context, from, to time.Time) (*domain.PaymentsReport, error) {
	from = domain.TruncateToDay(from)
	// to is inclusive
	end := domain.TruncateToDay(to).AddDate(0, 0, 1)

	installments, err := s.installmentRepo.ListBetween(ctx, from, end)
	if err != nil {
		return nil, bizerr.WrapDatabaseError(err)
	}

	weekly := make(map[time.Time]*domain.PaymentBucket)
	monthly := make(map[time.Time]*domain.PaymentBucket)
	total := decimal.Zero

	for _, installment := range installments {
		total = total.Add(installment.Amount)

		week := domain.WeekStart(installment.PaymentDate)
		addToBucket(weekly, week, "Week of "+week.Format("02 Jan 2006"), installment.Amount)

		month := domain.MonthStart(installment.PaymentDate)
		addToBucket(monthly, month, month.Format("January 2006"), installment.Amount)
	}

	return &domain.PaymentsReport{
		From:    from,
		To:      domain.TruncateToDay(to),
		Total:   total.Round(2),
		Weekly:  sortBuckets(weekly),
		Monthly: sortBuckets(monthly),
	}, nil
}

func addToBucket(buckets map[time.Time]*domain.PaymentBucket, start time.Time, label string, amount decimal.Decimal) {
	bucket, ok := buckets[start]
	if !ok {
		bucket = &domain.PaymentBucket{Start: start, Label: label}
		buckets[start] = bucket
	}
	bucket.Count++
	bucket.Total = bucket.Total.Add(amount).Round(2)
}

func sortBuckets(buckets map[time.Time]*domain.PaymentBucket) []domain.PaymentBucket {
	out := make([]domain.PaymentBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
