package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mkiprop/loanbook/internal/cache"
	"github.com/mkiprop/loanbook/internal/config"
	"github.com/mkiprop/loanbook/internal/repository"
	"github.com/mkiprop/loanbook/internal/service"
)

// The scheduler runs the overdue sweep on a fixed cadence. The API performs
// the same reconciliation lazily on reads, so this job only keeps records
// current for loans nobody has looked at in a while.
func main() {
	log.Println("Starting loan scheduler...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	loanRepo := repository.NewLoanRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	guarantorRepo := repository.NewGuarantorRepository(db)
	arrearsRepo := repository.NewArrearsRepository(db)

	loans := service.NewLoanService(loanRepo, customerRepo, guarantorRepo, arrearsRepo,
		cache.NewMetricsCache(nil, 0), nil, logger)

	c := cron.New(cron.WithSeconds())
	setupCronJobs(c, loans, logger)

	c.Start()
	logger.Info("Scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	c.Stop()
	logger.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, loans *service.LoanService, logger *zap.Logger) {
	// Daily sweep over open loans (runs at midnight)
	_, err := c.AddFunc("0 0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		touched, err := loans.SweepOverdue(ctx)
		if err != nil {
			logger.Error("Overdue sweep failed", zap.Error(err))
			return
		}
		logger.Info("Overdue sweep finished", zap.Int("loans_updated", touched))
	})
	if err != nil {
		logger.Fatal("Error scheduling overdue sweep", zap.Error(err))
	}
}
