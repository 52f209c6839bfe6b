package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mkiprop/loanbook/internal/auth"
	"github.com/mkiprop/loanbook/internal/cache"
	"github.com/mkiprop/loanbook/internal/config"
	"github.com/mkiprop/loanbook/internal/handler"
	"github.com/mkiprop/loanbook/internal/migration"
	"github.com/mkiprop/loanbook/internal/pdfgen"
	"github.com/mkiprop/loanbook/internal/repository"
	"github.com/mkiprop/loanbook/internal/service"
	"github.com/mkiprop/loanbook/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Apply pending schema migrations before serving traffic
	if err := migration.Up(db.DB); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	guarantorRepo := repository.NewGuarantorRepository(db)
	arrearsRepo := repository.NewArrearsRepository(db)

	sessions := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Secure)
	metricsCache := cache.NewMetricsCache(redisClient, cfg.Cache.MetricsTTL)
	pdfGenerator := pdfgen.New(cfg.Reports.Dir)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessions, logger)
	customerService := service.NewCustomerService(customerRepo, loanRepo, arrearsRepo)
	loanService := service.NewLoanService(loanRepo, customerRepo, guarantorRepo, arrearsRepo, metricsCache, pdfGenerator, logger)
	paymentService := service.NewPaymentService(loanRepo, installmentRepo, customerRepo, loanService, metricsCache)
	arrearsService := service.NewArrearsService(arrearsRepo, loanRepo, metricsCache)
	dashboardService := service.NewDashboardService(loanRepo, installmentRepo, arrearsRepo, loanService, metricsCache)

	// Seed the default operator account on first boot
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(ctx); err != nil {
		cancel()
		logger.Fatal("Failed to seed admin user", zap.Error(err))
	}
	cancel()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, sessions)
	customerHandler := handler.NewCustomerHandler(customerService)
	loanHandler := handler.NewLoanHandler(loanService, pdfGenerator)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	arrearsHandler := handler.NewArrearsHandler(arrearsService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, pdfGenerator)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Setup routes
	router := setupRoutes(cfg, logger, sessions, userRepo,
		authHandler, customerHandler, loanHandler, paymentHandler, arrearsHandler, dashboardHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Logging.Format == "console" || cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	cfg *config.Config,
	logger *zap.Logger,
	sessions *auth.SessionManager,
	userRepo repository.UserRepository,
	authHandler *handler.AuthHandler,
	customerHandler *handler.CustomerHandler,
	loanHandler *handler.LoanHandler,
	paymentHandler *handler.PaymentHandler,
	arrearsHandler *handler.ArrearsHandler,
	dashboardHandler *handler.DashboardHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))
	router.Use(response.CORSMiddleware(cfg.CORSOrigins()))

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// Auth routes; login is the only unauthenticated business endpoint
	router.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	api := router.PathPrefix("/").Subrouter()
	api.Use(auth.Middleware(sessions, userRepo))

	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")
	api.HandleFunc("/auth/change-password", authHandler.ChangePassword).Methods("PUT", "OPTIONS")

	api.HandleFunc("/customers", customerHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/customers", customerHandler.List).Methods("GET")
	api.HandleFunc("/customers/search", customerHandler.Search).Methods("GET", "OPTIONS")
	api.HandleFunc("/customers/check", customerHandler.Check).Methods("POST", "OPTIONS")
	api.HandleFunc("/customers/{customerId}", customerHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/customers/{customerId}/photo", customerHandler.UpdatePhoto).Methods("PUT", "OPTIONS")
	api.HandleFunc("/customers/by-id-number/{idNumber}", customerHandler.GetByIDNumber).Methods("GET", "OPTIONS")

	api.HandleFunc("/loans", loanHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/loans/active", loanHandler.ListActive).Methods("GET", "OPTIONS")
	api.HandleFunc("/loans/{loanId}", loanHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/loans/{loanId}", loanHandler.Update).Methods("PUT")
	api.HandleFunc("/loans/{loanId}/receipt", loanHandler.Receipt).Methods("GET", "OPTIONS")
	api.HandleFunc("/loans/{loanId}/guarantor", loanHandler.UpsertGuarantor).Methods("PUT", "OPTIONS")
	api.HandleFunc("/loans/{loanId}/installments", paymentHandler.ListByLoan).Methods("GET", "OPTIONS")

	api.HandleFunc("/payments", paymentHandler.Record).Methods("POST", "OPTIONS")
	api.HandleFunc("/payments/installments/{installmentId}", paymentHandler.UpdateInstallment).Methods("PUT", "OPTIONS")
	api.HandleFunc("/payments/installments/{installmentId}", paymentHandler.DeleteInstallment).Methods("DELETE")

	api.HandleFunc("/arrears", arrearsHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/arrears/{arrearsId}", arrearsHandler.Get).Methods("GET", "OPTIONS")
	api.HandleFunc("/arrears/{arrearsId}/pay", arrearsHandler.Pay).Methods("POST", "OPTIONS")
	api.HandleFunc("/arrears/{arrearsId}/clear", arrearsHandler.Clear).Methods("POST", "OPTIONS")

	api.HandleFunc("/dashboard/metrics", dashboardHandler.Metrics).Methods("GET", "OPTIONS")
	api.HandleFunc("/dashboard/summary", dashboardHandler.Summary).Methods("GET", "OPTIONS")
	api.HandleFunc("/dashboard/trends", dashboardHandler.Trends).Methods("GET", "OPTIONS")
	api.HandleFunc("/dashboard/recent-activity", dashboardHandler.RecentActivity).Methods("GET", "OPTIONS")
	api.HandleFunc("/dashboard/payments-report", dashboardHandler.PaymentsReport).Methods("GET", "OPTIONS")

	return router
}
