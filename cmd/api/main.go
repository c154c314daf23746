package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/logger"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	leaveService "github.com/cmlabs-hris/hris-payroll-go/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	"go.uber.org/zap"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	log := logger.NewForEnvironment(cfg.App.Env, cfg.App.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	transactor := postgresql.NewTransactor(db, log)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	ledgerRepo := postgresql.NewLedgerRepository(db)

	defaultRates := payroll.DefaultRates()
	if cfg.Payroll.WorkingDaysPerYear > 0 {
		defaultRates.DailyRate = &payroll.DailyRateConfig{WorkingDaysPerYear: cfg.Payroll.WorkingDaysPerYear}
	}

	hub := sse.NewHub()
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	payrollSvc := payrollService.NewPayrollService(
		transactor,
		payrollRepo,
		ledgerRepo,
		employeeRepo,
		attendanceRepo,
		holidayRepo,
		leaveTypeRepo,
		leaveRequestRepo,
		log.Named("payroll"),
		payrollService.WithWorkers(cfg.Payroll.Workers),
		payrollService.WithDefaultRates(defaultRates),
		payrollService.WithEventPublisher(hub),
	)
	entitlementSvc := leaveService.NewEntitlementService(employeeRepo, leaveTypeRepo, log.Named("leave"))

	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc)
	eventsHandler := appHTTP.NewPayrollEventsHandler(hub)
	leaveHandler := appHTTP.NewLeaveHandler(entitlementSvc)

	var httpLogLevel slog.Level
	if err := httpLogLevel.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		httpLogLevel = slog.LevelInfo
	}
	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Version:        version,
		Env:            cfg.App.Env,
		AllowedOrigins: cfg.App.AllowedOrigins,
		LogLevel:       httpLogLevel,
	}, JWTService, payrollHandler, eventsHandler, leaveHandler)

	scheduler := cron.NewScheduler(log.Named("cron"))
	if refresher, ok := payrollSvc.(cron.DraftRefresher); ok {
		cron.NewPayrollJobs(refresher, cfg.Payroll.RefreshInterval, log.Named("cron")).RegisterJobs(scheduler)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", server.Addr), zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
