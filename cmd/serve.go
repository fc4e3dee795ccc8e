package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bayarqu/ms-go-paybridge/app/controller"
	"github.com/bayarqu/ms-go-paybridge/app/gateway"
	appmiddleware "github.com/bayarqu/ms-go-paybridge/app/middleware"
	"github.com/bayarqu/ms-go-paybridge/app/repository"
	"github.com/bayarqu/ms-go-paybridge/app/service"
	"github.com/bayarqu/ms-go-paybridge/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server exposing the merchant API and the gateway callback endpoint.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, services, cleanup := mustCreateServices()
	defer cleanup()

	e := setupHTTPServer(cfg, services)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

type services struct {
	db           *sql.DB
	projects     *repository.ProjectRepository
	transactions *service.TransactionService
	sync         *service.SyncService
	guard        *service.IdempotencyGuard
	limiter      *service.RateLimiter
	balances     *service.BalanceService
	withdrawals  *service.WithdrawalService
	audit        *service.AuditService
}

func setupHTTPServer(cfg *config.Config, s *services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(appmiddleware.Metrics())

	healthController := controller.NewHealthController(s.db)
	transactionController := controller.NewTransactionController(s.transactions, s.sync, s.guard, s.limiter)
	callbackController := controller.NewCallbackController(s.sync, cfg.Gateway.CallbackToken)
	accountController := controller.NewAccountController(s.balances, s.withdrawals, s.audit, s.limiter)

	e.GET("/health", healthController.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")

	// The callback endpoint authenticates with its own token, not an api key.
	api.POST("/internal/gateway/callback", callbackController.Handle)

	authed := api.Group("", appmiddleware.ProjectAuth(s.projects))
	authed.POST("/transactions", transactionController.Create)
	authed.GET("/transactions", transactionController.List)
	authed.GET("/transactions/:id", transactionController.Get)
	authed.POST("/transactions/:id/sync", transactionController.Sync)
	authed.GET("/balance", accountController.GetBalance)
	authed.POST("/withdrawals", accountController.CreateWithdrawal)
	authed.GET("/withdrawals", accountController.ListWithdrawals)
	authed.GET("/webhook-logs", accountController.ListWebhookLogs)

	return e
}

func mustCreateServices() (*config.Config, *services, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	transactionRepo := repository.NewTransactionRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	rateLimitRepo := repository.NewRateLimitRepository(db)
	webhookLogRepo := repository.NewWebhookLogRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	platformRepo := repository.NewPlatformConfigRepository(db)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:       cfg.Gateway.BaseURL,
		Project:       cfg.Gateway.Project,
		APIKey:        cfg.Gateway.APIKey,
		CallbackToken: cfg.Gateway.CallbackToken,
		HTTPTimeout:   cfg.Gateway.HTTPTimeout,
	})

	dispatcher := service.NewWebhookDispatcher(webhookLogRepo, cfg.Webhooks)
	transactionService := service.NewTransactionService(transactionRepo, platformRepo, gatewayClient, cfg.App.BaseURL)
	syncService := service.NewSyncService(transactionRepo, projectRepo, platformRepo, gatewayClient, dispatcher, cfg.Jobs)
	balanceService := service.NewBalanceService(transactionRepo, withdrawalRepo)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, balanceService, cfg.Withdrawals)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, &services{
		db:           db,
		projects:     projectRepo,
		transactions: transactionService,
		sync:         syncService,
		guard:        service.NewIdempotencyGuard(idempotencyRepo, cfg.Idempotency.LeaseDuration),
		limiter:      service.NewRateLimiter(rateLimitRepo, cfg.RateLimit),
		balances:     balanceService,
		withdrawals:  withdrawalService,
		audit:        service.NewAuditService(webhookLogRepo),
	}, cleanup
}
