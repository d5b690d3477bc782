package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/clock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/northgate/helpdesk/internal/api/http"
	"github.com/northgate/helpdesk/internal/api/http/handlers"
	"github.com/northgate/helpdesk/internal/auth"
	"github.com/northgate/helpdesk/internal/config"
	"github.com/northgate/helpdesk/internal/events"
	"github.com/northgate/helpdesk/internal/markdown"
	"github.com/northgate/helpdesk/internal/notify"
	"github.com/northgate/helpdesk/internal/observability"
	"github.com/northgate/helpdesk/internal/persistence"
	"github.com/northgate/helpdesk/internal/ratelimit"
	"github.com/northgate/helpdesk/internal/repository"
	"github.com/northgate/helpdesk/internal/service"
	"github.com/northgate/helpdesk/internal/worker"
)

const messageRateLimitPrefix = "ratelimit:mensajes:"

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect postgres", zap.Error(err))
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Error("failed to run migrations", zap.Error(err))
			return err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	store := repository.NewStore(pg.PoolHandle())
	dispatcher := events.NewAsyncDispatcher(logger, cfg.Notification.Timeout())
	renderer := markdown.NewRenderer()
	limiter := ratelimit.NewLimiter(redis.Client, messageRateLimitPrefix, cfg.RateLimit.MessageLimit, cfg.RateLimit.Window(), logger)

	authService := service.NewAuthService(cfg.Auth, store, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Clock:      clock.WallClock,
		Logger:     logger,
	})
	messageService := service.NewMessageService(store, limiter, dispatcher, logger)
	notificationService := service.NewNotificationService(cfg.Notification, service.NotificationDependencies{
		Dispatcher: dispatcher,
		Mailer:     newMailer(cfg, logger),
		Renderer:   renderer,
		Metrics:    metrics,
		Logger:     logger,
	})

	notificationWorker := worker.NewNotificationWorker(notificationService, dispatcher, logger)
	notificationWorker.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg.Dependency(), redis.Dependency()),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, messageService),
		Assets:         handlers.NewAssetsHandler(service.NewAssetService(store)),
		FAQs:           handlers.NewFAQsHandler(service.NewFAQService(store, renderer, logger)),
		Export:         handlers.NewExportHandler(service.NewReportService(store, clock.WallClock)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Repos().Users),
		Metrics:        metrics.Handler(),
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
			return err
		}
	}

	if err := app.ShutdownWithTimeout(cfg.App.ShutdownGrace()); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownGrace())
	defer drainCancel()
	if err := notificationWorker.Shutdown(drainCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("notification drain", zap.Error(err))
	}
	return nil
}

// newMailer delivers through SMTP when a relay is configured and logs
// otherwise.
func newMailer(cfg *config.Config, logger *zap.Logger) notify.Mailer {
	if cfg.SMTP.Host == "" {
		logger.Info("smtp not configured, notifications are logged only")
		return notify.NewLogMailer(logger)
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.Notification.EmailFrom,
		Timeout:  cfg.Notification.Timeout(),
	})
}
