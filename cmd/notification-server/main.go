// cmd/notification-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"event-notifications/internal/api"
	"event-notifications/internal/common/auth"
	"event-notifications/internal/common/aws"
	"event-notifications/internal/common/camunda"
	"event-notifications/internal/common/config"
	"event-notifications/internal/common/database"
	commonhttp "event-notifications/internal/common/http"
	"event-notifications/internal/common/logger"
	"event-notifications/internal/common/observability"
	"event-notifications/internal/models"
	"event-notifications/internal/notification"
	"event-notifications/internal/reporting"
	"event-notifications/internal/repository"
	"event-notifications/internal/search"
	dispatchevent "event-notifications/internal/workers/notification/dispatch-event"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.WithError(err).Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New("info", "console", "stdout")
		bootstrap.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification server...", zap.String("environment", cfg.App.Environment))
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// obs is usable even when the exporter failed; its instruments are nil
	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if cfg.Database.Postgres.AutoMigrate {
		if err := database.Migrate(ctx, pg.DB); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		zapLog.Info("Schema migrated")
	}

	checks := map[string]api.ReadinessCheck{"postgres": pg.Ping}

	// --- Init Redis (optional config cache) ---
	var cache redis.Cmdable
	if cfg.Database.Redis.Address != "" {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		cache = rdb.Client
		checks["redis"] = rdb.Ping
		zapLog.Info("Redis connected successfully")
	}

	// --- Init Elasticsearch (optional history search) ---
	var index *search.Index
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index = search.NewIndex(esClient.Client, cfg.Database.Elasticsearch.Index, log)
		checks["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Repositories and services ---
	templates := repository.NewTemplateRepository(pg.DB)
	notifications := repository.NewNotificationRepository(pg.DB)
	configs := repository.NewConfigRepository(pg.DB, cache, cfg.Notifications.CacheTTL(), log)
	users := repository.NewUserRepository(pg.DB)

	senders, err := buildSenders(ctx, cfg, configs)
	if err != nil {
		zapLog.Fatal("channel provider setup failed", zap.Error(err))
	}

	deps := notification.Dependencies{
		Templates:     templates,
		Notifications: notifications,
		Configs:       configs,
		Recipients:    notification.NewRecipientResolver(users),
		Senders:       senders,
		Webhook:       notification.NewWebhookNotifier(commonhttp.NewClient(config.GetDuration(cfg.Integrations.Webhook.Timeout)), log),
		Logger:        log,
	}
	var searcher api.Searcher
	if index != nil {
		deps.Indexer = index
		searcher = index
	}
	dispatcher := notification.NewDispatcher(deps)

	reportingService := reporting.NewService(notifications, reporting.Config{
		DefaultLimit:      cfg.Notifications.HistoryDefaultLimit,
		MaxLimit:          cfg.Notifications.HistoryMaxLimit,
		ExportLimit:       cfg.Notifications.ExportLimit,
		DefaultPeriodDays: cfg.Notifications.StatisticsPeriod,
	}, log)

	apiDeps := api.Dependencies{
		Templates:  notification.NewTemplateService(templates),
		Reporting:  reportingService,
		Dispatcher: dispatcher,
		Settings:   configs,
		Search:     searcher,
		Tokens:     auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Recorder:   obs,
		Checks:     checks,
		Logger:     log,
	}

	// --- Workflow ingress (optional) ---
	var (
		zeebe     *camunda.Client
		jobWorker *camunda.Worker
	)
	if workerCfg := dispatchevent.ConfigFromApp(cfg.Camunda); workerCfg.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = zeebe.HealthCheck

		handler, err := dispatchevent.NewHandler(dispatchevent.HandlerOptions{
			Config:    workerCfg,
			Processor: dispatcher,
			Recorder:  obs,
			Logger:    log,
		})
		if err != nil {
			zapLog.Fatal("failed to create dispatch-event handler", zap.Error(err))
		}
		jobWorker = camunda.StartWorker(zeebe.GetClient(), dispatchevent.TaskType, camunda.WorkerConfig{
			MaxJobsActive: workerCfg.MaxJobsActive,
			Timeout:       workerCfg.Timeout,
		}, handler, log)
	}

	// --- HTTP server ---
	apiHandler := api.NewHandler(apiDeps)
	router, err := api.NewRouter(apiHandler)
	if err != nil {
		zapLog.Fatal("router setup failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if jobWorker != nil {
		jobWorker.Close()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	apiHandler.Wait()
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("otel shutdown failed", zap.Error(err))
	}

	zapLog.Info("Notification server stopped gracefully")
}

// buildSenders picks the channel providers from configuration. WhatsApp
// always goes through the HTTP messaging API; push has no sender.
func buildSenders(ctx context.Context, cfg *config.Config, configs *repository.ConfigRepository) ([]notification.ChannelSender, error) {
	mockDelay := config.GetDuration(cfg.Notifications.MockDelay)
	whatsapp := cfg.Integrations.WhatsApp

	senders := []notification.ChannelSender{
		notification.NewWhatsAppSender(commonhttp.NewClient(config.GetDuration(whatsapp.Timeout)), whatsapp.BaseURL, whatsapp.Token),
	}

	switch cfg.Notifications.SMSProvider {
	case config.ProviderSNS:
		client, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
		if err != nil {
			return nil, err
		}
		senders = append(senders, notification.NewSNSSender(client, func(ctx context.Context, tenantID string) string {
			c, err := configs.GetOrDefault(ctx, tenantID)
			if err != nil {
				return ""
			}
			return c.SMSSender
		}))
	default:
		senders = append(senders, notification.NewMockSender(models.ChannelSMS, mockDelay))
	}

	switch cfg.Notifications.EmailProvider {
	case config.ProviderSES:
		client, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail)
		if err != nil {
			return nil, err
		}
		senders = append(senders, notification.NewSESSender(client))
	default:
		senders = append(senders, notification.NewMockSender(models.ChannelEmail, mockDelay))
	}

	return senders, nil
}
