// cmd/infinz-server/main.go
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
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"infinz-leadgen/internal/api"
	"infinz-leadgen/internal/backend"
	"infinz-leadgen/internal/common/auth"
	"infinz-leadgen/internal/common/config"
	"infinz-leadgen/internal/common/database"
	commonhttp "infinz-leadgen/internal/common/http"
	"infinz-leadgen/internal/common/logger"
	"infinz-leadgen/internal/common/observability"
	"infinz-leadgen/internal/common/validation"
	"infinz-leadgen/internal/draft"
	"infinz-leadgen/internal/wizard"

	cemi "infinz-leadgen/internal/handlers/calculator/calculate-emi"
	fp "infinz-leadgen/internal/handlers/content/fetch-posts"
	sd "infinz-leadgen/internal/handlers/content/search-dictionary"
	pcl "infinz-leadgen/internal/handlers/lead/push-crm-lead"
	sn "infinz-leadgen/internal/handlers/lead/send-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting infinz server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("draftBackend", cfg.Drafts.Backend),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()
	var checkers []database.Checker

	// --- Init Redis with retry (drafts and content cache) ---
	var redis *database.RedisClient
	if cfg.Drafts.Backend == config.DraftBackendRedis || cfg.Content.CacheEnabled {
		redis = database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		checkers = append(checkers, redis)
		zapLog.Info("Redis connected successfully")
	}

	// --- Draft store ---
	var store draft.Store
	switch cfg.Drafts.Backend {
	case config.DraftBackendRedis:
		store = draft.NewRedisStore(redis.Client, cfg.Drafts.KeyPrefix, cfg.Drafts.TTL())
	case config.DraftBackendPostgres:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		checkers = append(checkers, pg)
		zapLog.Info("PostgreSQL connected successfully")

		pgStore := draft.NewPostgresStore(pg.DB, cfg.Drafts.TTL())
		if err := pgStore.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("draft schema setup failed", zap.Error(err))
		}
		store = pgStore
	default:
		store = draft.NewMemoryStore(cfg.Drafts.TTL())
	}
	if p, ok := store.(draftPurger); ok {
		janitorCtx, stopJanitor := context.WithCancel(ctx)
		defer stopJanitor()
		go purgeExpiredDrafts(janitorCtx, p, 10*time.Minute, log)
	}

	// --- Backend client ---
	httpClient := commonhttp.NewClient(cfg.Backend.BaseURL, config.GetDuration(cfg.Backend.Timeout), log)
	be := backend.NewClient(httpClient, log)

	// --- Lead sinks ---
	var sinks []wizard.LeadSink
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		notifier, err := sn.NewHandlerFromAWS(ctx, sn.LoadConfig(cfg.Notifications), log)
		if err != nil {
			zapLog.Fatal("notification sink setup failed", zap.Error(err))
		}
		sinks = append(sinks, notifier)
	}
	if cfg.Integrations.Zoho.Enabled {
		crm, err := pcl.NewHandler(pcl.LoadConfig(cfg.Integrations), nil, log)
		if err != nil {
			zapLog.Fatal("crm sink setup failed", zap.Error(err))
		}
		sinks = append(sinks, crm)
	}
	zapLog.Info("Lead sinks configured", zap.Int("count", len(sinks)))

	svc := wizard.NewService(store, be, sinks, wizard.Options{
		ResendCooldown: cfg.Wizard.OTPResendCooldown(),
		StepTimeout:    config.GetDuration(cfg.Wizard.StepTimeout),
		LeadTimeout:    config.GetDuration(cfg.Wizard.LeadTimeout),
	}, log, obs)

	// --- Request handlers ---
	schemas, err := validation.NewSchemaValidator()
	if err != nil {
		zapLog.Fatal("schema setup failed", zap.Error(err))
	}
	dictionary, err := sd.NewHandler(sd.DefaultConfig(), log)
	if err != nil {
		zapLog.Fatal("dictionary setup failed", zap.Error(err))
	}
	var contentCache *goredis.Client
	if cfg.Content.CacheEnabled {
		contentCache = redis.Client
	}
	content := fp.NewHandler(fp.LoadConfig(cfg.Content), be, contentCache, log)

	gin.SetMode(cfg.Server.Mode)
	router := api.NewRouter(api.Dependencies{
		Wizard:         svc,
		Sessions:       auth.NewSessionIssuer(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL()),
		Schemas:        schemas,
		Calculator:     cemi.NewHandler(cemi.LoadConfig(), obs, log),
		Dictionary:     dictionary,
		Content:        content,
		Checkers:       checkers,
		Version:        cfg.App.Version,
		UploadMaxBytes: int64(cfg.Wizard.UploadMaxBytes),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	svc.Wait()

	zapLog.Info("Infinz server stopped")
}

// draftPurger is a store whose expired drafts are not evicted on their own.
// Redis expires keys itself and is not one.
type draftPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgeExpiredDrafts deletes expired drafts until ctx is done.
func purgeExpiredDrafts(ctx context.Context, store draftPurger, interval time.Duration, log logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Warn("draft purge failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			if n > 0 {
				log.Info("expired drafts purged", map[string]interface{}{"count": n})
			}
		}
	}
}
