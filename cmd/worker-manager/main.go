// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"admissions-workers/internal/analysis"
	"admissions-workers/internal/common/aws"
	"admissions-workers/internal/common/camunda"
	"admissions-workers/internal/common/config"
	"admissions-workers/internal/common/database"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/observability"
	"admissions-workers/internal/knowledge"
	"admissions-workers/internal/server"

	stn "admissions-workers/internal/workers/communication/send-tour-notification"
	aqr "admissions-workers/internal/workers/matching/analyze-quiz-response"
	rkb "admissions-workers/internal/workers/matching/rank-knowledge-base"
	tvn "admissions-workers/internal/workers/voice/transcribe-voice-note"
)

const shutdownTimeout = 15 * time.Second

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
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
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

type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// pingOrClose releases the client when it cannot reach its backend.
func pingOrClose(ctx context.Context, c pingCloser) error {
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return err
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err.Error()})
	os.Exit(1)
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.FromOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	log.Info("Starting worker manager...", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	}, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		fatal(log, "zeebe client failed after retries", err)
	}
	defer zeebe.Close()
	log.Info("Zeebe client connected successfully", nil)

	// --- Redis ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		fatal(log, "redis failed after retries", err)
	}
	defer redis.Close()
	log.Info("Redis connected successfully", nil)

	checks := map[string]server.Check{
		"zeebe": zeebe.HealthCheck,
		"redis": redis.Ping,
	}

	// --- Knowledge base ---
	source, closeSource, err := openKnowledgeSource(ctx, cfg, log, checks)
	if err != nil {
		fatal(log, "knowledge base source failed", err)
	}
	defer closeSource()
	kb := knowledge.NewCachedSource(source, config.GetDuration(cfg.Knowledge.CacheTTL))

	// --- Analysis ---
	cache := analysis.NewResultCache(redis, config.GetDuration(cfg.Cache.ResultTTL))
	orchestrator := analysis.New(analysis.Options{
		Descriptors: analysis.DefaultDescriptors(cfg, log),
		Knowledge:   kb,
		Cache:       cache,
		Logger:      log,
		Tracer:      obs.Tracer(),
		Recorder:    obs,
		Settings:    analysis.DefaultSettings(cfg),
	})

	// --- Notification senders ---
	var email stn.EmailSender
	var sms stn.SMSSender
	if cfg.Notifications.Email.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			fatal(log, "failed to create SES client", err)
		}
		email = ses
	}
	if cfg.Notifications.SMS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			fatal(log, "failed to create SNS client", err)
		}
		sms = sns
	}

	// --- Workers ---
	var workers []worker.JobWorker
	register := func(taskType string, handler camunda.JobHandler) {
		if w := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, log); w != nil {
			workers = append(workers, w)
		}
	}

	analyzeHandler, err := aqr.NewHandler(aqr.HandlerOptions{
		Config:   aqr.LoadConfig(cfg),
		Analyzer: orchestrator,
		Store:    cache,
		Logger:   log,
	})
	if err != nil {
		fatal(log, "failed to create analyze-quiz-response handler", err)
	}
	register(aqr.TaskType, analyzeHandler)

	register(rkb.TaskType, rkb.NewHandler(rkb.LoadConfig(cfg), kb, log))
	register(tvn.TaskType, tvn.NewHandler(tvn.LoadConfig(cfg), orchestrator, log))

	notifyHandler, err := stn.NewHandler(stn.HandlerOptions{
		Config: stn.LoadConfig(cfg),
		Email:  email,
		SMS:    sms,
		Logger: log,
	})
	if err != nil {
		fatal(log, "failed to create send-tour-notification handler", err)
	}
	register(stn.TaskType, notifyHandler)

	log.Info("All workers registered", map[string]interface{}{"count": len(workers)})

	// --- HTTP surface ---
	srv := server.New(server.Options{
		Analyzer:        orchestrator,
		Store:           cache,
		SiteURL:         cfg.App.SiteURL,
		LMStudioBaseURL: cfg.Providers.LMStudio.BaseURL,
		RelayTimeout:    config.GetDuration(cfg.Providers.LMStudio.CompletionTimeout),
		Checks:          checks,
		Logger:          log,
		Mode:            cfg.Server.Mode,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(cfg.Server.Address)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received", nil)
	case err := <-serverErr:
		if err != nil {
			log.Error("HTTP server stopped", map[string]interface{}{"error": err.Error()})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("HTTP server shutdown incomplete", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped", nil)
}

// openKnowledgeSource connects the configured backing store and registers its readiness check.
func openKnowledgeSource(ctx context.Context, cfg *config.Config, log logger.Logger, checks map[string]server.Check) (knowledge.Source, func(), error) {
	switch cfg.Knowledge.Source {
	case config.KnowledgeSourcePostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pingOrClose(ctx, pg)
		}, 15, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			return nil, nil, err
		}
		checks["postgres"] = pg.Ping
		log.Info("PostgreSQL connected successfully", nil)
		return knowledge.NewPostgresSource(pg.DB), func() { _ = pg.Close() }, nil

	case config.KnowledgeSourceElasticsearch:
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return pingOrClose(ctx, es)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			return nil, nil, err
		}
		checks["elasticsearch"] = es.Ping
		log.Info("Elasticsearch connected successfully", nil)
		return knowledge.NewElasticsearchSource(es, cfg.Database.Elasticsearch.IndexPrefix), func() { _ = es.Close() }, nil

	default:
		log.Info("Reading knowledge base from files", map[string]interface{}{"dir": cfg.Knowledge.Dir})
		return knowledge.NewFileSource(cfg.Knowledge.Dir), func() {}, nil
	}
}
