// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"quoteflow-workers/internal/common/aws"
	"quoteflow-workers/internal/common/camunda"
	"quoteflow-workers/internal/common/config"
	"quoteflow-workers/internal/common/database"
	"quoteflow-workers/internal/common/logger"
	"quoteflow-workers/internal/common/observability"
	"quoteflow-workers/internal/quote/audit"
	"quoteflow-workers/internal/quote/forward"
	"quoteflow-workers/internal/quote/notify"
	"quoteflow-workers/internal/quote/rating"
	"quoteflow-workers/internal/quote/reconcile"
	"quoteflow-workers/internal/quote/store"
	"quoteflow-workers/internal/quote/workflow"
	"quoteflow-workers/pkg/registry"

	fe "quoteflow-workers/internal/workers/quote/forward-evaluation"
	gr "quoteflow-workers/internal/workers/quote/generate-rfq"
	pw "quoteflow-workers/internal/workers/quote/progress-workflow"
	qq "quoteflow-workers/internal/workers/quote/query-quotes"
	rc "quoteflow-workers/internal/workers/quote/rate-candidates"
	rq "quoteflow-workers/internal/workers/quote/reconcile-quotes"
	rp "quoteflow-workers/internal/workers/quote/record-payment"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (audit trail is optional) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := esClient.EnsureIndex(ctx); err != nil {
			zapLog.Fatal("elasticsearch snapshot index setup failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		zapLog.Info("Elasticsearch disabled, evaluation snapshots will not be indexed")
	}

	// --- Init Notification Channels ---
	var notifier notify.Notifier
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}

		var sms notify.SMSSender
		if cfg.Notifications.SMS.Enabled {
			snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("sns client failed", zap.Error(err))
			}
			sms = snsClient
		}

		notifier = notify.NewService(sesClient, sms, cfg.Notifications.Email.FromEmail, log)
		zapLog.Info("Notification channels initialized")
	} else {
		zapLog.Info("Email notifications disabled, forwards will not notify clients")
	}

	// --- Load Task Registry ---
	taskRegistry, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		// Workers fall back to schema-less input handling.
		zapLog.Warn("task registry load failed, input validation disabled",
			zap.String("path", cfg.Registry.Path),
			zap.Error(err),
		)
		taskRegistry = nil
	}

	// --- Build Domain Components ---
	quoteStore := store.NewQuoteStore(pg.GetDB(), log)
	evaluatedStore := store.NewEvaluatedStore(pg.GetDB(), log)
	paymentStore := store.NewPaymentStore(pg.GetDB(), log)

	stageController := workflow.NewController(quoteStore, log)

	var auditor forward.AuditIndexer
	if esClient != nil {
		auditor = audit.NewIndexer(esClient.Client, esClient.Index, log)
	}

	forwarder := forward.NewForwarder(evaluatedStore, stageController, notifier, auditor, log)
	reconciler := reconcile.New(quoteStore, evaluatedStore, log)

	var adjuster rating.Adjuster = rating.RandomAdjuster{}
	rcConfig := rc.LoadConfig(cfg)
	if rcConfig.GenAIBaseURL != "" {
		adjuster = rating.NewGenAIAdjuster(rcConfig.GenAIBaseURL, rcConfig.GenAIAPIKey, rcConfig.GenAITimeout)
		zapLog.Info("GenAI adjuster enabled for AI-mode rating")
	}

	zeebeClient := camundaClient.GetClient()
	var workers []*camunda.CamundaWorker

	// --- Register Workers ---
	if config.IsWorkerEnabled(cfg, rc.TaskType) {
		handler := rc.NewHandler(rcConfig, redis.GetClient(), adjuster, log)
		wcfg := config.GetWorkerConfig(cfg, rc.TaskType)
		workers = append(workers,
			camunda.NewWorker(zeebeClient, rc.TaskType, wcfg.MaxJobsActive,
				time.Duration(wcfg.Timeout)*time.Millisecond, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, fe.TaskType) {
		handler := fe.NewHandler(fe.LoadConfig(cfg), forwarder, redis.GetClient(), taskRegistry, log)
		wcfg := config.GetWorkerConfig(cfg, fe.TaskType)
		workers = append(workers,
			camunda.NewWorker(zeebeClient, fe.TaskType, wcfg.MaxJobsActive,
				time.Duration(wcfg.Timeout)*time.Millisecond, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, pw.TaskType) {
		handler := pw.NewHandler(pw.LoadConfig(), stageController, log)
		wcfg := config.GetWorkerConfig(cfg, pw.TaskType)
		workers = append(workers,
			camunda.NewWorker(zeebeClient, pw.TaskType, wcfg.MaxJobsActive,
				time.Duration(wcfg.Timeout)*time.Millisecond, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, rq.TaskType) {
		handler := rq.NewHandler(rq.LoadConfig(cfg), reconciler, notifier, log)
		wcfg := config.GetWorkerConfig(cfg, rq.TaskType)
		workers = append(workers,
			camunda.NewWorker(zeebeClient, rq.TaskType, wcfg.MaxJobsActive,
				time.Duration(wcfg.Timeout)*time.Millisecond, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, rp.TaskType) {
		handler := rp.NewHandler(rp.LoadConfig(cfg), paymentStore, quoteStore, notifier, log)
		wcfg := config.GetWorkerConfig(cfg, rp.TaskType)
		workers = append(workers,
			camunda.NewWorker(zeebeClient, rp.TaskType, wcfg.MaxJobsActive,
				time.Duration(wcfg.Timeout)*time.Millisecond, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, qq.TaskType) {
		handler := qq.NewHandler(qq.LoadConfig(), quoteStore, log)
		wcfg := config.GetWorkerConfig(cfg, qq.TaskType)
		workers = append(workers,
			camunda.NewWorker(zeebeClient, qq.TaskType, wcfg.MaxJobsActive,
				time.Duration(wcfg.Timeout)*time.Millisecond, handler, obs, zapLog))
	}

	if config.IsWorkerEnabled(cfg, gr.TaskType) {
		handler := gr.NewHandler(gr.LoadConfig(cfg), log)
		wcfg := config.GetWorkerConfig(cfg, gr.TaskType)
		workers = append(workers,
			camunda.NewWorker(zeebeClient, gr.TaskType, wcfg.MaxJobsActive,
				time.Duration(wcfg.Timeout)*time.Millisecond, handler, obs, zapLog))
	}

	for _, w := range workers {
		w.Start()
	}
	zapLog.Info("All workers registered successfully", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
