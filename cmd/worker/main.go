package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/panot-hq/edge-backend/internal/queue"
	"github.com/panot-hq/edge-backend/internal/setup"
	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/leaselock"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Level:  util.GetEnv("LOG_LEVEL"),
		Format: util.GetEnv("LOG_FORMAT"),
	})
	logger.Init(consoleLogger)

	// GraphAiClient
	aiClient, err := setup.NewAIClient()
	if err != nil {
		logger.Fatal("Could not create AI client", "err", err)
	}

	// Init pgx client
	pgConn, err := setup.OpenDatabase(ctx)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	engine, err := setup.NewEngine(pgConn, aiClient)
	if err != nil {
		logger.Fatal("Could not create graph engine", "err", err)
	}
	jobs := queue.NewPgJobStore(pgConn)
	locker := leaselock.NewTenantLocker(leaselock.New(pgConn), setup.JobsLockPrefix, setup.LeaseOptions())
	processor := queue.NewProcessor(engine, jobs, locker)

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	retryTTL := util.GetEnvDuration("QUEUE_RETRY_TTL", 30*time.Second)
	if err := queue.SetupQueues(ch, []string{queue.GraphQueue}, retryTTL); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// Jobs left in processing by a crashed worker go back to pending.
	staleAfter := util.GetEnvDuration("JOB_STALE_AFTER", 10*time.Minute)
	if err := queue.RecoverStaleJobs(ctx, jobs, ch, staleAfter); err != nil {
		logger.Error("Failed to recover stale jobs", "err", err)
	}

	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	prefetch := int(util.GetEnvNumeric("WORKER_PREFETCH", 1))
	if err := consumerCh.Qos(prefetch, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	deliveries, err := consumerCh.ConsumeWithContext(
		ctx,
		queue.GraphQueue,
		"graph_queue_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		logger.Fatal("Failed to register consumer", "err", err)
	}

	go func() {
		ticker := time.NewTicker(util.GetEnvDuration("AI_METRICS_INTERVAL", 5*time.Minute))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m := aiClient.GetMetrics()
				if m.TotalTokens == 0 {
					continue
				}
				logger.Info(
					"AI Metrics",
					"input_tokens", m.InputTokens,
					"output_tokens", m.OutputTokens,
					"total_tokens", m.TotalTokens,
					"duration", (time.Duration(m.DurationMs) * time.Millisecond).String(),
				)
				aiClient.ResetMetrics()
			}
		}
	}()

	logger.Info("Listening for messages", "queue", queue.GraphQueue)
	processor.Consume(ctx, ch, queue.GraphQueue, deliveries)
	logger.Info("Shutdown signal received, exiting...")
}
