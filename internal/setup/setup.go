// Package setup builds the long-lived dependencies shared by the server,
// the worker and graphctl from environment variables.
package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/ai"
	oai "github.com/panot-hq/edge-backend/pkg/ai/ollama"
	gai "github.com/panot-hq/edge-backend/pkg/ai/openai"
	"github.com/panot-hq/edge-backend/pkg/graph"
	"github.com/panot-hq/edge-backend/pkg/leaselock"
	"github.com/panot-hq/edge-backend/pkg/logger"
	pgstore "github.com/panot-hq/edge-backend/pkg/store/pgx"
	"github.com/panot-hq/edge-backend/pkg/summary"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Lock key prefixes. The worker holds its lock while the engine takes its
// own per operation, so the two must never share a key.
const (
	GraphLockPrefix = "graph:"
	JobsLockPrefix  = "jobs:"
)

// NewAIClient selects the adapter named by AI_ADAPTER ("openai" or
// "ollama").
func NewAIClient() (ai.GraphAIClient, error) {
	parallel := int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 8))
	timeout := int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 2))
	dim := int(util.GetEnvNumeric("AI_EMBED_DIM", 1536))

	switch adapter := util.GetEnvString("AI_ADAPTER", "openai"); adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingDim:   dim,

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: parallel,
			TimeoutMin:            timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return client, nil
	case "openai":
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingDim:   dim,

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: parallel,
			TimeoutMin:            timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown AI_ADAPTER %q", adapter)
	}
}

// LeaseOptions reads the lease tuning shared by both lock prefixes.
func LeaseOptions() leaselock.Options {
	return leaselock.Options{
		TTL:          util.GetEnvDuration("LOCK_TTL", 30*time.Second),
		RenewEvery:   util.GetEnvDuration("LOCK_RENEW_EVERY", 10*time.Second),
		Wait:         true,
		WaitInterval: util.GetEnvDuration("LOCK_WAIT_INTERVAL", 250*time.Millisecond),
		WaitJitter:   100 * time.Millisecond,
	}
}

// NewEngine wires the graph engine on pool: Postgres storage, a lease based
// tenant lock and summary regeneration through client.
func NewEngine(pool *pgxpool.Pool, client ai.GraphAIClient) (*graph.Engine, error) {
	st := pgstore.NewGraphDBStorage(pool)
	locker := leaselock.NewTenantLocker(leaselock.New(pool), GraphLockPrefix, LeaseOptions())

	var summaryOpts []summary.Option
	if budget := int(util.GetEnvNumeric("SUMMARY_TOKEN_BUDGET", 0)); budget > 0 {
		summaryOpts = append(summaryOpts, summary.WithTokenBudget(budget))
	}

	return graph.NewEngine(st, client,
		graph.WithConfig(graph.LoadConfig()),
		graph.WithLocker(locker),
		graph.WithSummaryTrigger(summary.New(st, client, summaryOpts...)),
	)
}

// OpenDatabase connects to DATABASE_URL and, when MIGRATE_ON_START is set,
// applies pending migrations first.
func OpenDatabase(ctx context.Context) (*pgxpool.Pool, error) {
	databaseURL := util.GetEnv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if util.GetEnvBool("MIGRATE_ON_START", false) {
		if err := MigrateUp(databaseURL); err != nil {
			return nil, err
		}
	}
	pool, err := pgstore.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Debug("Connected to database")
	return pool, nil
}
