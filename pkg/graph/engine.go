package graph

import (
	"context"
	"fmt"

	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

// Embedder turns text into a vector. ai.GraphAIClient satisfies it.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
}

// BatchEmbedder embeds several inputs in one request, returning vectors in
// input order. Memo.Prefetch uses it when the embedder provides it.
type BatchEmbedder interface {
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)
}

// SummaryTrigger refreshes the cached summary of the contact mirrored by
// mirrorNodeID.
type SummaryTrigger interface {
	Regenerate(ctx context.Context, tenantID, mirrorNodeID uuid.UUID) error
}

// Locker serialises graph mutations per tenant.
type Locker interface {
	WithTenantLock(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context) error) error
}

// Config holds the tunables of concept resolution.
//
// IdentityThreshold is the similarity at or above which a candidate is
// treated as the same concept. RelatedThreshold is the similarity at or
// above which a candidate below IdentityThreshold gets a RELATED_TO edge.
type Config struct {
	IdentityThreshold float64
	RelatedThreshold  float64
	SearchLimit       int
	EmbedParallel     int
	ConflictRetries   int
}

func DefaultConfig() Config {
	return Config{
		IdentityThreshold: 0.90,
		RelatedThreshold:  0.47,
		SearchLimit:       5,
		EmbedParallel:     8,
		ConflictRetries:   3,
	}
}

// LoadConfig reads the thresholds from the environment, falling back to
// DefaultConfig.
func LoadConfig() Config {
	def := DefaultConfig()
	return Config{
		IdentityThreshold: util.GetEnvFloat("DEDUP_IDENTITY_THRESHOLD", def.IdentityThreshold),
		RelatedThreshold:  util.GetEnvFloat("DEDUP_RELATED_THRESHOLD", def.RelatedThreshold),
		SearchLimit:       int(util.GetEnvNumeric("DEDUP_SEARCH_LIMIT", def.SearchLimit)),
		EmbedParallel:     int(util.GetEnvNumeric("AI_PARALLEL_REQ", def.EmbedParallel)),
		ConflictRetries:   def.ConflictRetries,
	}
}

func (c Config) Validate() error {
	if c.RelatedThreshold <= 0 || c.RelatedThreshold > c.IdentityThreshold || c.IdentityThreshold > 1 {
		return common.Validation("config", fmt.Sprintf(
			"thresholds must satisfy 0 < related (%.2f) <= identity (%.2f) <= 1",
			c.RelatedThreshold, c.IdentityThreshold,
		))
	}
	if c.SearchLimit <= 0 {
		return common.Validation("config", "search limit must be positive")
	}
	return nil
}

// Engine deduplicates concepts, keeps concept weights equal to their
// in-degree and deletes concepts once nothing references them.
//
// Every mutating operation holds the tenant lock and commits its graph
// changes in store transactions. Summary regeneration runs after commit and
// never rolls graph changes back.
type Engine struct {
	store    store.Store
	embedder Embedder
	summary  SummaryTrigger
	locker   Locker
	cfg      Config
}

type Option func(*Engine)

func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

func WithLocker(l Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.locker = l
		}
	}
}

func WithSummaryTrigger(s SummaryTrigger) Option {
	return func(e *Engine) {
		e.summary = s
	}
}

// NewEngine returns an engine over st. Without WithLocker the engine
// serialises tenants inside this process only.
func NewEngine(st store.Store, embedder Embedder, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	e := &Engine{
		store:    st,
		embedder: embedder,
		locker:   NewLocalLocker(),
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.cfg.EmbedParallel <= 0 {
		e.cfg.EmbedParallel = 1
	}
	if e.cfg.ConflictRetries < 0 {
		e.cfg.ConflictRetries = 0
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func requireID(op, name string, id uuid.UUID) error {
	if id == uuid.Nil {
		return common.Validation(op, name+" is required")
	}
	return nil
}
