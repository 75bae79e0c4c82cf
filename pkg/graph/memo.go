package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Memo caches embeddings by (label, category) for the lifetime of one batch.
// The text embedded for a key is the EmbeddingText of the first item that
// requested it.
type Memo struct {
	embedder Embedder
	sem      *semaphore.Weighted
	parallel int
	group    singleflight.Group

	mu      sync.Mutex
	entries map[string]memoEntry
	calls   int
}

type memoEntry struct {
	vec []float32
	err error
}

func NewMemo(embedder Embedder, parallel int) *Memo {
	if parallel <= 0 {
		parallel = 1
	}
	return &Memo{
		embedder: embedder,
		sem:      semaphore.NewWeighted(int64(parallel)),
		parallel: parallel,
		entries:  map[string]memoEntry{},
	}
}

func memoKey(label, category string) string {
	return strings.ToLower(strings.TrimSpace(label)) + "|" + strings.ToLower(strings.TrimSpace(category))
}

// Get returns the embedding of item, calling the embedder at most once per
// key. Failures are remembered and returned for every item sharing the key.
func (m *Memo) Get(ctx context.Context, item common.Item) ([]float32, error) {
	key := memoKey(item.Label, item.Category)

	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		return e.vec, e.err
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.Lock()
		if e, ok := m.entries[key]; ok {
			m.mu.Unlock()
			return e.vec, e.err
		}
		m.mu.Unlock()

		vec, err := m.embed(ctx, item.EmbeddingText())
		if isCancel(err) {
			return nil, err
		}

		m.mu.Lock()
		m.entries[key] = memoEntry{vec: vec, err: err}
		m.mu.Unlock()
		return vec, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

func (m *Memo) embed(ctx context.Context, text string) ([]float32, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.sem.Release(1)

	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	vec, err := m.embedder.GenerateEmbedding(ctx, []byte(text))
	if err != nil {
		if isCancel(err) {
			return nil, err
		}
		return nil, common.Upstream("embed", err)
	}
	return checkVector(vec)
}

func checkVector(vec []float32) ([]float32, error) {
	if len(vec) == 0 {
		return nil, common.Upstream("embed", errors.New("empty embedding"))
	}
	return vec, nil
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Prefetch embeds every distinct key of items. A BatchEmbedder gets all
// missing keys in one request; otherwise, or when that request fails, keys
// are embedded concurrently one by one. Per-key failures stay in the memo;
// only context cancellation is returned.
func (m *Memo) Prefetch(ctx context.Context, items []common.Item) error {
	seen := map[string]struct{}{}
	pending := make([]common.Item, 0, len(items))
	m.mu.Lock()
	for _, item := range items {
		key := memoKey(item.Label, item.Category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := m.entries[key]; !ok {
			pending = append(pending, item)
		}
	}
	m.mu.Unlock()

	if batch, ok := m.embedder.(BatchEmbedder); ok && len(pending) > 1 {
		err := m.embedBatch(ctx, batch, pending)
		if err == nil || isCancel(err) {
			return err
		}
		logger.Warn("[Memo] Batch embedding failed, embedding one by one", "items", len(pending), "err", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallel)
	for _, item := range pending {
		it := item
		g.Go(func() error {
			_, err := m.Get(gctx, it)
			if isCancel(err) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *Memo) embedBatch(ctx context.Context, batch BatchEmbedder, items []common.Item) error {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.sem.Release(1)

	inputs := make([][]byte, len(items))
	for i, item := range items {
		inputs[i] = []byte(item.EmbeddingText())
	}

	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	vecs, err := batch.GenerateEmbeddings(ctx, inputs)
	if err != nil {
		return err
	}
	if len(vecs) != len(items) {
		return fmt.Errorf("embedding batch size mismatch: got %d want %d", len(vecs), len(items))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range items {
		key := memoKey(item.Label, item.Category)
		if _, ok := m.entries[key]; ok {
			continue
		}
		vec, err := checkVector(vecs[i])
		m.entries[key] = memoEntry{vec: vec, err: err}
	}
	return nil
}

// Calls reports how many embedding requests were sent.
func (m *Memo) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
