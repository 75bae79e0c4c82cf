package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/store"
	"github.com/panot-hq/edge-backend/pkg/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder hands out orthogonal one-hot vectors per label unless a
// vector was preset, so unrelated labels never look similar.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	fail    map[string]error
	calls   []string
	next    int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{}, fail: map[string]error{}}
}

func embedLabel(text string) string {
	return strings.ToLower(strings.SplitN(text, " | ", 2)[0])
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, input []byte) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text := string(input)
	f.calls = append(f.calls, text)
	label := embedLabel(text)
	if err, ok := f.fail[label]; ok {
		return nil, err
	}
	if v, ok := f.vectors[label]; ok {
		return v, nil
	}
	f.next++
	v := make([]float32, 128)
	v[f.next%128] = 1
	f.vectors[label] = v
	return v, nil
}

func (f *fakeEmbedder) preset(label string, vec ...float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors[strings.ToLower(label)] = vec
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// recordingSummary writes a numbered summary to the contact each time it
// runs.
type recordingSummary struct {
	st    *memory.Store
	mu    sync.Mutex
	calls int
	err   error
}

func (r *recordingSummary) Regenerate(ctx context.Context, tenantID, mirrorNodeID uuid.UUID) error {
	r.mu.Lock()
	r.calls++
	n, err := r.calls, r.err
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.st.WithTx(ctx, func(tx store.Tx) error {
		c, err := tx.GetContactByNode(ctx, tenantID, mirrorNodeID)
		if err != nil {
			return err
		}
		return tx.SetContactSummary(ctx, tenantID, c.ID, fmt.Sprintf("generated summary %d", n))
	})
}

func (r *recordingSummary) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type testEnv struct {
	engine   *Engine
	store    *memory.Store
	embedder *fakeEmbedder
	summary  *recordingSummary
}

func newTestEnv(t *testing.T, storeOpts []memory.Option, opts ...Option) *testEnv {
	t.Helper()
	st := memory.New(storeOpts...)
	emb := newFakeEmbedder()
	sum := &recordingSummary{st: st}
	opts = append([]Option{WithSummaryTrigger(sum)}, opts...)
	eng, err := NewEngine(st, emb, opts...)
	require.NoError(t, err)
	return &testEnv{engine: eng, store: st, embedder: emb, summary: sum}
}

func (env *testEnv) contact(t *testing.T, tenant uuid.UUID, first string) common.Contact {
	t.Helper()
	c, err := env.engine.CreateContact(context.Background(), tenant, first, "Test")
	require.NoError(t, err)
	return c
}

func (env *testEnv) connect(t *testing.T, tenant uuid.UUID, c common.Contact, items ...common.Item) *ConnectReport {
	t.Helper()
	report, err := env.engine.ConnectItems(context.Background(), ConnectRequest{
		TenantID:     tenant,
		SourceNodeID: c.NodeID,
		Items:        items,
		Mode:         common.ModeActionable,
	})
	require.NoError(t, err)
	return report
}

func (env *testEnv) concept(t *testing.T, tenant uuid.UUID, label string) common.Node {
	t.Helper()
	for _, n := range env.store.Nodes(tenant) {
		if n.IsConcept() && strings.EqualFold(n.Label, label) {
			return n
		}
	}
	t.Fatalf("concept %q not found", label)
	return common.Node{}
}

func (env *testEnv) concepts(tenant uuid.UUID) []common.Node {
	out := []common.Node{}
	for _, n := range env.store.Nodes(tenant) {
		if n.IsConcept() {
			out = append(out, n)
		}
	}
	return out
}

func (env *testEnv) summaryOf(t *testing.T, tenant uuid.UUID, c common.Contact) string {
	t.Helper()
	got, err := env.engine.GetContact(context.Background(), tenant, c.ID)
	require.NoError(t, err)
	return got.Summary
}

// requireWeightsMatchInDegree checks that every concept weight equals the
// number of edges targeting it.
func requireWeightsMatchInDegree(t *testing.T, st *memory.Store, tenant uuid.UUID) {
	t.Helper()
	inDegree := map[uuid.UUID]int{}
	for _, e := range st.Edges(tenant) {
		inDegree[e.TargetID]++
	}
	for _, n := range st.Nodes(tenant) {
		if !n.IsConcept() {
			continue
		}
		require.Equalf(t, inDegree[n.ID], n.Weight, "weight of %q", n.Label)
		require.Positivef(t, n.Weight, "concept %q must have been collected", n.Label)
	}
}

func item(label, category, relation string) common.Item {
	return common.Item{Label: label, Category: category, RelationType: relation}
}

func edgeBetween(st *memory.Store, tenant, a, b uuid.UUID) (common.Edge, bool) {
	for _, e := range st.Edges(tenant) {
		if (e.SourceID == a && e.TargetID == b) || (e.SourceID == b && e.TargetID == a) {
			return e, true
		}
	}
	return common.Edge{}, false
}

// scoreTable scores a query vector against a candidate by their first
// components.
type scoreTable map[[2]float32]float64

func (s scoreTable) similarity(query, candidate []float32) float64 {
	return s[[2]float32{query[0], candidate[0]}]
}
