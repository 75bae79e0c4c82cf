// Package memory is an in-process implementation of store.Store. Each
// transaction works on a private copy of the data which replaces the shared
// state only when the transaction function returns nil.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

type nodeRec struct {
	node common.Node
	seq  int64
}

type edgeRec struct {
	edge common.Edge
	seq  int64
}

type contactRec struct {
	contact common.Contact
	seq     int64
}

type state struct {
	nodes    map[uuid.UUID]nodeRec
	edges    map[uuid.UUID]edgeRec
	contacts map[uuid.UUID]contactRec
	seq      int64
}

func newState() *state {
	return &state{
		nodes:    map[uuid.UUID]nodeRec{},
		edges:    map[uuid.UUID]edgeRec{},
		contacts: map[uuid.UUID]contactRec{},
	}
}

func (s *state) clone() *state {
	out := &state{
		nodes:    make(map[uuid.UUID]nodeRec, len(s.nodes)),
		edges:    make(map[uuid.UUID]edgeRec, len(s.edges)),
		contacts: make(map[uuid.UUID]contactRec, len(s.contacts)),
		seq:      s.seq,
	}
	for k, v := range s.nodes {
		out.nodes[k] = v
	}
	for k, v := range s.edges {
		out.edges[k] = v
	}
	for k, v := range s.contacts {
		out.contacts[k] = v
	}
	return out
}

func (s *state) next() int64 {
	s.seq++
	return s.seq
}

// SimilarityFunc scores a stored embedding against a query vector.
type SimilarityFunc func(query, candidate []float32) float64

// Store is safe for concurrent use. Transactions are serialised.
type Store struct {
	mu         sync.Mutex
	data       *state
	similarity SimilarityFunc
	now        func() time.Time
	failures   map[string]error
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

// WithSimilarityFunc replaces cosine similarity, which lets tests place
// candidates at exact scores.
func WithSimilarityFunc(fn SimilarityFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.similarity = fn
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		data:       newState(),
		similarity: store.CosineSimilarity,
		now:        time.Now,
		failures:   map[string]error{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// FailOn makes every later call of the named Tx method return err. A nil err
// clears the failure.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	tx := &txn{s: s, data: work}
	if err := fn(tx); err != nil {
		return err
	}
	tx.done = true
	s.data = work
	return nil
}

// Nodes returns every node of the tenant in insertion order.
func (s *Store) Nodes(tenantID uuid.UUID) []common.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]nodeRec, 0)
	for _, r := range s.data.nodes {
		if r.node.TenantID == tenantID {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]common.Node, 0, len(recs))
	for _, r := range recs {
		out = append(out, copyNode(r.node))
	}
	return out
}

// Edges returns every edge of the tenant in insertion order.
func (s *Store) Edges(tenantID uuid.UUID) []common.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]edgeRec, 0)
	for _, r := range s.data.edges {
		if r.edge.TenantID == tenantID {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]common.Edge, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.edge)
	}
	return out
}

func copyNode(n common.Node) common.Node {
	if n.Embedding != nil {
		n.Embedding = append([]float32(nil), n.Embedding...)
	}
	return n
}

type txn struct {
	s    *Store
	data *state
	done bool
}

var _ store.Tx = (*txn)(nil)

func (t *txn) check(ctx context.Context, method string) error {
	if t.done {
		return common.Validation(method, "transaction already committed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := t.s.failures[method]; ok {
		return err
	}
	return nil
}

func (t *txn) GetNode(ctx context.Context, tenantID, id uuid.UUID) (common.Node, error) {
	if err := t.check(ctx, "GetNode"); err != nil {
		return common.Node{}, err
	}
	r, ok := t.data.nodes[id]
	if !ok || r.node.TenantID != tenantID {
		return common.Node{}, common.NotFound("get_node", "")
	}
	return copyNode(r.node), nil
}

func (t *txn) FindConceptByLabel(ctx context.Context, tenantID uuid.UUID, label string) (common.Node, error) {
	if err := t.check(ctx, "FindConceptByLabel"); err != nil {
		return common.Node{}, err
	}
	if r, ok := t.conceptByLabel(tenantID, label); ok {
		return copyNode(r.node), nil
	}
	return common.Node{}, common.NotFound("find_concept", "")
}

func (t *txn) conceptByLabel(tenantID uuid.UUID, label string) (nodeRec, bool) {
	var best nodeRec
	found := false
	for _, r := range t.data.nodes {
		if r.node.TenantID != tenantID || !r.node.IsConcept() {
			continue
		}
		if !strings.EqualFold(r.node.Label, label) {
			continue
		}
		if !found || r.seq < best.seq {
			best, found = r, true
		}
	}
	return best, found
}

func (t *txn) CreateNode(ctx context.Context, node common.Node) (common.Node, error) {
	if err := t.check(ctx, "CreateNode"); err != nil {
		return common.Node{}, err
	}
	if node.Kind != common.KindConcept && node.Kind != common.KindContact {
		return common.Node{}, common.Validation("create_node", "unknown node kind")
	}
	if node.IsConcept() {
		if _, ok := t.conceptByLabel(node.TenantID, node.Label); ok {
			return common.Node{}, common.Conflict("create_node", nil)
		}
	}
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	if _, ok := t.data.nodes[node.ID]; ok {
		return common.Node{}, common.Conflict("create_node", nil)
	}
	now := t.s.now()
	node.CreatedAt, node.UpdatedAt = now, now
	node = copyNode(node)
	t.data.nodes[node.ID] = nodeRec{node: node, seq: t.data.next()}
	return copyNode(node), nil
}

func (t *txn) updateNode(tenantID, id uuid.UUID, op string, fn func(*common.Node)) error {
	r, ok := t.data.nodes[id]
	if !ok || r.node.TenantID != tenantID {
		return common.NotFound(op, "")
	}
	fn(&r.node)
	r.node.UpdatedAt = t.s.now()
	t.data.nodes[id] = r
	return nil
}

func (t *txn) AdjustWeight(ctx context.Context, tenantID, id uuid.UUID, delta int) (int, error) {
	if err := t.check(ctx, "AdjustWeight"); err != nil {
		return 0, err
	}
	var weight int
	err := t.updateNode(tenantID, id, "adjust_weight", func(n *common.Node) {
		n.Weight += delta
		weight = n.Weight
	})
	return weight, err
}

func (t *txn) SetWeight(ctx context.Context, tenantID, id uuid.UUID, weight int) error {
	if err := t.check(ctx, "SetWeight"); err != nil {
		return err
	}
	return t.updateNode(tenantID, id, "set_weight", func(n *common.Node) { n.Weight = weight })
}

func (t *txn) SetEmbedding(ctx context.Context, tenantID, id uuid.UUID, embedding []float32) error {
	if err := t.check(ctx, "SetEmbedding"); err != nil {
		return err
	}
	vec := append([]float32(nil), embedding...)
	return t.updateNode(tenantID, id, "set_embedding", func(n *common.Node) { n.Embedding = vec })
}

func (t *txn) RenameNode(ctx context.Context, tenantID, id uuid.UUID, label string) error {
	if err := t.check(ctx, "RenameNode"); err != nil {
		return err
	}
	if r, ok := t.data.nodes[id]; ok && r.node.IsConcept() {
		if other, ok := t.conceptByLabel(tenantID, label); ok && other.node.ID != id {
			return common.Conflict("rename_node", nil)
		}
	}
	return t.updateNode(tenantID, id, "rename_node", func(n *common.Node) { n.Label = label })
}

func (t *txn) DeleteNode(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := t.check(ctx, "DeleteNode"); err != nil {
		return err
	}
	r, ok := t.data.nodes[id]
	if !ok || r.node.TenantID != tenantID {
		return common.NotFound("delete_node", "")
	}
	delete(t.data.nodes, id)
	for eid, e := range t.data.edges {
		if e.edge.SourceID == id || e.edge.TargetID == id {
			delete(t.data.edges, eid)
		}
	}
	for cid, c := range t.data.contacts {
		if c.contact.NodeID == id {
			delete(t.data.contacts, cid)
		}
	}
	return nil
}

func (t *txn) SearchConcepts(
	ctx context.Context,
	tenantID uuid.UUID,
	query, category string,
	limit int,
) ([]common.Node, error) {
	if err := t.check(ctx, "SearchConcepts"); err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	out := make([]common.Node, 0)
	for _, r := range t.data.nodes {
		n := r.node
		if n.TenantID != tenantID || !n.IsConcept() {
			continue
		}
		if !strings.Contains(strings.ToLower(n.Label), query) {
			continue
		}
		if category != "" && !strings.EqualFold(n.Category, category) {
			continue
		}
		out = append(out, copyNode(n))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *txn) SimilarConcepts(ctx context.Context, q store.SimilarityQuery) ([]common.SimilarNode, error) {
	if err := t.check(ctx, "SimilarConcepts"); err != nil {
		return nil, err
	}
	if len(q.Vector) == 0 || q.Limit <= 0 {
		return nil, nil
	}
	excluded := make(map[uuid.UUID]struct{}, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	type scored struct {
		rec nodeRec
		sim float64
	}
	hits := make([]scored, 0)
	for _, r := range t.data.nodes {
		n := r.node
		if n.TenantID != q.TenantID || !n.IsConcept() || len(n.Embedding) == 0 {
			continue
		}
		if _, skip := excluded[n.ID]; skip {
			continue
		}
		sim := t.s.similarity(q.Vector, n.Embedding)
		if sim < q.MinSimilarity {
			continue
		}
		hits = append(hits, scored{rec: r, sim: sim})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].sim != hits[j].sim {
			return hits[i].sim > hits[j].sim
		}
		return hits[i].rec.seq < hits[j].rec.seq
	})
	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	out := make([]common.SimilarNode, 0, len(hits))
	for _, h := range hits {
		out = append(out, common.SimilarNode{Node: copyNode(h.rec.node), Similarity: h.sim})
	}
	return out, nil
}

func (t *txn) WeightDrift(ctx context.Context, tenantID uuid.UUID) ([]store.WeightDrift, error) {
	if err := t.check(ctx, "WeightDrift"); err != nil {
		return nil, err
	}
	inDegree := map[uuid.UUID]int{}
	for _, e := range t.data.edges {
		if e.edge.TenantID == tenantID {
			inDegree[e.edge.TargetID]++
		}
	}
	out := make([]store.WeightDrift, 0)
	for _, r := range t.data.nodes {
		n := r.node
		if n.TenantID != tenantID || !n.IsConcept() {
			continue
		}
		if n.Weight == inDegree[n.ID] {
			continue
		}
		out = append(out, store.WeightDrift{
			NodeID:   n.ID,
			Label:    n.Label,
			Category: n.Category,
			Weight:   n.Weight,
			InDegree: inDegree[n.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}
