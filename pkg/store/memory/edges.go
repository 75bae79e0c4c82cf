package memory

import (
	"context"
	"sort"

	"github.com/panot-hq/edge-backend/pkg/common"

	"github.com/google/uuid"
)

func (t *txn) GetEdge(ctx context.Context, tenantID, id uuid.UUID) (common.Edge, error) {
	if err := t.check(ctx, "GetEdge"); err != nil {
		return common.Edge{}, err
	}
	r, ok := t.data.edges[id]
	if !ok || r.edge.TenantID != tenantID {
		return common.Edge{}, common.NotFound("get_edge", "")
	}
	return r.edge, nil
}

func (t *txn) EdgeBetween(ctx context.Context, tenantID, a, b uuid.UUID) (common.Edge, bool, error) {
	if err := t.check(ctx, "EdgeBetween"); err != nil {
		return common.Edge{}, false, err
	}
	r, ok := t.edgeBetween(tenantID, a, b)
	return r.edge, ok, nil
}

func (t *txn) edgeBetween(tenantID, a, b uuid.UUID) (edgeRec, bool) {
	for _, r := range t.data.edges {
		e := r.edge
		if e.TenantID != tenantID {
			continue
		}
		if (e.SourceID == a && e.TargetID == b) || (e.SourceID == b && e.TargetID == a) {
			return r, true
		}
	}
	return edgeRec{}, false
}

func (t *txn) CreateEdge(ctx context.Context, edge common.Edge) (common.Edge, error) {
	if err := t.check(ctx, "CreateEdge"); err != nil {
		return common.Edge{}, err
	}
	if edge.SourceID == edge.TargetID {
		return common.Edge{}, common.Validation("create_edge", "an edge cannot connect a node to itself")
	}
	for _, id := range []uuid.UUID{edge.SourceID, edge.TargetID} {
		r, ok := t.data.nodes[id]
		if !ok || r.node.TenantID != edge.TenantID {
			return common.Edge{}, common.NotFound("create_edge", "endpoint node does not exist")
		}
	}
	if _, ok := t.edgeBetween(edge.TenantID, edge.SourceID, edge.TargetID); ok {
		return common.Edge{}, common.Conflict("create_edge", nil)
	}
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	edge.CreatedAt = t.s.now()
	t.data.edges[edge.ID] = edgeRec{edge: edge, seq: t.data.next()}
	return edge, nil
}

func (t *txn) DeleteEdge(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	if err := t.check(ctx, "DeleteEdge"); err != nil {
		return false, err
	}
	r, ok := t.data.edges[id]
	if !ok || r.edge.TenantID != tenantID {
		return false, nil
	}
	delete(t.data.edges, id)
	return true, nil
}

func (t *txn) Outgoing(ctx context.Context, tenantID, nodeID uuid.UUID) ([]common.Neighbor, error) {
	if err := t.check(ctx, "Outgoing"); err != nil {
		return nil, err
	}
	return t.neighbors(tenantID, func(e common.Edge) (uuid.UUID, bool) {
		return e.TargetID, e.SourceID == nodeID
	}), nil
}

func (t *txn) Incoming(ctx context.Context, tenantID, nodeID uuid.UUID) ([]common.Neighbor, error) {
	if err := t.check(ctx, "Incoming"); err != nil {
		return nil, err
	}
	return t.neighbors(tenantID, func(e common.Edge) (uuid.UUID, bool) {
		return e.SourceID, e.TargetID == nodeID
	}), nil
}

func (t *txn) neighbors(tenantID uuid.UUID, match func(common.Edge) (uuid.UUID, bool)) []common.Neighbor {
	recs := make([]edgeRec, 0)
	for _, r := range t.data.edges {
		if r.edge.TenantID != tenantID {
			continue
		}
		if _, ok := match(r.edge); ok {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]common.Neighbor, 0, len(recs))
	for _, r := range recs {
		other, _ := match(r.edge)
		n, ok := t.data.nodes[other]
		if !ok {
			continue
		}
		out = append(out, common.Neighbor{Edge: r.edge, Node: copyNode(n.node)})
	}
	return out
}
