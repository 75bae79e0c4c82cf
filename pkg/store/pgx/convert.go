package pgx

import (
	"github.com/panot-hq/edge-backend/pkg/common"
	pgdb "github.com/panot-hq/edge-backend/pkg/db/pgx"

	"github.com/pgvector/pgvector-go"
)

func toNode(n pgdb.Node) common.Node {
	out := common.Node{
		ID:        n.ID,
		TenantID:  n.TenantID,
		Kind:      common.NodeKind(n.Kind),
		Label:     n.Label,
		Category:  n.Category,
		Weight:    int(n.Weight),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.Embedding != nil {
		out.Embedding = n.Embedding.Slice()
	}
	return out
}

func toEdge(e pgdb.Edge) common.Edge {
	return common.Edge{
		ID:           e.ID,
		TenantID:     e.TenantID,
		SourceID:     e.SourceID,
		TargetID:     e.TargetID,
		RelationType: e.RelationType,
		CreatedAt:    e.CreatedAt,
	}
}

func toNeighbors(rows []pgdb.EdgeNodeRow) []common.Neighbor {
	out := make([]common.Neighbor, 0, len(rows))
	for _, r := range rows {
		out = append(out, common.Neighbor{Edge: toEdge(r.Edge), Node: toNode(r.Node)})
	}
	return out
}

func toContact(c pgdb.Contact) common.Contact {
	return common.Contact{
		ID:               c.ID,
		TenantID:         c.TenantID,
		NodeID:           c.NodeID,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Summary:          c.Summary,
		SummaryUpdatedAt: c.SummaryUpdatedAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func vectorPtr(v []float32) *pgvector.Vector {
	if len(v) == 0 {
		return nil
	}
	vec := pgvector.NewVector(v)
	return &vec
}
