package pgx

import (
	"context"
	"errors"

	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/common"
	pgdb "github.com/panot-hq/edge-backend/pkg/db/pgx"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

func (s *txStore) GetNode(ctx context.Context, tenantID, id uuid.UUID) (common.Node, error) {
	n, err := s.q.GetNode(ctx, pgdb.GetNodeParams{TenantID: tenantID, ID: id})
	if err != nil {
		return common.Node{}, mapErr("get_node", err)
	}
	return toNode(n), nil
}

func (s *txStore) FindConceptByLabel(ctx context.Context, tenantID uuid.UUID, label string) (common.Node, error) {
	n, err := s.q.FindConceptByLabel(ctx, pgdb.FindConceptByLabelParams{TenantID: tenantID, Label: label})
	if err != nil {
		return common.Node{}, mapErr("find_concept", err)
	}
	return toNode(n), nil
}

func (s *txStore) CreateNode(ctx context.Context, node common.Node) (common.Node, error) {
	if node.ID == uuid.Nil {
		node.ID = uuid.New()
	}
	n, err := s.q.CreateNode(ctx, pgdb.CreateNodeParams{
		ID:        node.ID,
		TenantID:  node.TenantID,
		Kind:      string(node.Kind),
		Label:     node.Label,
		Category:  node.Category,
		Weight:    int32(node.Weight),
		Embedding: vectorPtr(node.Embedding),
	})
	if err != nil {
		// ON CONFLICT DO NOTHING returns no row for a duplicate concept
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Node{}, common.Conflict("create_node", err)
		}
		return common.Node{}, mapErr("create_node", err)
	}
	return toNode(n), nil
}

func (s *txStore) AdjustWeight(ctx context.Context, tenantID, id uuid.UUID, delta int) (int, error) {
	w, err := s.q.AdjustNodeWeight(ctx, pgdb.AdjustNodeWeightParams{
		TenantID: tenantID,
		ID:       id,
		Delta:    int32(delta),
	})
	if err != nil {
		return 0, mapErr("adjust_weight", err)
	}
	return int(w), nil
}

func (s *txStore) SetWeight(ctx context.Context, tenantID, id uuid.UUID, weight int) error {
	n, err := s.q.SetNodeWeight(ctx, pgdb.SetNodeWeightParams{TenantID: tenantID, ID: id, Weight: int32(weight)})
	return rowsOrNotFound("set_weight", n, err)
}

func (s *txStore) SetEmbedding(ctx context.Context, tenantID, id uuid.UUID, embedding []float32) error {
	n, err := s.q.SetNodeEmbedding(ctx, pgdb.SetNodeEmbeddingParams{
		TenantID:  tenantID,
		ID:        id,
		Embedding: pgvector.NewVector(embedding),
	})
	return rowsOrNotFound("set_embedding", n, err)
}

func (s *txStore) RenameNode(ctx context.Context, tenantID, id uuid.UUID, label string) error {
	n, err := s.q.RenameNode(ctx, pgdb.RenameNodeParams{TenantID: tenantID, ID: id, Label: label})
	return rowsOrNotFound("rename_node", n, err)
}

func (s *txStore) DeleteNode(ctx context.Context, tenantID, id uuid.UUID) error {
	n, err := s.q.DeleteNode(ctx, pgdb.DeleteNodeParams{TenantID: tenantID, ID: id})
	return rowsOrNotFound("delete_node", n, err)
}

func (s *txStore) SearchConcepts(
	ctx context.Context,
	tenantID uuid.UUID,
	query, category string,
	limit int,
) ([]common.Node, error) {
	rows, err := s.q.SearchConcepts(ctx, pgdb.SearchConceptsParams{
		TenantID: tenantID,
		Pattern:  store.EscapeLike(query),
		Category: category,
		Limit:    int32(limit),
	})
	if err != nil {
		return nil, mapErr("search_concepts", err)
	}
	out := make([]common.Node, 0, len(rows))
	for _, r := range rows {
		out = append(out, toNode(r))
	}
	return out, nil
}

func (s *txStore) SimilarConcepts(ctx context.Context, q store.SimilarityQuery) ([]common.SimilarNode, error) {
	if len(q.Vector) == 0 || q.Limit <= 0 {
		return nil, nil
	}
	rows, err := s.q.MatchConcepts(ctx, pgdb.MatchConceptsParams{
		TenantID:      q.TenantID,
		Embedding:     pgvector.NewVector(q.Vector),
		MinSimilarity: q.MinSimilarity,
		ExcludeIDs:    util.IDStrings(q.ExcludeIDs),
		Limit:         int32(q.Limit),
	})
	if err != nil {
		return nil, mapErr("similar_concepts", err)
	}
	out := make([]common.SimilarNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, common.SimilarNode{Node: toNode(r.Node), Similarity: r.Similarity})
	}
	return out, nil
}

func (s *txStore) WeightDrift(ctx context.Context, tenantID uuid.UUID) ([]store.WeightDrift, error) {
	rows, err := s.q.ListWeightDrift(ctx, tenantID)
	if err != nil {
		return nil, mapErr("weight_drift", err)
	}
	out := make([]store.WeightDrift, 0, len(rows))
	for _, r := range rows {
		out = append(out, store.WeightDrift{
			NodeID:   r.ID,
			Label:    r.Label,
			Category: r.Category,
			Weight:   int(r.Weight),
			InDegree: int(r.InDegree),
		})
	}
	return out, nil
}
