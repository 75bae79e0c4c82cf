package graph

import (
	"context"
	"errors"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

// Match tells how a concept was resolved.
type Match string

const (
	MatchExact    Match = "exact"
	MatchSemantic Match = "semantic"
	MatchCreated  Match = "created"
)

// ErrNoVector is returned by ResolveConcept when no concept has the label
// and the request carries no vector to search with.
var ErrNoVector = common.Validation("resolve_concept", "query vector is required when no concept has the label")

type ResolveRequest struct {
	TenantID uuid.UUID
	// SourceID is the node the concept is being attached to. Concepts
	// already linked from it never receive RELATED_TO edges.
	SourceID uuid.UUID
	Label    string
	Category string
	Vector   []float32
}

// RelatedLink is a RELATED_TO edge created while resolving a concept.
type RelatedLink struct {
	EdgeID     uuid.UUID `json:"edge_id"`
	NodeID     uuid.UUID `json:"node_id"`
	Label      string    `json:"label"`
	Similarity float64   `json:"similarity"`
}

type Resolution struct {
	Node       common.Node
	Created    bool
	Match      Match
	Similarity float64
	Related    []RelatedLink
}

// ResolveConcept finds or creates the concept for label within tx.
//
// A created concept starts with weight 1, which accounts for the edge the
// caller adds to it in the same transaction. A reused concept keeps its
// weight; the caller increments it once the new edge is inserted. Every
// RELATED_TO edge created here increments the weight of its target.
func (e *Engine) ResolveConcept(ctx context.Context, tx store.Tx, req ResolveRequest) (Resolution, error) {
	if err := requireID("resolve_concept", "tenant_id", req.TenantID); err != nil {
		return Resolution{}, err
	}
	if req.Label == "" || req.Category == "" {
		return Resolution{}, common.Validation("resolve_concept", "label and category are required")
	}

	exact, err := tx.FindConceptByLabel(ctx, req.TenantID, req.Label)
	switch {
	case err == nil:
		if exact.Embedding == nil && len(req.Vector) > 0 {
			if err := tx.SetEmbedding(ctx, req.TenantID, exact.ID, req.Vector); err != nil {
				return Resolution{}, err
			}
			exact.Embedding = req.Vector
		}
		return Resolution{Node: exact, Match: MatchExact, Similarity: 1}, nil
	case !errors.Is(err, common.ErrNotFound):
		return Resolution{}, err
	}

	if len(req.Vector) == 0 {
		return Resolution{}, ErrNoVector
	}

	query := store.SimilarityQuery{
		TenantID:      req.TenantID,
		Vector:        req.Vector,
		MinSimilarity: e.cfg.RelatedThreshold,
		Limit:         e.cfg.SearchLimit,
	}
	// Concepts already linked from the source stay searchable: they may
	// still be the identity match.
	if req.SourceID != uuid.Nil {
		query.ExcludeIDs = []uuid.UUID{req.SourceID}
	}
	hits, err := tx.SimilarConcepts(ctx, query)
	if err != nil {
		return Resolution{}, common.Upstream("similarity_search", err)
	}

	var res Resolution
	if len(hits) > 0 && hits[0].Similarity >= e.cfg.IdentityThreshold {
		res = Resolution{Node: hits[0].Node, Match: MatchSemantic, Similarity: hits[0].Similarity}
		logger.Debug("[Engine] Reusing similar concept",
			"tenant", req.TenantID, "label", req.Label, "match", res.Node.Label, "similarity", res.Similarity)
	} else {
		node, err := tx.CreateNode(ctx, common.Node{
			ID:        uuid.New(),
			TenantID:  req.TenantID,
			Kind:      common.KindConcept,
			Label:     req.Label,
			Category:  req.Category,
			Weight:    1,
			Embedding: req.Vector,
		})
		if err != nil {
			return Resolution{}, err
		}
		res = Resolution{Node: node, Created: true, Match: MatchCreated}
	}

	for _, hit := range hits {
		if hit.Similarity >= e.cfg.IdentityThreshold || hit.Similarity < e.cfg.RelatedThreshold {
			continue
		}
		if hit.Node.ID == res.Node.ID || hit.Node.ID == req.SourceID {
			continue
		}
		link, ok, err := e.relate(ctx, tx, req, res.Node, hit)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			res.Related = append(res.Related, link)
		}
	}
	return res, nil
}

func (e *Engine) relate(
	ctx context.Context,
	tx store.Tx,
	req ResolveRequest,
	resolved common.Node,
	hit common.SimilarNode,
) (RelatedLink, bool, error) {
	if req.SourceID != uuid.Nil {
		if _, linked, err := tx.EdgeBetween(ctx, req.TenantID, req.SourceID, hit.Node.ID); err != nil || linked {
			return RelatedLink{}, false, err
		}
	}
	if _, linked, err := tx.EdgeBetween(ctx, req.TenantID, resolved.ID, hit.Node.ID); err != nil || linked {
		return RelatedLink{}, false, err
	}

	edge, err := tx.CreateEdge(ctx, common.Edge{
		ID:           uuid.New(),
		TenantID:     req.TenantID,
		SourceID:     resolved.ID,
		TargetID:     hit.Node.ID,
		RelationType: common.RelatedTo,
	})
	if errors.Is(err, common.ErrConflict) {
		return RelatedLink{}, false, nil
	}
	if err != nil {
		return RelatedLink{}, false, err
	}
	if _, err := tx.AdjustWeight(ctx, req.TenantID, hit.Node.ID, 1); err != nil {
		return RelatedLink{}, false, err
	}
	return RelatedLink{
		EdgeID:     edge.ID,
		NodeID:     hit.Node.ID,
		Label:      hit.Node.Label,
		Similarity: hit.Similarity,
	}, true, nil
}
