package pgx

import (
	"context"
	"errors"

	"github.com/panot-hq/edge-backend/pkg/common"
	pgdb "github.com/panot-hq/edge-backend/pkg/db/pgx"

	"github.com/google/uuid"
	pgxv5 "github.com/jackc/pgx/v5"
)

func (s *txStore) GetEdge(ctx context.Context, tenantID, id uuid.UUID) (common.Edge, error) {
	e, err := s.q.GetEdge(ctx, pgdb.GetEdgeParams{TenantID: tenantID, ID: id})
	if err != nil {
		return common.Edge{}, mapErr("get_edge", err)
	}
	return toEdge(e), nil
}

func (s *txStore) EdgeBetween(ctx context.Context, tenantID, a, b uuid.UUID) (common.Edge, bool, error) {
	e, err := s.q.GetEdgeBetween(ctx, pgdb.GetEdgeBetweenParams{TenantID: tenantID, A: a, B: b})
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Edge{}, false, nil
	}
	if err != nil {
		return common.Edge{}, false, mapErr("edge_between", err)
	}
	return toEdge(e), true, nil
}

func (s *txStore) CreateEdge(ctx context.Context, edge common.Edge) (common.Edge, error) {
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	e, err := s.q.CreateEdge(ctx, pgdb.CreateEdgeParams{
		ID:           edge.ID,
		TenantID:     edge.TenantID,
		SourceID:     edge.SourceID,
		TargetID:     edge.TargetID,
		RelationType: edge.RelationType,
	})
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Edge{}, common.Conflict("create_edge", err)
	}
	if err != nil {
		return common.Edge{}, mapErr("create_edge", err)
	}
	return toEdge(e), nil
}

func (s *txStore) DeleteEdge(ctx context.Context, tenantID, id uuid.UUID) (bool, error) {
	n, err := s.q.DeleteEdge(ctx, pgdb.DeleteEdgeParams{TenantID: tenantID, ID: id})
	if err != nil {
		return false, mapErr("delete_edge", err)
	}
	return n > 0, nil
}

func (s *txStore) Outgoing(ctx context.Context, tenantID, nodeID uuid.UUID) ([]common.Neighbor, error) {
	rows, err := s.q.ListOutgoingEdges(ctx, pgdb.ListOutgoingEdgesParams{TenantID: tenantID, SourceID: nodeID})
	if err != nil {
		return nil, mapErr("outgoing_edges", err)
	}
	return toNeighbors(rows), nil
}

func (s *txStore) Incoming(ctx context.Context, tenantID, nodeID uuid.UUID) ([]common.Neighbor, error) {
	rows, err := s.q.ListIncomingEdges(ctx, pgdb.ListIncomingEdgesParams{TenantID: tenantID, TargetID: nodeID})
	if err != nil {
		return nil, mapErr("incoming_edges", err)
	}
	return toNeighbors(rows), nil
}
