package graph

import (
	"context"
	"errors"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/metrics"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

type DeleteEdgeRequest struct {
	TenantID                uuid.UUID
	EdgeID                  uuid.UUID
	SourceNodeID            uuid.UUID
	Mode                    common.Mode
	SkipSummaryRegeneration bool
}

type DeleteNodeRequest struct {
	TenantID uuid.UUID
	NodeID   uuid.UUID
	// SourceNodeID, when set, must be connected to NodeID.
	SourceNodeID            uuid.UUID
	Mode                    common.Mode
	SkipSummaryRegeneration bool
}

type DeleteResult struct {
	Deleted            bool        `json:"deleted"`
	CollectedNodes     []uuid.UUID `json:"collected_nodes"`
	SummaryRegenerated bool        `json:"summary_regenerated"`
	SummaryError       string      `json:"summary_error,omitempty"`
}

// DeleteEdge removes an edge leaving SourceNodeID and releases the reference
// it held on its target. Deleting an edge that no longer exists succeeds with
// Deleted set to false.
func (e *Engine) DeleteEdge(ctx context.Context, req DeleteEdgeRequest) (*DeleteResult, error) {
	const op = "delete_edge"
	if err := req.Mode.CheckMutable(op); err != nil {
		return nil, err
	}
	if err := requireID(op, "tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireID(op, "edge_id", req.EdgeID); err != nil {
		return nil, err
	}
	if err := requireID(op, "source_node_id", req.SourceNodeID); err != nil {
		return nil, err
	}

	result := &DeleteResult{CollectedNodes: []uuid.UUID{}}
	err := e.locker.WithTenantLock(ctx, req.TenantID, func(ctx context.Context) error {
		var source common.Node
		released := 0
		err := e.store.WithTx(ctx, func(tx store.Tx) error {
			result.Deleted = false
			result.CollectedNodes = result.CollectedNodes[:0]

			var err error
			source, err = tx.GetNode(ctx, req.TenantID, req.SourceNodeID)
			if err != nil {
				return err
			}
			edge, err := tx.GetEdge(ctx, req.TenantID, req.EdgeID)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if edge.SourceID != req.SourceNodeID {
				return common.NotFound(op, "edge does not leave the given source node")
			}

			gc := newCollector(tx, req.TenantID)
			deleted, err := gc.releaseEdge(ctx, edge)
			if err != nil {
				return err
			}
			result.Deleted = deleted
			result.CollectedNodes = append(result.CollectedNodes, gc.collected...)
			released = gc.released
			return nil
		})
		if err != nil {
			return err
		}

		if result.Deleted {
			recordCollection(released, result.CollectedNodes)
			logger.Debug("[Engine] Deleted edge",
				"tenant", req.TenantID, "edge", req.EdgeID, "collected", len(result.CollectedNodes))
		}
		if !result.Deleted || req.Mode.SkipSummary(req.SkipSummaryRegeneration) {
			return nil
		}
		result.SummaryRegenerated, result.SummaryError = e.regenerate(ctx, source)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteNode deletes a concept. Its outgoing edges are released like
// DeleteEdge releases them; its incoming edges go with the node.
func (e *Engine) DeleteNode(ctx context.Context, req DeleteNodeRequest) (*DeleteResult, error) {
	const op = "delete_node"
	if err := req.Mode.CheckMutable(op); err != nil {
		return nil, err
	}
	if err := requireID(op, "tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireID(op, "node_id", req.NodeID); err != nil {
		return nil, err
	}

	result := &DeleteResult{CollectedNodes: []uuid.UUID{}}
	err := e.locker.WithTenantLock(ctx, req.TenantID, func(ctx context.Context) error {
		var source common.Node
		released := 0
		err := e.store.WithTx(ctx, func(tx store.Tx) error {
			result.CollectedNodes = result.CollectedNodes[:0]

			node, err := tx.GetNode(ctx, req.TenantID, req.NodeID)
			if err != nil {
				return err
			}
			if !node.IsConcept() {
				return common.Validation(op, "only concept nodes can be deleted")
			}
			if req.SourceNodeID != uuid.Nil {
				source, err = tx.GetNode(ctx, req.TenantID, req.SourceNodeID)
				if err != nil {
					return err
				}
				_, linked, err := tx.EdgeBetween(ctx, req.TenantID, req.SourceNodeID, req.NodeID)
				if err != nil {
					return err
				}
				if !linked {
					return common.NotFound(op, "node is not connected to the given source node")
				}
			}

			gc := newCollector(tx, req.TenantID)
			if err := gc.collect(ctx, node.ID); err != nil {
				return err
			}
			result.CollectedNodes = append(result.CollectedNodes, gc.collected...)
			released = gc.released
			return nil
		})
		if err != nil {
			return err
		}
		result.Deleted = true
		recordCollection(released, result.CollectedNodes)

		if req.SourceNodeID == uuid.Nil || req.Mode.SkipSummary(req.SkipSummaryRegeneration) {
			return nil
		}
		result.SummaryRegenerated, result.SummaryError = e.regenerate(ctx, source)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func recordCollection(released int, collected []uuid.UUID) {
	if released > 0 {
		metrics.Edges.WithLabelValues(metrics.EdgeDeleted).Add(float64(released))
	}
	if len(collected) > 0 {
		metrics.NodesCollected.Add(float64(len(collected)))
	}
}

// collector releases edges with reference accounting and deletes the
// concepts that end up unreferenced.
type collector struct {
	tx        store.Tx
	tenantID  uuid.UUID
	visited   map[uuid.UUID]struct{}
	collected []uuid.UUID
	released  int
}

func newCollector(tx store.Tx, tenantID uuid.UUID) *collector {
	return &collector{tx: tx, tenantID: tenantID, visited: map[uuid.UUID]struct{}{}}
}

// releaseEdge deletes edge and decrements its concept target, collecting the
// target when its weight drops to zero.
func (c *collector) releaseEdge(ctx context.Context, edge common.Edge) (bool, error) {
	deleted, err := c.tx.DeleteEdge(ctx, c.tenantID, edge.ID)
	if err != nil || !deleted {
		return false, err
	}
	c.released++

	target, err := c.tx.GetNode(ctx, c.tenantID, edge.TargetID)
	if errors.Is(err, common.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	if !target.IsConcept() {
		return true, nil
	}
	if _, done := c.visited[target.ID]; done {
		return true, nil
	}

	weight, err := c.tx.AdjustWeight(ctx, c.tenantID, target.ID, -1)
	if err != nil {
		return true, err
	}
	if weight <= 0 {
		return true, c.collect(ctx, target.ID)
	}
	return true, nil
}

// collect deletes a node after releasing its outgoing edges.
func (c *collector) collect(ctx context.Context, nodeID uuid.UUID) error {
	if _, done := c.visited[nodeID]; done {
		return nil
	}
	c.visited[nodeID] = struct{}{}

	outgoing, err := c.tx.Outgoing(ctx, c.tenantID, nodeID)
	if err != nil {
		return err
	}
	for _, n := range outgoing {
		if _, err := c.releaseEdge(ctx, n.Edge); err != nil {
			return err
		}
	}
	if err := c.tx.DeleteNode(ctx, c.tenantID, nodeID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	c.collected = append(c.collected, nodeID)
	return nil
}
