package graph

import (
	"context"
	"errors"
	"time"

	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/metrics"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

type ConnectRequest struct {
	TenantID                uuid.UUID
	SourceNodeID            uuid.UUID
	Items                   []common.Item
	Mode                    common.Mode
	SkipSummaryRegeneration bool
}

type ItemStatus string

const (
	ItemConnected        ItemStatus = "connected"
	ItemAlreadyConnected ItemStatus = "already_connected"
	ItemFailed           ItemStatus = "failed"
)

type ItemReport struct {
	Index        int           `json:"index"`
	Label        string        `json:"label"`
	Category     string        `json:"category"`
	RelationType string        `json:"relation_type"`
	Status       ItemStatus    `json:"status"`
	Match        Match         `json:"match,omitempty"`
	Similarity   float64       `json:"similarity,omitempty"`
	NodeID       uuid.UUID     `json:"node_id,omitempty"`
	EdgeID       uuid.UUID     `json:"edge_id,omitempty"`
	Created      bool          `json:"created"`
	Related      []RelatedLink `json:"related,omitempty"`
	Error        string        `json:"error,omitempty"`

	err error
}

// Err returns the failure of a failed item.
func (r ItemReport) Err() error {
	return r.err
}

type ConnectReport struct {
	TenantID           uuid.UUID    `json:"tenant_id"`
	SourceNodeID       uuid.UUID    `json:"source_node_id"`
	Processed          int          `json:"processed"`
	NodesCreated       int          `json:"nodes_created"`
	EdgesConnected     int          `json:"edges_connected"`
	RelatedEdges       int          `json:"related_edges"`
	ExactMatches       int          `json:"exact_matches"`
	SemanticMatches    int          `json:"semantic_matches"`
	Failed             int          `json:"failed"`
	Items              []ItemReport `json:"items"`
	SummaryRegenerated bool         `json:"summary_regenerated"`
	SummaryError       string       `json:"summary_error,omitempty"`
}

// ConnectItems resolves every item and links it from the source node. Items
// are committed one transaction each; a failing item is reported and the
// batch continues. The contact summary is regenerated once at the end unless
// the mode or the request suppresses it.
func (e *Engine) ConnectItems(ctx context.Context, req ConnectRequest) (*ConnectReport, error) {
	const op = "connect_items"
	if err := req.Mode.CheckMutable(op); err != nil {
		return nil, err
	}
	if err := requireID(op, "tenant_id", req.TenantID); err != nil {
		return nil, err
	}
	if err := requireID(op, "source_node_id", req.SourceNodeID); err != nil {
		return nil, err
	}

	report := &ConnectReport{
		TenantID:     req.TenantID,
		SourceNodeID: req.SourceNodeID,
		Items:        make([]ItemReport, 0, len(req.Items)),
	}

	start := time.Now()
	defer func() { metrics.BatchDuration.Observe(time.Since(start).Seconds()) }()

	err := e.locker.WithTenantLock(ctx, req.TenantID, func(ctx context.Context) error {
		source, err := e.loadNode(ctx, req.TenantID, req.SourceNodeID)
		if err != nil {
			return err
		}

		normalized := make([]common.Item, len(req.Items))
		valid := make([]common.Item, 0, len(req.Items))
		itemErrs := make([]error, len(req.Items))
		for i, raw := range req.Items {
			normalized[i], itemErrs[i] = raw.Normalize()
			if itemErrs[i] == nil {
				valid = append(valid, normalized[i])
			}
		}

		memo := NewMemo(e.embedder, e.cfg.EmbedParallel)
		if err := memo.Prefetch(ctx, valid); err != nil {
			return err
		}

		for i, item := range normalized {
			ir := ItemReport{
				Index:        i,
				Label:        item.Label,
				Category:     item.Category,
				RelationType: item.RelationType,
			}
			if itemErrs[i] == nil {
				ir, itemErrs[i] = e.connectItem(ctx, memo, source, item, ir)
			}
			if itemErrs[i] != nil {
				if errors.Is(itemErrs[i], context.Canceled) || errors.Is(itemErrs[i], context.DeadlineExceeded) {
					return itemErrs[i]
				}
				ir.Status = ItemFailed
				ir.Error = itemErrs[i].Error()
				ir.err = itemErrs[i]
				metrics.BatchItemFailures.Inc()
				logger.Warn("[Engine] Item failed",
					"tenant", req.TenantID, "source", req.SourceNodeID, "label", item.Label, "err", itemErrs[i])
			}
			report.add(ir)
		}

		if report.Processed == report.Failed || req.Mode.SkipSummary(req.SkipSummaryRegeneration) {
			return nil
		}
		report.SummaryRegenerated, report.SummaryError = e.regenerate(ctx, source)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("[Engine] Connected items",
		"tenant", req.TenantID,
		"source", req.SourceNodeID,
		"processed", report.Processed,
		"created", report.NodesCreated,
		"connected", report.EdgesConnected,
		"related", report.RelatedEdges,
		"failed", report.Failed,
	)
	return report, nil
}

func (r *ConnectReport) add(ir ItemReport) {
	r.Processed++
	r.Items = append(r.Items, ir)
	if ir.Status == ItemFailed {
		r.Failed++
		return
	}
	switch ir.Match {
	case MatchExact:
		r.ExactMatches++
	case MatchSemantic:
		r.SemanticMatches++
	}
	if ir.Created {
		r.NodesCreated++
	}
	if ir.Status == ItemConnected {
		r.EdgesConnected++
	}
	r.RelatedEdges += len(ir.Related)
}

// connectItem commits one item in its own transaction, retrying when a
// uniqueness race is lost.
func (e *Engine) connectItem(
	ctx context.Context,
	memo *Memo,
	source common.Node,
	item common.Item,
	base ItemReport,
) (ItemReport, error) {
	vec, vecErr := memo.Get(ctx, item)

	var out ItemReport
	err := util.RetryIf(ctx, 1+e.cfg.ConflictRetries, 10*time.Millisecond, isConflict, func(ctx context.Context) error {
		out = base
		return e.store.WithTx(ctx, func(tx store.Tx) error {
			res, err := e.ResolveConcept(ctx, tx, ResolveRequest{
				TenantID: source.TenantID,
				SourceID: source.ID,
				Label:    item.Label,
				Category: item.Category,
				Vector:   vec,
			})
			if errors.Is(err, ErrNoVector) && vecErr != nil {
				return vecErr
			}
			if err != nil {
				return err
			}

			out.NodeID = res.Node.ID
			out.Match = res.Match
			out.Similarity = res.Similarity
			out.Created = res.Created
			out.Related = res.Related

			if res.Node.ID == source.ID {
				out.Status = ItemAlreadyConnected
				return nil
			}
			if existing, linked, err := tx.EdgeBetween(ctx, source.TenantID, source.ID, res.Node.ID); err != nil {
				return err
			} else if linked {
				out.Status = ItemAlreadyConnected
				out.EdgeID = existing.ID
				return nil
			}

			edge, err := tx.CreateEdge(ctx, common.Edge{
				ID:           uuid.New(),
				TenantID:     source.TenantID,
				SourceID:     source.ID,
				TargetID:     res.Node.ID,
				RelationType: item.RelationType,
			})
			if err != nil {
				return err
			}
			if !res.Created {
				if _, err := tx.AdjustWeight(ctx, source.TenantID, res.Node.ID, 1); err != nil {
					return err
				}
			}
			out.Status = ItemConnected
			out.EdgeID = edge.ID
			return nil
		})
	})
	if err != nil {
		return base, err
	}

	metrics.ConceptsResolved.WithLabelValues(string(out.Match)).Inc()
	if out.Status == ItemConnected {
		metrics.Edges.WithLabelValues(metrics.EdgeConnected).Inc()
	}
	if len(out.Related) > 0 {
		metrics.Edges.WithLabelValues(metrics.EdgeRelated).Add(float64(len(out.Related)))
	}
	return out, nil
}

func isConflict(err error) bool {
	return errors.Is(err, common.ErrConflict)
}

func (e *Engine) loadNode(ctx context.Context, tenantID, id uuid.UUID) (common.Node, error) {
	var node common.Node
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		node, err = tx.GetNode(ctx, tenantID, id)
		return err
	})
	return node, err
}

// regenerate refreshes the summary of the contact mirrored by node. Failures
// are logged and returned as text; they never fail the mutation.
func (e *Engine) regenerate(ctx context.Context, node common.Node) (bool, string) {
	if e.summary == nil || node.Kind != common.KindContact {
		return false, ""
	}
	if err := e.summary.Regenerate(ctx, node.TenantID, node.ID); err != nil {
		metrics.SummaryRegenerations.WithLabelValues("error").Inc()
		logger.Error("[Engine] Summary regeneration failed", "tenant", node.TenantID, "node", node.ID, "err", err)
		return false, err.Error()
	}
	metrics.SummaryRegenerations.WithLabelValues("ok").Inc()
	return true, ""
}

// RegenerateSummary refreshes the summary of the contact mirrored by
// mirrorNodeID under the tenant lock. Callers that batch several mutations
// with regeneration suppressed use it to refresh once at the end.
func (e *Engine) RegenerateSummary(ctx context.Context, tenantID, mirrorNodeID uuid.UUID) (bool, string, error) {
	if err := requireID("regenerate_summary", "tenant_id", tenantID); err != nil {
		return false, "", err
	}
	if err := requireID("regenerate_summary", "mirror_node_id", mirrorNodeID); err != nil {
		return false, "", err
	}
	var (
		ok  bool
		msg string
	)
	err := e.locker.WithTenantLock(ctx, tenantID, func(ctx context.Context) error {
		node, err := e.loadNode(ctx, tenantID, mirrorNodeID)
		if err != nil {
			return err
		}
		ok, msg = e.regenerate(ctx, node)
		return nil
	})
	return ok, msg, err
}
