package graph

import (
	"context"

	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

const maxRepairPasses = 10

type RepairReport struct {
	Adjusted       int                 `json:"adjusted"`
	CollectedNodes []uuid.UUID         `json:"collected_nodes"`
	Drift          []store.WeightDrift `json:"drift"`
}

// AuditWeights lists the concepts whose weight differs from their in-degree.
func (e *Engine) AuditWeights(ctx context.Context, tenantID uuid.UUID) ([]store.WeightDrift, error) {
	if err := requireID("audit_weights", "tenant_id", tenantID); err != nil {
		return nil, err
	}
	var drift []store.WeightDrift
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		drift, err = tx.WeightDrift(ctx, tenantID)
		return err
	})
	if drift == nil {
		drift = []store.WeightDrift{}
	}
	return drift, err
}

// RepairWeights sets every drifting weight to the in-degree and collects the
// concepts left without references. Collecting a concept releases its own
// edges, so the audit repeats until it comes back clean.
func (e *Engine) RepairWeights(ctx context.Context, tenantID uuid.UUID) (*RepairReport, error) {
	if err := requireID("repair_weights", "tenant_id", tenantID); err != nil {
		return nil, err
	}
	report := &RepairReport{CollectedNodes: []uuid.UUID{}, Drift: []store.WeightDrift{}}

	err := e.locker.WithTenantLock(ctx, tenantID, func(ctx context.Context) error {
		released := 0
		err := e.store.WithTx(ctx, func(tx store.Tx) error {
			report.Adjusted = 0
			report.CollectedNodes = report.CollectedNodes[:0]
			report.Drift = report.Drift[:0]

			gc := newCollector(tx, tenantID)
			for pass := 0; pass < maxRepairPasses; pass++ {
				drift, err := tx.WeightDrift(ctx, tenantID)
				if err != nil {
					return err
				}
				if len(drift) == 0 {
					break
				}
				report.Drift = append(report.Drift, drift...)
				for _, d := range drift {
					if _, gone := gc.visited[d.NodeID]; gone {
						continue
					}
					if d.InDegree == 0 {
						if err := gc.collect(ctx, d.NodeID); err != nil {
							return err
						}
						continue
					}
					if err := tx.SetWeight(ctx, tenantID, d.NodeID, d.InDegree); err != nil {
						return err
					}
					report.Adjusted++
				}
			}
			report.CollectedNodes = append(report.CollectedNodes, gc.collected...)
			released = gc.released
			return nil
		})
		if err != nil {
			return err
		}
		recordCollection(released, report.CollectedNodes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if report.Adjusted > 0 || len(report.CollectedNodes) > 0 {
		logger.Warn("[Engine] Repaired weight drift",
			"tenant", tenantID, "adjusted", report.Adjusted, "collected", len(report.CollectedNodes))
	}
	return report, nil
}
