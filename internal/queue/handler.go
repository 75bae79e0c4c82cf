package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/graph"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/metrics"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// Processor drains the pending jobs of a tenant into the graph engine.
type Processor struct {
	engine   *graph.Engine
	jobs     JobStore
	locker   graph.Locker
	validate *validator.Validate
}

// NewProcessor serialises drains per tenant with locker. The locker must not
// share keys with the engine's own tenant lock.
func NewProcessor(engine *graph.Engine, jobs JobStore, locker graph.Locker) *Processor {
	if locker == nil {
		locker = graph.NewLocalLocker()
	}
	return &Processor{
		engine:   engine,
		jobs:     jobs,
		locker:   locker,
		validate: validator.New(),
	}
}

// HandleMessage decodes a wake-up delivery and drains its tenant.
func (p *Processor) HandleMessage(ctx context.Context, body []byte) error {
	var msg WakeMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode wake message: %w", err)
	}
	if msg.TenantID == uuid.Nil {
		return errors.New("wake message without tenant_id")
	}
	_, err := p.DrainTenant(ctx, msg.TenantID)
	return err
}

// DrainTenant processes pending jobs of tenantID one at a time, oldest
// first, until none remain. A failing job is marked failed and the drain
// continues; only store and lock errors are returned.
func (p *Processor) DrainTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	processed := 0
	err := p.locker.WithTenantLock(ctx, tenantID, func(ctx context.Context) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			job, ok, err := p.jobs.ClaimNext(ctx, tenantID)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			processed++
			p.runJob(ctx, job)
		}
	})
	return processed, err
}

func (p *Processor) runJob(ctx context.Context, job Job) {
	start := time.Now()
	err := p.Process(ctx, job)

	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		logger.Error("[Queue] Job failed", "job", job.ID, "tenant", job.TenantID, "type", job.Type, "err", err)
		if ferr := p.jobs.Fail(ctx, job.ID, err.Error()); ferr != nil {
			logger.Error("[Queue] Failed to mark job failed", "job", job.ID, "err", ferr)
		}
	} else if cerr := p.jobs.Complete(ctx, job.ID); cerr != nil {
		logger.Error("[Queue] Failed to mark job completed", "job", job.ID, "err", cerr)
	}
	metrics.Jobs.WithLabelValues(string(job.Type), string(status)).Inc()
	logger.Info("[Queue] Job finished", "job", job.ID, "type", job.Type, "status", status, "duration", time.Since(start))
}

// Process applies the operations of one job against the contact's mirror
// node. Operations run with summary regeneration suppressed; the summary is
// refreshed once afterwards if any of them changed the graph.
func (p *Processor) Process(ctx context.Context, job Job) error {
	mode, err := job.Type.Mode()
	if err != nil {
		return err
	}
	payload, err := DecodePayload(job.Payload)
	if err != nil {
		return err
	}
	if err := p.validate.Struct(payload); err != nil {
		return common.Validation("payload", err.Error())
	}

	contact, err := p.engine.GetContact(ctx, job.TenantID, job.ContactID)
	if err != nil {
		return err
	}

	var (
		failures []error
		changed  bool
	)
	for i, op := range payload.Operations {
		opChanged, err := p.apply(ctx, job.TenantID, contact.NodeID, mode, op)
		changed = changed || opChanged
		if err != nil {
			failures = append(failures, fmt.Errorf("operation %d (%s): %w", i, op.Op, err))
		}
	}

	if changed && !mode.SkipSummary(payload.SkipSummaryRegeneration) {
		_, msg, err := p.engine.RegenerateSummary(ctx, job.TenantID, contact.NodeID)
		switch {
		case err != nil:
			failures = append(failures, fmt.Errorf("summary: %w", err))
		case msg != "":
			logger.Warn("[Queue] Summary not regenerated", "tenant", job.TenantID, "contact", job.ContactID, "err", msg)
		}
	}

	if job.Type == JobInteraction && payload.InteractionID != nil && len(failures) == 0 {
		if err := p.jobs.MarkInteractionProcessed(ctx, job.TenantID, *payload.InteractionID); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// apply runs op and reports whether it changed the graph.
func (p *Processor) apply(
	ctx context.Context,
	tenantID, sourceNodeID uuid.UUID,
	mode common.Mode,
	op Operation,
) (bool, error) {
	switch op.Op {
	case OpConnect:
		report, err := p.engine.ConnectItems(ctx, graph.ConnectRequest{
			TenantID:                tenantID,
			SourceNodeID:            sourceNodeID,
			Items:                   op.Items,
			Mode:                    mode,
			SkipSummaryRegeneration: true,
		})
		if err != nil {
			return false, err
		}
		changed := report.EdgesConnected+report.RelatedEdges > 0
		if report.Failed > 0 {
			errs := make([]error, 0, report.Failed)
			for _, item := range report.Items {
				if item.Status == graph.ItemFailed {
					errs = append(errs, fmt.Errorf("item %d %q: %w", item.Index, item.Label, item.Err()))
				}
			}
			return changed, errors.Join(errs...)
		}
		return changed, nil
	case OpDeleteEdge:
		res, err := p.engine.DeleteEdge(ctx, graph.DeleteEdgeRequest{
			TenantID:                tenantID,
			EdgeID:                  op.EdgeID,
			SourceNodeID:            sourceNodeID,
			Mode:                    mode,
			SkipSummaryRegeneration: true,
		})
		if err != nil {
			return false, err
		}
		return res.Deleted, nil
	case OpDeleteNode:
		res, err := p.engine.DeleteNode(ctx, graph.DeleteNodeRequest{
			TenantID:                tenantID,
			NodeID:                  op.NodeID,
			SourceNodeID:            sourceNodeID,
			Mode:                    mode,
			SkipSummaryRegeneration: true,
		})
		if err != nil {
			return false, err
		}
		return res.Deleted, nil
	}
	return false, common.Validation("job", fmt.Sprintf("unknown operation %q", op.Op))
}

// Consume feeds deliveries of queueName to the processor until ctx is done.
// Failed deliveries go through HandleFailure.
func (p *Processor) Consume(ctx context.Context, pub Publisher, queueName string, deliveries <-chan amqp091.Delivery) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", queueName)
			return
		case msg, ok := <-deliveries:
			if !ok {
				logger.Info("[Queue] Delivery channel closed", "queue", queueName)
				return
			}
			if err := p.HandleMessage(ctx, msg.Body); err != nil {
				logger.Error("[Queue] Error processing message", "queue", queueName, "err", err)
				HandleFailure(ctx, pub, msg, queueName)
				continue
			}
			if err := msg.Ack(false); err != nil {
				logger.Error("[Queue] Failed to ack message", "err", err)
			}
		}
	}
}
