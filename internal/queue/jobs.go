package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/panot-hq/edge-backend/pkg/common"

	"github.com/google/uuid"
)

type JobType string

const (
	JobDetailsUpdate JobType = "DETAILS_UPDATE"
	JobInteraction   JobType = "INTERACTION_TRANSCRIPT"
	JobNewContact    JobType = "NEW_CONTACT"
	JobQuery         JobType = "QUERY"
)

// Mode returns the graph mode a job of type t runs in.
func (t JobType) Mode() (common.Mode, error) {
	switch JobType(strings.ToUpper(strings.TrimSpace(string(t)))) {
	case JobDetailsUpdate:
		return common.ModeManualEditSync, nil
	case JobInteraction, JobNewContact:
		return common.ModeActionable, nil
	case JobQuery:
		return common.ModeConversational, nil
	}
	return 0, common.Validation("job_type", fmt.Sprintf("unknown job type %q", t))
}

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCanceled   JobStatus = "canceled"
)

type OpKind string

const (
	OpConnect    OpKind = "connect"
	OpDeleteEdge OpKind = "delete_edge"
	OpDeleteNode OpKind = "delete_node"
)

// Operation is one already-extracted change to the contact's subgraph.
type Operation struct {
	Op     OpKind        `json:"op" validate:"required,oneof=connect delete_edge delete_node"`
	Items  []common.Item `json:"items,omitempty" validate:"omitempty,dive"`
	EdgeID uuid.UUID     `json:"edge_id,omitempty"`
	NodeID uuid.UUID     `json:"node_id,omitempty"`
}

type Payload struct {
	InteractionID *uuid.UUID  `json:"interaction_id,omitempty"`
	Operations    []Operation `json:"operations" validate:"dive"`
	// SkipSummaryRegeneration suppresses the summary refresh for this job.
	SkipSummaryRegeneration bool `json:"skip_summary_regeneration,omitempty"`
}

func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, common.Validation("payload", err.Error())
	}
	return p, nil
}

type Job struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	ContactID    uuid.UUID       `json:"contact_id"`
	Type         JobType         `json:"job_type"`
	Payload      json.RawMessage `json:"payload"`
	Status       JobStatus       `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
}

// JobStore persists graph jobs. ClaimNext hands out the oldest pending job
// of a tenant and marks it processing; ok is false when none is left.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) (Job, error)
	GetJob(ctx context.Context, tenantID, id uuid.UUID) (Job, error)
	ClaimNext(ctx context.Context, tenantID uuid.UUID) (job Job, ok bool, err error)
	Complete(ctx context.Context, id uuid.UUID) error
	Fail(ctx context.Context, id uuid.UUID, msg string) error
	ResetStale(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error)
	PendingTenants(ctx context.Context) ([]uuid.UUID, error)
	MarkInteractionProcessed(ctx context.Context, tenantID, interactionID uuid.UUID) error
}

// Enqueue validates job, stores it as pending and wakes a worker for its
// tenant. A failed wake-up is logged by the caller's recovery path: the row
// is picked up on the next drain of the tenant.
func Enqueue(ctx context.Context, jobs JobStore, pub Publisher, job Job) (Job, error) {
	if job.TenantID == uuid.Nil || job.ContactID == uuid.Nil {
		return Job{}, common.Validation("enqueue", "tenant_id and contact_id are required")
	}
	if _, err := job.Type.Mode(); err != nil {
		return Job{}, err
	}
	if _, err := DecodePayload(job.Payload); err != nil {
		return Job{}, err
	}
	job.Type = JobType(strings.ToUpper(strings.TrimSpace(string(job.Type))))
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if len(job.Payload) == 0 {
		job.Payload = json.RawMessage(`{}`)
	}

	created, err := jobs.CreateJob(ctx, job)
	if err != nil {
		return Job{}, err
	}
	if pub != nil {
		if err := PublishWake(ctx, pub, created.TenantID); err != nil {
			return created, fmt.Errorf("wake worker: %w", err)
		}
	}
	return created, nil
}
