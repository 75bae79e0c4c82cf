package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panot-hq/edge-backend/pkg/common"
	pgdb "github.com/panot-hq/edge-backend/pkg/db/pgx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgJobStore keeps jobs in the graph_jobs table.
type PgJobStore struct {
	q *pgdb.Queries
}

func NewPgJobStore(conn pgdb.DBTX) *PgJobStore {
	return &PgJobStore{q: pgdb.New(conn)}
}

func toJob(j pgdb.GraphJob) Job {
	return Job{
		ID:           j.ID,
		TenantID:     j.TenantID,
		ContactID:    j.ContactID,
		Type:         JobType(j.JobType),
		Payload:      j.Payload,
		Status:       JobStatus(j.Status),
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		ProcessedAt:  j.ProcessedAt,
	}
}

func (s *PgJobStore) CreateJob(ctx context.Context, job Job) (Job, error) {
	row, err := s.q.CreateJob(ctx, pgdb.CreateJobParams{
		ID:        job.ID,
		TenantID:  job.TenantID,
		ContactID: job.ContactID,
		JobType:   string(job.Type),
		Payload:   job.Payload,
	})
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}
	return toJob(row), nil
}

func (s *PgJobStore) GetJob(ctx context.Context, tenantID, id uuid.UUID) (Job, error) {
	row, err := s.q.GetJob(ctx, pgdb.GetJobParams{TenantID: tenantID, ID: id})
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, common.NotFound("get_job", "job not found")
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	return toJob(row), nil
}

func (s *PgJobStore) ClaimNext(ctx context.Context, tenantID uuid.UUID) (Job, bool, error) {
	row, err := s.q.ClaimNextJob(ctx, tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, false, nil
	}
	if err != nil {
		return Job{}, false, fmt.Errorf("claim job: %w", err)
	}
	return toJob(row), true, nil
}

func (s *PgJobStore) Complete(ctx context.Context, id uuid.UUID) error {
	return s.q.CompleteJob(ctx, id)
}

func (s *PgJobStore) Fail(ctx context.Context, id uuid.UUID, msg string) error {
	return s.q.FailJob(ctx, pgdb.FailJobParams{ID: id, ErrorMessage: msg})
}

func (s *PgJobStore) ResetStale(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	return s.q.ResetStaleJobs(ctx, olderThan.Milliseconds())
}

func (s *PgJobStore) PendingTenants(ctx context.Context) ([]uuid.UUID, error) {
	return s.q.ListPendingTenants(ctx)
}

func (s *PgJobStore) MarkInteractionProcessed(ctx context.Context, tenantID, interactionID uuid.UUID) error {
	n, err := s.q.MarkInteractionProcessed(ctx, pgdb.MarkInteractionProcessedParams{TenantID: tenantID, ID: interactionID})
	if err != nil {
		return fmt.Errorf("mark interaction processed: %w", err)
	}
	if n == 0 {
		return common.NotFound("mark_interaction_processed", "interaction not found")
	}
	return nil
}
