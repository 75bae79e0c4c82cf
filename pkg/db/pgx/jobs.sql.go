package pgx

import (
	"context"

	"github.com/google/uuid"
)

const jobColumns = `id, tenant_id, contact_id, job_type, payload, status, error_message, created_at, updated_at, processed_at`

func scanJob(row interface{ Scan(...any) error }) (GraphJob, error) {
	var i GraphJob
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.ContactID,
		&i.JobType,
		&i.Payload,
		&i.Status,
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ProcessedAt,
	)
	return i, err
}

const createJob = `-- name: CreateJob :one
INSERT INTO graph_jobs (id, tenant_id, contact_id, job_type, payload)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + jobColumns + `
`

type CreateJobParams struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	ContactID uuid.UUID `json:"contact_id"`
	JobType   string    `json:"job_type"`
	Payload   []byte    `json:"payload"`
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) (GraphJob, error) {
	row := q.db.QueryRow(ctx, createJob,
		arg.ID,
		arg.TenantID,
		arg.ContactID,
		arg.JobType,
		arg.Payload,
	)
	return scanJob(row)
}

const getJob = `-- name: GetJob :one
SELECT ` + jobColumns + ` FROM graph_jobs
WHERE tenant_id = $1 AND id = $2
`

type GetJobParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
}

func (q *Queries) GetJob(ctx context.Context, arg GetJobParams) (GraphJob, error) {
	row := q.db.QueryRow(ctx, getJob, arg.TenantID, arg.ID)
	return scanJob(row)
}

const claimNextJob = `-- name: ClaimNextJob :one
UPDATE graph_jobs
SET status = 'processing', updated_at = now()
WHERE id = (
    SELECT id FROM graph_jobs
    WHERE tenant_id = $1 AND status = 'pending'
    ORDER BY created_at, id
    FOR UPDATE SKIP LOCKED
    LIMIT 1
)
RETURNING ` + jobColumns + `
`

// ClaimNextJob returns pgx.ErrNoRows when the tenant has nothing pending.
func (q *Queries) ClaimNextJob(ctx context.Context, tenantID uuid.UUID) (GraphJob, error) {
	row := q.db.QueryRow(ctx, claimNextJob, tenantID)
	return scanJob(row)
}

const countPendingJobs = `-- name: CountPendingJobs :one
SELECT COUNT(*) FROM graph_jobs
WHERE tenant_id = $1 AND status = 'pending'
`

func (q *Queries) CountPendingJobs(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countPendingJobs, tenantID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const completeJob = `-- name: CompleteJob :exec
UPDATE graph_jobs
SET status = 'completed', error_message = '', processed_at = now(), updated_at = now()
WHERE id = $1
`

func (q *Queries) CompleteJob(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, completeJob, id)
	return err
}

const failJob = `-- name: FailJob :exec
UPDATE graph_jobs
SET status = 'failed', error_message = $2, processed_at = now(), updated_at = now()
WHERE id = $1
`

type FailJobParams struct {
	ID           uuid.UUID `json:"id"`
	ErrorMessage string    `json:"error_message"`
}

func (q *Queries) FailJob(ctx context.Context, arg FailJobParams) error {
	_, err := q.db.Exec(ctx, failJob, arg.ID, arg.ErrorMessage)
	return err
}

const releaseJob = `-- name: ReleaseJob :exec
UPDATE graph_jobs
SET status = 'pending', error_message = $2, updated_at = now()
WHERE id = $1
`

type ReleaseJobParams struct {
	ID           uuid.UUID `json:"id"`
	ErrorMessage string    `json:"error_message"`
}

func (q *Queries) ReleaseJob(ctx context.Context, arg ReleaseJobParams) error {
	_, err := q.db.Exec(ctx, releaseJob, arg.ID, arg.ErrorMessage)
	return err
}

const resetStaleJobs = `-- name: ResetStaleJobs :many
UPDATE graph_jobs
SET status = 'pending', updated_at = now()
WHERE status = 'processing'
  AND updated_at < now() - ($1::bigint * interval '1 millisecond')
RETURNING tenant_id
`

func (q *Queries) ResetStaleJobs(ctx context.Context, olderThanMs int64) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, resetStaleJobs, olderThanMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []uuid.UUID
	for rows.Next() {
		var tenantID uuid.UUID
		if err := rows.Scan(&tenantID); err != nil {
			return nil, err
		}
		items = append(items, tenantID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPendingTenants = `-- name: ListPendingTenants :many
SELECT DISTINCT tenant_id FROM graph_jobs
WHERE status = 'pending'
`

func (q *Queries) ListPendingTenants(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, listPendingTenants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []uuid.UUID
	for rows.Next() {
		var tenantID uuid.UUID
		if err := rows.Scan(&tenantID); err != nil {
			return nil, err
		}
		items = append(items, tenantID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
