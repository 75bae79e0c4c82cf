package pgx

import (
	"context"

	"github.com/google/uuid"
)

const contactColumns = `id, tenant_id, node_id, first_name, last_name, summary, summary_updated_at, created_at, updated_at`

func scanContact(row interface{ Scan(...any) error }) (Contact, error) {
	var i Contact
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.NodeID,
		&i.FirstName,
		&i.LastName,
		&i.Summary,
		&i.SummaryUpdatedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createContact = `-- name: CreateContact :one
INSERT INTO contacts (id, tenant_id, node_id, first_name, last_name)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + contactColumns + `
`

type CreateContactParams struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	NodeID    uuid.UUID `json:"node_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (Contact, error) {
	row := q.db.QueryRow(ctx, createContact,
		arg.ID,
		arg.TenantID,
		arg.NodeID,
		arg.FirstName,
		arg.LastName,
	)
	return scanContact(row)
}

const getContact = `-- name: GetContact :one
SELECT ` + contactColumns + ` FROM contacts
WHERE tenant_id = $1 AND id = $2
`

type GetContactParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
}

func (q *Queries) GetContact(ctx context.Context, arg GetContactParams) (Contact, error) {
	row := q.db.QueryRow(ctx, getContact, arg.TenantID, arg.ID)
	return scanContact(row)
}

const getContactByNode = `-- name: GetContactByNode :one
SELECT ` + contactColumns + ` FROM contacts
WHERE tenant_id = $1 AND node_id = $2
`

type GetContactByNodeParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	NodeID   uuid.UUID `json:"node_id"`
}

func (q *Queries) GetContactByNode(ctx context.Context, arg GetContactByNodeParams) (Contact, error) {
	row := q.db.QueryRow(ctx, getContactByNode, arg.TenantID, arg.NodeID)
	return scanContact(row)
}

const updateContactName = `-- name: UpdateContactName :one
UPDATE contacts
SET first_name = $3, last_name = $4, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING ` + contactColumns + `
`

type UpdateContactNameParams struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func (q *Queries) UpdateContactName(ctx context.Context, arg UpdateContactNameParams) (Contact, error) {
	row := q.db.QueryRow(ctx, updateContactName, arg.TenantID, arg.ID, arg.FirstName, arg.LastName)
	return scanContact(row)
}

const setContactSummary = `-- name: SetContactSummary :execrows
UPDATE contacts
SET summary = $3,
    summary_updated_at = CASE WHEN $3 = '' THEN NULL ELSE now() END,
    updated_at = now()
WHERE tenant_id = $1 AND id = $2
`

type SetContactSummaryParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
	Summary  string    `json:"summary"`
}

func (q *Queries) SetContactSummary(ctx context.Context, arg SetContactSummaryParams) (int64, error) {
	result, err := q.db.Exec(ctx, setContactSummary, arg.TenantID, arg.ID, arg.Summary)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteContact = `-- name: DeleteContact :execrows
DELETE FROM contacts
WHERE tenant_id = $1 AND id = $2
`

type DeleteContactParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
}

func (q *Queries) DeleteContact(ctx context.Context, arg DeleteContactParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteContact, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listContactsByNodes = `-- name: ListContactsByNodes :many
SELECT ` + contactColumns + ` FROM contacts
WHERE tenant_id = $1 AND node_id = ANY($2::uuid[])
ORDER BY first_name, last_name, id
`

type ListContactsByNodesParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	NodeIDs  []string  `json:"node_ids"`
}

func (q *Queries) ListContactsByNodes(ctx context.Context, arg ListContactsByNodesParams) ([]Contact, error) {
	rows, err := q.db.Query(ctx, listContactsByNodes, arg.TenantID, arg.NodeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Contact
	for rows.Next() {
		i, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markInteractionProcessed = `-- name: MarkInteractionProcessed :execrows
UPDATE interactions
SET processed = true, updated_at = now()
WHERE tenant_id = $1 AND id = $2
`

type MarkInteractionProcessedParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
}

func (q *Queries) MarkInteractionProcessed(ctx context.Context, arg MarkInteractionProcessedParams) (int64, error) {
	result, err := q.db.Exec(ctx, markInteractionProcessed, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
