package pgx

import (
	"context"

	"github.com/google/uuid"
)

const edgeColumns = `id, tenant_id, source_id, target_id, relation_type, created_at`

func scanEdge(row interface{ Scan(...any) error }) (Edge, error) {
	var i Edge
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.SourceID,
		&i.TargetID,
		&i.RelationType,
		&i.CreatedAt,
	)
	return i, err
}

const getEdge = `-- name: GetEdge :one
SELECT ` + edgeColumns + ` FROM edges
WHERE tenant_id = $1 AND id = $2
`

type GetEdgeParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
}

func (q *Queries) GetEdge(ctx context.Context, arg GetEdgeParams) (Edge, error) {
	row := q.db.QueryRow(ctx, getEdge, arg.TenantID, arg.ID)
	return scanEdge(row)
}

const getEdgeBetween = `-- name: GetEdgeBetween :one
SELECT ` + edgeColumns + ` FROM edges
WHERE tenant_id = $1
  AND ((source_id = $2 AND target_id = $3) OR (source_id = $3 AND target_id = $2))
LIMIT 1
`

type GetEdgeBetweenParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	A        uuid.UUID `json:"a"`
	B        uuid.UUID `json:"b"`
}

func (q *Queries) GetEdgeBetween(ctx context.Context, arg GetEdgeBetweenParams) (Edge, error) {
	row := q.db.QueryRow(ctx, getEdgeBetween, arg.TenantID, arg.A, arg.B)
	return scanEdge(row)
}

const createEdge = `-- name: CreateEdge :one
INSERT INTO edges (id, tenant_id, source_id, target_id, relation_type)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tenant_id, LEAST(source_id, target_id), GREATEST(source_id, target_id)) DO NOTHING
RETURNING ` + edgeColumns + `
`

type CreateEdgeParams struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	SourceID     uuid.UUID `json:"source_id"`
	TargetID     uuid.UUID `json:"target_id"`
	RelationType string    `json:"relation_type"`
}

// CreateEdge returns pgx.ErrNoRows when the pair is already connected in
// either direction.
func (q *Queries) CreateEdge(ctx context.Context, arg CreateEdgeParams) (Edge, error) {
	row := q.db.QueryRow(ctx, createEdge,
		arg.ID,
		arg.TenantID,
		arg.SourceID,
		arg.TargetID,
		arg.RelationType,
	)
	return scanEdge(row)
}

const deleteEdge = `-- name: DeleteEdge :execrows
DELETE FROM edges
WHERE tenant_id = $1 AND id = $2
`

type DeleteEdgeParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
}

func (q *Queries) DeleteEdge(ctx context.Context, arg DeleteEdgeParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteEdge, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listOutgoingEdges = `-- name: ListOutgoingEdges :many
SELECT e.id, e.tenant_id, e.source_id, e.target_id, e.relation_type, e.created_at,
       n.id, n.tenant_id, n.kind, n.label, n.category, n.weight, n.embedding, n.created_at, n.updated_at
FROM edges e
JOIN nodes n ON n.id = e.target_id
WHERE e.tenant_id = $1 AND e.source_id = $2
ORDER BY e.created_at, e.id
`

type ListOutgoingEdgesParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	SourceID uuid.UUID `json:"source_id"`
}

type EdgeNodeRow struct {
	Edge Edge `json:"edge"`
	Node Node `json:"node"`
}

func (q *Queries) ListOutgoingEdges(ctx context.Context, arg ListOutgoingEdgesParams) ([]EdgeNodeRow, error) {
	return q.listEdgeNodes(ctx, listOutgoingEdges, arg.TenantID, arg.SourceID)
}

const listIncomingEdges = `-- name: ListIncomingEdges :many
SELECT e.id, e.tenant_id, e.source_id, e.target_id, e.relation_type, e.created_at,
       n.id, n.tenant_id, n.kind, n.label, n.category, n.weight, n.embedding, n.created_at, n.updated_at
FROM edges e
JOIN nodes n ON n.id = e.source_id
WHERE e.tenant_id = $1 AND e.target_id = $2
ORDER BY e.created_at, e.id
`

type ListIncomingEdgesParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	TargetID uuid.UUID `json:"target_id"`
}

func (q *Queries) ListIncomingEdges(ctx context.Context, arg ListIncomingEdgesParams) ([]EdgeNodeRow, error) {
	return q.listEdgeNodes(ctx, listIncomingEdges, arg.TenantID, arg.TargetID)
}

func (q *Queries) listEdgeNodes(ctx context.Context, query string, args ...any) ([]EdgeNodeRow, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EdgeNodeRow
	for rows.Next() {
		var i EdgeNodeRow
		if err := rows.Scan(
			&i.Edge.ID,
			&i.Edge.TenantID,
			&i.Edge.SourceID,
			&i.Edge.TargetID,
			&i.Edge.RelationType,
			&i.Edge.CreatedAt,
			&i.Node.ID,
			&i.Node.TenantID,
			&i.Node.Kind,
			&i.Node.Label,
			&i.Node.Category,
			&i.Node.Weight,
			&i.Node.Embedding,
			&i.Node.CreatedAt,
			&i.Node.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
