package pgx

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

const nodeColumns = `id, tenant_id, kind, label, category, weight, embedding, created_at, updated_at`

func scanNode(row interface{ Scan(...any) error }, extra ...any) (Node, error) {
	var i Node
	dest := []any{
		&i.ID,
		&i.TenantID,
		&i.Kind,
		&i.Label,
		&i.Category,
		&i.Weight,
		&i.Embedding,
		&i.CreatedAt,
		&i.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return i, err
}

const getNode = `-- name: GetNode :one
SELECT ` + nodeColumns + ` FROM nodes
WHERE tenant_id = $1 AND id = $2
`

type GetNodeParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
}

func (q *Queries) GetNode(ctx context.Context, arg GetNodeParams) (Node, error) {
	row := q.db.QueryRow(ctx, getNode, arg.TenantID, arg.ID)
	return scanNode(row)
}

const findConceptByLabel = `-- name: FindConceptByLabel :one
SELECT ` + nodeColumns + ` FROM nodes
WHERE tenant_id = $1
  AND kind = 'CONCEPT'
  AND lower(label) = lower($2)
LIMIT 1
`

type FindConceptByLabelParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Label    string    `json:"label"`
}

func (q *Queries) FindConceptByLabel(ctx context.Context, arg FindConceptByLabelParams) (Node, error) {
	row := q.db.QueryRow(ctx, findConceptByLabel, arg.TenantID, arg.Label)
	return scanNode(row)
}

const createNode = `-- name: CreateNode :one
INSERT INTO nodes (id, tenant_id, kind, label, category, weight, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (tenant_id, lower(label)) WHERE kind = 'CONCEPT' DO NOTHING
RETURNING ` + nodeColumns + `
`

type CreateNodeParams struct {
	ID        uuid.UUID        `json:"id"`
	TenantID  uuid.UUID        `json:"tenant_id"`
	Kind      string           `json:"kind"`
	Label     string           `json:"label"`
	Category  string           `json:"category"`
	Weight    int32            `json:"weight"`
	Embedding *pgvector.Vector `json:"embedding"`
}

// CreateNode returns pgx.ErrNoRows when a concept with the same label
// already exists for the tenant.
func (q *Queries) CreateNode(ctx context.Context, arg CreateNodeParams) (Node, error) {
	row := q.db.QueryRow(ctx, createNode,
		arg.ID,
		arg.TenantID,
		arg.Kind,
		arg.Label,
		arg.Category,
		arg.Weight,
		arg.Embedding,
	)
	return scanNode(row)
}

const adjustNodeWeight = `-- name: AdjustNodeWeight :one
UPDATE nodes
SET weight = weight + $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
RETURNING weight
`

type AdjustNodeWeightParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
	Delta    int32     `json:"delta"`
}

func (q *Queries) AdjustNodeWeight(ctx context.Context, arg AdjustNodeWeightParams) (int32, error) {
	row := q.db.QueryRow(ctx, adjustNodeWeight, arg.TenantID, arg.ID, arg.Delta)
	var weight int32
	err := row.Scan(&weight)
	return weight, err
}

const setNodeWeight = `-- name: SetNodeWeight :execrows
UPDATE nodes
SET weight = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
`

type SetNodeWeightParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
	Weight   int32     `json:"weight"`
}

func (q *Queries) SetNodeWeight(ctx context.Context, arg SetNodeWeightParams) (int64, error) {
	result, err := q.db.Exec(ctx, setNodeWeight, arg.TenantID, arg.ID, arg.Weight)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setNodeEmbedding = `-- name: SetNodeEmbedding :execrows
UPDATE nodes
SET embedding = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
`

type SetNodeEmbeddingParams struct {
	TenantID  uuid.UUID       `json:"tenant_id"`
	ID        uuid.UUID       `json:"id"`
	Embedding pgvector.Vector `json:"embedding"`
}

func (q *Queries) SetNodeEmbedding(ctx context.Context, arg SetNodeEmbeddingParams) (int64, error) {
	result, err := q.db.Exec(ctx, setNodeEmbedding, arg.TenantID, arg.ID, arg.Embedding)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const renameNode = `-- name: RenameNode :execrows
UPDATE nodes
SET label = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2
`

type RenameNodeParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
	Label    string    `json:"label"`
}

func (q *Queries) RenameNode(ctx context.Context, arg RenameNodeParams) (int64, error) {
	result, err := q.db.Exec(ctx, renameNode, arg.TenantID, arg.ID, arg.Label)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Edges touching the node are removed by ON DELETE CASCADE.
const deleteNode = `-- name: DeleteNode :execrows
DELETE FROM nodes
WHERE tenant_id = $1 AND id = $2
`

type DeleteNodeParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	ID       uuid.UUID `json:"id"`
}

func (q *Queries) DeleteNode(ctx context.Context, arg DeleteNodeParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteNode, arg.TenantID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const searchConcepts = `-- name: SearchConcepts :many
SELECT ` + nodeColumns + ` FROM nodes
WHERE tenant_id = $1
  AND kind = 'CONCEPT'
  AND label ILIKE '%' || $2 || '%'
  AND ($3 = '' OR lower(category) = lower($3))
ORDER BY weight DESC, label
LIMIT $4
`

type SearchConceptsParams struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Pattern  string    `json:"pattern"`
	Category string    `json:"category"`
	Limit    int32     `json:"limit"`
}

func (q *Queries) SearchConcepts(ctx context.Context, arg SearchConceptsParams) ([]Node, error) {
	rows, err := q.db.Query(ctx, searchConcepts, arg.TenantID, arg.Pattern, arg.Category, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Node
	for rows.Next() {
		i, err := scanNode(rows)
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

const matchConcepts = `-- name: MatchConcepts :many
SELECT ` + nodeColumns + `,
       (1 - (embedding <=> $2::vector))::float8 AS similarity
FROM nodes
WHERE tenant_id = $1
  AND kind = 'CONCEPT'
  AND embedding IS NOT NULL
  AND vector_dims(embedding) = vector_dims($2::vector)
  AND NOT (id = ANY($4::uuid[]))
  AND 1 - (embedding <=> $2::vector) >= $3
ORDER BY embedding <=> $2::vector, id
LIMIT $5
`

type MatchConceptsParams struct {
	TenantID      uuid.UUID       `json:"tenant_id"`
	Embedding     pgvector.Vector `json:"embedding"`
	MinSimilarity float64         `json:"min_similarity"`
	ExcludeIDs    []string        `json:"exclude_ids"`
	Limit         int32           `json:"limit"`
}

type MatchConceptsRow struct {
	Node       Node    `json:"node"`
	Similarity float64 `json:"similarity"`
}

func (q *Queries) MatchConcepts(ctx context.Context, arg MatchConceptsParams) ([]MatchConceptsRow, error) {
	exclude := arg.ExcludeIDs
	if exclude == nil {
		exclude = []string{}
	}
	rows, err := q.db.Query(ctx, matchConcepts,
		arg.TenantID,
		arg.Embedding,
		arg.MinSimilarity,
		exclude,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MatchConceptsRow
	for rows.Next() {
		var similarity float64
		n, err := scanNode(rows, &similarity)
		if err != nil {
			return nil, err
		}
		items = append(items, MatchConceptsRow{Node: n, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listWeightDrift = `-- name: ListWeightDrift :many
SELECT n.id, n.label, n.category, n.weight, COUNT(e.id)::int4 AS in_degree
FROM nodes n
LEFT JOIN edges e ON e.tenant_id = n.tenant_id AND e.target_id = n.id
WHERE n.tenant_id = $1 AND n.kind = 'CONCEPT'
GROUP BY n.id, n.label, n.category, n.weight
HAVING n.weight <> COUNT(e.id)
ORDER BY n.label
`

type ListWeightDriftRow struct {
	ID       uuid.UUID `json:"id"`
	Label    string    `json:"label"`
	Category string    `json:"category"`
	Weight   int32     `json:"weight"`
	InDegree int32     `json:"in_degree"`
}

func (q *Queries) ListWeightDrift(ctx context.Context, tenantID uuid.UUID) ([]ListWeightDriftRow, error) {
	rows, err := q.db.Query(ctx, listWeightDrift, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListWeightDriftRow
	for rows.Next() {
		var i ListWeightDriftRow
		if err := rows.Scan(&i.ID, &i.Label, &i.Category, &i.Weight, &i.InDegree); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
