package pgx

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type Node struct {
	ID        uuid.UUID        `json:"id"`
	TenantID  uuid.UUID        `json:"tenant_id"`
	Kind      string           `json:"kind"`
	Label     string           `json:"label"`
	Category  string           `json:"category"`
	Weight    int32            `json:"weight"`
	Embedding *pgvector.Vector `json:"embedding"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type Edge struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	SourceID     uuid.UUID `json:"source_id"`
	TargetID     uuid.UUID `json:"target_id"`
	RelationType string    `json:"relation_type"`
	CreatedAt    time.Time `json:"created_at"`
}

type Contact struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenant_id"`
	NodeID           uuid.UUID  `json:"node_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Summary          string     `json:"summary"`
	SummaryUpdatedAt *time.Time `json:"summary_updated_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type GraphJob struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	ContactID    uuid.UUID  `json:"contact_id"`
	JobType      string     `json:"job_type"`
	Payload      []byte     `json:"payload"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ProcessedAt  *time.Time `json:"processed_at"`
}
