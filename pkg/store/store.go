package store

import (
	"context"

	"github.com/panot-hq/edge-backend/pkg/common"

	"github.com/google/uuid"
)

// Store persists tenant graphs. Every mutation runs inside WithTx: either all
// statements issued through the Tx commit, or none do.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the view of the graph available inside one transaction. Lookups of
// missing rows fail with common.ErrNotFound; uniqueness violations fail with
// common.ErrConflict.
type Tx interface {
	NodeStore
	EdgeStore
	ContactStore
}

type NodeStore interface {
	GetNode(ctx context.Context, tenantID, id uuid.UUID) (common.Node, error)
	// FindConceptByLabel matches concept labels case-insensitively.
	FindConceptByLabel(ctx context.Context, tenantID uuid.UUID, label string) (common.Node, error)
	// CreateNode fails with common.ErrConflict when a concept with the same
	// label already exists for the tenant.
	CreateNode(ctx context.Context, node common.Node) (common.Node, error)
	// AdjustWeight adds delta to the node weight and returns the new value.
	AdjustWeight(ctx context.Context, tenantID, id uuid.UUID, delta int) (int, error)
	SetWeight(ctx context.Context, tenantID, id uuid.UUID, weight int) error
	SetEmbedding(ctx context.Context, tenantID, id uuid.UUID, embedding []float32) error
	RenameNode(ctx context.Context, tenantID, id uuid.UUID, label string) error
	// DeleteNode removes the node and every edge touching it. A contact
	// record mirrored by the node goes with it.
	DeleteNode(ctx context.Context, tenantID, id uuid.UUID) error
	SearchConcepts(ctx context.Context, tenantID uuid.UUID, query, category string, limit int) ([]common.Node, error)
	// SimilarConcepts returns concepts with a stored embedding whose cosine
	// similarity to the query vector is at least MinSimilarity, best first.
	SimilarConcepts(ctx context.Context, q SimilarityQuery) ([]common.SimilarNode, error)
	WeightDrift(ctx context.Context, tenantID uuid.UUID) ([]WeightDrift, error)
}

type EdgeStore interface {
	GetEdge(ctx context.Context, tenantID, id uuid.UUID) (common.Edge, error)
	// EdgeBetween finds the edge joining a and b in either direction.
	EdgeBetween(ctx context.Context, tenantID, a, b uuid.UUID) (common.Edge, bool, error)
	// CreateEdge fails with common.ErrConflict when the pair is already
	// connected in either direction.
	CreateEdge(ctx context.Context, edge common.Edge) (common.Edge, error)
	// DeleteEdge reports whether a row was removed.
	DeleteEdge(ctx context.Context, tenantID, id uuid.UUID) (bool, error)
	Outgoing(ctx context.Context, tenantID, nodeID uuid.UUID) ([]common.Neighbor, error)
	Incoming(ctx context.Context, tenantID, nodeID uuid.UUID) ([]common.Neighbor, error)
}

type ContactStore interface {
	CreateContact(ctx context.Context, contact common.Contact) (common.Contact, error)
	GetContact(ctx context.Context, tenantID, id uuid.UUID) (common.Contact, error)
	GetContactByNode(ctx context.Context, tenantID, nodeID uuid.UUID) (common.Contact, error)
	UpdateContactName(ctx context.Context, tenantID, id uuid.UUID, firstName, lastName string) (common.Contact, error)
	// SetContactSummary stores summary; an empty summary clears the
	// regeneration timestamp.
	SetContactSummary(ctx context.Context, tenantID, id uuid.UUID, summary string) error
	ContactsByNodes(ctx context.Context, tenantID uuid.UUID, nodeIDs []uuid.UUID) ([]common.Contact, error)
}

type SimilarityQuery struct {
	TenantID      uuid.UUID
	Vector        []float32
	MinSimilarity float64
	Limit         int
	ExcludeIDs    []uuid.UUID
}

// WeightDrift is a concept whose stored weight disagrees with its in-degree.
type WeightDrift struct {
	NodeID   uuid.UUID `json:"node_id"`
	Label    string    `json:"label"`
	Category string    `json:"category"`
	Weight   int       `json:"weight"`
	InDegree int       `json:"in_degree"`
}
