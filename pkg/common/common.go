package common

import (
	"strings"
	"time"

	"github.com/panot-hq/edge-backend/internal/util"

	"github.com/google/uuid"
)

// NodeKind distinguishes people from the abstract attributes attached to them.
type NodeKind string

const (
	KindContact NodeKind = "CONTACT"
	KindConcept NodeKind = "CONCEPT"
)

// RelatedTo is the relation type used for concept to concept links created
// during deduplication.
const RelatedTo = "RELATED_TO"

// ContactCategory is the category stored on CONTACT mirror nodes.
const ContactCategory = "Contact"

// Node represents a vertex of a tenant graph. A node is either the mirror of
// a contact record or a concept extracted from text (a hobby, an employer,
// an emotion, a place).
//
// Weight is the reference count of a concept node and always equals the
// number of edges in the tenant graph that target it. Embedding stays nil
// until the node took part in a similarity computation.
type Node struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Kind      NodeKind  `json:"kind"`
	Label     string    `json:"label"`
	Category  string    `json:"category"`
	Weight    int       `json:"weight"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsConcept reports whether the node takes part in weight based collection.
func (n Node) IsConcept() bool {
	return n.Kind == KindConcept
}

// Edge is a directed, typed relationship between two nodes of one tenant.
// At most one edge exists per unordered (source, target) pair.
type Edge struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	SourceID     uuid.UUID `json:"source_id"`
	TargetID     uuid.UUID `json:"target_id"`
	RelationType string    `json:"relation_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Neighbor pairs an edge with the node on its other end.
type Neighbor struct {
	Edge Edge `json:"edge"`
	Node Node `json:"node"`
}

// SimilarNode is a concept node returned from a similarity search.
type SimilarNode struct {
	Node       Node    `json:"node"`
	Similarity float64 `json:"similarity"`
}

// Contact is the identity record mirrored 1:1 by a CONTACT node. Summary is
// a derived cache regenerated from the mirror node's outgoing edges, unless
// it was edited by hand.
type Contact struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenant_id"`
	NodeID           uuid.UUID  `json:"node_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Summary          string     `json:"summary"`
	SummaryUpdatedAt *time.Time `json:"summary_updated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FullName returns the display name used as the mirror node label.
func (c Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Item is one extracted fact to attach to a source node.
type Item struct {
	Label        string `json:"label" validate:"required"`
	Category     string `json:"category" validate:"required"`
	RelationType string `json:"relation_type" validate:"required"`
}

// Normalize trims the item and canonicalises its relation type. It returns a
// validation error when a field ends up empty.
func (i Item) Normalize() (Item, error) {
	out := Item{
		Label:        CleanText(i.Label),
		Category:     CleanText(i.Category),
		RelationType: NormalizeRelation(i.RelationType),
	}
	switch {
	case out.Label == "":
		return out, Validation("item", "label is required")
	case out.Category == "":
		return out, Validation("item", "category is required")
	case out.RelationType == "":
		return out, Validation("item", "relation_type is required")
	}
	return out, nil
}

// EmbeddingText is the text sent to the embedding model for an item.
func (i Item) EmbeddingText() string {
	return i.Label + " | " + i.Category + " | " + i.RelationType
}

// NormalizeRelation upper-cases a relation type and joins words with '_'.
func NormalizeRelation(relation string) string {
	fields := strings.Fields(CleanText(relation))
	return strings.ToUpper(strings.Join(fields, "_"))
}

// CleanText trims whitespace and drops bytes Postgres refuses in text
// columns.
func CleanText(value string) string {
	return strings.TrimSpace(util.SanitizePostgresText(value))
}
