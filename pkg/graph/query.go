package graph

import (
	"context"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 20
)

// Relation is an outgoing edge of a node together with its target.
type Relation struct {
	EdgeID       uuid.UUID `json:"edge_id"`
	RelationType string    `json:"relation_type"`
	NodeID       uuid.UUID `json:"node_id"`
	Label        string    `json:"label"`
	Category     string    `json:"category"`
	Weight       int       `json:"weight"`
	Shared       bool      `json:"shared"`
}

type ContactGraph struct {
	Contact   common.Contact `json:"contact"`
	Relations []Relation     `json:"relations"`
}

type SharedConnection struct {
	Relation Relation         `json:"relation"`
	Contacts []common.Contact `json:"contacts"`
}

func toRelation(n common.Neighbor) Relation {
	return Relation{
		EdgeID:       n.Edge.ID,
		RelationType: n.Edge.RelationType,
		NodeID:       n.Node.ID,
		Label:        n.Node.Label,
		Category:     n.Node.Category,
		Weight:       n.Node.Weight,
		Shared:       n.Node.IsConcept() && n.Node.Weight > 1,
	}
}

// ContactContext returns the contact and what its mirror node points at.
func (e *Engine) ContactContext(ctx context.Context, tenantID, contactID uuid.UUID) (*ContactGraph, error) {
	out := &ContactGraph{Relations: []Relation{}}
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		c, err := tx.GetContact(ctx, tenantID, contactID)
		if err != nil {
			return err
		}
		out.Contact = c
		neighbors, err := tx.Outgoing(ctx, tenantID, c.NodeID)
		if err != nil {
			return err
		}
		for _, n := range neighbors {
			out.Relations = append(out.Relations, toRelation(n))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchConcepts matches concept labels by case-insensitive substring.
func (e *Engine) SearchConcepts(
	ctx context.Context,
	tenantID uuid.UUID,
	text, category string,
	limit int,
) ([]common.Node, error) {
	text = common.CleanText(text)
	if text == "" {
		return nil, common.Validation("search_concepts", "query is required")
	}
	limit = store.ClampLimit(limit, defaultSearchLimit, maxSearchLimit)

	var out []common.Node
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.SearchConcepts(ctx, tenantID, text, common.CleanText(category), limit)
		return err
	})
	if out == nil {
		out = []common.Node{}
	}
	return out, err
}

// ContactsSharing lists the contacts whose mirror node points at nodeID.
func (e *Engine) ContactsSharing(ctx context.Context, tenantID, nodeID uuid.UUID) ([]common.Contact, error) {
	var out []common.Contact
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetNode(ctx, tenantID, nodeID); err != nil {
			return err
		}
		var err error
		out, err = contactsPointingAt(ctx, tx, tenantID, nodeID, uuid.Nil)
		return err
	})
	if out == nil {
		out = []common.Contact{}
	}
	return out, err
}

// SharedConnections returns the concepts of a contact that other contacts
// point at too, with those contacts.
func (e *Engine) SharedConnections(ctx context.Context, tenantID, contactID uuid.UUID) ([]SharedConnection, error) {
	out := []SharedConnection{}
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		c, err := tx.GetContact(ctx, tenantID, contactID)
		if err != nil {
			return err
		}
		neighbors, err := tx.Outgoing(ctx, tenantID, c.NodeID)
		if err != nil {
			return err
		}
		for _, n := range neighbors {
			if !n.Node.IsConcept() || n.Node.Weight <= 1 {
				continue
			}
			others, err := contactsPointingAt(ctx, tx, tenantID, n.Node.ID, c.NodeID)
			if err != nil {
				return err
			}
			if len(others) == 0 {
				continue
			}
			out = append(out, SharedConnection{Relation: toRelation(n), Contacts: others})
		}
		return nil
	})
	return out, err
}

func contactsPointingAt(
	ctx context.Context,
	tx store.Tx,
	tenantID, nodeID, exclude uuid.UUID,
) ([]common.Contact, error) {
	incoming, err := tx.Incoming(ctx, tenantID, nodeID)
	if err != nil {
		return nil, err
	}
	mirrors := make([]uuid.UUID, 0, len(incoming))
	for _, n := range incoming {
		if n.Node.Kind == common.KindContact && n.Node.ID != exclude {
			mirrors = append(mirrors, n.Node.ID)
		}
	}
	return tx.ContactsByNodes(ctx, tenantID, mirrors)
}
