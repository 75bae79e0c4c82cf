package pgx

import (
	"context"

	"github.com/panot-hq/edge-backend/internal/util"
	"github.com/panot-hq/edge-backend/pkg/common"
	pgdb "github.com/panot-hq/edge-backend/pkg/db/pgx"

	"github.com/google/uuid"
)

func (s *txStore) CreateContact(ctx context.Context, contact common.Contact) (common.Contact, error) {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	c, err := s.q.CreateContact(ctx, pgdb.CreateContactParams{
		ID:        contact.ID,
		TenantID:  contact.TenantID,
		NodeID:    contact.NodeID,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
	})
	if err != nil {
		return common.Contact{}, mapErr("create_contact", err)
	}
	return toContact(c), nil
}

func (s *txStore) GetContact(ctx context.Context, tenantID, id uuid.UUID) (common.Contact, error) {
	c, err := s.q.GetContact(ctx, pgdb.GetContactParams{TenantID: tenantID, ID: id})
	if err != nil {
		return common.Contact{}, mapErr("get_contact", err)
	}
	return toContact(c), nil
}

func (s *txStore) GetContactByNode(ctx context.Context, tenantID, nodeID uuid.UUID) (common.Contact, error) {
	c, err := s.q.GetContactByNode(ctx, pgdb.GetContactByNodeParams{TenantID: tenantID, NodeID: nodeID})
	if err != nil {
		return common.Contact{}, mapErr("get_contact_by_node", err)
	}
	return toContact(c), nil
}

func (s *txStore) UpdateContactName(
	ctx context.Context,
	tenantID, id uuid.UUID,
	firstName, lastName string,
) (common.Contact, error) {
	c, err := s.q.UpdateContactName(ctx, pgdb.UpdateContactNameParams{
		TenantID:  tenantID,
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		return common.Contact{}, mapErr("update_contact", err)
	}
	return toContact(c), nil
}

func (s *txStore) SetContactSummary(ctx context.Context, tenantID, id uuid.UUID, summary string) error {
	n, err := s.q.SetContactSummary(ctx, pgdb.SetContactSummaryParams{TenantID: tenantID, ID: id, Summary: summary})
	return rowsOrNotFound("set_summary", n, err)
}

func (s *txStore) ContactsByNodes(ctx context.Context, tenantID uuid.UUID, nodeIDs []uuid.UUID) ([]common.Contact, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	rows, err := s.q.ListContactsByNodes(ctx, pgdb.ListContactsByNodesParams{
		TenantID: tenantID,
		NodeIDs:  util.IDStrings(nodeIDs),
	})
	if err != nil {
		return nil, mapErr("contacts_by_nodes", err)
	}
	out := make([]common.Contact, 0, len(rows))
	for _, r := range rows {
		out = append(out, toContact(r))
	}
	return out, nil
}
