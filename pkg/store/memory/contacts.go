package memory

import (
	"context"
	"sort"

	"github.com/panot-hq/edge-backend/pkg/common"

	"github.com/google/uuid"
)

func (t *txn) CreateContact(ctx context.Context, contact common.Contact) (common.Contact, error) {
	if err := t.check(ctx, "CreateContact"); err != nil {
		return common.Contact{}, err
	}
	n, ok := t.data.nodes[contact.NodeID]
	if !ok || n.node.TenantID != contact.TenantID || n.node.Kind != common.KindContact {
		return common.Contact{}, common.NotFound("create_contact", "mirror node does not exist")
	}
	for _, c := range t.data.contacts {
		if c.contact.NodeID == contact.NodeID {
			return common.Contact{}, common.Conflict("create_contact", nil)
		}
	}
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	now := t.s.now()
	contact.CreatedAt, contact.UpdatedAt = now, now
	contact.Summary = ""
	contact.SummaryUpdatedAt = nil
	t.data.contacts[contact.ID] = contactRec{contact: contact, seq: t.data.next()}
	return contact, nil
}

func (t *txn) GetContact(ctx context.Context, tenantID, id uuid.UUID) (common.Contact, error) {
	if err := t.check(ctx, "GetContact"); err != nil {
		return common.Contact{}, err
	}
	r, ok := t.data.contacts[id]
	if !ok || r.contact.TenantID != tenantID {
		return common.Contact{}, common.NotFound("get_contact", "")
	}
	return r.contact, nil
}

func (t *txn) GetContactByNode(ctx context.Context, tenantID, nodeID uuid.UUID) (common.Contact, error) {
	if err := t.check(ctx, "GetContactByNode"); err != nil {
		return common.Contact{}, err
	}
	for _, r := range t.data.contacts {
		if r.contact.TenantID == tenantID && r.contact.NodeID == nodeID {
			return r.contact, nil
		}
	}
	return common.Contact{}, common.NotFound("get_contact_by_node", "")
}

func (t *txn) UpdateContactName(
	ctx context.Context,
	tenantID, id uuid.UUID,
	firstName, lastName string,
) (common.Contact, error) {
	if err := t.check(ctx, "UpdateContactName"); err != nil {
		return common.Contact{}, err
	}
	r, ok := t.data.contacts[id]
	if !ok || r.contact.TenantID != tenantID {
		return common.Contact{}, common.NotFound("update_contact", "")
	}
	r.contact.FirstName = firstName
	r.contact.LastName = lastName
	r.contact.UpdatedAt = t.s.now()
	t.data.contacts[id] = r
	return r.contact, nil
}

func (t *txn) SetContactSummary(ctx context.Context, tenantID, id uuid.UUID, summary string) error {
	if err := t.check(ctx, "SetContactSummary"); err != nil {
		return err
	}
	r, ok := t.data.contacts[id]
	if !ok || r.contact.TenantID != tenantID {
		return common.NotFound("set_summary", "")
	}
	now := t.s.now()
	r.contact.Summary = summary
	r.contact.UpdatedAt = now
	if summary == "" {
		r.contact.SummaryUpdatedAt = nil
	} else {
		r.contact.SummaryUpdatedAt = &now
	}
	t.data.contacts[id] = r
	return nil
}

func (t *txn) ContactsByNodes(ctx context.Context, tenantID uuid.UUID, nodeIDs []uuid.UUID) ([]common.Contact, error) {
	if err := t.check(ctx, "ContactsByNodes"); err != nil {
		return nil, err
	}
	want := make(map[uuid.UUID]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		want[id] = struct{}{}
	}
	out := make([]common.Contact, 0)
	for _, r := range t.data.contacts {
		if r.contact.TenantID != tenantID {
			continue
		}
		if _, ok := want[r.contact.NodeID]; ok {
			out = append(out, r.contact)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
