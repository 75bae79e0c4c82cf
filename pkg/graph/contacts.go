package graph

import (
	"context"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

// CreateContact stores a contact together with its CONTACT mirror node.
func (e *Engine) CreateContact(ctx context.Context, tenantID uuid.UUID, firstName, lastName string) (common.Contact, error) {
	const op = "create_contact"
	if err := requireID(op, "tenant_id", tenantID); err != nil {
		return common.Contact{}, err
	}
	c := common.Contact{
		TenantID:  tenantID,
		FirstName: common.CleanText(firstName),
		LastName:  common.CleanText(lastName),
	}
	if c.FirstName == "" {
		return common.Contact{}, common.Validation(op, "first_name is required")
	}

	var created common.Contact
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		node, err := tx.CreateNode(ctx, common.Node{
			ID:       uuid.New(),
			TenantID: tenantID,
			Kind:     common.KindContact,
			Label:    c.FullName(),
			Category: common.ContactCategory,
			Weight:   1,
		})
		if err != nil {
			return err
		}
		c.ID = uuid.New()
		c.NodeID = node.ID
		created, err = tx.CreateContact(ctx, c)
		return err
	})
	if err != nil {
		return common.Contact{}, err
	}
	logger.Debug("[Engine] Created contact", "tenant", tenantID, "contact", created.ID, "node", created.NodeID)
	return created, nil
}

func (e *Engine) GetContact(ctx context.Context, tenantID, contactID uuid.UUID) (common.Contact, error) {
	var c common.Contact
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		c, err = tx.GetContact(ctx, tenantID, contactID)
		return err
	})
	return c, err
}

// RenameContact updates the names and the mirror node label together.
func (e *Engine) RenameContact(
	ctx context.Context,
	tenantID, contactID uuid.UUID,
	firstName, lastName string,
) (common.Contact, error) {
	const op = "rename_contact"
	firstName, lastName = common.CleanText(firstName), common.CleanText(lastName)
	if firstName == "" {
		return common.Contact{}, common.Validation(op, "first_name is required")
	}

	var updated common.Contact
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		updated, err = tx.UpdateContactName(ctx, tenantID, contactID, firstName, lastName)
		if err != nil {
			return err
		}
		return tx.RenameNode(ctx, tenantID, updated.NodeID, updated.FullName())
	})
	return updated, err
}

// DeleteContact releases every edge of the mirror node, collecting concepts
// nothing else references, then removes the mirror node and the contact.
func (e *Engine) DeleteContact(ctx context.Context, tenantID, contactID uuid.UUID) (*DeleteResult, error) {
	const op = "delete_contact"
	if err := requireID(op, "tenant_id", tenantID); err != nil {
		return nil, err
	}

	result := &DeleteResult{CollectedNodes: []uuid.UUID{}}
	err := e.locker.WithTenantLock(ctx, tenantID, func(ctx context.Context) error {
		released := 0
		err := e.store.WithTx(ctx, func(tx store.Tx) error {
			result.CollectedNodes = result.CollectedNodes[:0]
			c, err := tx.GetContact(ctx, tenantID, contactID)
			if err != nil {
				return err
			}
			gc := newCollector(tx, tenantID)
			if err := gc.collect(ctx, c.NodeID); err != nil {
				return err
			}
			// the mirror node itself is not a collected concept
			for _, id := range gc.collected {
				if id != c.NodeID {
					result.CollectedNodes = append(result.CollectedNodes, id)
				}
			}
			released = gc.released
			return nil
		})
		if err != nil {
			return err
		}
		result.Deleted = true
		recordCollection(released, result.CollectedNodes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("[Engine] Deleted contact", "tenant", tenantID, "contact", contactID, "collected", len(result.CollectedNodes))
	return result, nil
}

// SetSummary stores a hand-edited summary verbatim.
func (e *Engine) SetSummary(ctx context.Context, tenantID, contactID uuid.UUID, summary string) (common.Contact, error) {
	var c common.Contact
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.SetContactSummary(ctx, tenantID, contactID, common.CleanText(summary)); err != nil {
			return err
		}
		var err error
		c, err = tx.GetContact(ctx, tenantID, contactID)
		return err
	})
	return c, err
}
