package graph

import (
	"context"
	"testing"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deleteEdge(t *testing.T, env *testEnv, tenant uuid.UUID, c common.Contact, edgeID uuid.UUID) *DeleteResult {
	t.Helper()
	res, err := env.engine.DeleteEdge(context.Background(), DeleteEdgeRequest{
		TenantID:     tenant,
		EdgeID:       edgeID,
		SourceNodeID: c.NodeID,
		Mode:         common.ModeActionable,
	})
	require.NoError(t, err)
	return res
}

func TestDeleteEdgeCollectsLastReference(t *testing.T) {
	env := newTestEnv(t, nil)
	ana := env.contact(t, tenantU1, "Ana")
	report := env.connect(t, tenantU1, ana, item("Padel", "Hobby", "PRACTICES"))
	padel := env.concept(t, tenantU1, "Padel")

	res := deleteEdge(t, env, tenantU1, ana, report.Items[0].EdgeID)

	assert.True(t, res.Deleted)
	assert.Equal(t, []uuid.UUID{padel.ID}, res.CollectedNodes)
	assert.Empty(t, env.concepts(tenantU1))
	assert.Empty(t, env.store.Edges(tenantU1))
	assert.True(t, res.SummaryRegenerated)
}

func TestDeleteEdgeDecrementsSharedConcept(t *testing.T) {
	env := newTestEnv(t, nil)
	ana := env.contact(t, tenantU1, "Ana")
	bruno := env.contact(t, tenantU1, "Bruno")
	first := env.connect(t, tenantU1, ana, item("Padel", "Hobby", "PRACTICES"))
	env.connect(t, tenantU1, bruno, item("Padel", "Hobby", "PRACTICES"))
	require.Equal(t, 2, env.concept(t, tenantU1, "Padel").Weight)

	res := deleteEdge(t, env, tenantU1, ana, first.Items[0].EdgeID)

	assert.True(t, res.Deleted)
	assert.Empty(t, res.CollectedNodes)
	assert.Equal(t, 1, env.concept(t, tenantU1, "Padel").Weight)
	requireWeightsMatchInDegree(t, env.store, tenantU1)
}

func TestDeleteEdgeIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	ana := env.contact(t, tenantU1, "Ana")
	report := env.connect(t, tenantU1, ana, item("Padel", "Hobby", "PRACTICES"))
	edgeID := report.Items[0].EdgeID
	calls := env.summary.count()

	deleteEdge(t, env, tenantU1, ana, edgeID)
	again := deleteEdge(t, env, tenantU1, ana, edgeID)

	assert.False(t, again.Deleted)
	assert.Empty(t, again.CollectedNodes)
	assert.Equal(t, calls+1, env.summary.count(), "a no-op retry must not regenerate")
}

func TestDeleteEdgeRejectsForeignSource(t *testing.T) {
	env := newTestEnv(t, nil)
	ana := env.contact(t, tenantU1, "Ana")
	bruno := env.contact(t, tenantU1, "Bruno")
	report := env.connect(t, tenantU1, ana, item("Padel", "Hobby", "PRACTICES"))

	_, err := env.engine.DeleteEdge(context.Background(), DeleteEdgeRequest{
		TenantID:     tenantU1,
		EdgeID:       report.Items[0].EdgeID,
		SourceNodeID: bruno.NodeID,
		Mode:         common.ModeActionable,
	})

	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Len(t, env.store.Edges(tenantU1), 1)
	requireWeightsMatchInDegree(t, env.store, tenantU1)
}

func TestDeleteEdgeCascadesThroughRelatedConcepts(t *testing.T) {
	scores := scoreTable{{2, 1}: 0.6}
	env := newTestEnv(t, []memory.Option{memory.WithSimilarityFunc(scores.similarity)})
	env.embedder.preset("Stoicism", 1)
	env.embedder.preset("Marcus Aurelius", 2)
	ana := env.contact(t, tenantU1, "Ana")
	bruno := env.contact(t, tenantU1, "Bruno")

	env.connect(t, tenantU1, ana, item("Stoicism", "Philosophy", "STUDIES"))
	report := env.connect(t, tenantU1, bruno, item("Marcus Aurelius", "Author", "READS"))
	require.Equal(t, 1, report.RelatedEdges)
	require.Equal(t, 2, env.concept(t, tenantU1, "Stoicism").Weight)

	res := deleteEdge(t, env, tenantU1, bruno, report.Items[0].EdgeID)

	assert.Len(t, res.CollectedNodes, 1)
	assert.Equal(t, 1, env.concept(t, tenantU1, "Stoicism").Weight)
	requireWeightsMatchInDegree(t, env.store, tenantU1)
}

func TestDeleteNodeReleasesOutgoingEdges(t *testing.T) {
	scores := scoreTable{{2, 1}: 0.6}
	env := newTestEnv(t, []memory.Option{memory.WithSimilarityFunc(scores.similarity)})
	env.embedder.preset("Stoicism", 1)
	env.embedder.preset("Marcus Aurelius", 2)
	ana := env.contact(t, tenantU1, "Ana")
	bruno := env.contact(t, tenantU1, "Bruno")
	env.connect(t, tenantU1, ana, item("Stoicism", "Philosophy", "STUDIES"))
	env.connect(t, tenantU1, bruno, item("Marcus Aurelius", "Author", "READS"))
	marcus := env.concept(t, tenantU1, "Marcus Aurelius")

	res, err := env.engine.DeleteNode(context.Background(), DeleteNodeRequest{
		TenantID:     tenantU1,
		NodeID:       marcus.ID,
		SourceNodeID: bruno.NodeID,
		Mode:         common.ModeActionable,
	})
	require.NoError(t, err)

	assert.True(t, res.Deleted)
	assert.Equal(t, []uuid.UUID{marcus.ID}, res.CollectedNodes)
	assert.Equal(t, 1, env.concept(t, tenantU1, "Stoicism").Weight)
	assert.Len(t, env.store.Edges(tenantU1), 1)
	assert.True(t, res.SummaryRegenerated)
	requireWeightsMatchInDegree(t, env.store, tenantU1)
}

func TestDeleteNodeValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	ana := env.contact(t, tenantU1, "Ana")
	bruno := env.contact(t, tenantU1, "Bruno")
	env.connect(t, tenantU1, ana, item("Padel", "Hobby", "PRACTICES"))
	padel := env.concept(t, tenantU1, "Padel")

	_, err := env.engine.DeleteNode(ctx, DeleteNodeRequest{TenantID: tenantU1, NodeID: ana.NodeID, Mode: common.ModeActionable})
	assert.ErrorIs(t, err, common.ErrValidation, "contact nodes are not deleted through this path")

	_, err = env.engine.DeleteNode(ctx, DeleteNodeRequest{
		TenantID: tenantU1, NodeID: padel.ID, SourceNodeID: bruno.NodeID, Mode: common.ModeActionable,
	})
	assert.ErrorIs(t, err, common.ErrNotFound, "node must be reachable from the source")

	_, err = env.engine.DeleteNode(ctx, DeleteNodeRequest{TenantID: tenantU2, NodeID: padel.ID, Mode: common.ModeActionable})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = env.engine.DeleteNode(ctx, DeleteNodeRequest{TenantID: tenantU1, NodeID: padel.ID, Mode: common.ModeConversational})
	assert.ErrorIs(t, err, common.ErrReadOnly)

	assert.Len(t, env.concepts(tenantU1), 1)
}

func TestDeleteEdgeRejectsReadOnlyMode(t *testing.T) {
	env := newTestEnv(t, nil)
	ana := env.contact(t, tenantU1, "Ana")
	report := env.connect(t, tenantU1, ana, item("Padel", "Hobby", "PRACTICES"))

	_, err := env.engine.DeleteEdge(context.Background(), DeleteEdgeRequest{
		TenantID:     tenantU1,
		EdgeID:       report.Items[0].EdgeID,
		SourceNodeID: ana.NodeID,
		Mode:         common.ModeConversational,
	})

	require.ErrorIs(t, err, common.ErrReadOnly)
	assert.Len(t, env.store.Edges(tenantU1), 1)
}

func TestRandomisedSequencesKeepWeights(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	labels := []string{"Padel", "Chess", "Google", "Paris", "Jazz"}
	contacts := []common.Contact{
		env.contact(t, tenantU1, "Ana"),
		env.contact(t, tenantU1, "Bruno"),
		env.contact(t, tenantU1, "Carla"),
	}

	for round := 0; round < 4; round++ {
		for i, c := range contacts {
			items := []common.Item{}
			for j := i; j < len(labels); j += round%2 + 1 {
				items = append(items, item(labels[j], "Thing", "HAS"))
			}
			env.connect(t, tenantU1, c, items...)
			requireWeightsMatchInDegree(t, env.store, tenantU1)
		}
		for i, c := range contacts {
			if (i+round)%2 == 0 {
				continue
			}
			for _, e := range env.store.Edges(tenantU1) {
				if e.SourceID == c.NodeID {
					deleteEdge(t, env, tenantU1, c, e.ID)
					break
				}
			}
			requireWeightsMatchInDegree(t, env.store, tenantU1)
		}
	}

	_, err := env.engine.DeleteContact(ctx, tenantU1, contacts[0].ID)
	require.NoError(t, err)
	requireWeightsMatchInDegree(t, env.store, tenantU1)
}
