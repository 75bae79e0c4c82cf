package summary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/panot-hq/edge-backend/pkg/ai"
	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/store"
	"github.com/panot-hq/edge-backend/pkg/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tenant = uuid.MustParse("3f0c2b1a-6d7e-4f80-9a1b-2c3d4e5f6a70")

type fakeCompleter struct {
	mu      sync.Mutex
	prompts []string
	answer  string
	err     error
	// failures makes the first n calls fail with a transient error.
	failures int
}

func (f *fakeCompleter) GenerateCompletionWithFormat(
	_ context.Context,
	_ string,
	_ string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return f.err
	}
	if f.failures > 0 {
		f.failures--
		return errors.New("transient")
	}
	o := ai.NewOptions(ai.GenerateOptions{}, opts...)
	if len(o.SystemPrompts) == 0 {
		return errors.New("missing system prompt")
	}
	return ai.UnmarshalFlexible(f.answer, out)
}

type fixture struct {
	st      *memory.Store
	contact common.Contact
	node    common.Node
}

// newFixture creates a contact with one concept per label, linked with
// relation LIKES.
func newFixture(t *testing.T, labels ...string) fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	var f fixture
	f.st = st
	err := st.WithTx(ctx, func(tx store.Tx) error {
		node, err := tx.CreateNode(ctx, common.Node{
			ID:    uuid.New(), TenantID: tenant, Kind: common.KindContact,
			Label: "Ana Test", Category: common.ContactCategory, Weight: 1,
		})
		if err != nil {
			return err
		}
		f.node = node
		f.contact, err = tx.CreateContact(ctx, common.Contact{
			ID: uuid.New(), TenantID: tenant, NodeID: node.ID, FirstName: "Ana", LastName: "Test",
		})
		if err != nil {
			return err
		}
		for _, l := range labels {
			concept, err := tx.CreateNode(ctx, common.Node{
				ID:    uuid.New(), TenantID: tenant, Kind: common.KindConcept,
				Label: l, Category: "Hobby", Weight: 1,
			})
			if err != nil {
				return err
			}
			if _, err := tx.CreateEdge(ctx, common.Edge{
				ID: uuid.New(), TenantID: tenant, SourceID: node.ID, TargetID: concept.ID, RelationType: "LIKES",
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return f
}

func (f fixture) summary(t *testing.T) string {
	t.Helper()
	var got common.Contact
	require.NoError(t, f.st.WithTx(context.Background(), func(tx store.Tx) error {
		var err error
		got, err = tx.GetContact(context.Background(), tenant, f.contact.ID)
		return err
	}))
	return got.Summary
}

func TestRegenerateWritesModelSummary(t *testing.T) {
	f := newFixture(t, "Padel", "Chess")
	client := &fakeCompleter{answer: `{"summary": "  They like padel and chess. "}`}

	require.NoError(t, New(f.st, client).Regenerate(context.Background(), tenant, f.node.ID))

	assert.Equal(t, "They like padel and chess.", f.summary(t))
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "- LIKES: Padel (Hobby)\n- LIKES: Chess (Hobby)")
	assert.NotContains(t, client.prompts[0], "Ana")
}

func TestRegenerateRetriesTransientFailure(t *testing.T) {
	f := newFixture(t, "Padel")
	client := &fakeCompleter{answer: `{"summary": "They play padel."}`, failures: 1}

	require.NoError(t, New(f.st, client).Regenerate(context.Background(), tenant, f.node.ID))
	assert.Equal(t, "They play padel.", f.summary(t))
	assert.Len(t, client.prompts, 2)

	client = &fakeCompleter{answer: `{"summary": "unused"}`, failures: 1}
	err := New(f.st, client, WithAttempts(1)).Regenerate(context.Background(), tenant, f.node.ID)
	assert.ErrorIs(t, err, common.ErrUpstream)
}

func TestRegenerateClearsSummaryWithoutFacts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.st.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.SetContactSummary(context.Background(), tenant, f.contact.ID, "stale")
	}))
	client := &fakeCompleter{answer: `{"summary": "never used"}`}

	require.NoError(t, New(f.st, client).Regenerate(context.Background(), tenant, f.node.ID))

	assert.Empty(t, f.summary(t))
	assert.Empty(t, client.prompts)
}

func TestRegenerateUpstreamFailureKeepsOldSummary(t *testing.T) {
	f := newFixture(t, "Padel")
	require.NoError(t, f.st.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.SetContactSummary(context.Background(), tenant, f.contact.ID, "previous")
	}))

	tests := []struct {
		name   string
		client *fakeCompleter
	}{
		{name: "model error", client: &fakeCompleter{err: errors.New("rate limited")}},
		{name: "empty answer", client: &fakeCompleter{answer: `{"summary": "   "}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(f.st, tt.client).Regenerate(context.Background(), tenant, f.node.ID)
			assert.ErrorIs(t, err, common.ErrUpstream)
			assert.Equal(t, "previous", f.summary(t))
		})
	}
}

func TestRegenerateUnknownNode(t *testing.T) {
	f := newFixture(t, "Padel")
	err := New(f.st, &fakeCompleter{}).Regenerate(context.Background(), tenant, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRegenerateTrimsToTokenBudget(t *testing.T) {
	f := newFixture(t, "Padel", "Chess", "Jazz")
	client := &fakeCompleter{answer: `{"summary": "They like padel."}`}
	words := func(s string) int { return len(strings.Fields(s)) }

	// each rendered line is four words plus one separator token
	r := New(f.st, client, WithTokenCounter(words), WithTokenBudget(10))
	require.NoError(t, r.Regenerate(context.Background(), tenant, f.node.ID))

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Chess")
	assert.NotContains(t, client.prompts[0], "Jazz")
}

func TestRenderFacts(t *testing.T) {
	lines := RenderFacts([]common.Neighbor{{
		Edge: common.Edge{RelationType: "WORKS_AT"},
		Node: common.Node{Label: "Google", Category: "Employer"},
	}})
	assert.Equal(t, []string{"- WORKS_AT: Google (Employer)"}, lines)
}
