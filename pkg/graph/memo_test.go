package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/panot-hq/edge-backend/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoCachesByLabelAndCategory(t *testing.T) {
	emb := newFakeEmbedder()
	memo := NewMemo(emb, 4)
	ctx := context.Background()

	a, err := memo.Get(ctx, item("Padel", "Hobby", "PRACTICES"))
	require.NoError(t, err)
	b, err := memo.Get(ctx, item(" padel", "HOBBY ", "LOVES"))
	require.NoError(t, err)
	_, err = memo.Get(ctx, item("Padel", "Sport", "PLAYS"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 2, memo.Calls())
}

func TestMemoRemembersFailures(t *testing.T) {
	emb := newFakeEmbedder()
	emb.fail["padel"] = errors.New("quota exceeded")
	memo := NewMemo(emb, 2)
	ctx := context.Background()

	require.NoError(t, memo.Prefetch(ctx, []common.Item{
		item("Padel", "Hobby", "PRACTICES"),
		item("Chess", "Hobby", "PLAYS"),
	}))

	_, err := memo.Get(ctx, item("PADEL", "hobby", "LIKES"))
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.Equal(t, 2, memo.Calls())
}

func TestMemoConcurrentGetEmbedsOnce(t *testing.T) {
	emb := newFakeEmbedder()
	memo := NewMemo(emb, 8)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := memo.Get(context.Background(), item("Jazz", "Music", "LISTENS"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, emb.callCount())
}

func TestMemoPrefetchStopsOnCancel(t *testing.T) {
	memo := NewMemo(newFakeEmbedder(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := memo.Prefetch(ctx, []common.Item{item("Padel", "Hobby", "PRACTICES")})
	assert.ErrorIs(t, err, context.Canceled)
}

// batchingEmbedder adds a batch endpoint to fakeEmbedder.
type batchingEmbedder struct {
	*fakeEmbedder
	batches  [][]string
	batchErr error
}

func (b *batchingEmbedder) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	texts := make([]string, len(inputs))
	for i, in := range inputs {
		texts[i] = string(in)
	}
	b.batches = append(b.batches, texts)
	if b.batchErr != nil {
		return nil, b.batchErr
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if embedLabel(string(in)) == "empty" {
			out[i] = []float32{}
			continue
		}
		vec, err := b.fakeEmbedder.GenerateEmbedding(ctx, in)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func TestMemoPrefetchBatchesDistinctKeys(t *testing.T) {
	emb := &batchingEmbedder{fakeEmbedder: newFakeEmbedder()}
	memo := NewMemo(emb, 4)
	ctx := context.Background()

	require.NoError(t, memo.Prefetch(ctx, []common.Item{
		item("Padel", "Hobby", "PRACTICES"),
		item("padel", "hobby", "LOVES"),
		item("Chess", "Hobby", "PLAYS"),
		item("Empty", "Hobby", "HAS"),
	}))

	require.Len(t, emb.batches, 1)
	assert.Equal(t, []string{
		"Padel | Hobby | PRACTICES",
		"Chess | Hobby | PLAYS",
		"Empty | Hobby | HAS",
	}, emb.batches[0])
	assert.Equal(t, 1, memo.Calls())

	calls := emb.callCount()
	_, err := memo.Get(ctx, item("PADEL", "Hobby", "LIKES"))
	require.NoError(t, err)
	_, err = memo.Get(ctx, item("Empty", "Hobby", "HAS"))
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.Equal(t, calls, emb.callCount(), "served from the batch")

	require.NoError(t, memo.Prefetch(ctx, []common.Item{item("Chess", "Hobby", "PLAYS"), item("Padel", "Hobby", "PRACTICES")}))
	assert.Len(t, emb.batches, 1, "known keys are not embedded again")
}

func TestMemoPrefetchFallsBackWhenBatchFails(t *testing.T) {
	emb := &batchingEmbedder{fakeEmbedder: newFakeEmbedder(), batchErr: errors.New("payload too large")}
	memo := NewMemo(emb, 2)

	require.NoError(t, memo.Prefetch(context.Background(), []common.Item{
		item("Padel", "Hobby", "PRACTICES"),
		item("Chess", "Hobby", "PLAYS"),
	}))

	assert.Len(t, emb.batches, 1)
	assert.Equal(t, 2, emb.callCount())
	assert.Equal(t, 3, memo.Calls())
	_, err := memo.Get(context.Background(), item("Chess", "Hobby", "PLAYS"))
	assert.NoError(t, err)
}
