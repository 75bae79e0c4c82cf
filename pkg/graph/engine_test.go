package graph

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panot-hq/edge-backend/pkg/common"
	"github.com/panot-hq/edge-backend/pkg/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultConfig()},
		{name: "equal thresholds", cfg: Config{IdentityThreshold: 0.8, RelatedThreshold: 0.8, SearchLimit: 1}},
		{name: "related above identity", cfg: Config{IdentityThreshold: 0.5, RelatedThreshold: 0.6, SearchLimit: 1}, wantErr: true},
		{name: "zero related", cfg: Config{IdentityThreshold: 0.9, SearchLimit: 1}, wantErr: true},
		{name: "identity above one", cfg: Config{IdentityThreshold: 1.1, RelatedThreshold: 0.5, SearchLimit: 1}, wantErr: true},
		{name: "no search limit", cfg: Config{IdentityThreshold: 0.9, RelatedThreshold: 0.5}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadConfigReadsEnv(t *testing.T) {
	t.Setenv("DEDUP_IDENTITY_THRESHOLD", "0.95")
	t.Setenv("DEDUP_RELATED_THRESHOLD", "0.5")
	t.Setenv("DEDUP_SEARCH_LIMIT", "7")

	cfg := LoadConfig()
	assert.Equal(t, 0.95, cfg.IdentityThreshold)
	assert.Equal(t, 0.5, cfg.RelatedThreshold)
	assert.Equal(t, 7, cfg.SearchLimit)
}

func TestNewEngineRejectsBadInput(t *testing.T) {
	_, err := NewEngine(nil, newFakeEmbedder())
	assert.Error(t, err)
	_, err = NewEngine(memory.New(), nil)
	assert.Error(t, err)
	_, err = NewEngine(memory.New(), newFakeEmbedder(), WithConfig(Config{IdentityThreshold: 0.3, RelatedThreshold: 0.4, SearchLimit: 1}))
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestEngineUsesConfiguredThresholds(t *testing.T) {
	scores := scoreTable{{2, 1}: 0.8}
	cfg := DefaultConfig()
	cfg.IdentityThreshold = 0.75
	env := newTestEnv(t, []memory.Option{memory.WithSimilarityFunc(scores.similarity)}, WithConfig(cfg))
	env.embedder.preset("Padel", 1)
	env.embedder.preset("Pádel", 2)
	ana := env.contact(t, tenantU1, "Ana")

	env.connect(t, tenantU1, ana, item("Padel", "Hobby", "PRACTICES"))
	report := env.connect(t, tenantU1, env.contact(t, tenantU1, "Bruno"), item("Pádel", "Hobby", "PRACTICES"))

	assert.Equal(t, MatchSemantic, report.Items[0].Match)
	assert.Len(t, env.concepts(tenantU1), 1)
}

func TestLocalLockerSerialisesTenant(t *testing.T) {
	l := NewLocalLocker()
	var holders, maxHolders int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithTenantLock(context.Background(), tenantU1, func(context.Context) error {
				n := atomic.AddInt32(&holders, 1)
				for {
					m := atomic.LoadInt32(&maxHolders)
					if n <= m || atomic.CompareAndSwapInt32(&maxHolders, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&holders, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxHolders)
	assert.Empty(t, l.locks)
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker()
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.WithTenantLock(context.Background(), tenantU1, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.WithTenantLock(ctx, tenantU1, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other := l.WithTenantLock(context.Background(), uuid.New(), func(context.Context) error { return nil })
	assert.NoError(t, other, "other tenants are not blocked")
	close(release)
}
