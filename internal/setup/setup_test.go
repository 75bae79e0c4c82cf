package setup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAIClientRejectsUnknownAdapter(t *testing.T) {
	t.Setenv("AI_ADAPTER", "carrier-pigeon")
	_, err := NewAIClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNewAIClientDefaultsToOpenAI(t *testing.T) {
	t.Setenv("AI_ADAPTER", "")
	t.Setenv("AI_EMBED_MODEL", "text-embedding-3-small")
	client, err := NewAIClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestLeaseOptionsReadEnv(t *testing.T) {
	t.Setenv("LOCK_TTL", "45s")
	opts := LeaseOptions()
	assert.Equal(t, "45s", opts.TTL.String())
	assert.True(t, opts.Wait)
	assert.Less(t, opts.RenewEvery, opts.TTL)
}

func TestMigrationsSource(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/srv/migrations")
	assert.Equal(t, "file:///srv/migrations", migrationsSource())
}

func TestLockPrefixesDiffer(t *testing.T) {
	assert.NotEqual(t, GraphLockPrefix, JobsLockPrefix)
}
