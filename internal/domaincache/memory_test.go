package domaincache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/bulkverify/types"
)

func TestMemoryStore_DeleteStale(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newMemoryStore(func() time.Time { return base }, time.Hour)

	stale := types.DomainRecord{Domain: "example.com", LastChecked: base.Add(-2 * time.Hour)}
	fresh := types.DomainRecord{Domain: "example.com", HasMX: true, LastChecked: base}

	assert.NoError(t, m.Set(ctx, fresh, time.Hour))
	assert.NoError(t, m.DeleteStale(ctx, "example.com", stale.LastChecked))
	rec, ok, _ := m.Get(ctx, "example.com")
	assert.True(t, ok, "a refreshed entry must survive")
	assert.True(t, rec.HasMX)

	assert.NoError(t, m.Set(ctx, stale, time.Hour))
	assert.NoError(t, m.DeleteStale(ctx, "example.com", stale.LastChecked))
	_, ok, _ = m.Get(ctx, "example.com")
	assert.False(t, ok)
}
