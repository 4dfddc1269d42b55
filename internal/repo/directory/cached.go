package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stratoslabs/dircore/internal/auth"
	"github.com/stratoslabs/dircore/internal/models"
	"github.com/stratoslabs/dircore/pkg/cache"
	"github.com/stratoslabs/dircore/pkg/logger"
)

// Invalidator evicts stale cached principal views after a write. Eviction is
// best-effort: failures are logged and never fail the calling operation.
type Invalidator interface {
	InvalidatePrincipals(ctx context.Context, ids []uint32)
}

// CachedStore decorates a Store with a Valkey-backed read cache. Reads go
// through principal:<id> keys; writes pass through untouched and callers
// invalidate the changed-principal set reported by each creation.
type CachedStore struct {
	store  Store
	cache  cache.Valkey
	logger logger.Logger
	ttl    time.Duration
}

func NewCachedStore(store Store, valkey cache.Valkey, log logger.Logger, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{store: store, cache: valkey, logger: log, ttl: ttl}
}

func principalKey(id uint32) string {
	return fmt.Sprintf("principal:%d", id)
}

func (c *CachedStore) CreatePrincipal(ctx context.Context, p models.Principal, parentID *uint32, permissions auth.PermissionSet) (CreationResult, error) {
	return c.store.CreatePrincipal(ctx, p, parentID, permissions)
}

func (c *CachedStore) GetPrincipal(ctx context.Context, id uint32) (*StoredPrincipal, error) {
	key := principalKey(id)
	if data, err := c.cache.Get(ctx, key); err == nil {
		var p StoredPrincipal
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		c.logger.Warn("Dropping undecodable cached principal", "key", key)
		_ = c.cache.Delete(ctx, key)
	}

	p, err := c.store.GetPrincipal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, p, c.ttl); err != nil {
		c.logger.Warn("Failed to cache principal", "id", id, "error", err)
	}
	return p, nil
}

func (c *CachedStore) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// InvalidatePrincipals evicts the cached views for every id in the
// changed-principal set of a write.
func (c *CachedStore) InvalidatePrincipals(ctx context.Context, ids []uint32) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, principalKey(id))
	}
	if err := c.cache.DeleteMultiple(ctx, keys); err != nil {
		c.logger.Warn("Failed to invalidate principal caches", "ids", ids, "error", err)
	}
}
