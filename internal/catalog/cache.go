package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/packfinderz-pos/pkg/logger"
	"github.com/angelmondragon/packfinderz-pos/pkg/redis"
)

// CachedLookup serves catalog queries from Redis before asking the upstream
// lookup. Cache failures degrade to a direct upstream call.
type CachedLookup struct {
	upstream Lookup
	store    redis.CatalogStore
	ttl      time.Duration
	logg     *logger.Logger
}

func NewCachedLookup(upstream Lookup, store redis.CatalogStore, ttl time.Duration, logg *logger.Logger) *CachedLookup {
	return &CachedLookup{upstream: upstream, store: store, ttl: ttl, logg: logg}
}

func (c *CachedLookup) Products(ctx context.Context, q Query) ([]Product, error) {
	if c.store == nil || c.ttl <= 0 {
		return c.upstream.Products(ctx, q)
	}

	gen, err := c.store.CatalogGeneration(ctx, q.StoreID)
	if err != nil {
		c.warn(ctx, "catalog cache generation unavailable", err)
		return c.upstream.Products(ctx, q)
	}
	key := c.store.CatalogKey(q.StoreID, gen, queryDigest(q))

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached []Product
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached, nil
		}
		c.warn(ctx, "discarding malformed catalog cache entry", nil)
	case !errors.Is(err, redis.Nil):
		c.warn(ctx, "catalog cache read failed", err)
	}

	products, err := c.upstream.Products(ctx, q)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(products); err == nil {
		if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
			c.warn(ctx, "catalog cache write failed", err)
		}
	}
	return products, nil
}

// Invalidate drops every cached snapshot for the store.
func (c *CachedLookup) Invalidate(ctx context.Context, storeID string) error {
	if c.store == nil {
		return nil
	}
	_, err := c.store.BumpCatalogGeneration(ctx, storeID)
	return err
}

func (c *CachedLookup) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	if err != nil {
		ctx = c.logg.WithField(ctx, "error", err.Error())
	}
	c.logg.Warn(ctx, msg)
}

func queryDigest(q Query) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(q.Category)),
		strings.ToLower(strings.TrimSpace(q.Search)),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:8])
}
