// internal/storage/cache.go
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"immunization-engine/internal/models"
)

const (
	catalogCacheKey = "catalog:v1"
	catalogCacheTTL = 15 * time.Minute
)

type catalogPayload struct {
	Vaccines []models.Vaccine       `json:"vaccines"`
	Entries  []models.ScheduleEntry `json:"entries"`
}

// CatalogCache keeps the schedule catalog in Redis so the daily pass and the
// validators do not reload it from PostgreSQL on every invocation. A cache
// miss or decode failure falls through to the database; the cache is never
// authoritative.
type CatalogCache struct {
	client *redis.Client
}

func NewCatalogCache(client *redis.Client) *CatalogCache {
	return &CatalogCache{client: client}
}

// Get returns the cached catalog data, or ok=false on any miss or error.
func (c *CatalogCache) Get(ctx context.Context) ([]models.Vaccine, []models.ScheduleEntry, bool) {
	val, err := c.client.Get(ctx, catalogCacheKey).Result()
	if err != nil {
		return nil, nil, false
	}
	var payload catalogPayload
	if err := json.Unmarshal([]byte(val), &payload); err != nil {
		return nil, nil, false
	}
	return payload.Vaccines, payload.Entries, true
}

// Set stores the catalog data with the standard TTL. Errors are returned for
// logging but callers treat the cache as best-effort.
func (c *CatalogCache) Set(ctx context.Context, vaccines []models.Vaccine, entries []models.ScheduleEntry) error {
	data, err := json.Marshal(catalogPayload{Vaccines: vaccines, Entries: entries})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogCacheKey, data, catalogCacheTTL).Err()
}

// Invalidate drops the cached catalog, forcing the next load to hit PostgreSQL.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, catalogCacheKey).Err()
}
