// internal/service/catalog_loader.go

// Package service wires the pure engine to the repositories: it loads
// snapshots, invokes the engine, and persists what comes back. All decisions
// stay inside the engine packages; everything here is plumbing.
package service

import (
	"context"

	"immunization-engine/internal/common/logger"
	"immunization-engine/internal/engine/catalog"
	"immunization-engine/internal/storage"
)

// CatalogLoader builds the in-memory catalog from storage, with a Redis
// cache in front of PostgreSQL.
type CatalogLoader struct {
	schedule storage.ScheduleRepository
	cache    *storage.CatalogCache
	logger   logger.Logger
}

func NewCatalogLoader(schedule storage.ScheduleRepository, cache *storage.CatalogCache, log logger.Logger) *CatalogLoader {
	return &CatalogLoader{
		schedule: schedule,
		cache:    cache,
		logger:   log.WithFields(map[string]interface{}{"component": "catalog-loader"}),
	}
}

// EnsureSeeded seeds the national schedule when the catalog table is empty.
// Safe to call from every process at startup: reruns are no-ops.
func (l *CatalogLoader) EnsureSeeded(ctx context.Context) error {
	seeded, err := l.schedule.Seed(ctx, catalog.DefaultVaccines(), catalog.DefaultEntries())
	if err != nil {
		return err
	}
	if seeded {
		l.logger.Info("national schedule seeded", map[string]interface{}{
			"vaccines": len(catalog.DefaultVaccines()),
			"entries":  len(catalog.DefaultEntries()),
		})
		if l.cache != nil {
			if err := l.cache.Invalidate(ctx); err != nil {
				l.logger.Warn("catalog cache invalidation failed", map[string]interface{}{"error": err})
			}
		}
	}
	return nil
}

// Load returns a validated catalog, preferring the cache.
func (l *CatalogLoader) Load(ctx context.Context) (*catalog.Catalog, error) {
	if l.cache != nil {
		if vaccines, entries, ok := l.cache.Get(ctx); ok {
			if cat, err := catalog.New(vaccines, entries); err == nil {
				return cat, nil
			}
			// A cached catalog that fails validation is stale or corrupt;
			// fall through to the database.
			l.logger.Warn("cached catalog invalid, reloading from database", nil)
		}
	}

	vaccines, err := l.schedule.LoadVaccines(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := l.schedule.LoadEntries(ctx)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(vaccines, entries)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, vaccines, entries); err != nil {
			l.logger.Warn("catalog cache write failed", map[string]interface{}{"error": err})
		}
	}
	return cat, nil
}
