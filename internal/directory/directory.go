// Package directory resolves public aliases to endpoint configurations.
package directory

import (
	"context"
	"errors"
	"time"

	"github.com/emRival/GASHub/internal/background"
	"github.com/emRival/GASHub/internal/metrics"
	"github.com/emRival/GASHub/internal/models"
	"github.com/emRival/GASHub/internal/store"
	"github.com/sirupsen/logrus"
)

// ErrNotFound covers both unknown and deactivated aliases; callers
// cannot tell the two apart.
var ErrNotFound = errors.New("directory: endpoint not found")

// Store is the slice of the persistence contract the directory needs.
type Store interface {
	GetActiveEndpointByAlias(ctx context.Context, alias string) (*models.Endpoint, error)
	UpdateEndpointLastUsed(ctx context.Context, id string, at time.Time) error
}

type Directory struct {
	store Store
	cache *Cache
	tasks *background.Runner
	log   *logrus.Entry
}

func New(logger *logrus.Logger, s Store, cache *Cache, tasks *background.Runner) *Directory {
	return &Directory{
		store: s,
		cache: cache,
		tasks: tasks,
		log:   logger.WithField("component", "directory"),
	}
}

// Resolve returns the active endpoint registered under alias. Within
// the cache TTL no store access happens. Failed lookups are never
// cached; concurrent misses for one alias may each hit the store, which
// is harmless.
func (d *Directory) Resolve(ctx context.Context, alias string) (*models.Endpoint, error) {
	if endpoint, ok := d.cache.Get(alias); ok {
		metrics.CacheHits.Inc()
		return endpoint, nil
	}
	metrics.CacheMisses.Inc()

	endpoint, err := d.store.GetActiveEndpointByAlias(ctx, alias)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	d.cache.Set(alias, endpoint)
	return endpoint, nil
}

// TouchLastUsed schedules a last_used_at update for the endpoint. The
// write happens off the request path and its failure is only logged.
func (d *Directory) TouchLastUsed(id string) {
	now := time.Now()
	d.tasks.Go("endpoint_touch", func(ctx context.Context) error {
		return d.store.UpdateEndpointLastUsed(ctx, id, now)
	})
}
