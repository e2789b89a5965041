package directory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/emRival/GASHub/internal/background"
	"github.com/emRival/GASHub/internal/models"
	"github.com/emRival/GASHub/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEndpointStore struct {
	mu        sync.Mutex
	endpoints map[string]*models.Endpoint
	lookups   int
	touched   []string
}

func (f *fakeEndpointStore) GetActiveEndpointByAlias(ctx context.Context, alias string) (*models.Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	endpoint, ok := f.endpoints[alias]
	if !ok || !endpoint.IsActive {
		return nil, store.ErrNotFound
	}
	copied := *endpoint
	return &copied, nil
}

func (f *fakeEndpointStore) UpdateEndpointLastUsed(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeEndpointStore) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

func newDirectory(ttl time.Duration, endpoints ...*models.Endpoint) (*Directory, *fakeEndpointStore, *background.Runner) {
	fake := &fakeEndpointStore{endpoints: make(map[string]*models.Endpoint)}
	for _, endpoint := range endpoints {
		fake.endpoints[endpoint.Alias] = endpoint
	}
	tasks := background.NewRunner(logrus.New(), time.Second)
	return New(logrus.New(), fake, NewCache(ttl), tasks), fake, tasks
}

func TestResolveCachesWithinTTL(t *testing.T) {
	dir, fake, _ := newDirectory(time.Minute, &models.Endpoint{
		ID: "ep-1", Alias: "my-sheet", IsActive: true,
	})

	for i := 0; i < 5; i++ {
		endpoint, err := dir.Resolve(context.Background(), "my-sheet")
		require.NoError(t, err)
		assert.Equal(t, "ep-1", endpoint.ID)
	}

	assert.Equal(t, 1, fake.lookupCount(), "cache hits must not reach the store")
}

func TestResolveZeroTTLAlwaysQueriesStore(t *testing.T) {
	dir, fake, _ := newDirectory(0, &models.Endpoint{
		ID: "ep-1", Alias: "my-sheet", IsActive: true,
	})

	for i := 0; i < 3; i++ {
		_, err := dir.Resolve(context.Background(), "my-sheet")
		require.NoError(t, err)
	}

	assert.Equal(t, 3, fake.lookupCount())
}

func TestResolveDoesNotCacheFailures(t *testing.T) {
	dir, fake, _ := newDirectory(time.Minute)

	_, err := dir.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	// The alias is created between the two calls; it must resolve
	// immediately because the earlier miss was not cached.
	fake.mu.Lock()
	fake.endpoints["nope"] = &models.Endpoint{ID: "ep-9", Alias: "nope", IsActive: true}
	fake.mu.Unlock()

	endpoint, err := dir.Resolve(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, "ep-9", endpoint.ID)
}

func TestResolveInactiveLooksLikeMissing(t *testing.T) {
	dir, _, _ := newDirectory(time.Minute, &models.Endpoint{
		ID: "ep-1", Alias: "paused", IsActive: false,
	})

	_, err := dir.Resolve(context.Background(), "paused")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveServesStaleUntilExpiry(t *testing.T) {
	dir, fake, _ := newDirectory(50*time.Millisecond, &models.Endpoint{
		ID: "ep-1", Alias: "my-sheet", IsActive: true,
	})

	_, err := dir.Resolve(context.Background(), "my-sheet")
	require.NoError(t, err)

	// Deactivation is invisible until the entry expires.
	fake.mu.Lock()
	fake.endpoints["my-sheet"].IsActive = false
	fake.mu.Unlock()

	_, err = dir.Resolve(context.Background(), "my-sheet")
	require.NoError(t, err, "stale entry still serves within the TTL")

	time.Sleep(60 * time.Millisecond)
	_, err = dir.Resolve(context.Background(), "my-sheet")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTouchLastUsedRunsInBackground(t *testing.T) {
	dir, fake, tasks := newDirectory(time.Minute)

	dir.TouchLastUsed("ep-1")
	require.NoError(t, tasks.Wait(context.Background()))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"ep-1"}, fake.touched)
}
