package keyauth

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

type fakeKeyStore struct {
	mu      sync.Mutex
	keys    map[string]*models.APIKey // hash -> key
	touched []string
}

func (f *fakeKeyStore) GetActiveAPIKeyByHash(ctx context.Context, hash, ownerUserID string) (*models.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.keys[hash]
	if !ok || key.OwnerUserID != ownerUserID || !key.IsActive {
		return nil, store.ErrNotFound
	}
	copied := *key
	return &copied, nil
}

func (f *fakeKeyStore) UpdateKeyLastUsed(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

func newAuthorizer(t *testing.T, keys ...*models.APIKey) (*Authorizer, *fakeKeyStore, *background.Runner) {
	t.Helper()
	fake := &fakeKeyStore{keys: make(map[string]*models.APIKey)}
	for _, key := range keys {
		fake.keys[key.KeyHash] = key
	}
	tasks := background.NewRunner(logrus.New(), time.Second)
	return New(logrus.New(), fake, tasks), fake, tasks
}

func testEndpoint() *models.Endpoint {
	return &models.Endpoint{ID: "ep-1", OwnerUserID: "user-1", RequireAPIKey: true}
}

func TestAuthorizeMissingKey(t *testing.T) {
	auth, _, _ := newAuthorizer(t)

	result, err := auth.Authorize(context.Background(), "", testEndpoint())
	require.NoError(t, err)
	assert.Equal(t, MissingKey, result)
}

func TestAuthorizeUnknownKey(t *testing.T) {
	auth, _, _ := newAuthorizer(t)

	result, err := auth.Authorize(context.Background(), "sk_live_unknown", testEndpoint())
	require.NoError(t, err)
	assert.Equal(t, InvalidKey, result)
}

func TestAuthorizeWrongOwner(t *testing.T) {
	auth, _, _ := newAuthorizer(t, &models.APIKey{
		ID:          "key-1",
		OwnerUserID: "someone-else",
		KeyHash:     HashKey("sk_live_abc"),
		IsActive:    true,
	})

	result, err := auth.Authorize(context.Background(), "sk_live_abc", testEndpoint())
	require.NoError(t, err)
	assert.Equal(t, InvalidKey, result)
}

func TestAuthorizeInactiveKey(t *testing.T) {
	auth, _, _ := newAuthorizer(t, &models.APIKey{
		ID:          "key-1",
		OwnerUserID: "user-1",
		KeyHash:     HashKey("sk_live_abc"),
		IsActive:    false,
	})

	result, err := auth.Authorize(context.Background(), "sk_live_abc", testEndpoint())
	require.NoError(t, err)
	assert.Equal(t, InvalidKey, result)
}

func TestAuthorizeExpiredKey(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	auth, _, _ := newAuthorizer(t, &models.APIKey{
		ID:          "key-1",
		OwnerUserID: "user-1",
		KeyHash:     HashKey("sk_live_abc"),
		IsActive:    true,
		ExpiresAt:   &expired,
	})

	result, err := auth.Authorize(context.Background(), "sk_live_abc", testEndpoint())
	require.NoError(t, err)
	assert.Equal(t, InvalidKey, result)
}

func TestAuthorizeScopeDenied(t *testing.T) {
	auth, _, _ := newAuthorizer(t, &models.APIKey{
		ID:                 "key-1",
		OwnerUserID:        "user-1",
		KeyHash:            HashKey("sk_live_abc"),
		AllowedEndpointIDs: []string{"ep-2", "ep-3"},
		IsActive:           true,
	})

	result, err := auth.Authorize(context.Background(), "sk_live_abc", testEndpoint())
	require.NoError(t, err)
	assert.Equal(t, ScopeDenied, result)
}

func TestAuthorizeScopedKeyCoveringEndpoint(t *testing.T) {
	auth, fake, tasks := newAuthorizer(t, &models.APIKey{
		ID:                 "key-1",
		OwnerUserID:        "user-1",
		KeyHash:            HashKey("sk_live_abc"),
		AllowedEndpointIDs: []string{"ep-1"},
		IsActive:           true,
	})

	result, err := auth.Authorize(context.Background(), "sk_live_abc", testEndpoint())
	require.NoError(t, err)
	assert.Equal(t, Authorized, result)

	require.NoError(t, tasks.Wait(context.Background()))
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"key-1"}, fake.touched)
}

func TestAuthorizeGlobalKey(t *testing.T) {
	auth, _, _ := newAuthorizer(t, &models.APIKey{
		ID:          "key-1",
		OwnerUserID: "user-1",
		KeyHash:     HashKey("sk_live_abc"),
		IsActive:    true,
	})

	result, err := auth.Authorize(context.Background(), "sk_live_abc", testEndpoint())
	require.NoError(t, err)
	assert.Equal(t, Authorized, result)
}

func TestHashKeyIsOneWay(t *testing.T) {
	hash := HashKey("sk_live_secret")
	assert.NotEqual(t, "sk_live_secret", hash)
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, HashKey("sk_live_secret"))
	assert.NotEqual(t, hash, HashKey("sk_live_Secret"))
}
