// Package keyauth validates forwarding API keys. Raw keys are never
// stored, logged or compared directly; only their SHA-256 digest is.
package keyauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/emRival/GASHub/internal/background"
	"github.com/emRival/GASHub/internal/models"
	"github.com/emRival/GASHub/internal/store"
	"github.com/sirupsen/logrus"
)

type Result int

const (
	// Authorized means the key is active, owned by the endpoint's owner
	// and scoped to cover the endpoint.
	Authorized Result = iota
	MissingKey
	InvalidKey
	ScopeDenied
)

// Store is the slice of the persistence contract the authorizer needs.
type Store interface {
	GetActiveAPIKeyByHash(ctx context.Context, hash, ownerUserID string) (*models.APIKey, error)
	UpdateKeyLastUsed(ctx context.Context, id string, at time.Time) error
}

type Authorizer struct {
	store Store
	tasks *background.Runner
	log   *logrus.Entry
}

func New(logger *logrus.Logger, s Store, tasks *background.Runner) *Authorizer {
	return &Authorizer{
		store: s,
		tasks: tasks,
		log:   logger.WithField("component", "keyauth"),
	}
}

// HashKey computes the one-way digest under which keys are persisted.
func HashKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// Authorize checks rawKey against the endpoint's owner. A non-nil error
// means the store failed, not that the key was rejected. On success the
// key's last_used_at update is scheduled off the request path.
func (a *Authorizer) Authorize(ctx context.Context, rawKey string, endpoint *models.Endpoint) (Result, error) {
	if rawKey == "" {
		return MissingKey, nil
	}

	key, err := a.store.GetActiveAPIKeyByHash(ctx, HashKey(rawKey), endpoint.OwnerUserID)
	if errors.Is(err, store.ErrNotFound) {
		return InvalidKey, nil
	}
	if err != nil {
		return InvalidKey, err
	}

	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return InvalidKey, nil
	}

	if !key.AllowsEndpoint(endpoint.ID) {
		return ScopeDenied, nil
	}

	now := time.Now()
	a.tasks.Go("key_touch", func(ctx context.Context) error {
		return a.store.UpdateKeyLastUsed(ctx, key.ID, now)
	})

	return Authorized, nil
}
