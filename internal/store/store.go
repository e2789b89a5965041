package store

import (
	"context"
	"errors"
	"time"

	"github.com/emRival/GASHub/internal/models"
)

// ErrNotFound is returned when a lookup matches no row. Callers must
// not be able to tell a missing record from an inactive one.
var ErrNotFound = errors.New("store: not found")

// LogFilter narrows log listings. Zero values mean "no constraint".
type LogFilter struct {
	EndpointID string
	Status     int
	Limit      int
	Offset     int
}

// Store is the persistence contract the service runs against. The
// repeater path uses only the first five methods; everything below
// serves the management API, health checks and the archiver.
type Store interface {
	GetActiveEndpointByAlias(ctx context.Context, alias string) (*models.Endpoint, error)
	GetActiveAPIKeyByHash(ctx context.Context, hash, ownerUserID string) (*models.APIKey, error)
	InsertLogEntry(ctx context.Context, entry *models.RequestLog) error
	UpdateEndpointLastUsed(ctx context.Context, id string, at time.Time) error
	UpdateKeyLastUsed(ctx context.Context, id string, at time.Time) error

	GetEndpointByAlias(ctx context.Context, alias string) (*models.Endpoint, error)
	CreateEndpoint(ctx context.Context, endpoint *models.Endpoint) error
	GetEndpointByID(ctx context.Context, id, ownerUserID string) (*models.Endpoint, error)
	ListEndpoints(ctx context.Context, ownerUserID string) ([]models.Endpoint, error)
	UpdateEndpoint(ctx context.Context, endpoint *models.Endpoint) error
	DeleteEndpoint(ctx context.Context, id, ownerUserID string) error

	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, ownerUserID string) ([]models.APIKey, error)
	UpdateAPIKey(ctx context.Context, key *models.APIKey) error
	DeleteAPIKey(ctx context.Context, id, ownerUserID string) error

	ListLogs(ctx context.Context, ownerUserID string, filter LogFilter) ([]models.RequestLog, int64, error)
	GetLogByID(ctx context.Context, id, ownerUserID string) (*models.RequestLog, error)
	ListLogsBetween(ctx context.Context, from, to time.Time, limit int) ([]models.RequestLog, error)

	Ping(ctx context.Context) error
}
