package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emRival/GASHub/internal/models"
	"gorm.io/gorm"
)

// Postgres implements Store on top of a gorm connection.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) GetActiveEndpointByAlias(ctx context.Context, alias string) (*models.Endpoint, error) {
	var endpoint models.Endpoint
	err := p.db.WithContext(ctx).
		Where("alias = ? AND is_active = ?", alias, true).
		First(&endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("endpoint lookup failed: %w", err)
	}
	return &endpoint, nil
}

func (p *Postgres) GetActiveAPIKeyByHash(ctx context.Context, hash, ownerUserID string) (*models.APIKey, error) {
	var key models.APIKey
	err := p.db.WithContext(ctx).
		Where("key_hash = ? AND owner_user_id = ? AND is_active = ?", hash, ownerUserID, true).
		First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("api key lookup failed: %w", err)
	}
	return &key, nil
}

func (p *Postgres) InsertLogEntry(ctx context.Context, entry *models.RequestLog) error {
	if err := p.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("log insert failed: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateEndpointLastUsed(ctx context.Context, id string, at time.Time) error {
	return p.db.WithContext(ctx).Model(&models.Endpoint{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (p *Postgres) UpdateKeyLastUsed(ctx context.Context, id string, at time.Time) error {
	return p.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (p *Postgres) GetEndpointByAlias(ctx context.Context, alias string) (*models.Endpoint, error) {
	var endpoint models.Endpoint
	err := p.db.WithContext(ctx).Where("alias = ?", alias).First(&endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("endpoint lookup failed: %w", err)
	}
	return &endpoint, nil
}

func (p *Postgres) CreateEndpoint(ctx context.Context, endpoint *models.Endpoint) error {
	return p.db.WithContext(ctx).Create(endpoint).Error
}

func (p *Postgres) GetEndpointByID(ctx context.Context, id, ownerUserID string) (*models.Endpoint, error) {
	var endpoint models.Endpoint
	err := p.db.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		First(&endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("endpoint lookup failed: %w", err)
	}
	return &endpoint, nil
}

func (p *Postgres) ListEndpoints(ctx context.Context, ownerUserID string) ([]models.Endpoint, error) {
	var endpoints []models.Endpoint
	err := p.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Find(&endpoints).Error
	return endpoints, err
}

// UpdateEndpoint persists owner-facing fields. LastUsedAt is omitted so
// the management surface can never touch it.
func (p *Postgres) UpdateEndpoint(ctx context.Context, endpoint *models.Endpoint) error {
	return p.db.WithContext(ctx).Model(&models.Endpoint{}).
		Where("id = ? AND owner_user_id = ?", endpoint.ID, endpoint.OwnerUserID).
		Select("name", "target_url", "description", "allowed_methods",
			"payload_mapping", "require_api_key", "is_active", "updated_at").
		Updates(endpoint).Error
}

func (p *Postgres) DeleteEndpoint(ctx context.Context, id, ownerUserID string) error {
	result := p.db.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Delete(&models.Endpoint{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	return p.db.WithContext(ctx).Create(key).Error
}

func (p *Postgres) ListAPIKeys(ctx context.Context, ownerUserID string) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := p.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Find(&keys).Error
	return keys, err
}

func (p *Postgres) UpdateAPIKey(ctx context.Context, key *models.APIKey) error {
	return p.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("id = ? AND owner_user_id = ?", key.ID, key.OwnerUserID).
		Select("name", "allowed_endpoint_ids", "is_active", "expires_at").
		Updates(key).Error
}

func (p *Postgres) DeleteAPIKey(ctx context.Context, id, ownerUserID string) error {
	result := p.db.WithContext(ctx).
		Where("id = ? AND owner_user_id = ?", id, ownerUserID).
		Delete(&models.APIKey{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListLogs(ctx context.Context, ownerUserID string, filter LogFilter) ([]models.RequestLog, int64, error) {
	query := p.db.WithContext(ctx).Model(&models.RequestLog{}).
		Where("endpoint_id IN (?)",
			p.db.Model(&models.Endpoint{}).Select("id").Where("owner_user_id = ?", ownerUserID))

	if filter.EndpointID != "" {
		query = query.Where("endpoint_id = ?", filter.EndpointID)
	}
	if filter.Status != 0 {
		query = query.Where("response_status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("log count failed: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	var logs []models.RequestLog
	err := query.Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("log query failed: %w", err)
	}
	return logs, total, nil
}

func (p *Postgres) GetLogByID(ctx context.Context, id, ownerUserID string) (*models.RequestLog, error) {
	var entry models.RequestLog
	err := p.db.WithContext(ctx).
		Where("id = ? AND endpoint_id IN (?)", id,
			p.db.Model(&models.Endpoint{}).Select("id").Where("owner_user_id = ?", ownerUserID)).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("log lookup failed: %w", err)
	}
	return &entry, nil
}

func (p *Postgres) ListLogsBetween(ctx context.Context, from, to time.Time, limit int) ([]models.RequestLog, error) {
	var logs []models.RequestLog
	err := p.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

func (p *Postgres) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
