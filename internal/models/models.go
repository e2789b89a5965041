package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Endpoint maps a public alias to a downstream target URL. The alias is
// the routing identity and never changes after creation; LastUsedAt is
// written only by repeater traffic, never by the management API.
type Endpoint struct {
	ID             string         `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerUserID    string         `gorm:"not null;index" json:"owner_user_id"`
	Name           string         `gorm:"not null" json:"name"`
	Alias          string         `gorm:"not null;uniqueIndex" json:"alias"`
	TargetURL      string         `gorm:"not null" json:"target_url"`
	Description    string         `gorm:"type:text" json:"description"`
	AllowedMethods pq.StringArray `gorm:"type:text[]" json:"allowed_methods"`
	PayloadMapping datatypes.JSONMap `gorm:"type:jsonb" json:"payload_mapping"`
	RequireAPIKey  bool           `gorm:"not null;default:false" json:"require_api_key"`
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	LastUsedAt     *time.Time     `json:"last_used_at"`
}

// Methods returns the allow-list, defaulting to POST-only.
func (e *Endpoint) Methods() []string {
	if len(e.AllowedMethods) == 0 {
		return []string{"POST"}
	}
	return e.AllowedMethods
}

// MappingTable converts the stored jsonb mapping into a plain
// source-to-target rename table, dropping non-string values.
func (e *Endpoint) MappingTable() map[string]string {
	if len(e.PayloadMapping) == 0 {
		return nil
	}
	mapping := make(map[string]string, len(e.PayloadMapping))
	for source, target := range e.PayloadMapping {
		if t, ok := target.(string); ok && t != "" {
			mapping[source] = t
		}
	}
	return mapping
}

// APIKey holds the one-way hash of a forwarding credential. The raw
// secret is generated once at creation and never persisted.
type APIKey struct {
	ID                 string         `gorm:"primaryKey;type:uuid" json:"id"`
	OwnerUserID        string         `gorm:"not null;index" json:"owner_user_id"`
	Name               string         `gorm:"not null" json:"name"`
	KeyHash            string         `gorm:"not null;uniqueIndex" json:"-"`
	KeyPrefix          string         `gorm:"not null" json:"key_prefix"`
	AllowedEndpointIDs pq.StringArray `gorm:"type:text[]" json:"allowed_endpoint_ids"`
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	LastUsedAt         *time.Time     `json:"last_used_at"`
	CreatedAt          time.Time      `json:"created_at"`
}

// AllowsEndpoint reports whether the key's scope covers the endpoint.
// An empty scope means every endpoint owned by the key's user.
func (k *APIKey) AllowsEndpoint(endpointID string) bool {
	if len(k.AllowedEndpointIDs) == 0 {
		return true
	}
	for _, id := range k.AllowedEndpointIDs {
		if id == endpointID {
			return true
		}
	}
	return false
}

// RequestLog records exactly one forwarding attempt. EndpointID is nil
// when alias resolution failed. Entries are append-only; the repeater
// never updates or deletes them.
type RequestLog struct {
	ID             string            `gorm:"primaryKey;type:uuid" json:"id"`
	EndpointID     *string           `gorm:"type:uuid;index" json:"endpoint_id"`
	RequestMethod  string            `gorm:"type:varchar(10)" json:"request_method"`
	RequestHeaders datatypes.JSONMap `gorm:"type:jsonb" json:"request_headers"`
	RequestPayload datatypes.JSON    `gorm:"type:jsonb" json:"request_payload"`
	ResponseStatus int               `gorm:"not null;index" json:"response_status"`
	ResponseBody   datatypes.JSON    `gorm:"type:jsonb" json:"response_body"`
	ResponseTimeMs int               `gorm:"not null" json:"response_time_ms"`
	IPAddress      string            `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent      string            `gorm:"type:text" json:"user_agent"`
	ErrorMessage   *string           `gorm:"type:text" json:"error_message"`
	CreatedAt      time.Time         `gorm:"index" json:"created_at"`
}

func (Endpoint) TableName() string {
	return "endpoints"
}

func (APIKey) TableName() string {
	return "api_keys"
}

func (RequestLog) TableName() string {
	return "logs"
}
