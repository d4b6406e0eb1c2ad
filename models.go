package authgate

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SubjectRecord is the local mirror of a provider subject. The provider owns
// credentials and verification; this table exists so application queries can
// join against subjects without a provider round trip.
type SubjectRecord struct {
	bun.BaseModel `bun:"table:subjects,alias:sub"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ProviderID    string         `bun:"provider_id,notnull,unique" json:"provider_id,omitempty"`
	Email         string         `bun:"email,notnull,unique" json:"email,omitempty"`
	EmailVerified bool           `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	LastSeenAt    *time.Time     `bun:"last_seen_at,nullzero" json:"last_seen_at,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (s *SubjectRecord) AddMetadata(key string, val any) *SubjectRecord {
	if s.Metadata == nil {
		s.Metadata = make(map[string]any)
	}
	s.Metadata[key] = val
	return s
}
