package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-integration-gateway/core"
	"github.com/uptrace/bun"
)

type organizationRecord struct {
	bun.BaseModel `bun:"table:gateway_organizations,alias:org"`

	ID          string     `bun:"id,pk"`
	OwnerUserID string     `bun:"owner_user_id,notnull"`
	Domain      string     `bun:"domain,notnull"`
	Name        string     `bun:"name,notnull"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt   *time.Time `bun:"deleted_at,soft_delete"`
}

func (r *organizationRecord) toDomain() core.Organization {
	if r == nil {
		return core.Organization{}
	}
	return core.Organization{
		ID:          strings.TrimSpace(r.ID),
		OwnerUserID: strings.TrimSpace(r.OwnerUserID),
		Domain:      strings.TrimSpace(r.Domain),
		Name:        r.Name,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// credentialRecord carries the unique (organization_id, platform) pair the
// upsert conflicts on; the constraint itself lives in the migration.
type credentialRecord struct {
	bun.BaseModel `bun:"table:gateway_credentials,alias:gc"`

	ID             string            `bun:"id,pk"`
	OrganizationID string            `bun:"organization_id,notnull"`
	Platform       string            `bun:"platform,notnull"`
	AccessToken    string            `bun:"access_token,notnull"`
	RefreshToken   string            `bun:"refresh_token"`
	ExpiresIn      *int64            `bun:"expires_in,nullzero"`
	TokenType      string            `bun:"token_type,notnull"`
	Scope          string            `bun:"scope"`
	Metadata       map[string]string `bun:"metadata,type:jsonb,notnull"`
	CreatedAt      time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *credentialRecord) toDomain() core.StoredCredential {
	if r == nil {
		return core.StoredCredential{}
	}
	var expiresIn *int64
	if r.ExpiresIn != nil {
		value := *r.ExpiresIn
		expiresIn = &value
	}
	metadata := map[string]string{}
	for key, value := range r.Metadata {
		metadata[key] = value
	}
	return core.StoredCredential{
		ID:             strings.TrimSpace(r.ID),
		OrganizationID: strings.TrimSpace(r.OrganizationID),
		Platform:       core.Platform(strings.TrimSpace(r.Platform)),
		AccessToken:    r.AccessToken,
		RefreshToken:   r.RefreshToken,
		ExpiresIn:      expiresIn,
		TokenType:      r.TokenType,
		Scope:          r.Scope,
		Metadata:       metadata,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type webhookDeliveryRecord struct {
	bun.BaseModel `bun:"table:gateway_webhook_deliveries,alias:gwd"`

	ID             string    `bun:"id,pk"`
	OrganizationID string    `bun:"organization_id,notnull"`
	SourceDomain   string    `bun:"source_domain,notnull"`
	Topic          string    `bun:"topic,notnull"`
	JobID          string    `bun:"job_id,notnull"`
	Payload        []byte    `bun:"payload,notnull"`
	EnqueuedAt     time.Time `bun:"enqueued_at,nullzero,notnull"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
