package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-integration-gateway/core"
)

type CredentialStore struct {
	db   *bun.DB
	repo repository.Repository[*credentialRecord]
}

// Upsert replaces the credential for (organization, platform) in one
// statement. All value columns are overwritten; a stale refresh token from
// an earlier grant never survives a re-auth. Concurrent upserts for the
// same pair serialize on the unique constraint, last write wins.
func (s *CredentialStore) Upsert(ctx context.Context, organizationID string, cred core.NormalizedCredential) (core.StoredCredential, error) {
	if s == nil || s.db == nil || s.repo == nil {
		return core.StoredCredential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	trimmedOrganizationID := strings.TrimSpace(organizationID)
	if trimmedOrganizationID == "" {
		return core.StoredCredential{}, fmt.Errorf("sqlstore: organization id is required")
	}
	if err := cred.Validate(); err != nil {
		return core.StoredCredential{}, err
	}

	now := time.Now().UTC()
	record := newCredentialRecord(trimmedOrganizationID, cred, now)

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (organization_id, platform) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("expires_in = EXCLUDED.expires_in").
		Set("token_type = EXCLUDED.token_type").
		Set("scope = EXCLUDED.scope").
		Set("metadata = EXCLUDED.metadata").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return core.StoredCredential{}, fmt.Errorf("sqlstore: upsert credential: %w", err)
	}

	return s.GetByOrganizationPlatform(ctx, trimmedOrganizationID, cred.Platform)
}

func (s *CredentialStore) GetByOrganizationPlatform(ctx context.Context, organizationID string, platform core.Platform) (core.StoredCredential, error) {
	if s == nil || s.repo == nil {
		return core.StoredCredential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("organization_id", "=", strings.TrimSpace(organizationID)),
		repository.SelectBy("platform", "=", strings.TrimSpace(string(platform))),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.StoredCredential{}, err
	}
	if len(records) == 0 {
		return core.StoredCredential{}, fmt.Errorf(
			"sqlstore: credential not found for organization %q platform %q", organizationID, platform)
	}
	return records[0].toDomain(), nil
}

func newCredentialRecord(organizationID string, cred core.NormalizedCredential, now time.Time) *credentialRecord {
	metadata := map[string]string{}
	for key, value := range cred.Metadata {
		metadata[key] = value
	}
	var expiresIn *int64
	if cred.ExpiresIn != nil {
		value := *cred.ExpiresIn
		expiresIn = &value
	}
	return &credentialRecord{
		ID:             uuid.New().String(),
		OrganizationID: organizationID,
		Platform:       strings.TrimSpace(string(cred.Platform)),
		AccessToken:    cred.AccessToken,
		RefreshToken:   cred.RefreshToken,
		ExpiresIn:      expiresIn,
		TokenType:      cred.TokenType,
		Scope:          cred.Scope,
		Metadata:       metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

var _ core.CredentialStore = (*CredentialStore)(nil)
