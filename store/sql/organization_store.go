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

type OrganizationStore struct {
	db   *bun.DB
	repo repository.Repository[*organizationRecord]
}

func (s *OrganizationStore) FindByDomain(ctx context.Context, domain string) (core.Organization, error) {
	if s == nil || s.repo == nil {
		return core.Organization{}, fmt.Errorf("sqlstore: organization store is not configured")
	}
	normalized := strings.TrimSpace(strings.ToLower(domain))
	if normalized == "" {
		return core.Organization{}, fmt.Errorf("sqlstore: domain is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("domain", "=", normalized),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Organization{}, err
	}
	if len(records) == 0 {
		return core.Organization{}, fmt.Errorf("%w: domain %q", core.ErrOrganizationNotFound, normalized)
	}
	return records[0].toDomain(), nil
}

func (s *OrganizationStore) FindByUser(ctx context.Context, userID string) (core.Organization, error) {
	if s == nil || s.repo == nil {
		return core.Organization{}, fmt.Errorf("sqlstore: organization store is not configured")
	}
	trimmedUserID := strings.TrimSpace(userID)
	if trimmedUserID == "" {
		return core.Organization{}, fmt.Errorf("sqlstore: user id is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("owner_user_id", "=", trimmedUserID),
		repository.OrderBy("created_at ASC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Organization{}, err
	}
	if len(records) == 0 {
		return core.Organization{}, fmt.Errorf("%w: user %q", core.ErrNoMembership, trimmedUserID)
	}
	return records[0].toDomain(), nil
}

// Create registers a tenant. Domains are unique; a second registration of
// the same domain fails on the constraint rather than silently replacing.
func (s *OrganizationStore) Create(ctx context.Context, organization core.Organization) (core.Organization, error) {
	if s == nil || s.repo == nil {
		return core.Organization{}, fmt.Errorf("sqlstore: organization store is not configured")
	}
	domain := strings.TrimSpace(strings.ToLower(organization.Domain))
	if domain == "" {
		return core.Organization{}, fmt.Errorf("sqlstore: organization domain is required")
	}
	if strings.TrimSpace(organization.OwnerUserID) == "" {
		return core.Organization{}, fmt.Errorf("sqlstore: organization owner user id is required")
	}

	now := time.Now().UTC()
	record := &organizationRecord{
		ID:          strings.TrimSpace(organization.ID),
		OwnerUserID: strings.TrimSpace(organization.OwnerUserID),
		Domain:      domain,
		Name:        organization.Name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Organization{}, err
	}
	return created.toDomain(), nil
}

var _ core.OrganizationStore = (*OrganizationStore)(nil)
