package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-integration-gateway/core"
)

const organizationCacheKeyPrefix = "go-integration-gateway::organization::v1"

// CachedOrganizationStore fronts domain lookups with a cache. The webhook
// path resolves the same few domains on every delivery; the user lookup on
// the exchange path stays uncached since it runs once per authorization.
type CachedOrganizationStore struct {
	base  core.OrganizationStore
	cache repositorycache.CacheService
}

func NewCachedOrganizationStore(
	base core.OrganizationStore,
	cacheService repositorycache.CacheService,
) (*CachedOrganizationStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base organization store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: organization cache service is required")
	}
	return &CachedOrganizationStore{base: base, cache: cacheService}, nil
}

// OrganizationDomainCacheKey returns the deterministic cache key for
// domain reads: go-integration-gateway::organization::v1::domain::<domain>
// with the domain URL-path escaped after normalization.
func OrganizationDomainCacheKey(domain string) (string, error) {
	normalized := strings.TrimSpace(strings.ToLower(domain))
	if normalized == "" {
		return "", fmt.Errorf("sqlstore: domain is required")
	}
	return strings.Join([]string{organizationCacheKeyPrefix, "domain", url.PathEscape(normalized)}, "::"), nil
}

func (s *CachedOrganizationStore) FindByDomain(ctx context.Context, domain string) (core.Organization, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Organization{}, fmt.Errorf("sqlstore: cached organization store is not configured")
	}
	normalized := strings.TrimSpace(strings.ToLower(domain))
	cacheKey, err := OrganizationDomainCacheKey(normalized)
	if err != nil {
		return core.Organization{}, err
	}

	organization, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Organization, error) {
		return s.base.FindByDomain(ctx, normalized)
	})
	if err != nil {
		return core.Organization{}, err
	}
	return organization, nil
}

func (s *CachedOrganizationStore) FindByUser(ctx context.Context, userID string) (core.Organization, error) {
	if s == nil || s.base == nil {
		return core.Organization{}, fmt.Errorf("sqlstore: cached organization store is not configured")
	}
	return s.base.FindByUser(ctx, userID)
}

// Invalidate drops the cached entry for a domain after a tenant change.
func (s *CachedOrganizationStore) Invalidate(ctx context.Context, domain string) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached organization store is not configured")
	}
	cacheKey, err := OrganizationDomainCacheKey(domain)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.OrganizationStore = (*CachedOrganizationStore)(nil)
