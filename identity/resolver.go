package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-integration-gateway/core"
)

// Resolver maps the two untrusted tenant handles the gateway receives onto
// organizations: a claimed source domain on the webhook path and a bearer
// token on the exchange path. Both resolve through injected stores; the
// resolver itself trusts nothing in the input.
type Resolver struct {
	organizations core.OrganizationStore
	sessions      core.SessionResolver
}

func NewResolver(organizations core.OrganizationStore, sessions core.SessionResolver) (*Resolver, error) {
	if organizations == nil {
		return nil, fmt.Errorf("identity: organization store is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("identity: session resolver is required")
	}
	return &Resolver{
		organizations: organizations,
		sessions:      sessions,
	}, nil
}

// ByDomain resolves a webhook's claimed source domain. A domain no
// organization registered is ErrOrganizationNotFound, never a zero record.
func (r *Resolver) ByDomain(ctx context.Context, domain string) (core.Organization, error) {
	if r == nil || r.organizations == nil {
		return core.Organization{}, fmt.Errorf("identity: resolver is not configured")
	}
	normalized := strings.TrimSpace(strings.ToLower(domain))
	if normalized == "" {
		return core.Organization{}, fmt.Errorf("%w: source domain", core.ErrMissingWebhookHeader)
	}
	organization, err := r.organizations.FindByDomain(ctx, normalized)
	if err != nil {
		return core.Organization{}, err
	}
	return organization, nil
}

// BySession resolves a bearer token to its user, then the user to their
// organization. An unresolvable token is ErrInvalidSession; a valid user
// without an organization is ErrNoMembership.
func (r *Resolver) BySession(ctx context.Context, bearerToken string) (core.Organization, error) {
	if r == nil || r.sessions == nil || r.organizations == nil {
		return core.Organization{}, fmt.Errorf("identity: resolver is not configured")
	}
	token := strings.TrimSpace(bearerToken)
	if token == "" {
		return core.Organization{}, core.ErrInvalidSession
	}

	session, err := r.sessions.Resolve(ctx, token)
	if err != nil {
		return core.Organization{}, fmt.Errorf("%w: %v", core.ErrInvalidSession, err)
	}
	if strings.TrimSpace(session.UserID) == "" {
		return core.Organization{}, core.ErrInvalidSession
	}

	organization, err := r.organizations.FindByUser(ctx, strings.TrimSpace(session.UserID))
	if err != nil {
		return core.Organization{}, err
	}
	return organization, nil
}

// StaticSessionResolver maps bearer tokens to sessions from memory. Meant
// for tests and local wiring; production deployments resolve against their
// session backend.
type StaticSessionResolver map[string]core.Session

func (s StaticSessionResolver) Resolve(_ context.Context, bearerToken string) (core.Session, error) {
	session, ok := s[strings.TrimSpace(bearerToken)]
	if !ok {
		return core.Session{}, core.ErrInvalidSession
	}
	return session, nil
}

var _ core.OrganizationResolver = (*Resolver)(nil)
var _ core.SessionResolver = StaticSessionResolver(nil)
