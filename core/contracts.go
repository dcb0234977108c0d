package core

import (
	"context"
	"net/http"

	glog "github.com/goliatone/go-logger/glog"
)

// ExchangeInput carries the per-attempt values an adapter needs to build its
// platform-specific token request. Client credentials live in the adapter's
// own config, loaded once at startup.
type ExchangeInput struct {
	Code        string
	RedirectURI string
}

// PlatformAdapter translates between one platform's token-exchange wire
// protocol and the gateway's canonical credential shape. Adapters never talk
// to the network themselves; the gateway owns the HTTP round trip so the
// timeout and cancellation policy live in one place.
type PlatformAdapter interface {
	Platform() Platform
	BuildExchangeRequest(ctx context.Context, in ExchangeInput) (*http.Request, error)
	NormalizeResponse(statusCode int, body []byte) (NormalizedCredential, error)
}

// AuthorizeURLBuilder is implemented by adapters whose platform supports a
// browser authorization redirect initiated from the gateway.
type AuthorizeURLBuilder interface {
	AuthorizeURL(state string, redirectURI string) (string, error)
}

type Registry interface {
	Register(adapter PlatformAdapter) error
	Get(platform Platform) (PlatformAdapter, bool)
	List() []PlatformAdapter
}

// CredentialStore persists normalized credentials. Upsert is a full replace
// keyed by (organizationID, platform); last write wins on same-pair races.
type CredentialStore interface {
	Upsert(ctx context.Context, organizationID string, cred NormalizedCredential) (StoredCredential, error)
	GetByOrganizationPlatform(ctx context.Context, organizationID string, platform Platform) (StoredCredential, error)
}

// OrganizationStore is the tenant lookup consumed by the resolver. Not-found
// surfaces as ErrOrganizationNotFound, never as a nil Organization.
type OrganizationStore interface {
	FindByDomain(ctx context.Context, domain string) (Organization, error)
	FindByUser(ctx context.Context, userID string) (Organization, error)
}

// OrganizationResolver maps the two untrusted tenant handles (claimed source
// domain, bearer token) onto internal organizations.
type OrganizationResolver interface {
	ByDomain(ctx context.Context, domain string) (Organization, error)
	BySession(ctx context.Context, bearerToken string) (Organization, error)
}

// Session is the resolved identity behind a bearer credential.
type Session struct {
	UserID string
}

type SessionResolver interface {
	Resolve(ctx context.Context, bearerToken string) (Session, error)
}

// WebhookSecretSource resolves the shared HMAC secret for a source domain.
// Single-secret deployments use a static source; multi-tenant deployments can
// scope secrets per domain.
type WebhookSecretSource interface {
	SecretFor(ctx context.Context, sourceDomain string) (string, error)
}

// SignatureVerifier authenticates a raw webhook body against its claimed
// signature. It reports mismatch as ErrSignatureMismatch; header presence is
// the caller's concern.
type SignatureVerifier interface {
	Verify(ctx context.Context, rawBody []byte, signature string, secret string) error
}

// WebhookDispatcher hands a verified envelope off to the queue. Duplicate
// deliveries are not its problem; the contract is durable hand-off or error.
type WebhookDispatcher interface {
	Dispatch(ctx context.Context, envelope WebhookEnvelope, organizationID string) (JobHandle, error)
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, job WebhookJob) (JobHandle, error)
}

// DeliveryRecorder is an optional receipt ledger for accepted webhooks. It is
// observability only: consumers still own deduplication.
type DeliveryRecorder interface {
	Record(ctx context.Context, job WebhookJob, handle JobHandle) error
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
