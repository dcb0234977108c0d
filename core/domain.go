package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownPlatform      = errors.New("core: unknown platform")
	ErrMissingWebhookHeader = errors.New("core: required webhook header missing")
	ErrSignatureMismatch    = errors.New("core: webhook signature mismatch")
	ErrOrganizationNotFound = errors.New("core: organization not found")
	ErrNoMembership         = errors.New("core: user has no organization membership")
	ErrInvalidSession       = errors.New("core: invalid session")
)

// Platform identifies one external platform the gateway talks to. The set is
// fixed at compile time; unknown identifiers are rejected before any network
// call is attempted.
type Platform string

const (
	PlatformShopify   Platform = "shopify"
	PlatformSlack     Platform = "slack"
	PlatformPinterest Platform = "pinterest-business"
	PlatformTikTok    Platform = "tiktok-ads"
	PlatformMailchimp Platform = "mailchimp"
)

func ParsePlatform(value string) (Platform, error) {
	normalized := Platform(strings.TrimSpace(strings.ToLower(value)))
	switch normalized {
	case PlatformShopify, PlatformSlack, PlatformPinterest, PlatformTikTok, PlatformMailchimp:
		return normalized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, value)
}

func (p Platform) String() string {
	return string(p)
}

// WebhookEnvelope is the immutable capture of one inbound notification. It
// carries the exact raw body bytes: verification must never run against a
// re-serialized form.
type WebhookEnvelope struct {
	Topic        string
	SourceDomain string
	RawBody      []byte
	Signature    string
	ReceivedAt   time.Time
}

func (e WebhookEnvelope) Validate() error {
	if strings.TrimSpace(e.Topic) == "" {
		return fmt.Errorf("%w: topic", ErrMissingWebhookHeader)
	}
	if strings.TrimSpace(e.SourceDomain) == "" {
		return fmt.Errorf("%w: source domain", ErrMissingWebhookHeader)
	}
	if strings.TrimSpace(e.Signature) == "" {
		return fmt.Errorf("%w: signature", ErrMissingWebhookHeader)
	}
	return nil
}

// WebhookJob is the unit handed to the queue. Ownership transfers on a
// successful enqueue; the gateway holds no reference afterwards.
type WebhookJob struct {
	OrganizationID string
	SourceDomain   string
	Topic          string
	Payload        json.RawMessage
	EnqueuedAt     time.Time
}

type JobHandle struct {
	JobID      string
	EnqueuedAt time.Time
}

// ExchangeRequest is the input to one authorization-code exchange. It is
// never persisted; authorization codes are single-use.
type ExchangeRequest struct {
	Platform    Platform
	Code        string
	RedirectURI string
	State       string
}

func (r ExchangeRequest) Validate() error {
	if _, err := ParsePlatform(string(r.Platform)); err != nil {
		return err
	}
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("core: authorization code is required")
	}
	return nil
}

// ExchangeState tracks one exchange attempt. There is no retry transition:
// a consumed authorization code cannot be replayed.
type ExchangeState string

const (
	ExchangeStateValidated ExchangeState = "validated"
	ExchangeStateRequested ExchangeState = "requested"
	ExchangeStateSucceeded ExchangeState = "succeeded"
	ExchangeStateFailed    ExchangeState = "failed"
)

// NormalizedCredential is the canonical shape every platform token response
// collapses into. AccessToken is always present on success; optional fields
// absent from a platform's protocol stay zero rather than being fabricated.
type NormalizedCredential struct {
	Platform     Platform
	AccessToken  string
	RefreshToken string
	ExpiresIn    *int64
	TokenType    string
	Scope        string
	Metadata     map[string]string
}

func (c NormalizedCredential) Validate() error {
	if _, err := ParsePlatform(string(c.Platform)); err != nil {
		return err
	}
	if strings.TrimSpace(c.AccessToken) == "" {
		return fmt.Errorf("core: normalized credential requires an access token")
	}
	if strings.TrimSpace(c.TokenType) == "" {
		return fmt.Errorf("core: normalized credential requires a token type")
	}
	return nil
}

// StoredCredential is a NormalizedCredential after a durable upsert keyed by
// (organization, platform).
type StoredCredential struct {
	ID             string
	OrganizationID string
	Platform       Platform
	AccessToken    string
	RefreshToken   string
	ExpiresIn      *int64
	TokenType      string
	Scope          string
	Metadata       map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Organization is the tenant record. The gateway only reads it; ownership of
// the entity lives elsewhere.
type Organization struct {
	ID          string
	OwnerUserID string
	Domain      string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpstreamError is a platform's reported rejection of an exchange: a bad or
// reused code, a revoked app, or a malformed response body. It maps to a
// caller-visible 400 while keeping the raw status for operator diagnosis.
type UpstreamError struct {
	Platform   Platform
	StatusCode int
	Code       string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "core: upstream exchange error"
	}
	message := strings.TrimSpace(e.Message)
	if message == "" {
		message = strings.TrimSpace(e.Code)
	}
	if message == "" {
		message = "exchange rejected"
	}
	return fmt.Sprintf("core: %s exchange rejected (%d): %s", e.Platform, e.StatusCode, message)
}

// CallerMessage is the platform's error message when it reported one, or a
// generic transport-failure message otherwise.
func (e *UpstreamError) CallerMessage() string {
	if e == nil {
		return "exchange failed"
	}
	if message := strings.TrimSpace(e.Message); message != "" {
		return message
	}
	if code := strings.TrimSpace(e.Code); code != "" {
		return code
	}
	return "exchange failed"
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
