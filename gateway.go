package gateway

import (
	"github.com/goliatone/go-integration-gateway/core"
	"github.com/goliatone/go-integration-gateway/webhooks"
)

type Config = core.Config

type WebhookConfig = core.WebhookConfig

type Option = core.Option

type Gateway = core.Gateway

type Platform = core.Platform

type PlatformAdapter = core.PlatformAdapter
type Registry = core.Registry
type CredentialStore = core.CredentialStore
type OrganizationStore = core.OrganizationStore
type OrganizationResolver = core.OrganizationResolver
type SessionResolver = core.SessionResolver
type WebhookSecretSource = core.WebhookSecretSource
type SignatureVerifier = core.SignatureVerifier
type WebhookDispatcher = core.WebhookDispatcher
type JobEnqueuer = core.JobEnqueuer
type DeliveryRecorder = core.DeliveryRecorder
type OAuthStateStore = core.OAuthStateStore

type WebhookEnvelope = core.WebhookEnvelope
type WebhookJob = core.WebhookJob
type JobHandle = core.JobHandle
type ExchangeRequest = core.ExchangeRequest
type NormalizedCredential = core.NormalizedCredential
type StoredCredential = core.StoredCredential
type Organization = core.Organization

const (
	PlatformShopify   = core.PlatformShopify
	PlatformSlack     = core.PlatformSlack
	PlatformPinterest = core.PlatformPinterest
	PlatformTikTok    = core.PlatformTikTok
	PlatformMailchimp = core.PlatformMailchimp
)

var (
	WithLogger               = core.WithLogger
	WithLoggerProvider       = core.WithLoggerProvider
	WithMetricsRecorder      = core.WithMetricsRecorder
	WithErrorMapper          = core.WithErrorMapper
	WithConfigProvider       = core.WithConfigProvider
	WithOptionsResolver      = core.WithOptionsResolver
	WithRegistry             = core.WithRegistry
	WithCredentialStore      = core.WithCredentialStore
	WithOrganizationResolver = core.WithOrganizationResolver
	WithWebhookDispatcher    = core.WithWebhookDispatcher
	WithSignatureVerifier    = core.WithSignatureVerifier
	WithWebhookSecretSource  = core.WithWebhookSecretSource
	WithDeliveryRecorder     = core.WithDeliveryRecorder
	WithOAuthStateStore      = core.WithOAuthStateStore
	WithRequiredOAuthState   = core.WithRequiredOAuthState
	WithHTTPClient           = core.WithHTTPClient
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// New builds a gateway with the default signature scheme: HMAC-SHA256 over
// the raw body, base64-encoded, the way the source platform signs. Callers
// needing another encoding pass WithSignatureVerifier.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	defaulted := append(
		[]Option{core.WithSignatureVerifier(webhooks.HMACVerifier{Encoding: webhooks.EncodingBase64})},
		opts...,
	)
	return core.NewGateway(cfg, defaulted...)
}
