package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

const maxExchangeResponseBytes = 1 << 20 // 1 MiB

// Gateway drives the two boundary flows: inbound webhook ingestion and
// outbound authorization-code exchange. It holds no mutable state across
// requests beyond its injected collaborators, all of which are wired once at
// process start.
type Gateway struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorMapper       ErrorMapper
	registry          Registry
	credentialStore   CredentialStore
	organizations     OrganizationResolver
	dispatcher        WebhookDispatcher
	verifier          SignatureVerifier
	secretSource      WebhookSecretSource
	deliveryRecorder  DeliveryRecorder
	oauthStateStore   OAuthStateStore
	requireOAuthState bool
	httpClient        HTTPDoer
	now               func() time.Time
}

func NewGateway(cfg Config, options ...Option) (*Gateway, error) {
	builder := defaultGatewayBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("gateway", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("gateway"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorMapper == nil {
		builder.errorMapper = GatewayErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewAdapterRegistry()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.secretSource == nil {
		builder.secretSource = ConfigSecretSource{Webhook: finalConfig.Webhook}
	}
	if builder.httpClient == nil {
		builder.httpClient = &http.Client{Timeout: finalConfig.ExchangeTimeout()}
	}

	return &Gateway{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorMapper:       builder.errorMapper,
		registry:          builder.registry,
		credentialStore:   builder.credentialStore,
		organizations:     builder.organizations,
		dispatcher:        builder.dispatcher,
		verifier:          builder.verifier,
		secretSource:      builder.secretSource,
		deliveryRecorder:  builder.deliveryRecorder,
		oauthStateStore:   builder.oauthStateStore,
		requireOAuthState: builder.requireOAuthState,
		httpClient:        builder.httpClient,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (g *Gateway) Config() Config {
	if g == nil {
		return Config{}
	}
	return g.config
}

// IngestWebhook runs the inbound pipeline: header validation, signature
// verification against the exact raw body, tenant resolution by claimed
// source domain, then hand-off to the queue. Every failure short-circuits;
// nothing is enqueued for an unverified or unresolvable event.
func (g *Gateway) IngestWebhook(ctx context.Context, envelope WebhookEnvelope) (JobHandle, error) {
	startedAt := time.Now()
	fields := map[string]any{
		"topic":         envelope.Topic,
		"source_domain": envelope.SourceDomain,
	}

	handle, err := g.ingestWebhook(ctx, envelope)
	if err == nil {
		fields["job_id"] = handle.JobID
	}
	g.observeOperation(ctx, startedAt, "webhook_ingest", err, fields)
	if err != nil {
		return JobHandle{}, g.mapError(err)
	}
	return handle, nil
}

func (g *Gateway) ingestWebhook(ctx context.Context, envelope WebhookEnvelope) (JobHandle, error) {
	if g == nil {
		return JobHandle{}, fmt.Errorf("core: gateway is nil")
	}
	if g.verifier == nil || g.dispatcher == nil || g.organizations == nil {
		return JobHandle{}, fmt.Errorf("core: gateway webhook pipeline is not configured")
	}
	if err := envelope.Validate(); err != nil {
		return JobHandle{}, err
	}
	if envelope.ReceivedAt.IsZero() {
		envelope.ReceivedAt = g.now()
	}

	secret, err := g.secretSource.SecretFor(ctx, envelope.SourceDomain)
	if err != nil {
		return JobHandle{}, err
	}
	if err := g.verifier.Verify(ctx, envelope.RawBody, envelope.Signature, secret); err != nil {
		return JobHandle{}, err
	}

	organization, err := g.organizations.ByDomain(ctx, envelope.SourceDomain)
	if err != nil {
		return JobHandle{}, err
	}

	handle, err := g.dispatcher.Dispatch(ctx, envelope, organization.ID)
	if err != nil {
		return JobHandle{}, err
	}

	if g.deliveryRecorder != nil {
		record := WebhookJob{
			OrganizationID: organization.ID,
			SourceDomain:   strings.TrimSpace(envelope.SourceDomain),
			Topic:          strings.TrimSpace(envelope.Topic),
			Payload:        envelope.RawBody,
			EnqueuedAt:     handle.EnqueuedAt,
		}
		if recordErr := g.deliveryRecorder.Record(ctx, record, handle); recordErr != nil {
			// Receipt ledger is observability only; the job is already owned
			// by the queue, so a ledger failure must not fail the request.
			g.log(ctx, true, "webhook delivery record failed", map[string]any{
				"source_domain": envelope.SourceDomain,
				"topic":         envelope.Topic,
				"job_id":        handle.JobID,
				"error":         recordErr.Error(),
			})
		}
	}

	return handle, nil
}

// CompleteExchange drives one authorization-code exchange end to end:
// validate the platform, resolve the caller's organization, perform the
// adapter-specific token round trip, normalize, and persist. The state
// machine has no retry edge; a failed code is gone.
func (g *Gateway) CompleteExchange(ctx context.Context, bearerToken string, req ExchangeRequest) (StoredCredential, error) {
	startedAt := time.Now()
	fields := map[string]any{
		"platform": string(req.Platform),
	}

	stored, state, err := g.completeExchange(ctx, bearerToken, req, fields)
	fields["exchange_state"] = string(state)
	g.observeOperation(ctx, startedAt, "oauth_exchange", err, fields)
	if err != nil {
		return StoredCredential{}, g.mapError(err)
	}
	return stored, nil
}

func (g *Gateway) completeExchange(
	ctx context.Context,
	bearerToken string,
	req ExchangeRequest,
	fields map[string]any,
) (StoredCredential, ExchangeState, error) {
	if g == nil {
		return StoredCredential{}, ExchangeStateFailed, fmt.Errorf("core: gateway is nil")
	}
	if g.registry == nil || g.credentialStore == nil || g.organizations == nil {
		return StoredCredential{}, ExchangeStateFailed, fmt.Errorf("core: gateway exchange pipeline is not configured")
	}

	if err := req.Validate(); err != nil {
		return StoredCredential{}, ExchangeStateFailed, err
	}
	adapter, ok := g.registry.Get(req.Platform)
	if !ok {
		return StoredCredential{}, ExchangeStateFailed, fmt.Errorf("%w: %q", ErrUnknownPlatform, req.Platform)
	}
	state := ExchangeStateValidated

	organization, err := g.organizations.BySession(ctx, bearerToken)
	if err != nil {
		return StoredCredential{}, state, err
	}
	fields["organization_id"] = organization.ID

	if err := g.consumeOAuthState(ctx, req); err != nil {
		return StoredCredential{}, state, err
	}

	credential, err := g.performExchange(ctx, adapter, req)
	state = ExchangeStateRequested
	if err != nil {
		return StoredCredential{}, ExchangeStateFailed, err
	}
	state = ExchangeStateSucceeded

	if err := credential.Validate(); err != nil {
		return StoredCredential{}, ExchangeStateFailed, err
	}

	// Detach the metadata map from whatever the adapter returned so the
	// store never shares state with adapter internals.
	credential.Metadata = cloneStringMap(credential.Metadata)

	stored, err := g.credentialStore.Upsert(ctx, organization.ID, credential)
	if err != nil {
		return StoredCredential{}, state, err
	}
	return stored, state, nil
}

func (g *Gateway) consumeOAuthState(ctx context.Context, req ExchangeRequest) error {
	state := strings.TrimSpace(req.State)
	if state == "" {
		if g.requireOAuthState {
			return fmt.Errorf("core: oauth state is required")
		}
		return nil
	}
	if g.oauthStateStore == nil {
		return nil
	}
	record, err := g.oauthStateStore.Consume(ctx, state)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "core: oauth state validation failed").
			WithTextCode(GatewayErrorUnauthorized)
	}
	if record.Platform != "" && record.Platform != req.Platform {
		return goerrors.New("core: oauth state was issued for a different platform", goerrors.CategoryAuth).
			WithTextCode(GatewayErrorUnauthorized)
	}
	return nil
}

// performExchange owns the single upstream round trip. The call runs on a
// context detached from the caller: once the single-use code is in flight,
// a client disconnect must not abandon the exchange.
func (g *Gateway) performExchange(
	ctx context.Context,
	adapter PlatformAdapter,
	req ExchangeRequest,
) (NormalizedCredential, error) {
	if g.httpClient == nil {
		return NormalizedCredential{}, fmt.Errorf("core: gateway http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.config.ExchangeTimeout())
	defer cancel()

	httpReq, err := adapter.BuildExchangeRequest(exchangeCtx, ExchangeInput{
		Code:        strings.TrimSpace(req.Code),
		RedirectURI: strings.TrimSpace(req.RedirectURI),
	})
	if err != nil {
		return NormalizedCredential{}, err
	}

	response, err := g.httpClient.Do(httpReq)
	if err != nil {
		return NormalizedCredential{}, goerrors.Wrap(err, goerrors.CategoryInternal, "core: token exchange request failed").
			WithCode(http.StatusInternalServerError).
			WithTextCode(GatewayErrorInternal).
			WithMetadata(map[string]any{"platform": string(req.Platform)})
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxExchangeResponseBytes+1))
	if readErr != nil {
		return NormalizedCredential{}, fmt.Errorf("core: read token exchange response: %w", readErr)
	}
	if int64(len(body)) > maxExchangeResponseBytes {
		return NormalizedCredential{}, fmt.Errorf("core: token exchange response exceeds %d bytes", maxExchangeResponseBytes)
	}

	return adapter.NormalizeResponse(response.StatusCode, body)
}

// BeginAuthorization issues a state nonce and the platform's authorization
// URL for the given redirect URI. Platforms whose adapter does not build
// authorization URLs reject the call.
func (g *Gateway) BeginAuthorization(ctx context.Context, platform Platform, redirectURI string) (string, string, error) {
	if g == nil || g.registry == nil {
		return "", "", fmt.Errorf("core: gateway is not configured")
	}
	adapter, ok := g.registry.Get(platform)
	if !ok {
		return "", "", g.mapError(fmt.Errorf("%w: %q", ErrUnknownPlatform, platform))
	}
	builder, ok := adapter.(AuthorizeURLBuilder)
	if !ok {
		return "", "", g.mapError(fmt.Errorf("core: platform %q does not support gateway-initiated authorization", platform))
	}

	state, err := GenerateOAuthState()
	if err != nil {
		return "", "", g.mapError(err)
	}
	if g.oauthStateStore != nil {
		if err := g.oauthStateStore.Save(ctx, OAuthStateRecord{
			State:       state,
			Platform:    platform,
			RedirectURI: strings.TrimSpace(redirectURI),
		}); err != nil {
			return "", "", g.mapError(err)
		}
	}

	authorizeURL, err := builder.AuthorizeURL(state, strings.TrimSpace(redirectURI))
	if err != nil {
		return "", "", g.mapError(err)
	}
	return authorizeURL, state, nil
}

func (g *Gateway) mapError(err error) error {
	if err == nil {
		return nil
	}
	mapper := g.errorMapper
	if mapper == nil {
		mapper = GatewayErrorMapper
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

// ConfigSecretSource serves webhook secrets from static configuration:
// per-domain overrides first, then the process-wide fallback.
type ConfigSecretSource struct {
	Webhook WebhookConfig
}

func (s ConfigSecretSource) SecretFor(_ context.Context, sourceDomain string) (string, error) {
	domain := strings.TrimSpace(strings.ToLower(sourceDomain))
	if len(s.Webhook.DomainSecrets) > 0 {
		for configured, secret := range s.Webhook.DomainSecrets {
			if strings.TrimSpace(strings.ToLower(configured)) == domain {
				if strings.TrimSpace(secret) != "" {
					return secret, nil
				}
			}
		}
	}
	if strings.TrimSpace(s.Webhook.Secret) == "" {
		return "", fmt.Errorf("core: no webhook secret configured for domain %q", sourceDomain)
	}
	return s.Webhook.Secret, nil
}

var _ WebhookSecretSource = ConfigSecretSource{}
