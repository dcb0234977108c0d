package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type gatewayBuilder struct {
	runtimeConfig     Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorMapper       ErrorMapper
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
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
}

type Option func(*gatewayBuilder)

func WithLogger(logger Logger) Option {
	return func(b *gatewayBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *gatewayBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *gatewayBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *gatewayBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *gatewayBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *gatewayBuilder) {
		b.optionsResolver = resolver
	}
}

func WithRegistry(registry Registry) Option {
	return func(b *gatewayBuilder) {
		b.registry = registry
	}
}

func WithCredentialStore(store CredentialStore) Option {
	return func(b *gatewayBuilder) {
		b.credentialStore = store
	}
}

func WithOrganizationResolver(resolver OrganizationResolver) Option {
	return func(b *gatewayBuilder) {
		b.organizations = resolver
	}
}

func WithWebhookDispatcher(dispatcher WebhookDispatcher) Option {
	return func(b *gatewayBuilder) {
		b.dispatcher = dispatcher
	}
}

func WithSignatureVerifier(verifier SignatureVerifier) Option {
	return func(b *gatewayBuilder) {
		b.verifier = verifier
	}
}

func WithWebhookSecretSource(source WebhookSecretSource) Option {
	return func(b *gatewayBuilder) {
		b.secretSource = source
	}
}

func WithDeliveryRecorder(recorder DeliveryRecorder) Option {
	return func(b *gatewayBuilder) {
		b.deliveryRecorder = recorder
	}
}

func WithOAuthStateStore(store OAuthStateStore) Option {
	return func(b *gatewayBuilder) {
		b.oauthStateStore = store
	}
}

// WithRequiredOAuthState makes a missing state on the exchange request a
// validation error instead of an optional check.
func WithRequiredOAuthState() Option {
	return func(b *gatewayBuilder) {
		b.requireOAuthState = true
	}
}

func WithHTTPClient(client HTTPDoer) Option {
	return func(b *gatewayBuilder) {
		b.httpClient = client
	}
}

func defaultGatewayBuilder(runtime Config) gatewayBuilder {
	loggerProvider, logger := glog.Resolve("gateway", nil, nil)
	return gatewayBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     GatewayErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		registry:        NewAdapterRegistry(),
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.CallbackPath) != "" {
		layer["callback_path"] = cfg.CallbackPath
	}
	if includeZero || strings.TrimSpace(cfg.Webhook.Secret) != "" || len(cfg.Webhook.DomainSecrets) > 0 {
		webhook := map[string]any{
			"secret": cfg.Webhook.Secret,
		}
		if len(cfg.Webhook.DomainSecrets) > 0 {
			secrets := make(map[string]any, len(cfg.Webhook.DomainSecrets))
			for domain, secret := range cfg.Webhook.DomainSecrets {
				secrets[domain] = secret
			}
			webhook["domain_secrets"] = secrets
		}
		layer["webhook"] = webhook
	}
	if includeZero || cfg.Exchange.TimeoutSeconds > 0 {
		layer["exchange"] = map[string]any{
			"timeout_seconds": cfg.Exchange.TimeoutSeconds,
		}
	}
	return layer
}
