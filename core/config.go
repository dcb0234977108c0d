package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultCallbackPath           = "/integrations/oauth/callback"
	defaultExchangeTimeoutSeconds = 30
)

type WebhookConfig struct {
	// Secret is the process-wide fallback shared secret. DomainSecrets
	// overrides it per source domain for multi-tenant deployments.
	Secret        string            `koanf:"secret" mapstructure:"secret"`
	DomainSecrets map[string]string `koanf:"domain_secrets" mapstructure:"domain_secrets"`
}

type ExchangeConfig struct {
	TimeoutSeconds int `koanf:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type Config struct {
	ServiceName  string         `koanf:"service_name" mapstructure:"service_name"`
	CallbackPath string         `koanf:"callback_path" mapstructure:"callback_path"`
	Webhook      WebhookConfig  `koanf:"webhook" mapstructure:"webhook"`
	Exchange     ExchangeConfig `koanf:"exchange" mapstructure:"exchange"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:  "integration-gateway",
		CallbackPath: defaultCallbackPath,
		Exchange: ExchangeConfig{
			TimeoutSeconds: defaultExchangeTimeoutSeconds,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if !strings.HasPrefix(strings.TrimSpace(c.CallbackPath), "/") {
		return fmt.Errorf("core: callback_path must start with %q", "/")
	}
	if c.Exchange.TimeoutSeconds < 0 {
		return fmt.Errorf("core: exchange.timeout_seconds cannot be negative")
	}
	return nil
}

func (c Config) ExchangeTimeout() time.Duration {
	if c.Exchange.TimeoutSeconds <= 0 {
		return defaultExchangeTimeoutSeconds * time.Second
	}
	return time.Duration(c.Exchange.TimeoutSeconds) * time.Second
}
