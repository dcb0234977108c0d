package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-integration-gateway/core"
)

const (
	TypeIngestWebhook      = "gateway.command.webhook.ingest"
	TypeCompleteExchange   = "gateway.command.exchange.complete"
	TypeBeginAuthorization = "gateway.command.authorize.begin"
)

type IngestWebhookMessage struct {
	Envelope core.WebhookEnvelope
}

func (IngestWebhookMessage) Type() string { return TypeIngestWebhook }

func (m IngestWebhookMessage) Validate() error {
	return m.Envelope.Validate()
}

type CompleteExchangeMessage struct {
	BearerToken string
	Request     core.ExchangeRequest
}

func (CompleteExchangeMessage) Type() string { return TypeCompleteExchange }

func (m CompleteExchangeMessage) Validate() error {
	if strings.TrimSpace(m.BearerToken) == "" {
		return fmt.Errorf("command: bearer token is required")
	}
	return m.Request.Validate()
}

type BeginAuthorizationMessage struct {
	Platform    core.Platform
	RedirectURI string
}

func (BeginAuthorizationMessage) Type() string { return TypeBeginAuthorization }

func (m BeginAuthorizationMessage) Validate() error {
	if _, err := core.ParsePlatform(string(m.Platform)); err != nil {
		return err
	}
	return nil
}
