package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-integration-gateway/core"
)

// GatewayService is the surface the command handlers drive. The gateway
// itself satisfies it.
type GatewayService interface {
	IngestWebhook(ctx context.Context, envelope core.WebhookEnvelope) (core.JobHandle, error)
	CompleteExchange(ctx context.Context, bearerToken string, req core.ExchangeRequest) (core.StoredCredential, error)
	BeginAuthorization(ctx context.Context, platform core.Platform, redirectURI string) (string, string, error)
}

type IngestWebhookCommand struct {
	service GatewayService
}

func NewIngestWebhookCommand(service GatewayService) *IngestWebhookCommand {
	return &IngestWebhookCommand{service: service}
}

func (c *IngestWebhookCommand) Execute(ctx context.Context, msg IngestWebhookMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: webhook ingest service is required")
	}
	out, err := c.service.IngestWebhook(ctx, msg.Envelope)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteExchangeCommand struct {
	service GatewayService
}

func NewCompleteExchangeCommand(service GatewayService) *CompleteExchangeCommand {
	return &CompleteExchangeCommand{service: service}
}

func (c *CompleteExchangeCommand) Execute(ctx context.Context, msg CompleteExchangeMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: exchange service is required")
	}
	out, err := c.service.CompleteExchange(ctx, msg.BearerToken, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// AuthorizationStart is the collected result of a begin-authorization
// command: where to send the browser and the state nonce to expect back.
type AuthorizationStart struct {
	URL   string
	State string
}

type BeginAuthorizationCommand struct {
	service GatewayService
}

func NewBeginAuthorizationCommand(service GatewayService) *BeginAuthorizationCommand {
	return &BeginAuthorizationCommand{service: service}
}

func (c *BeginAuthorizationCommand) Execute(ctx context.Context, msg BeginAuthorizationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: authorization service is required")
	}
	authorizeURL, state, err := c.service.BeginAuthorization(ctx, msg.Platform, msg.RedirectURI)
	if err != nil {
		return err
	}
	storeResult(ctx, AuthorizationStart{URL: authorizeURL, State: state})
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
