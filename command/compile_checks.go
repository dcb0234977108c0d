package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[IngestWebhookMessage]      = (*IngestWebhookCommand)(nil)
	_ gocmd.Commander[CompleteExchangeMessage]   = (*CompleteExchangeCommand)(nil)
	_ gocmd.Commander[BeginAuthorizationMessage] = (*BeginAuthorizationCommand)(nil)
)
