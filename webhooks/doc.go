// Package webhooks implements inbound notification authentication and
// queue hand-off: HMAC-SHA256 signature verification over the raw body,
// secret resolution per source domain, and dispatching verified envelopes
// as jobs.
package webhooks
