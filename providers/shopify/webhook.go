package shopify

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-integration-gateway/core"
	"github.com/goliatone/go-integration-gateway/webhooks"
)

const (
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderHMAC       = "X-Shopify-Hmac-Sha256"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// NewWebhookVerifier returns the signature scheme Shopify uses: HMAC-SHA256
// over the exact raw body, base64-encoded in the HMAC header.
func NewWebhookVerifier() webhooks.HMACVerifier {
	return webhooks.HMACVerifier{Encoding: webhooks.EncodingBase64}
}

// EnvelopeFromRequest captures the three identifying headers and the raw
// body into an envelope. Missing headers surface later through
// WebhookEnvelope.Validate; this function never fails.
func EnvelopeFromRequest(header http.Header, rawBody []byte, receivedAt time.Time) core.WebhookEnvelope {
	return core.WebhookEnvelope{
		Topic:        strings.TrimSpace(header.Get(HeaderTopic)),
		SourceDomain: strings.TrimSpace(strings.ToLower(header.Get(HeaderShopDomain))),
		RawBody:      rawBody,
		Signature:    strings.TrimSpace(header.Get(HeaderHMAC)),
		ReceivedAt:   receivedAt,
	}
}

// DeliveryID reports Shopify's per-delivery id when present. Consumers use
// it for deduplication; the gateway only forwards it.
func DeliveryID(header http.Header) string {
	return strings.TrimSpace(header.Get(HeaderWebhookID))
}
