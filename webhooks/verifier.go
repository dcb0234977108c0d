package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goliatone/go-integration-gateway/core"
)

const (
	EncodingBase64 = "base64"
	EncodingHex    = "hex"
)

// HMACVerifier authenticates a raw webhook body with HMAC-SHA256. The
// computation runs over the exact bytes received; callers must never
// re-serialize the payload first. Comparison is constant time.
type HMACVerifier struct {
	// Prefix is stripped from the presented signature before decoding,
	// for schemes that prepend "sha256=".
	Prefix   string
	Encoding string // base64 | hex
}

func (v HMACVerifier) Verify(_ context.Context, rawBody []byte, signature string, secret string) error {
	presented := strings.TrimSpace(signature)
	if presented == "" {
		return fmt.Errorf("%w: signature", core.ErrMissingWebhookHeader)
	}
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("webhooks: signature secret is required")
	}
	presented = strings.TrimSpace(strings.TrimPrefix(presented, strings.TrimSpace(v.Prefix)))
	if presented == "" {
		return fmt.Errorf("%w: signature", core.ErrMissingWebhookHeader)
	}

	decoded, err := decodeSignature(presented, v.Encoding)
	if err != nil {
		// An undecodable signature can never match; same outcome as a
		// wrong one so callers see a single failure mode.
		return fmt.Errorf("%w: malformed signature", core.ErrSignatureMismatch)
	}

	expected := ComputeSignature(rawBody, secret)
	if subtle.ConstantTimeCompare(decoded, expected) != 1 {
		return core.ErrSignatureMismatch
	}
	return nil
}

// ComputeSignature returns the raw HMAC-SHA256 digest of body under secret.
// Test fixtures and outbound signing both use it.
func ComputeSignature(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

// EncodeSignature renders a digest the way a sending platform would.
func EncodeSignature(digest []byte, encoding string) string {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case EncodingBase64:
		return base64.StdEncoding.EncodeToString(digest)
	default:
		return hex.EncodeToString(digest)
	}
}

func decodeSignature(signature string, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case EncodingBase64:
		return base64.StdEncoding.DecodeString(signature)
	default:
		return hex.DecodeString(signature)
	}
}

// StaticSecretSource serves one shared secret for every source domain.
type StaticSecretSource string

func (s StaticSecretSource) SecretFor(_ context.Context, _ string) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", fmt.Errorf("webhooks: webhook secret is not configured")
	}
	return string(s), nil
}

// DomainSecretSource scopes secrets per source domain with an optional
// fallback for domains without an override.
type DomainSecretSource struct {
	Secrets  map[string]string
	Fallback string
}

func (s DomainSecretSource) SecretFor(_ context.Context, sourceDomain string) (string, error) {
	domain := strings.TrimSpace(strings.ToLower(sourceDomain))
	for configured, secret := range s.Secrets {
		if strings.TrimSpace(strings.ToLower(configured)) == domain && strings.TrimSpace(secret) != "" {
			return secret, nil
		}
	}
	if strings.TrimSpace(s.Fallback) != "" {
		return s.Fallback, nil
	}
	return "", fmt.Errorf("webhooks: no webhook secret configured for domain %q", sourceDomain)
}

var _ core.SignatureVerifier = HMACVerifier{}
var _ core.WebhookSecretSource = StaticSecretSource("")
var _ core.WebhookSecretSource = DomainSecretSource{}
