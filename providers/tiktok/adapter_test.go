package tiktok

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/goliatone/go-integration-gateway/core"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := New(Config{AppID: "app-1", Secret: "secret-1"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return adapter
}

func TestBuildExchangeRequest_JSONBody(t *testing.T) {
	adapter := newTestAdapter(t)

	req, err := adapter.BuildExchangeRequest(context.Background(), core.ExchangeInput{Code: "auth-code"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected JSON body, got %q", got)
	}

	raw, _ := io.ReadAll(req.Body)
	var payload map[string]string
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["app_id"] != "app-1" || payload["secret"] != "secret-1" || payload["auth_code"] != "auth-code" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestNormalizeResponse_EnvelopeSuccess(t *testing.T) {
	adapter := newTestAdapter(t)

	cred, err := adapter.NormalizeResponse(http.StatusOK, []byte(`{
		"code": 0,
		"message": "OK",
		"request_id": "req-1",
		"data": {
			"access_token": "act.token",
			"scope": ["ad.read", "report.read"],
			"advertiser_ids": ["111", "222"]
		}
	}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cred.AccessToken != "act.token" {
		t.Fatalf("unexpected access token %q", cred.AccessToken)
	}
	if cred.Scope != "ad.read report.read" {
		t.Fatalf("expected joined scope, got %q", cred.Scope)
	}
	if cred.Metadata["advertiser_ids"] != "111,222" {
		t.Fatalf("expected advertiser metadata, got %v", cred.Metadata)
	}
	if cred.Metadata["request_id"] != "req-1" {
		t.Fatalf("expected request id metadata, got %v", cred.Metadata)
	}
	if cred.ExpiresIn != nil {
		t.Fatalf("expected no expiry when absent, got %v", *cred.ExpiresIn)
	}
}

func TestNormalizeResponse_NonzeroCodeIsRejectionDespite200(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.NormalizeResponse(http.StatusOK, []byte(`{"code":40001,"message":"auth_code expired","data":{}}`))
	var upstream *core.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if upstream.Code != "40001" {
		t.Fatalf("expected envelope code, got %q", upstream.Code)
	}
	if upstream.Message != "auth_code expired" {
		t.Fatalf("expected envelope message, got %q", upstream.Message)
	}
}

func TestNormalizeResponse_StringScopeFallback(t *testing.T) {
	adapter := newTestAdapter(t)

	cred, err := adapter.NormalizeResponse(http.StatusOK, []byte(`{
		"code": 0,
		"data": {"access_token": "act.token", "scope": "ad.read", "expires_in": 86400}
	}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cred.Scope != "ad.read" {
		t.Fatalf("expected string scope passthrough, got %q", cred.Scope)
	}
	if cred.ExpiresIn == nil || *cred.ExpiresIn != 86400 {
		t.Fatalf("expected expiry 86400, got %v", cred.ExpiresIn)
	}
}

func TestNormalizeResponse_NonSuccessStatus(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.NormalizeResponse(http.StatusBadGateway, []byte("upstream unavailable"))
	var upstream *core.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if upstream.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 recorded, got %d", upstream.StatusCode)
	}
}
