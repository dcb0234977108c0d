package pinterest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/goliatone/go-integration-gateway/core"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := New(Config{ClientID: "app-1", ClientSecret: "secret-1"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return adapter
}

func TestBuildExchangeRequest_UsesBasicAuth(t *testing.T) {
	adapter := newTestAdapter(t)

	req, err := adapter.BuildExchangeRequest(context.Background(), core.ExchangeInput{Code: "auth-code"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	user, pass, ok := req.BasicAuth()
	if !ok {
		t.Fatalf("expected basic auth on request")
	}
	if user != "app-1" || pass != "secret-1" {
		t.Fatalf("unexpected basic auth %q/%q", user, pass)
	}

	raw, _ := io.ReadAll(req.Body)
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if form.Get("grant_type") != "authorization_code" || form.Get("code") != "auth-code" {
		t.Fatalf("unexpected form %v", form)
	}
	if form.Get("client_secret") != "" {
		t.Fatalf("secret must not travel in the body")
	}
}

func TestNormalizeResponse_FlatJSON(t *testing.T) {
	adapter := newTestAdapter(t)

	cred, err := adapter.NormalizeResponse(http.StatusOK, []byte(`{
		"access_token": "pina_token",
		"refresh_token": "pinr_token",
		"token_type": "bearer",
		"expires_in": 2592000,
		"refresh_token_expires_in": 31536000,
		"scope": "ads:read user_accounts:read"
	}`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cred.AccessToken != "pina_token" || cred.RefreshToken != "pinr_token" {
		t.Fatalf("unexpected tokens %+v", cred)
	}
	if cred.ExpiresIn == nil || *cred.ExpiresIn != 2592000 {
		t.Fatalf("expected expiry 2592000, got %v", cred.ExpiresIn)
	}
	if cred.Metadata["refresh_token_expires_in"] != "31536000" {
		t.Fatalf("expected refresh expiry metadata, got %v", cred.Metadata)
	}
}

func TestNormalizeResponse_NonSuccessStatus(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.NormalizeResponse(http.StatusBadRequest, []byte(`{"error":"invalid_grant","error_description":"authorization code expired"}`))
	var upstream *core.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if upstream.StatusCode != http.StatusBadRequest || upstream.Code != "invalid_grant" {
		t.Fatalf("unexpected rejection %+v", upstream)
	}
}

func TestNormalizeResponse_MissingAccessToken(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.NormalizeResponse(http.StatusOK, []byte(`{"token_type":"bearer"}`))
	var upstream *core.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if upstream.Code != "missing_access_token" {
		t.Fatalf("expected missing_access_token, got %q", upstream.Code)
	}
}

func TestAuthorizeURL_DefaultScopes(t *testing.T) {
	adapter := newTestAdapter(t)

	authorizeURL, err := adapter.AuthorizeURL("state-1", "https://gateway.example.com/cb")
	if err != nil {
		t.Fatalf("authorize url: %v", err)
	}
	parsed, err := url.Parse(authorizeURL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	query := parsed.Query()
	if query.Get("response_type") != "code" || query.Get("state") != "state-1" {
		t.Fatalf("unexpected query %v", query)
	}
	if query.Get("scope") != "ads:read,user_accounts:read" {
		t.Fatalf("expected default scopes, got %q", query.Get("scope"))
	}
}
