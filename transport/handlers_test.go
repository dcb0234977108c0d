package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-integration-gateway/core"
	"github.com/goliatone/go-integration-gateway/providers/shopify"
	"github.com/goliatone/go-integration-gateway/transport"
	"github.com/goliatone/go-integration-gateway/webhooks"
)

const testWebhookSecret = "webhook-secret"

type fixedOrganizationResolver struct {
	byDomain  map[string]core.Organization
	bySession map[string]core.Organization
}

func (r fixedOrganizationResolver) ByDomain(_ context.Context, domain string) (core.Organization, error) {
	organization, ok := r.byDomain[strings.ToLower(strings.TrimSpace(domain))]
	if !ok {
		return core.Organization{}, fmt.Errorf("%w: domain %q", core.ErrOrganizationNotFound, domain)
	}
	return organization, nil
}

func (r fixedOrganizationResolver) BySession(_ context.Context, bearerToken string) (core.Organization, error) {
	organization, ok := r.bySession[strings.TrimSpace(bearerToken)]
	if !ok {
		return core.Organization{}, core.ErrInvalidSession
	}
	return organization, nil
}

type recordingDispatcher struct {
	jobs []core.WebhookEnvelope
}

func (d *recordingDispatcher) Dispatch(_ context.Context, envelope core.WebhookEnvelope, _ string) (core.JobHandle, error) {
	d.jobs = append(d.jobs, envelope)
	return core.JobHandle{JobID: "job-1", EnqueuedAt: time.Now().UTC()}, nil
}

type recordingCredentialStore struct {
	stored []core.NormalizedCredential
}

func (s *recordingCredentialStore) Upsert(_ context.Context, organizationID string, cred core.NormalizedCredential) (core.StoredCredential, error) {
	s.stored = append(s.stored, cred)
	return core.StoredCredential{
		ID:             "cred-1",
		OrganizationID: organizationID,
		Platform:       cred.Platform,
		AccessToken:    cred.AccessToken,
		RefreshToken:   cred.RefreshToken,
		ExpiresIn:      cred.ExpiresIn,
		TokenType:      cred.TokenType,
		Scope:          cred.Scope,
		Metadata:       cred.Metadata,
	}, nil
}

func (s *recordingCredentialStore) GetByOrganizationPlatform(context.Context, string, core.Platform) (core.StoredCredential, error) {
	return core.StoredCredential{}, fmt.Errorf("not implemented")
}

type tokenAdapter struct {
	platform   core.Platform
	credential core.NormalizedCredential
	normErr    error
}

func (a tokenAdapter) Platform() core.Platform { return a.platform }

func (a tokenAdapter) BuildExchangeRequest(ctx context.Context, _ core.ExchangeInput) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodPost, "https://example.com/token", nil)
}

func (a tokenAdapter) NormalizeResponse(int, []byte) (core.NormalizedCredential, error) {
	if a.normErr != nil {
		return core.NormalizedCredential{}, a.normErr
	}
	return a.credential, nil
}

type redirectCapturingAdapter struct {
	tokenAdapter
	input *core.ExchangeInput
}

func (a redirectCapturingAdapter) BuildExchangeRequest(ctx context.Context, in core.ExchangeInput) (*http.Request, error) {
	*a.input = in
	return a.tokenAdapter.BuildExchangeRequest(ctx, in)
}

type stubDoer struct{}

func (stubDoer) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{}`)),
		Request:    req,
	}, nil
}

func newWebhookGateway(t *testing.T, dispatcher *recordingDispatcher) *core.Gateway {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Webhook.Secret = testWebhookSecret
	gateway, err := core.NewGateway(cfg,
		core.WithSignatureVerifier(webhooks.HMACVerifier{Encoding: webhooks.EncodingBase64}),
		core.WithWebhookDispatcher(dispatcher),
		core.WithOrganizationResolver(fixedOrganizationResolver{
			byDomain: map[string]core.Organization{
				"acme.myshopify.com": {ID: "org-1", Domain: "acme.myshopify.com"},
			},
		}),
	)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gateway
}

func signBody(body []byte) string {
	return webhooks.EncodeSignature(webhooks.ComputeSignature(body, testWebhookSecret), webhooks.EncodingBase64)
}

func postWebhook(t *testing.T, handler http.Handler, body []byte, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader(body))
	req.Header.Set(shopify.HeaderTopic, "orders/create")
	req.Header.Set(shopify.HeaderShopDomain, "acme.myshopify.com")
	req.Header.Set(shopify.HeaderHMAC, signBody(body))
	if mutate != nil {
		mutate(req)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestWebhookHandler_AcceptsSignedDelivery(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	handler := transport.NewWebhookHandler(newWebhookGateway(t, dispatcher))

	body := []byte(`{"id":42,"total_price":"10.00"}`)
	recorder := postWebhook(t, handler, body, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body)
	}

	var response map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response["success"] != true {
		t.Fatalf("unexpected response %v", response)
	}
	// Fire-and-forget contract: the queue handle never reaches the caller.
	if _, leaked := response["jobId"]; leaked {
		t.Fatalf("success body must carry no job identifier, got %v", response)
	}
	if len(dispatcher.jobs) != 1 || string(dispatcher.jobs[0].RawBody) != string(body) {
		t.Fatalf("expected raw body passed through, got %+v", dispatcher.jobs)
	}
}

func TestWebhookHandler_MissingHeadersIs400(t *testing.T) {
	handler := transport.NewWebhookHandler(newWebhookGateway(t, &recordingDispatcher{}))

	recorder := postWebhook(t, handler, []byte(`{}`), func(r *http.Request) {
		r.Header.Del(shopify.HeaderTopic)
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body)
	}
}

func TestWebhookHandler_BadSignatureIs401(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	handler := transport.NewWebhookHandler(newWebhookGateway(t, dispatcher))

	recorder := postWebhook(t, handler, []byte(`{"id":42}`), func(r *http.Request) {
		r.Header.Set(shopify.HeaderHMAC, signBody([]byte(`{"id":43}`)))
	})
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", recorder.Code, recorder.Body)
	}
	if len(dispatcher.jobs) != 0 {
		t.Fatalf("unverified delivery must not dispatch, got %d", len(dispatcher.jobs))
	}
}

func TestWebhookHandler_UnknownDomainIs404(t *testing.T) {
	handler := transport.NewWebhookHandler(newWebhookGateway(t, &recordingDispatcher{}))

	recorder := postWebhook(t, handler, []byte(`{"id":42}`), func(r *http.Request) {
		r.Header.Set(shopify.HeaderShopDomain, "ghost.myshopify.com")
	})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", recorder.Code, recorder.Body)
	}
}

func TestWebhookHandler_RejectsNonPOST(t *testing.T) {
	handler := transport.NewWebhookHandler(newWebhookGateway(t, &recordingDispatcher{}))

	req := httptest.NewRequest(http.MethodGet, "/webhooks/shopify", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
}

func newExchangeGateway(t *testing.T, adapter core.PlatformAdapter, store *recordingCredentialStore) *core.Gateway {
	t.Helper()
	registry := core.NewAdapterRegistry()
	if err := registry.Register(adapter); err != nil {
		t.Fatalf("register adapter: %v", err)
	}
	cfg := core.DefaultConfig()
	gateway, err := core.NewGateway(cfg,
		core.WithRegistry(registry),
		core.WithCredentialStore(store),
		core.WithOrganizationResolver(fixedOrganizationResolver{
			bySession: map[string]core.Organization{
				"session-token": {ID: "org-1"},
			},
		}),
		core.WithHTTPClient(stubDoer{}),
	)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gateway
}

func postExchange(handler http.Handler, authorization string, payload map[string]any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/integrations/oauth/callback", bytes.NewReader(body))
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestExchangeHandler_Succeeds(t *testing.T) {
	expiry := int64(43200)
	store := &recordingCredentialStore{}
	handler := transport.NewExchangeHandler(newExchangeGateway(t, tokenAdapter{
		platform: core.PlatformSlack,
		credential: core.NormalizedCredential{
			Platform:     core.PlatformSlack,
			AccessToken:  "xoxb-1",
			RefreshToken: "xoxr-1",
			ExpiresIn:    &expiry,
			TokenType:    "bearer",
			Scope:        "chat:write",
			Metadata:     map[string]string{"team_id": "T1"},
		},
	}, store))

	recorder := postExchange(handler, "Bearer session-token", map[string]any{
		"platform": "slack",
		"code":     "auth-code",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body)
	}

	var response map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response["success"] != true || response["accessToken"] != "xoxb-1" {
		t.Fatalf("unexpected response %v", response)
	}
	if _, present := response["refreshToken"]; present {
		t.Fatalf("refresh token must never leave the gateway: %v", response)
	}
	if len(store.stored) != 1 || store.stored[0].RefreshToken != "xoxr-1" {
		t.Fatalf("refresh token must still be persisted, got %+v", store.stored)
	}
}

func TestExchangeHandler_DerivesRedirectURIFromOrigin(t *testing.T) {
	var input core.ExchangeInput
	adapter := redirectCapturingAdapter{
		tokenAdapter: tokenAdapter{
			platform:   core.PlatformSlack,
			credential: core.NormalizedCredential{Platform: core.PlatformSlack, AccessToken: "x", TokenType: "bearer"},
		},
		input: &input,
	}
	handler := transport.NewExchangeHandler(newExchangeGateway(t, adapter, &recordingCredentialStore{}))

	// A body-supplied redirectUri must not displace the derived one.
	recorder := postExchange(handler, "Bearer session-token", map[string]any{
		"platform":    "slack",
		"code":        "auth-code",
		"redirectUri": "https://elsewhere.example/callback",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body)
	}
	if input.RedirectURI != "http://example.com/integrations/oauth/callback" {
		t.Fatalf("expected redirect uri derived from request origin, got %q", input.RedirectURI)
	}
}

func TestExchangeHandler_MissingBearerIs401(t *testing.T) {
	handler := transport.NewExchangeHandler(newExchangeGateway(t, tokenAdapter{
		platform:   core.PlatformSlack,
		credential: core.NormalizedCredential{Platform: core.PlatformSlack, AccessToken: "x", TokenType: "bearer"},
	}, &recordingCredentialStore{}))

	for _, authorization := range []string{"", "Basic abc", "Bearer "} {
		recorder := postExchange(handler, authorization, map[string]any{"platform": "slack", "code": "c"})
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("authorization %q: expected 401, got %d", authorization, recorder.Code)
		}
	}
}

func TestExchangeHandler_UnknownPlatformIs400(t *testing.T) {
	handler := transport.NewExchangeHandler(newExchangeGateway(t, tokenAdapter{
		platform:   core.PlatformSlack,
		credential: core.NormalizedCredential{Platform: core.PlatformSlack, AccessToken: "x", TokenType: "bearer"},
	}, &recordingCredentialStore{}))

	recorder := postExchange(handler, "Bearer session-token", map[string]any{
		"platform": "fakebook",
		"code":     "auth-code",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body)
	}
}

func TestExchangeHandler_UpstreamRejectionIs400WithMetadata(t *testing.T) {
	store := &recordingCredentialStore{}
	handler := transport.NewExchangeHandler(newExchangeGateway(t, tokenAdapter{
		platform: core.PlatformSlack,
		normErr: &core.UpstreamError{
			Platform:   core.PlatformSlack,
			StatusCode: http.StatusOK,
			Code:       "invalid_code",
			Message:    "code already used",
		},
	}, store))

	recorder := postExchange(handler, "Bearer session-token", map[string]any{
		"platform": "slack",
		"code":     "spent-code",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", recorder.Code, recorder.Body)
	}

	var envelope struct {
		Error struct {
			Message  string         `json:"message"`
			TextCode string         `json:"text_code"`
			Metadata map[string]any `json:"metadata"`
		} `json:"error"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error.TextCode != core.GatewayErrorExchangeRejected {
		t.Fatalf("expected %q, got %q", core.GatewayErrorExchangeRejected, envelope.Error.TextCode)
	}
	if envelope.Error.Metadata["platform"] != "slack" {
		t.Fatalf("expected platform metadata, got %v", envelope.Error.Metadata)
	}
	if len(store.stored) != 0 {
		t.Fatalf("rejected exchange must not persist, got %d", len(store.stored))
	}
}

func TestExchangeHandler_InvalidJSONIs400(t *testing.T) {
	handler := transport.NewExchangeHandler(newExchangeGateway(t, tokenAdapter{
		platform:   core.PlatformSlack,
		credential: core.NormalizedCredential{Platform: core.PlatformSlack, AccessToken: "x", TokenType: "bearer"},
	}, &recordingCredentialStore{}))

	req := httptest.NewRequest(http.MethodPost, "/integrations/oauth/callback", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer session-token")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}
