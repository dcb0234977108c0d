package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/goliatone/go-integration-gateway/core"
)

func TestParseTokenFields_JSON(t *testing.T) {
	fields, err := ParseTokenFields([]byte(`{
		"access_token": "tok-1",
		"token_type": "Bearer",
		"refresh_token": "ref-1",
		"scope": "read write",
		"expires_in": 3600
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields.AccessToken != "tok-1" || fields.RefreshToken != "ref-1" {
		t.Fatalf("unexpected tokens: %+v", fields)
	}
	if fields.ExpiresIn != 3600 {
		t.Fatalf("expected expires_in 3600, got %d", fields.ExpiresIn)
	}
	if fields.Scope != "read write" {
		t.Fatalf("unexpected scope %q", fields.Scope)
	}
}

func TestParseTokenFields_FormFallback(t *testing.T) {
	fields, err := ParseTokenFields([]byte("access_token=tok-2&token_type=bearer&expires_in=7200"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields.AccessToken != "tok-2" {
		t.Fatalf("expected form token, got %q", fields.AccessToken)
	}
	if fields.ExpiresIn != 7200 {
		t.Fatalf("expected expires_in 7200, got %d", fields.ExpiresIn)
	}
}

func TestParseTokenFields_ErrorFields(t *testing.T) {
	fields, err := ParseTokenFields([]byte(`{"error":"invalid_grant","error_description":"code already used"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields.ErrorCode != "invalid_grant" {
		t.Fatalf("expected error code, got %q", fields.ErrorCode)
	}
	if got := DescribeTokenError(fields); got != "code already used" {
		t.Fatalf("expected description to win, got %q", got)
	}
	if got := DescribeTokenError(TokenFields{ErrorCode: "invalid_grant"}); got != "invalid_grant" {
		t.Fatalf("expected code fallback, got %q", got)
	}
	if got := DescribeTokenError(TokenFields{}); got != "unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestParseTokenFields_EmptyBody(t *testing.T) {
	if _, err := ParseTokenFields(nil); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestNewFormRequest(t *testing.T) {
	form := url.Values{}
	form.Set("code", "auth-code")
	form.Set("grant_type", "authorization_code")

	req, err := NewFormRequest(context.Background(), "https://example.com/token", form)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Method != http.MethodPost {
		t.Fatalf("expected POST, got %s", req.Method)
	}
	if got := req.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type %q", got)
	}
	body, _ := io.ReadAll(req.Body)
	parsed, err := url.ParseQuery(string(body))
	if err != nil {
		t.Fatalf("parse body: %v", err)
	}
	if parsed.Get("code") != "auth-code" {
		t.Fatalf("expected code in body, got %q", string(body))
	}

	if _, err := NewFormRequest(context.Background(), "  ", form); err == nil {
		t.Fatalf("expected error for empty token url")
	}
}

func TestNewJSONRequest(t *testing.T) {
	req, err := NewJSONRequest(context.Background(), "https://example.com/token", map[string]string{"code": "auth-code"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	body, _ := io.ReadAll(req.Body)
	if string(body) != `{"code":"auth-code"}` {
		t.Fatalf("unexpected body %q", string(body))
	}
}

func TestNormalizeTokenType(t *testing.T) {
	if got := NormalizeTokenType("  Bearer "); got != "bearer" {
		t.Fatalf("expected bearer, got %q", got)
	}
	if got := NormalizeTokenType(""); got != "bearer" {
		t.Fatalf("expected default bearer, got %q", got)
	}
	if got := NormalizeTokenType("MAC"); got != "mac" {
		t.Fatalf("expected mac, got %q", got)
	}
}

func TestOptionalExpiry(t *testing.T) {
	if got := OptionalExpiry(0); got != nil {
		t.Fatalf("expected nil for zero, got %v", *got)
	}
	if got := OptionalExpiry(-5); got != nil {
		t.Fatalf("expected nil for negative, got %v", *got)
	}
	got := OptionalExpiry(3600)
	if got == nil || *got != 3600 {
		t.Fatalf("expected 3600, got %v", got)
	}
}

func TestReject(t *testing.T) {
	err := Reject(core.PlatformSlack, http.StatusOK, " invalid_code ", " code was already used ")
	var upstream *core.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %T", err)
	}
	if upstream.Code != "invalid_code" || upstream.Message != "code was already used" {
		t.Fatalf("expected trimmed fields, got %+v", upstream)
	}
	if upstream.Platform != core.PlatformSlack {
		t.Fatalf("expected platform slack, got %q", upstream.Platform)
	}
}

func TestAppendQuery(t *testing.T) {
	values := url.Values{}
	values.Set("state", "abc")

	if got := AppendQuery("https://example.com/authorize", values); got != "https://example.com/authorize?state=abc" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := AppendQuery("https://example.com/authorize?client_id=1", values); got != "https://example.com/authorize?client_id=1&state=abc" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestReadHelpers(t *testing.T) {
	decoded := map[string]any{
		"name":   " value ",
		"count":  float64(42),
		"digits": "17",
		"nested": map[string]any{"inner": "x"},
		"items":  []any{"a", " b ", nil},
	}

	if got := ReadString(decoded, "name"); got != "value" {
		t.Fatalf("expected trimmed string, got %q", got)
	}
	if got := ReadString(decoded, "missing"); got != "" {
		t.Fatalf("expected empty for missing key, got %q", got)
	}
	if got := ReadInt64(decoded, "count"); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := ReadInt64(decoded, "digits"); got != 17 {
		t.Fatalf("expected parsed string int, got %d", got)
	}
	if got := ReadMap(decoded, "nested"); got["inner"] != "x" {
		t.Fatalf("expected nested map, got %v", got)
	}
	if got := ReadMap(decoded, "name"); len(got) != 0 {
		t.Fatalf("expected empty map for non-map value, got %v", got)
	}
	items := ReadStringSlice(decoded, "items")
	if len(items) != 2 || items[0] != "a" || items[1] != "b" {
		t.Fatalf("expected trimmed non-nil items, got %v", items)
	}
}
