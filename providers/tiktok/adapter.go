package tiktok

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-integration-gateway/core"
	"github.com/goliatone/go-integration-gateway/providers"
)

const (
	AuthURL  = "https://business-api.tiktok.com/portal/auth"
	TokenURL = "https://business-api.tiktok.com/open_api/v1.3/oauth2/access_token/"
)

// TikTok's business API wraps every response in {code, message, data} and
// signals rejection through a nonzero code on an HTTP 200.
type Config struct {
	AppID    string
	Secret   string
	AuthURL  string
	TokenURL string
}

type Adapter struct {
	cfg Config
}

func DefaultConfig() Config {
	return Config{
		AuthURL:  AuthURL,
		TokenURL: TokenURL,
	}
}

func New(cfg Config) (*Adapter, error) {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.AuthURL) == "" {
		cfg.AuthURL = defaults.AuthURL
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = defaults.TokenURL
	}
	if strings.TrimSpace(cfg.AppID) == "" {
		return nil, fmt.Errorf("tiktok: app id is required")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("tiktok: app secret is required")
	}
	cfg.AppID = strings.TrimSpace(cfg.AppID)
	cfg.Secret = strings.TrimSpace(cfg.Secret)
	return &Adapter{cfg: cfg}, nil
}

func (a *Adapter) Platform() core.Platform {
	return core.PlatformTikTok
}

func (a *Adapter) BuildExchangeRequest(ctx context.Context, in core.ExchangeInput) (*http.Request, error) {
	if a == nil {
		return nil, fmt.Errorf("tiktok: adapter is nil")
	}
	payload := map[string]string{
		"app_id":    a.cfg.AppID,
		"secret":    a.cfg.Secret,
		"auth_code": in.Code,
	}
	return providers.NewJSONRequest(ctx, a.cfg.TokenURL, payload)
}

func (a *Adapter) NormalizeResponse(statusCode int, body []byte) (core.NormalizedCredential, error) {
	if !providers.SuccessStatus(statusCode) {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformTikTok, statusCode, "", "exchange rejected")
	}
	decoded, err := providers.DecodeJSONObject(body)
	if err != nil {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformTikTok, statusCode, "invalid_response", "token response was not valid JSON")
	}

	if code := providers.ReadInt64(decoded, "code"); code != 0 {
		message := providers.ReadString(decoded, "message")
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformTikTok, statusCode, strconv.FormatInt(code, 10), message)
	}

	data := providers.ReadMap(decoded, "data")
	accessToken := providers.ReadString(data, "access_token")
	if accessToken == "" {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformTikTok, statusCode, "missing_access_token", "token response missing access token")
	}

	metadata := map[string]string{}
	if advertiserIDs := providers.ReadStringSlice(data, "advertiser_ids"); len(advertiserIDs) > 0 {
		metadata["advertiser_ids"] = strings.Join(advertiserIDs, ",")
	}
	if requestID := providers.ReadString(decoded, "request_id"); requestID != "" {
		metadata["request_id"] = requestID
	}

	// scope arrives as a JSON array on this API, not a space-joined string
	scope := strings.Join(providers.ReadStringSlice(data, "scope"), " ")
	if scope == "" {
		if _, isSlice := data["scope"].([]any); !isSlice {
			scope = providers.ReadString(data, "scope")
		}
	}

	return core.NormalizedCredential{
		Platform:    core.PlatformTikTok,
		AccessToken: accessToken,
		ExpiresIn:   providers.OptionalExpiry(providers.ReadInt64(data, "expires_in")),
		TokenType:   providers.NormalizeTokenType(providers.ReadString(data, "token_type")),
		Scope:       scope,
		Metadata:    metadata,
	}, nil
}

func (a *Adapter) AuthorizeURL(state string, redirectURI string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("tiktok: adapter is nil")
	}
	values := url.Values{}
	values.Set("app_id", a.cfg.AppID)
	values.Set("state", state)
	if strings.TrimSpace(redirectURI) != "" {
		values.Set("redirect_uri", strings.TrimSpace(redirectURI))
	}
	return providers.AppendQuery(a.cfg.AuthURL, values), nil
}

var _ core.PlatformAdapter = (*Adapter)(nil)
var _ core.AuthorizeURLBuilder = (*Adapter)(nil)
