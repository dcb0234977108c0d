package slack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-integration-gateway/core"
	"github.com/goliatone/go-integration-gateway/providers"
)

const (
	AuthURL  = "https://slack.com/oauth/v2/authorize"
	TokenURL = "https://slack.com/api/oauth.v2.access"
)

// Slack's protocol quirk: the token endpoint answers 200 even on rejection
// and signals failure through {"ok": false, "error": "..."}.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	Scopes       []string
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
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("slack: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("slack: client secret is required")
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	return &Adapter{cfg: cfg}, nil
}

func (a *Adapter) Platform() core.Platform {
	return core.PlatformSlack
}

// BuildExchangeRequest sends the client secret in the form body; Slack does
// not accept Basic auth on oauth.v2.access.
func (a *Adapter) BuildExchangeRequest(ctx context.Context, in core.ExchangeInput) (*http.Request, error) {
	if a == nil {
		return nil, fmt.Errorf("slack: adapter is nil")
	}
	form := url.Values{}
	form.Set("code", in.Code)
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)
	if redirectURI := strings.TrimSpace(in.RedirectURI); redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}
	return providers.NewFormRequest(ctx, a.cfg.TokenURL, form)
}

func (a *Adapter) NormalizeResponse(statusCode int, body []byte) (core.NormalizedCredential, error) {
	if !providers.SuccessStatus(statusCode) {
		fields, _ := providers.ParseTokenFields(body)
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformSlack, statusCode, fields.ErrorCode, providers.DescribeTokenError(fields))
	}
	decoded, err := providers.DecodeJSONObject(body)
	if err != nil {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformSlack, statusCode, "invalid_response", "token response was not valid JSON")
	}

	if ok, isBool := decoded["ok"].(bool); !isBool || !ok {
		errorCode := providers.ReadString(decoded, "error")
		if errorCode == "" {
			errorCode = "unknown_error"
		}
		return core.NormalizedCredential{}, providers.Reject(core.PlatformSlack, statusCode, errorCode, errorCode)
	}

	accessToken := providers.ReadString(decoded, "access_token")
	if accessToken == "" {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformSlack, statusCode, "missing_access_token", "token response missing access token")
	}

	metadata := map[string]string{}
	team := providers.ReadMap(decoded, "team")
	if teamID := providers.ReadString(team, "id"); teamID != "" {
		metadata["team_id"] = teamID
	}
	if teamName := providers.ReadString(team, "name"); teamName != "" {
		metadata["team_name"] = teamName
	}
	authedUser := providers.ReadMap(decoded, "authed_user")
	if userID := providers.ReadString(authedUser, "id"); userID != "" {
		metadata["authed_user_id"] = userID
	}
	if appID := providers.ReadString(decoded, "app_id"); appID != "" {
		metadata["app_id"] = appID
	}

	return core.NormalizedCredential{
		Platform:     core.PlatformSlack,
		AccessToken:  accessToken,
		RefreshToken: providers.ReadString(decoded, "refresh_token"),
		ExpiresIn:    providers.OptionalExpiry(providers.ReadInt64(decoded, "expires_in")),
		TokenType:    providers.NormalizeTokenType(providers.ReadString(decoded, "token_type")),
		Scope:        providers.ReadString(decoded, "scope"),
		Metadata:     metadata,
	}, nil
}

func (a *Adapter) AuthorizeURL(state string, redirectURI string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("slack: adapter is nil")
	}
	values := url.Values{}
	values.Set("client_id", a.cfg.ClientID)
	values.Set("state", state)
	if len(a.cfg.Scopes) > 0 {
		values.Set("scope", strings.Join(a.cfg.Scopes, ","))
	}
	if strings.TrimSpace(redirectURI) != "" {
		values.Set("redirect_uri", strings.TrimSpace(redirectURI))
	}
	return providers.AppendQuery(a.cfg.AuthURL, values), nil
}

var _ core.PlatformAdapter = (*Adapter)(nil)
var _ core.AuthorizeURLBuilder = (*Adapter)(nil)
