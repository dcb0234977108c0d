package pinterest

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
	AuthURL  = "https://www.pinterest.com/oauth/"
	TokenURL = "https://api.pinterest.com/v5/oauth/token"
)

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
		Scopes:   []string{"ads:read", "user_accounts:read"},
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
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaults.Scopes
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("pinterest: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("pinterest: client secret is required")
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	return &Adapter{cfg: cfg}, nil
}

func (a *Adapter) Platform() core.Platform {
	return core.PlatformPinterest
}

// Pinterest wants client credentials as HTTP Basic auth, never in the body.
func (a *Adapter) BuildExchangeRequest(ctx context.Context, in core.ExchangeInput) (*http.Request, error) {
	if a == nil {
		return nil, fmt.Errorf("pinterest: adapter is nil")
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", in.Code)
	if redirectURI := strings.TrimSpace(in.RedirectURI); redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}
	req, err := providers.NewFormRequest(ctx, a.cfg.TokenURL, form)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.ClientSecret)
	return req, nil
}

func (a *Adapter) NormalizeResponse(statusCode int, body []byte) (core.NormalizedCredential, error) {
	fields, err := providers.ParseTokenFields(body)
	if !providers.SuccessStatus(statusCode) {
		message := "exchange rejected"
		code := ""
		if err == nil {
			message = providers.DescribeTokenError(fields)
			code = fields.ErrorCode
		}
		return core.NormalizedCredential{}, providers.Reject(core.PlatformPinterest, statusCode, code, message)
	}
	if err != nil {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformPinterest, statusCode, "invalid_response", "token response was not parseable")
	}
	if fields.ErrorCode != "" {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformPinterest, statusCode, fields.ErrorCode, providers.DescribeTokenError(fields))
	}
	if strings.TrimSpace(fields.AccessToken) == "" {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformPinterest, statusCode, "missing_access_token", "token response missing access token")
	}

	metadata := map[string]string{}
	if decoded, decodeErr := providers.DecodeJSONObject(body); decodeErr == nil {
		if refreshExpiry := providers.ReadInt64(decoded, "refresh_token_expires_in"); refreshExpiry > 0 {
			metadata["refresh_token_expires_in"] = strconv.FormatInt(refreshExpiry, 10)
		}
	}

	return core.NormalizedCredential{
		Platform:     core.PlatformPinterest,
		AccessToken:  fields.AccessToken,
		RefreshToken: fields.RefreshToken,
		ExpiresIn:    providers.OptionalExpiry(fields.ExpiresIn),
		TokenType:    providers.NormalizeTokenType(fields.TokenType),
		Scope:        fields.Scope,
		Metadata:     metadata,
	}, nil
}

func (a *Adapter) AuthorizeURL(state string, redirectURI string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("pinterest: adapter is nil")
	}
	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", a.cfg.ClientID)
	values.Set("state", state)
	values.Set("scope", strings.Join(a.cfg.Scopes, ","))
	if strings.TrimSpace(redirectURI) != "" {
		values.Set("redirect_uri", strings.TrimSpace(redirectURI))
	}
	return providers.AppendQuery(a.cfg.AuthURL, values), nil
}

var _ core.PlatformAdapter = (*Adapter)(nil)
var _ core.AuthorizeURLBuilder = (*Adapter)(nil)
