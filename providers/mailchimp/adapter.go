package mailchimp

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
	AuthURL  = "https://login.mailchimp.com/oauth2/authorize"
	TokenURL = "https://login.mailchimp.com/oauth2/token"
)

// Mailchimp tokens do not expire and the token response carries no refresh
// token; the normalized credential keeps those fields empty.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
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
		return nil, fmt.Errorf("mailchimp: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("mailchimp: client secret is required")
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	return &Adapter{cfg: cfg}, nil
}

func (a *Adapter) Platform() core.Platform {
	return core.PlatformMailchimp
}

func (a *Adapter) BuildExchangeRequest(ctx context.Context, in core.ExchangeInput) (*http.Request, error) {
	if a == nil {
		return nil, fmt.Errorf("mailchimp: adapter is nil")
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", in.Code)
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)
	if redirectURI := strings.TrimSpace(in.RedirectURI); redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}
	return providers.NewFormRequest(ctx, a.cfg.TokenURL, form)
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
		return core.NormalizedCredential{}, providers.Reject(core.PlatformMailchimp, statusCode, code, message)
	}
	if err != nil {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformMailchimp, statusCode, "invalid_response", "token response was not parseable")
	}
	if fields.ErrorCode != "" {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformMailchimp, statusCode, fields.ErrorCode, providers.DescribeTokenError(fields))
	}
	if strings.TrimSpace(fields.AccessToken) == "" {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformMailchimp, statusCode, "missing_access_token", "token response missing access token")
	}

	return core.NormalizedCredential{
		Platform:    core.PlatformMailchimp,
		AccessToken: fields.AccessToken,
		TokenType:   providers.NormalizeTokenType(fields.TokenType),
		Scope:       fields.Scope,
		Metadata:    map[string]string{},
	}, nil
}

func (a *Adapter) AuthorizeURL(state string, redirectURI string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("mailchimp: adapter is nil")
	}
	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", a.cfg.ClientID)
	values.Set("state", state)
	if strings.TrimSpace(redirectURI) != "" {
		values.Set("redirect_uri", strings.TrimSpace(redirectURI))
	}
	return providers.AppendQuery(a.cfg.AuthURL, values), nil
}

var _ core.PlatformAdapter = (*Adapter)(nil)
var _ core.AuthorizeURLBuilder = (*Adapter)(nil)
