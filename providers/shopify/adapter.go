package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-integration-gateway/core"
	"github.com/goliatone/go-integration-gateway/providers"
)

// Shopify endpoints are per-store: both URLs are derived from the shop's
// myshopify domain at call time.
type Config struct {
	ShopDomain   string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

type Adapter struct {
	cfg Config
}

func New(cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.ShopDomain) == "" {
		return nil, fmt.Errorf("shopify: shop domain is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("shopify: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("shopify: client secret is required")
	}
	cfg.ShopDomain = strings.TrimSpace(strings.ToLower(cfg.ShopDomain))
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	return &Adapter{cfg: cfg}, nil
}

func (a *Adapter) Platform() core.Platform {
	return core.PlatformShopify
}

func (a *Adapter) TokenURL() string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("https://%s/admin/oauth/access_token", a.cfg.ShopDomain)
}

// BuildExchangeRequest posts a JSON body with the secret in it; Shopify's
// access_token endpoint takes no Basic auth.
func (a *Adapter) BuildExchangeRequest(ctx context.Context, in core.ExchangeInput) (*http.Request, error) {
	if a == nil {
		return nil, fmt.Errorf("shopify: adapter is nil")
	}
	payload := map[string]string{
		"client_id":     a.cfg.ClientID,
		"client_secret": a.cfg.ClientSecret,
		"code":          in.Code,
	}
	return providers.NewJSONRequest(ctx, a.TokenURL(), payload)
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
		return core.NormalizedCredential{}, providers.Reject(core.PlatformShopify, statusCode, code, message)
	}
	if err != nil {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformShopify, statusCode, "invalid_response", "token response was not parseable")
	}
	if strings.TrimSpace(fields.AccessToken) == "" {
		return core.NormalizedCredential{}, providers.Reject(
			core.PlatformShopify, statusCode, "missing_access_token", "token response missing access token")
	}

	metadata := map[string]string{"shop_domain": a.cfg.ShopDomain}

	// Offline tokens never expire; associated_user sessions do.
	return core.NormalizedCredential{
		Platform:    core.PlatformShopify,
		AccessToken: fields.AccessToken,
		ExpiresIn:   providers.OptionalExpiry(fields.ExpiresIn),
		TokenType:   providers.NormalizeTokenType(fields.TokenType),
		Scope:       fields.Scope,
		Metadata:    metadata,
	}, nil
}

func (a *Adapter) AuthorizeURL(state string, redirectURI string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("shopify: adapter is nil")
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
	authURL := fmt.Sprintf("https://%s/admin/oauth/authorize", a.cfg.ShopDomain)
	return providers.AppendQuery(authURL, values), nil
}

var _ core.PlatformAdapter = (*Adapter)(nil)
var _ core.AuthorizeURLBuilder = (*Adapter)(nil)
