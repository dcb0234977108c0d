package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-integration-gateway/core"
)

type exchangeRequestBody struct {
	Platform    string `json:"platform"`
	Code        string `json:"code"`
	State       string `json:"state,omitempty"`
	RedirectURI string `json:"redirectUri,omitempty"`
}

// exchangeResponseBody deliberately omits the refresh token: it is a
// secret-at-rest and callers have no use for it.
type exchangeResponseBody struct {
	Success     bool              `json:"success"`
	Platform    string            `json:"platform"`
	AccessToken string            `json:"accessToken"`
	TokenType   string            `json:"tokenType"`
	Scope       string            `json:"scope,omitempty"`
	ExpiresIn   *int64            `json:"expiresIn,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ExchangeHandler terminates the OAuth callback endpoint. The caller must
// present a bearer token; the organization owning the new credential comes
// from that session, never from the request body.
type ExchangeHandler struct {
	Gateway *core.Gateway
}

func NewExchangeHandler(gateway *core.Gateway) *ExchangeHandler {
	return &ExchangeHandler{Gateway: gateway}
}

func (h *ExchangeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Gateway == nil {
		WriteError(w, fmt.Errorf("transport: exchange handler is not configured"))
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bearerToken, err := bearerFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var body exchangeRequestBody
	if decodeErr := json.NewDecoder(r.Body).Decode(&body); decodeErr != nil {
		WriteError(w, goerrors.New("transport: request body is not valid JSON", goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(core.GatewayErrorBadInput))
		return
	}

	// The redirect URI is derived from the request origin plus the fixed
	// callback path; a body-supplied value is only a fallback for callers
	// whose origin cannot be determined (no Origin, Host, or forwarded
	// headers). It must match the URI the authorization leg used, and that
	// leg went through the same derivation.
	redirectURI, resolveErr := core.ResolveCallbackURL(r, h.Gateway.Config().CallbackPath)
	if resolveErr != nil {
		redirectURI = strings.TrimSpace(body.RedirectURI)
		if redirectURI == "" {
			WriteError(w, resolveErr)
			return
		}
	}

	stored, err := h.Gateway.CompleteExchange(r.Context(), bearerToken, core.ExchangeRequest{
		Platform:    core.Platform(strings.TrimSpace(strings.ToLower(body.Platform))),
		Code:        strings.TrimSpace(body.Code),
		RedirectURI: redirectURI,
		State:       strings.TrimSpace(body.State),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(exchangeResponseBody{
		Success:     true,
		Platform:    string(stored.Platform),
		AccessToken: stored.AccessToken,
		TokenType:   stored.TokenType,
		Scope:       stored.Scope,
		ExpiresIn:   stored.ExpiresIn,
		Metadata:    stored.Metadata,
	})
}

func bearerFromRequest(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", goerrors.New("transport: authorization header is required", goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(core.GatewayErrorUnauthorized)
	}
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", goerrors.New("transport: authorization header must be a bearer token", goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(core.GatewayErrorUnauthorized)
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", goerrors.New("transport: bearer token is empty", goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(core.GatewayErrorUnauthorized)
	}
	return token, nil
}

var _ http.Handler = (*ExchangeHandler)(nil)
