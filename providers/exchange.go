package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-integration-gateway/core"
)

// TokenFields is the superset of fields a token endpoint can return. Each
// platform adapter reads the subset its protocol defines and leaves the rest
// zero.
type TokenFields struct {
	AccessToken      string
	TokenType        string
	RefreshToken     string
	Scope            string
	ExpiresIn        int64
	ErrorCode        string
	ErrorDescription string
}

// NewFormRequest builds the POST most token endpoints expect: urlencoded
// body, JSON accepted back.
func NewFormRequest(ctx context.Context, tokenURL string, form url.Values) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(tokenURL) == "" {
		return nil, fmt.Errorf("providers: token url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func NewJSONRequest(ctx context.Context, tokenURL string, payload any) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(tokenURL) == "" {
		return nil, fmt.Errorf("providers: token url is required")
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("providers: encode token request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// ParseTokenFields decodes a token endpoint body, trying JSON first and
// falling back to the urlencoded form some older endpoints still emit.
func ParseTokenFields(body []byte) (TokenFields, error) {
	if fields, err := parseTokenFieldsJSON(body); err == nil {
		return fields, nil
	}
	return parseTokenFieldsForm(body)
}

func parseTokenFieldsJSON(body []byte) (TokenFields, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return TokenFields{}, fmt.Errorf("empty payload")
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return TokenFields{}, err
	}
	return TokenFields{
		AccessToken:      ReadString(decoded, "access_token"),
		TokenType:        ReadString(decoded, "token_type"),
		RefreshToken:     ReadString(decoded, "refresh_token"),
		Scope:            ReadString(decoded, "scope"),
		ExpiresIn:        ReadInt64(decoded, "expires_in"),
		ErrorCode:        ReadString(decoded, "error"),
		ErrorDescription: ReadString(decoded, "error_description"),
	}, nil
}

func parseTokenFieldsForm(body []byte) (TokenFields, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return TokenFields{}, fmt.Errorf("empty payload")
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return TokenFields{}, err
	}
	expiresIn, _ := strconv.ParseInt(strings.TrimSpace(values.Get("expires_in")), 10, 64)
	return TokenFields{
		AccessToken:      strings.TrimSpace(values.Get("access_token")),
		TokenType:        strings.TrimSpace(values.Get("token_type")),
		RefreshToken:     strings.TrimSpace(values.Get("refresh_token")),
		Scope:            strings.TrimSpace(values.Get("scope")),
		ExpiresIn:        expiresIn,
		ErrorCode:        strings.TrimSpace(values.Get("error")),
		ErrorDescription: strings.TrimSpace(values.Get("error_description")),
	}, nil
}

func DescribeTokenError(fields TokenFields) string {
	if strings.TrimSpace(fields.ErrorDescription) != "" {
		return strings.TrimSpace(fields.ErrorDescription)
	}
	if strings.TrimSpace(fields.ErrorCode) != "" {
		return strings.TrimSpace(fields.ErrorCode)
	}
	return "unknown error"
}

func NormalizeTokenType(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "bearer"
	}
	return normalized
}

// OptionalExpiry maps a platform's expires_in onto the canonical optional
// field: zero or negative means the platform does not expire the token.
func OptionalExpiry(expiresIn int64) *int64 {
	if expiresIn <= 0 {
		return nil
	}
	value := expiresIn
	return &value
}

func SuccessStatus(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}

// Reject builds the canonical upstream rejection for an adapter's platform.
func Reject(platform core.Platform, statusCode int, code string, message string) error {
	return &core.UpstreamError{
		Platform:   platform,
		StatusCode: statusCode,
		Code:       strings.TrimSpace(code),
		Message:    strings.TrimSpace(message),
	}
}

// AppendQuery attaches values to an authorize URL regardless of whether it
// already carries a query string.
func AppendQuery(baseURL string, values url.Values) string {
	if strings.Contains(baseURL, "?") {
		return baseURL + "&" + values.Encode()
	}
	return baseURL + "?" + values.Encode()
}

func ReadString(decoded map[string]any, key string) string {
	value, ok := decoded[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func ReadInt64(decoded map[string]any, key string) int64 {
	value, ok := decoded[key]
	if !ok || value == nil {
		return 0
	}
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case int64:
		return typed
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err == nil {
			return parsed
		}
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err == nil {
			return parsed
		}
	}
	return 0
}

func ReadMap(decoded map[string]any, key string) map[string]any {
	value, ok := decoded[key]
	if !ok || value == nil {
		return map[string]any{}
	}
	if typed, ok := value.(map[string]any); ok {
		return typed
	}
	return map[string]any{}
}

func ReadStringSlice(decoded map[string]any, key string) []string {
	value, ok := decoded[key]
	if !ok || value == nil {
		return []string{}
	}
	switch typed := value.(type) {
	case []string:
		return append([]string(nil), typed...)
	case []any:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			itemValue := strings.TrimSpace(fmt.Sprint(item))
			if itemValue != "" && itemValue != "<nil>" {
				items = append(items, itemValue)
			}
		}
		return items
	default:
		return []string{}
	}
}

func DecodeJSONObject(body []byte) (map[string]any, error) {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("providers: decode token response: %w", err)
	}
	return decoded, nil
}
