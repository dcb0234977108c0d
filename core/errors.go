package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	GatewayErrorBadInput         = "GATEWAY_BAD_INPUT"
	GatewayErrorUnknownPlatform  = "GATEWAY_PLATFORM_UNKNOWN"
	GatewayErrorSignatureInvalid = "GATEWAY_SIGNATURE_INVALID"
	GatewayErrorUnauthorized     = "GATEWAY_UNAUTHORIZED"
	GatewayErrorOrgNotFound      = "GATEWAY_ORG_NOT_FOUND"
	GatewayErrorNoMembership     = "GATEWAY_NO_MEMBERSHIP"
	GatewayErrorExchangeRejected = "GATEWAY_EXCHANGE_REJECTED"
	GatewayErrorDispatchFailed   = "GATEWAY_DISPATCH_FAILED"
	GatewayErrorInternal         = "GATEWAY_INTERNAL_ERROR"
)

// GatewayErrorMapper folds any error coming out of the pipeline into a
// categorized goerrors envelope so transport can map deterministically to an
// HTTP status. Sentinel errors from domain.go take precedence over message
// sniffing.
func GatewayErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureGatewayErrorEnvelope(richErr)
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return ensureGatewayErrorEnvelope(
			goerrors.New(upstream.CallerMessage(), goerrors.CategoryBadInput).
				WithCode(http.StatusBadRequest).
				WithTextCode(GatewayErrorExchangeRejected).
				WithMetadata(map[string]any{
					"platform":        string(upstream.Platform),
					"upstream_status": upstream.StatusCode,
				}),
		)
	}

	switch {
	case errors.Is(err, ErrUnknownPlatform):
		return newGatewayError(err.Error(), goerrors.CategoryBadInput, GatewayErrorUnknownPlatform)
	case errors.Is(err, ErrMissingWebhookHeader):
		return newGatewayError(err.Error(), goerrors.CategoryBadInput, GatewayErrorBadInput)
	case errors.Is(err, ErrSignatureMismatch):
		return newGatewayError(err.Error(), goerrors.CategoryAuth, GatewayErrorSignatureInvalid)
	case errors.Is(err, ErrInvalidSession):
		return newGatewayError(err.Error(), goerrors.CategoryAuth, GatewayErrorUnauthorized)
	case errors.Is(err, ErrOrganizationNotFound):
		return newGatewayError(err.Error(), goerrors.CategoryNotFound, GatewayErrorOrgNotFound)
	case errors.Is(err, ErrNoMembership):
		// Tenant exists but is misconfigured: caller-visible 400, operator-actionable.
		return ensureGatewayErrorEnvelope(
			goerrors.New(err.Error(), goerrors.CategoryBadInput).
				WithCode(http.StatusBadRequest).
				WithTextCode(GatewayErrorNoMembership),
		)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newGatewayError(err.Error(), goerrors.CategoryBadInput, GatewayErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureGatewayErrorEnvelope(mapped)
}

func newGatewayError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureGatewayErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureGatewayErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = gatewayHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultGatewayTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultGatewayTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return GatewayErrorBadInput
	case goerrors.CategoryNotFound:
		return GatewayErrorOrgNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return GatewayErrorUnauthorized
	case goerrors.CategoryExternal:
		return GatewayErrorExchangeRejected
	case goerrors.CategoryOperation:
		return GatewayErrorDispatchFailed
	default:
		return GatewayErrorInternal
	}
}

func gatewayHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation, goerrors.CategoryExternal:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
