package transport

import (
	"encoding/json"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-integration-gateway/core"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message  string         `json:"message"`
	TextCode string         `json:"text_code,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// WriteError renders any pipeline error as the JSON error envelope with the
// status its category maps to. Unmapped errors are folded first so callers
// always see a categorized envelope, never a raw message with a 200.
func WriteError(w http.ResponseWriter, err error) {
	rich := foldError(err)
	status := rich.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := errorBody{
		Message:  rich.Message,
		TextCode: rich.TextCode,
	}
	if len(rich.Metadata) > 0 {
		body.Metadata = core.RedactSensitiveMap(rich.Metadata)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: body})
}

func foldError(err error) *goerrors.Error {
	if err == nil {
		return goerrors.New("An unexpected error occurred", goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.GatewayErrorInternal)
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}
	return core.GatewayErrorMapper(err)
}
