package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-integration-gateway/core"
	"github.com/goliatone/go-integration-gateway/providers/shopify"
)

const maxWebhookBodyBytes = 1 << 20 // 1 MiB

// WebhookHandler terminates the inbound notification endpoint. It captures
// the exact raw body before anything parses it; the signature runs over
// these bytes and no others.
type WebhookHandler struct {
	Gateway *core.Gateway
}

func NewWebhookHandler(gateway *core.Gateway) *WebhookHandler {
	return &WebhookHandler{Gateway: gateway}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Gateway == nil {
		WriteError(w, fmt.Errorf("transport: webhook handler is not configured"))
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		WriteError(w, fmt.Errorf("transport: read webhook body: invalid or oversize payload"))
		return
	}

	envelope := shopify.EnvelopeFromRequest(r.Header, rawBody, time.Now().UTC())

	// The job handle stays internal; callers get an acknowledgement only.
	if _, err := h.Gateway.IngestWebhook(r.Context(), envelope); err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
	})
}

var _ http.Handler = (*WebhookHandler)(nil)
