package gateway_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	gateway "github.com/goliatone/go-integration-gateway"
	"github.com/goliatone/go-integration-gateway/webhooks"
)

type staticResolver struct {
	byDomain map[string]gateway.Organization
}

func (r staticResolver) ByDomain(_ context.Context, domain string) (gateway.Organization, error) {
	organization, ok := r.byDomain[strings.ToLower(strings.TrimSpace(domain))]
	if !ok {
		return gateway.Organization{}, fmt.Errorf("organization not found for %q", domain)
	}
	return organization, nil
}

func (r staticResolver) BySession(context.Context, string) (gateway.Organization, error) {
	return gateway.Organization{}, fmt.Errorf("not implemented")
}

type staticDispatcher struct {
	dispatched int
}

func (d *staticDispatcher) Dispatch(context.Context, gateway.WebhookEnvelope, string) (gateway.JobHandle, error) {
	d.dispatched++
	return gateway.JobHandle{JobID: "job-1", EnqueuedAt: time.Now().UTC()}, nil
}

func TestNew_DefaultsToBase64HMACVerification(t *testing.T) {
	cfg := gateway.DefaultConfig()
	cfg.Webhook.Secret = "shared-secret"

	dispatcher := &staticDispatcher{}
	g, err := gateway.New(cfg,
		gateway.WithWebhookDispatcher(dispatcher),
		gateway.WithOrganizationResolver(staticResolver{
			byDomain: map[string]gateway.Organization{
				"acme.myshopify.com": {ID: "org-1"},
			},
		}),
	)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	body := []byte(`{"id":1}`)
	signature := webhooks.EncodeSignature(webhooks.ComputeSignature(body, "shared-secret"), webhooks.EncodingBase64)

	handle, err := g.IngestWebhook(context.Background(), gateway.WebhookEnvelope{
		Topic:        "orders/create",
		SourceDomain: "acme.myshopify.com",
		RawBody:      body,
		Signature:    signature,
	})
	if err != nil {
		t.Fatalf("ingest through facade: %v", err)
	}
	if handle.JobID != "job-1" || dispatcher.dispatched != 1 {
		t.Fatalf("expected default verifier to accept signed delivery, got %+v", handle)
	}

	if _, err := g.IngestWebhook(context.Background(), gateway.WebhookEnvelope{
		Topic:        "orders/create",
		SourceDomain: "acme.myshopify.com",
		RawBody:      []byte(`{"id":2}`),
		Signature:    signature,
	}); err == nil {
		t.Fatalf("expected default verifier to reject mismatched signature")
	}
}
