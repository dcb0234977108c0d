package webhooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-integration-gateway/core"
)

type captureEnqueuer struct {
	jobs []core.WebhookJob
	err  error
}

func (e *captureEnqueuer) Enqueue(_ context.Context, job core.WebhookJob) (core.JobHandle, error) {
	if e.err != nil {
		return core.JobHandle{}, e.err
	}
	e.jobs = append(e.jobs, job)
	return core.JobHandle{JobID: "job-1"}, nil
}

func TestQueueDispatcher_BuildsJobFromEnvelope(t *testing.T) {
	enqueuer := &captureEnqueuer{}
	dispatcher := NewQueueDispatcher(enqueuer)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dispatcher.Now = func() time.Time { return now }

	envelope := core.WebhookEnvelope{
		Topic:        " orders/create ",
		SourceDomain: "ACME.myshopify.com",
		RawBody:      []byte(`{"id":1}`),
		Signature:    "sig",
	}
	handle, err := dispatcher.Dispatch(context.Background(), envelope, "org-1")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if handle.JobID != "job-1" {
		t.Fatalf("unexpected handle %+v", handle)
	}
	if !handle.EnqueuedAt.Equal(now) {
		t.Fatalf("expected dispatcher timestamp, got %v", handle.EnqueuedAt)
	}

	if len(enqueuer.jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(enqueuer.jobs))
	}
	job := enqueuer.jobs[0]
	if job.Topic != "orders/create" || job.SourceDomain != "acme.myshopify.com" {
		t.Fatalf("expected normalized job fields, got %+v", job)
	}
	if job.OrganizationID != "org-1" {
		t.Fatalf("unexpected organization %q", job.OrganizationID)
	}
}

func TestQueueDispatcher_CopiesPayload(t *testing.T) {
	enqueuer := &captureEnqueuer{}
	dispatcher := NewQueueDispatcher(enqueuer)

	body := []byte(`{"id":1}`)
	if _, err := dispatcher.Dispatch(context.Background(), core.WebhookEnvelope{
		Topic:        "orders/create",
		SourceDomain: "acme.myshopify.com",
		RawBody:      body,
		Signature:    "sig",
	}, "org-1"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	body[0] = 'X'
	if string(enqueuer.jobs[0].Payload) != `{"id":1}` {
		t.Fatalf("payload must be copied, got %q", enqueuer.jobs[0].Payload)
	}
}

func TestQueueDispatcher_DuplicateDeliveriesBothEnqueue(t *testing.T) {
	enqueuer := &captureEnqueuer{}
	dispatcher := NewQueueDispatcher(enqueuer)

	envelope := core.WebhookEnvelope{
		Topic:        "orders/create",
		SourceDomain: "acme.myshopify.com",
		RawBody:      []byte(`{"id":1}`),
		Signature:    "sig",
	}
	for i := 0; i < 2; i++ {
		if _, err := dispatcher.Dispatch(context.Background(), envelope, "org-1"); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	// Deduplication is the consumer's concern; the dispatcher forwards both.
	if len(enqueuer.jobs) != 2 {
		t.Fatalf("expected both deliveries enqueued, got %d", len(enqueuer.jobs))
	}
}

func TestQueueDispatcher_EnqueueErrorPropagates(t *testing.T) {
	enqueueErr := errors.New("queue unavailable")
	dispatcher := NewQueueDispatcher(&captureEnqueuer{err: enqueueErr})

	_, err := dispatcher.Dispatch(context.Background(), core.WebhookEnvelope{
		Topic:        "orders/create",
		SourceDomain: "acme.myshopify.com",
		RawBody:      []byte(`{}`),
		Signature:    "sig",
	}, "org-1")
	if !errors.Is(err, enqueueErr) {
		t.Fatalf("expected wrapped enqueue error, got %v", err)
	}
}

func TestQueueDispatcher_RequiresOrganization(t *testing.T) {
	dispatcher := NewQueueDispatcher(&captureEnqueuer{})
	if _, err := dispatcher.Dispatch(context.Background(), core.WebhookEnvelope{}, "  "); err == nil {
		t.Fatalf("expected error for missing organization id")
	}
}
