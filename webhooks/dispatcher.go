package webhooks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-integration-gateway/core"
)

// QueueDispatcher converts a verified envelope into the job shape the queue
// consumes. It never inspects the payload; the raw body passes through
// untouched so consumers see exactly what the platform sent.
type QueueDispatcher struct {
	Enqueuer core.JobEnqueuer
	Now      func() time.Time
}

func NewQueueDispatcher(enqueuer core.JobEnqueuer) *QueueDispatcher {
	return &QueueDispatcher{
		Enqueuer: enqueuer,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, envelope core.WebhookEnvelope, organizationID string) (core.JobHandle, error) {
	if d == nil || d.Enqueuer == nil {
		return core.JobHandle{}, fmt.Errorf("webhooks: dispatcher enqueuer is not configured")
	}
	if strings.TrimSpace(organizationID) == "" {
		return core.JobHandle{}, fmt.Errorf("webhooks: organization id is required")
	}

	now := time.Now().UTC()
	if d.Now != nil {
		now = d.Now().UTC()
	}

	job := core.WebhookJob{
		OrganizationID: strings.TrimSpace(organizationID),
		SourceDomain:   strings.TrimSpace(strings.ToLower(envelope.SourceDomain)),
		Topic:          strings.TrimSpace(envelope.Topic),
		Payload:        append([]byte(nil), envelope.RawBody...),
		EnqueuedAt:     now,
	}

	handle, err := d.Enqueuer.Enqueue(ctx, job)
	if err != nil {
		return core.JobHandle{}, fmt.Errorf("webhooks: enqueue webhook job: %w", err)
	}
	if handle.EnqueuedAt.IsZero() {
		handle.EnqueuedAt = now
	}
	return handle, nil
}

var _ core.WebhookDispatcher = (*QueueDispatcher)(nil)
