package gojob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/google/uuid"

	"github.com/goliatone/go-integration-gateway/core"
)

const (
	// JobIDWebhookProcess is the script every webhook job routes to;
	// consumers fan out on the topic parameter.
	JobIDWebhookProcess = "gateway.webhook.process"

	webhookScriptPath = "webhooks/process"
)

// EnqueuerAdapter bridges the gateway's dispatcher onto a go-job queue.
// The idempotency key is derived from the job content so an upstream
// redelivery of the same payload dedupes at the queue when the backend
// supports it; consumers still own end-to-end deduplication.
type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
	now      func() time.Time
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{
		enqueuer: enqueuer,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, webhookJob core.WebhookJob) (core.JobHandle, error) {
	if a == nil || a.enqueuer == nil {
		return core.JobHandle{}, fmt.Errorf("gojob: enqueuer is not configured")
	}
	if strings.TrimSpace(webhookJob.OrganizationID) == "" {
		return core.JobHandle{}, fmt.Errorf("gojob: organization id is required")
	}

	jobID := uuid.New().String()
	message := ToExecutionMessage(jobID, webhookJob)

	if err := a.enqueuer.Enqueue(ctx, message); err != nil {
		return core.JobHandle{}, fmt.Errorf("gojob: enqueue webhook job: %w", err)
	}

	enqueuedAt := webhookJob.EnqueuedAt
	if enqueuedAt.IsZero() {
		enqueuedAt = a.now()
	}
	return core.JobHandle{
		JobID:      jobID,
		EnqueuedAt: enqueuedAt,
	}, nil
}

// ToExecutionMessage maps a webhook job onto the go-job message shape.
func ToExecutionMessage(jobID string, webhookJob core.WebhookJob) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:      strings.TrimSpace(jobID),
		ScriptPath: webhookScriptPath,
		Parameters: map[string]any{
			"job":             JobIDWebhookProcess,
			"organization_id": strings.TrimSpace(webhookJob.OrganizationID),
			"source_domain":   strings.TrimSpace(webhookJob.SourceDomain),
			"topic":           strings.TrimSpace(webhookJob.Topic),
			"payload":         string(webhookJob.Payload),
		},
		IdempotencyKey: WebhookIdempotencyKey(webhookJob),
		DedupPolicy:    job.DeduplicationPolicy("drop"),
	}
}

// WebhookIdempotencyKey hashes the identifying fields plus the payload so
// identical redeliveries collide and distinct events never do.
func WebhookIdempotencyKey(webhookJob core.WebhookJob) string {
	digest := sha256.New()
	digest.Write([]byte(strings.TrimSpace(webhookJob.SourceDomain)))
	digest.Write([]byte{0})
	digest.Write([]byte(strings.TrimSpace(webhookJob.Topic)))
	digest.Write([]byte{0})
	digest.Write(webhookJob.Payload)
	return "gateway::webhook::" + hex.EncodeToString(digest.Sum(nil))
}

var _ core.JobEnqueuer = (*EnqueuerAdapter)(nil)
