package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-integration-gateway/core"
)

// WebhookDeliveryStore is the receipt ledger for accepted webhooks. Each
// accepted delivery is appended; consumers deduplicate on their own, so two
// rows for the same upstream delivery are expected under at-least-once.
type WebhookDeliveryStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookDeliveryRecord]
}

func (s *WebhookDeliveryStore) Record(ctx context.Context, job core.WebhookJob, handle core.JobHandle) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	if strings.TrimSpace(job.OrganizationID) == "" {
		return fmt.Errorf("sqlstore: organization id is required")
	}

	enqueuedAt := handle.EnqueuedAt
	if enqueuedAt.IsZero() {
		enqueuedAt = job.EnqueuedAt
	}
	if enqueuedAt.IsZero() {
		enqueuedAt = time.Now().UTC()
	}

	record := &webhookDeliveryRecord{
		ID:             uuid.New().String(),
		OrganizationID: strings.TrimSpace(job.OrganizationID),
		SourceDomain:   strings.TrimSpace(job.SourceDomain),
		Topic:          strings.TrimSpace(job.Topic),
		JobID:          strings.TrimSpace(handle.JobID),
		Payload:        append([]byte(nil), job.Payload...),
		EnqueuedAt:     enqueuedAt.UTC(),
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("sqlstore: record webhook delivery: %w", err)
	}
	return nil
}

func (s *WebhookDeliveryStore) ListByOrganization(ctx context.Context, organizationID string, limit int) ([]core.WebhookJob, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("organization_id", "=", strings.TrimSpace(organizationID)),
		repository.OrderBy("enqueued_at DESC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	jobs := make([]core.WebhookJob, 0, len(records))
	for _, record := range records {
		jobs = append(jobs, core.WebhookJob{
			OrganizationID: record.OrganizationID,
			SourceDomain:   record.SourceDomain,
			Topic:          record.Topic,
			Payload:        append([]byte(nil), record.Payload...),
			EnqueuedAt:     record.EnqueuedAt,
		})
	}
	return jobs, nil
}

var _ core.DeliveryRecorder = (*WebhookDeliveryStore)(nil)
