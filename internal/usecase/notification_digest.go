package usecase

import (
	"context"
	"time"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

const DefaultDigestPreviewLimit = 5

// NotificationDigestUseCase answers "what arrived after the watermark". The
// watermark belongs to the client; nothing here is persisted.
type NotificationDigestUseCase struct {
	Leads        entity.LeadRepositoryInterface
	PreviewLimit int
}

func NewNotificationDigestUseCase(leads entity.LeadRepositoryInterface, previewLimit int) *NotificationDigestUseCase {
	if previewLimit <= 0 {
		previewLimit = DefaultDigestPreviewLimit
	}
	return &NotificationDigestUseCase{Leads: leads, PreviewLimit: previewLimit}
}

// Execute counts leads created strictly after since. A nil since counts everything.
func (uc *NotificationDigestUseCase) Execute(ctx context.Context, since *time.Time) (*entity.Digest, error) {
	count, err := uc.Leads.CountCreatedAfter(ctx, since)
	if err != nil {
		return nil, readFailed(err)
	}

	digest := &entity.Digest{Count: count, RecentLeads: []entity.LeadSummary{}}
	if count == 0 {
		return digest, nil
	}

	recent, err := uc.Leads.RecentCreatedAfter(ctx, since, uc.PreviewLimit)
	if err != nil {
		return nil, readFailed(err)
	}
	digest.RecentLeads = recent

	return digest, nil
}
