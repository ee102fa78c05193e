package usecase

import (
	"context"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/infra/queue"
)

// LeadListCache holds rendered lead lists. Invalidate marks every cached view stale.
type LeadListCache interface {
	Get(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, bool, error)
	Set(ctx context.Context, filter entity.LeadFilter, leads []entity.Lead) error
	Invalidate(ctx context.Context) error
}

type EventPublisher = queue.QueueProducerInterface

type noopCache struct{}

func (noopCache) Get(context.Context, entity.LeadFilter) ([]entity.Lead, bool, error) {
	return nil, false, nil
}
func (noopCache) Set(context.Context, entity.LeadFilter, []entity.Lead) error { return nil }
func (noopCache) Invalidate(context.Context) error                            { return nil }

// NoopCache is used when Redis is not configured.
var NoopCache LeadListCache = noopCache{}

type noopPublisher struct{}

func (noopPublisher) PublishLeadEvent(context.Context, queue.LeadEvent) error { return nil }

// NoopPublisher is used when RabbitMQ is not configured.
var NoopPublisher EventPublisher = noopPublisher{}
