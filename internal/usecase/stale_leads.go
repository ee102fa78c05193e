package usecase

import (
	"context"
	"time"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

const (
	DefaultStaleAfter = 24 * time.Hour
	defaultStaleLimit = 5
)

// StaleLeadsUseCase lists leads still "new" past the threshold.
type StaleLeadsUseCase struct {
	Leads      entity.LeadRepositoryInterface
	StaleAfter time.Duration
	Now        func() time.Time
}

func NewStaleLeadsUseCase(leads entity.LeadRepositoryInterface, staleAfter time.Duration) *StaleLeadsUseCase {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &StaleLeadsUseCase{Leads: leads, StaleAfter: staleAfter, Now: time.Now}
}

func (uc *StaleLeadsUseCase) Execute(ctx context.Context, limit int) (*StaleLeadsOutput, error) {
	if limit <= 0 {
		limit = defaultStaleLimit
	}

	cutoff := uc.Now().Add(-uc.StaleAfter)
	leads, count, err := uc.Leads.ListStale(ctx, cutoff, limit)
	if err != nil {
		return nil, readFailed(err)
	}
	if leads == nil {
		leads = []entity.Lead{}
	}

	return &StaleLeadsOutput{Count: count, Leads: leads, Threshold: uc.StaleAfter}, nil
}
