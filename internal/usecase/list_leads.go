package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

const dateLayout = "2006-01-02"

// ListLeadsInput carries the raw query-string filters of the leads page.
type ListLeadsInput struct {
	Query     string
	Status    string
	Treatment string
	Source    string
	From      string // YYYY-MM-DD
	To        string // YYYY-MM-DD, inclusive
	IDs       []string
}

// BuildFilter validates the raw filters. The "to" day is inclusive, so the
// resulting upper bound is the start of the following day.
func BuildFilter(input ListLeadsInput) (entity.LeadFilter, []ValidationError) {
	var errs []ValidationError
	filter := entity.LeadFilter{
		Query:     strings.TrimSpace(input.Query),
		Treatment: strings.TrimSpace(input.Treatment),
		Source:    strings.TrimSpace(input.Source),
	}

	if input.Status != "" && input.Status != "all" {
		status, statusErrs := validateStatus(input.Status)
		errs = append(errs, statusErrs...)
		filter.Status = status
	}
	if filter.Treatment == "all" {
		filter.Treatment = ""
	}

	if input.From != "" {
		from, err := time.ParseInLocation(dateLayout, input.From, time.UTC)
		if err != nil {
			errs = append(errs, ValidationError{"from", "Data inicial inválida"})
		} else {
			filter.From = &from
		}
	}
	if input.To != "" {
		to, err := time.ParseInLocation(dateLayout, input.To, time.UTC)
		if err != nil {
			errs = append(errs, ValidationError{"to", "Data final inválida"})
		} else {
			end := to.AddDate(0, 0, 1)
			filter.To = &end
		}
	}

	if len(input.IDs) > 0 {
		ids, idErrs := normalizeIDs(input.IDs)
		errs = append(errs, idErrs...)
		filter.IDs = ids
	}

	return filter, errs
}

type ListLeadsUseCase struct {
	Leads  entity.LeadRepositoryInterface
	Cache  LeadListCache
	Logger *zap.Logger
}

func NewListLeadsUseCase(leads entity.LeadRepositoryInterface, cache LeadListCache, logger *zap.Logger) *ListLeadsUseCase {
	return &ListLeadsUseCase{Leads: leads, Cache: cache, Logger: logger}
}

// Execute serves from the cache when it can. Cache errors only cost a trip
// to the database.
func (uc *ListLeadsUseCase) Execute(ctx context.Context, input ListLeadsInput) ([]entity.Lead, error) {
	filter, errs := BuildFilter(input)
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	if cached, ok, err := uc.Cache.Get(ctx, filter); err != nil {
		uc.Logger.Warn("lead list cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	leads, err := uc.Leads.List(ctx, filter)
	if err != nil {
		return nil, readFailed(err)
	}

	if err := uc.Cache.Set(ctx, filter, leads); err != nil {
		uc.Logger.Warn("lead list cache write failed", zap.Error(err))
	}
	return leads, nil
}

func (uc *ListLeadsUseCase) Stats(ctx context.Context) (*entity.LeadStats, error) {
	byStatus, err := uc.Leads.CountByStatus(ctx)
	if err != nil {
		return nil, readFailed(err)
	}

	stats := &entity.LeadStats{ByStatus: make(map[entity.Status]int, len(entity.Statuses))}
	for _, s := range entity.Statuses {
		stats.ByStatus[s] = byStatus[s]
		stats.Total += byStatus[s]
	}

	if stats.Treatments, err = uc.Leads.DistinctTreatments(ctx); err != nil {
		return nil, readFailed(err)
	}
	if stats.Sources, err = uc.Leads.DistinctSources(ctx); err != nil {
		return nil, readFailed(err)
	}

	return stats, nil
}
