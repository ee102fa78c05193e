package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

type BulkOperationsUseCase struct {
	Leads    entity.LeadRepositoryInterface
	History  *HistoryRecorder
	Cache    LeadListCache
	Pipeline *Pipeline
	Labels   *entity.Labels
}

func NewBulkOperationsUseCase(
	leads entity.LeadRepositoryInterface,
	history *HistoryRecorder,
	cache LeadListCache,
	pipeline *Pipeline,
	labels *entity.Labels,
) *BulkOperationsUseCase {
	return &BulkOperationsUseCase{
		Leads:    leads,
		History:  history,
		Cache:    cache,
		Pipeline: pipeline,
		Labels:   labels,
	}
}

// UpdateStatus moves every lead in one multi-row write, then records one
// history entry per lead the store reports as updated.
func (uc *BulkOperationsUseCase) UpdateStatus(ctx context.Context, input BulkStatusInput) Result {
	ids, status, errs := ValidateBulkStatusInput(input)
	if len(errs) > 0 {
		return uc.Pipeline.fail("bulk_status", validationFailed(errs), "Erro ao atualizar leads")
	}

	var updated []string
	m := uc.Pipeline.Mutation("bulk_status", func(ctx context.Context) error {
		var err error
		updated, err = uc.Leads.BulkUpdateStatus(ctx, ids, status)
		return err
	}, zap.Int("lead_count", len(ids)))

	m.Then("invalidate_cache", uc.Cache.Invalidate)

	if err := m.Execute(ctx); err != nil {
		return uc.Pipeline.fail("bulk_status", writeFailed(err), "Erro ao atualizar leads")
	}

	// Uma entrada por lead, cada uma independente das outras
	actor := entity.ActorFromContext(ctx)
	description := bulkStatusDescription(uc.Labels, status)
	for _, id := range updated {
		uc.Pipeline.runStage(ctx, "bulk_status", Stage{
			Name: "history",
			Fn:   uc.History.Stage(id, entity.ActionBulkStatusChange, description, actor),
		}, zap.String("lead_id", id))
	}

	return succeeded(fmt.Sprintf("%d leads atualizados", len(updated)))
}

func (uc *BulkOperationsUseCase) Delete(ctx context.Context, input BulkDeleteInput) Result {
	ids, errs := ValidateBulkDeleteInput(input)
	if len(errs) > 0 {
		return uc.Pipeline.fail("bulk_delete", validationFailed(errs), "Erro ao excluir leads")
	}

	var deleted int64
	err := uc.Pipeline.Mutation("bulk_delete", func(ctx context.Context) error {
		var err error
		deleted, err = uc.Leads.BulkDelete(ctx, ids)
		return err
	}, zap.Int("lead_count", len(ids))).
		Then("invalidate_cache", uc.Cache.Invalidate).
		Execute(ctx)
	if err != nil {
		return uc.Pipeline.fail("bulk_delete", writeFailed(err), "Erro ao excluir leads")
	}

	return succeeded(fmt.Sprintf("%d leads excluídos", deleted))
}
