package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

type UpdateLeadStatusUseCase struct {
	Leads    entity.LeadRepositoryInterface
	History  *HistoryRecorder
	Cache    LeadListCache
	Pipeline *Pipeline
	Labels   *entity.Labels
}

func NewUpdateLeadStatusUseCase(
	leads entity.LeadRepositoryInterface,
	history *HistoryRecorder,
	cache LeadListCache,
	pipeline *Pipeline,
	labels *entity.Labels,
) *UpdateLeadStatusUseCase {
	return &UpdateLeadStatusUseCase{
		Leads:    leads,
		History:  history,
		Cache:    cache,
		Pipeline: pipeline,
		Labels:   labels,
	}
}

func (uc *UpdateLeadStatusUseCase) Execute(ctx context.Context, input UpdateStatusInput) Result {
	if err := uc.execute(ctx, input); err != nil {
		return uc.Pipeline.fail("update_status", err, "Erro ao atualizar status")
	}
	return succeeded("Status atualizado com sucesso")
}

func (uc *UpdateLeadStatusUseCase) execute(ctx context.Context, input UpdateStatusInput) error {
	status, errs := ValidateUpdateStatusInput(input)
	if len(errs) > 0 {
		return validationFailed(errs)
	}

	// 1. Status atual, para decidir se existe transição a registrar
	lead, err := uc.Leads.FindByID(ctx, input.LeadID)
	if err != nil {
		return lookupError(err)
	}

	m := uc.Pipeline.Mutation("update_status", func(ctx context.Context) error {
		return uc.Leads.UpdateStatus(ctx, lead.ID, status)
	}, zap.String("lead_id", lead.ID))

	// 2. Histórico só quando o status muda de fato
	if lead.Status != status {
		description := statusChangeDescription(uc.Labels, lead.Status, status)
		m.Then("history", uc.History.Stage(lead.ID, entity.ActionStatusChange, description, entity.ActorFromContext(ctx)))
	}
	m.Then("invalidate_cache", uc.Cache.Invalidate)

	if err := m.Execute(ctx); err != nil {
		return mutationError(err)
	}
	return nil
}
