package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

// DeleteLeadUseCase hard-deletes a lead. Notes and history go with it, so no
// history entry is written.
type DeleteLeadUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Cache    LeadListCache
	Pipeline *Pipeline
}

func NewDeleteLeadUseCase(leads entity.LeadRepositoryInterface, cache LeadListCache, pipeline *Pipeline) *DeleteLeadUseCase {
	return &DeleteLeadUseCase{Leads: leads, Cache: cache, Pipeline: pipeline}
}

func (uc *DeleteLeadUseCase) Execute(ctx context.Context, leadID string) Result {
	if errs := validateLeadID("id", leadID); len(errs) > 0 {
		return uc.Pipeline.fail("delete_lead", validationFailed(errs), "Erro ao excluir lead")
	}

	err := uc.Pipeline.Mutation("delete_lead", func(ctx context.Context) error {
		return uc.Leads.Delete(ctx, leadID)
	}, zap.String("lead_id", leadID)).
		Then("invalidate_cache", uc.Cache.Invalidate).
		Execute(ctx)
	if err != nil {
		return uc.Pipeline.fail("delete_lead", mutationError(err), "Erro ao excluir lead")
	}

	return succeeded("Lead excluído com sucesso")
}
