package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/infra/queue"
)

type AssignLeadUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Owners   entity.OwnerRepositoryInterface
	History  *HistoryRecorder
	Cache    LeadListCache
	Events   EventPublisher
	Pipeline *Pipeline
	Now      func() time.Time
}

func NewAssignLeadUseCase(
	leads entity.LeadRepositoryInterface,
	owners entity.OwnerRepositoryInterface,
	history *HistoryRecorder,
	cache LeadListCache,
	events EventPublisher,
	pipeline *Pipeline,
) *AssignLeadUseCase {
	return &AssignLeadUseCase{
		Leads:    leads,
		Owners:   owners,
		History:  history,
		Cache:    cache,
		Events:   events,
		Pipeline: pipeline,
		Now:      time.Now,
	}
}

func (uc *AssignLeadUseCase) Execute(ctx context.Context, input AssignLeadInput) Result {
	if err := uc.execute(ctx, input); err != nil {
		return uc.Pipeline.fail("assign_lead", err, "Erro ao atribuir lead")
	}
	return succeeded("Lead atribuído com sucesso")
}

func (uc *AssignLeadUseCase) execute(ctx context.Context, input AssignLeadInput) error {
	if errs := ValidateAssignLeadInput(input); len(errs) > 0 {
		return validationFailed(errs)
	}

	var ownerID *string
	if input.OwnerID != nil && *input.OwnerID != "" {
		ownerID = input.OwnerID
	}

	lead, err := uc.Leads.FindByID(ctx, input.LeadID)
	if err != nil {
		return lookupError(err)
	}

	owner, newName, err := uc.resolveOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	previousName := lead.AssigneeName()
	if previousName == "" {
		previousName = UnassignedLabel
	}

	var assignedAt *time.Time
	if ownerID != nil {
		now := uc.Now().UTC()
		assignedAt = &now
	}

	actor := entity.ActorFromContext(ctx)

	m := uc.Pipeline.Mutation("assign_lead", func(ctx context.Context) error {
		return uc.Leads.UpdateAssignment(ctx, lead.ID, ownerID, assignedAt)
	}, zap.String("lead_id", lead.ID))

	if previousName != newName {
		m.Then("history", uc.History.Stage(lead.ID, entity.ActionAssignment, assignmentDescription(previousName, newName), actor))
	}
	m.Then("invalidate_cache", uc.Cache.Invalidate)

	if owner != nil && owner.Email != "" {
		m.Then("publish_event", func(ctx context.Context) error {
			return uc.Events.PublishLeadEvent(ctx, queue.LeadEvent{
				Type:       queue.EventLeadAssigned,
				LeadID:     lead.ID,
				LeadName:   lead.Name,
				LeadEmail:  lead.Email,
				LeadPhone:  lead.Phone,
				Treatment:  lead.Treatment,
				OwnerName:  owner.Name,
				OwnerEmail: owner.Email,
				AssignedBy: actor.Name,
				OccurredAt: uc.Now().UTC(),
			})
		})
	}

	if err := m.Execute(ctx); err != nil {
		return mutationError(err)
	}
	return nil
}

// resolveOwner returns the display name used in history. An owner that does
// not exist is rejected up front: the assigned_to_id foreign key would refuse
// the write anyway, so the operator gets NOT_FOUND instead of a write error.
// A lookup that fails for any other reason falls back to the "unknown" label
// and lets the write go ahead.
func (uc *AssignLeadUseCase) resolveOwner(ctx context.Context, ownerID *string) (*entity.Owner, string, error) {
	if ownerID == nil {
		return nil, UnassignedLabel, nil
	}

	owner, err := uc.Owners.FindByID(ctx, *ownerID)
	if errors.Is(err, entity.ErrOwnerNotFound) {
		return nil, "", notFound("Responsável não encontrado")
	}
	if err != nil {
		uc.Pipeline.Logger.Warn("owner lookup failed, using placeholder name",
			zap.String("owner_id", *ownerID),
			zap.Error(err),
		)
		return nil, UnknownOwnerLabel, nil
	}

	if strings.TrimSpace(owner.Name) == "" {
		return owner, UnknownOwnerLabel, nil
	}
	return owner, owner.Name, nil
}
