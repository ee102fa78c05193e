package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

type AddNoteUseCase struct {
	Notes    entity.LeadNoteRepositoryInterface
	History  *HistoryRecorder
	Cache    LeadListCache
	Pipeline *Pipeline
	Now      func() time.Time
}

func NewAddNoteUseCase(
	notes entity.LeadNoteRepositoryInterface,
	history *HistoryRecorder,
	cache LeadListCache,
	pipeline *Pipeline,
) *AddNoteUseCase {
	return &AddNoteUseCase{
		Notes:    notes,
		History:  history,
		Cache:    cache,
		Pipeline: pipeline,
		Now:      time.Now,
	}
}

func (uc *AddNoteUseCase) Execute(ctx context.Context, input AddNoteInput) Result {
	if err := uc.execute(ctx, input); err != nil {
		return uc.Pipeline.fail("add_note", err, "Erro ao adicionar nota")
	}
	return succeeded("Nota adicionada com sucesso")
}

func (uc *AddNoteUseCase) execute(ctx context.Context, input AddNoteInput) error {
	if errs := ValidateAddNoteInput(input); len(errs) > 0 {
		return validationFailed(errs)
	}

	actor := entity.ActorFromContext(ctx)
	note := &entity.LeadNote{
		ID:        uuid.New().String(),
		LeadID:    input.LeadID,
		Content:   strings.TrimSpace(input.Note),
		CreatedBy: actor.Name,
		UserID:    actor.UserID,
		CreatedAt: uc.Now().UTC(),
	}

	err := uc.Pipeline.Mutation("add_note", func(ctx context.Context) error {
		return uc.Notes.Create(ctx, note)
	}, zap.String("lead_id", note.LeadID)).
		Then("history", uc.History.Stage(note.LeadID, entity.ActionNoteAdded, noteAddedDescription, actor)).
		Then("invalidate_cache", uc.Cache.Invalidate).
		Execute(ctx)
	if err != nil {
		return mutationError(err)
	}
	return nil
}
