package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

const (
	UnassignedLabel   = "Ninguém"
	UnknownOwnerLabel = "Desconhecido"
)

// HistoryRecorder is the only writer of the audit log.
type HistoryRecorder struct {
	Repo entity.LeadHistoryRepositoryInterface
	Now  func() time.Time
}

func NewHistoryRecorder(repo entity.LeadHistoryRepositoryInterface) *HistoryRecorder {
	return &HistoryRecorder{Repo: repo, Now: time.Now}
}

func (h *HistoryRecorder) Record(ctx context.Context, leadID string, action entity.HistoryAction, description string, actor entity.Actor) error {
	entry := &entity.HistoryEntry{
		ID:          uuid.New().String(),
		LeadID:      leadID,
		Action:      action,
		Description: description,
		CreatedBy:   actor.Name,
		UserID:      actor.UserID,
		CreatedAt:   h.Now().UTC(),
	}
	return h.Repo.Append(ctx, entry)
}

// Stage adapts Record to a pipeline stage.
func (h *HistoryRecorder) Stage(leadID string, action entity.HistoryAction, description string, actor entity.Actor) func(context.Context) error {
	return func(ctx context.Context) error {
		return h.Record(ctx, leadID, action, description, actor)
	}
}

func statusChangeDescription(labels *entity.Labels, from, to entity.Status) string {
	return fmt.Sprintf("Status alterado de \"%s\" para \"%s\"", labels.Status(from), labels.Status(to))
}

func bulkStatusDescription(labels *entity.Labels, to entity.Status) string {
	return fmt.Sprintf("Status alterado para \"%s\" (ação em lote)", labels.Status(to))
}

func assignmentDescription(from, to string) string {
	return fmt.Sprintf("Lead atribuído de \"%s\" para \"%s\"", from, to)
}

const noteAddedDescription = "Nova anotação adicionada"

// LeadTimelineUseCase is the read side of the audit log.
type LeadTimelineUseCase struct {
	Leads      entity.LeadRepositoryInterface
	Notes      entity.LeadNoteRepositoryInterface
	History    entity.LeadHistoryRepositoryInterface
	StaleAfter time.Duration
	Now        func() time.Time
}

func NewLeadTimelineUseCase(
	leads entity.LeadRepositoryInterface,
	notes entity.LeadNoteRepositoryInterface,
	history entity.LeadHistoryRepositoryInterface,
	staleAfter time.Duration,
) *LeadTimelineUseCase {
	return &LeadTimelineUseCase{
		Leads:      leads,
		Notes:      notes,
		History:    history,
		StaleAfter: staleAfter,
		Now:        time.Now,
	}
}

func (uc *LeadTimelineUseCase) ListHistory(ctx context.Context, leadID string) ([]entity.HistoryEntry, error) {
	if errs := validateLeadID("id", leadID); len(errs) > 0 {
		return nil, validationFailed(errs)
	}
	entries, err := uc.History.ListByLead(ctx, leadID)
	if err != nil {
		return nil, readFailed(err)
	}
	return entries, nil
}

func (uc *LeadTimelineUseCase) Details(ctx context.Context, leadID string) (*LeadDetails, error) {
	if errs := validateLeadID("id", leadID); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, lookupError(err)
	}

	notes, err := uc.Notes.ListByLead(ctx, leadID)
	if err != nil {
		return nil, readFailed(err)
	}

	history, err := uc.History.ListByLead(ctx, leadID)
	if err != nil {
		return nil, readFailed(err)
	}

	return &LeadDetails{
		Lead:    lead,
		Notes:   notes,
		History: history,
		Stale:   lead.IsStale(uc.Now(), uc.StaleAfter),
	}, nil
}
