package entity

import (
	"context"
	"time"
)

type HistoryAction string

const (
	ActionStatusChange     HistoryAction = "ALTERAÇÃO_DE_STATUS"
	ActionAssignment       HistoryAction = "ATRIBUIÇÃO"
	ActionNoteAdded        HistoryAction = "NOTA_ADICIONADA"
	ActionBulkStatusChange HistoryAction = "ALTERAÇÃO_DE_STATUS_EM_LOTE"
)

// HistoryEntry is append-only. Rows disappear only when the parent lead is deleted.
type HistoryEntry struct {
	ID          string        `json:"id"`
	LeadID      string        `json:"lead_id"`
	Action      HistoryAction `json:"action"`
	Description string        `json:"description"`
	CreatedBy   string        `json:"created_by"`
	UserID      *string       `json:"user_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

type LeadHistoryRepositoryInterface interface {
	Append(ctx context.Context, entry *HistoryEntry) error
	// ListByLead returns entries newest first.
	ListByLead(ctx context.Context, leadID string) ([]HistoryEntry, error)
}
