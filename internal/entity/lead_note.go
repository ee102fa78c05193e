package entity

import (
	"context"
	"time"
)

type LeadNote struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	UserID    *string   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type LeadNoteRepositoryInterface interface {
	Create(ctx context.Context, note *LeadNote) error
	ListByLead(ctx context.Context, leadID string) ([]LeadNote, error)
}
