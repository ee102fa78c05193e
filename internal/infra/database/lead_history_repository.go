package database

import (
	"context"
	"database/sql"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

// LeadHistoryRepository só insere e lê; um trigger no banco rejeita UPDATE.
type LeadHistoryRepository struct {
	DB *sql.DB
}

func NewLeadHistoryRepository(db *sql.DB) *LeadHistoryRepository {
	return &LeadHistoryRepository{DB: db}
}

func (r *LeadHistoryRepository) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	query := `
		INSERT INTO lead_history (id, lead_id, action, description, created_by, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.LeadID,
		entry.Action,
		entry.Description,
		entry.CreatedBy,
		entry.UserID,
		entry.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return entity.ErrLeadNotFound
	}
	return err
}

func (r *LeadHistoryRepository) ListByLead(ctx context.Context, leadID string) ([]entity.HistoryEntry, error) {
	query := `
		SELECT id, lead_id, action, description, created_by, user_id, created_at
		FROM lead_history
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []entity.HistoryEntry{}
	for rows.Next() {
		var (
			e      entity.HistoryEntry
			userID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.LeadID, &e.Action, &e.Description, &e.CreatedBy, &userID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			e.UserID = &userID.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
