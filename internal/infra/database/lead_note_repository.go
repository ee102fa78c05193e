package database

import (
	"context"
	"database/sql"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

type LeadNoteRepository struct {
	DB *sql.DB
}

func NewLeadNoteRepository(db *sql.DB) *LeadNoteRepository {
	return &LeadNoteRepository{DB: db}
}

func (r *LeadNoteRepository) Create(ctx context.Context, note *entity.LeadNote) error {
	query := `
		INSERT INTO lead_notes (id, lead_id, content, created_by, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.DB.ExecContext(ctx, query,
		note.ID,
		note.LeadID,
		note.Content,
		note.CreatedBy,
		note.UserID,
		note.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return entity.ErrLeadNotFound
	}
	return err
}

func (r *LeadNoteRepository) ListByLead(ctx context.Context, leadID string) ([]entity.LeadNote, error) {
	query := `
		SELECT id, lead_id, content, created_by, user_id, created_at
		FROM lead_notes
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []entity.LeadNote{}
	for rows.Next() {
		var (
			n      entity.LeadNote
			userID sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.LeadID, &n.Content, &n.CreatedBy, &userID, &n.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			n.UserID = &userID.String
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
