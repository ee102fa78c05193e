package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `
	l.id, l.name, l.email, l.phone, l.treatment, l.message, l.status, l.notes, l.created_at,
	l.assigned_to_id, l.assigned_at, u.name, u.email,
	l.utm_source, l.utm_medium, l.utm_campaign, l.utm_term, l.utm_content, l.gclid, l.fbclid`

const leadFrom = `
	FROM leads l
	LEFT JOIN users u ON u.id = l.assigned_to_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s rowScanner, extra ...any) (*entity.Lead, error) {
	var (
		lead                               entity.Lead
		message, notes, assignedToID       sql.NullString
		ownerName, ownerEmail              sql.NullString
		utmSource, utmMedium, utmCampaign  sql.NullString
		utmTerm, utmContent, gclid, fbclid sql.NullString
		assignedAt                         sql.NullTime
	)

	dest := []any{
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.Treatment, &message, &lead.Status, &notes, &lead.CreatedAt,
		&assignedToID, &assignedAt, &ownerName, &ownerEmail,
		&utmSource, &utmMedium, &utmCampaign, &utmTerm, &utmContent, &gclid, &fbclid,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	lead.Message = message.String
	lead.Notes = notes.String
	lead.UTMSource = utmSource.String
	lead.UTMMedium = utmMedium.String
	lead.UTMCampaign = utmCampaign.String
	lead.UTMTerm = utmTerm.String
	lead.UTMContent = utmContent.String
	lead.GCLID = gclid.String
	lead.FBCLID = fbclid.String

	if assignedToID.Valid {
		id := assignedToID.String
		lead.AssignedToID = &id
		lead.AssignedTo = &entity.Owner{ID: id, Name: ownerName.String, Email: ownerEmail.String}
	}
	if assignedAt.Valid {
		at := assignedAt.Time
		lead.AssignedAt = &at
	}

	return &lead, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (
			id, name, email, phone, treatment, message, status, created_at,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content, gclid, fbclid,
			user_agent, ip_address
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Treatment,
		nullString(lead.Message),
		lead.Status,
		lead.CreatedAt,
		nullString(lead.UTMSource),
		nullString(lead.UTMMedium),
		nullString(lead.UTMCampaign),
		nullString(lead.UTMTerm),
		nullString(lead.UTMContent),
		nullString(lead.GCLID),
		nullString(lead.FBCLID),
		nullString(lead.UserAgent),
		nullString(lead.IPAddress),
	)
	return err
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + leadFrom + ` WHERE l.id = $1`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	where, args := buildLeadWhere(filter)
	query := `SELECT ` + leadColumns + leadFrom + where + ` ORDER BY l.created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// buildLeadWhere monta o WHERE dinâmico; todos os filtros são combinados com AND.
func buildLeadWhere(filter entity.LeadFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		p := next("%" + q + "%")
		conds = append(conds, fmt.Sprintf("(l.name ILIKE %s OR l.email ILIKE %s OR l.phone ILIKE %s)", p, p, p))
	}
	if filter.Status != "" {
		conds = append(conds, "l.status = "+next(filter.Status))
	}
	if filter.Treatment != "" {
		conds = append(conds, "l.treatment = "+next(filter.Treatment))
	}
	if filter.Source != "" {
		conds = append(conds, "l.utm_source ILIKE "+next("%"+filter.Source+"%"))
	}
	if filter.From != nil {
		conds = append(conds, "l.created_at >= "+next(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, "l.created_at < "+next(*filter.To))
	}
	if len(filter.IDs) > 0 {
		conds = append(conds, "l.id = ANY("+next(pq.Array(filter.IDs))+"::uuid[])")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status entity.Status) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	return requireAffected(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) UpdateAssignment(ctx context.Context, id string, ownerID *string, assignedAt *time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE leads SET assigned_to_id = $2, assigned_at = $3 WHERE id = $1`,
		id, ownerID, assignedAt,
	)
	if isForeignKeyViolation(err) {
		return entity.ErrOwnerNotFound
	}
	if err != nil {
		return err
	}
	return requireAffected(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res, entity.ErrLeadNotFound)
}

// BulkUpdateStatus é um único UPDATE: ou todas as linhas mudam, ou nenhuma.
func (r *LeadRepository) BulkUpdateStatus(ctx context.Context, ids []string, status entity.Status) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`UPDATE leads SET status = $1 WHERE id = ANY($2::uuid[]) RETURNING id`,
		status, pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updated := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	return updated, rows.Err()
}

func (r *LeadRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *LeadRepository) CountCreatedAfter(ctx context.Context, since *time.Time) (int, error) {
	var count int
	var err error
	if since == nil {
		err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&count)
	} else {
		err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE created_at > $1`, *since).Scan(&count)
	}
	return count, err
}

func (r *LeadRepository) RecentCreatedAfter(ctx context.Context, since *time.Time, limit int) ([]entity.LeadSummary, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if since == nil {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT id, name, treatment, status, created_at FROM leads ORDER BY created_at DESC LIMIT $1`,
			limit)
	} else {
		rows, err = r.DB.QueryContext(ctx,
			`SELECT id, name, treatment, status, created_at FROM leads WHERE created_at > $1 ORDER BY created_at DESC LIMIT $2`,
			*since, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []entity.LeadSummary{}
	for rows.Next() {
		var s entity.LeadSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Treatment, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *LeadRepository) CountByStatus(ctx context.Context) (map[entity.Status]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[entity.Status]int)
	for rows.Next() {
		var (
			status entity.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *LeadRepository) DistinctTreatments(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT treatment FROM leads ORDER BY treatment`)
}

func (r *LeadRepository) DistinctSources(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `
		SELECT DISTINCT utm_source FROM leads
		WHERE utm_source IS NOT NULL AND utm_source <> ''
		ORDER BY utm_source
	`)
}

func (r *LeadRepository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// ListStale retorna os leads "new" mais recentes criados antes do corte e o total sem LIMIT.
func (r *LeadRepository) ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]entity.Lead, int, error) {
	query := `SELECT ` + leadColumns + `, COUNT(*) OVER ()` + leadFrom + `
		WHERE l.status = $1 AND l.created_at < $2
		ORDER BY l.created_at DESC
		LIMIT $3`

	rows, err := r.DB.QueryContext(ctx, query, entity.StatusNew, createdBefore, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var total int
	leads := []entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *lead)
	}
	return leads, total, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
