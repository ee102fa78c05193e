package entity

import (
	"context"
	"errors"
	"time"
)

var ErrLeadNotFound = errors.New("lead not found")

type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Treatment string    `json:"treatment"`
	Message   string    `json:"message,omitempty"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"` // legado, somente leitura
	CreatedAt time.Time `json:"created_at"`

	AssignedToID *string    `json:"assigned_to_id,omitempty"`
	AssignedTo   *Owner     `json:"assigned_to,omitempty"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`

	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	GCLID       string `json:"gclid,omitempty"`
	FBCLID      string `json:"fbclid,omitempty"`

	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

// AssigneeName returns the owner display name, or "" when unassigned.
func (l *Lead) AssigneeName() string {
	if l.AssignedTo == nil {
		return ""
	}
	return l.AssignedTo.Name
}

// IsStale reports whether the lead is still new after the given threshold.
func (l *Lead) IsStale(now time.Time, after time.Duration) bool {
	return l.Status == StatusNew && now.Sub(l.CreatedAt) > after
}

// LeadSummary is the compact projection rendered by the notification digest.
type LeadSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Treatment string    `json:"treatment"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Digest struct {
	Count       int           `json:"count"`
	RecentLeads []LeadSummary `json:"recent_leads"`
}

type LeadFilter struct {
	Query     string     `json:"q,omitempty"`
	Status    Status     `json:"status,omitempty"`
	Treatment string     `json:"treatment,omitempty"`
	Source    string     `json:"source,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"` // exclusivo
	IDs       []string   `json:"ids,omitempty"`
}

type LeadStats struct {
	Total      int            `json:"total"`
	ByStatus   map[Status]int `json:"by_status"`
	Treatments []string       `json:"treatments"`
	Sources    []string       `json:"sources"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]Lead, error)

	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateAssignment(ctx context.Context, id string, ownerID *string, assignedAt *time.Time) error
	Delete(ctx context.Context, id string) error

	// BulkUpdateStatus returns the ids the store actually updated.
	BulkUpdateStatus(ctx context.Context, ids []string, status Status) ([]string, error)
	BulkDelete(ctx context.Context, ids []string) (int64, error)

	CountCreatedAfter(ctx context.Context, since *time.Time) (int, error)
	RecentCreatedAfter(ctx context.Context, since *time.Time, limit int) ([]LeadSummary, error)

	CountByStatus(ctx context.Context) (map[Status]int, error)
	DistinctTreatments(ctx context.Context) ([]string, error)
	DistinctSources(ctx context.Context) ([]string, error)
	ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]Lead, int, error)
}
