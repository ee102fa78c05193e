package usecase

import (
	"errors"
	"time"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

// Result is what every mutating use case hands back to its caller.
type Result struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

func succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

// failed maps err to a Result. Validation messages are shown as-is, anything
// else collapses into the operation's generic failure message.
func failed(err error, fallback string) Result {
	var de *DomainError
	if errors.As(err, &de) {
		res := Result{Success: false, Message: fallback, Code: de.Code, Errors: de.Fields}
		if de.Code == CodeValidation {
			res.Message = de.Message
		}
		return res
	}

	code := CodeWriteFailed
	var te *TechnicalError
	if errors.As(err, &te) {
		code = te.Code
	}
	return Result{Success: false, Message: fallback, Code: code}
}

type UpdateStatusInput struct {
	LeadID string `json:"id"`
	Status string `json:"status"`
}

type AssignLeadInput struct {
	LeadID  string  `json:"id"`
	OwnerID *string `json:"owner_id"`
}

type AddNoteInput struct {
	LeadID string `json:"id"`
	Note   string `json:"note"`
}

type BulkStatusInput struct {
	LeadIDs []string `json:"ids"`
	Status  string   `json:"status"`
}

type BulkDeleteInput struct {
	LeadIDs []string `json:"ids"`
}

type CaptureLeadInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Treatment   string `json:"treatment"`
	Message     string `json:"message,omitempty"`
	AcceptTerms bool   `json:"accept_terms"`

	Source      string `json:"source,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	CampaignID  string `json:"campaign_id,omitempty"`
	GCLID       string `json:"gclid,omitempty"`
	FBCLID      string `json:"fbclid,omitempty"`

	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type CaptureLeadOutput struct {
	Result
	LeadID string `json:"id,omitempty"`
}

type LeadDetails struct {
	Lead    *entity.Lead          `json:"lead"`
	Notes   []entity.LeadNote     `json:"notes"`
	History []entity.HistoryEntry `json:"history"`
	Stale   bool                  `json:"stale"`
}

type StaleLeadsOutput struct {
	Count     int           `json:"count"`
	Leads     []entity.Lead `json:"leads"`
	Threshold time.Duration `json:"-"`
}
