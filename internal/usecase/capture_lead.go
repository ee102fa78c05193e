package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/infra/queue"
)

// CaptureLeadUseCase stores a submission from the public site.
type CaptureLeadUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Cache    LeadListCache
	Events   EventPublisher
	Pipeline *Pipeline
	Now      func() time.Time
}

func NewCaptureLeadUseCase(
	leads entity.LeadRepositoryInterface,
	cache LeadListCache,
	events EventPublisher,
	pipeline *Pipeline,
) *CaptureLeadUseCase {
	return &CaptureLeadUseCase{
		Leads:    leads,
		Cache:    cache,
		Events:   events,
		Pipeline: pipeline,
		Now:      time.Now,
	}
}

func (uc *CaptureLeadUseCase) Execute(ctx context.Context, input CaptureLeadInput) CaptureLeadOutput {
	if errs := ValidateCaptureLeadInput(input); len(errs) > 0 {
		return CaptureLeadOutput{Result: uc.Pipeline.fail("capture_lead", validationFailed(errs), "Erro ao enviar formulário")}
	}

	lead := newLeadFromInput(input)
	lead.ID = uuid.New().String()
	lead.CreatedAt = uc.Now().UTC()

	err := uc.Pipeline.Mutation("capture_lead", func(ctx context.Context) error {
		return uc.Leads.Create(ctx, lead)
	}, zap.String("lead_id", lead.ID)).
		Then("invalidate_cache", uc.Cache.Invalidate).
		Then("publish_event", func(ctx context.Context) error {
			return uc.Events.PublishLeadEvent(ctx, queue.LeadEvent{
				Type:       queue.EventLeadCaptured,
				LeadID:     lead.ID,
				LeadName:   lead.Name,
				LeadEmail:  lead.Email,
				LeadPhone:  lead.Phone,
				Treatment:  lead.Treatment,
				Source:     lead.UTMSource,
				Message:    lead.Message,
				OccurredAt: lead.CreatedAt,
			})
		}).
		Execute(ctx)
	if err != nil {
		return CaptureLeadOutput{Result: uc.Pipeline.fail("capture_lead", writeFailed(err), "Erro ao enviar formulário")}
	}

	return CaptureLeadOutput{Result: succeeded("Recebemos seu contato! Em breve retornaremos."), LeadID: lead.ID}
}

// newLeadFromInput applies the attribution rules: an explicit utm_source wins
// over the page source, and medium defaults to "direct" only when there was
// no utm_source at all.
func newLeadFromInput(input CaptureLeadInput) *entity.Lead {
	lead := &entity.Lead{
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(strings.ToLower(input.Email)),
		Phone:     strings.TrimSpace(input.Phone),
		Treatment: strings.TrimSpace(input.Treatment),
		Message:   strings.TrimSpace(input.Message),
		Status:    entity.StatusNew,

		UTMSource:   firstNonEmpty(input.UTMSource, input.Source),
		UTMMedium:   input.UTMMedium,
		UTMCampaign: firstNonEmpty(input.UTMCampaign, input.CampaignID),
		UTMTerm:     input.UTMTerm,
		UTMContent:  input.UTMContent,
		GCLID:       input.GCLID,
		FBCLID:      input.FBCLID,

		UserAgent: input.UserAgent,
		IPAddress: input.IPAddress,
	}

	if lead.UTMMedium == "" && input.UTMSource == "" {
		lead.UTMMedium = "direct"
	}

	return lead
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
