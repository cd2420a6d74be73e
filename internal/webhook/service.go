package webhook

import (
	"context"
	"strings"

	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadIntake runs a raw lead payload through student intake.
type LeadIntake interface {
	SubmitLead(ctx context.Context, raw map[string]any) (LeadOutcome, error)
}

// LeadOutcome is what intake reports back for one lead.
type LeadOutcome struct {
	StudentID    uuid.UUID `json:"studentId"`
	Status       string    `json:"studentStatus"`
	CounsellorID string    `json:"counsellorId,omitempty"`
}

// MetaLeadFetcher reads a lead ads submission by its leadgen id.
type MetaLeadFetcher interface {
	FetchLead(ctx context.Context, leadgenID string) (MetaLead, error)
}

// MetaBatchResult counts the submissions of one Meta webhook call.
type MetaBatchResult struct {
	Received  int `json:"received"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type Service struct {
	intake LeadIntake
	meta   MetaLeadFetcher
	log    *logger.Logger
}

// NewService wires lead capture. meta may be nil when lead ads are not configured.
func NewService(intake LeadIntake, meta MetaLeadFetcher, log *logger.Logger) *Service {
	return &Service{intake: intake, meta: meta, log: log}
}

// SubmitForm processes a website or partner form post. The key's source is
// used when the form does not name one.
func (s *Service) SubmitForm(ctx context.Context, key APIKey, form map[string]any) (LeadOutcome, error) {
	if len(form) == 0 {
		return LeadOutcome{}, apperr.Validation("form data is empty")
	}

	raw := make(map[string]any, len(form)+1)
	for k, v := range form {
		raw[k] = v
	}
	if src, _ := raw["source"].(string); strings.TrimSpace(src) == "" {
		raw["source"] = key.Source
		if key.Source == "" {
			raw["source"] = DefaultSource
		}
	}

	out, err := s.intake.SubmitLead(ctx, raw)
	if err != nil {
		return LeadOutcome{}, err
	}
	s.log.WithContext(ctx).Info("webhook form lead received", "key", key.KeyPrefix, "studentId", out.StudentID, "status", out.Status)
	return out, nil
}

// GoogleLeadResult reports the outcome of a Google lead form delivery.
type GoogleLeadResult struct {
	IsTest bool
	Lead   *LeadOutcome
}

// SubmitGoogleLead imports a Google Ads lead. Test deliveries are acknowledged
// without creating a student.
func (s *Service) SubmitGoogleLead(ctx context.Context, p GoogleLeadPayload) (GoogleLeadResult, error) {
	if p.IsTest {
		s.log.WithContext(ctx).Info("google test lead received", "leadId", p.LeadID, "formId", p.FormID)
		return GoogleLeadResult{IsTest: true}, nil
	}

	out, err := s.intake.SubmitLead(ctx, googleLead(p))
	if err != nil {
		return GoogleLeadResult{}, err
	}
	return GoogleLeadResult{Lead: &out}, nil
}

// ProcessMetaWebhook fetches and imports every lead announced in p. A failing
// lead is logged and counted; the rest still go through.
func (s *Service) ProcessMetaWebhook(ctx context.Context, p MetaWebhookPayload) (MetaBatchResult, error) {
	if s.meta == nil {
		return MetaBatchResult{}, apperr.Unavailable("meta lead ads are not configured")
	}

	ids := leadgenIDs(p)
	result := MetaBatchResult{Received: len(ids)}
	log := s.log.WithContext(ctx)

	for _, id := range ids {
		lead, err := s.meta.FetchLead(ctx, id)
		if err != nil {
			log.Error("fetch meta lead failed", "leadgenId", id, "error", err)
			result.Failed++
			continue
		}
		out, err := s.intake.SubmitLead(ctx, metaLead(lead))
		if err != nil {
			log.Error("import meta lead failed", "leadgenId", id, "error", err)
			result.Failed++
			continue
		}
		log.Info("meta lead imported", "leadgenId", id, "studentId", out.StudentID, "status", out.Status)
		result.Processed++
	}
	return result, nil
}
