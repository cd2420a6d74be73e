package adapters

import (
	"context"

	metaclient "admissions_crm_backend/internal/metaaudience/client"
	"admissions_crm_backend/internal/webhook"
)

// WebhookLeads sends captured form and ad leads through student intake.
type WebhookLeads struct {
	intake LeadIntake
}

func NewWebhookLeads(intake LeadIntake) *WebhookLeads {
	return &WebhookLeads{intake: intake}
}

func (a *WebhookLeads) SubmitLead(ctx context.Context, raw map[string]any) (webhook.LeadOutcome, error) {
	res, err := a.intake.ProcessLead(ctx, raw)
	if err != nil {
		return webhook.LeadOutcome{}, err
	}
	counsellorID := res.AssignedCounsellor.ID
	if counsellorID == "" && res.Student.AssignedCounsellorID != nil {
		counsellorID = *res.Student.AssignedCounsellorID
	}
	return webhook.LeadOutcome{
		StudentID:    res.Student.ID,
		Status:       res.StudentStatus,
		CounsellorID: counsellorID,
	}, nil
}

// MetaLeadReader is satisfied by the Graph API client.
type MetaLeadReader interface {
	GetLead(ctx context.Context, leadgenID string) (metaclient.Lead, error)
}

// MetaLeads reads lead ads submissions for the webhook module.
type MetaLeads struct {
	graph MetaLeadReader
}

func NewMetaLeads(graph MetaLeadReader) *MetaLeads {
	return &MetaLeads{graph: graph}
}

func (a *MetaLeads) FetchLead(ctx context.Context, leadgenID string) (webhook.MetaLead, error) {
	lead, err := a.graph.GetLead(ctx, leadgenID)
	if err != nil {
		return webhook.MetaLead{}, err
	}

	fields := make([]webhook.Field, 0, len(lead.FieldData))
	for _, f := range lead.FieldData {
		value := ""
		if len(f.Values) > 0 {
			value = f.Values[0]
		}
		fields = append(fields, webhook.Field{Label: f.Name, Value: value})
	}
	return webhook.MetaLead{
		ID:           lead.ID,
		CampaignID:   lead.CampaignID,
		CampaignName: lead.CampaignName,
		AdName:       lead.AdName,
		FormID:       lead.FormID,
		Platform:     lead.Platform,
		Fields:       fields,
	}, nil
}

var (
	_ webhook.LeadIntake      = (*WebhookLeads)(nil)
	_ webhook.MetaLeadFetcher = (*MetaLeads)(nil)
)
