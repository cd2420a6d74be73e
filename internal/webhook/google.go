package webhook

import (
	"strconv"
	"strings"
)

// GoogleLeadPayload is the Google Ads lead form webhook body.
// https://developers.google.com/google-ads/webhook/docs/implementation
type GoogleLeadPayload struct {
	GoogleKey      string             `json:"google_key"`
	LeadID         string             `json:"lead_id"`
	CampaignID     int64              `json:"campaign_id"`
	FormID         int64              `json:"form_id"`
	AdGroupID      int64              `json:"adgroup_id"`
	CreativeID     int64              `json:"creative_id"`
	GCLID          string             `json:"gclid"`
	UserColumnData []GoogleColumnData `json:"user_column_data"`
	IsTest         bool               `json:"is_test"`
	APIVersion     string             `json:"api_version"`
	GCLIDURL       string             `json:"gclidurl"`
	CampaignName   string             `json:"campaign_name"`
	FormName       string             `json:"form_name"`
}

// GoogleColumnData represents a single form field from Google Lead Form.
type GoogleColumnData struct {
	ColumnID    string `json:"column_id"`
	StringValue string `json:"string_value"`
	ColumnName  string `json:"column_name"`
}

const (
	sourceGoogleAds = "google_ads"
	sourceMetaAds   = "meta_ads"
)

// googleLead turns a lead form submission into an intake payload. Standard
// columns carry a column_id; custom questions only a column_name.
func googleLead(p GoogleLeadPayload) map[string]any {
	fields := make([]Field, 0, len(p.UserColumnData))
	for _, col := range p.UserColumnData {
		label := col.ColumnName
		if strings.TrimSpace(label) == "" {
			label = col.ColumnID
		}
		fields = append(fields, Field{Label: label, Value: col.StringValue})
	}

	raw := leadFromFields(fields)
	raw["source"] = sourceGoogleAds
	raw["utmSource"] = "google"
	raw["utmMedium"] = "lead_form"
	if p.CampaignID != 0 {
		raw["utmCampaignId"] = strconv.FormatInt(p.CampaignID, 10)
	}
	if p.CampaignName != "" {
		raw["utmCampaign"] = p.CampaignName
	}
	if p.GCLIDURL != "" {
		raw["sourceUrl"] = p.GCLIDURL
	}
	if p.GCLID != "" {
		raw["gclid"] = p.GCLID
	}
	if p.LeadID != "" {
		raw["externalLeadId"] = p.LeadID
	}
	return raw
}
