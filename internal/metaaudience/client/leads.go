package client

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// Lead is a lead ads form submission fetched by its leadgen id.
type Lead struct {
	ID           string      `json:"id"`
	CreatedTime  string      `json:"created_time"`
	AdID         string      `json:"ad_id"`
	AdName       string      `json:"ad_name"`
	CampaignID   string      `json:"campaign_id"`
	CampaignName string      `json:"campaign_name"`
	FormID       string      `json:"form_id"`
	Platform     string      `json:"platform"`
	FieldData    []LeadField `json:"field_data"`
}

// LeadField is one answered question of the lead form.
type LeadField struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

const leadFields = "id,created_time,ad_id,ad_name,campaign_id,campaign_name,form_id,platform,field_data"

// GetLead reads a lead ads submission. Meta only sends the id in the webhook.
func (c *Client) GetLead(ctx context.Context, leadgenID string) (Lead, error) {
	leadgenID = strings.TrimSpace(leadgenID)
	if leadgenID == "" {
		return Lead{}, errors.New("meta graph api: leadgen id is required")
	}

	var out Lead
	if err := c.get(ctx, "/"+url.PathEscape(leadgenID), url.Values{"fields": {leadFields}}, &out); err != nil {
		return Lead{}, err
	}
	return out, nil
}
