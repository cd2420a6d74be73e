package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MetaWebhookPayload is the body Meta posts for page subscriptions.
type MetaWebhookPayload struct {
	Object string      `json:"object"`
	Entry  []MetaEntry `json:"entry"`
}

type MetaEntry struct {
	ID      string       `json:"id"`
	Time    int64        `json:"time"`
	Changes []MetaChange `json:"changes"`
}

type MetaChange struct {
	Field string          `json:"field"`
	Value MetaChangeValue `json:"value"`
}

type MetaChangeValue struct {
	LeadgenID   string `json:"leadgen_id"`
	FormID      string `json:"form_id"`
	AdID        string `json:"ad_id"`
	PageID      string `json:"page_id"`
	CreatedTime int64  `json:"created_time"`
}

// MetaLead is a lead ads submission read back from the Graph API.
type MetaLead struct {
	ID           string
	CampaignID   string
	CampaignName string
	AdName       string
	FormID       string
	Platform     string
	Fields       []Field
}

// leadgenIDs lists the submissions announced by a page webhook, once each.
func leadgenIDs(p MetaWebhookPayload) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			id := strings.TrimSpace(change.Value.LeadgenID)
			if change.Field != "leadgen" || id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func metaLead(l MetaLead) map[string]any {
	raw := leadFromFields(l.Fields)
	raw["source"] = sourceMetaAds
	raw["utmSource"] = "facebook"
	if strings.EqualFold(l.Platform, "ig") {
		raw["utmSource"] = "instagram"
	}
	raw["utmMedium"] = "lead_ads"
	if l.CampaignID != "" {
		raw["utmCampaignId"] = l.CampaignID
	}
	if l.CampaignName != "" {
		raw["utmCampaign"] = l.CampaignName
	}
	if l.AdName != "" {
		raw["utmContent"] = l.AdName
	}
	if l.ID != "" {
		raw["externalLeadId"] = l.ID
	}
	return raw
}

// validSignature checks X-Hub-Signature-256 ("sha256=<hex hmac of body>").
func validSignature(body []byte, header, appSecret string) bool {
	sig, ok := strings.CutPrefix(strings.TrimSpace(header), "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
