// Package intake turns loosely keyed lead payloads from forms, ad platforms
// and partner exports into a single Lead shape.
package intake

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Lead is a normalised lead payload.
type Lead struct {
	Name  string
	Email string
	Phone string

	ParentsNumber  string
	WhatsApp       string
	SecondaryEmail string

	SourceURL     string
	Source        string
	UTMCampaign   string
	UTMCampaignID string
	UTMSource     string
	UTMMedium     string
	UTMTerm       string
	UTMContent    string
	UTMKeyword    string

	Mode              string
	Level             []string
	Stream            []string
	Degree            []string
	Specialization    []string
	City              []string
	State             []string
	University        []string
	Budget            string
	HighestDegree     string
	CompletionYear    string
	CurrentProfession string
	CurrentRole       string
	WorkExperience    string
	Age               int
	Objective         string
	CurrentCity       string
	CurrentState      string
	StudentComment    any
	IsTransfered      bool
	WhatsAppMessages  []TranscriptMessage
}

// TranscriptMessage is one WhatsApp message exported with a lead.
type TranscriptMessage struct {
	MessageID   string
	Text        string
	MessageType string
	Sender      string
	Receiver    string
	Direction   string
	Timestamp   *time.Time
	IsRead      bool
	ReadAt      *time.Time
}

// payload resolves keys exactly first, then ignoring case and separators.
type payload struct {
	raw    map[string]any
	folded map[string]any
}

func foldKey(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}

func newPayload(raw map[string]any) payload {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	folded := make(map[string]any, len(raw))
	for _, k := range keys {
		f := foldKey(k)
		if _, ok := folded[f]; ok && !isEmpty(folded[f]) {
			continue
		}
		folded[f] = raw[k]
	}
	return payload{raw: raw, folded: folded}
}

func (p payload) lookup(key string) any {
	if v, ok := p.raw[key]; ok && !isEmpty(v) {
		return v
	}
	if v, ok := p.folded[foldKey(key)]; ok && !isEmpty(v) {
		return v
	}
	return nil
}

// value returns the first alias carrying a non-empty value.
func (p payload) value(keys ...string) any {
	for _, k := range keys {
		if v := p.lookup(k); v != nil {
			return v
		}
	}
	return nil
}

func (p payload) str(keys ...string) string {
	return toString(p.value(keys...))
}

func (p payload) list(keys ...string) []string {
	return toList(p.value(keys...))
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case bool:
		return !t
	case float64:
		return t == 0
	}
	return false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) == 0 {
			return ""
		}
		return toString(t[0])
	case []string:
		if len(t) == 0 {
			return ""
		}
		return strings.TrimSpace(t[0])
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func toList(v any) []string {
	out := make([]string, 0)
	switch t := v.(type) {
	case nil:
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := toString(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}

func toInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	}
	return 0
}

// queryParams reads the query string of a landing page URL. Malformed URLs yield no params.
func queryParams(sourceURL string) url.Values {
	_, query, ok := strings.Cut(sourceURL, "?")
	if !ok || query == "" {
		return url.Values{}
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return url.Values{}
	}
	return values
}

func firstQuery(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

func orElse(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Normalize maps a raw lead payload onto Lead. Keys are matched ignoring case
// and separators, so "utm_campaign", "UtmCampaign" and "UTMCAMPAIGN" are equivalent.
func Normalize(raw map[string]any) Lead {
	p := newPayload(raw)

	sourceURL := p.str("firstSourceUrl", "sourceUrl", "landingPageUrl")
	q := queryParams(sourceURL)

	campaignID := orElse(
		p.str("utmCampaignId"),
		firstQuery(q, "utm_campaign_id", "utm_campaignid", "campaign_id", "gad_campaignid"),
	)
	campaign := orElse(
		p.str("utmCampaign"),
		firstQuery(q, "utm_campaign", "utm_campaign_name", "campaign_name", "gad_campaign_name"),
		p.str("destinationNumber"),
		campaignID,
	)

	return Lead{
		Name:           p.str("name", "full_name"),
		Email:          strings.ToLower(p.str("email")),
		Phone:          p.str("phoneNumber", "phone", "mobile"),
		ParentsNumber:  p.str("parentsNumber", "parentNumber", "guardianPhone"),
		WhatsApp:       p.str("whatsapp", "whatsappNumber", "studentWhatsapp"),
		SecondaryEmail: p.str("secondaryEmail", "altEmail", "backupEmail"),

		SourceURL:     sourceURL,
		Source:        orElse(p.str("source"), firstQuery(q, "source")),
		UTMCampaign:   campaign,
		UTMCampaignID: campaignID,
		UTMSource:     orElse(p.str("utmSource"), firstQuery(q, "utm_source", "source")),
		UTMMedium:     orElse(p.str("utmMedium"), firstQuery(q, "utm_medium", "medium")),
		UTMTerm:       orElse(p.str("utmTerm"), firstQuery(q, "utm_term", "term")),
		UTMContent:    orElse(p.str("utmContent"), firstQuery(q, "utm_content", "content")),
		UTMKeyword:    orElse(p.str("utmKeyword"), firstQuery(q, "utm_keyword", "keyword")),

		Mode:              p.str("mode"),
		Level:             orList(p.list("level", "preferredLevel"), toList(firstQuery(q, "level"))),
		Stream:            p.list("stream", "preferredStream", "specialization"),
		Degree:            p.list("preferredDegree", "highestQualification", "degree"),
		Specialization:    p.list("preferredSpecialization"),
		City:              p.list("city", "preferredCity", "ipCity"),
		State:             p.list("state", "preferredState", "currentState"),
		University:        p.list("preferredUniversity"),
		Budget:            p.str("preferredBudget", "budget"),
		HighestDegree:     p.str("highestDegree"),
		CompletionYear:    p.str("completionYear"),
		CurrentProfession: p.str("currentProfession", "profession"),
		CurrentRole:       p.str("currentRole"),
		WorkExperience:    p.str("workExperience"),
		Age:               toInt(p.value("studentAge", "age")),
		Objective:         p.str("objective"),
		CurrentCity:       p.str("studentCurrentCity"),
		CurrentState:      p.str("studentCurrentState"),
		StudentComment:    p.value("studentComment", "answers"),
		IsTransfered:      toBool(p.value("isTransfered")),
		WhatsAppMessages:  ParseTranscript(p.value("whatsappMessages")),
	}
}

func orList(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return []string{}
}

// AssignmentFields renders the lead with the field names the L2 scorer reads.
func (l Lead) AssignmentFields() map[string]any {
	fields := map[string]any{
		"name":                     l.Name,
		"email":                    l.Email,
		"phone":                    l.Phone,
		"utmCampaign":              l.UTMCampaign,
		"first_source_url":         l.SourceURL,
		"source":                   l.Source,
		"mode":                     l.Mode,
		"preferred_budget":         l.Budget,
		"current_profession":       l.CurrentProfession,
		"preferred_level":          l.Level,
		"preferred_degree":         l.Degree,
		"preferred_specialization": l.Specialization,
		"preferred_city":           l.City,
		"preferred_state":          l.State,
	}
	return fields
}

// ActivityPayload is the snapshot stored with every lead activity.
func (l Lead) ActivityPayload() map[string]any {
	return map[string]any{
		"name":                     l.Name,
		"email":                    l.Email,
		"phoneNumber":              l.Phone,
		"source":                   l.Source,
		"first_source_url":         l.SourceURL,
		"utmCampaign":              l.UTMCampaign,
		"utmCampaignId":            l.UTMCampaignID,
		"utmSource":                l.UTMSource,
		"utmMedium":                l.UTMMedium,
		"utmTerm":                  l.UTMTerm,
		"utmContent":               l.UTMContent,
		"utmKeyword":               l.UTMKeyword,
		"mode":                     l.Mode,
		"level":                    l.Level,
		"stream":                   l.Stream,
		"degree":                   l.Degree,
		"preferred_specialization": l.Specialization,
		"prefCity":                 l.City,
		"prefState":                l.State,
		"preferred_budget":         l.Budget,
		"student_comment":          l.StudentComment,
	}
}
