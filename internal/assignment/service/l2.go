package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"admissions_crm_backend/internal/assignment/repository"

	"github.com/google/uuid"
)

// PriorityFields lists the lead fields an L2 rule may constrain, most important first.
// A field's weight is len(PriorityFields) minus its index.
var PriorityFields = []string{
	"utmCampaign",
	"first_source_url",
	"source",
	"mode",
	"preferred_budget",
	"current_profession",
	"preferred_level",
	"preferred_degree",
	"preferred_specialization",
	"preferred_city",
	"preferred_state",
}

const anyCondition = "Any"

// conditionAliases lists the alternative keys rule authors use for a field.
var conditionAliases = map[string][]string{
	"first_source_url":         {"firstSourceUrl"},
	"utmCampaign":              {"utm_campaign"},
	"preferred_city":           {"prefCity", "pref_city"},
	"preferred_state":          {"prefState", "pref_state"},
	"preferred_degree":         {"prefDegree"},
	"preferred_specialization": {"prefSpec"},
	"preferred_budget":         {"budget"},
	"current_profession":       {"profession"},
	"preferred_level":          {"level"},
}

// Lead is a flat view of a student lead keyed by PriorityFields names.
// Values may be strings, numbers or lists.
type Lead map[string]any

type MatchedField struct {
	Field             string   `json:"field"`
	Value             string   `json:"value"`
	MatchedConditions []string `json:"matchedConditions"`
	Priority          int      `json:"priority"`
}

type MatchDetails struct {
	MatchedFields        []MatchedField `json:"matchedFields"`
	HighestPriorityMatch int            `json:"highestPriorityMatch"`
	TotalMatchScore      int            `json:"totalMatchScore"`
	FinalScore           int            `json:"finalScore"`
	RulePriority         int            `json:"rulePriority"`
	TotalConditions      int            `json:"totalConditions"`
	SatisfiedConditions  int            `json:"satisfiedConditions"`
	RuleName             string         `json:"ruleName"`
}

// RuleMatch is a rule that accepted the lead, with its score.
type RuleMatch struct {
	Rule    repository.L2Rule
	Score   int
	Details MatchDetails
}

// MatchingRuleSummary is the compact form returned with every assignment.
type MatchingRuleSummary struct {
	RuleID        uuid.UUID `json:"ruleId"`
	Score         int       `json:"score"`
	MatchedFields []string  `json:"matchedFields"`
}

// NormalizeConditions resolves alias keys onto the canonical field names.
// The canonical key wins when both are present and non-empty.
func NormalizeConditions(c repository.Conditions) repository.Conditions {
	out := make(repository.Conditions, len(PriorityFields))
	for _, field := range PriorityFields {
		if values := c[field]; len(values) > 0 {
			out[field] = values
			continue
		}
		for _, alias := range conditionAliases[field] {
			if values := c[alias]; len(values) > 0 {
				out[field] = values
				break
			}
		}
	}
	return out
}

func unconstrained(conditions []string) bool {
	if len(conditions) == 0 {
		return true
	}
	for _, c := range conditions {
		if c == anyCondition {
			return true
		}
	}
	return false
}

// FormatLeadValue renders a lead value the way conditions are written.
// The boolean is false when the value is missing or empty.
func FormatLeadValue(field string, value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		s = v
	case []string:
		s = formatList(field, v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			items = append(items, fmt.Sprint(item))
		}
		s = formatList(field, items)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		s = fmt.Sprint(v)
	}

	if field == "preferred_budget" {
		s = strings.NewReplacer("₹", "", ",", "").Replace(s)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// formatList keeps the first element for degree and specialization and joins
// the rest with commas.
func formatList(field string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	switch field {
	case "preferred_degree", "preferred_specialization":
		return items[0]
	default:
		return strings.Join(items, ",")
	}
}

// matchesCondition reports whether the formatted lead value satisfies any condition.
func matchesCondition(field, value string, conditions []string) bool {
	for _, cond := range conditions {
		cond = strings.TrimSpace(cond)
		if cond == "" {
			continue
		}
		switch field {
		case "first_source_url":
			if strings.Contains(strings.ToLower(value), strings.ToLower(cond)) {
				return true
			}
		case "preferred_budget":
			if budgetMatches(value, cond) {
				return true
			}
		default:
			if cond == value {
				return true
			}
		}
	}
	return false
}

// budgetMatches treats a condition containing "-" as an inclusive min-max range.
func budgetMatches(value, cond string) bool {
	if !strings.Contains(cond, "-") {
		return cond == value
	}
	parts := strings.SplitN(cond, "-", 2)
	lo, errLo := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	hi, errHi := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLo != nil || errHi != nil {
		return false
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	return amount >= lo && amount <= hi
}

// EvaluateRule walks PriorityFields for one rule. It stops at the first
// constrained field the lead lacks or fails.
func EvaluateRule(rule repository.L2Rule, lead Lead) (MatchDetails, bool) {
	conditions := NormalizeConditions(rule.Conditions)
	details := MatchDetails{
		MatchedFields:        make([]MatchedField, 0),
		HighestPriorityMatch: -1,
		RulePriority:         rule.Priority,
		RuleName:             rule.Name,
	}
	if details.RuleName == "" {
		details.RuleName = "Rule " + rule.ID.String()
	}

	for i, field := range PriorityFields {
		fieldConditions := conditions[field]
		if unconstrained(fieldConditions) {
			continue
		}
		details.TotalConditions++
		weight := len(PriorityFields) - i

		value, ok := FormatLeadValue(field, lead[field])
		if !ok || !matchesCondition(field, value, fieldConditions) {
			return MatchDetails{}, false
		}

		details.SatisfiedConditions++
		details.MatchedFields = append(details.MatchedFields, MatchedField{
			Field:             field,
			Value:             value,
			MatchedConditions: fieldConditions,
			Priority:          weight,
		})
		details.TotalMatchScore += weight
		if weight > details.HighestPriorityMatch {
			details.HighestPriorityMatch = weight
		}
	}

	details.FinalScore = details.HighestPriorityMatch*1000 + details.TotalMatchScore + rule.Priority
	return details, true
}

// RankRules evaluates every rule and returns the matches by descending score.
// rules must already be ordered by priority; ties keep that order.
func RankRules(rules []repository.L2Rule, lead Lead) []RuleMatch {
	matches := make([]RuleMatch, 0)
	for _, rule := range rules {
		details, ok := EvaluateRule(rule, lead)
		if !ok {
			continue
		}
		matches = append(matches, RuleMatch{Rule: rule, Score: details.FinalScore, Details: details})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// Summaries converts ranked matches into their compact form.
func Summaries(matches []RuleMatch) []MatchingRuleSummary {
	out := make([]MatchingRuleSummary, 0, len(matches))
	for _, m := range matches {
		fields := make([]string, 0, len(m.Details.MatchedFields))
		for _, f := range m.Details.MatchedFields {
			fields = append(fields, f.Field)
		}
		out = append(out, MatchingRuleSummary{RuleID: m.Rule.ID, Score: m.Score, MatchedFields: fields})
	}
	return out
}
