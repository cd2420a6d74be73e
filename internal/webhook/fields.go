package webhook

import (
	"strings"
	"unicode"
)

// Field is one labelled answer from an ad platform lead form.
type Field struct {
	Label string
	Value string
}

// labelRules map a form question to the lead intake key it feeds. Order
// matters: first match wins, so specific labels come before "name".
// Single-word keywords match whole words (plural "s" allowed), phrases match
// anywhere in the label.
var labelRules = []struct {
	key      string
	keywords []string
}{
	{"email", []string{"email", "e mail", "mail id"}},
	{"whatsapp", []string{"whatsapp"}},
	{"phoneNumber", []string{"phone", "mobile", "contact number", "cell"}},
	{"firstName", []string{"first name", "given name"}},
	{"lastName", []string{"last name", "surname", "family name"}},
	{"preferredUniversity", []string{"university", "universities", "college", "institute"}},
	{"preferredSpecialization", []string{"specialization", "specialisation"}},
	{"highestDegree", []string{"qualification", "highest degree", "education"}},
	{"preferredDegree", []string{"course", "program", "programme", "degree"}},
	{"stream", []string{"stream"}},
	{"level", []string{"level"}},
	{"mode", []string{"mode", "online or", "regular or"}},
	{"preferredBudget", []string{"budget", "fee"}},
	{"workExperience", []string{"experience"}},
	{"currentProfession", []string{"profession", "occupation", "job title", "working"}},
	{"age", []string{"age"}},
	{"city", []string{"city", "town"}},
	{"state", []string{"state", "region", "province"}},
	{"", []string{"company", "postal", "pincode", "pin code", "zip"}},
	{"name", []string{"full name", "name"}},
}

// fieldKey returns the intake key for a question label, or "" when the
// question is kept as a free answer.
func fieldKey(label string) string {
	words := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	phrase := strings.Join(words, " ")

	for _, rule := range labelRules {
		for _, kw := range rule.keywords {
			if matchesKeyword(phrase, words, kw) {
				return rule.key
			}
		}
	}
	return ""
}

func matchesKeyword(phrase string, words []string, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(phrase, keyword)
	}
	for _, w := range words {
		if w == keyword || w == keyword+"s" {
			return true
		}
	}
	return false
}

// leadFromFields builds a raw intake payload from form answers. Questions that
// do not map to a lead field are kept under "answers".
func leadFromFields(fields []Field) map[string]any {
	raw := make(map[string]any)
	answers := make(map[string]any)
	var first, last string

	for _, f := range fields {
		value := strings.TrimSpace(f.Value)
		if value == "" {
			continue
		}
		switch key := fieldKey(f.Label); key {
		case "":
			answers[strings.TrimSpace(f.Label)] = value
		case "firstName":
			first = value
		case "lastName":
			last = value
		default:
			if _, taken := raw[key]; !taken {
				raw[key] = value
			}
		}
	}

	if _, ok := raw["name"]; !ok {
		if name := strings.TrimSpace(first + " " + last); name != "" {
			raw["name"] = name
		}
	}
	if len(answers) > 0 {
		raw["answers"] = answers
	}
	return raw
}
