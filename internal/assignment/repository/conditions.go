package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Conditions maps a lead field (or one of its aliases) to the values a rule accepts.
// Stored as JSONB; a single scalar is accepted in place of a list.
type Conditions map[string][]string

func (c *Conditions) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Conditions, len(raw))
	for key, value := range raw {
		out[key] = toStringList(value)
	}
	*c = out
	return nil
}

func toStringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := scalarString(item); ok {
				list = append(list, s)
			}
		}
		return list
	default:
		if s, ok := scalarString(v); ok {
			return []string{s}
		}
		return nil
	}
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return "", false
	default:
		return fmt.Sprint(t), true
	}
}

// CourseConditions narrows an L3 ruleset to courses.
type CourseConditions struct {
	CourseName     []string `json:"courseName"`
	Degree         []string `json:"degree"`
	Specialization []string `json:"specialization"`
	Stream         []string `json:"stream"`
	Level          []string `json:"level"`
}
