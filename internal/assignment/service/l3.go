package service

import (
	"sort"
	"strings"

	"admissions_crm_backend/internal/assignment/repository"

	"github.com/google/uuid"
)

const (
	MatchedCollegeOnly   = "college-name-only"
	MatchedPriorityBased = "priority-based"
)

// L3Input describes the course a student has progressed on.
type L3Input struct {
	StudentID      uuid.UUID
	CollegeName    string
	Course         string
	Degree         string
	Specialization string
	Level          string
	Source         string
	Stream         string
}

type hierarchyCheck struct {
	name  string
	check func(repository.CourseConditions, L3Input) bool
}

// hierarchy is evaluated top to bottom; the first level that leaves a single
// ruleset decides.
var hierarchy = []hierarchyCheck{
	{name: "courseName", check: func(c repository.CourseConditions, in L3Input) bool {
		return containsEitherWay(c.CourseName, in.Course)
	}},
	{name: "degree", check: func(c repository.CourseConditions, in L3Input) bool {
		return containsExact(c.Degree, in.Degree)
	}},
	{name: "specialization", check: func(c repository.CourseConditions, in L3Input) bool {
		return containsEitherWay(c.Specialization, in.Specialization)
	}},
	{name: "stream", check: func(c repository.CourseConditions, in L3Input) bool {
		return containsEitherWay(c.Stream, in.Stream)
	}},
	{name: "level", check: func(c repository.CourseConditions, in L3Input) bool {
		return containsExact(c.Level, in.Level)
	}},
}

func containsEitherWay(list []string, value string) bool {
	if value == "" || len(list) == 0 {
		return false
	}
	v := strings.ToLower(value)
	for _, item := range list {
		if item == "" {
			continue
		}
		i := strings.ToLower(item)
		if strings.Contains(i, v) || strings.Contains(v, i) {
			return true
		}
	}
	return false
}

func containsExact(list []string, value string) bool {
	if value == "" {
		return false
	}
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func universityMatches(universities []string, college string) bool {
	c := strings.ToLower(strings.TrimSpace(college))
	if c == "" || len(universities) == 0 {
		return true
	}
	for _, uni := range universities {
		u := strings.ToLower(strings.TrimSpace(uni))
		if u == "" {
			continue
		}
		if u == c || strings.Contains(u, c) || strings.Contains(c, u) {
			return true
		}
	}
	return false
}

func sourceMatches(sources []string, source string) bool {
	if source == "" || len(sources) == 0 {
		return true
	}
	for _, s := range sources {
		if s == source {
			return true
		}
	}
	return false
}

// FilterRulesets keeps rulesets whose university and source lists accept the input.
func FilterRulesets(rulesets []repository.L3Ruleset, in L3Input) []repository.L3Ruleset {
	out := make([]repository.L3Ruleset, 0, len(rulesets))
	for _, rs := range rulesets {
		if universityMatches(rs.UniversityNames, in.CollegeName) && sourceMatches(rs.Sources, in.Source) {
			out = append(out, rs)
		}
	}
	return out
}

func byPriority(rulesets []repository.L3Ruleset) repository.L3Ruleset {
	sorted := make([]repository.L3Ruleset, len(rulesets))
	copy(sorted, rulesets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return sorted[0]
}

// SelectRuleset applies the course hierarchy to a non-empty candidate list.
// It returns the chosen ruleset, the level that decided, and whether any
// course field matched at all.
func SelectRuleset(candidates []repository.L3Ruleset, in L3Input) (repository.L3Ruleset, string, bool) {
	anyMatch := false
	for _, rs := range candidates {
		for _, level := range hierarchy {
			if level.check(rs.CourseConditions, in) {
				anyMatch = true
				break
			}
		}
		if anyMatch {
			break
		}
	}
	if !anyMatch {
		return byPriority(candidates), MatchedCollegeOnly, false
	}

	pool := candidates
	for _, level := range hierarchy {
		matching := make([]repository.L3Ruleset, 0, len(pool))
		for _, rs := range pool {
			if level.check(rs.CourseConditions, in) {
				matching = append(matching, rs)
			}
		}
		switch len(matching) {
		case 0:
			continue
		case 1:
			return matching[0], level.name, true
		default:
			pool = matching
		}
	}
	return byPriority(pool), MatchedPriorityBased, true
}
