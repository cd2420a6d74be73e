package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"admissions_crm_backend/internal/assignment/repository"
	"admissions_crm_backend/platform/logger"

	"gopkg.in/yaml.v3"
)

// ruleFile is the import document: L2 rules and L3 rulesets side by side.
type ruleFile struct {
	L2Rules    []l2RuleDoc    `yaml:"l2_rules"`
	L3Rulesets []l3RulesetDoc `yaml:"l3_rulesets"`
}

type l2RuleDoc struct {
	Name        string                `yaml:"name"`
	Conditions  map[string]stringList `yaml:"conditions"`
	Counsellors stringList            `yaml:"counsellors"`
	Priority    int                   `yaml:"priority"`
	Active      *bool                 `yaml:"active"`
}

type l3RulesetDoc struct {
	Name           string     `yaml:"name"`
	CustomRuleName string     `yaml:"custom_rule_name"`
	College        string     `yaml:"college"`
	Universities   stringList `yaml:"universities"`
	Course         courseDoc  `yaml:"course"`
	Sources        stringList `yaml:"sources"`
	Counsellors    stringList `yaml:"counsellors"`
	Priority       int        `yaml:"priority"`
	Active         *bool      `yaml:"active"`
}

type courseDoc struct {
	CourseName     stringList `yaml:"course_name"`
	Degree         stringList `yaml:"degree"`
	Specialization stringList `yaml:"specialization"`
	Stream         stringList `yaml:"stream"`
	Level          stringList `yaml:"level"`
}

// stringList accepts either a scalar or a sequence of scalars.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = compact([]string{node.Value})
		return nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return err
		}
		*l = compact(values)
		return nil
	default:
		return fmt.Errorf("line %d: expected a value or a list", node.Line)
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseRules(data []byte) (ruleFile, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ruleFile{}, fmt.Errorf("parse rules: %w", err)
	}
	if len(f.L2Rules) == 0 && len(f.L3Rulesets) == 0 {
		return ruleFile{}, errors.New("parse rules: file has no l2_rules or l3_rulesets")
	}
	return f, nil
}

func (d l2RuleDoc) toRule() (repository.L2Rule, error) {
	if len(d.Counsellors) == 0 {
		return repository.L2Rule{}, fmt.Errorf("l2 rule %q: no counsellors", d.Name)
	}
	conditions := make(repository.Conditions, len(d.Conditions))
	for key, values := range d.Conditions {
		if len(values) > 0 {
			conditions[key] = values
		}
	}
	return repository.L2Rule{
		Name:                  strings.TrimSpace(d.Name),
		Conditions:            conditions,
		AssignedCounsellorIDs: d.Counsellors,
		Priority:              d.Priority,
		IsActive:              d.Active == nil || *d.Active,
	}, nil
}

func (d l3RulesetDoc) toRuleset() (repository.L3Ruleset, error) {
	if len(d.Counsellors) == 0 {
		return repository.L3Ruleset{}, fmt.Errorf("l3 ruleset %q: no counsellors", d.Name)
	}
	return repository.L3Ruleset{
		Name:            strings.TrimSpace(d.Name),
		CustomRuleName:  d.CustomRuleName,
		College:         strings.TrimSpace(d.College),
		UniversityNames: d.Universities,
		CourseConditions: repository.CourseConditions{
			CourseName:     d.Course.CourseName,
			Degree:         d.Course.Degree,
			Specialization: d.Course.Specialization,
			Stream:         d.Course.Stream,
			Level:          d.Course.Level,
		},
		Sources:               d.Sources,
		AssignedCounsellorIDs: d.Counsellors,
		Priority:              d.Priority,
		IsActive:              d.Active == nil || *d.Active,
	}, nil
}

// Importer is satisfied by the assignment service.
type Importer interface {
	ImportL2Rule(ctx context.Context, rule repository.L2Rule) (repository.L2Rule, error)
	ImportL3Ruleset(ctx context.Context, rs repository.L3Ruleset) (repository.L3Ruleset, error)
}

type summary struct {
	L2Imported int
	L3Imported int
	Failed     int
}

// importRules stores every entry it can. A bad entry is logged and counted,
// the rest of the file still goes in. With dryRun nothing is written.
func importRules(ctx context.Context, importer Importer, f ruleFile, dryRun bool, log *logger.Logger) summary {
	var s summary

	for i, doc := range f.L2Rules {
		rule, err := doc.toRule()
		if err == nil && !dryRun {
			_, err = importer.ImportL2Rule(ctx, rule)
		}
		if err != nil {
			log.Error("l2 rule rejected", "index", i, "name", doc.Name, "error", err)
			s.Failed++
			continue
		}
		s.L2Imported++
	}

	for i, doc := range f.L3Rulesets {
		rs, err := doc.toRuleset()
		if err == nil && !dryRun {
			_, err = importer.ImportL3Ruleset(ctx, rs)
		}
		if err != nil {
			log.Error("l3 ruleset rejected", "index", i, "name", doc.Name, "error", err)
			s.Failed++
			continue
		}
		s.L3Imported++
	}

	return s
}
