package main

import (
	"context"
	"errors"
	"testing"

	"admissions_crm_backend/internal/assignment/repository"
	"admissions_crm_backend/platform/logger"
)

const sampleRules = `
l2_rules:
  - name: Delhi MBA
    conditions:
      state: Delhi
      course: [MBA, " PGDM ", ""]
    counsellors: [CNS-AAAA0001, CNS-AAAA0002]
    priority: 3
  - name: Paused
    conditions:
      source: google
    counsellors: CNS-AAAA0003
    active: false
l3_rulesets:
  - name: Amity online
    college: " Amity "
    universities: Amity University
    course:
      degree: [MBA]
      level: PG
    sources: [website_chat]
    counsellors: [CNS-BBBB0001]
`

type fakeImporter struct {
	l2     []repository.L2Rule
	l3     []repository.L3Ruleset
	reject map[string]bool
}

func (f *fakeImporter) ImportL2Rule(_ context.Context, rule repository.L2Rule) (repository.L2Rule, error) {
	if f.reject[rule.Name] {
		return repository.L2Rule{}, errors.New("unknown counsellor")
	}
	f.l2 = append(f.l2, rule)
	return rule, nil
}

func (f *fakeImporter) ImportL3Ruleset(_ context.Context, rs repository.L3Ruleset) (repository.L3Ruleset, error) {
	if f.reject[rs.Name] {
		return repository.L3Ruleset{}, errors.New("unknown counsellor")
	}
	f.l3 = append(f.l3, rs)
	return rs, nil
}

func TestParseRules(t *testing.T) {
	f, err := parseRules([]byte(sampleRules))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.L2Rules) != 2 || len(f.L3Rulesets) != 1 {
		t.Fatalf("expected 2 l2 rules and 1 l3 ruleset, got %d and %d", len(f.L2Rules), len(f.L3Rulesets))
	}

	rule, err := f.L2Rules[0].toRule()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rule.Conditions["course"]; len(got) != 2 || got[1] != "PGDM" {
		t.Fatalf("expected trimmed course list, got %v", got)
	}
	if got := rule.Conditions["state"]; len(got) != 1 || got[0] != "Delhi" {
		t.Fatalf("expected scalar state to become a list, got %v", got)
	}
	if !rule.IsActive {
		t.Fatalf("expected rule to default to active")
	}

	paused, _ := f.L2Rules[1].toRule()
	if paused.IsActive {
		t.Fatalf("expected paused rule to be inactive")
	}
	if len(paused.AssignedCounsellorIDs) != 1 {
		t.Fatalf("expected scalar counsellor to become a list, got %v", paused.AssignedCounsellorIDs)
	}

	rs, err := f.L3Rulesets[0].toRuleset()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.College != "Amity" {
		t.Fatalf("expected trimmed college, got %q", rs.College)
	}
	if len(rs.CourseConditions.Level) != 1 || rs.CourseConditions.Level[0] != "PG" {
		t.Fatalf("expected level PG, got %v", rs.CourseConditions.Level)
	}
}

func TestParseRulesRejectsEmptyFile(t *testing.T) {
	if _, err := parseRules([]byte("other: 1\n")); err == nil {
		t.Fatalf("expected error for a file without rules")
	}
	if _, err := parseRules([]byte("l2_rules:\n  - conditions: {a: {b: c}}\n")); err == nil {
		t.Fatalf("expected error for a nested condition value")
	}
}

func TestImportRulesContinuesPastFailures(t *testing.T) {
	f, err := parseRules([]byte(sampleRules + `
  - name: Missing counsellors
    college: Nowhere
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	importer := &fakeImporter{reject: map[string]bool{"Paused": true}}

	got := importRules(context.Background(), importer, f, false, logger.New("test"))
	if got.L2Imported != 1 || got.L3Imported != 1 || got.Failed != 2 {
		t.Fatalf("expected 1/1 imported with 2 failures, got %+v", got)
	}
	if len(importer.l2) != 1 || importer.l2[0].Name != "Delhi MBA" {
		t.Fatalf("expected Delhi MBA stored, got %+v", importer.l2)
	}
}

func TestImportRulesDryRunWritesNothing(t *testing.T) {
	f, _ := parseRules([]byte(sampleRules))
	importer := &fakeImporter{}

	got := importRules(context.Background(), importer, f, true, logger.New("test"))
	if got.L2Imported != 2 || got.L3Imported != 1 {
		t.Fatalf("expected every entry to validate, got %+v", got)
	}
	if len(importer.l2) != 0 || len(importer.l3) != 0 {
		t.Fatalf("expected no writes on dry run")
	}
}
