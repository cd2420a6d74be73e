package service

import (
	"context"
	"testing"

	"admissions_crm_backend/internal/assignment/repository"
	"admissions_crm_backend/internal/assignment/transport"
	"admissions_crm_backend/platform/apperr"
	"admissions_crm_backend/platform/logger"
)

func TestProcessArrayField(t *testing.T) {
	cases := []struct {
		name  string
		field any
		want  []string
	}{
		{name: "nil", field: nil, want: []string{}},
		{name: "string", field: "  MBA ", want: []string{"MBA"}},
		{name: "blank string", field: "   ", want: []string{}},
		{name: "strings", field: []string{"A", "", " B"}, want: []string{"A", "B"}},
		{name: "objects by key", field: []any{map[string]any{"_id": "CNS-1"}, map[string]any{"name": "Fallback"}}, want: []string{"CNS-1", "Fallback"}},
		{name: "numbers", field: []any{1000000.0, nil, "x"}, want: []string{"1000000", "x"}},
		{name: "unsupported", field: 42, want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ProcessArrayField(tc.field, "_id")
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestCreateL3RulesetValidatesCounsellors(t *testing.T) {
	rules := newFakeRules()
	counsellors := newFakeCounsellors(active("CNS-L3000001", "l3"), active("CNS-L2000001", "l2"))
	svc := New(rules, counsellors, nil, logger.New("test"))

	_, err := svc.CreateL3Ruleset(context.Background(), transport.L3RulesetRequest{})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request without counsellors, got %v", err)
	}

	_, err = svc.CreateL3Ruleset(context.Background(), transport.L3RulesetRequest{
		AssignedCounsellorIDs: []any{"CNS-L3000001", "CNS-L2000001"},
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for an l2 counsellor, got %v", err)
	}
	if len(rules.l3) != 0 {
		t.Fatal("expected nothing stored")
	}
}

func TestCreateL3RulesetAcceptsCamelCaseAliases(t *testing.T) {
	rules := newFakeRules()
	svc := New(rules, newFakeCounsellors(active("CNS-L3000001", "l3")), nil, logger.New("test"))

	res, err := svc.CreateL3Ruleset(context.Background(), transport.L3RulesetRequest{
		UniversityNameCamel: "Amity",
		Course:              &transport.CourseConditionsInput{CourseName: []any{map[string]any{"name": "MBA"}}},
		AssignedCounsellor:  []any{map[string]any{"_id": "CNS-L3000001"}, "CNS-L3000001"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != "RuleSet created successfully" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	stored := rules.l3[0]
	if len(stored.AssignedCounsellorIDs) != 1 {
		t.Fatalf("expected duplicate counsellor removed, got %v", stored.AssignedCounsellorIDs)
	}
	if len(stored.UniversityNames) != 1 || stored.UniversityNames[0] != "Amity" {
		t.Fatalf("expected university Amity, got %v", stored.UniversityNames)
	}
	if len(stored.CourseConditions.CourseName) != 1 || stored.CourseConditions.CourseName[0] != "MBA" {
		t.Fatalf("expected course MBA, got %v", stored.CourseConditions.CourseName)
	}
	if !stored.IsActive {
		t.Fatal("expected ruleset active by default")
	}
	if len(res.RuleSet.AssignedCounsellorDetails) != 1 {
		t.Fatal("expected counsellor details in response")
	}
}

func TestUpdateL3RulesetPartial(t *testing.T) {
	rules := newFakeRules()
	existing := ruleset("L3-RULE-0001", 1, []string{"LPU"}, repository.CourseConditions{Degree: []string{"PG"}}, "CNS-L3000001")
	rules.l3 = []repository.L3Ruleset{existing}
	svc := New(rules, newFakeCounsellors(active("CNS-L3000001", "l3")), nil, logger.New("test"))

	priority := 9
	res, err := svc.UpdateL3Ruleset(context.Background(), existing.ID, transport.L3RulesetRequest{Priority: &priority})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RuleSet.Priority != 9 {
		t.Fatalf("expected priority 9, got %d", res.RuleSet.Priority)
	}
	if rules.l3[0].UniversityNames[0] != "LPU" || rules.l3[0].CourseConditions.Degree[0] != "PG" {
		t.Fatal("expected untouched fields to be kept")
	}

	_, err = svc.UpdateL3Ruleset(context.Background(), existing.ID, transport.L3RulesetRequest{AssignedCounsellorIDs: []any{"CNS-NOPE0001"}})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestToggleL3RulesetMessage(t *testing.T) {
	rules := newFakeRules()
	existing := ruleset("L3-RULE-0001", 1, nil, repository.CourseConditions{}, "CNS-L3000001")
	rules.l3 = []repository.L3Ruleset{existing}
	svc := New(rules, newFakeCounsellors(), nil, logger.New("test"))

	res, err := svc.ToggleL3Ruleset(context.Background(), existing.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != "RuleSet deactivated successfully" {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestCreateL2RuleWrapsScalarConditions(t *testing.T) {
	rules := newFakeRules()
	svc := New(rules, newFakeCounsellors(active("CNS-L2000001", "l2")), nil, logger.New("test"))

	_, err := svc.CreateL2Rule(context.Background(), transport.L2RuleRequest{
		RuleName:              " Google leads ",
		Conditions:            map[string]any{"source": "Google", "mode": []any{"Online", "Regular"}},
		AssignedCounsellorIDs: []string{"CNS-L2000001"},
		Priority:              4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := rules.l2[0]
	if stored.Name != "Google leads" {
		t.Fatalf("expected trimmed name, got %q", stored.Name)
	}
	if got := stored.Conditions["source"]; len(got) != 1 || got[0] != "Google" {
		t.Fatalf("expected source [Google], got %v", got)
	}
	if got := stored.Conditions["mode"]; len(got) != 2 {
		t.Fatalf("expected two modes, got %v", got)
	}

	_, err = svc.CreateL2Rule(context.Background(), transport.L2RuleRequest{
		Conditions:            map[string]any{},
		AssignedCounsellorIDs: []string{"CNS-MISSING1"},
	})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for unknown counsellor, got %v", err)
	}
}
