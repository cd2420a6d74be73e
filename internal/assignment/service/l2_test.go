package service

import (
	"testing"

	"admissions_crm_backend/internal/assignment/repository"

	"github.com/google/uuid"
)

func rule(priority int, conditions repository.Conditions, counsellors ...string) repository.L2Rule {
	return repository.L2Rule{
		ID:                    uuid.New(),
		Conditions:            conditions,
		AssignedCounsellorIDs: counsellors,
		Priority:              priority,
		IsActive:              true,
	}
}

func TestEvaluateRuleAnyNeitherBlocksNorScores(t *testing.T) {
	r := rule(0, repository.Conditions{"source": {"Any"}, "mode": {"Regular"}})
	details, ok := EvaluateRule(r, Lead{"mode": "Regular"})
	if !ok {
		t.Fatal("expected rule to match")
	}
	if details.TotalConditions != 1 || details.TotalMatchScore != 8 {
		t.Fatalf("expected only mode to count (weight 8), got %d conditions score %d", details.TotalConditions, details.TotalMatchScore)
	}
	if details.FinalScore != 8*1000+8 {
		t.Fatalf("expected final score 8008, got %d", details.FinalScore)
	}
}

func TestEvaluateRuleMissingValueFails(t *testing.T) {
	r := rule(0, repository.Conditions{"preferred_city": {"Delhi"}})
	if _, ok := EvaluateRule(r, Lead{"mode": "Regular"}); ok {
		t.Fatal("expected missing lead value to fail the rule")
	}
	if _, ok := EvaluateRule(r, Lead{"preferred_city": "  "}); ok {
		t.Fatal("expected blank lead value to fail the rule")
	}
}

func TestEvaluateRuleBudgetRange(t *testing.T) {
	r := rule(0, repository.Conditions{"budget": {"50000-100000"}})
	if _, ok := EvaluateRule(r, Lead{"preferred_budget": "₹75,000"}); !ok {
		t.Fatal("expected ₹75,000 to fall in 50000-100000")
	}
	if _, ok := EvaluateRule(r, Lead{"preferred_budget": "₹1,50,000"}); ok {
		t.Fatal("expected ₹1,50,000 to be outside 50000-100000")
	}
	if _, ok := EvaluateRule(r, Lead{"preferred_budget": 100000.0}); !ok {
		t.Fatal("expected numeric upper bound to be inclusive")
	}
	if _, ok := EvaluateRule(r, Lead{"preferred_budget": "flexible"}); ok {
		t.Fatal("expected non-numeric budget to fail a range")
	}

	exact := rule(0, repository.Conditions{"preferred_budget": {"Below 1 Lakh"}})
	if _, ok := EvaluateRule(exact, Lead{"preferred_budget": " Below 1 Lakh "}); !ok {
		t.Fatal("expected exact budget label to match")
	}
}

func TestEvaluateRuleSourceURLIsCaseInsensitiveContains(t *testing.T) {
	r := rule(0, repository.Conditions{"firstSourceUrl": {"MBA-Online"}})
	details, ok := EvaluateRule(r, Lead{"first_source_url": "https://example.com/mba-online?utm_campaign=x"})
	if !ok {
		t.Fatal("expected url substring match")
	}
	if details.MatchedFields[0].Priority != 10 {
		t.Fatalf("expected first_source_url weight 10, got %d", details.MatchedFields[0].Priority)
	}
}

func TestEvaluateRuleUsesFirstDegree(t *testing.T) {
	r := rule(0, repository.Conditions{"prefDegree": {"MBA"}})
	if _, ok := EvaluateRule(r, Lead{"preferred_degree": []any{"MBA", "BBA"}}); !ok {
		t.Fatal("expected first degree to match")
	}
	if _, ok := EvaluateRule(r, Lead{"preferred_degree": []string{"BBA", "MBA"}}); ok {
		t.Fatal("expected only the first degree to be considered")
	}
}

func TestEvaluateRuleAliasCity(t *testing.T) {
	r := rule(0, repository.Conditions{"pref_city": {"Delhi", "Noida"}})
	details, ok := EvaluateRule(r, Lead{"preferred_city": []string{"Noida"}})
	if !ok {
		t.Fatal("expected alias pref_city to constrain preferred_city")
	}
	if details.HighestPriorityMatch != 2 {
		t.Fatalf("expected weight 2, got %d", details.HighestPriorityMatch)
	}
}

func TestRankRulesFailingRuleNeverSelectedRegardlessOfPriority(t *testing.T) {
	strict := rule(1000, repository.Conditions{"source": {"Facebook"}}, "CNS-A0000001")
	loose := rule(0, repository.Conditions{"mode": {"Regular"}}, "CNS-A0000002")

	matches := RankRules([]repository.L2Rule{strict, loose}, Lead{"source": "Google", "mode": "Regular"})
	if len(matches) != 1 || matches[0].Rule.ID != loose.ID {
		t.Fatalf("expected only the loose rule to match, got %+v", matches)
	}
}

func TestRankRulesHigherFieldBeatsManyLowerFields(t *testing.T) {
	campaign := rule(0, repository.Conditions{"utmCampaign": {"spring"}})
	many := rule(50, repository.Conditions{
		"preferred_city":  {"Delhi"},
		"preferred_state": {"Delhi"},
		"preferred_level": {"PG"},
	})
	lead := Lead{"utmCampaign": "spring", "preferred_city": "Delhi", "preferred_state": "Delhi", "preferred_level": "PG"}

	matches := RankRules([]repository.L2Rule{many, campaign}, lead)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Rule.ID != campaign.ID {
		t.Fatalf("expected utmCampaign rule first, got score %d vs %d", matches[0].Score, matches[1].Score)
	}
	if matches[0].Score != 11*1000+11 {
		t.Fatalf("expected score 11011, got %d", matches[0].Score)
	}
}

func TestRankRulesStableOnTies(t *testing.T) {
	first := rule(0, repository.Conditions{"mode": {"Regular"}})
	second := rule(0, repository.Conditions{"mode": {"Regular"}})

	matches := RankRules([]repository.L2Rule{first, second}, Lead{"mode": "Regular"})
	if matches[0].Rule.ID != first.ID || matches[1].Rule.ID != second.ID {
		t.Fatal("expected ties to keep input order")
	}
}

func TestSummariesListMatchedFields(t *testing.T) {
	r := rule(3, repository.Conditions{"source": {"Google"}, "mode": {"Regular"}})
	summaries := Summaries(RankRules([]repository.L2Rule{r}, Lead{"source": "Google", "mode": "Regular"}))
	if len(summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(summaries))
	}
	if got := summaries[0].MatchedFields; len(got) != 2 || got[0] != "source" || got[1] != "mode" {
		t.Fatalf("expected [source mode], got %v", got)
	}
	if summaries[0].Score != 9*1000+17+3 {
		t.Fatalf("expected score 9020, got %d", summaries[0].Score)
	}
}
