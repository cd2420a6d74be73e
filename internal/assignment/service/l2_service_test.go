package service

import (
	"context"
	"errors"
	"testing"

	"admissions_crm_backend/internal/assignment/repository"
	counsellorsrepo "admissions_crm_backend/internal/counsellors/repository"
	"admissions_crm_backend/platform/logger"
)

func validLead(extra Lead) Lead {
	lead := Lead{"name": "Riya", "email": "riya@example.com", "phone": "9876543210"}
	for k, v := range extra {
		lead[k] = v
	}
	return lead
}

func newL2Service(rules *fakeRules, counsellors *fakeCounsellors) *Service {
	return New(rules, counsellors, &recordingBus{}, logger.New("test"))
}

func TestAssignL2RequiresContactFields(t *testing.T) {
	svc := newL2Service(newFakeRules(), newFakeCounsellors())
	res := svc.AssignL2(context.Background(), Lead{"name": "Riya", "email": "riya@example.com"})
	if res.Success {
		t.Fatal("expected failure without phone")
	}
	if res.Message != msgRequiredLeadFields {
		t.Fatalf("expected %q, got %q", msgRequiredLeadFields, res.Message)
	}

	res = svc.AssignL2(context.Background(), Lead{"name": "Riya", "email": "riya@example.com", "phone_number": "98765"})
	if !res.Success {
		t.Fatalf("expected phone_number to satisfy the phone requirement, got %q", res.Message)
	}
}

func TestAssignL2RoundRobinVisitsEachCounsellorOnce(t *testing.T) {
	rules := newFakeRules()
	rules.l2 = []repository.L2Rule{rule(1, repository.Conditions{"source": {"Google"}}, "CNS-C0000003", "CNS-C0000001", "CNS-C0000002")}
	counsellors := newFakeCounsellors(active("CNS-C0000001", "l2"), active("CNS-C0000002", "l2"), active("CNS-C0000003", "l2"))
	svc := newL2Service(rules, counsellors)

	seen := map[string]int{}
	for i := 0; i < 3; i++ {
		res := svc.AssignL2(context.Background(), validLead(Lead{"source": "Google"}))
		if !res.Success || res.AssignmentType != AssignmentRuleBased {
			t.Fatalf("expected rule-based success, got %+v", res)
		}
		seen[res.AssignedCounsellor.ID]++
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct counsellors, got %v", seen)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("expected %s once, got %d", id, n)
		}
	}
}

func TestAssignL2SkipsRuleWithoutActiveCounsellors(t *testing.T) {
	rules := newFakeRules()
	best := rule(0, repository.Conditions{"utmCampaign": {"spring"}}, "CNS-D0000001")
	next := rule(0, repository.Conditions{"source": {"Google"}}, "CNS-D0000002")
	rules.l2 = []repository.L2Rule{best, next}

	inactive := active("CNS-D0000001", "l2")
	inactive.Status = counsellorsrepo.StatusInactive
	svc := newL2Service(rules, newFakeCounsellors(inactive, active("CNS-D0000002", "l2")))

	res := svc.AssignL2(context.Background(), validLead(Lead{"utmCampaign": "spring", "source": "Google"}))
	if res.AssignedCounsellor.ID != "CNS-D0000002" {
		t.Fatalf("expected fallthrough to second rule, got %s", res.AssignedCounsellor.ID)
	}
	if res.SelectedRule.ID != next.ID {
		t.Fatal("expected selected rule to be the second rule")
	}
	if len(res.AllMatchingRules) != 2 {
		t.Fatalf("expected both rules reported as matching, got %d", len(res.AllMatchingRules))
	}
	if res.PreferredMode != "Online" {
		t.Fatalf("expected counsellor preferred mode, got %q", res.PreferredMode)
	}
}

func TestAssignL2FallsBackToDefaultCounsellor(t *testing.T) {
	def := active(DefaultL2CounsellorID, "l2")
	def.PreferredMode = ""
	svc := newL2Service(newFakeRules(), newFakeCounsellors(def))

	res := svc.AssignL2(context.Background(), validLead(nil))
	if !res.Success || res.AssignmentType != AssignmentDefault {
		t.Fatalf("expected default assignment, got %+v", res)
	}
	if res.AssignedCounsellor.ID != DefaultL2CounsellorID {
		t.Fatalf("expected %s, got %s", DefaultL2CounsellorID, res.AssignedCounsellor.ID)
	}
	if res.PreferredMode != "Regular" {
		t.Fatalf("expected Regular default mode, got %q", res.PreferredMode)
	}
	if res.MatchDetails != nil {
		t.Fatal("expected no match details on fallback")
	}
}

func TestAssignL2FallbackUsesLegacyMailbox(t *testing.T) {
	legacy := active("CNS-LEGACY01", "l2")
	legacy.Email = "dummydegreefyd@gmail.com"
	counsellors := newFakeCounsellors(legacy)
	svc := newL2Service(newFakeRules(), counsellors)

	res := svc.AssignL2(context.Background(), validLead(nil))
	if res.AssignedCounsellor.ID != "CNS-LEGACY01" {
		t.Fatalf("expected legacy dummy counsellor, got %s", res.AssignedCounsellor.ID)
	}
	if counsellors.ensureCalls != 0 {
		t.Fatal("expected no default counsellor to be created")
	}
}

func TestAssignL2FallbackCreatesDefaultCounsellor(t *testing.T) {
	counsellors := newFakeCounsellors()
	svc := newL2Service(newFakeRules(), counsellors)

	res := svc.AssignL2(context.Background(), validLead(nil))
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	created := counsellors.byID[DefaultL2CounsellorID]
	if created.Name != DefaultL2CounsellorName || created.Role != "l2" || !created.IsActive() {
		t.Fatalf("expected DummyL2 active l2 counsellor, got %+v", created)
	}
	if created.PasswordHash == "" {
		t.Fatal("expected a password hash on the default counsellor")
	}
}

func TestAssignL2FallbackRenamesInactiveDefault(t *testing.T) {
	stale := active(DefaultL2CounsellorID, "l2")
	stale.Name = "Old Name"
	stale.Status = counsellorsrepo.StatusInactive
	counsellors := newFakeCounsellors(stale)
	svc := newL2Service(newFakeRules(), counsellors)

	res := svc.AssignL2(context.Background(), validLead(nil))
	if res.AssignedCounsellor.Name != DefaultL2CounsellorName {
		t.Fatalf("expected name reset to DummyL2, got %q", res.AssignedCounsellor.Name)
	}
	if res.AssignedCounsellor.PreferredMode != "Regular" {
		t.Fatalf("expected mode reset to Regular, got %q", res.AssignedCounsellor.PreferredMode)
	}
}

func TestAssignL2StoreErrorReturnsFailure(t *testing.T) {
	rules := newFakeRules()
	rules.l2Err = errors.New("connection refused")
	svc := newL2Service(rules, newFakeCounsellors())

	res := svc.AssignL2(context.Background(), validLead(nil))
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Message == "" {
		t.Fatal("expected an error message")
	}
}
