package service

import (
	"context"
	"errors"
	"fmt"

	"admissions_crm_backend/internal/assignment/repository"
	counsellorsrepo "admissions_crm_backend/internal/counsellors/repository"
	counsellorsservice "admissions_crm_backend/internal/counsellors/service"

	"github.com/google/uuid"
)

const (
	AssignmentRuleBased = "rule-based"
	AssignmentDefault   = "default"

	DefaultL2CounsellorID   = "CNS-DEFAULT01"
	DefaultL2CounsellorName = "DummyL2"
	defaultL2Email          = "dummyl2@gmail.com"
	legacyDefaultEmail      = "dummydegreefyd@gmail.com"
	defaultPreferredMode    = "Regular"

	msgRequiredLeadFields = "Name, email, and phoneNumber are required fields"
)

// L2Result is the outcome of an L2 assignment. Callers branch on Success.
type L2Result struct {
	Success            bool                        `json:"success"`
	Message            string                      `json:"message,omitempty"`
	AssignedCounsellor *counsellorsrepo.Counsellor `json:"-"`
	AssignmentType     string                      `json:"assignmentType,omitempty"`
	SelectedRule       *repository.L2Rule          `json:"-"`
	MatchDetails       *MatchDetails               `json:"matchDetails"`
	PreferredMode      string                      `json:"preferredMode,omitempty"`
	AllMatchingRules   []MatchingRuleSummary       `json:"allMatchingRules"`
}

func failed(err error) L2Result {
	return L2Result{Success: false, Message: err.Error()}
}

func hasLeadValue(lead Lead, keys ...string) bool {
	for _, key := range keys {
		if _, ok := FormatLeadValue(key, lead[key]); ok {
			return true
		}
	}
	return false
}

// AssignL2 picks an L2 counsellor for the lead: the best scoring rule with an
// active counsellor wins, otherwise the default counsellor.
func (s *Service) AssignL2(ctx context.Context, lead Lead) L2Result {
	if !hasLeadValue(lead, "name") || !hasLeadValue(lead, "email") || !hasLeadValue(lead, "phone", "phoneNumber", "phone_number") {
		return failed(errors.New(msgRequiredLeadFields))
	}

	rules, err := s.rules.ListActiveL2Rules(ctx)
	if err != nil {
		return failed(fmt.Errorf("load assignment rules: %w", err))
	}
	matches := RankRules(rules, lead)

	result := L2Result{Success: true, AllMatchingRules: Summaries(matches)}
	for i := range matches {
		m := matches[i]
		counsellor, err := s.nextActiveCounsellor(ctx, m.Rule)
		if err != nil {
			return failed(err)
		}
		if counsellor == nil {
			continue
		}
		result.AssignedCounsellor = counsellor
		result.SelectedRule = &m.Rule
		result.MatchDetails = &m.Details
		result.AssignmentType = AssignmentRuleBased
		break
	}

	if result.AssignedCounsellor == nil {
		fallback, err := s.defaultL2Counsellor(ctx)
		if err != nil {
			return failed(err)
		}
		result.AssignedCounsellor = &fallback
		result.AssignmentType = AssignmentDefault
	}

	result.PreferredMode = result.AssignedCounsellor.PreferredMode
	if result.PreferredMode == "" {
		result.PreferredMode = defaultPreferredMode
	}

	ruleName, score := "None", -1
	if result.MatchDetails != nil {
		ruleName, score = result.MatchDetails.RuleName, result.MatchDetails.FinalScore
	}
	s.log.WithContext(ctx).Assignment("l2", result.AssignmentType, result.AssignedCounsellor.ID, ruleName, score)
	return result
}

// nextActiveCounsellor returns nil when none of the rule's counsellors is active.
func (s *Service) nextActiveCounsellor(ctx context.Context, rule repository.L2Rule) (*counsellorsrepo.Counsellor, error) {
	if len(rule.AssignedCounsellorIDs) == 0 {
		return nil, nil
	}
	active, err := s.counsellors.ListActiveByIDs(ctx, rule.AssignedCounsellorIDs)
	if err != nil {
		return nil, fmt.Errorf("load counsellors of rule %s: %w", rule.ID, err)
	}
	if len(active) == 0 {
		return nil, nil
	}
	idx, err := s.rules.AdvanceL2Cursor(ctx, rule.ID, len(active))
	if err != nil {
		return nil, fmt.Errorf("advance cursor of rule %s: %w", rule.ID, err)
	}
	selected := active[idx]
	return &selected, nil
}

// defaultL2Counsellor tries CNS-DEFAULT01, then the legacy dummy mailbox, and
// finally creates CNS-DEFAULT01.
func (s *Service) defaultL2Counsellor(ctx context.Context) (counsellorsrepo.Counsellor, error) {
	c, err := s.counsellors.FindActiveByID(ctx, DefaultL2CounsellorID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, counsellorsrepo.ErrNotFound) {
		return counsellorsrepo.Counsellor{}, err
	}

	c, err = s.counsellors.FindActiveByEmail(ctx, legacyDefaultEmail)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, counsellorsrepo.ErrNotFound) {
		return counsellorsrepo.Counsellor{}, err
	}

	// The default counsellor never logs in; its password is random.
	hash, err := counsellorsservice.HashPassword(uuid.NewString())
	if err != nil {
		return counsellorsrepo.Counsellor{}, err
	}
	return s.counsellors.EnsureDefault(ctx, counsellorsrepo.Counsellor{
		ID:            DefaultL2CounsellorID,
		Name:          DefaultL2CounsellorName,
		Email:         defaultL2Email,
		PasswordHash:  hash,
		Role:          "l2",
		Status:        counsellorsrepo.StatusActive,
		PreferredMode: defaultPreferredMode,
	})
}

// EvaluateL2 ranks the active rules for a lead without moving any cursor.
func (s *Service) EvaluateL2(ctx context.Context, lead Lead) ([]RuleMatch, error) {
	rules, err := s.rules.ListActiveL2Rules(ctx)
	if err != nil {
		return nil, err
	}
	return RankRules(rules, lead), nil
}
