package transport

import (
	"time"

	counsellorstransport "admissions_crm_backend/internal/counsellors/transport"

	"github.com/google/uuid"
)

// L3AssignmentRequest keeps the capitalised course keys used by the admissions portal.
type L3AssignmentRequest struct {
	StudentID      string `json:"studentId"`
	CollegeName    string `json:"collegeName"`
	Course         string `json:"Course"`
	Degree         string `json:"Degree"`
	Specialization string `json:"Specialization"`
	Level          string `json:"level"`
	Source         string `json:"source"`
	Stream         string `json:"stream"`
}

type MatchedRuleset struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	MatchedAtLevel string    `json:"matched_at_level"`
	Priority       int       `json:"priority"`
}

type RoundRobinInfo struct {
	UsedIndex        int `json:"used_index"`
	TotalCounsellors int `json:"total_counsellors"`
	NextIndex        int `json:"next_index"`
}

type L3AssignmentResponse struct {
	Message                string          `json:"message"`
	StudentID              uuid.UUID       `json:"student_id"`
	AssignedL3CounsellorID string          `json:"assigned_l3_counsellor_id"`
	CounsellorNameL3       string          `json:"counsellor_name_l3"`
	AssignmentMethod       string          `json:"assignment_method"`
	CourseFieldsMatched    *bool           `json:"course_fields_matched,omitempty"`
	MatchedRuleset         *MatchedRuleset `json:"matched_ruleset,omitempty"`
	RoundRobinInfo         *RoundRobinInfo `json:"round_robin_info"`
	Reason                 string          `json:"reason,omitempty"`
}

// CourseConditionsInput accepts strings, lists of strings or lists of objects per key.
type CourseConditionsInput struct {
	Stream         any `json:"stream"`
	Degree         any `json:"degree"`
	Specialization any `json:"specialization"`
	Level          any `json:"level"`
	CourseName     any `json:"courseName"`
}

// L3RulesetRequest is used for create and update. Both snake and camel keys are
// accepted; on update only provided fields change.
type L3RulesetRequest struct {
	College               *string                `json:"college"`
	CustomRuleName        *string                `json:"custom_rule_name"`
	UniversityName        any                    `json:"university_name"`
	UniversityNameCamel   any                    `json:"universityName"`
	CourseConditions      *CourseConditionsInput `json:"course_conditions"`
	Course                *CourseConditionsInput `json:"course"`
	Source                any                    `json:"source"`
	AssignedCounsellorIDs any                    `json:"assigned_counsellor_ids"`
	AssignedCounsellor    any                    `json:"assignedCounsellor"`
	IsActive              *bool                  `json:"is_active"`
	IsActiveCamel         *bool                  `json:"isActive"`
	Priority              *int                   `json:"priority"`
}

type CourseConditionsResponse struct {
	Stream         []string `json:"stream"`
	Degree         []string `json:"degree"`
	Specialization []string `json:"specialization"`
	Level          []string `json:"level"`
	CourseName     []string `json:"courseName"`
}

type L3RulesetResponse struct {
	ID                        uuid.UUID                                `json:"l3_assignment_rulesets_id"`
	Name                      string                                   `json:"name"`
	CustomRuleName            string                                   `json:"custom_rule_name"`
	College                   string                                   `json:"college"`
	UniversityName            []string                                 `json:"university_name"`
	CourseConditions          CourseConditionsResponse                 `json:"course_conditions"`
	Source                    []string                                 `json:"source"`
	AssignedCounsellorIDs     []string                                 `json:"assigned_counsellor_ids"`
	Priority                  int                                      `json:"priority"`
	IsActive                  bool                                     `json:"is_active"`
	RoundRobinIndex           int                                      `json:"round_robin_index"`
	CreatedAt                 time.Time                                `json:"created_at"`
	UpdatedAt                 time.Time                                `json:"updated_at"`
	AssignedCounsellorDetails []counsellorstransport.CounsellorSummary `json:"assignedCounsellorDetails,omitempty"`
}

type L3RulesetMutationResponse struct {
	Message string            `json:"message"`
	RuleSet L3RulesetResponse `json:"ruleSet"`
}

// L2RuleRequest creates an L2 rule. Conditions use field names or their aliases.
type L2RuleRequest struct {
	RuleName              string         `json:"rule_name" validate:"max=200"`
	Conditions            map[string]any `json:"conditions" validate:"required"`
	AssignedCounsellorIDs []string       `json:"assigned_counsellor_ids" validate:"required,min=1,dive,required"`
	Priority              int            `json:"priority"`
	IsActive              *bool          `json:"is_active"`
}

type L2RuleResponse struct {
	ID                    uuid.UUID           `json:"lead_assignment_rule_l2_id"`
	RuleName              string              `json:"rule_name"`
	Conditions            map[string][]string `json:"conditions"`
	AssignedCounsellorIDs []string            `json:"assigned_counsellor_ids"`
	Priority              int                 `json:"priority"`
	IsActive              bool                `json:"is_active"`
	RoundRobinIndex       int                 `json:"round_robin_index"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// L2EvaluateResponse is a dry run of the L2 scorer.
type L2EvaluateResponse struct {
	Matches []L2EvaluatedRule `json:"matches"`
}

type L2EvaluatedRule struct {
	RuleID       uuid.UUID `json:"ruleId"`
	RuleName     string    `json:"ruleName"`
	Score        int       `json:"score"`
	MatchDetails any       `json:"matchDetails"`
}
