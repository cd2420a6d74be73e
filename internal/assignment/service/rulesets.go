package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"admissions_crm_backend/internal/assignment/repository"
	"admissions_crm_backend/internal/assignment/transport"
	counsellorsservice "admissions_crm_backend/internal/counsellors/service"
	"admissions_crm_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	msgRulesetNotFound      = "RuleSet not found"
	msgCounsellorRequired   = "At least one assigned counsellor is required"
	msgInvalidL3Counsellors = "One or more assigned counsellors are invalid or not L3 counsellors"
)

// ProcessArrayField flattens a string, a list of strings or a list of objects
// into trimmed, non-empty strings. Objects contribute obj[key], obj["name"] or obj["_id"].
func ProcessArrayField(field any, key string) []string {
	out := make([]string, 0)
	switch v := field.(type) {
	case nil:
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
		return out
	case []string:
		for _, item := range v {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		for _, item := range v {
			var s string
			switch it := item.(type) {
			case nil:
				continue
			case string:
				s = it
			case map[string]any:
				s = firstPresent(it, key, "name", "_id")
			case float64:
				s = strconv.FormatFloat(it, 'f', -1, 64)
			default:
				s = fmt.Sprint(it)
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return out
	}
}

func firstPresent(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			if s := fmt.Sprint(v); strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func courseConditions(in *transport.CourseConditionsInput) repository.CourseConditions {
	if in == nil {
		return repository.CourseConditions{
			CourseName: []string{}, Degree: []string{}, Specialization: []string{}, Stream: []string{}, Level: []string{},
		}
	}
	return repository.CourseConditions{
		Stream:         ProcessArrayField(in.Stream, "name"),
		Degree:         ProcessArrayField(in.Degree, "name"),
		Specialization: ProcessArrayField(in.Specialization, "name"),
		Level:          ProcessArrayField(in.Level, "name"),
		CourseName:     ProcessArrayField(in.CourseName, "name"),
	}
}

func (s *Service) validateL3Counsellors(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return apperr.BadRequest(msgCounsellorRequired)
	}
	n, err := s.counsellors.CountByRole(ctx, ids, "l3")
	if err != nil {
		return err
	}
	if n != len(ids) {
		return apperr.BadRequest(msgInvalidL3Counsellors)
	}
	return nil
}

func (s *Service) toL3Response(ctx context.Context, rs repository.L3Ruleset, withCounsellors bool) (transport.L3RulesetResponse, error) {
	resp := transport.L3RulesetResponse{
		ID:             rs.ID,
		Name:           rs.Name,
		CustomRuleName: rs.CustomRuleName,
		College:        rs.College,
		UniversityName: rs.UniversityNames,
		CourseConditions: transport.CourseConditionsResponse{
			Stream:         rs.CourseConditions.Stream,
			Degree:         rs.CourseConditions.Degree,
			Specialization: rs.CourseConditions.Specialization,
			Level:          rs.CourseConditions.Level,
			CourseName:     rs.CourseConditions.CourseName,
		},
		Source:                rs.Sources,
		AssignedCounsellorIDs: rs.AssignedCounsellorIDs,
		Priority:              rs.Priority,
		IsActive:              rs.IsActive,
		RoundRobinIndex:       rs.RoundRobinIndex,
		CreatedAt:             rs.CreatedAt,
		UpdatedAt:             rs.UpdatedAt,
	}
	if withCounsellors {
		details, err := s.counsellors.ListByIDs(ctx, rs.AssignedCounsellorIDs)
		if err != nil {
			return transport.L3RulesetResponse{}, err
		}
		resp.AssignedCounsellorDetails = counsellorsservice.ToSummary(details)
	}
	return resp, nil
}

// ListL3Rulesets returns every ruleset, highest priority and newest first, with counsellor details.
func (s *Service) ListL3Rulesets(ctx context.Context) ([]transport.L3RulesetResponse, error) {
	items, err := s.rules.ListL3Rulesets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.L3RulesetResponse, 0, len(items))
	for _, rs := range items {
		resp, err := s.toL3Response(ctx, rs, true)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) GetL3Ruleset(ctx context.Context, id uuid.UUID) (transport.L3RulesetResponse, error) {
	rs, err := s.rules.GetL3Ruleset(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.L3RulesetResponse{}, apperr.NotFound(msgRulesetNotFound)
	}
	if err != nil {
		return transport.L3RulesetResponse{}, err
	}
	return s.toL3Response(ctx, rs, false)
}

func (s *Service) CreateL3Ruleset(ctx context.Context, req transport.L3RulesetRequest) (transport.L3RulesetMutationResponse, error) {
	universities := req.UniversityName
	if universities == nil {
		universities = req.UniversityNameCamel
	}
	course := req.CourseConditions
	if course == nil {
		course = req.Course
	}
	assigned := req.AssignedCounsellorIDs
	if assigned == nil {
		assigned = req.AssignedCounsellor
	}

	ids := dedupe(ProcessArrayField(assigned, "_id"))
	if err := s.validateL3Counsellors(ctx, ids); err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}

	rs := repository.L3Ruleset{
		ID:                    uuid.New(),
		UniversityNames:       ProcessArrayField(universities, "name"),
		CourseConditions:      courseConditions(course),
		Sources:               ProcessArrayField(req.Source, "name"),
		AssignedCounsellorIDs: ids,
		IsActive:              true,
	}
	if req.College != nil {
		rs.College = strings.TrimSpace(*req.College)
	}
	if req.CustomRuleName != nil {
		rs.CustomRuleName = *req.CustomRuleName
	}
	if req.Priority != nil {
		rs.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rs.IsActive = *req.IsActive
	} else if req.IsActiveCamel != nil {
		rs.IsActive = *req.IsActiveCamel
	}

	created, err := s.rules.CreateL3Ruleset(ctx, rs)
	if err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}
	resp, err := s.toL3Response(ctx, created, true)
	if err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}
	return transport.L3RulesetMutationResponse{Message: "RuleSet created successfully", RuleSet: resp}, nil
}

func (s *Service) UpdateL3Ruleset(ctx context.Context, id uuid.UUID, req transport.L3RulesetRequest) (transport.L3RulesetMutationResponse, error) {
	rs, err := s.rules.GetL3Ruleset(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.L3RulesetMutationResponse{}, apperr.NotFound(msgRulesetNotFound)
	}
	if err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}

	if assigned := firstNonNil(req.AssignedCounsellorIDs, req.AssignedCounsellor); assigned != nil {
		ids := dedupe(ProcessArrayField(assigned, "_id"))
		if err := s.validateL3Counsellors(ctx, ids); err != nil {
			if apperr.Is(err, apperr.KindBadRequest) {
				return transport.L3RulesetMutationResponse{}, apperr.BadRequest(msgInvalidL3Counsellors)
			}
			return transport.L3RulesetMutationResponse{}, err
		}
		rs.AssignedCounsellorIDs = ids
	}
	if universities := firstNonNil(req.UniversityName, req.UniversityNameCamel); universities != nil {
		rs.UniversityNames = ProcessArrayField(universities, "name")
	}
	if req.CourseConditions != nil {
		rs.CourseConditions = courseConditions(req.CourseConditions)
	} else if req.Course != nil {
		rs.CourseConditions = courseConditions(req.Course)
	}
	if req.Source != nil {
		rs.Sources = ProcessArrayField(req.Source, "name")
	}
	if req.College != nil {
		rs.College = strings.TrimSpace(*req.College)
	}
	if req.CustomRuleName != nil {
		rs.CustomRuleName = *req.CustomRuleName
	}
	if req.Priority != nil {
		rs.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rs.IsActive = *req.IsActive
	} else if req.IsActiveCamel != nil {
		rs.IsActive = *req.IsActiveCamel
	}

	updated, err := s.rules.UpdateL3Ruleset(ctx, rs)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.L3RulesetMutationResponse{}, apperr.NotFound(msgRulesetNotFound)
	}
	if err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}
	resp, err := s.toL3Response(ctx, updated, false)
	if err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}
	return transport.L3RulesetMutationResponse{Message: "RuleSet updated successfully", RuleSet: resp}, nil
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func (s *Service) DeleteL3Ruleset(ctx context.Context, id uuid.UUID) (transport.L3RulesetMutationResponse, error) {
	deleted, err := s.rules.DeleteL3Ruleset(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.L3RulesetMutationResponse{}, apperr.NotFound(msgRulesetNotFound)
	}
	if err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}
	resp, err := s.toL3Response(ctx, deleted, false)
	if err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}
	return transport.L3RulesetMutationResponse{Message: "RuleSet deleted successfully", RuleSet: resp}, nil
}

func (s *Service) ToggleL3Ruleset(ctx context.Context, id uuid.UUID) (transport.L3RulesetMutationResponse, error) {
	toggled, err := s.rules.ToggleL3Ruleset(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.L3RulesetMutationResponse{}, apperr.NotFound(msgRulesetNotFound)
	}
	if err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}
	resp, err := s.toL3Response(ctx, toggled, false)
	if err != nil {
		return transport.L3RulesetMutationResponse{}, err
	}
	state := "deactivated"
	if toggled.IsActive {
		state = "activated"
	}
	return transport.L3RulesetMutationResponse{Message: "RuleSet " + state + " successfully", RuleSet: resp}, nil
}

// ImportL3Ruleset stores a ruleset as-is after validating its counsellors. Used by the rules importer.
func (s *Service) ImportL3Ruleset(ctx context.Context, rs repository.L3Ruleset) (repository.L3Ruleset, error) {
	rs.AssignedCounsellorIDs = dedupe(rs.AssignedCounsellorIDs)
	if err := s.validateL3Counsellors(ctx, rs.AssignedCounsellorIDs); err != nil {
		return repository.L3Ruleset{}, err
	}
	if rs.ID == uuid.Nil {
		rs.ID = uuid.New()
	}
	return s.rules.CreateL3Ruleset(ctx, rs)
}

// =============================================================================
// L2 rules
// =============================================================================

func toL2Response(r repository.L2Rule) transport.L2RuleResponse {
	return transport.L2RuleResponse{
		ID:                    r.ID,
		RuleName:              r.Name,
		Conditions:            r.Conditions,
		AssignedCounsellorIDs: r.AssignedCounsellorIDs,
		Priority:              r.Priority,
		IsActive:              r.IsActive,
		RoundRobinIndex:       r.RoundRobinIndex,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func (s *Service) ListL2Rules(ctx context.Context) ([]transport.L2RuleResponse, error) {
	items, err := s.rules.ListL2Rules(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.L2RuleResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toL2Response(r))
	}
	return out, nil
}

// CreateL2Rule stores a rule. Condition values may be scalars or lists.
func (s *Service) CreateL2Rule(ctx context.Context, req transport.L2RuleRequest) (transport.L2RuleResponse, error) {
	rule := repository.L2Rule{
		ID:                    uuid.New(),
		Name:                  strings.TrimSpace(req.RuleName),
		Conditions:            make(repository.Conditions, len(req.Conditions)),
		AssignedCounsellorIDs: dedupe(ProcessArrayField(toAnyList(req.AssignedCounsellorIDs), "_id")),
		Priority:              req.Priority,
		IsActive:              true,
	}
	for key, value := range req.Conditions {
		rule.Conditions[key] = ProcessArrayField(wrapScalar(value), "name")
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	created, err := s.ImportL2Rule(ctx, rule)
	if err != nil {
		return transport.L2RuleResponse{}, err
	}
	return toL2Response(created), nil
}

// ImportL2Rule checks that every assigned counsellor exists and stores the rule.
func (s *Service) ImportL2Rule(ctx context.Context, rule repository.L2Rule) (repository.L2Rule, error) {
	if len(rule.AssignedCounsellorIDs) == 0 {
		return repository.L2Rule{}, apperr.BadRequest(msgCounsellorRequired)
	}
	found, err := s.counsellors.ListByIDs(ctx, rule.AssignedCounsellorIDs)
	if err != nil {
		return repository.L2Rule{}, err
	}
	if len(found) != len(rule.AssignedCounsellorIDs) {
		return repository.L2Rule{}, apperr.BadRequest("One or more assigned counsellors do not exist")
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	return s.rules.CreateL2Rule(ctx, rule)
}

func (s *Service) ToggleL2Rule(ctx context.Context, id uuid.UUID) (transport.L2RuleResponse, error) {
	r, err := s.rules.ToggleL2Rule(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.L2RuleResponse{}, apperr.NotFound("Rule not found")
	}
	if err != nil {
		return transport.L2RuleResponse{}, err
	}
	return toL2Response(r), nil
}

func (s *Service) DeleteL2Rule(ctx context.Context, id uuid.UUID) error {
	err := s.rules.DeleteL2Rule(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Rule not found")
	}
	return err
}

func toAnyList(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}

func wrapScalar(v any) any {
	switch v.(type) {
	case []any, nil:
		return v
	default:
		return []any{v}
	}
}
