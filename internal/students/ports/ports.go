// Package ports declares what the students module needs from other modules.
package ports

import "context"

// AssignedCounsellor is the L2 counsellor chosen for a lead.
type AssignedCounsellor struct {
	ID             string `json:"counsellor_id"`
	Name           string `json:"counsellor_name"`
	Email          string `json:"counsellor_email"`
	PreferredMode  string `json:"preferred_mode"`
	AssignmentType string `json:"assignment_type"`
}

// LeadAssigner runs L2 assignment for a lead rendered with the scorer's field names.
type LeadAssigner interface {
	AssignLead(ctx context.Context, fields map[string]any) (AssignedCounsellor, error)
}

// CounsellorLoad tracks how many leads each counsellor holds.
type CounsellorLoad interface {
	IncrementLeadCounters(ctx context.Context, counsellorID string) error
}
