package transport

import "time"

type CreateCounsellorRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=120"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	Role          string `json:"role" validate:"required,oneof=l2 l3 supervisor admin analyser to"`
	PreferredMode string `json:"preferredMode" validate:"omitempty,oneof=Regular Online"`
}

type ListCounsellorsRequest struct {
	Role   string `form:"role" validate:"omitempty,oneof=l2 l3 supervisor admin analyser to"`
	Status string `form:"status" validate:"omitempty,oneof=active inactive"`
}

type CounsellorResponse struct {
	ID                  string    `json:"counsellor_id"`
	Name                string    `json:"counsellor_name"`
	Email               string    `json:"counsellor_email"`
	Role                string    `json:"role"`
	Status              string    `json:"status"`
	PreferredMode       string    `json:"counsellor_preferred_mode"`
	CurrentLeadCapacity int       `json:"current_lead_capacity"`
	TotalLeads          int       `json:"total_leads"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CounsellorSummary is the short form embedded in rule and student payloads.
type CounsellorSummary struct {
	ID    string `json:"counsellor_id"`
	Name  string `json:"counsellor_name"`
	Email string `json:"counsellor_email"`
	Role  string `json:"role"`
}
