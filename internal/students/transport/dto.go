package transport

import (
	"time"

	"github.com/google/uuid"
)

type StudentResponse struct {
	ID                      uuid.UUID  `json:"student_id"`
	Name                    string     `json:"student_name"`
	Email                   string     `json:"student_email"`
	Phone                   string     `json:"student_phone"`
	ParentsNumber           string     `json:"parents_number"`
	WhatsApp                string     `json:"whatsapp"`
	AssignedCounsellorID    *string    `json:"assigned_counsellor_id"`
	AssignedCounsellorL3ID  *string    `json:"assigned_counsellor_l3_id"`
	Mode                    string     `json:"mode"`
	PreferredStream         []string   `json:"preferred_stream"`
	PreferredBudget         string     `json:"preferred_budget"`
	PreferredDegree         []string   `json:"preferred_degree"`
	PreferredLevel          []string   `json:"preferred_level"`
	PreferredSpecialization []string   `json:"preferred_specialization"`
	PreferredCity           []string   `json:"preferred_city"`
	PreferredState          []string   `json:"preferred_state"`
	PreferredUniversity     []string   `json:"preferred_university"`
	Source                  string     `json:"source"`
	FirstSourceURL          string     `json:"first_source_url"`
	UTMCampaign             string     `json:"utm_campaign"`
	UTMSource               string     `json:"utm_source"`
	UTMMedium               string     `json:"utm_medium"`
	CurrentProfession       string     `json:"current_profession"`
	IsTransfered            bool       `json:"is_transfered"`
	IsReactivity            bool       `json:"is_reactivity"`
	FirstFormFilledDate     *time.Time `json:"first_form_filled_date"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

type LeadActivityResponse struct {
	ID          uuid.UUID      `json:"id"`
	StudentID   uuid.UUID      `json:"student_id"`
	Source      string         `json:"source"`
	UTMCampaign string         `json:"utm_campaign"`
	SourceURL   string         `json:"source_url"`
	Payload     map[string]any `json:"payload"`
	CreatedAt   time.Time      `json:"created_at"`
}

type LeadIntakeResponse struct {
	Success            bool                 `json:"success"`
	Student            StudentResponse      `json:"student"`
	LeadActivity       LeadActivityResponse `json:"leadActivity"`
	AssignedCounsellor any                  `json:"assignedCounsellor"`
	StudentStatus      string               `json:"studentStatus"`
	Transcript         any                  `json:"whatsappImport,omitempty"`
}

type ListStudentsRequest struct {
	Page  int `form:"page" validate:"omitempty,min=1"`
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

type CreateRemarkRequest struct {
	Remark string `json:"remark" validate:"required,max=2000"`
}

type RemarkResponse struct {
	ID           uuid.UUID `json:"id"`
	StudentID    uuid.UUID `json:"student_id"`
	CounsellorID string    `json:"counsellor_id"`
	Remark       string    `json:"remark"`
	CreatedAt    time.Time `json:"created_at"`
}
