package adapters

import (
	"context"

	studentsvc "admissions_crm_backend/internal/students/service"
	websitechatports "admissions_crm_backend/internal/websitechat/ports"
)

// LeadIntake is the students service entry point for new leads.
type LeadIntake interface {
	ProcessLead(ctx context.Context, raw map[string]any) (studentsvc.LeadResult, error)
}

// ChatLeads sends website chat visitors through normal lead intake so the
// chat lands with the student's counsellor.
type ChatLeads struct {
	intake LeadIntake
}

func NewChatLeads(intake LeadIntake) *ChatLeads {
	return &ChatLeads{intake: intake}
}

func (a *ChatLeads) ProcessChatLead(ctx context.Context, raw map[string]any) (websitechatports.ChatLead, error) {
	res, err := a.intake.ProcessLead(ctx, raw)
	if err != nil {
		return websitechatports.ChatLead{}, err
	}
	counsellorID := res.AssignedCounsellor.ID
	if counsellorID == "" && res.Student.AssignedCounsellorID != nil {
		counsellorID = *res.Student.AssignedCounsellorID
	}
	return websitechatports.ChatLead{
		StudentID:    res.Student.ID,
		StudentName:  res.Student.Name,
		StudentPhone: res.Student.Phone,
		CounsellorID: counsellorID,
	}, nil
}

var _ websitechatports.LeadProcessor = (*ChatLeads)(nil)
