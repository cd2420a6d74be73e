// Package ports declares what the website chat needs from lead intake.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// ChatLead is the student and counsellor a chat lead resolved to.
type ChatLead struct {
	StudentID    uuid.UUID
	StudentName  string
	StudentPhone string
	CounsellorID string
}

// LeadProcessor runs the normal lead intake for a chat visitor.
type LeadProcessor interface {
	ProcessChatLead(ctx context.Context, raw map[string]any) (ChatLead, error)
}
