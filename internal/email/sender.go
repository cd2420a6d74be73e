// Package email renders and delivers the CRM's outgoing mail.
package email

import (
	"context"
	"time"
)

// L3Assignment is the data behind the mail sent when a student is handed to an
// L3 counsellor.
type L3Assignment struct {
	StudentID       string
	StudentName     string
	StudentEmail    string
	StudentPhone    string
	AssignedAt      time.Time
	CollegeName     string
	CourseName      string
	CounsellorName  string
	CounsellorEmail string
}

type Sender interface {
	SendL3AssignmentEmail(ctx context.Context, recipients []string, data L3Assignment) error
}

// NoopSender is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendL3AssignmentEmail(context.Context, []string, L3Assignment) error {
	return nil
}
