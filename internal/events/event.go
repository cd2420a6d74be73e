// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"admissions_crm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Student Lead Events
// =============================================================================

// LeadAssigned is published when a new student is created and given an L2 counsellor.
type LeadAssigned struct {
	BaseEvent
	StudentID      uuid.UUID `json:"studentId"`
	StudentName    string    `json:"studentName"`
	StudentPhone   string    `json:"studentPhone"`
	CounsellorID   string    `json:"counsellorId"`
	CounsellorName string    `json:"counsellorName"`
	AssignmentType string    `json:"assignmentType"`
	Source         string    `json:"source"`
}

func (e LeadAssigned) EventName() string { return "students.lead.assigned" }

// StudentReactivated is published when an existing student submits a new lead
// after going quiet.
type StudentReactivated struct {
	BaseEvent
	StudentID    uuid.UUID `json:"studentId"`
	StudentName  string    `json:"studentName"`
	CounsellorID string    `json:"counsellorId"`
	Source       string    `json:"source"`
}

func (e StudentReactivated) EventName() string { return "students.lead.reactivated" }

// =============================================================================
// Assignment Events
// =============================================================================

// L3CounsellorAssigned is published after a student is given an L3 counsellor.
type L3CounsellorAssigned struct {
	BaseEvent
	StudentID        uuid.UUID `json:"studentId"`
	StudentName      string    `json:"studentName"`
	StudentEmail     string    `json:"studentEmail"`
	StudentPhone     string    `json:"studentPhone"`
	CounsellorID     string    `json:"counsellorId"`
	CounsellorName   string    `json:"counsellorName"`
	CounsellorEmail  string    `json:"counsellorEmail"`
	CollegeName      string    `json:"collegeName"`
	CourseName       string    `json:"courseName"`
	AssignmentMethod string    `json:"assignmentMethod"`
	RulesetName      string    `json:"rulesetName,omitempty"`
}

func (e L3CounsellorAssigned) EventName() string { return "assignment.l3.assigned" }

// =============================================================================
// Course Status & Payment Events
// =============================================================================

// CourseStatusLogged is published after a course status history row is written.
type CourseStatusLogged struct {
	BaseEvent
	StudentID    uuid.UUID `json:"studentId"`
	CourseID     uuid.UUID `json:"courseId"`
	CounsellorID string    `json:"counsellorId"`
	Status       string    `json:"status"`
	CollegeName  string    `json:"collegeName"`
}

func (e CourseStatusLogged) EventName() string { return "coursestatus.logged" }

// PaymentRecorded is published when a payment snapshot is stored.
type PaymentRecorded struct {
	BaseEvent
	PaymentID   uuid.UUID  `json:"paymentId"`
	SnapshotID  string     `json:"snapshotId"`
	StudentID   *uuid.UUID `json:"studentId,omitempty"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	CollegeName string     `json:"collegeName"`
	Status      string     `json:"status"`
}

func (e PaymentRecorded) EventName() string { return "payments.recorded" }

// PaymentStatusChanged is published when a payment snapshot changes status.
type PaymentStatusChanged struct {
	BaseEvent
	PaymentID      uuid.UUID  `json:"paymentId"`
	SnapshotID     string     `json:"snapshotId"`
	StudentID      *uuid.UUID `json:"studentId,omitempty"`
	PreviousStatus string     `json:"previousStatus"`
	Status         string     `json:"status"`
}

func (e PaymentStatusChanged) EventName() string { return "payments.status_changed" }

// =============================================================================
// Website Chat Events
// =============================================================================

// WebsiteChatCreated is published when a student opens a new website chat.
type WebsiteChatCreated struct {
	BaseEvent
	ChatID       uuid.UUID `json:"chatId"`
	StudentID    uuid.UUID `json:"studentId"`
	StudentName  string    `json:"studentName"`
	CounsellorID string    `json:"counsellorId,omitempty"`
}

func (e WebsiteChatCreated) EventName() string { return "websitechat.created" }

// WebsiteChatMessage is published for every message added to a website chat.
type WebsiteChatMessage struct {
	BaseEvent
	ChatID       uuid.UUID `json:"chatId"`
	MessageID    uuid.UUID `json:"messageId"`
	CounsellorID string    `json:"counsellorId,omitempty"`
	SenderType   string    `json:"senderType"`
	SenderName   string    `json:"senderName"`
	Content      string    `json:"content"`
}

func (e WebsiteChatMessage) EventName() string { return "websitechat.message" }

// WebsiteChatClosed is published when either side closes a website chat.
type WebsiteChatClosed struct {
	BaseEvent
	ChatID       uuid.UUID `json:"chatId"`
	CounsellorID string    `json:"counsellorId,omitempty"`
	Status       string    `json:"status"`
}

func (e WebsiteChatClosed) EventName() string { return "websitechat.closed" }
