package transport

import (
	"time"

	"github.com/google/uuid"
)

// InitiateRequest carries the widget form. Lead holds the free-form lead
// fields; Platform the browser details shown to the counsellor.
type InitiateRequest struct {
	Lead     map[string]any `json:"lead" validate:"required"`
	Platform map[string]any `json:"platform"`
}

type MessageRequest struct {
	Content     string `json:"content" validate:"required,max=2000"`
	DisplayName string `json:"displayName" validate:"max=200"`
}

type CloseRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type HistoryRequest struct {
	Aggregate bool `form:"aggregate"`
}

type ChatResponse struct {
	ID                    uuid.UUID      `json:"id"`
	StudentID             uuid.UUID      `json:"studentId"`
	StudentName           string         `json:"studentName"`
	StudentPhone          string         `json:"studentPhone"`
	CounsellorID          *string        `json:"counsellorId"`
	DisplayName           string         `json:"displayName"`
	PlatformDetails       map[string]any `json:"platformDetails"`
	Status                string         `json:"status"`
	ClosedBy              string         `json:"closedBy,omitempty"`
	ClosedReason          string         `json:"closedReason,omitempty"`
	LastMessage           string         `json:"lastMessage"`
	LastMessageAt         time.Time      `json:"lastMessageAt"`
	UnreadCountStudent    int            `json:"unreadCountStudent"`
	UnreadCountCounsellor int            `json:"unreadCountCounsellor"`
	CreatedAt             time.Time      `json:"createdAt"`
}

type InitiateResponse struct {
	Chat     ChatResponse `json:"chat"`
	Created  bool         `json:"created"`
	IsOnline bool         `json:"isOnline"`
}

type MessageResponse struct {
	ID           uuid.UUID  `json:"id"`
	ChatID       uuid.UUID  `json:"chatId"`
	SenderType   string     `json:"senderType"`
	SenderUserID string     `json:"senderUserId,omitempty"`
	DisplayName  string     `json:"displayName"`
	Content      string     `json:"content"`
	IsRead       bool       `json:"isRead"`
	ReadAt       *time.Time `json:"readAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}
