// Package ports declares what course status logging needs from other modules.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// L3Request carries the course a student progressed on.
type L3Request struct {
	StudentID      uuid.UUID `json:"studentId"`
	CollegeName    string    `json:"collegeName"`
	Course         string    `json:"course"`
	Degree         string    `json:"degree"`
	Specialization string    `json:"specialization"`
	Level          string    `json:"level"`
	Stream         string    `json:"stream"`
	Source         string    `json:"source"`
}

// L3Requester asks for an L3 counsellor, either inline or through the job queue.
type L3Requester interface {
	RequestL3(ctx context.Context, req L3Request) error
}

// StudentProgress reads and updates the student side of course progress.
type StudentProgress interface {
	LeadSource(ctx context.Context, studentID uuid.UUID) (string, error)
	MarkFirstFormFilled(ctx context.Context, studentID uuid.UUID, at time.Time) error
}
