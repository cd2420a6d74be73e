package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskL3Assignment = "assignment.l3"

const TaskMetaAudienceAddUser = "meta.audience.add_user"

type L3AssignmentPayload struct {
	StudentID      string `json:"studentId"`
	CollegeName    string `json:"collegeName"`
	Course         string `json:"course"`
	Degree         string `json:"degree"`
	Specialization string `json:"specialization"`
	Level          string `json:"level"`
	Stream         string `json:"stream"`
	Source         string `json:"source"`
}

type MetaAudienceUserPayload struct {
	AudienceID string `json:"audienceId"`
	StudentID  string `json:"studentId"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

func NewL3AssignmentTask(payload L3AssignmentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskL3Assignment, data), nil
}

func ParseL3AssignmentPayload(task *asynq.Task) (L3AssignmentPayload, error) {
	var payload L3AssignmentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return L3AssignmentPayload{}, err
	}
	return payload, nil
}

func NewMetaAudienceUserTask(payload MetaAudienceUserPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMetaAudienceAddUser, data), nil
}

func ParseMetaAudienceUserPayload(task *asynq.Task) (MetaAudienceUserPayload, error) {
	var payload MetaAudienceUserPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MetaAudienceUserPayload{}, err
	}
	return payload, nil
}
