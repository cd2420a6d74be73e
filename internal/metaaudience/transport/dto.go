package transport

import "time"

type CreateAudienceRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type AddStudentsRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,max=500,dive,uuid"`
}

type AudienceResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	MetaAudienceID string    `json:"metaAudienceId"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
}
