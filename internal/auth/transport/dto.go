package transport

import counsellortransport "admissions_crm_backend/internal/counsellors/transport"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string                                 `json:"accessToken"`
	TokenType   string                                 `json:"tokenType"`
	ExpiresIn   int64                                  `json:"expiresIn"`
	Counsellor  counsellortransport.CounsellorResponse `json:"counsellor"`
}
