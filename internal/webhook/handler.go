package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
	keyTimeFormat     = "2006-01-02T15:04:05Z"
)

type Handler struct {
	service     *Service
	keys        KeyStore
	val         *validator.Validator
	verifyToken string
	appSecret   string
}

// NewHandler builds the webhook handler. verifyToken answers Meta's
// subscription handshake; appSecret, when set, is required to sign deliveries.
func NewHandler(service *Service, keys KeyStore, val *validator.Validator, verifyToken, appSecret string) *Handler {
	return &Handler{service: service, keys: keys, val: val, verifyToken: verifyToken, appSecret: appSecret}
}

// ---- Form submission (API key) ----

// HandleFormSubmission processes a lead posted by an external form.
// POST /api/v1/webhook/leads
func (h *Handler) HandleFormSubmission(c *gin.Context) {
	value, ok := c.Get(contextKeyAPIKey)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing API key", nil)
		return
	}
	key := value.(APIKey)

	var form map[string]any
	if err := c.ShouldBindJSON(&form); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}

	out, err := h.service.SubmitForm(c.Request.Context(), key, form)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, out)
}

// ---- Google lead forms ----

type GoogleLeadWebhookResponse struct {
	StudentID *uuid.UUID `json:"studentId,omitempty"`
	IsTest    bool       `json:"isTest"`
	Message   string     `json:"message"`
}

// HandleGoogleLeadWebhook processes Google Lead Form webhook payloads. The
// google_key configured in Google Ads must be an active webhook API key.
// POST /api/v1/webhook/google-leads
func (h *Handler) HandleGoogleLeadWebhook(c *gin.Context) {
	var payload GoogleLeadPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if payload.GoogleKey == "" {
		httpkit.Error(c, http.StatusUnauthorized, "missing google_key", nil)
		return
	}
	if _, err := h.keys.GetByHash(c.Request.Context(), HashKey(payload.GoogleKey)); err != nil {
		if errors.Is(err, ErrAPIKeyNotFound) {
			httpkit.Error(c, http.StatusUnauthorized, "invalid google_key", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}

	result, err := h.service.SubmitGoogleLead(c.Request.Context(), payload)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := GoogleLeadWebhookResponse{IsTest: result.IsTest, Message: "Test lead received"}
	if result.Lead != nil {
		resp.StudentID = &result.Lead.StudentID
		resp.Message = "Lead " + result.Lead.Status
	}
	httpkit.OK(c, resp)
}

// ---- Meta lead ads ----

// HandleMetaVerify answers the subscription handshake.
// GET /api/v1/webhook/meta-leads
func (h *Handler) HandleMetaVerify(c *gin.Context) {
	if h.verifyToken == "" ||
		c.Query("hub.mode") != "subscribe" ||
		c.Query("hub.verify_token") != h.verifyToken {
		httpkit.Error(c, http.StatusForbidden, "verification failed", nil)
		return
	}
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// HandleMetaLeads imports the leads announced by a page webhook delivery.
// POST /api/v1/webhook/meta-leads
func (h *Handler) HandleMetaLeads(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}
	if h.appSecret != "" && !validSignature(body, c.GetHeader("X-Hub-Signature-256"), h.appSecret) {
		httpkit.Error(c, http.StatusUnauthorized, "invalid signature", nil)
		return
	}

	var payload MetaWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if payload.Object != "page" {
		httpkit.OK(c, MetaBatchResult{})
		return
	}

	result, err := h.service.ProcessMetaWebhook(c.Request.Context(), payload)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ---- Admin API key management ----

type CreateAPIKeyRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	Source         string   `json:"source" validate:"omitempty,max=100"`
	AllowedDomains []string `json:"allowedDomains" validate:"max=20,dive,max=200"`
}

type APIKeyResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Source         string    `json:"source"`
	KeyPrefix      string    `json:"keyPrefix"`
	AllowedDomains []string  `json:"allowedDomains"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      string    `json:"createdAt"`
}

// CreateAPIKeyResponse includes the plaintext key (shown only once).
type CreateAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

// HandleCreateAPIKey creates a new webhook API key.
// POST /api/v1/admin/webhook/keys
func (h *Handler) HandleCreateAPIKey(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req CreateAPIKeyRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to generate API key", nil)
		return
	}

	source := req.Source
	if source == "" {
		source = DefaultSource
	}
	createdBy := identity.CounsellorID()
	key, err := h.keys.Create(c.Request.Context(), APIKey{
		Name:           req.Name,
		Source:         source,
		KeyHash:        hash,
		KeyPrefix:      prefix,
		AllowedDomains: req.AllowedDomains,
		CreatedBy:      &createdBy,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, CreateAPIKeyResponse{
		APIKeyResponse: toAPIKeyResponse(key),
		Key:            plaintext,
	})
}

// HandleListAPIKeys lists all webhook API keys.
// GET /api/v1/admin/webhook/keys
func (h *Handler) HandleListAPIKeys(c *gin.Context) {
	keys, err := h.keys.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	result := make([]APIKeyResponse, len(keys))
	for i, k := range keys {
		result[i] = toAPIKeyResponse(k)
	}
	httpkit.OK(c, result)
}

// HandleRevokeAPIKey deactivates a webhook API key.
// DELETE /api/v1/admin/webhook/keys/:keyId
func (h *Handler) HandleRevokeAPIKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key ID", nil)
		return
	}

	if err := h.keys.Revoke(c.Request.Context(), keyID); err != nil {
		if errors.Is(err, ErrAPIKeyNotFound) {
			httpkit.Error(c, http.StatusNotFound, "API key not found", nil)
			return
		}
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"message": "API key revoked"})
}

func toAPIKeyResponse(key APIKey) APIKeyResponse {
	domains := key.AllowedDomains
	if domains == nil {
		domains = []string{}
	}
	return APIKeyResponse{
		ID:             key.ID,
		Name:           key.Name,
		Source:         key.Source,
		KeyPrefix:      key.KeyPrefix,
		AllowedDomains: domains,
		IsActive:       key.IsActive,
		CreatedAt:      key.CreatedAt.UTC().Format(keyTimeFormat),
	}
}

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return false
	}
	return true
}
