package handler

import (
	"net/http"

	"admissions_crm_backend/internal/websitechat/repository"
	"admissions_crm_backend/internal/websitechat/service"
	"admissions_crm_backend/internal/websitechat/transport"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidChatID    = "invalid chat id"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts the widget endpoints. The chat id is the only credential.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Initiate)
	rg.GET("/:id/messages", h.StudentHistory)
	rg.POST("/:id/messages", h.StudentMessage)
	rg.POST("/:id/read", h.StudentRead)
	rg.POST("/:id/close", h.StudentClose)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListChats)
	rg.GET("/unread-count", h.UnreadCount)
	rg.GET("/:id/messages", h.OperatorHistory)
	rg.POST("/:id/messages", h.OperatorMessage)
	rg.POST("/:id/read", h.OperatorRead)
	rg.POST("/:id/close", h.OperatorClose)
}

func (h *Handler) Initiate(c *gin.Context) {
	var req transport.InitiateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Initiate(c.Request.Context(), req.Lead, req.Platform)
	if httpkit.HandleError(c, err) {
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, transport.InitiateResponse{Chat: toChatResponse(res.Chat), Created: res.Created, IsOnline: res.IsOnline})
}

func (h *Handler) StudentHistory(c *gin.Context) {
	h.history(c, false)
}

func (h *Handler) StudentMessage(c *gin.Context) {
	h.message(c, service.Sender{Type: repository.SenderStudent})
}

func (h *Handler) StudentRead(c *gin.Context) {
	h.markRead(c, repository.SenderStudent)
}

func (h *Handler) StudentClose(c *gin.Context) {
	h.close(c, "", repository.SenderStudent)
}

func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.svc.ChatsFor(c.Request.Context(), httpkit.MustGetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.ChatResponse, 0, len(chats))
	for _, chat := range chats {
		out = append(out, toChatResponse(chat))
	}
	httpkit.OK(c, out)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), httpkit.MustGetIdentity(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.UnreadCountResponse{Count: n})
}

func (h *Handler) OperatorHistory(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	var req transport.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	h.history(c, req.Aggregate)
}

func (h *Handler) OperatorMessage(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	h.message(c, service.Sender{Type: repository.SenderCounsellor, UserID: identity.CounsellorID()})
}

func (h *Handler) OperatorRead(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.markRead(c, repository.SenderCounsellor)
}

func (h *Handler) OperatorClose(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	h.close(c, identity.Role(), identity.CounsellorID())
}

func (h *Handler) authorize(c *gin.Context) bool {
	id, ok := parseChatID(c)
	if !ok {
		return false
	}
	err := h.svc.CanAccess(c.Request.Context(), id, httpkit.MustGetIdentity(c))
	return !httpkit.HandleError(c, err)
}

func (h *Handler) history(c *gin.Context, aggregate bool) {
	id, ok := parseChatID(c)
	if !ok {
		return
	}
	msgs, err := h.svc.History(c.Request.Context(), id, aggregate)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	httpkit.OK(c, out)
}

func (h *Handler) message(c *gin.Context, sender service.Sender) {
	id, ok := parseChatID(c)
	if !ok {
		return
	}
	var req transport.MessageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sender.Name = req.DisplayName
	msg, err := h.svc.AddMessage(c.Request.Context(), id, sender, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toMessageResponse(msg))
}

func (h *Handler) markRead(c *gin.Context, reader string) {
	id, ok := parseChatID(c)
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), id, reader)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.MarkReadResponse{Updated: n})
}

func (h *Handler) close(c *gin.Context, role, closedBy string) {
	id, ok := parseChatID(c)
	if !ok {
		return
	}
	var req transport.CloseRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	chat, err := h.svc.Close(c.Request.Context(), id, role, closedBy, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toChatResponse(chat))
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func parseChatID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidChatID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func toChatResponse(c repository.Chat) transport.ChatResponse {
	details := c.PlatformDetails
	if details == nil {
		details = map[string]any{}
	}
	return transport.ChatResponse{
		ID:                    c.ID,
		StudentID:             c.StudentID,
		StudentName:           c.StudentName,
		StudentPhone:          c.StudentPhone,
		CounsellorID:          c.CounsellorID,
		DisplayName:           c.DisplayName,
		PlatformDetails:       details,
		Status:                c.Status,
		ClosedBy:              c.ClosedBy,
		ClosedReason:          c.ClosedReason,
		LastMessage:           c.LastMessage,
		LastMessageAt:         c.LastMessageAt,
		UnreadCountStudent:    c.UnreadCountStudent,
		UnreadCountCounsellor: c.UnreadCountCounsellor,
		CreatedAt:             c.CreatedAt,
	}
}

func toMessageResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:           m.ID,
		ChatID:       m.ChatID,
		SenderType:   m.SenderType,
		SenderUserID: m.SenderUserID,
		DisplayName:  m.DisplayName,
		Content:      m.Content,
		IsRead:       m.IsRead,
		ReadAt:       m.ReadAt,
		CreatedAt:    m.CreatedAt,
	}
}
