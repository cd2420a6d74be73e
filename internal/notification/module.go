// Package notification reacts to domain events by notifying counsellors in the
// app, mailing L3 handovers and greeting new students on WhatsApp.
// Domain modules publish events and never talk to these channels directly.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"admissions_crm_backend/internal/email"
	"admissions_crm_backend/internal/events"
	apphttp "admissions_crm_backend/internal/http"
	notifhandler "admissions_crm_backend/internal/notification/handler"
	"admissions_crm_backend/internal/notification/inapp"
	"admissions_crm_backend/internal/notification/sse"
	"admissions_crm_backend/platform/config"
	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/logger"
	"admissions_crm_backend/platform/phone"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const greetingMessage = "Hi %s, thank you for your interest! Your admission counsellor %s will reach out to you shortly. Reply here if you have any questions."

// supervisorRoles receive every website chat event.
var supervisorRoles = []string{httpkit.RoleSupervisor, httpkit.RoleAdmin, httpkit.RoleSuperAdmin}

// WhatsAppSender sends WhatsApp messages. *whatsapp.Client implements it.
type WhatsAppSender interface {
	SendMessage(ctx context.Context, to string, message string) error
	BusinessNumber() string
}

// OutgoingMessageStore records messages the business number sent.
type OutgoingMessageStore interface {
	SaveOutgoing(ctx context.Context, from, to, text, messageType string) error
}

// InAppSender persists and pushes in-app notifications. *inapp.Service implements it.
type InAppSender interface {
	Send(ctx context.Context, p inapp.SendParams) (inapp.Notification, error)
}

// LivePublisher pushes events to connected counsellors. *sse.Service implements it.
type LivePublisher interface {
	Publish(counsellorID string, event sse.Event) int
	PublishToRoles(event sse.Event, roles ...string) int
}

type Module struct {
	sender       email.Sender
	cfg          config.AssignmentConfig
	log          *logger.Logger
	live         LivePublisher
	sseHandler   gin.HandlerFunc
	inApp        InAppSender
	inAppHandler *notifhandler.HTTPHandler
	whatsapp     WhatsAppSender
	messages     OutgoingMessageStore
}

// New creates the module with an SSE hub and in-app notifications backed by pool.
func New(pool *pgxpool.Pool, sender email.Sender, cfg config.AssignmentConfig, log *logger.Logger) *Module {
	hub := sse.New(log)
	inAppSvc := inapp.NewService(inapp.NewRepository(pool), hub, log)
	return &Module{
		sender:       sender,
		cfg:          cfg,
		log:          log,
		live:         hub,
		sseHandler:   hub.Handler(),
		inApp:        inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc),
	}
}

func (m *Module) Name() string { return "notification" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	notifications := ctx.Protected.Group("/notifications")
	notifications.GET("/stream", m.sseHandler)
	m.inAppHandler.RegisterRoutes(notifications)
}

// SetWhatsApp enables the greeting sent to newly assigned students.
func (m *Module) SetWhatsApp(sender WhatsAppSender, messages OutgoingMessageStore) {
	m.whatsapp = sender
	m.messages = messages
}

func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.StudentReactivated{}.EventName(), m)
	bus.Subscribe(events.L3CounsellorAssigned{}.EventName(), m)
	bus.Subscribe(events.WebsiteChatCreated{}.EventName(), m)
	bus.Subscribe(events.WebsiteChatMessage{}.EventName(), m)
	bus.Subscribe(events.WebsiteChatClosed{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.StudentReactivated:
		return m.handleStudentReactivated(ctx, e)
	case events.L3CounsellorAssigned:
		return m.handleL3Assigned(ctx, e)
	case events.WebsiteChatCreated:
		m.fanOutChat(e.CounsellorID, sse.Event{Type: sse.EventChatCreated, Message: fmt.Sprintf("New website chat from %s", e.StudentName), Data: e})
	case events.WebsiteChatMessage:
		if e.SenderType == "student" {
			m.fanOutChat(e.CounsellorID, sse.Event{Type: sse.EventChatMessage, Data: e})
		}
	case events.WebsiteChatClosed:
		m.fanOutChat(e.CounsellorID, sse.Event{Type: sse.EventChatClosed, Data: e})
	}
	return nil
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	if e.CounsellorID != "" {
		m.live.Publish(e.CounsellorID, sse.Event{
			Type:    sse.EventStudentAssigned,
			Message: fmt.Sprintf("New student %q has been assigned to you!", e.StudentName),
			Data:    e,
		})
		m.notify(ctx, inapp.SendParams{
			CounsellorID: e.CounsellorID,
			Title:        "New student assigned",
			Content:      fmt.Sprintf("%s has been assigned to you.", e.StudentName),
			ResourceID:   &e.StudentID,
			ResourceType: "student",
		})
	}
	return m.greet(ctx, e)
}

// greet sends the welcome message and records it in the student's WhatsApp chat.
func (m *Module) greet(ctx context.Context, e events.LeadAssigned) error {
	if m.whatsapp == nil || e.StudentPhone == "" {
		return nil
	}
	counsellor := e.CounsellorName
	if counsellor == "" {
		counsellor = "our team"
	}
	text := fmt.Sprintf(greetingMessage, e.StudentName, counsellor)
	if err := m.whatsapp.SendMessage(ctx, e.StudentPhone, text); err != nil {
		return fmt.Errorf("send whatsapp greeting: %w", err)
	}
	if m.messages == nil {
		return nil
	}
	if err := m.messages.SaveOutgoing(ctx, m.whatsapp.BusinessNumber(), phone.WithCountryCode(e.StudentPhone), text, "template"); err != nil {
		m.log.WithContext(ctx).Warn("whatsapp greeting not recorded", slog.String("student_id", e.StudentID.String()), slog.String("error", err.Error()))
	}
	return nil
}

func (m *Module) handleStudentReactivated(ctx context.Context, e events.StudentReactivated) error {
	if e.CounsellorID == "" {
		return nil
	}
	m.live.Publish(e.CounsellorID, sse.Event{Type: sse.EventStudentReturned, Data: e})
	m.notify(ctx, inapp.SendParams{
		CounsellorID: e.CounsellorID,
		Title:        "Student is back",
		Content:      fmt.Sprintf("%s submitted a new enquiry via %s.", e.StudentName, e.Source),
		ResourceID:   &e.StudentID,
		ResourceType: "student",
		Category:     "warning",
	})
	return nil
}

func (m *Module) handleL3Assigned(ctx context.Context, e events.L3CounsellorAssigned) error {
	if e.CounsellorID != "" {
		m.live.Publish(e.CounsellorID, sse.Event{Type: sse.EventL3Assigned, Data: e})
		m.notify(ctx, inapp.SendParams{
			CounsellorID: e.CounsellorID,
			Title:        "L3 student assigned",
			Content:      fmt.Sprintf("%s (%s) has been assigned to you.", e.StudentName, e.CollegeName),
			ResourceID:   &e.StudentID,
			ResourceType: "student",
			Category:     "success",
		})
	}

	recipients := append(append([]string{}, m.cfg.GetL3AssignmentRecipients()...), e.CounsellorEmail)
	err := m.sender.SendL3AssignmentEmail(ctx, recipients, email.L3Assignment{
		StudentID:       e.StudentID.String(),
		StudentName:     e.StudentName,
		StudentEmail:    e.StudentEmail,
		StudentPhone:    e.StudentPhone,
		AssignedAt:      e.OccurredAt(),
		CollegeName:     e.CollegeName,
		CourseName:      e.CourseName,
		CounsellorName:  e.CounsellorName,
		CounsellorEmail: e.CounsellorEmail,
	})
	if err != nil {
		return fmt.Errorf("send l3 assignment email: %w", err)
	}
	return nil
}

func (m *Module) fanOutChat(counsellorID string, event sse.Event) {
	m.live.Publish(counsellorID, event)
	m.live.PublishToRoles(event, supervisorRoles...)
}

func (m *Module) notify(ctx context.Context, p inapp.SendParams) {
	if m.inApp == nil {
		return
	}
	if _, err := m.inApp.Send(ctx, p); err != nil {
		m.log.WithContext(ctx).Warn("in-app notification failed", slog.String("counsellor_id", p.CounsellorID), slog.String("error", err.Error()))
	}
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)
