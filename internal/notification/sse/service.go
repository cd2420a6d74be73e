// Package sse pushes real-time events to connected counsellors.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"admissions_crm_backend/platform/httpkit"
	"admissions_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type EventType string

const (
	EventStudentAssigned   EventType = "student_assigned"
	EventStudentReturned   EventType = "student_reactivated"
	EventL3Assigned        EventType = "l3_assigned"
	EventChatCreated       EventType = "website_chat_created"
	EventChatMessage       EventType = "website_chat_message"
	EventChatClosed        EventType = "website_chat_closed"
	EventInAppNotification EventType = "in_app_notification"
)

type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
}

type client struct {
	counsellorID string
	role         string
	events       chan Event
}

// Service tracks open streams per counsellor.
type Service struct {
	mu      sync.RWMutex
	clients map[string][]*client
	log     *logger.Logger
}

func New(log *logger.Logger) *Service {
	return &Service{clients: make(map[string][]*client), log: log}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.counsellorID] = append(s.clients[c.counsellorID], c)
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.counsellorID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.counsellorID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(s.clients[c.counsellorID]) == 0 {
		delete(s.clients, c.counsellorID)
	}
}

func deliver(c *client, event Event) bool {
	select {
	case c.events <- event:
		return true
	default:
		return false
	}
}

// Publish sends event to every stream the counsellor has open and reports how
// many received it.
func (s *Service) Publish(counsellorID string, event Event) int {
	if counsellorID == "" {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sent := 0
	for _, c := range s.clients[counsellorID] {
		if deliver(c, event) {
			sent++
		} else {
			s.log.Warn("sse buffer full", "counsellor_id", counsellorID, "event", event.Type)
		}
	}
	return sent
}

// PublishToRoles sends event to every connected counsellor holding one of roles.
func (s *Service) PublishToRoles(event Event, roles ...string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sent := 0
	for _, list := range s.clients {
		for _, c := range list {
			if !hasRole(c.role, roles) {
				continue
			}
			if deliver(c, event) {
				sent++
			}
		}
	}
	return sent
}

// Connected reports whether the counsellor has at least one open stream.
func (s *Service) Connected(counsellorID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[counsellorID]) > 0
}

func hasRole(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Handler streams events to the authenticated counsellor until the request ends.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() || identity.CounsellorID() == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			counsellorID: identity.CounsellorID(),
			role:         identity.Role(),
			events:       make(chan Event, 32),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"counsellorId": cl.counsellorID})
		c.Writer.Flush()

		done := c.Request.Context().Done()
		for {
			select {
			case <-done:
				return
			case event := <-cl.events:
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}
