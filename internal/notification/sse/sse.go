// Package sse provides Server-Sent Events support for pushing coordination
// alerts to connected dashboard clients.
package sse

import (
	"encoding/json"
	"sync"

	"maintops_backend/platform/httpkit"
	"maintops_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventToast EventType = "toast"

	// Auto-send events (pushed to coordinators watching the queue)
	EventAutoSendPending   EventType = "autosend_pending"
	EventAutoSendTick      EventType = "autosend_tick"
	EventAutoSendSent      EventType = "autosend_sent"
	EventAutoSendCancelled EventType = "autosend_cancelled"

	EventGateEscalated     EventType = "gate_escalated"
	EventDuplicateResolved EventType = "duplicate_resolved"
)

// Event represents an SSE event payload
type Event struct {
	Type        EventType   `json:"type"`
	WorkOrderID uuid.UUID   `json:"workOrderId,omitempty"`
	Severity    string      `json:"severity,omitempty"`
	Message     string      `json:"message,omitempty"`
	Data        interface{} `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	userID uuid.UUID
	role   string
	events chan Event
}

// Service manages SSE connections and event broadcasting
type Service struct {
	log *logger.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID][]*client // userID -> clients
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	return &Service{
		log:     log,
		clients: make(map[uuid.UUID][]*client),
	}
}

// addClient registers a new client connection
func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.userID] = append(s.clients[c.userID], c)
}

// removeClient unregisters a client connection
func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.userID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.userID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(s.clients[c.userID]) == 0 {
		delete(s.clients, c.userID)
	}

	close(c.events)
}

// Publish sends an event to a specific user
func (s *Service) Publish(userID uuid.UUID, event Event) {
	s.mu.RLock()
	clients := s.clients[userID]
	s.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse event buffer full", "user_id", userID.String())
		}
	}
}

// PublishToRole sends an event to every connected client with the given role.
func (s *Service) PublishToRole(role string, event Event) {
	s.mu.RLock()
	var targets []*client
	for _, clients := range s.clients {
		for _, c := range clients {
			if c.role == role {
				targets = append(targets, c)
			}
		}
	}
	s.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse event buffer full", "user_id", c.userID.String())
		}
	}
}

// Broadcast sends an event to every connected client.
func (s *Service) Broadcast(event Event) {
	s.mu.RLock()
	var targets []*client
	for _, clients := range s.clients {
		targets = append(targets, clients...)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse event buffer full", "user_id", c.userID.String())
		}
	}
}

// Handler returns a Gin handler for SSE connections
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := httpkit.MustGetIdentity(c)
		if identity == nil {
			return
		}

		// Set SSE headers
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			userID: identity.UserID(),
			role:   identity.Role(),
			events: make(chan Event, 32),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"userId": identity.UserID()})
		c.Writer.Flush()

		s.log.Info("sse client connected", "user_id", identity.UserID().String())

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				s.log.Info("sse client disconnected", "user_id", identity.UserID().String())
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close shuts down the SSE service
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			close(c.events)
		}
	}
	s.clients = make(map[uuid.UUID][]*client)
}
