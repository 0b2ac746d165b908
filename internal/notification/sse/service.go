// Package sse provides Server-Sent Events support for real-time dashboard
// notifications. Delivery is tenant-scoped, best-effort, and at-most-once:
// a slow client's buffered events are dropped, a disconnected client simply
// misses events until it reconnects and re-fetches state.
package sse

import (
	"encoding/json"
	"sync"

	"camicam_crm_backend/platform/httpkit"
	"camicam_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Event represents an SSE event payload.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// client represents one connected dashboard session. closed is owned by the
// registry's write lock; it keeps the events channel from being closed twice
// when a shutdown and a disconnecting handler race.
type client struct {
	tenantID uuid.UUID
	events   chan Event
	closed   bool
}

// Service manages SSE connections and tenant-scoped broadcasting.
type Service struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]*client // tenantID -> sessions
	log     *logger.Logger
}

// New creates a new SSE service.
func New(log *logger.Logger) *Service {
	return &Service{
		clients: make(map[uuid.UUID][]*client),
		log:     log,
	}
}

func (s *Service) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.tenantID] = append(s.clients[c.tenantID], c)
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.clients[c.tenantID]
	for i, cl := range clients {
		if cl == c {
			s.clients[c.tenantID] = append(clients[:i], clients[i+1:]...)
			break
		}
	}
	if len(s.clients[c.tenantID]) == 0 {
		delete(s.clients, c.tenantID)
	}

	if !c.closed {
		c.closed = true
		close(c.events)
	}
}

// Broadcast sends an event to every session of one tenant. Sessions whose
// buffer is full are skipped rather than blocked on. The sends happen under
// the read lock so a session cannot be closed mid-send.
func (s *Service) Broadcast(tenantID uuid.UUID, event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients[tenantID] {
		select {
		case c.events <- event:
		default:
			s.log.Warn("sse buffer full, dropping event", "tenant", tenantID, "type", event.Type)
		}
	}
}

// ClientCount reports the number of open sessions for a tenant.
func (s *Service) ClientCount(tenantID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients[tenantID])
}

// Handler returns the Gin handler for SSE connections. The route must sit
// behind tenant resolution.
func (s *Service) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := httpkit.MustGetTenant(c)
		if !ok {
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		cl := &client{
			tenantID: scope.ID,
			events:   make(chan Event, 32),
		}
		s.addClient(cl)
		defer s.removeClient(cl)

		c.SSEvent("connected", gin.H{"tenant": scope.Subdomain})
		c.Writer.Flush()

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event.Data)
				c.SSEvent(event.Type, string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close shuts down all sessions.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, clients := range s.clients {
		for _, c := range clients {
			if !c.closed {
				c.closed = true
				close(c.events)
			}
		}
	}
	s.clients = make(map[uuid.UUID][]*client)
}
