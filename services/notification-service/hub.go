package main

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
)

const (
	TypeCaseAssigned = "case_assigned"
	TypeNewReport    = "new_report"
)

type Notification struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority,omitempty"`
	Emergency bool      `json:"emergency,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Recipients: users are addressed directly, roles by membership.
	UserIDs []string `json:"-"`
	Roles   []string `json:"-"`
}

type Client struct {
	UserID string
	Role   string
	Send   chan Notification
}

func (n *Notification) deliverableTo(c *Client) bool {
	for _, id := range n.UserIDs {
		if id != "" && id == c.UserID {
			return true
		}
	}
	for _, role := range n.Roles {
		if role == c.Role {
			return true
		}
	}
	return false
}

// Hub fans notifications out to connected SSE clients. A client whose buffer
// is full misses the notification rather than stalling the others.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan Notification
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Notification, 100),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.WithFields(log.Fields{"user_id": c.UserID, "clients": total}).Info("Client registered")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.WithFields(log.Fields{"user_id": c.UserID, "clients": total}).Info("Client unregistered")

		case n := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if !n.deliverableTo(c) {
					continue
				}
				select {
				case c.Send <- n:
				default:
					log.WithField("user_id", c.UserID).Warn("Client buffer full, notification dropped")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Broadcast(n Notification) {
	select {
	case h.broadcast <- n:
	case <-h.done:
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
