// Package ws pushes appointment status changes to connected dashboards over
// WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
)

const sendBuffer = 256

// ErrHubFull возвращается, когда очередь рассылки переполнена
var ErrHubFull = errors.New("ws hub: broadcast queue is full")

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Message is the envelope written to clients.
type Message struct {
	Type string                    `json:"type"`
	Data domain.StatusChangedEvent `json:"data"`
}

type delivery struct {
	ev      domain.StatusChangedEvent
	payload []byte
}

// Hub maintains the set of connected clients and broadcasts events to the
// ones allowed to see them.
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu  sync.RWMutex
	log Logger
}

// NewHub creates a hub. Call Run to start delivering.
func NewHub(log Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan delivery, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run is the hub loop. It returns when ctx is done and closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("Hub: client connected user=%s role=%s (total: %d)", c.actor.UserID, c.actor.Role, total)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("Hub: client disconnected user=%s (total: %d)", c.actor.UserID, total)

		case d := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(d.ev) {
					continue
				}
				select {
				case c.send <- d.payload:
				default:
					// Буфер клиента переполнен, отключаем его
					close(c.send)
					delete(h.clients, c)
					h.log.Warn("Hub: dropping slow client user=%s", c.actor.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Name returns the publisher label used in logs and metrics.
func (h *Hub) Name() string {
	return "ws"
}

// Publish queues ev for broadcast without blocking.
func (h *Hub) Publish(_ context.Context, ev domain.StatusChangedEvent) error {
	payload, err := json.Marshal(Message{Type: events.TypeStatusChanged, Data: ev})
	if err != nil {
		return fmt.Errorf("ws hub: encode event: %w", err)
	}

	select {
	case h.broadcast <- delivery{ev: ev, payload: payload}:
		return nil
	default:
		return ErrHubFull
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Client is one dashboard connection.
type Client struct {
	actor domain.Actor
	send  chan []byte
}

// NewClient creates a client that receives the events actor may see.
func NewClient(actor domain.Actor) *Client {
	return &Client{actor: actor, send: make(chan []byte, sendBuffer)}
}

// Send returns the outgoing message channel. It is closed when the hub drops the client.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// wants applies the same record-level access as the HTTP API.
func (c *Client) wants(ev domain.StatusChangedEvent) bool {
	return c.actor.CanActOn(&domain.Appointment{ClientID: ev.ClientID, ProviderID: ev.ProviderID})
}
