package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"vitrinet/pkg/logger"
)

// Client is one actor's live connection.
type Client struct {
	ActorID string
	Conn    *websocket.Conn
	Send    chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues the payload without blocking. The send and the close
// share the client mutex so neither can hit a closed channel.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Manager tracks active connections and fans events out to them. It is
// best-effort transport: a full or closed client simply drops off. Only
// the manager loop mutates the registry or closes send channels;
// senders merely hand slow clients back through Unregister.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop until the context is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if old, ok := m.clients[client.ActorID]; ok && old != client {
					old.closeSend()
				}
				m.clients[client.ActorID] = client
				m.mutex.Unlock()
				logger.Debug("ws client registered: %s", client.ActorID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				// Pointer comparison so a stale unregister cannot evict
				// a newer connection re-registered under the same actor.
				if current, ok := m.clients[client.ActorID]; ok && current == client {
					delete(m.clients, client.ActorID)
				}
				m.mutex.Unlock()
				client.closeSend()
				logger.Debug("ws client unregistered: %s", client.ActorID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToActor delivers a payload to the actor's connection if one is
// open. Returns false when the actor is not connected or its buffer is
// full; slow consumers are handed to the manager loop for teardown.
func (m *Manager) SendToActor(actorID string, payload []byte) bool {
	m.mutex.RLock()
	client, ok := m.clients[actorID]
	m.mutex.RUnlock()

	if !ok {
		return false
	}

	if client.trySend(payload) {
		return true
	}

	m.Unregister <- client
	return false
}
