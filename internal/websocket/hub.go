package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"research-workflow-be/internal/pkg/logger"
)

// Hub fans analysis events out to every connected client. The tool is
// single-operator, so there is no per-user routing; multiple windows of the
// same workspace all see the same stream. Redis, when configured, relays
// events between instances sharing one database.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

const clusterChannel = "workflow_events"

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"clients": h.clientCount()})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"clients": h.clientCount()})
		}
	}
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends one event to all connected clients and, when redis is
// available, to peer instances.
func (h *Hub) Broadcast(eventType string, data map[string]interface{}) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal broadcast", map[string]interface{}{"error": err.Error()})
		return
	}

	h.sendLocal(payload)

	if h.rdb != nil {
		h.rdb.Publish(context.Background(), clusterChannel, payload)
	}
}

func (h *Hub) sendLocal(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- payload:
		default:
			// Slow consumer; drop it rather than block the hub.
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var probe map[string]interface{}
		if err := json.Unmarshal([]byte(msg.Payload), &probe); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		h.sendLocal([]byte(msg.Payload))
	}
}
