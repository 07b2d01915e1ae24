package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Owner feed events.
const (
	EventPaymentRecorded = "payment_recorded"
	EventTicketCreated   = "ticket_created"
	EventTicketUpdated   = "ticket_updated"
	EventTenantMoved     = "tenant_moved"
)

// Hub maintains owner_id -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: events are published to Redis and the per-owner
// subscription fans them out to local clients on every instance.
type Hub struct {
	owners   map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per owner
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishOwnerEvent(ownerID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to owner channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeOwner(ownerID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. Without Redis it broadcasts locally.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		owners:   make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to its owner's feed. Starts the Redis subscription for the owner if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.owners[c.OwnerID] == nil {
		h.owners[c.OwnerID] = make(map[string]*Client)
		if h.redisSub != nil {
			ownerID := c.OwnerID
			cancel, err := h.redisSub.SubscribeOwner(ownerID, func(event string, payload []byte) {
				h.Broadcast(ownerID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("owner feed subscribe failed", zap.String("owner_id", ownerID.String()), zap.Error(err))
			} else {
				h.subs[ownerID] = cancel
			}
		}
	}
	h.owners[c.OwnerID][c.ID] = c
	h.logger.Debug("client joined owner feed", zap.String("client_id", c.ID), zap.String("owner_id", c.OwnerID.String()))
}

// Unregister removes a client. Cancels the Redis subscription when the owner's last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.owners[c.OwnerID]; ok {
		if _, ok := m[c.ID]; ok {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.owners, c.OwnerID)
			if cancel, ok := h.subs[c.OwnerID]; ok {
				cancel()
				delete(h.subs, c.OwnerID)
			}
		}
	}
	h.logger.Debug("client left owner feed", zap.String("client_id", c.ID), zap.String("owner_id", c.OwnerID.String()))
}

// Broadcast sends a message to all local clients of an owner.
func (h *Hub) Broadcast(ownerID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.owners[ownerID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Notify publishes an event to the owner's feed. With Redis the subscriber performs the broadcast
// once for every instance, this one included.
func (h *Hub) Notify(ownerID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("owner event marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	if h.redis != nil {
		if err := h.redis.PublishOwnerEvent(ownerID, event, data); err != nil {
			h.logger.Warn("owner event publish failed", zap.String("event", event), zap.Error(err))
		}
		return
	}
	h.Broadcast(ownerID, event, json.RawMessage(data))
}

// ClientCount returns the number of connected clients for an owner.
func (h *Hub) ClientCount(ownerID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.owners[ownerID])
}
