package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartnex-ai/backend/internal/models"
)

func testClient(hub *Hub, owner uuid.UUID) *Client {
	return &Client{ID: uuid.New().String(), OwnerID: owner, hub: hub, send: make(chan WSMessage, 4)}
}

func TestHubBroadcastsPerOwner(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	ownerA, ownerB := uuid.New(), uuid.New()
	a := testClient(hub, ownerA)
	b := testClient(hub, ownerB)
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 1, hub.ClientCount(ownerA))

	hub.Notify(ownerA, EventTicketCreated, map[string]string{"status": "open"})

	select {
	case msg := <-a.send:
		assert.Equal(t, EventTicketCreated, msg.Event)
		assert.JSONEq(t, `{"status":"open"}`, string(msg.Data))
	default:
		t.Fatal("owner A should receive the event")
	}
	assert.Empty(t, b.send)

	hub.Unregister(a)
	assert.Equal(t, 0, hub.ClientCount(ownerA))
	_, open := <-a.send
	assert.False(t, open)
}

func TestHubSkipsFullBuffers(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	owner := uuid.New()
	c := testClient(hub, owner)
	hub.Register(c)
	for i := 0; i < cap(c.send)+3; i++ {
		hub.Broadcast(owner, EventPaymentRecorded, []byte(`{}`))
	}
	assert.Len(t, c.send, cap(c.send))
}

type stubSub struct {
	handlers map[uuid.UUID]func(string, []byte)
	canceled int
}

func (s *stubSub) SubscribeOwner(owner uuid.UUID, h func(string, []byte)) (func(), error) {
	s.handlers[owner] = h
	return func() { s.canceled++ }, nil
}

type stubPub struct{ sub *stubSub }

func (p stubPub) PublishOwnerEvent(owner uuid.UUID, event string, payload []byte) error {
	if h, ok := p.sub.handlers[owner]; ok {
		h(event, payload)
	}
	return nil
}

func TestHubRoutesThroughRedisOnce(t *testing.T) {
	sub := &stubSub{handlers: map[uuid.UUID]func(string, []byte){}}
	hub := NewHub(zap.NewNop(), stubPub{sub}, sub)
	owner := uuid.New()
	c1, c2 := testClient(hub, owner), testClient(hub, owner)
	hub.Register(c1)
	hub.Register(c2)
	require.Len(t, sub.handlers, 1)

	hub.Notify(owner, EventTenantMoved, gin.H{"roomId": "B"})
	assert.Len(t, c1.send, 1)
	assert.Len(t, c2.send, 1)

	hub.Unregister(c1)
	assert.Equal(t, 0, sub.canceled)
	hub.Unregister(c2)
	assert.Equal(t, 1, sub.canceled)
}

func TestRedisPubSubRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ps := NewRedisPubSub(rdb, nil)
	owner := uuid.New()

	got := make(chan WSMessage, 1)
	cancel, err := ps.SubscribeOwner(owner, func(event string, payload []byte) {
		got <- WSMessage{Event: event, Data: payload}
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.PublishOwnerEvent(owner, EventPaymentRecorded, []byte(`{"amount":"3000"}`)))
	select {
	case msg := <-got:
		assert.Equal(t, EventPaymentRecorded, msg.Event)
		assert.JSONEq(t, `{"amount":"3000"}`, string(msg.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

type stubAuth map[string]*models.Principal

func (s stubAuth) Authenticate(_ context.Context, token string) (*models.Principal, error) {
	if p, ok := s[token]; ok {
		return p, nil
	}
	return nil, errors.New("invalid token")
}

func TestServeWsDeliversOwnerEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	owner := uuid.New()
	auth := stubAuth{
		"admin":  {ID: owner, Role: models.RoleAdmin},
		"tenant": {ID: uuid.New(), Role: models.RoleTenant},
	}
	hub := NewHub(zap.NewNop(), nil, nil)
	r := gin.New()
	r.GET("/ws", ServeWs(hub, auth, zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token="

	_, resp, err := websocket.DefaultDialer.Dial(base+"tenant", nil)
	require.Error(t, err)
	assert.Equal(t, 403, resp.StatusCode)
	_, resp, err = websocket.DefaultDialer.Dial(base+"bogus", nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(base+"admin", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(owner) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Notify(owner, EventTicketUpdated, gin.H{"status": "resolved"})
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventTicketUpdated, msg.Event)
	var data map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "resolved", data["status"])

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount(owner) == 0 }, 2*time.Second, 10*time.Millisecond)
}
