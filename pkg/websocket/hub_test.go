package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const waitFor = time.Second

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func decode(t *testing.T, data []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHub_SendMessageToUser(t *testing.T) {
	hub := startHub(t)
	a1, a2, b := NewClient(hub, nil, 1), NewClient(hub, nil, 1), NewClient(hub, nil, 2)
	for _, c := range []*Client{a1, a2, b} {
		hub.Register(c)
	}
	require.Eventually(t, func() bool { return hub.Connections(1) == 2 && hub.Connections(2) == 1 }, waitFor, time.Millisecond)

	require.NoError(t, hub.SendMessageToUser(1, RefreshPayload{Entity: "worker"}, TypeListRefresh))

	for _, c := range []*Client{a1, a2} {
		select {
		case data := <-c.send:
			assert.Equal(t, TypeListRefresh, decode(t, data).Type)
		case <-time.After(waitFor):
			t.Fatal("сообщение не доставлено")
		}
	}
	assert.Empty(t, b.send)
}

func TestHub_UnregisterClosesQueue(t *testing.T) {
	hub := startHub(t)
	c := NewClient(hub, nil, 5)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.Connections(5) == 1 }, waitFor, time.Millisecond)

	hub.Unregister(c)
	require.Eventually(t, func() bool { return hub.Connections(5) == 0 }, waitFor, time.Millisecond)

	_, open := <-c.send
	assert.False(t, open)
	assert.False(t, c.Enqueue([]byte("late")))
}

func TestHub_Broadcast(t *testing.T) {
	hub := startHub(t)
	a, b := NewClient(hub, nil, 1), NewClient(hub, nil, 2)
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.Connections(1) == 1 && hub.Connections(2) == 1 }, waitFor, time.Millisecond)

	require.NoError(t, hub.Broadcast(RefreshPayload{Entity: "device"}, TypeListRefresh))
	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 1)
}

func TestClient_EnqueueDropsWhenFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := NewClient(hub, nil, 1)
	for i := 0; i < sendBuffer; i++ {
		require.True(t, c.Enqueue([]byte("x")))
	}
	assert.False(t, c.Enqueue([]byte("overflow")))
}

func TestClient_PumpsOverRealConnection(t *testing.T) {
	hub := startHub(t)
	upgrader := gws.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		client := NewClient(hub, conn, 9)
		hub.Register(client)
		go client.WritePump()
		client.ReadPump(func(c *Client, msg Inbound) {
			_ = c.SendEnvelope(TypeListSnapshot, map[string]string{"echo": msg.Query})
		})
	}))
	defer srv.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Inbound{Type: TypeListQuery, Query: "abc"}))
	_ = conn.SetReadDeadline(time.Now().Add(waitFor))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	env := decode(t, data)
	assert.Equal(t, TypeListSnapshot, env.Type)
	assert.Equal(t, map[string]interface{}{"echo": "abc"}, env.Payload)

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte("not json")))
	_, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, TypeError, decode(t, data).Type)
}

func TestHub_RegisterAfterStop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := NewClient(hub, nil, 3)
	hub.Register(c)
	hub.Unregister(c)

	_, open := <-c.send
	assert.False(t, open)
	assert.Zero(t, hub.Connections(3))
}
