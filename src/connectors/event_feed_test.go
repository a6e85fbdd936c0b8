package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"snapshotengine/src/ingest"
)

type collectingSubmitter struct {
	mu     sync.Mutex
	events []ingest.Event
}

func (c *collectingSubmitter) Submit(_ context.Context, evt ingest.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
	return nil
}

func (c *collectingSubmitter) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// feedServer sends one message per connection and then hangs up.
func feedServer(t *testing.T, messages []string) (*httptest.Server, *int32) {
	t.Helper()
	var conns int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := int(atomic.AddInt32(&conns, 1))
		if n <= len(messages) {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(messages[n-1]))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &conns
}

func TestEventFeed_SubmitsAndReconnects(t *testing.T) {
	srv, conns := feedServer(t, []string{
		`{"type":"eAccount.","data":{"gateway_name":"CTP","accountid":"001","balance":1}}`,
		`not an envelope`,
		`{"type":"eTick.","data":{"gateway_name":"CTP","symbol":"io","underlying_price":1}}`,
	})

	sub := &collectingSubmitter{}
	feed := NewEventFeed(nil, "ws"+strings.TrimPrefix(srv.URL, "http"), sub, Config{
		FeedReconnectMin:     5 * time.Millisecond,
		FeedReconnectMax:     20 * time.Millisecond,
		FeedHandshakeTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sub.len() == 2 && atomic.LoadInt32(conns) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	require.Equal(t, ingest.EventAccount, sub.events[0].Type)
	require.Equal(t, ingest.EventTick, sub.events[1].Type)
}

func TestEventFeed_StopsWhileDisconnected(t *testing.T) {
	feed := NewEventFeed(nil, "ws://127.0.0.1:1/feed", &collectingSubmitter{}, Config{
		FeedReconnectMin: time.Hour,
		FeedReconnectMax: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("feed did not stop")
	}
}

func TestGetConfigDefaults(t *testing.T) {
	config := GetConfig()
	require.Equal(t, time.Second, config.FeedReconnectMin)
	require.Equal(t, 30*time.Second, config.FeedReconnectMax)
	require.Equal(t, 15*time.Second, config.FeedHandshakeTimeout)
}
