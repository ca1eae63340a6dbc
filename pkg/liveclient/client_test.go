package liveclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentvault_backend/internal/models"
	"talentvault_backend/ws"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newWSServer runs handler for each accepted websocket session and returns
// the ws:// endpoint URL.
func newWSServer(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	return strings.Replace(srv.URL, "http://", "ws://", 1)
}

func TestReconnectPolicyDefaults(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 5, DefaultMaxRetries)
	assert.Equal(t, 1000*time.Millisecond, DefaultRetryDelay)
}

func TestConnectStopsAfterRetryBudget(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{
		URL:        strings.Replace(srv.URL, "http://", "ws://", 1),
		Token:      "t",
		Role:       models.UserRoleUser,
		MaxRetries: 5,
		RetryDelay: 10 * time.Millisecond,
	})

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(5), attempts.Load())
	assert.Equal(t, StateDisconnected, c.State())
}

func TestClientReceivesBroadcastForItsRole(t *testing.T) {
	urlWS := newWSServer(t, func(conn *websocket.Conn) {
		// Drain the join frame, then push two broadcasts: one for the
		// client's audience, one for a different one.
		var frame ws.IncomingFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		conn.WriteJSON(ws.OutgoingFrame{
			Event: ws.EventBroadcastNotification,
			Payload: ws.BroadcastEvent{
				ID:      "b-agents",
				Title:   "Agent update",
				Targets: []models.TargetTag{models.TargetTagEntertainmentProfessional},
			},
		})
		conn.WriteJSON(ws.OutgoingFrame{
			Event: ws.EventBroadcastNotification,
			Payload: ws.BroadcastEvent{
				ID:      "b-admins",
				Title:   "Admin only",
				Targets: []models.TargetTag{models.TargetTagAdmins},
			},
		})

		// Keep the session open until the client disconnects.
		conn.ReadMessage()
	})

	received := make(chan Entry, 4)
	c := New(Config{
		URL:         urlWS,
		Token:       "t",
		Role:        models.UserRoleAgent,
		RetryDelay:  10 * time.Millisecond,
		OnBroadcast: func(e Entry) { received <- e },
	})

	require.NoError(t, c.Start(context.Background()))
	defer c.Close()
	assert.Equal(t, StateConnected, c.State())

	select {
	case e := <-received:
		assert.Equal(t, "b-agents", e.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
	}

	// The admins-targeted event never lands in the feed.
	require.Eventually(t, func() bool { return c.Broadcast.Len() >= 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, c.Broadcast.Len())
	assert.Equal(t, "b-agents", c.Broadcast.Entries()[0].ID)
}

func TestClientReceivesIndustryEvents(t *testing.T) {
	urlWS := newWSServer(t, func(conn *websocket.Conn) {
		var frame ws.IncomingFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		conn.WriteJSON(ws.OutgoingFrame{
			Event: ws.EventIndustryNotification,
			Payload: ws.IndustryEvent{
				ID:        "ev-1",
				EventType: "service_degraded",
				Title:     "Transcoder lag",
			},
		})

		conn.ReadMessage()
	})

	received := make(chan Entry, 1)
	c := New(Config{
		URL:        urlWS,
		Token:      "t",
		Role:       models.UserRoleAdmin,
		RetryDelay: 10 * time.Millisecond,
		OnIndustry: func(e Entry) { received <- e },
	})

	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	select {
	case e := <-received:
		assert.Equal(t, "ev-1", e.ID)
		assert.Equal(t, "service_degraded", e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for industry event")
	}
	assert.Equal(t, 1, c.Industry.Len())
}

func TestClientDisconnectedAfterDropAndSpentBudget(t *testing.T) {
	var sessions atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Accept the first session and drop it at once; refuse the rest.
		if sessions.Add(1) > 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	c := New(Config{
		URL:        strings.Replace(srv.URL, "http://", "ws://", 1),
		Token:      "t",
		Role:       models.UserRoleUser,
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
	})

	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool {
		return c.State() == StateDisconnected
	}, 2*time.Second, 10*time.Millisecond)

	// First session plus three refused reconnect attempts.
	assert.Equal(t, int32(4), sessions.Load())
	c.Close()
}

func TestDismissMarksPersistedRead(t *testing.T) {
	api := &recordingAPI{}
	c := New(Config{URL: "ws://unused", Token: "t", Role: models.UserRoleUser, API: api})

	c.Broadcast.Prepend(Entry{ID: "b-1", Title: "x"})
	c.Industry.Prepend(Entry{ID: "i-1", Title: "y"})

	require.NoError(t, c.Dismiss(context.Background(), "b-1"))
	assert.Equal(t, 0, c.Broadcast.Len())
	assert.Equal(t, []string{"b-1"}, api.markRead)

	require.NoError(t, c.Dismiss(context.Background(), "i-1"))
	assert.Equal(t, []string{"b-1", "i-1"}, api.markRead)

	// Dismissing an unknown id touches neither feed nor API.
	require.NoError(t, c.Dismiss(context.Background(), "ghost"))
	assert.Equal(t, []string{"b-1", "i-1"}, api.markRead)
}
