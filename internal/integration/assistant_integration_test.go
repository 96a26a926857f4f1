package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	apihttp "github.com/oshokin/alarm-assistant/internal/api/http"
	"github.com/oshokin/alarm-assistant/internal/api/ws"
	"github.com/oshokin/alarm-assistant/internal/repository/alarms"
	"github.com/oshokin/alarm-assistant/internal/scheduler"
	"github.com/oshokin/alarm-assistant/internal/service/assistant"
)

// fakeClock is an adjustable wall clock shared by the whole stack. It is
// read from the broadcaster goroutine, so access is locked.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// startServer wires the full assistant over an in-memory store and serves it
// on a real listener.
func startServer(t *testing.T) (*httptest.Server, *ws.Hub, *assistant.Service, *fakeClock) {
	t.Helper()

	repo, err := alarms.NewSQLiteRepository(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})

	clock := &fakeClock{now: time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)}
	sched := scheduler.New(repo, scheduler.WithClock(clock.Now))
	svc := assistant.New(sched, assistant.WithClock(clock.Now))
	hub := ws.NewHub()

	server := httptest.NewServer(apihttp.NewServer(svc, hub))
	t.Cleanup(server.Close)
	t.Cleanup(hub.Close)

	return server, hub, svc, clock
}

// chat posts one utterance and returns the decoded turn.
func chat(t *testing.T, baseURL, sessionID, message string) map[string]any {
	t.Helper()

	body := fmt.Sprintf(`{"session_id": %q, "message": %q}`, sessionID, message)

	resp, err := http.Post(baseURL+"/api/v1/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)

	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return decoded
}

// TestConversationOverHTTP drives a whole dialogue through a real server.
func TestConversationOverHTTP(t *testing.T) {
	t.Parallel()

	server, _, _, _ := startServer(t)

	turn := chat(t, server.URL, "session-1", "set a workout alarm for 7:30 pm")
	require.Equal(t, "confirming", turn["state"])

	turn = chat(t, server.URL, "session-1", "yes")
	require.Equal(t, "idle", turn["state"])

	created, ok := turn["alarms"].([]any)
	require.True(t, ok)
	require.Len(t, created, 1)

	turn = chat(t, server.URL, "session-1", "show my alarms")
	require.Contains(t, turn["reply"], "1 alarm")
}

// TestNotificationStream verifies a fired alarm reaches websocket
// subscribers through the broadcaster.
func TestNotificationStream(t *testing.T) {
	t.Parallel()

	server, hub, svc, clock := startServer(t)

	// Schedule an alarm for later this afternoon.
	chat(t, server.URL, "session-1", "set a workout alarm for 2 pm")
	chat(t, server.URL, "session-1", "yes")

	// Subscribe to the stream.
	streamURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/notifications"

	conn, resp, err := websocket.DefaultDialer.Dial(streamURL, nil)
	require.NoError(t, err)

	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.Count() == 1
	}, time.Second, 10*time.Millisecond)

	// Start the broadcaster on a fast cadence and cross the trigger instant.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go ws.NewBroadcaster(svc, hub, 10*time.Millisecond).Run(ctx)

	clock.Advance(3 * time.Hour)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var notification ws.Notification
	require.NoError(t, conn.ReadJSON(&notification))
	require.Equal(t, ws.NotificationTypeAlarmFired, notification.Type)
	require.NotNil(t, notification.Alarm)
	require.Equal(t, "workout", notification.Alarm.Label)
}
