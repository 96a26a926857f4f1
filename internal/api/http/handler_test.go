package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-assistant/internal/repository/alarms"
	"github.com/oshokin/alarm-assistant/internal/scheduler"
	"github.com/oshokin/alarm-assistant/internal/service/assistant"
)

// testClock freezes the API at noon.
var testClock = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

// newTestServer wires the full API over an in-memory store.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	repo, err := alarms.NewSQLiteRepository(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})

	now := func() time.Time { return testClock }
	sched := scheduler.New(repo, scheduler.WithClock(now))
	svc := assistant.New(sched, assistant.WithClock(now))

	return NewServer(svc, nil)
}

// do performs one request and returns the recorded response.
func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

// decode unmarshals the recorded JSON body.
func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// TestChatEndpoint verifies a full conversation over the wire.
func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/chat",
		`{"message": "set a workout alarm for 7:30 pm"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var turn struct {
		SessionID string `json:"session_id"`
		Reply     string `json:"reply"`
		State     string `json:"state"`
	}

	decode(t, rec, &turn)
	require.NotEmpty(t, turn.SessionID)
	require.Equal(t, "confirming", turn.State)

	rec = do(e, http.MethodPost, "/api/v1/chat",
		fmt.Sprintf(`{"session_id": %q, "message": "yes"}`, turn.SessionID))
	require.Equal(t, http.StatusOK, rec.Code)

	var confirmed struct {
		State  string `json:"state"`
		Alarms []struct {
			Label string `json:"label"`
			Time  string `json:"time"`
		} `json:"alarms"`
	}

	decode(t, rec, &confirmed)
	require.Equal(t, "idle", confirmed.State)
	require.Len(t, confirmed.Alarms, 1)
	require.Equal(t, "workout", confirmed.Alarms[0].Label)
	require.Equal(t, "19:30", confirmed.Alarms[0].Time)
}

// TestChatRequiresMessage verifies an empty turn is rejected.
func TestChatRequiresMessage(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/chat", `{"session_id": "s1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHelpEndpoint verifies the usage text is served.
func TestHelpEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/v1/chat/help", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "show my alarms")
}

// TestAlarmCRUD verifies the thin REST surface end to end.
func TestAlarmCRUD(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	// Create accepts human spellings and canonicalizes them.
	rec := do(e, http.MethodPost, "/api/v1/alarms",
		`{"label": "standup", "time": "9:15 AM", "date": "tomorrow", "repeat": "every day"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID     int64  `json:"id"`
		Time   string `json:"time"`
		Date   string `json:"date"`
		Repeat string `json:"repeat"`
	}

	decode(t, rec, &created)
	require.NotZero(t, created.ID)
	require.Equal(t, "09:15", created.Time)
	require.Equal(t, "2026-09-02", created.Date)
	require.Equal(t, "daily", created.Repeat)

	// List sees it.
	rec = do(e, http.MethodGet, "/api/v1/alarms", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Alarms []json.RawMessage `json:"alarms"`
	}

	decode(t, rec, &listing)
	require.Len(t, listing.Alarms, 1)

	// Update retimes it.
	rec = do(e, http.MethodPut, fmt.Sprintf("/api/v1/alarms/%d", created.ID),
		`{"time": "10:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated struct {
		Time string `json:"time"`
	}

	decode(t, rec, &updated)
	require.Equal(t, "10:00", updated.Time)

	// Delete removes it; a second delete is a 404.
	rec = do(e, http.MethodDelete, fmt.Sprintf("/api/v1/alarms/%d", created.ID), "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodDelete, fmt.Sprintf("/api/v1/alarms/%d", created.ID), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

// TestCreateAlarmValidation verifies raw values are rejected with reasons.
func TestCreateAlarmValidation(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/alarms", `{"time": "13 PM"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/alarms", `{"label": "x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Explicitly past schedules are rejected, not silently rolled.
	rec = do(e, http.MethodPost, "/api/v1/alarms",
		`{"time": "07:00", "date": "2026-08-31"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestDueEndpointIsIdempotent verifies polling never reports a firing twice.
func TestDueEndpointIsIdempotent(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	// Due immediately: the current minute is inclusive.
	rec := do(e, http.MethodPost, "/api/v1/alarms", `{"label": "now", "time": "12:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var due struct {
		Alarms []struct {
			Label string `json:"label"`
		} `json:"alarms"`
	}

	rec = do(e, http.MethodGet, "/api/v1/alarms/due", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &due)
	require.Len(t, due.Alarms, 1)
	require.Equal(t, "now", due.Alarms[0].Label)

	rec = do(e, http.MethodGet, "/api/v1/alarms/due", "")
	require.Equal(t, http.StatusOK, rec.Code)

	due.Alarms = nil
	decode(t, rec, &due)
	require.Empty(t, due.Alarms)
}

// TestChatReset verifies the reset endpoint drops the in-flight request.
func TestChatReset(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/v1/chat", `{"session_id": "s1", "message": "wake me up"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/chat/reset", `{"session_id": "s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var reset struct {
		State string `json:"state"`
	}

	decode(t, rec, &reset)
	require.Equal(t, "idle", reset.State)
}
