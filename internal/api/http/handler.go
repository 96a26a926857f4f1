package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/oshokin/alarm-assistant/internal/api/ws"
	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
	"github.com/oshokin/alarm-assistant/internal/scheduler"
	"github.com/oshokin/alarm-assistant/internal/service/assistant"
	"github.com/oshokin/alarm-assistant/internal/slot"
)

// Handler serves the JSON API.
type Handler struct {
	assistant *assistant.Service
	hub       *ws.Hub
}

// NewHandler returns a handler over the orchestrator.
func NewHandler(svc *assistant.Service, hub *ws.Hub) *Handler {
	return &Handler{
		assistant: svc,
		hub:       hub,
	}
}

// RegisterRoutes mounts all endpoints under /api/v1.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	v1.POST("/chat", h.Chat)
	v1.POST("/chat/reset", h.ResetChat)
	v1.GET("/chat/help", h.Help)

	v1.GET("/alarms", h.ListAlarms)
	v1.POST("/alarms", h.CreateAlarm)
	v1.PUT("/alarms/:id", h.UpdateAlarm)
	v1.DELETE("/alarms/:id", h.DeleteAlarm)
	v1.GET("/alarms/due", h.DueAlarms)

	if h.hub != nil {
		v1.GET("/notifications", h.Notifications)
	}
}

// chatRequest is the body of the chat endpoints.
type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Chat processes one conversational turn.
// POST /api/v1/chat
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	response, err := h.assistant.Chat(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, response)
}

// ResetChat discards the session's in-flight request.
// POST /api/v1/chat/reset
func (h *Handler) ResetChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	return c.JSON(http.StatusOK, h.assistant.Reset(req.SessionID))
}

// Help returns the usage text.
// GET /api/v1/chat/help
func (h *Handler) Help(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"help": h.assistant.Help()})
}

// ListAlarms returns all stored alarms.
// GET /api/v1/alarms
func (h *Handler) ListAlarms(c echo.Context) error {
	all, err := h.assistant.Scheduler().List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{"alarms": all})
}

// alarmRequest is the body of the alarm CRUD endpoints. Values are accepted
// in any spelling the dialogue understands ("7:30 PM", "tomorrow") and are
// canonicalized before they reach the scheduler.
type alarmRequest struct {
	Label  string `json:"label"`
	Time   string `json:"time"`
	Date   string `json:"date"`
	Repeat string `json:"repeat"`
}

// CreateAlarm stores a new alarm.
// POST /api/v1/alarms
func (h *Handler) CreateAlarm(c echo.Context) error {
	var req alarmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.Time == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "time is required"})
	}

	request, err := h.canonicalize(&req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	created, err := h.assistant.Scheduler().Add(c.Request().Context(), request)
	if err != nil {
		if errors.Is(err, scheduler.ErrPastSchedule) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, created)
}

// UpdateAlarm modifies one alarm by identifier.
// PUT /api/v1/alarms/:id
func (h *Handler) UpdateAlarm(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid alarm id"})
	}

	var req alarmRequest
	if err = c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	changes, err := h.canonicalizeChanges(&req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	updated, err := h.assistant.Scheduler().UpdateByID(c.Request().Context(), id, changes)
	if err != nil {
		if errors.Is(err, scheduler.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteAlarm removes one alarm by identifier.
// DELETE /api/v1/alarms/:id
func (h *Handler) DeleteAlarm(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid alarm id"})
	}

	if err = h.assistant.Scheduler().DeleteByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, scheduler.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.NoContent(http.StatusNoContent)
}

// DueAlarms runs one due check and returns the alarms that fired. The check
// is idempotent: alarms reported here are retired or re-armed, so polling
// never reports the same firing twice.
// GET /api/v1/alarms/due
func (h *Handler) DueAlarms(c echo.Context) error {
	due, err := h.assistant.CheckDue(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{"alarms": due})
}

// Notifications upgrades the connection to the fired-alarm stream.
// GET /api/v1/notifications
func (h *Handler) Notifications(c echo.Context) error {
	return h.hub.Subscribe(c.Response(), c.Request())
}

// canonicalize validates a raw alarm request into canonical form.
func (h *Handler) canonicalize(req *alarmRequest) (*alarm.Request, error) {
	now := h.assistant.Now()

	timeOfDay, err := slot.ValidateTime(req.Time, now)
	if err != nil {
		return nil, err
	}

	var date string
	if req.Date != "" {
		if date, err = slot.ValidateDate(req.Date, now); err != nil {
			return nil, err
		}
	}

	repeat := string(alarm.RepeatNone)
	if req.Repeat != "" {
		if repeat, err = slot.ValidateRepeat(req.Repeat, now); err != nil {
			return nil, err
		}
	}

	label, _ := slot.ValidateLabel(req.Label, now)

	return &alarm.Request{
		Label:  label,
		Time:   timeOfDay,
		Date:   date,
		Repeat: alarm.RepeatMode(repeat),
	}, nil
}

// canonicalizeChanges validates the supplied fields of an update.
func (h *Handler) canonicalizeChanges(req *alarmRequest) (scheduler.Changes, error) {
	now := h.assistant.Now()

	var (
		changes scheduler.Changes
		err     error
	)

	if req.Time != "" {
		if changes.Time, err = slot.ValidateTime(req.Time, now); err != nil {
			return scheduler.Changes{}, err
		}
	}

	if req.Date != "" {
		if changes.Date, err = slot.ValidateDate(req.Date, now); err != nil {
			return scheduler.Changes{}, err
		}
	}

	if req.Repeat != "" {
		if changes.Repeat, err = slot.ValidateRepeat(req.Repeat, now); err != nil {
			return scheduler.Changes{}, err
		}
	}

	return changes, nil
}
