package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
	"github.com/oshokin/alarm-assistant/internal/domain/conversation"
	"github.com/oshokin/alarm-assistant/internal/fsm"
	"github.com/oshokin/alarm-assistant/internal/logger"
	"github.com/oshokin/alarm-assistant/internal/nlu"
	"github.com/oshokin/alarm-assistant/internal/scheduler"
	"github.com/oshokin/alarm-assistant/internal/slot"
)

// Response is the assistant's answer to one chat turn.
type Response struct {
	// SessionID identifies the conversation; minted when the client sent none.
	SessionID string `json:"session_id"`
	// Reply is the assistant's user-facing text.
	Reply string `json:"reply"`
	// State is the dialogue state after the turn.
	State conversation.State `json:"state"`
	// Entities are the slots collected so far.
	Entities map[slot.Type]string `json:"entities,omitempty"`
	// Missing lists required slots still outstanding.
	Missing []slot.Type `json:"missing,omitempty"`
	// Alarms carries listing results and created or updated alarms.
	Alarms []*alarm.Alarm `json:"alarms,omitempty"`
}

// session pairs a dialogue context with its turn lock and the slot the
// assistant last asked about.
type session struct {
	mu       sync.Mutex
	ctx      *conversation.Context
	prompted slot.Type
}

// Service is the conversation orchestrator.
type Service struct {
	classifier *nlu.Classifier
	machine    *fsm.Machine
	scheduler  *scheduler.Scheduler
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New returns an orchestrator over the given scheduler.
func New(sched *scheduler.Scheduler, opts ...Option) *Service {
	s := &Service{
		classifier: nlu.New(),
		machine:    fsm.New(),
		scheduler:  sched,
		now:        time.Now,
		sessions:   make(map[string]*session),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Chat processes one utterance. An empty session id starts a new conversation.
func (s *Service) Chat(ctx context.Context, sessionID, text string) (*Response, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess := s.session(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	result := s.classifier.Classify(text, sess.ctx.State, sess.prompted)

	logger.Debugf(ctx, "session %s: intent=%s entities=%v state=%s",
		sessionID, result.Intent, result.Entities, sess.ctx.State)

	outcome := s.machine.Step(sess.ctx, fsm.Turn{
		Intent:   result.Intent,
		Entities: result.Entities,
		Now:      s.now(),
	})
	sess.prompted = outcome.Prompted

	response := &Response{
		SessionID: sessionID,
		Reply:     outcome.Reply,
		State:     outcome.State,
		Entities:  cloneSlots(sess.ctx.Slots),
		Missing:   append([]slot.Type(nil), sess.ctx.Missing...),
	}

	if outcome.Completed != nil {
		s.execute(ctx, outcome.Completed, response)
	}

	return response, nil
}

// execute runs a finalized request against the scheduler and folds the result
// into the response. Execution failures become conversational replies, not
// transport errors.
func (s *Service) execute(ctx context.Context, completed *fsm.Completion, response *Response) {
	switch completed.Intent {
	case conversation.IntentSetAlarm:
		created, err := s.scheduler.Add(ctx, completed.Request)
		if err != nil {
			logger.Warnf(ctx, "failed to schedule alarm: %v", err)

			response.Reply = "Sorry, I couldn't schedule that alarm. " + userReason(err)

			return
		}

		response.Alarms = []*alarm.Alarm{created}
	case conversation.IntentCancelAlarm:
		deleted, err := s.scheduler.CancelByLabel(ctx, completed.Criteria.Label)
		if err != nil {
			response.Reply = cancelFailureReply(completed.Criteria.Label, err)

			return
		}

		if deleted > 1 {
			response.Reply = fmt.Sprintf("Done! I've cancelled %d alarms named %q.", deleted, completed.Criteria.Label)
		}
	case conversation.IntentUpdateAlarm:
		updated, err := s.scheduler.UpdateByLabel(ctx, completed.Criteria.Label, scheduler.Changes{
			Time:   completed.Criteria.Time,
			Date:   completed.Criteria.Date,
			Repeat: completed.Criteria.Repeat,
		})
		if err != nil {
			response.Reply = updateFailureReply(completed.Criteria.Label, err)

			return
		}

		response.Alarms = updated
	case conversation.IntentShowAlarms:
		all, err := s.scheduler.List(ctx)
		if err != nil {
			logger.Errorf(ctx, "failed to list alarms: %v", err)

			response.Reply = "Sorry, I couldn't fetch your alarms right now."

			return
		}

		response.Alarms = all
		response.Reply = listingReply(all)
	}
}

// Reset discards the session's in-flight request.
func (s *Service) Reset(sessionID string) *Response {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess := s.session(sessionID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.ctx.Reset()
	sess.prompted = ""

	return &Response{
		SessionID: sessionID,
		Reply:     "Conversation reset. What would you like to do?",
		State:     sess.ctx.State,
	}
}

// Help returns the usage text.
func (s *Service) Help() string {
	return fsm.HelpText
}

// CheckDue surfaces the scheduler's due check for the polling endpoint and
// the notification broadcaster.
func (s *Service) CheckDue(ctx context.Context) ([]*alarm.Alarm, error) {
	return s.scheduler.CheckDue(ctx)
}

// Now returns the service clock's current instant. The REST surface uses it
// to resolve relative dates the same way the dialogue does.
func (s *Service) Now() time.Time {
	return s.now()
}

// Scheduler exposes the underlying scheduler for the thin REST surface.
func (s *Service) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

// session returns the session for the id, creating it on first use.
func (s *Service) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{ctx: conversation.New(id)}
		s.sessions[id] = sess
	}

	return sess
}

// listingReply phrases the show-alarms result.
func listingReply(all []*alarm.Alarm) string {
	switch len(all) {
	case 0:
		return "You don't have any alarms yet."
	case 1:
		return "You have 1 alarm."
	default:
		return fmt.Sprintf("You have %d alarms.", len(all))
	}
}

// cancelFailureReply phrases a failed cancellation.
func cancelFailureReply(label string, err error) string {
	if errors.Is(err, scheduler.ErrNotFound) {
		return fmt.Sprintf("I couldn't find an alarm named %q.", label)
	}

	return "Sorry, I couldn't cancel that alarm right now."
}

// updateFailureReply phrases a failed update.
func updateFailureReply(label string, err error) string {
	if errors.Is(err, scheduler.ErrNotFound) {
		return fmt.Sprintf("I couldn't find an alarm named %q to update.", label)
	}

	return "Sorry, I couldn't update that alarm right now."
}

// userReason extracts a speakable reason from a scheduler error.
func userReason(err error) string {
	if errors.Is(err, scheduler.ErrPastSchedule) {
		return "That time has already passed."
	}

	return "Please try again."
}

// cloneSlots copies the slot map so callers never alias dialogue state.
func cloneSlots(slots map[slot.Type]string) map[slot.Type]string {
	if len(slots) == 0 {
		return nil
	}

	cloned := make(map[slot.Type]string, len(slots))
	for k, v := range slots {
		cloned[k] = v
	}

	return cloned
}
