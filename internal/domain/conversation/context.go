package conversation

import (
	"github.com/oshokin/alarm-assistant/internal/slot"
)

// State identifies where a conversation is in the dialogue state machine.
type State string

const (
	// StateIdle means no request is pending.
	StateIdle State = "idle"
	// StateCollecting means one or more required slots are outstanding.
	StateCollecting State = "collecting"
	// StateConfirming means all required slots are filled and the machine is
	// awaiting confirmation.
	StateConfirming State = "confirming"
)

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	// IntentSetAlarm starts a new alarm request.
	IntentSetAlarm Intent = "set_alarm"
	// IntentCancelAlarm removes alarms by label.
	IntentCancelAlarm Intent = "cancel_alarm"
	// IntentUpdateAlarm reschedules alarms by label.
	IntentUpdateAlarm Intent = "update_alarm"
	// IntentShowAlarms lists stored alarms; it executes without confirmation.
	IntentShowAlarms Intent = "show_alarms"
	// IntentConfirm is an affirmative answer while confirming.
	IntentConfirm Intent = "confirm"
	// IntentDeny is a negative answer while confirming.
	IntentDeny Intent = "deny"
	// IntentAbort cancels the in-flight request from any state.
	IntentAbort Intent = "abort"
	// IntentHelp asks for usage instructions.
	IntentHelp Intent = "help"
	// IntentUnknown is anything the classifier could not map.
	IntentUnknown Intent = "unknown"
)

// IsRequest reports whether the intent opens a new in-flight request.
func (i Intent) IsRequest() bool {
	switch i {
	case IntentSetAlarm, IntentCancelAlarm, IntentUpdateAlarm, IntentShowAlarms:
		return true
	default:
		return false
	}
}

// Context holds the dialogue state for one conversation.
type Context struct {
	// ID identifies the conversation (session).
	ID string
	// State is the current FSM state.
	State State
	// Intent is the request currently being resolved.
	Intent Intent
	// Slots maps slot types to validated canonical values.
	Slots map[slot.Type]string
	// Missing lists required slots still outstanding, in prompting order.
	Missing []slot.Type
	// Turns counts processed turns for this conversation.
	Turns int
	// Retries counts consecutive failed clarification attempts.
	Retries int
}

// New returns a fresh context in the idle state.
func New(id string) *Context {
	return &Context{
		ID:     id,
		State:  StateIdle,
		Intent: IntentUnknown,
		Slots:  make(map[slot.Type]string),
	}
}

// Reset discards the in-flight request and returns the context to idle,
// preserving the conversation identity and turn counter.
func (c *Context) Reset() {
	c.State = StateIdle
	c.Intent = IntentUnknown
	c.Slots = make(map[slot.Type]string)
	c.Missing = nil
	c.Retries = 0
}

// Clone returns a deep copy of the context to avoid leaking internal references.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}

	cloned := *c

	cloned.Slots = make(map[slot.Type]string, len(c.Slots))
	for k, v := range c.Slots {
		cloned.Slots[k] = v
	}

	cloned.Missing = append([]slot.Type(nil), c.Missing...)

	return &cloned
}
