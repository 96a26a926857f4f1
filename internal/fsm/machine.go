package fsm

import (
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/alarm-assistant/internal/domain/alarm"
	"github.com/oshokin/alarm-assistant/internal/domain/conversation"
	"github.com/oshokin/alarm-assistant/internal/slot"
)

// Turn is one conversational turn as classified by the NLU collaborator.
type Turn struct {
	// Intent is the classified purpose of the utterance.
	Intent conversation.Intent
	// Entities maps slot types to raw extracted values. When the NLU sees the
	// same slot twice in one utterance, the last value wins before it gets here.
	Entities map[slot.Type]string
	// Now is the instant the turn is processed, used for date resolution.
	Now time.Time
}

// Criteria selects existing alarms for cancel/update/show requests.
type Criteria struct {
	// Label matches alarms by name.
	Label string
	// Time is the new canonical time for updates.
	Time string
	// Date is the new canonical date for updates.
	Date string
	// Repeat is the new repeat mode for updates.
	Repeat string
}

// Completion carries a finalized request out of the state machine.
type Completion struct {
	// Intent is the request that completed.
	Intent conversation.Intent
	// Request is the validated alarm request for set_alarm completions.
	Request *alarm.Request
	// Criteria selects alarms for cancel/update/show completions.
	Criteria Criteria
}

// Outcome is the result of processing one turn.
type Outcome struct {
	// State is the FSM state after the turn.
	State conversation.State
	// Reply is the assistant's user-facing text for this turn.
	Reply string
	// Prompted names the slot currently asked for, if any.
	Prompted slot.Type
	// Reason is the validation failure that caused a re-prompt, if any.
	Reason string
	// Completed is non-nil when a request finalized this turn.
	Completed *Completion
}

// requiredSlots lists mandatory slots per request intent, in prompting order.
// Time is the only mandatory slot for new alarms: date, label and repeat all
// carry defaults and never block completion.
var requiredSlots = map[conversation.Intent][]slot.Type{
	conversation.IntentSetAlarm:    {slot.TypeTime},
	conversation.IntentCancelAlarm: {slot.TypeLabel},
	conversation.IntentUpdateAlarm: {slot.TypeLabel, slot.TypeTime},
	conversation.IntentShowAlarms:  {},
}

// mergeOrder fixes the order entities are validated in, so the first reported
// failure is deterministic.
var mergeOrder = []slot.Type{slot.TypeTime, slot.TypeDate, slot.TypeLabel, slot.TypeRepeat}

// maxRetries caps consecutive failed clarification attempts before the
// machine gives up and resets the conversation.
const maxRetries = 3

// Machine is the dialogue state machine. It holds only immutable
// configuration (the validator table) and is safe for concurrent use.
type Machine struct {
	validators map[slot.Type]slot.ValidatorFunc
}

// New returns a machine backed by the standard slot validator table.
func New() *Machine {
	return &Machine{
		validators: slot.Table(),
	}
}

// Step advances the conversation by one turn. The context is mutated in place
// and remains the single source of dialogue state.
func (m *Machine) Step(ctx *conversation.Context, turn Turn) Outcome {
	ctx.Turns++

	// Abort and help are honored from every state.
	switch turn.Intent {
	case conversation.IntentAbort:
		ctx.Reset()

		return Outcome{
			State: ctx.State,
			Reply: "No problem, I've dropped that. What else can I help you with?",
		}
	case conversation.IntentHelp:
		return Outcome{
			State: ctx.State,
			Reply: HelpText,
		}
	}

	switch ctx.State {
	case conversation.StateIdle:
		return m.stepIdle(ctx, turn)
	case conversation.StateCollecting:
		return m.stepCollecting(ctx, turn)
	case conversation.StateConfirming:
		return m.stepConfirming(ctx, turn)
	default:
		ctx.Reset()

		return Outcome{
			State: ctx.State,
			Reply: "Let's start over. What would you like to do?",
		}
	}
}

// stepIdle opens a new request when the intent asks for one.
func (m *Machine) stepIdle(ctx *conversation.Context, turn Turn) Outcome {
	if !turn.Intent.IsRequest() {
		return Outcome{
			State: ctx.State,
			Reply: "I didn't catch that. Try 'set a workout alarm for 7 AM' or 'show my alarms'.",
		}
	}

	ctx.Intent = turn.Intent
	ctx.State = conversation.StateCollecting
	ctx.Missing = append([]slot.Type(nil), requiredSlots[turn.Intent]...)

	// Listing needs no slots and no confirmation.
	if turn.Intent == conversation.IntentShowAlarms {
		completed := &Completion{
			Intent:   ctx.Intent,
			Criteria: criteriaFromEntities(turn.Entities),
		}

		ctx.Reset()

		return Outcome{
			State:     ctx.State,
			Reply:     "Here are your alarms.",
			Completed: completed,
		}
	}

	return m.mergeAndAdvance(ctx, turn)
}

// stepCollecting merges newly supplied entities into the in-flight request.
func (m *Machine) stepCollecting(ctx *conversation.Context, turn Turn) Outcome {
	return m.mergeAndAdvance(ctx, turn)
}

// stepConfirming resolves the confirmation question. An affirmative intent
// finalizes the request; a corrective turn carrying slot values routes back
// through merging; a denial resets.
func (m *Machine) stepConfirming(ctx *conversation.Context, turn Turn) Outcome {
	switch turn.Intent {
	case conversation.IntentConfirm:
		return m.finalize(ctx, turn.Now)
	case conversation.IntentDeny:
		ctx.Reset()

		return Outcome{
			State: ctx.State,
			Reply: "No problem, I won't set that. What else can I help you with?",
		}
	default:
		if len(turn.Entities) > 0 {
			return m.mergeAndAdvance(ctx, turn)
		}

		return Outcome{
			State:    ctx.State,
			Reply:    "Please say 'yes' to go ahead or 'no' to drop it.",
			Prompted: "",
		}
	}
}

// mergeAndAdvance validates and stores supplied entities, then either prompts
// for the next outstanding slot or moves to confirmation.
func (m *Machine) mergeAndAdvance(ctx *conversation.Context, turn Turn) Outcome {
	var firstFailure *slot.Invalid

	for _, t := range mergeOrder {
		raw, ok := turn.Entities[t]
		if !ok {
			continue
		}

		validator, known := m.validators[t]
		if !known {
			// Unknown entity types are ignored for conversational robustness.
			continue
		}

		value, err := validator(raw, turn.Now)
		if err != nil {
			var invalid *slot.Invalid
			if !errors.As(err, &invalid) {
				invalid = &slot.Invalid{Slot: t, Reason: err.Error()}
			}

			if firstFailure == nil {
				firstFailure = invalid
			}

			// A failed slot stays (or becomes) outstanding.
			ctx.Missing = ensureMissing(ctx.Missing, t)

			continue
		}

		ctx.Slots[t] = value
		ctx.Missing = removeMissing(ctx.Missing, t)
	}

	if firstFailure != nil {
		ctx.Retries++
		if ctx.Retries >= maxRetries {
			ctx.Reset()

			return Outcome{
				State: ctx.State,
				Reply: "I'm having trouble understanding. Let's start fresh — what would you like to do?",
			}
		}

		return Outcome{
			State:    ctx.State,
			Reply:    fmt.Sprintf("Sorry, %s. %s", firstFailure.Reason, promptFor(ctx.Intent, firstFailure.Slot, ctx.Turns)),
			Prompted: firstFailure.Slot,
			Reason:   firstFailure.Reason,
		}
	}

	ctx.Retries = 0

	if len(ctx.Missing) > 0 {
		next := ctx.Missing[0]

		return Outcome{
			State:    ctx.State,
			Reply:    fmt.Sprintf("%s %s", acknowledgmentFor(ctx.Turns), promptFor(ctx.Intent, next, ctx.Turns)),
			Prompted: next,
		}
	}

	ctx.State = conversation.StateConfirming

	return Outcome{
		State: ctx.State,
		Reply: confirmationSummary(ctx),
	}
}

// finalize builds the completion payload, applying defaults for slots the
// user never supplied, and resets the context to idle.
func (m *Machine) finalize(ctx *conversation.Context, now time.Time) Outcome {
	// Defensive: confirmation is unreachable with outstanding slots, but a
	// completion must never be emitted with one either.
	if len(ctx.Missing) > 0 {
		next := ctx.Missing[0]
		ctx.State = conversation.StateCollecting

		return Outcome{
			State:    ctx.State,
			Reply:    promptFor(ctx.Intent, next, ctx.Turns),
			Prompted: next,
		}
	}

	completed := &Completion{Intent: ctx.Intent}

	switch ctx.Intent {
	case conversation.IntentSetAlarm:
		request := &alarm.Request{
			Label:  ctx.Slots[slot.TypeLabel],
			Time:   ctx.Slots[slot.TypeTime],
			Date:   ctx.Slots[slot.TypeDate],
			Repeat: alarm.RepeatNone,
		}

		if request.Label == "" {
			request.Label = alarm.DefaultLabel
		}

		if r, ok := ctx.Slots[slot.TypeRepeat]; ok {
			request.Repeat = alarm.RepeatMode(r)
		}

		// An explicitly supplied date must still be schedulable at the moment
		// of confirmation.
		if err := slot.ValidateSchedule(request.Date, request.Time, request.Repeat, now); err != nil {
			var invalid *slot.Invalid
			if !errors.As(err, &invalid) {
				invalid = &slot.Invalid{Slot: slot.TypeDate, Reason: err.Error()}
			}

			delete(ctx.Slots, invalid.Slot)

			ctx.State = conversation.StateCollecting
			ctx.Missing = ensureMissing(ctx.Missing, invalid.Slot)

			return Outcome{
				State:    ctx.State,
				Reply:    fmt.Sprintf("Sorry, %s. %s", invalid.Reason, promptFor(ctx.Intent, invalid.Slot, ctx.Turns)),
				Prompted: invalid.Slot,
				Reason:   invalid.Reason,
			}
		}

		completed.Request = request
	case conversation.IntentCancelAlarm, conversation.IntentUpdateAlarm:
		completed.Criteria = Criteria{
			Label:  ctx.Slots[slot.TypeLabel],
			Time:   ctx.Slots[slot.TypeTime],
			Date:   ctx.Slots[slot.TypeDate],
			Repeat: ctx.Slots[slot.TypeRepeat],
		}
	}

	reply := successReply(ctx)

	ctx.Reset()

	return Outcome{
		State:     ctx.State,
		Reply:     reply,
		Completed: completed,
	}
}

// successReply phrases the completion confirmation for the user.
func successReply(ctx *conversation.Context) string {
	label := ctx.Slots[slot.TypeLabel]
	if label == "" {
		label = alarm.DefaultLabel
	}

	switch ctx.Intent {
	case conversation.IntentSetAlarm:
		reply := fmt.Sprintf("Done! Your %q alarm is set for %s", label, ctx.Slots[slot.TypeTime])
		if d := ctx.Slots[slot.TypeDate]; d != "" {
			reply += " on " + d
		}

		if r := ctx.Slots[slot.TypeRepeat]; r == string(alarm.RepeatDaily) {
			reply += ", repeating daily"
		}

		return reply + "."
	case conversation.IntentCancelAlarm:
		return fmt.Sprintf("Done! The %q alarm has been cancelled.", label)
	case conversation.IntentUpdateAlarm:
		return fmt.Sprintf("Done! The %q alarm has been updated to %s.", label, ctx.Slots[slot.TypeTime])
	default:
		return "Done!"
	}
}

// criteriaFromEntities lifts raw entities into listing criteria without
// validation; listing is a read and tolerates loose input.
func criteriaFromEntities(entities map[slot.Type]string) Criteria {
	return Criteria{
		Label: entities[slot.TypeLabel],
		Date:  entities[slot.TypeDate],
	}
}

// ensureMissing adds the slot to the outstanding list if absent.
func ensureMissing(missing []slot.Type, t slot.Type) []slot.Type {
	for _, existing := range missing {
		if existing == t {
			return missing
		}
	}

	return append(missing, t)
}

// removeMissing drops the slot from the outstanding list.
func removeMissing(missing []slot.Type, t slot.Type) []slot.Type {
	result := missing[:0]

	for _, existing := range missing {
		if existing != t {
			result = append(result, existing)
		}
	}

	return result
}
