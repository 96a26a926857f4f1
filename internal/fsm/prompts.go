package fsm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oshokin/alarm-assistant/internal/domain/conversation"
	"github.com/oshokin/alarm-assistant/internal/slot"
)

// slotPrompts holds clarification prompt pools per intent and slot.
// Pools are rotated by turn counter so repeated prompts do not sound canned.
var slotPrompts = map[conversation.Intent]map[slot.Type][]string{
	conversation.IntentSetAlarm: {
		slot.TypeTime: {
			"What time should this alarm ring?",
			"When do you want to be reminded?",
			"Please tell me the alarm time.",
		},
		slot.TypeLabel: {
			"What would you like to call this alarm?",
			"Give your alarm a name, like 'workout' or 'meeting'.",
		},
		slot.TypeDate: {
			"Which day is this alarm for?",
			"What date should I set this for?",
		},
		slot.TypeRepeat: {
			"Should this alarm repeat daily, or ring just once?",
		},
	},
	conversation.IntentCancelAlarm: {
		slot.TypeLabel: {
			"Which alarm would you like me to cancel?",
			"Tell me the name of the alarm to delete.",
		},
	},
	conversation.IntentUpdateAlarm: {
		slot.TypeLabel: {
			"Which alarm needs updating?",
			"Tell me the name of the alarm to change.",
		},
		slot.TypeTime: {
			"What's the new time for this alarm?",
			"When should I reschedule it to?",
		},
	},
}

// acknowledgments precede the next prompt after a slot is accepted.
var acknowledgments = []string{
	"Got it!",
	"Perfect!",
	"Understood!",
	"Alright!",
}

// HelpText describes what the assistant can do. It is served verbatim by the
// help endpoint and as the reply to a help intent.
const HelpText = `I can manage your alarms. Try:
  - "set a workout alarm for 7:30 AM"
  - "wake me at 14:30 tomorrow, repeat daily"
  - "show my alarms"
  - "update the workout alarm to 8 AM"
  - "cancel the workout alarm"
Time can be 12-hour or 24-hour; dates can be "today", "tomorrow", a weekday or an exact date.`

// promptFor picks a clarification prompt for the given slot, rotated by turn.
func promptFor(intent conversation.Intent, t slot.Type, turn int) string {
	pool := slotPrompts[intent][t]
	if len(pool) == 0 {
		return fmt.Sprintf("Please provide the %s.", t)
	}

	return pool[turn%len(pool)]
}

// acknowledgmentFor picks an acknowledgment, rotated by turn.
func acknowledgmentFor(turn int) string {
	return acknowledgments[turn%len(acknowledgments)]
}

// confirmationSummary renders the collected slots for the confirmation step.
func confirmationSummary(ctx *conversation.Context) string {
	keys := make([]string, 0, len(ctx.Slots))
	for t := range ctx.Slots {
		keys = append(keys, string(t))
	}

	sort.Strings(keys)

	var b strings.Builder

	b.WriteString("Let me confirm:")

	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, ctx.Slots[slot.Type(k)])
	}

	b.WriteString(". Should I go ahead? (yes/no)")

	return b.String()
}
