package nlu

import (
	"regexp"
	"strings"

	"github.com/oshokin/alarm-assistant/internal/domain/conversation"
	"github.com/oshokin/alarm-assistant/internal/slot"
)

// Result is the classified utterance handed to the dialogue machine.
type Result struct {
	// Intent is the detected purpose of the utterance.
	Intent conversation.Intent
	// Entities maps slot types to raw extracted values. Values are raw on
	// purpose: validation belongs to the slot validators, so a recognized but
	// invalid value still produces a helpful clarification prompt.
	Entities map[slot.Type]string
}

// intentRule binds a request intent to the phrasings that trigger it.
type intentRule struct {
	intent   conversation.Intent
	patterns []*regexp.Regexp
}

// compileAll compiles a pattern list, panicking on programmer error.
func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}

	return compiled
}

// intentRules are checked in order; the first matching rule wins.
var intentRules = []intentRule{
	{
		intent: conversation.IntentSetAlarm,
		patterns: compileAll(
			`set.*alarm`, `create.*alarm`, `new.*alarm`, `add.*alarm`,
			`\bschedule\b.*alarm`, `wake.*me`, `remind.*me`, `alarm.*for`,
		),
	},
	{
		intent: conversation.IntentCancelAlarm,
		patterns: compileAll(
			`cancel.*alarm`, `delete.*alarm`, `remove.*alarm`,
			`turn.*off.*alarm`,
		),
	},
	{
		intent: conversation.IntentUpdateAlarm,
		patterns: compileAll(
			`update.*alarm`, `change.*alarm`, `modify.*alarm`,
			`move.*alarm`, `reschedule.*alarm`, `edit.*alarm`,
		),
	},
	{
		intent: conversation.IntentShowAlarms,
		patterns: compileAll(
			`show.*alarm`, `list.*alarm`, `display.*alarm`,
			`what.*alarm`, `my.*alarms`, `check.*alarm`,
		),
	},
}

// helpPattern matches requests for usage instructions.
var helpPattern = regexp.MustCompile(`^help$|what can you do|how do(es)? (you|this) work`)

var (
	// confirmWords are affirmative answers to the confirmation question.
	confirmWords = wordSet("yes", "y", "yeah", "yep", "yup", "confirm", "correct", "right", "ok", "okay", "sure")
	// denyWords are negative answers to the confirmation question.
	denyWords = wordSet("no", "n", "nope", "nah", "wrong", "incorrect", "cancel")
	// abortWords drop the in-flight request from any state.
	abortWords = wordSet("nevermind", "abort", "quit", "exit", "stop", "reset", "restart", "cancel")
)

// abortPhrases are multi-word abort spellings checked against the whole text.
var abortPhrases = []string{"never mind", "forget it", "start over"}

// Entity patterns. Times require a colon or a meridiem so bare digits are not
// misread; dates cover relative terms, weekdays and explicit forms.
var (
	timeEntityPattern = regexp.MustCompile(
		`\b\d{1,2}:\d{2}\s*(?:am|pm)?\b|\b\d{1,2}\s*(?:am|pm)\b|\b(?:noon|midday|midnight|morning|afternoon|evening|night)\b`)
	dateEntityPattern = regexp.MustCompile(
		`\b(?:today|tomorrow|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b|\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{4}\b`)
	repeatEntityPattern = regexp.MustCompile(
		`\bevery\s?day\b|\beach day\b|\bdaily\b|\bweekly\b|\bmonthly\b|\byearly\b|\bjust once\b|\bonce\b|\bone-time\b`)
)

// labelContextPattern gates label extraction: without one of these cues the
// leftover words are treated as conversational filler, not a name.
var labelContextPattern = regexp.MustCompile(`\b(?:called|named|label|for|alarm)\b`)

// labelTokenPattern accepts plain words as label candidates.
var labelTokenPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// skipWords never become part of a label.
var skipWords = wordSet(
	"set", "create", "new", "add", "schedule", "wake", "remind", "cancel",
	"delete", "remove", "update", "change", "modify", "move", "reschedule",
	"edit", "show", "list", "display", "check", "what", "turn", "off", "on",
	"alarm", "alarms", "clock", "for", "at", "in", "to", "the", "a", "an",
	"called", "named", "name", "label", "call", "it", "please", "can", "could",
	"would", "will", "i", "want", "need", "like", "my", "me", "up", "and",
	"or", "but", "so", "then", "now", "also", "repeat", "every", "day",
)

// Classifier turns raw text into (intent, entities). It holds no mutable
// state and is safe for concurrent use.
type Classifier struct{}

// New returns the pattern-based classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify analyzes one utterance. The dialogue state disambiguates yes/no
// answers, and the prompted slot lets a bare answer ("7:30", "workout") be
// routed to the slot the assistant just asked about.
func (c *Classifier) Classify(text string, state conversation.State, prompted slot.Type) Result {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	tokens := strings.Fields(lower)

	if state == conversation.StateConfirming {
		if containsAny(tokens, confirmWords) {
			return Result{Intent: conversation.IntentConfirm}
		}

		if containsAny(tokens, denyWords) {
			return Result{Intent: conversation.IntentDeny}
		}
	}

	if helpPattern.MatchString(lower) {
		return Result{Intent: conversation.IntentHelp}
	}

	entities := c.extractEntities(lower, prompted)

	for _, rule := range intentRules {
		for _, pattern := range rule.patterns {
			if pattern.MatchString(lower) {
				return Result{Intent: rule.intent, Entities: entities}
			}
		}
	}

	if isAbort(lower, tokens) {
		return Result{Intent: conversation.IntentAbort}
	}

	// A bare answer to an open question fills the prompted slot even when no
	// entity pattern recognized it; the validator decides whether it parses.
	if len(entities) == 0 && prompted != "" && trimmed != "" {
		entities[prompted] = trimmed
	}

	return Result{Intent: conversation.IntentUnknown, Entities: entities}
}

// extractEntities pulls time, date and repeat values out of the text, then
// treats the leftover words as label candidates.
func (c *Classifier) extractEntities(lower string, prompted slot.Type) map[slot.Type]string {
	entities := make(map[slot.Type]string)
	remaining := lower

	for _, extraction := range []struct {
		slot    slot.Type
		pattern *regexp.Regexp
	}{
		{slot.TypeTime, timeEntityPattern},
		{slot.TypeDate, dateEntityPattern},
		{slot.TypeRepeat, repeatEntityPattern},
	} {
		match := extraction.pattern.FindString(remaining)
		if match == "" {
			continue
		}

		entities[extraction.slot] = strings.TrimSpace(match)
		remaining = strings.Replace(remaining, match, " ", 1)
	}

	label := c.extractLabel(lower, remaining, prompted)
	if label != "" {
		entities[slot.TypeLabel] = label
	}

	return entities
}

// extractLabel collects non-skip words left after entity extraction. Labels
// are only extracted when the utterance carries a naming cue, or when the
// label slot is the one currently being asked about.
func (c *Classifier) extractLabel(lower, remaining string, prompted slot.Type) string {
	if prompted != slot.TypeLabel && !labelContextPattern.MatchString(lower) {
		return ""
	}

	var words []string

	for _, token := range strings.Fields(remaining) {
		if _, skip := skipWords[token]; skip {
			continue
		}

		if len(token) < 2 || !labelTokenPattern.MatchString(token) {
			continue
		}

		words = append(words, token)
	}

	return strings.Join(words, " ")
}

// isAbort reports whether the utterance drops the in-flight request.
func isAbort(lower string, tokens []string) bool {
	for _, phrase := range abortPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return containsAny(tokens, abortWords)
}

// wordSet builds a membership set from words.
func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	return set
}

// containsAny reports whether any token is in the set.
func containsAny(tokens []string, set map[string]struct{}) bool {
	for _, token := range tokens {
		if _, ok := set[token]; ok {
			return true
		}
	}

	return false
}
