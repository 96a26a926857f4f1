// Package fsm implements the dialogue state machine that drives slot filling.
//
// The machine is stateless: all conversational state lives in the
// conversation.Context passed into every Step, so independent conversations
// can be processed concurrently. Each step consumes the classified intent and
// extracted entities for one turn and produces either a follow-up prompt or a
// completed, validated request.
package fsm
