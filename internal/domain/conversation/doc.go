// Package conversation contains the dialogue-side domain types: the FSM state
// and intent enumerations and the per-conversation Context that carries slot
// values across turns.
//
// A Context is exclusively owned by the orchestrator for the lifetime of one
// conversation and is passed explicitly into every FSM step; there is no
// ambient dialogue state.
package conversation
