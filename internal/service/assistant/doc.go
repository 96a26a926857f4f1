// Package assistant orchestrates conversations. It owns one dialogue context
// per session, routes each utterance through the classifier and the state
// machine, and executes finalized requests against the scheduler. Turns
// within a session are serialized; sessions are independent.
package assistant
