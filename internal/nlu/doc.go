// Package nlu classifies raw user utterances into an intent and a set of
// extracted entities. It is a pattern-based fallback classifier: the
// orchestrator only consumes the (intent, entities) pair, so a model-backed
// classifier can replace this package without touching the dialogue machine.
package nlu
