// Package http exposes the assistant over a JSON API: the conversational
// chat endpoints, a thin CRUD surface over stored alarms, the idempotent due
// check, and the websocket notification stream.
package http
