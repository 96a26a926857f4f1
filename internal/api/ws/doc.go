// Package ws pushes fired-alarm notifications to websocket subscribers. The
// hub tracks connected clients; the broadcaster polls the due check on a
// fixed cadence and fans results out to everyone connected.
package ws
