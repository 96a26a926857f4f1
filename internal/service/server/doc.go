// Package server wires the whole assistant together and runs the HTTP
// process: configuration, SQLite-backed scheduler, chat service, websocket
// hub and the due-alarm broadcaster, with graceful shutdown.
package server
