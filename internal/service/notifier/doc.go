// Package notifier implements the desktop companion process: it subscribes
// to the server's notification stream and announces ringing alarms, with
// automatic reconnection when the server goes away.
package notifier
