package main

import "github.com/oshokin/alarm-assistant/cmd/assistant-notifier/cmd"

func main() {
	cmd.Execute()
}
