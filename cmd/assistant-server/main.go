package main

import "github.com/oshokin/alarm-assistant/cmd/assistant-server/cmd"

func main() {
	cmd.Execute()
}
