// Package main provides the realtime CLI tool.
//
// Usage:
//
//	realtime [flags] <command> [args]
//
// Commands:
//
//	chat     - Interactive text/audio session with a realtime model
//	decode   - Decode recorded server frames into events
//	config   - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.giztoy/realtime/
//	Use 'realtime config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/realtime/cmd/realtime/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
