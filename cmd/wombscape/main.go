// Package main provides the wombscape CLI tool.
//
// Usage:
//
//	wombscape [flags] <command> [args]
//
// Commands:
//
//	render   - Render a womb bed to a WAV file (local or s3://)
//	stream   - Serve live beds over websocket and RTP
//	preset   - List and inspect presets
//	catalog  - Browse past renders
//	inspect  - Show a WAV file's header and levels
//	config   - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.wombscape/wombscape/
//	Use 'wombscape config' commands to manage contexts.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/wombscape/cmd/wombscape/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
