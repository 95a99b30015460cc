// Command crashlog sends test errors and installation descriptors to a
// telemetry log, and validates crashlog configuration files.
package main

import (
	"fmt"
	"os"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	app := newCLIApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "crashlog: %v\n", err)
		os.Exit(1)
	}
}
