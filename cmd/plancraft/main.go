// Command plancraft runs the planning service: one-shot runs from the
// terminal, resuming suspended threads, and serving the HTTP API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
