// Command guardian runs the fixed-point resonator frontend over PCM files,
// measures the bank and serves feature vectors over WebSocket.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
