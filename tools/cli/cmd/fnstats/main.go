// Command fnstats runs the filtered stats engine from a terminal, either
// against the live stores or offline over an exported telemetry file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
