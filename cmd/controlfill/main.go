package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess = 0 // Every pending row was filled
	ExitError   = 1 // Authentication, retry exhaustion, I/O or configuration failure
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitError)
	}
}
