// Package main provides the lw CLI, a guided walkthrough of a mock loan
// underwriting workflow.
package main

import (
	"fmt"
	"os"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	debug.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
