// Command mineralctl queries the mineral statistics sources from the shell
// and exports normalized observations to Postgres.
package main

import (
	"fmt"
	"os"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprint(os.Stderr, errorLines(err))
		os.Exit(1)
	}
}

// errorLines formats a command failure: the caller-facing message with its
// code when one applies, then the technical detail.
func errorLines(err error) string {
	if core.IsUserFacing(err) {
		return fmt.Sprintf("error: %s\n  detail: %v\n", core.FormatUserError(err), err)
	}
	return fmt.Sprintf("error: %v\n", err)
}
