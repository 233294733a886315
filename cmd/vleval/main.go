package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes.
const (
	ExitSuccess = 0 // no regression, command succeeded
	ExitWarn    = 1 // minor or moderate regressions detected
	ExitError   = 2 // severe/critical regressions, or a runtime error
)

// RegressionGateError indicates the regression check itself ran, but the
// comparison found regressions. Code carries the CI exit code.
type RegressionGateError struct {
	Message string
	Code    int
}

func (e *RegressionGateError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var gateErr *RegressionGateError
		if errors.As(err, &gateErr) {
			os.Exit(gateErr.Code)
		}

		// All other errors are configuration/runtime errors.
		os.Exit(ExitError)
	}
}
