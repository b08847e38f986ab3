package main

import "fmt"

const (
	exitGeneric           = 1
	exitConfigRequired    = 2
	exitValidation        = 3
	exitConversionFailure = 4
)

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e exitError) ExitCode() int {
	return e.code
}

func (e exitError) Unwrap() error {
	return e.err
}

// silentExit ends the command with code after the command has already
// explained the failure on stderr.
func silentExit(code int) error {
	return exitError{code: code}
}
