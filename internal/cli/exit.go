package cli

import (
	"errors"
	"fmt"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

// Exit codes of n8n-backup.
const (
	ExitSuccess     = 0   // Backup written (individual resources may have been skipped)
	ExitUsageError  = 1   // Bad arguments, flags or configuration
	ExitOutputError = 2   // The backup could not be written
	ExitVerifyError = 3   // verify found a broken archive
	ExitCanceled    = 130 // Interrupted
)

// CommandError carries the exit code of a failed command.
type CommandError struct {
	Code    int
	Message string
	Cause   error
}

func (e *CommandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// NewError creates a new CommandError.
func NewError(code int, message string, cause error) *CommandError {
	return &CommandError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if backuperrors.IsCanceled(err) {
		return ExitCanceled
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code
	}
	// Cobra reports unknown flags and bad argument counts as plain errors.
	return ExitUsageError
}
