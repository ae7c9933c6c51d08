package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
)

func TestExitCode(t *testing.T) {
	canceled := backuperrors.Wrapf(backuperrors.ErrCanceled, context.Canceled, "export")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"command error", NewError(ExitOutputError, "failed to write backup", errors.New("disk full")), ExitOutputError},
		{"wrapped command error", fmt.Errorf("run: %w", NewError(ExitVerifyError, "broken", nil)), ExitVerifyError},
		{"canceled", canceled, ExitCanceled},
		{"canceled while writing", NewError(ExitOutputError, "failed to write backup", canceled), ExitCanceled},
		{"plain error", errors.New(`unknown flag: --nope`), ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCommandError(t *testing.T) {
	err := NewError(ExitUsageError, "invalid options", errors.New("timeout must not be negative"))
	if got := err.Error(); got != "invalid options: timeout must not be negative" {
		t.Errorf("Error() = %q", got)
	}
	if errors.Unwrap(err) == nil {
		t.Error("Unwrap() = nil, want cause")
	}

	bare := NewError(ExitUsageError, "missing arguments", nil)
	if got := bare.Error(); got != "missing arguments" {
		t.Errorf("Error() = %q", got)
	}
}
