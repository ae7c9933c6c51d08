package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Routing(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewLogger(&stdout, &stderr, Options{})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	assert.Equal(t, "info message\n", stdout.String())
	assert.Equal(t, "warn message\nerror message\n", stderr.String())
}

func TestNewLogger_Verbose(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewLogger(&stdout, &stderr, Options{Verbose: true})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	assert.Equal(t, "DEBUG\tdebug message\nINFO\tinfo message\n", stdout.String())
	assert.Equal(t, "WARN\twarn message\n", stderr.String())
}

func TestNewLogger_Quiet(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewLogger(&stdout, &stderr, Options{Quiet: true})

	logger.Info("info message")
	logger.Warn("warn message")

	assert.Empty(t, stdout.String())
	assert.Equal(t, "warn message\n", stderr.String())
}

func TestNewLogger_File(t *testing.T) {
	var stdout, stderr, file bytes.Buffer
	logger := NewLogger(&stdout, &stderr, Options{Quiet: true, File: &file})

	logger.Debug("debug message")
	logger.Error("error message")

	assert.Contains(t, file.String(), "DEBUG\tdebug message")
	assert.Contains(t, file.String(), "ERROR\terror message")
	assert.Equal(t, "error message\n", stderr.String())
}

func TestNewLogger_Color(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewLogger(&stdout, &stderr, Options{Color: true})

	logger.Info("plain")
	logger.Warn("careful")

	assert.Equal(t, "plain\n", stdout.String())
	assert.Contains(t, stderr.String(), "careful")
	assert.Contains(t, stderr.String(), "\x1b[")
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Error("dropped")
}
