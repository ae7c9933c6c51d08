// Package log builds the console logger of n8n-backup: info goes to
// stdout, warnings and errors to stderr, debug only with verbose output.
package log

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Options configures NewLogger.
type Options struct {
	// Verbose enables debug messages and level prefixes.
	Verbose bool
	// Quiet drops info messages. Warnings and errors are always shown.
	Quiet bool
	// Color styles warnings and errors.
	Color bool
	// File, when set, receives every message with a timestamp.
	File io.Writer
}

// NewLogger creates the console logger.
func NewLogger(stdout io.Writer, stderr io.Writer, opts Options) *zap.SugaredLogger {
	var cores []zapcore.Core

	// Log to file
	if opts.File != nil {
		cores = append(cores, fileCore(opts.File))
	}

	// Log to stdout
	if !opts.Quiet {
		cores = append(cores, stdoutCore(stdout, opts))
	}

	// Log to stderr
	cores = append(cores, stderrCore(stderr, opts))

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

// Nop returns a logger that drops everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func fileCore(w io.Writer) zapcore.Core {
	// Log all
	levels := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return true })

	// Log time, level, msg
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: "\t",
	})
	return zapcore.NewCore(encoder, zapcore.AddSync(w), levels)
}

func stdoutCore(stdout io.Writer, opts Options) zapcore.Core {
	levels := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		// Log debug, info -> if verbose output enabled
		if opts.Verbose {
			return l == zapcore.DebugLevel || l == zapcore.InfoLevel
		}

		// Log info only
		return l == zapcore.InfoLevel
	})

	return zapcore.NewCore(consoleEncoder(stdout, opts), zapcore.AddSync(stdout), levels)
}

func stderrCore(stderr io.Writer, opts Options) zapcore.Core {
	return zapcore.NewCore(consoleEncoder(stderr, opts), zapcore.AddSync(stderr), zapcore.WarnLevel)
}

func consoleEncoder(w io.Writer, opts Options) zapcore.Encoder {
	// Prefix messages with level only when verbose enabled
	levelKey := ""
	if opts.Verbose {
		levelKey = "level"
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         levelKey,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: "\t",
	})
	if !opts.Color {
		return encoder
	}
	return &styledEncoder{Encoder: encoder, styles: levelStyles(w)}
}

// levelStyles returns the message styles per level. Colors are forced on
// because the caller already decided that w wants them.
func levelStyles(w io.Writer) map[zapcore.Level]lipgloss.Style {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)
	return map[zapcore.Level]lipgloss.Style{
		zapcore.DebugLevel: r.NewStyle().Faint(true),
		zapcore.WarnLevel:  r.NewStyle().Foreground(lipgloss.Color("226")),
		zapcore.ErrorLevel: r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// styledEncoder renders the message of an entry with the style of its
// level.
type styledEncoder struct {
	zapcore.Encoder
	styles map[zapcore.Level]lipgloss.Style
}

func (e *styledEncoder) Clone() zapcore.Encoder {
	return &styledEncoder{Encoder: e.Encoder.Clone(), styles: e.styles}
}

func (e *styledEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if style, ok := e.styles[entry.Level]; ok {
		entry.Message = style.Render(entry.Message)
	}
	return e.Encoder.EncodeEntry(entry, fields)
}
