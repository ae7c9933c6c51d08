// Package cli provides Cobra command definitions for n8n-backup.
package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazuruo/n8n-backup/internal/config"
	backuperrors "github.com/chazuruo/n8n-backup/internal/errors"
	"github.com/chazuruo/n8n-backup/internal/log"
)

// GlobalOptions are the flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	EnvFile    string
	LogFile    string
	Verbose    bool
	Quiet      bool
	NoColor    bool

	// fs is the filesystem output goes to. Tests swap it.
	fs afero.Fs
}

// AddGlobalFlags adds global flags to a command.
func AddGlobalFlags(cmd *cobra.Command, opts *GlobalOptions) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file path (default: ~/.config/n8n-backup/config.toml)")
	flags.StringVar(&opts.EnvFile, "env-file", "", "load environment variables from a .env file")
	flags.StringVar(&opts.LogFile, "log-file", "", "also write a full debug log to this file")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "print debug output, including every HTTP request")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "print warnings and errors only")
	flags.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
}

func (g *GlobalOptions) filesystem() afero.Fs {
	if g.fs == nil {
		return afero.NewOsFs()
	}
	return g.fs
}

// loadConfig loads the .env file, then the config file, then applies the
// global flags on top.
func (g *GlobalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if g.EnvFile != "" {
		if err := config.LoadEnvFile(g.EnvFile); err != nil {
			return nil, NewError(ExitUsageError, "failed to load env file", err)
		}
	}

	var cfg *config.Config
	var err error
	if g.ConfigPath != "" {
		cfg, err = config.Load(g.ConfigPath)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		return nil, NewError(ExitUsageError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Log.Verbose = g.Verbose
	}
	if flags.Changed("quiet") {
		cfg.Log.Quiet = g.Quiet
	}
	if g.NoColor {
		cfg.Log.Color = config.ColorNever
	}

	if err := cfg.Validate(); err != nil {
		return nil, NewError(ExitUsageError, "invalid options", err)
	}
	return cfg, nil
}

// newLogger builds the console logger for cfg. The returned close
// function flushes and closes the log file, if any.
func (g *GlobalOptions) newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.SugaredLogger, func(), error) {
	opts := log.Options{
		Verbose: cfg.Log.Verbose,
		Quiet:   cfg.Log.Quiet,
		Color:   useColor(cfg.Log.Color, cmd.ErrOrStderr()),
	}

	closeFn := func() {}
	if g.LogFile != "" {
		f, err := os.OpenFile(g.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, NewError(ExitUsageError, "failed to open log file", backuperrors.Wrapf(backuperrors.ErrIO, err, g.LogFile))
		}
		opts.File = f
		closeFn = func() { _ = f.Close() }
	}

	logger := log.NewLogger(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
	return logger, func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}

// useColor resolves a color mode against the writer. "auto" colors only
// terminals and honors NO_COLOR.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
