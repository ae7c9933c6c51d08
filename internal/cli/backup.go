package cli

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/cobra"

	"github.com/chazuruo/n8n-backup/internal/backup"
	"github.com/chazuruo/n8n-backup/internal/config"
	"github.com/chazuruo/n8n-backup/internal/n8n"
	"github.com/chazuruo/n8n-backup/internal/output"
	"github.com/chazuruo/n8n-backup/internal/resource"
)

// stampPattern formats the local time in default output names.
const stampPattern = "%Y%m%d-%H%M%S"

// BackupOptions contains the options for the backup command.
type BackupOptions struct {
	Out      string
	Dir      bool
	Pretty   bool
	Insecure bool
	Timeout  time.Duration
	Include  config.IncludeConfig

	clock clockwork.Clock
}

func addBackupFlags(cmd *cobra.Command, opts *BackupOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.Out, "out", "o", "", "output path (default zip: backups/n8n-<host>-<timestamp>.zip)")
	flags.BoolVar(&opts.Dir, "dir", false, "write JSON files to a directory instead of a .zip")
	flags.BoolVar(&opts.Pretty, "pretty", false, "pretty-print workflow JSON files")
	flags.BoolVar(&opts.Insecure, "insecure", false, "allow self-signed TLS certificates (skip TLS validation)")
	flags.DurationVar(&opts.Timeout, "timeout", 0, "per-request timeout, e.g. 30s (default: none)")

	flags.BoolVar(&opts.Include.Workflows, "workflows", false, "include workflows")
	flags.BoolVar(&opts.Include.Users, "users", false, "include users")
	flags.BoolVar(&opts.Include.Executions, "executions", false, "include executions")
	flags.BoolVar(&opts.Include.Tags, "tags", false, "include tags")
	flags.BoolVar(&opts.Include.Variables, "variables", false, "include variables")
	flags.BoolVar(&opts.Include.Projects, "projects", false, "include projects")
}

// applyFlags merges positional arguments and explicitly set flags over
// cfg. Resource flags replace the configured selection as a whole when
// any of them is given.
func (o *BackupOptions) applyFlags(cmd *cobra.Command, args []string, cfg *config.Config) {
	if len(args) > 0 {
		cfg.Server.BaseURL = args[0]
	}
	if len(args) > 1 {
		cfg.Server.APIKey = args[1]
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Path = o.Out
	}
	if flags.Changed("dir") {
		cfg.Output.Dir = o.Dir
	}
	if flags.Changed("pretty") {
		cfg.Output.Pretty = o.Pretty
	}
	if flags.Changed("insecure") {
		cfg.Server.Insecure = o.Insecure
	}
	if flags.Changed("timeout") {
		cfg.HTTP.Timeout = o.Timeout
	}

	for _, kind := range resource.All {
		if flags.Changed(kind.String()) {
			cfg.Include = o.Include
			break
		}
	}
}

func runBackup(cmd *cobra.Command, args []string, globals *GlobalOptions, opts *BackupOptions, version string) error {
	cfg, err := globals.loadConfig(cmd)
	if err != nil {
		return err
	}
	opts.applyFlags(cmd, args, cfg)

	if err := cfg.Validate(); err != nil {
		return NewError(ExitUsageError, "invalid options", err)
	}
	if err := cfg.RequireServer(); err != nil {
		return NewError(ExitUsageError, "missing arguments: baseUrl and apiKey are required", err)
	}

	logger, closeLog, err := globals.newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	clock := opts.clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	u := newUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), useColor(cfg.Log.Color, cmd.OutOrStdout()), cfg.Log.Quiet, cfg.Log.Verbose)
	sel := cfg.Include.Selection()

	userAgent := cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = "n8n-backup/" + version
	}

	exp, err := backup.New(backup.Options{
		BaseURL:   cfg.Server.BaseURL,
		APIKey:    cfg.APIKey(),
		Insecure:  cfg.Server.Insecure,
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: userAgent,
		Selection: sel,
		Pretty:    cfg.Output.Pretty,
		Clock:     clock,
		Logger:    logger,
		Progress:  u.progressHook(),
	})
	if err != nil {
		return NewError(ExitUsageError, "invalid options", err)
	}

	u.banner()
	u.step("Connecting to %s ...", exp.BaseURL())
	logger.Debugf("Exporting %s", strings.Join(kindNames(sel.Kinds()), ", "))

	res, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	mode := output.ModeArchive
	if cfg.Output.Dir {
		mode = output.ModeDir
	}
	target, err := resolveOutputPath(cfg.Output.Path, mode, exp.BaseURL(), clock.Now())
	if err != nil {
		return NewError(ExitUsageError, "invalid output path", err)
	}

	w := output.New(mode, globals.filesystem(), target, output.Options{Pretty: cfg.Output.Pretty, Clock: clock})
	if mode == output.ModeDir {
		u.info("Writing JSON files to: %s", target)
	} else {
		u.info("Creating archive: %s", target)
	}

	if err := w.Write(cmd.Context(), res.Files); err != nil {
		return NewError(ExitOutputError, "failed to write backup", err)
	}

	u.summary(sel, res.Manifest, res.Skipped)
	if mode == output.ModeDir {
		u.done("Done. Wrote data to %s", filepath.Join(target, backup.IndexFile))
	} else {
		u.done("Done. Archived to %s", target)
	}
	return nil
}

// resolveOutputPath picks the backup location. Directory mode uses out
// as is. Archive mode uses out when it names a .zip file and otherwise
// treats it as the folder for the default file name. An empty out means
// the default name below config.DefaultOutputRoot.
func resolveOutputPath(out string, mode output.Mode, baseURL string, now time.Time) (string, error) {
	stamp, err := strftime.Format(stampPattern, now)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("n8n-%s-%s", hostOf(baseURL), stamp)

	if mode == output.ModeDir {
		if out != "" {
			return out, nil
		}
		return filepath.Join(config.DefaultOutputRoot, name), nil
	}

	switch {
	case strings.HasSuffix(out, ".zip"):
		return out, nil
	case out != "":
		return filepath.Join(out, name+".zip"), nil
	default:
		return filepath.Join(config.DefaultOutputRoot, name+".zip"), nil
	}
}

// hostOf returns the host name of baseURL without the port, or "n8n" when
// it has none.
func hostOf(baseURL string) string {
	u, err := url.Parse(n8n.NormalizeBaseURL(baseURL))
	if err != nil || u.Hostname() == "" {
		return "n8n"
	}
	return u.Hostname()
}

func kindNames(kinds []resource.Kind) []string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.String())
	}
	return names
}
