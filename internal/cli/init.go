package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazuruo/n8n-backup/internal/config"
)

// InitOptions contains the options for the init command.
type InitOptions struct {
	APIKey    string
	APIKeyEnv string
	Out       string
	Dir       bool
	Pretty    bool
	Insecure  bool
	Timeout   time.Duration
	Force     bool
	Include   config.IncludeConfig
}

// NewInitCommand creates the init command.
func NewInitCommand(globals *GlobalOptions) *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init [baseUrl]",
		Short: "Write a config file",
		Long: `Write an n8n-backup config file from flags.

The file goes to --config, or to ~/.config/n8n-backup/config.toml
($XDG_CONFIG_HOME is honored). A .yaml or .yml path writes YAML.
The file is created readable by the owner only.

Prefer --api-key-env over --api-key: the key then stays in the
environment instead of the file.`,
		Example: `  n8n-backup init https://n8n.example.com --api-key-env N8N_API_KEY --pretty
  n8n-backup init https://n8n.example.com --config ./n8n-backup.yaml --dir --out ./snapshots`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, globals, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.APIKey, "api-key", "", "API key to store in the file")
	flags.StringVar(&opts.APIKeyEnv, "api-key-env", "", "environment variable holding the API key (default: N8N_API_KEY)")
	flags.StringVarP(&opts.Out, "out", "o", "", "default output path")
	flags.BoolVar(&opts.Dir, "dir", false, "write JSON files to a directory by default")
	flags.BoolVar(&opts.Pretty, "pretty", false, "pretty-print workflow JSON files by default")
	flags.BoolVar(&opts.Insecure, "insecure", false, "skip TLS validation by default")
	flags.DurationVar(&opts.Timeout, "timeout", 0, "per-request timeout, e.g. 30s")
	flags.BoolVar(&opts.Force, "force", false, "overwrite an existing config file")

	flags.BoolVar(&opts.Include.Workflows, "workflows", false, "include workflows")
	flags.BoolVar(&opts.Include.Users, "users", false, "include users")
	flags.BoolVar(&opts.Include.Executions, "executions", false, "include executions")
	flags.BoolVar(&opts.Include.Tags, "tags", false, "include tags")
	flags.BoolVar(&opts.Include.Variables, "variables", false, "include variables")
	flags.BoolVar(&opts.Include.Projects, "projects", false, "include projects")

	return cmd
}

func runInit(cmd *cobra.Command, globals *GlobalOptions, opts *InitOptions, args []string) error {
	path := globals.ConfigPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return NewError(ExitUsageError, "cannot place config file", err)
		}
	}

	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return NewError(ExitUsageError, fmt.Sprintf("config file %s already exists (use --force to overwrite)", path), nil)
		}
	}

	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Server.BaseURL = args[0]
	}
	cfg.Server.APIKey = opts.APIKey
	if cmd.Flags().Changed("api-key-env") {
		cfg.Server.APIKeyEnv = opts.APIKeyEnv
	}
	cfg.Server.Insecure = opts.Insecure
	cfg.HTTP.Timeout = opts.Timeout
	cfg.Output.Path = opts.Out
	cfg.Output.Dir = opts.Dir
	cfg.Output.Pretty = opts.Pretty
	cfg.Include = opts.Include

	if err := cfg.Validate(); err != nil {
		return NewError(ExitUsageError, "invalid options", err)
	}
	if err := config.Write(path, cfg); err != nil {
		return NewError(ExitOutputError, "failed to write config", err)
	}

	color := !globals.NoColor && useColor(config.ColorAuto, cmd.OutOrStdout())
	u := newUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), color, globals.Quiet, globals.Verbose)
	u.done("Wrote config to %s", path)
	if cfg.Server.APIKey != "" {
		u.info("The API key is stored in plain text.")
	}
	return nil
}
