package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the n8n-backup command. Running it without a
// sub-command performs a backup.
func NewRootCommand(info VersionInfo) *cobra.Command {
	return newRootCommand(info, &GlobalOptions{}, &BackupOptions{})
}

func newRootCommand(info VersionInfo, globals *GlobalOptions, opts *BackupOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "n8n-backup <baseUrl> <apiKey> [flags]",
		Short: "Back up an n8n instance through its public REST API",
		Long: `n8n-backup exports the workflows, users, executions, tags, variables and
projects of an n8n instance into a single .zip archive or a directory of
JSON files.

Notes:
  - By default, all resources are exported.
  - If any of the resource flags are set, only those resources are exported.
  - Default output is a single .zip with per-workflow JSON files and aggregate
    JSON files for other resources.
  - Use --dir to export plain JSON files into a directory instead of a .zip.
  - License-restricted endpoints are skipped with a warning; export continues.

baseUrl and apiKey may also come from the config file or from
N8N_BACKUP_BASE_URL and N8N_BACKUP_API_KEY.`,
		Example: `  n8n-backup https://n8n.example.com "$N8N_API_KEY"
  n8n-backup https://n8n.example.com "$N8N_API_KEY" --dir --pretty --out ./snapshot
  n8n-backup https://n8n.example.com "$N8N_API_KEY" --workflows --tags
  n8n-backup init https://n8n.example.com --api-key-env N8N_API_KEY
  n8n-backup verify backups/n8n-n8n.example.com-20240501-100000.zip`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date),
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, args, globals, opts, info.Version)
		},
	}

	AddGlobalFlags(cmd, globals)
	addBackupFlags(cmd, opts)

	cmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands
	cmd.AddCommand(NewInitCommand(globals))
	cmd.AddCommand(NewVerifyCommand(globals))
	cmd.AddCommand(NewVersionCommand(info))

	return cmd
}

// Execute runs cmd and returns the process exit code. Errors are printed
// to the command's stderr.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	printError(cmd.ErrOrStderr(), err)
	code := ExitCode(err)
	if code == ExitUsageError {
		fmt.Fprintf(cmd.ErrOrStderr(), "Run '%s --help' for usage.\n", cmd.CommandPath())
	}
	return code
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", symErr, err)
}
