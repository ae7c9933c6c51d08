package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazuruo/n8n-backup/internal/config"
	"github.com/chazuruo/n8n-backup/internal/output"
	"github.com/chazuruo/n8n-backup/internal/resource"
	"github.com/chazuruo/n8n-backup/internal/testutil"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// isolateEnv keeps the user's config file and credentials out of a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("N8N_API_KEY", "")
	for _, key := range []string{"BASE_URL", "API_KEY", "SERVER_BASE_URL", "SERVER_API_KEY", "OUTPUT_PATH", "OUTPUT_DIR", "OUTPUT_PRETTY"} {
		t.Setenv(config.EnvPrefix+key, "")
	}
}

type cliRun struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, globals *GlobalOptions, args ...string) cliRun {
	t.Helper()
	if globals == nil {
		globals = &GlobalOptions{}
	}
	opts := &BackupOptions{clock: clockwork.NewFakeClockAt(fixedNow)}
	cmd := newRootCommand(VersionInfo{Version: "1.2.3", Commit: "abc123", Date: "2024-05-01"}, globals, opts)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	code := Execute(context.Background(), cmd)
	return cliRun{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func backupServer(t *testing.T) *testutil.FakeServer {
	t.Helper()
	srv := testutil.NewFakeServer(t, map[string]testutil.Response{
		"/api/v1/workflows":   testutil.OK(`[{"id":"1","name":"Alpha"},{"id":"2","name":"Beta"}]`),
		"/api/v1/workflows/1": testutil.OK(`{"id":"1","name":"Alpha","active":true,"nodes":[]}`),
		"/api/v1/workflows/2": testutil.OK(`{"id":"2","name":"Beta","nodes":[]}`),
		"/api/v1/users":       testutil.Status(403),
		"/api/v1/executions":  testutil.OK(`{"data":[{"id":10}]}`),
		"/api/v1/tags":        testutil.OK(`[{"id":"t1"}]`),
		"/api/v1/variables":   testutil.Status(403),
		"/api/v1/projects":    testutil.OK(`{"data":[]}`),
	})
	srv.APIKey = "secret"
	return srv
}

func TestResolveOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		mode    output.Mode
		baseURL string
		want    string
	}{
		{"default archive", "", output.ModeArchive, "https://n8n.example.com", filepath.Join("backups", "n8n-n8n.example.com-20240501-100000.zip")},
		{"default dir", "", output.ModeDir, "https://n8n.example.com", filepath.Join("backups", "n8n-n8n.example.com-20240501-100000")},
		{"port is dropped", "", output.ModeArchive, "http://localhost:5678/", filepath.Join("backups", "n8n-localhost-20240501-100000.zip")},
		{"no host", "", output.ModeArchive, "", filepath.Join("backups", "n8n-n8n-20240501-100000.zip")},
		{"zip file", "snap/today.zip", output.ModeArchive, "https://n8n.example.com", "snap/today.zip"},
		{"archive folder", "snap", output.ModeArchive, "https://n8n.example.com", filepath.Join("snap", "n8n-n8n.example.com-20240501-100000.zip")},
		{"dir as is", "snap", output.ModeDir, "https://n8n.example.com", "snap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveOutputPath(tt.out, tt.mode, tt.baseURL, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "n8n.example.com", hostOf("https://n8n.example.com/"))
	assert.Equal(t, "10.0.0.5", hostOf("http://10.0.0.5:5678"))
	assert.Equal(t, "n8n", hostOf("not a url"))
}

func TestApplyFlags(t *testing.T) {
	t.Run("positional arguments and changed flags", func(t *testing.T) {
		opts := &BackupOptions{}
		cmd := newRootCommand(VersionInfo{}, &GlobalOptions{}, opts)
		require.NoError(t, cmd.ParseFlags([]string{"--dir", "--timeout", "30s", "--tags"}))

		cfg := config.DefaultConfig()
		cfg.Output.Pretty = true
		cfg.Include.Users = true
		opts.applyFlags(cmd, []string{"https://n8n.example.com", "key"}, cfg)

		assert.Equal(t, "https://n8n.example.com", cfg.Server.BaseURL)
		assert.Equal(t, "key", cfg.Server.APIKey)
		assert.True(t, cfg.Output.Dir)
		assert.True(t, cfg.Output.Pretty, "unchanged flags keep the configured value")
		assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
		assert.Equal(t, []resource.Kind{resource.Tags}, cfg.Include.Selection().Kinds())
	})

	t.Run("configured selection without resource flags", func(t *testing.T) {
		opts := &BackupOptions{}
		cmd := newRootCommand(VersionInfo{}, &GlobalOptions{}, opts)
		require.NoError(t, cmd.ParseFlags(nil))

		cfg := config.DefaultConfig()
		cfg.Include.Users = true
		opts.applyFlags(cmd, nil, cfg)

		assert.Equal(t, []resource.Kind{resource.Users}, cfg.Include.Selection().Kinds())
	})
}

func TestBackup_MissingArguments(t *testing.T) {
	isolateEnv(t)
	srv := backupServer(t)

	res := execute(t, nil, srv.URL)
	assert.Equal(t, ExitUsageError, res.code)
	assert.Contains(t, res.stderr, "missing arguments: baseUrl and apiKey are required")
	assert.Contains(t, res.stderr, "--help")
	assert.Empty(t, srv.Paths(), "no request is made without credentials")
}

func TestBackup_TooManyArguments(t *testing.T) {
	isolateEnv(t)
	res := execute(t, nil, "a", "b", "c")
	assert.Equal(t, ExitUsageError, res.code)
}

func TestBackup_Archive(t *testing.T) {
	isolateEnv(t)
	srv := backupServer(t)
	target := filepath.Join(t.TempDir(), "backup.zip")

	res := execute(t, nil, srv.URL, "secret", "--out", target)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	entries := testutil.ReadZip(t, target)
	assert.Contains(t, entries, "workflows/1-alpha.json")
	assert.Contains(t, entries, "workflows/2-beta.json")
	assert.Contains(t, entries, "executions.json")
	assert.Contains(t, entries, "tags.json")
	assert.Contains(t, entries, "projects.json")
	assert.NotContains(t, entries, "users.json")
	assert.NotContains(t, entries, "variables.json")
	assert.Contains(t, entries["index.json"], `"generatedAt": "2024-05-01T10:00:00.000Z"`)

	assert.Contains(t, res.stdout, "n8n Backup CLI")
	assert.Contains(t, res.stdout, "Found 2 workflows.")
	assert.Contains(t, res.stdout, "Creating archive: "+target)
	assert.Contains(t, res.stdout, "Done. Archived to "+target)
	assert.Contains(t, res.stdout, "skipped")
	assert.Contains(t, res.stderr, "Skipped users:")
	assert.Contains(t, res.stderr, "Skipped variables:")
}

func TestBackup_Directory(t *testing.T) {
	isolateEnv(t)
	srv := backupServer(t)
	target := filepath.Join(t.TempDir(), "snapshot")

	res := execute(t, nil, srv.URL, "secret", "--dir", "--pretty", "--workflows", "--tags", "--out", target)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	tree := testutil.ReadTree(t, target)
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"workflows/1-alpha.json", "workflows/2-beta.json", "tags.json", "index.json"}, keys)
	assert.True(t, strings.HasPrefix(tree["workflows/1-alpha.json"], "{\n  \"id\": \"1\""))

	assert.Equal(t, 0, srv.Hits("/api/v1/users"))
	assert.Contains(t, res.stdout, "Writing JSON files to: "+target)
	assert.Contains(t, res.stdout, "Done. Wrote data to "+filepath.Join(target, "index.json"))
}

func TestBackup_Quiet(t *testing.T) {
	isolateEnv(t)
	srv := backupServer(t)
	target := filepath.Join(t.TempDir(), "backup.zip")

	res := execute(t, nil, srv.URL, "secret", "--quiet", "--out", target)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "Skipped users:")
}

func TestBackup_OutputError(t *testing.T) {
	isolateEnv(t)
	srv := backupServer(t)
	globals := &GlobalOptions{fs: afero.NewReadOnlyFs(afero.NewMemMapFs())}

	res := execute(t, globals, srv.URL, "secret", "--out", "/backups/out.zip")
	assert.Equal(t, ExitOutputError, res.code)
	assert.Contains(t, res.stderr, "failed to write backup")
}

func TestBackup_ConfigFile(t *testing.T) {
	isolateEnv(t)
	srv := backupServer(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "from-config")

	cfg := config.DefaultConfig()
	cfg.Server.BaseURL = srv.URL
	cfg.Server.APIKeyEnv = "TEST_N8N_KEY"
	cfg.Output.Path = target
	cfg.Output.Dir = true
	cfg.Include.Workflows = true
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, config.Write(configPath, cfg))
	t.Setenv("TEST_N8N_KEY", "secret")

	res := execute(t, nil, "--config", configPath)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	tree := testutil.ReadTree(t, target)
	assert.Len(t, tree, 3)
	assert.Equal(t, 0, srv.Hits("/api/v1/tags"))
}

func TestBackup_EnvFile(t *testing.T) {
	isolateEnv(t)
	srv := backupServer(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "env.zip")

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("N8N_API_KEY=secret\n"), 0o600))
	// godotenv keeps variables that are already set, even when empty.
	require.NoError(t, os.Unsetenv("N8N_API_KEY"))

	res := execute(t, nil, srv.URL, "--env-file", envFile, "--out", target)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.FileExists(t, target)
}

func TestVerify(t *testing.T) {
	isolateEnv(t)
	srv := backupServer(t)
	dir := t.TempDir()
	archive := filepath.Join(dir, "backup.zip")
	tree := filepath.Join(dir, "tree")

	require.Equal(t, ExitSuccess, execute(t, nil, srv.URL, "secret", "--out", archive).code)
	require.Equal(t, ExitSuccess, execute(t, nil, srv.URL, "secret", "--dir", "--out", tree).code)

	t.Run("archive", func(t *testing.T) {
		res := execute(t, nil, "verify", archive)
		require.Equal(t, ExitSuccess, res.code, res.stderr)
		assert.Contains(t, res.stdout, "Backup of "+srv.URL)
		assert.Contains(t, res.stdout, "is complete")
	})

	t.Run("directory", func(t *testing.T) {
		res := execute(t, nil, "verify", tree)
		require.Equal(t, ExitSuccess, res.code, res.stderr)
	})

	t.Run("missing workflow file", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(tree, "workflows", "2-beta.json")))
		res := execute(t, nil, "verify", tree)
		assert.Equal(t, ExitVerifyError, res.code)
		assert.Contains(t, res.stderr, "2-beta.json")
	})

	t.Run("not a backup", func(t *testing.T) {
		bogus := filepath.Join(dir, "bogus.zip")
		require.NoError(t, os.WriteFile(bogus, []byte("not a zip"), 0o600))
		res := execute(t, nil, "verify", bogus)
		assert.Equal(t, ExitVerifyError, res.code)
	})
}
