package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdash/hostdash/pkg/color"
	"github.com/hostdash/hostdash/pkg/config"
	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/model"
)

func executeCommand(root *cobra.Command, args ...string) (stdout string, err error) {
	// Capture os.Stdout since commands print with fmt.Printf directly
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	root.SetArgs(args)
	err = root.Execute()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), err
}

func createTestRootCmd() *cobra.Command {
	jsonOutput = false
	configPath = ""
	filesRoot = ""
	doctorStrict = false
	configInitForce = false
	auditTail = 20
	color.Disable()

	cmd := &cobra.Command{
		Use:           "hostdash",
		Short:         "hostdash - single-host remote control dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file")

	cmd.AddCommand(configCmd)
	cmd.AddCommand(filesCmd)
	cmd.AddCommand(auditCmd)
	cmd.AddCommand(doctorCmd)
	cmd.AddCommand(capabilitiesCmd)
	cmd.AddCommand(versionCmd)
	cmd.AddCommand(completionCmd)
	return cmd
}

// setupConfig writes a config confined to a temp dir and returns its path
// and the browse root.
func setupConfig(t *testing.T) (cfgPath, root string) {
	t.Helper()
	dir := t.TempDir()
	root = filepath.Join(dir, "root")
	require.NoError(t, os.Mkdir(root, 0o755))

	cfg := config.Default()
	cfg.Browser.Root = root
	cfg.Audit.Path = filepath.Join(dir, "audit.jsonl")
	cfg.Recorder.Source = "none"
	cfg.Telemetry.PingTarget = "127.0.0.1:1"
	cfg.Telemetry.PingTimeout = "200ms"
	cfg.Logging.Level = "error"
	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))
	return cfgPath, root
}

func TestRootCommand_Help(t *testing.T) {
	stdout, err := executeCommand(rootCmd, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "remote control dashboard")
	assert.Contains(t, stdout, "serve")
}

func TestRootCommand_JSONFlag(t *testing.T) {
	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "--json", "--help")
	require.NoError(t, err)
	assert.True(t, jsonOutput)
}

func TestVersionCommand_JSON(t *testing.T) {
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--json", "version")
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, Version, out["version"])
	assert.NotEmpty(t, out["platform"])
}

func TestConfigCommand_InitSetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostdash", "config.yaml")

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote")
	assert.FileExists(t, path)

	cmd = createTestRootCmd()
	_, err = executeCommand(cmd, "--config", path, "config", "init")
	assert.Error(t, err, "init must not overwrite without --force")

	cmd = createTestRootCmd()
	_, err = executeCommand(cmd, "--config", path, "config", "set", "server.addr", "0.0.0.0:9000")
	require.NoError(t, err)

	cmd = createTestRootCmd()
	stdout, err = executeCommand(cmd, "--config", path, "config", "get", "server.addr")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000\n", stdout)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
}

func TestConfigCommand_SetInvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "--config", path, "config", "set", "recorder.source", "keyboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recorder.source")
	assert.NoFileExists(t, path)
}

func TestConfigCommand_UnknownKeySuggests(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "--config", path, "config", "get", "server.adr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
	assert.Contains(t, err.Error(), "Run hostdash config keys")

	cmd = createTestRootCmd()
	_, err = executeCommand(cmd, "--config", path, "config", "get", "recorder")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Did you mean one of")
	assert.Contains(t, err.Error(), "recorder.capacity")
}

func TestSuggestKeys(t *testing.T) {
	assert.Equal(t, []string{"audit.path"}, suggestKeys("audit"))
	assert.Contains(t, suggestKeys("foo.capacity"), "recorder.capacity")
	assert.Empty(t, suggestKeys("zzz"))
}

func TestConfigCommand_ShowJSON(t *testing.T) {
	cfgPath, root := setupConfig(t)
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", cfgPath, "--json", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, root)
}

func TestFilesCommand_PutLsGet(t *testing.T) {
	cfgPath, root := setupConfig(t)
	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", cfgPath, "files", "put", src, "docs/")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Stored")
	data, err := os.ReadFile(filepath.Join(root, "docs", "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	cmd = createTestRootCmd()
	stdout, err = executeCommand(cmd, "--config", cfgPath, "--json", "files", "ls", "docs")
	require.NoError(t, err)
	var listing model.Listing
	require.NoError(t, json.Unmarshal([]byte(stdout), &listing))
	assert.Equal(t, "docs", listing.ResolvedPath)
	require.Len(t, listing.Entries, 1)
	assert.Equal(t, "notes.txt", listing.Entries[0].Name)
	assert.EqualValues(t, 5, listing.Entries[0].Size)

	dest := filepath.Join(t.TempDir(), "copy.txt")
	cmd = createTestRootCmd()
	_, err = executeCommand(cmd, "--config", cfgPath, "files", "get", "docs/notes.txt", dest)
	require.NoError(t, err)
	data, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	cmd = createTestRootCmd()
	stdout, err = executeCommand(cmd, "--config", cfgPath, "files", "get", "docs/notes.txt", "-")
	require.NoError(t, err)
	assert.Equal(t, "hello", stdout)
}

func TestFilesCommand_RejectsEscape(t *testing.T) {
	cfgPath, _ := setupConfig(t)
	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "--config", cfgPath, "files", "ls", "../")
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrPathEscape)
}

func TestFilesCommand_RootFlag(t *testing.T) {
	cfgPath, _ := setupConfig(t)
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "a.txt"), []byte("x"), 0o644))

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", cfgPath, "files", "--root", other, "ls")
	require.NoError(t, err)
	assert.Contains(t, stdout, "a.txt")
}

func TestAuditCommand_VerifyAndLog(t *testing.T) {
	cfgPath, _ := setupConfig(t)
	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("abc"), 0o644))

	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "--config", cfgPath, "files", "put", src, "a.txt")
	require.NoError(t, err)
	cmd = createTestRootCmd()
	_, err = executeCommand(cmd, "--config", cfgPath, "files", "ls", "../etc")
	require.Error(t, err)

	cmd = createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", cfgPath, "audit", "verify")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Verified 2 records")

	cmd = createTestRootCmd()
	stdout, err = executeCommand(cmd, "--config", cfgPath, "--json", "audit", "log")
	require.NoError(t, err)
	var records []model.AuditRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	require.Len(t, records, 2)
	assert.Equal(t, model.EventTypeFileWrite, records[0].EventType)
	assert.Equal(t, model.EventTypePathRejected, records[1].EventType)
}

func TestAuditCommand_Disabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	cfg.Audit.Path = ""
	require.NoError(t, config.Save(path, cfg))

	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "--config", path, "audit", "verify")
	assert.ErrorIs(t, err, errAuditDisabled)
}

func TestDoctorCommand_JSON(t *testing.T) {
	cfgPath, _ := setupConfig(t)
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", cfgPath, "--json", "doctor")
	require.NoError(t, err)

	var result struct {
		Healthy  bool `json:"healthy"`
		Findings []struct {
			Category string `json:"category"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.True(t, result.Healthy)
}

func TestDoctorCommand_MissingRoot(t *testing.T) {
	cfgPath, root := setupConfig(t)
	require.NoError(t, os.Remove(root))

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", cfgPath, "doctor")
	assert.ErrorIs(t, err, errUnhealthy)
	assert.Contains(t, stdout, "critical")
}

func TestCapabilitiesCommand_JSON(t *testing.T) {
	cfgPath, _ := setupConfig(t)
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", cfgPath, "--json", "capabilities")
	require.NoError(t, err)

	var reports []model.CapabilityReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &reports))
	byName := map[string]model.CapabilityReport{}
	for _, r := range reports {
		byName[r.Name] = r
	}
	require.Contains(t, byName, "input-capture")
	assert.False(t, byName["input-capture"].Available)
	assert.Contains(t, byName["input-capture"].Reason, "disabled")
	assert.False(t, byName["ping"].Available)
}

func TestCompletionCommand(t *testing.T) {
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hostdash")
}
