package main

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getProjectRoot returns the absolute path to the project root.
func getProjectRoot(t *testing.T) string {
	dir, err := os.Getwd()
	require.NoError(t, err)
	// Walk up to find go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	t.Fatal("go.mod not found")
	return ""
}

// buildBinary compiles cmd/hostdash into a temp dir.
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping build test in short mode")
	}
	binPath := filepath.Join(t.TempDir(), "hostdash-test")
	buildCmd := exec.Command("go", "build", "-o", binPath, ".")
	buildCmd.Dir = filepath.Join(getProjectRoot(t), "cmd", "hostdash")
	output, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(output))
	return binPath
}

// writeConfig writes a config that keeps every path inside a temp dir.
func writeConfig(t *testing.T, root string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := `server:
  addr: 127.0.0.1:0
  max_upload_bytes: 1048576
  read_header_timeout: 5s
  shutdown_timeout: 2s
browser:
  root: ` + root + `
recorder:
  capacity: 100
  snapshot_limit: 50
  source: none
telemetry:
  ping_target: 127.0.0.1:1
  ping_timeout: 100ms
audit:
  path: ` + filepath.Join(dir, "audit.jsonl") + `
logging:
  level: error
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestMainHelpFlag(t *testing.T) {
	binPath := buildBinary(t)

	out, err := exec.Command(binPath, "--help").CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), "hostdash")
	assert.Contains(t, string(out), "remote control dashboard")
}

func TestMainUnknownCommand(t *testing.T) {
	binPath := buildBinary(t)

	out, err := exec.Command(binPath, "unknown-command-xyz").CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, strings.ToLower(string(out)), "unknown")
}

func TestMainEntryPoints(t *testing.T) {
	// This is a compile-time test to ensure main() exists
	_ = main
}

func TestBinaryFilesRoundTrip(t *testing.T) {
	binPath := buildBinary(t)
	root := t.TempDir()
	cfgPath := writeConfig(t, root)

	src := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(src, []byte("quarterly"), 0o644))

	out, err := exec.Command(binPath, "--config", cfgPath, "--no-color", "files", "put", src, "reports/").CombinedOutput()
	require.NoError(t, err, string(out))

	out, err = exec.Command(binPath, "--config", cfgPath, "--json", "files", "ls", "reports").CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Contains(t, string(out), `"report.txt"`)

	out, err = exec.Command(binPath, "--config", cfgPath, "files", "ls", "..").CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(out), "E_PATH_ESCAPE")
}

func TestBinaryServe(t *testing.T) {
	binPath := buildBinary(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi"), 0o644))
	cfgPath := writeConfig(t, root)

	cmd := exec.Command(binPath, "--config", cfgPath, "--json", "serve")
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() { cmd.Process.Kill() })

	var ready struct {
		Addr string `json:"addr"`
	}
	require.NoError(t, json.NewDecoder(bufio.NewReader(stdout)).Decode(&ready))
	require.NotEmpty(t, ready.Addr)
	base := "http://" + ready.Addr

	resp, err := http.Get(base + "/api/files")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "hello.txt")

	resp, err = http.Post(base+"/api/capture/start", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	require.NoError(t, cmd.Process.Signal(syscall.SIGTERM))
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not exit after SIGTERM")
	}
}
