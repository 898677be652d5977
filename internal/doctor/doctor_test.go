package doctor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdash/hostdash/internal/audit"
	"github.com/hostdash/hostdash/internal/capability"
	"github.com/hostdash/hostdash/internal/doctor"
	"github.com/hostdash/hostdash/pkg/model"
)

func categories(r *doctor.Result) []string {
	var out []string
	for _, f := range r.Findings {
		out = append(out, f.Category+"/"+f.Severity)
	}
	return out
}

func TestDoctor_Healthy(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "root")
	require.NoError(t, os.Mkdir(root, 0o755))
	auditPath := filepath.Join(dir, "audit.jsonl")
	require.NoError(t, audit.NewFileAppender(auditPath).Append(model.EventTypeFileWrite, "a", nil))

	result, err := doctor.NewDoctor(root, auditPath, nil).Check(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	assert.Empty(t, result.Findings)
}

func TestDoctor_MissingRoot(t *testing.T) {
	result, err := doctor.NewDoctor(filepath.Join(t.TempDir(), "gone"), "", nil).Check(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	assert.Contains(t, categories(result), "root/critical")
	assert.Contains(t, categories(result), "audit/info")
}

func TestDoctor_BrokenAuditChain(t *testing.T) {
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "audit.jsonl")
	require.NoError(t, os.WriteFile(auditPath, []byte("{not json}\n"), 0o600))

	result, err := doctor.NewDoctor(dir, auditPath, nil).Check(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, result.Healthy)
	assert.Contains(t, categories(result), "audit/critical")
}

func TestDoctor_UnavailableCapability(t *testing.T) {
	caps := capability.NewRegistry()
	caps.Register(context.Background(), capability.Func(capability.Screenshot, func(context.Context) error {
		return errors.New("no active display")
	}))

	result, err := doctor.NewDoctor(t.TempDir(), "", caps).Check(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, result.Healthy)
	assert.Contains(t, categories(result), "capability/info")
}

func TestDoctor_StrictFindsOrphanTmp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	tmp := filepath.Join(root, "sub", ".hostdash-tmp-123")
	require.NoError(t, os.WriteFile(tmp, nil, 0o600))

	result, err := doctor.NewDoctor(root, "", nil).Check(context.Background(), false)
	require.NoError(t, err)
	assert.NotContains(t, categories(result), "tmp/info")

	result, err = doctor.NewDoctor(root, "", nil).Check(context.Background(), true)
	require.NoError(t, err)
	require.Contains(t, categories(result), "tmp/info")
	for _, f := range result.Findings {
		if f.Category == "tmp" {
			assert.Contains(t, f.Path, ".hostdash-tmp-123")
		}
	}
}

func TestDoctor_WorldWritableRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Chmod(root, 0o777))

	result, err := doctor.NewDoctor(root, "", nil).Check(context.Background(), false)
	require.NoError(t, err)
	assert.Contains(t, categories(result), "root/warning")
	assert.True(t, result.Healthy)
}
