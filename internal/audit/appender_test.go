package audit_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostdash/hostdash/internal/audit"
	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/model"
)

func readRecords(t *testing.T, path string) []model.AuditRecord {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var records []model.AuditRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var r model.AuditRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		records = append(records, r)
	}
	return records
}

func TestFileAppender_AppendCreatesJSONL(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "audit.jsonl")

	appender := audit.NewFileAppender(logPath)
	require.NoError(t, appender.Append(model.EventTypeFileWrite, "docs/a.txt", map[string]any{"size": 10}))

	records := readRecords(t, logPath)
	require.Len(t, records, 1)
	assert.Equal(t, model.EventTypeFileWrite, records[0].EventType)
	assert.Equal(t, "docs/a.txt", records[0].Path)
	assert.EqualValues(t, 10, records[0].Details["size"])
}

func TestFileAppender_HashChain(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	appender := audit.NewFileAppender(logPath)

	require.NoError(t, appender.Append(model.EventTypeCaptureStart, "", map[string]any{"session_id": "s1"}))
	require.NoError(t, appender.Append(model.EventTypePathRejected, "../secret", map[string]any{"op": "list"}))

	records := readRecords(t, logPath)
	require.Len(t, records, 2)
	assert.Equal(t, model.HashValue(""), records[0].PrevHash)
	assert.Equal(t, records[0].RecordHash, records[1].PrevHash)
	assert.NotEmpty(t, records[1].RecordHash)

	n, err := appender.Verify()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFileAppender_VerifyDetectsTampering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	appender := audit.NewFileAppender(logPath)
	require.NoError(t, appender.Append(model.EventTypeFileWrite, "a.txt", nil))
	require.NoError(t, appender.Append(model.EventTypeFileWrite, "b.txt", nil))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"path":"a.txt"`, `"path":"z.txt"`, 1)
	require.NoError(t, os.WriteFile(logPath, []byte(tampered), 0o600))

	n, err := appender.Verify()
	assert.ErrorIs(t, err, errclass.ErrAuditChainBroken)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "line 1")
}

func TestFileAppender_VerifyDetectsRemovedRecord(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	appender := audit.NewFileAppender(logPath)
	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, appender.Append(model.EventTypeFileWrite, p, nil))
	}

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.SplitAfter(string(data), "\n")
	require.NoError(t, os.WriteFile(logPath, []byte(lines[0]+lines[2]), 0o600))

	n, err := appender.Verify()
	assert.ErrorIs(t, err, errclass.ErrAuditChainBroken)
	assert.Equal(t, 1, n)
}

func TestFileAppender_VerifyMissingLog(t *testing.T) {
	appender := audit.NewFileAppender(filepath.Join(t.TempDir(), "none.jsonl"))
	n, err := appender.Verify()
	require.NoError(t, err)
	assert.Zero(t, n)

	records, err := appender.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileAppender_ConcurrentAppends(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	appender := audit.NewFileAppender(logPath)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			assert.NoError(t, appender.Append(model.EventTypeFileWrite, "f", map[string]any{"idx": idx}))
		}(i)
	}
	wg.Wait()

	n, err := appender.Verify()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestFileAppender_LastRecordHash(t *testing.T) {
	appender := audit.NewFileAppender(filepath.Join(t.TempDir(), "audit.jsonl"))

	hash, err := appender.LastRecordHash()
	require.NoError(t, err)
	assert.Equal(t, model.HashValue(""), hash)

	require.NoError(t, appender.Append(model.EventTypeCaptureStop, "", nil))
	hash, err = appender.LastRecordHash()
	require.NoError(t, err)
	assert.Len(t, string(hash), 64)
}

func TestFileAppender_NotifierAndClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var got []model.AuditRecord
	appender := audit.NewFileAppender(filepath.Join(t.TempDir(), "audit.jsonl"),
		audit.WithClock(func() time.Time { return fixed }),
		audit.WithNotifier(func(r model.AuditRecord) { got = append(got, r) }),
	)

	require.NoError(t, appender.Append(model.EventTypeCaptureStart, "", nil))
	require.Len(t, got, 1)
	assert.Equal(t, fixed, got[0].Timestamp)
	assert.NotEmpty(t, got[0].RecordHash)

	records, err := appender.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, got[0].RecordHash, records[0].RecordHash)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, audit.Discard.Append(model.EventTypeFileWrite, "x", nil))
}
