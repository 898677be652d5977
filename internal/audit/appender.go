// Package audit records dashboard actions in a hash-chained JSONL file.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/jsonutil"
	"github.com/hostdash/hostdash/pkg/model"
)

const maxLineBytes = 1 << 20

// Trail accepts audit events. Implementations must be safe for concurrent use.
type Trail interface {
	Append(eventType model.AuditEventType, path string, details map[string]any) error
}

type discardTrail struct{}

func (discardTrail) Append(model.AuditEventType, string, map[string]any) error { return nil }

// Discard is a Trail that records nothing. Used when audit.path is empty.
var Discard Trail = discardTrail{}

// Option configures a FileAppender.
type Option func(*FileAppender)

// WithNotifier registers fn to be called with every record after it is
// durably appended.
func WithNotifier(fn func(model.AuditRecord)) Option {
	return func(a *FileAppender) { a.notify = fn }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *FileAppender) { a.now = now }
}

// FileAppender appends audit records to a JSONL file with hash chain.
type FileAppender struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	notify func(model.AuditRecord)
}

// NewFileAppender creates a new FileAppender.
func NewFileAppender(path string, opts ...Option) *FileAppender {
	a := &FileAppender{path: path, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Path returns the log file location.
func (a *FileAppender) Path() string { return a.path }

// Append adds a new audit record to the log.
func (a *FileAppender) Append(eventType model.AuditEventType, path string, details map[string]any) error {
	rec, err := a.appendLocked(eventType, path, details)
	if err != nil {
		return err
	}
	if a.notify != nil {
		a.notify(rec)
	}
	return nil
}

func (a *FileAppender) appendLocked(eventType model.AuditEventType, path string, details map[string]any) (model.AuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0o700); err != nil {
		return model.AuditRecord{}, fmt.Errorf("create audit dir: %w", err)
	}
	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return model.AuditRecord{}, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return model.AuditRecord{}, fmt.Errorf("flock audit log: %w", err)
	}
	defer unlockFile(file)

	prevHash, err := lastRecordHash(file)
	if err != nil {
		return model.AuditRecord{}, fmt.Errorf("get last record hash: %w", err)
	}

	rec := model.AuditRecord{
		Timestamp: a.now().UTC(),
		EventType: eventType,
		Path:      path,
		Details:   details,
		PrevHash:  prevHash,
	}
	if rec.RecordHash, err = recordHash(rec); err != nil {
		return model.AuditRecord{}, err
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return model.AuditRecord{}, fmt.Errorf("marshal audit record: %w", err)
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return model.AuditRecord{}, fmt.Errorf("seek to end: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return model.AuditRecord{}, fmt.Errorf("write audit record: %w", err)
	}
	if err := file.Sync(); err != nil {
		return model.AuditRecord{}, fmt.Errorf("sync audit log: %w", err)
	}
	return rec, nil
}

// LastRecordHash returns the hash of the last record in the log, or "" when
// the log does not exist yet.
func (a *FileAppender) LastRecordHash() (model.HashValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.Open(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()
	return lastRecordHash(file)
}

func lastRecordHash(file *os.File) (model.HashValue, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek to start: %w", err)
	}
	var last model.HashValue
	scanner := newScanner(file)
	for scanner.Scan() {
		var rec model.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		last = rec.RecordHash
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan audit log: %w", err)
	}
	return last, nil
}

// Verify walks the whole chain and returns the number of valid records.
// A malformed line, a recomputed hash mismatch, or a prev_hash that does not
// match the preceding record yields ErrAuditChainBroken naming the line.
// A missing log verifies as empty.
func (a *FileAppender) Verify() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.Open(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var prev model.HashValue
	n := 0
	scanner := newScanner(file)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		rec, err := decodeRecord(scanner.Bytes())
		if err != nil {
			return n, errclass.ErrAuditChainBroken.WithMessagef("line %d: malformed record", lineNo)
		}
		if rec.PrevHash != prev {
			return n, errclass.ErrAuditChainBroken.WithMessagef("line %d: prev_hash does not match preceding record", lineNo)
		}
		want, err := recordHash(rec)
		if err != nil {
			return n, err
		}
		if rec.RecordHash != want {
			return n, errclass.ErrAuditChainBroken.WithMessagef("line %d: record_hash mismatch", lineNo)
		}
		prev = rec.RecordHash
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("scan audit log: %w", err)
	}
	return n, nil
}

// Records reads every well-formed record in the log.
func (a *FileAppender) Records() ([]model.AuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.Open(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var out []model.AuditRecord
	scanner := newScanner(file)
	for scanner.Scan() {
		var rec model.AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}

// decodeRecord keeps detail numbers as json.Number so re-hashing is exact.
func decodeRecord(line []byte) (model.AuditRecord, error) {
	var rec model.AuditRecord
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	err := dec.Decode(&rec)
	return rec, err
}

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return s
}

// recordHash hashes the record with RecordHash cleared.
func recordHash(rec model.AuditRecord) (model.HashValue, error) {
	rec.RecordHash = ""
	sum, err := jsonutil.CanonicalHash(rec)
	if err != nil {
		return "", fmt.Errorf("hash audit record: %w", err)
	}
	return model.HashValue(sum), nil
}
