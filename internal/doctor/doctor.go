// Package doctor checks that the host is set up for hostdash to run.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hostdash/hostdash/internal/audit"
	"github.com/hostdash/hostdash/internal/capability"
	"github.com/hostdash/hostdash/pkg/pathutil"
)

const tmpPrefix = ".hostdash-tmp-"

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity == "critical" || f.Severity == "error" {
		r.Healthy = false
	}
}

// Doctor performs environment health checks.
type Doctor struct {
	root      string
	auditPath string
	caps      *capability.Registry
}

// NewDoctor creates a new doctor. An empty auditPath skips the audit check
// and a nil registry skips capability checks.
func NewDoctor(root, auditPath string, caps *capability.Registry) *Doctor {
	return &Doctor{root: root, auditPath: auditPath, caps: caps}
}

// Check runs all diagnostic checks. Strict mode also scans the browse root
// for temp files left by interrupted uploads.
func (d *Doctor) Check(ctx context.Context, strict bool) (*Result, error) {
	result := &Result{Healthy: true, Findings: []Finding{}}

	canonical := d.checkRoot(result)
	d.checkAudit(result)
	d.checkCapabilities(result)
	if strict && canonical != "" {
		if err := d.checkOrphanTmp(ctx, canonical, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *Doctor) checkRoot(result *Result) string {
	canonical, err := pathutil.CanonicalRoot(d.root)
	if err != nil {
		result.add(Finding{
			Category:    "root",
			Description: fmt.Sprintf("browse root unusable: %v", err),
			Severity:    "critical",
			Path:        d.root,
		})
		return ""
	}

	dir, err := os.Open(canonical)
	if err == nil {
		_, err = dir.Readdirnames(1)
		dir.Close()
	}
	if err != nil && !errors.Is(err, io.EOF) {
		result.add(Finding{
			Category:    "root",
			Description: fmt.Sprintf("browse root not readable: %v", err),
			Severity:    "error",
			Path:        canonical,
		})
	}

	if info, err := os.Stat(canonical); err == nil && info.Mode().Perm()&0o002 != 0 {
		result.add(Finding{
			Category:    "root",
			Description: "browse root is world-writable",
			Severity:    "warning",
			Path:        canonical,
		})
	}
	if canonical == string(filepath.Separator) {
		result.add(Finding{
			Category:    "root",
			Description: "browse root is the filesystem root; every file on the host is reachable",
			Severity:    "warning",
			Path:        canonical,
		})
	}
	return canonical
}

func (d *Doctor) checkAudit(result *Result) {
	if d.auditPath == "" {
		result.add(Finding{
			Category:    "audit",
			Description: "audit trail disabled",
			Severity:    "info",
		})
		return
	}
	n, err := audit.NewFileAppender(d.auditPath).Verify()
	if err != nil {
		result.add(Finding{
			Category:    "audit",
			Description: fmt.Sprintf("audit chain invalid after %d records: %v", n, err),
			Severity:    "critical",
			Path:        d.auditPath,
		})
	}
}

func (d *Doctor) checkCapabilities(result *Result) {
	if d.caps == nil {
		return
	}
	for _, rep := range d.caps.Reports() {
		if rep.Available {
			continue
		}
		result.add(Finding{
			Category:    "capability",
			Description: fmt.Sprintf("%s unavailable: %s", rep.Name, rep.Reason),
			Severity:    "info",
		})
	}
}

func (d *Doctor) checkOrphanTmp(ctx context.Context, root string, result *Result) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), tmpPrefix) {
			result.add(Finding{
				Category:    "tmp",
				Description: fmt.Sprintf("orphan upload temp file: %s", entry.Name()),
				Severity:    "info",
				Path:        path,
			})
		}
		return nil
	})
}
