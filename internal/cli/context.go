package cli

import (
	"fmt"
	"os"

	"github.com/hostdash/hostdash/internal/audit"
	"github.com/hostdash/hostdash/pkg/color"
	"github.com/hostdash/hostdash/pkg/config"
)

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadConfig reads the config file named by --config, falling back to
// defaults when it does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// trailFor opens the audit trail named in cfg, or a discarding trail when
// auditing is disabled.
func trailFor(cfg *config.Config, opts ...audit.Option) audit.Trail {
	if cfg.Audit.Path == "" {
		return audit.Discard
	}
	return audit.NewFileAppender(cfg.Audit.Path, opts...)
}

func fmtErr(format string, args ...any) {
	prefix := "hostdash: "
	if color.Enabled() {
		prefix = color.Error("hostdash:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
