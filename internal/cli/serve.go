package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hostdash/hostdash/internal/server"
	"github.com/hostdash/hostdash/pkg/color"
	"github.com/hostdash/hostdash/pkg/config"
)

var (
	serveAddr   string
	serveRoot   string
	serveSource string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	Long: `Run the dashboard HTTP server in the foreground until interrupted.

Flags override the matching config keys for this run only.

Examples:
  hostdash serve
  hostdash serve --addr 0.0.0.0:8765 --root /srv/share
  hostdash serve --source none      # no keystroke capture`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if serveRoot != "" {
			cfg.Browser.Root = serveRoot
		}
		if serveSource != "" {
			cfg.Recorder.Source = serveSource
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log, err := setupLogging(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := buildStack(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer st.close()

		srv, err := server.New(server.Options{
			Recorder:          st.recorder,
			Browser:           st.browser,
			Telemetry:         st.telemetry,
			Screen:            st.screen,
			Capabilities:      st.caps,
			Metrics:           st.metrics,
			Logger:            log,
			MaxUploadBytes:    cfg.Server.MaxUploadBytes,
			SnapshotLimit:     cfg.Recorder.SnapshotLimit,
			ReadHeaderTimeout: config.Duration(cfg.Server.ReadHeaderTimeout, 0),
			ShutdownTimeout:   config.Duration(cfg.Server.ShutdownTimeout, 0),
		})
		if err != nil {
			return err
		}

		return srv.Run(ctx, cfg.Server.Addr, func(addr net.Addr) {
			if jsonOutput {
				outputJSON(map[string]string{"addr": addr.String(), "root": st.browser.Root()})
				return
			}
			fmt.Printf("Serving %s on %s\n", color.Path(st.browser.Root()), color.Info("http://"+addr.String()))
			fmt.Println(color.Dim("Press Ctrl+C to stop"))
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveRoot, "root", "", "browse root (overrides browser.root)")
	serveCmd.Flags().StringVar(&serveSource, "source", "", "input source: terminal or none (overrides recorder.source)")
	rootCmd.AddCommand(serveCmd)
}
