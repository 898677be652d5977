package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hostdash/hostdash/internal/browser"
	"github.com/hostdash/hostdash/pkg/color"
	"github.com/hostdash/hostdash/pkg/fsutil"
	"github.com/hostdash/hostdash/pkg/logging"
	"github.com/hostdash/hostdash/pkg/progress"
)

var filesRoot string

var filesCmd = &cobra.Command{
	Use:   "files <command>",
	Short: "Browse the confined root from the command line",
	Long: `Browse the confined root from the command line.

Paths are resolved exactly as the dashboard resolves them: relative to the
browse root, with ".." and symbolic links that lead outside it rejected.

Available commands:
  ls [path]               - List a directory
  get <path> [dest]       - Copy a file out of the root
  put <local> <path>      - Copy a local file into the root
  watch [path]            - Print changes to a directory until interrupted`,
	DisableFlagsInUseLine: true,
}

func openBrowser() (*browser.Browser, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if filesRoot != "" {
		cfg.Browser.Root = filesRoot
	}
	log, err := setupLogging(cfg)
	if err != nil {
		return nil, err
	}
	return browser.New(browser.Options{
		Root:   cfg.Browser.Root,
		Logger: log,
		Trail:  trailFor(cfg),
	})
}

// withProgress wraps r in a progress bar on stderr when stderr is a
// terminal and output is not JSON. The returned func clears the bar.
func withProgress(r io.Reader, op string, size int64) (io.Reader, func()) {
	bar := progress.NewTerminal(op, !jsonOutput && term.IsTerminal(int(os.Stderr.Fd())))
	return progress.NewReader(r, op, size, bar.Callback()), bar.Done
}

var filesLsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBrowser()
		if err != nil {
			return err
		}
		requested := ""
		if len(args) == 1 {
			requested = args[0]
		}
		listing, err := b.List(cmd.Context(), requested)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(listing)
		}

		fmt.Println(color.Header("/" + listing.ResolvedPath))
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, e := range listing.Entries {
			name := e.Name
			if e.IsDirectory {
				name = color.Path(name + "/")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Size, e.Modified.Format("2006-01-02 15:04"), name)
		}
		return tw.Flush()
	},
}

var filesGetCmd = &cobra.Command{
	Use:   "get <path> [dest]",
	Short: "Copy a file out of the root",
	Long: `Copy a file out of the root. Without dest the file is written to the
current directory under its own name; "-" writes to stdout.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBrowser()
		if err != nil {
			return err
		}
		f, err := b.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		dest := f.Name
		if len(args) == 2 {
			dest = args[1]
		}
		if dest == "-" {
			_, err := io.Copy(os.Stdout, f)
			return err
		}
		if info, err := os.Stat(dest); err == nil && info.IsDir() {
			dest = filepath.Join(dest, f.Name)
		}
		r, done := withProgress(f, "get "+f.Name, f.Size)
		n, err := fsutil.WriteStream(dest, r, 0o644)
		done()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]any{"path": dest, "size": n})
		}
		fmt.Printf("%s %s (%d bytes)\n", color.Success("Saved"), color.Path(dest), n)
		return nil
	},
}

var filesPutCmd = &cobra.Command{
	Use:   "put <local> <path>",
	Short: "Copy a local file into the root",
	Long: `Copy a local file into the root. A path ending in "/" names a directory
and keeps the local file name. Missing parent directories are created.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBrowser()
		if err != nil {
			return err
		}
		src, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		target := args[1]
		if target == "" || target[len(target)-1] == '/' {
			target += filepath.Base(args[0])
		}
		var size int64 = -1
		if info, err := src.Stat(); err == nil {
			size = info.Size()
		}
		r, done := withProgress(src, "put "+filepath.Base(args[0]), size)
		entry, err := b.Write(cmd.Context(), target, r)
		done()
		if err != nil {
			return err
		}
		logging.Debug("file stored", map[string]any{"path": target, "size": entry.Size})

		if jsonOutput {
			return outputJSON(entry)
		}
		fmt.Printf("%s %s (%d bytes)\n", color.Success("Stored"), color.Path(target), entry.Size)
		return nil
	},
}

var filesWatchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Print changes to a directory until interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBrowser()
		if err != nil {
			return err
		}
		requested := ""
		if len(args) == 1 {
			requested = args[0]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		changes, err := b.Watch(ctx, requested)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		for c := range changes {
			if jsonOutput {
				if err := enc.Encode(c); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("%s  %-6s %s\n", color.Dim(c.Time.Format("15:04:05")), c.Op, color.Path(c.Name))
		}
		return nil
	},
}

func init() {
	filesCmd.PersistentFlags().StringVar(&filesRoot, "root", "", "browse root (overrides browser.root)")
	filesCmd.AddCommand(filesLsCmd, filesGetCmd, filesPutCmd, filesWatchCmd)
	rootCmd.AddCommand(filesCmd)
}
