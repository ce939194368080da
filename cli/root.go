// Package cli wires the command line: flag parsing, configuration, logging
// and the choice between the one-shot list/delete modes and the interactive
// terminal UI.
package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/riadafridishibly/nmremover/cache"
	"github.com/riadafridishibly/nmremover/config"
	"github.com/riadafridishibly/nmremover/scanner"
	"github.com/riadafridishibly/nmremover/session"
	"github.com/riadafridishibly/nmremover/tui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	cfgFile   string
	list      bool
	deleteAll bool
	useCache  bool
	debug     bool
}

// Overridden in tests so log files land in a per-test directory.
var logDir = tempDir

func tempDir() string {
	if runtime.GOOS == "darwin" {
		return "/tmp"
	}
	return os.TempDir()
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	var (
		opts    options
		cfg     *config.Config
		log     *logrus.Logger
		logFile *os.File
	)

	rootCmd := &cobra.Command{
		Use:   "nm-remover [path]",
		Short: "Find and remove node_modules folders",
		Long: `nm-remover scans a directory tree for node_modules folders, shows how much
space each one takes, and removes the ones you pick.

Without a path it opens the interactive UI and asks for one. With a path the
scan starts right away; --list and --delete-all skip the UI entirely.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.useCache {
				cfg.Cache = true
			}

			log, logFile, err = newLogger(opts.debug)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				logFile.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}

			if (opts.list || opts.deleteAll) && path == "" {
				return errors.New("a path is required with --list or --delete-all")
			}

			var root string
			if path != "" {
				var err error
				root, err = scanner.ValidateRoot(path)
				if err != nil {
					return describeRootError(path, err)
				}
			}

			sizeCache, err := openCache(cfg, log)
			if err != nil {
				return err
			}
			if sizeCache != nil {
				defer sizeCache.Close()
			}

			scanOpts := scanner.Options{
				Workers: cfg.Workers,
				Skip:    cfg.Skip,
				Logger:  log,
			}
			if sizeCache != nil {
				scanOpts.Cache = sizeCache
			}
			s, err := scanner.New(scanOpts)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			switch {
			case opts.list:
				return runList(ctx, cmd.OutOrStdout(), s, root)
			case opts.deleteAll:
				return runDeleteAll(ctx, cmd.OutOrStdout(), s, root)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logfile is being written in:", logFile.Name())

			ctrl := session.New(ctx, s, log)
			app := tui.NewApp(ctrl, cfg, log, root)
			if err := app.Run(); err != nil {
				return fmt.Errorf("running application: %w", err)
			}
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.list, "list", "l", false, "list node_modules folders without the interactive UI")
	flags.BoolVar(&opts.deleteAll, "delete-all", false, "delete every node_modules folder found without confirmation (dangerous!)")
	rootCmd.MarkFlagsMutuallyExclusive("list", "delete-all")

	pflags := rootCmd.PersistentFlags()
	pflags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.config/nm-remover/config.yaml)")
	pflags.BoolVar(&opts.useCache, "cache", false, "remember folder sizes between runs")
	pflags.BoolVar(&opts.debug, "debug", false, "write debug level logs")

	return rootCmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Default(), nil
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

func newLogger(debug bool) (*logrus.Logger, *os.File, error) {
	logFile, err := os.CreateTemp(logDir(), "nm-remover-*.log")
	if err != nil {
		return nil, nil, fmt.Errorf("creating log file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(logFile)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	log.SetLevel(logrus.InfoLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log, logFile, nil
}

// openCache returns nil when caching is disabled. A cache that cannot be
// opened is logged and skipped; scanning works without it.
func openCache(cfg *config.Config, log logrus.FieldLogger) (*cache.Cache, error) {
	if !cfg.Cache {
		return nil, nil
	}

	path := cfg.CachePath
	if path == "" {
		p, err := cache.DefaultPath()
		if err != nil {
			log.WithError(err).Warn("no cache location, continuing without cache")
			return nil, nil
		}
		path = p
	}

	c, err := cache.Open(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("could not open cache, continuing without it")
		return nil, nil
	}

	if pruned, err := c.Prune(); err != nil {
		log.WithError(err).Warn("cache prune failed")
	} else if pruned > 0 {
		log.WithField("pruned", pruned).Debug("dropped cache entries for missing paths")
	}
	return c, nil
}

func describeRootError(path string, err error) error {
	switch {
	case errors.Is(err, scanner.ErrPathNotFound):
		return fmt.Errorf("path '%s' does not exist", path)
	case errors.Is(err, scanner.ErrNotDirectory):
		return fmt.Errorf("path '%s' is not a directory", path)
	default:
		return err
	}
}

func scan(ctx context.Context, out io.Writer, s *scanner.Scanner, root string) ([]*scanner.NodeModuleInfo, error) {
	fmt.Fprintf(out, "Scanning for %s in: %s\n", scanner.MarkerName, root)
	fmt.Fprint(out, "This may take a while...\n\n")

	entries, err := s.Scan(ctx, root, nil)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	// Largest first; ties broken by path so output is stable
	slices.SortFunc(entries, func(a, b *scanner.NodeModuleInfo) int {
		return cmp.Or(
			cmp.Compare(b.Size, a.Size),
			cmp.Compare(a.Path, b.Path),
		)
	})

	if len(entries) == 0 {
		fmt.Fprintf(out, "No %s folders found.\n", scanner.MarkerName)
	}
	return entries, nil
}

func totalSize(entries []*scanner.NodeModuleInfo) uint64 {
	var total uint64
	for _, e := range entries {
		total += e.Size
	}
	return total
}

func runList(ctx context.Context, out io.Writer, s *scanner.Scanner, root string) error {
	entries, err := scan(ctx, out, s, root)
	if err != nil || len(entries) == 0 {
		return err
	}

	now := time.Now()
	fmt.Fprintf(out, "Found %d %s folders:\n\n", len(entries), scanner.MarkerName)
	for _, e := range entries {
		fmt.Fprintf(out, "  %s [%s] (%s)\n", e.Path, humanize.Bytes(e.Size), e.Age(now))
	}
	fmt.Fprintf(out, "\nTotal size: %s\n", humanize.Bytes(totalSize(entries)))
	return nil
}

func runDeleteAll(ctx context.Context, out io.Writer, s *scanner.Scanner, root string) error {
	entries, err := scan(ctx, out, s, root)
	if err != nil || len(entries) == 0 {
		return err
	}

	fmt.Fprintf(out, "Deleting all %d %s folders...\n", len(entries), scanner.MarkerName)
	for _, e := range entries {
		fmt.Fprintf(out, "Deleting %s... ", e.Path)
		if err := s.Delete(e.Path); err != nil {
			fmt.Fprintf(out, "✗ (%v)\n", err)
			continue
		}
		fmt.Fprintln(out, "✓")
	}

	fmt.Fprintf(out, "\nFreed approximately %s\n", humanize.Bytes(totalSize(entries)))
	return nil
}
