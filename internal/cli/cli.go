package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/erdraw/pkg/buildinfo"
	"github.com/matzehuels/erdraw/pkg/cache"
	"github.com/matzehuels/erdraw/pkg/errors"
	"github.com/matzehuels/erdraw/pkg/layoutfile"
	"github.com/matzehuels/erdraw/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "erdraw"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "erdraw lays out and draws entity-relationship diagrams",
		Long:         `erdraw reads a database schema (DBML, JSON or YAML), places its tables on a grid, routes the relationships as orthogonal connectors with crow's foot markers and renders the result. Positions are saved next to the schema so hand-tuned layouts survive edits.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
	}

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Layouts are stored next
// to their schema files unless store is non-nil.
func (c *CLI) newRunner(noCache bool, store layoutfile.Store) (*pipeline.Runner, error) {
	ch, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	// Entries written by another build may disagree on geometry.
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	if store != nil {
		r.Store = store
	}
	return r, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/erdraw/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// setCLIDefaults applies CLI-specific defaults on top of pipeline defaults.
func setCLIDefaults(opts *pipeline.Options) {
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
}

// layoutFlags registers the flags shared by every command that places tables.
func layoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().BoolVar(&opts.AutoLayout, "auto-layout", false, "ignore saved positions and place every table")
	cmd.Flags().Float64Var(&opts.SpacingX, "spacing-x", opts.SpacingX, "horizontal gap between grid cells")
	cmd.Flags().Float64Var(&opts.SpacingY, "spacing-y", opts.SpacingY, "vertical gap between grid cells")
	cmd.Flags().Float64Var(&opts.StartX, "start-x", opts.StartX, "x of the first grid cell")
	cmd.Flags().Float64Var(&opts.StartY, "start-y", opts.StartY, "y of the first grid cell")
	cmd.Flags().IntVar(&opts.MaxRingRadius, "max-ring-radius", opts.MaxRingRadius, "how far to search for a free grid cell")
	cmd.Flags().StringVar(&opts.Measurer, "measurer", opts.Measurer, "text measurer: face (default), fixed")
}

// loadConfig reads a TOML options file into opts. Flags given explicitly on
// the command line win over the file.
func loadConfig(cmd *cobra.Command, path string, opts *pipeline.Options) error {
	if path == "" {
		return nil
	}
	changed := make(map[string]string)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if _, err := toml.DecodeFile(path, opts); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}

	for name, value := range changed {
		if err := cmd.Flags().Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
