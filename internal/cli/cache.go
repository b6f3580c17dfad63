package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdraw/pkg/cache"
	"github.com/matzehuels/erdraw/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and render cache",
		Long: `Manage the layout and render cache.

Computed positions are cached under the "layout" stage and rendered files
under the "artifact" stage, both keyed by the schema's content and the
options that shape the result.`,
	}

	cmd.AddCommand(c.cacheInfoCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// openFileCache opens the CLI cache directory. exists is false when nothing
// has been cached yet.
func openFileCache() (fc *cache.FileCache, exists bool, err error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, false, fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, false, nil
	}
	fc, err = cache.NewFileCache(dir)
	return fc, err == nil, err
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cached entries per stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := openFileCache()
			if err != nil {
				return err
			}
			if !ok {
				printInfo("Cache is empty")
				return nil
			}
			usage, err := fc.Usage()
			if err != nil {
				return err
			}
			printUsage(usage)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var stage string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached layouts and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateStage(stage); err != nil {
				return err
			}
			fc, ok, err := openFileCache()
			if err != nil {
				return err
			}
			if !ok {
				printInfo("Cache is empty")
				return nil
			}
			n, err := fc.Clear(cache.Stage(stage))
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached %s", n, pluralize(n, "entry", "entries"))
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "only clear one stage: layout, artifact")
	return cmd
}

// cachePruneCommand creates the "cache prune" subcommand.
func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := openFileCache()
			if err != nil {
				return err
			}
			if !ok {
				printInfo("Cache is empty")
				return nil
			}
			n, err := fc.Prune()
			if err != nil {
				return err
			}
			printSuccess("Pruned %d expired %s", n, pluralize(n, "entry", "entries"))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func validateStage(s string) error {
	if s == "" {
		return nil
	}
	for _, st := range cache.Stages {
		if s == string(st) {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown cache stage %q (want layout or artifact)", s)
}
