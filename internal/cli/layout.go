package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdraw/pkg/pipeline"
)

// layoutCommand creates the layout command for computing and saving table
// positions without rendering.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		configPath string
		noCache    bool
		store      storeOpts
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "layout [schema]",
		Short: "Place tables and save their positions",
		Long: `Place tables and save their positions.

The layout command reads a schema, applies any saved positions and places the
remaining tables on the grid. The result is written as a layout file
(<schema>.layout.toml by default) that 'render' and 'serve' pick up.

Use --auto-layout to discard the saved positions and start over.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, configPath, &opts); err != nil {
				return err
			}
			opts.Input = args[0]
			return c.runLayout(cmd.Context(), opts, output, noCache, store)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the layout here instead of the layout file")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML file with layout options")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute and overwrite cached results")
	layoutFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.LayoutPath, "layout", "", "layout file (default: <schema>.layout.toml)")
	store.register(cmd)

	return cmd
}

// runLayout loads the schema, places it, and writes the positions.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool, so storeOpts) error {
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	store, err := so.open(ctx)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(noCache, store)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	d, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, "Computing layout...")
	restore := reportStages(spinner, len(d.Relationships))
	spinner.Start()

	placed, cacheHit, err := runner.LayoutWithCacheInfo(ctx, d, opts)
	restore()
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	saveOpts := opts
	if output != "" {
		saveOpts.LayoutPath = output
	}
	where, err := runner.SaveLayout(ctx, placed, saveOpts)
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}

	printSuccess("Layout complete")
	printFile(where)
	printStats(pipeline.Stats{
		TableCount:        len(placed.Tables),
		RelationshipCount: len(placed.Relationships),
	}, pipeline.CacheInfo{LayoutHit: cacheHit}, false)
	printNextStep("Render", appName+" render "+opts.Input)

	return nil
}
