package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdraw/pkg/erd"
	erdio "github.com/matzehuels/erdraw/pkg/io"
	"github.com/matzehuels/erdraw/pkg/pipeline"
)

// convertCommand creates the convert command that rewrites a schema in
// another format, optionally carrying its saved positions along.
func (c *CLI) convertCommand() *cobra.Command {
	var withLayout bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "convert [schema] [output]",
		Short: "Convert a schema between DBML, JSON and YAML",
		Long: `Convert a schema between DBML, JSON and YAML.

The output format follows the output file extension (.json, .yaml or .yml).
DBML can be read but not written. With --with-layout the saved positions are
applied and written as each table's position.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			return c.runConvert(cmd.Context(), opts, args[1], withLayout)
		},
	}

	cmd.Flags().BoolVar(&withLayout, "with-layout", false, "apply saved positions before writing")
	cmd.Flags().StringVar(&opts.LayoutPath, "layout", "", "layout file (default: <schema>.layout.toml)")

	return cmd
}

func (c *CLI) runConvert(ctx context.Context, opts pipeline.Options, output string, withLayout bool) error {
	if _, err := erdio.DetectFormat(output); err != nil {
		return err
	}

	d, err := c.loadForConvert(ctx, opts, withLayout)
	if err != nil {
		return err
	}

	if err := erdio.Export(d, output); err != nil {
		return err
	}
	printSuccess("Converted %s", opts.Input)
	printFile(output)
	return nil
}

// loadForConvert imports the schema as written, or through the pipeline
// loader when saved positions should be applied.
func (c *CLI) loadForConvert(ctx context.Context, opts pipeline.Options, withLayout bool) (*erd.Diagram, error) {
	if !withLayout {
		return erdio.Import(opts.Input)
	}
	runner, err := c.newRunner(true, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	return runner.Load(ctx, opts)
}
