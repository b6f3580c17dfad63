package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdraw/pkg/errors"
	"github.com/matzehuels/erdraw/pkg/pipeline"
)

// renderCommand creates the render command: load, place and draw in one step.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		configPath string
		noCache    bool
		saveLayout bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "render [schema]",
		Short: "Render a schema to SVG, PNG, PDF, DOT or JSON",
		Long: `Render a schema to SVG, PNG, PDF, DOT or JSON.

Saved positions from <schema>.layout.toml are applied first; tables without a
position are placed on the grid next to their neighbours. Use --auto-layout to
ignore the saved positions and --save-layout to write the result back.

The native engine routes relationships as orthogonal connectors. The graphviz
engine hands the schema to Graphviz instead and ignores saved positions.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, configPath, &opts); err != nil {
				return err
			}
			if formatsStr != "" || len(opts.Formats) == 0 {
				opts.Formats = parseFormats(formatsStr)
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			opts.Input = args[0]
			return c.runRender(cmd.Context(), opts, output, noCache, saveLayout)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format, - for stdout) or base path (multiple)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML file with render options")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute and overwrite cached results")
	cmd.Flags().BoolVar(&saveLayout, "save-layout", false, "write the final positions to the layout file")

	// Layout flags
	layoutFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.LayoutPath, "layout", "", "layout file (default: <schema>.layout.toml)")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.Engine, "engine", opts.Engine, "render engine: native (default), graphviz")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG pixel density")
	cmd.Flags().Float64Var(&opts.Clearance, "clearance", 0, "gap kept between connectors and boxes (0 for default)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show column types and flags (dot, graphviz)")
	cmd.Flags().BoolVar(&opts.NoBackground, "no-background", false, "transparent background")
	cmd.Flags().BoolVar(&opts.NoShadows, "no-shadows", false, "draw boxes without drop shadows")
	cmd.Flags().StringVar(&opts.Rasterizer, "rasterizer", opts.Rasterizer, "PNG rasterizer: native (default), rsvg")

	return cmd
}

// runRender executes the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache, saveLayout bool) error {
	runner, err := c.newRunner(noCache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	if opts.Engine == pipeline.EngineGraphviz && !opts.AutoLayout {
		printWarning("The graphviz engine ignores saved positions")
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(opts.Input)))
	restore := reportStages(spinner, 0)
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	restore()
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     opts.Input,
		output:    output,
	}); err != nil {
		return err
	}
	printStats(result.Stats, result.CacheInfo, true)

	if saveLayout {
		where, err := runner.SaveLayout(ctx, result.Diagram, opts)
		if err != nil {
			return fmt.Errorf("save layout: %w", err)
		}
		printDetail("Layout saved to %s", where)
	}
	return nil
}

// artifactWriteParams describes where rendered artifacts go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	stdout    io.Writer
}

// writeArtifacts writes each artifact in format order. A single format goes
// to output verbatim; several formats share output as a base path.
func writeArtifacts(p artifactWriteParams) error {
	if p.output == "-" {
		if len(p.formats) != 1 {
			return errors.New(errors.ErrCodeInvalidInput, "stdout output needs exactly one format")
		}
		w := p.stdout
		if w == nil {
			w = os.Stdout
		}
		_, err := w.Write(p.artifacts[p.formats[0]])
		return err
	}

	single := len(p.formats) == 1 && p.output != ""
	base := basePath(p.output, p.input)
	var written []string
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if single {
			path = p.output
		}
		if err := writeOutput(path, data); err != nil {
			return err
		}
		written = append(written, path)
	}

	printSuccess("Rendered %d file(s)", len(written))
	for _, path := range written {
		printFile(path)
	}
	return nil
}

// writeOutput validates path and writes data to it.
func writeOutput(path string, data []byte) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
