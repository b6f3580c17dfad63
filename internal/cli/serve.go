package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdraw/internal/server"
	"github.com/matzehuels/erdraw/pkg/editor"
	"github.com/matzehuels/erdraw/pkg/layoutfile"
	"github.com/matzehuels/erdraw/pkg/pipeline"
	"github.com/matzehuels/erdraw/pkg/render/sink"
	"github.com/matzehuels/erdraw/pkg/scene"
)

// serveCommand creates the serve command that runs the interactive editor
// backend for one schema.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		layoutDir  string
		configPath string
		store      storeOpts
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "serve [schema]",
		Short: "Serve an interactive editor for a schema",
		Long: `Serve an interactive editor for a schema.

The editor backend keeps the diagram in memory and exposes it over HTTP:
frames as SVG or JSON, an endpoint for editor messages and an event stream.
Every drag, reset or save writes the positions to the layout store, which is
the layout file beside the schema unless --layout-dir or --redis is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, configPath, &opts); err != nil {
				return err
			}
			opts.Input = args[0]
			return c.runServe(cmd.Context(), opts, addr, layoutDir, store)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&layoutDir, "layout-dir", "", "keep layout files in this directory")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML file with layout and render options")
	layoutFlags(cmd, &opts)
	cmd.Flags().Float64Var(&opts.Clearance, "clearance", 0, "gap kept between connectors and boxes (0 for default)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG pixel density for exports")
	cmd.Flags().StringVar(&opts.Rasterizer, "rasterizer", opts.Rasterizer, "PNG rasterizer: native (default), rsvg")
	store.register(cmd)

	return cmd
}

// runServe loads the schema into an editor session and serves it until ctx
// is cancelled.
func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, addr, layoutDir string, so storeOpts) error {
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	store, err := so.open(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		fs, err := layoutfile.NewFileStore(layoutDir)
		if err != nil {
			return err
		}
		store = fs
	}

	runner, err := c.newRunner(true, store)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	d, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Loaded %s", opts.Input))

	m, release, err := opts.NewMeasurer()
	if err != nil {
		return err
	}
	defer release()

	hub := server.NewHub(c.Logger)
	sess := editor.New(d,
		editor.WithLogger(c.Logger),
		editor.WithNotifier(hub),
		editor.WithStore(store),
		editor.WithSource(opts.Input),
		editor.WithMeasurer(m),
		editor.WithLayoutOptions(opts.LayoutOptions()...),
		editor.WithSceneOptions(scene.Options{Clearance: opts.Clearance}),
	)
	srv := server.New(sess,
		server.WithLogger(c.Logger),
		server.WithHub(hub),
		server.WithAddr(addr),
		server.WithPNGOptions(
			sink.WithScale(opts.Scale),
			sink.WithRasterizer(sink.Rasterizer(opts.Rasterizer)),
		),
	)

	printSuccess("Editing %s", opts.Input)
	printKeyValue("Tables", fmt.Sprintf("%d", len(d.Tables)))
	printKeyValue("Listening", StyleLink.Render("http://"+addr+"/api/scene.svg"))
	printDetail("Press Ctrl+C to stop")

	return srv.ListenAndServe(ctx)
}
