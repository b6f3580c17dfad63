package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/render/nodelink"
	"github.com/matzehuels/erdraw/pkg/render/sink"
	"github.com/matzehuels/erdraw/pkg/scene"
)

// Render generates output artifacts in the requested formats from a placed
// diagram. Tables without a measured width are measured on a copy first.
func Render(ctx context.Context, d *erd.Diagram, opts Options) (map[string][]byte, error) {
	if !measured(d) {
		d = d.Clone()
		if err := measureDiagram(d, opts); err != nil {
			return nil, err
		}
	}
	if opts.IsGraphviz() {
		return renderGraphviz(ctx, d, opts)
	}
	return renderNative(ctx, d, opts)
}

// renderNative draws the built-in scene: grid positions, routed edges and
// crow's foot markers.
func renderNative(ctx context.Context, d *erd.Diagram, opts Options) (map[string][]byte, error) {
	sc := scene.Build(d, scene.Options{Clearance: opts.Clearance})
	if sc.Skipped > 0 {
		opts.Logger.Warn("skipped relationships", "count", sc.Skipped)
	}

	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(sc, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(ctx, sc,
				sink.WithScale(opts.Scale),
				sink.WithRasterizer(sink.Rasterizer(opts.Rasterizer)),
				sink.WithPNGSVGOptions(svgOpts...))
		case FormatPDF:
			data, err = sink.RenderPDF(ctx, sc, svgOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(sc)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(d, nodelink.Options{Detailed: opts.Detailed}))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// renderGraphviz hands the diagram to Graphviz. Saved positions are ignored;
// dot chooses its own.
func renderGraphviz(ctx context.Context, d *erd.Diagram, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(d, nodelink.Options{Detailed: opts.Detailed})
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatDOT:
			data = []byte(dot)
		default:
			return nil, fmt.Errorf("unsupported graphviz format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// buildSVGOptions builds SVG rendering options.
func buildSVGOptions(opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.NoBackground {
		svgOpts = append(svgOpts, sink.WithoutBackground())
	}
	if opts.NoShadows {
		svgOpts = append(svgOpts, sink.WithoutShadows())
	}
	return svgOpts
}

func measured(d *erd.Diagram) bool {
	for i := range d.Tables {
		if d.Tables[i].Width == nil {
			return false
		}
	}
	return true
}
