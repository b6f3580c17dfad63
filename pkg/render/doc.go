// Package render turns computed diagram scenes into output files.
//
// # Overview
//
// Rendering is split by output family:
//
//   - [sink] draws a [scene.Scene] as SVG, PNG, PDF or JSON
//   - [nodelink] exports the diagram structure as Graphviz DOT and renders it
//     with Graphviz's own layout, as an alternative view
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG document using the external
// rsvg-convert tool (from librsvg). The PDF sink always goes through
// [ToPDF]; PNG output is drawn natively by default and only uses [ToPNG]
// when the rsvg rasterizer is requested.
//
//	svg := sink.RenderSVG(s)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [sink]: github.com/matzehuels/erdraw/pkg/render/sink
// [nodelink]: github.com/matzehuels/erdraw/pkg/render/nodelink
// [scene.Scene]: github.com/matzehuels/erdraw/pkg/scene.Scene
package render
